package session

import "github.com/andys/ifsc_enricher/sheet"

// PageSize is the number of rows per page.
const PageSize = 10

// TotalPages returns ceil(n / PageSize).
func TotalPages(n int) int {
	return (n + PageSize - 1) / PageSize
}

// ClampPage limits page to [1, TotalPages(n)]; it is 1 when n is 0.
func ClampPage(n, page int) int {
	if last := TotalPages(n); page > last {
		page = last
	}
	if page < 1 {
		page = 1
	}
	return page
}

// Page returns the rows shown on a 1-based page, after clamping.
func Page(rows sheet.RowSet, page int) sheet.RowSet {
	if len(rows) == 0 {
		return sheet.RowSet{}
	}
	page = ClampPage(len(rows), page)
	start := (page - 1) * PageSize
	end := start + PageSize
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}
