package session

import (
	"errors"
	"fmt"

	"github.com/andys/ifsc_enricher/sheet"
)

var (
	// ErrColumnNotFound matches every *ColumnNotFoundError.
	ErrColumnNotFound = errors.New("lookup column not found")
	// ErrEmptyRowSet is returned for files without data rows.
	ErrEmptyRowSet = errors.New("no rows found in file")
)

// ColumnNotFoundError reports that the first row lacks the lookup column.
type ColumnNotFoundError struct {
	Column string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("column %q not found in the uploaded file", e.Column)
}

func (e *ColumnNotFoundError) Is(target error) bool {
	return target == ErrColumnNotFound
}

// Validate accepts rows iff there is at least one row and the first row has
// column as a key. The match is exact and case-sensitive; later rows are
// not inspected.
func Validate(rows sheet.RowSet, column string) error {
	if len(rows) == 0 {
		return ErrEmptyRowSet
	}
	if !rows[0].Has(column) {
		return &ColumnNotFoundError{Column: column}
	}
	return nil
}
