// Package sample generates demo spreadsheets with fake remitters and IFSC codes.
package sample

import (
	"fmt"
	"math"

	"github.com/andys/ifsc_enricher/config"
	"github.com/andys/ifsc_enricher/sheet"
	"github.com/brianvoe/gofakeit/v7"
)

const (
	NameColumn   = "Remitter Name"
	AmountColumn = "Amount"

	// IFSCPattern matches well-formed codes: bank prefix, a zero, branch code.
	IFSCPattern = "[A-Z]{4}0[A-Z0-9]{6}"
	badPattern  = "[A-Z]{3}[0-9]{5}"
)

// Rows generates n rows. A badRatio share of them carry a malformed code.
// The same non-zero seed always gives the same rows; seed 0 is random.
func Rows(n int, seed uint64, badRatio float64) (sheet.RowSet, error) {
	if n < 0 {
		return nil, fmt.Errorf("row count must not be negative: %d", n)
	}
	if badRatio < 0 || badRatio > 1 {
		return nil, fmt.Errorf("bad ratio must be between 0 and 1: %v", badRatio)
	}

	faker := gofakeit.New(seed)
	bad := int(math.Round(float64(n) * badRatio))
	step := stride(n, bad)

	rows := make(sheet.RowSet, n)
	for i := range rows {
		code := faker.Regex(IFSCPattern)
		if bad > 0 && i%step == 0 && i/step < bad {
			code = faker.Regex(badPattern)
		}
		rows[i] = sheet.RowOf(
			NameColumn, faker.Name(),
			config.DefaultColumn, code,
			AmountColumn, math.Round(faker.Float64Range(100, 100000)*100)/100,
		)
	}
	return rows, nil
}

// stride spreads bad rows evenly over the file.
func stride(n, bad int) int {
	if bad <= 0 {
		return 1
	}
	if s := n / bad; s > 1 {
		return s
	}
	return 1
}

// Workbook generates n rows and encodes them as an xlsx workbook.
func Workbook(n int, seed uint64, badRatio float64) ([]byte, error) {
	rows, err := Rows(n, seed, badRatio)
	if err != nil {
		return nil, err
	}
	return sheet.Bytes(rows, sheet.HeaderFirst)
}
