package sheet

import (
	"bytes"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	// SheetName is the name of the single worksheet in an exported workbook.
	SheetName = "Bank Details"
	// DefaultFileName is the file name offered for downloads.
	DefaultFileName = "enriched_ifsc_details.xlsx"
	// ContentType is the MIME type of exported workbooks.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Write encodes rows as an xlsx workbook. The header line is derived with
// mode; columns a row lacks are left empty.
func Write(w io.Writer, rows RowSet, mode HeaderMode) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := rows.Header(mode)
	if len(header) > 0 {
		line := make([]interface{}, len(header))
		for i, h := range header {
			line[i] = h
		}
		if err := f.SetSheetRow(SheetName, "A1", &line); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}

		style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return fmt.Errorf("failed to create header style: %w", err)
		}
		if err := f.SetRowStyle(SheetName, 1, 1, style); err != nil {
			return fmt.Errorf("failed to style header: %w", err)
		}
	}

	for i, row := range rows {
		for j, key := range header {
			v, ok := row.Get(key)
			if !ok || v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(SheetName, cell, cellValue(v)); err != nil {
				return fmt.Errorf("failed to write cell %s: %w", cell, err)
			}
		}
	}

	// Approximate column widths from the header text
	for i, h := range header {
		colName, _ := excelize.ColumnNumberToName(i + 1)
		width := float64(len(h) + 4)
		if width < 12 {
			width = 12
		}
		if err := f.SetColWidth(SheetName, colName, colName, width); err != nil {
			return fmt.Errorf("failed to size column %s: %w", colName, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write Excel file: %w", err)
	}
	return nil
}

// Bytes is Write into a byte slice.
func Bytes(rows RowSet, mode HeaderMode) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, rows, mode); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func cellValue(v interface{}) interface{} {
	switch v.(type) {
	case string, float64, bool:
		return v
	default:
		return Text(v)
	}
}
