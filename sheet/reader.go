package sheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"
)

var (
	// ErrDecode is returned when a file cannot be parsed as a spreadsheet.
	ErrDecode = errors.New("cannot decode spreadsheet")
	// ErrUnsupportedFormat is returned for files that are neither XLSX, XLS nor CSV.
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// Format identifies a spreadsheet container format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
	FormatCSV  Format = "csv"
)

// DetectFormat checks magic bytes for xlsx (ZIP/PK header) or xls (OLE2),
// falling back to the file extension for CSV.
func DetectFormat(name string, data []byte) (Format, error) {
	if len(data) >= 4 {
		if data[0] == 0x50 && data[1] == 0x4B && data[2] == 0x03 && data[3] == 0x04 {
			return FormatXLSX, nil
		}
		if data[0] == 0xD0 && data[1] == 0xCF && data[2] == 0x11 && data[3] == 0xE0 {
			return FormatXLS, nil
		}
	}
	if strings.EqualFold(filepath.Ext(name), ".csv") {
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(name))
}

// Read decodes the first sheet of a spreadsheet into rows. The first
// non-empty line is the header; empty cells are left out of each row and
// rows without any value are skipped.
func Read(name string, data []byte) (RowSet, error) {
	format, err := DetectFormat(name, data)
	if err != nil {
		return nil, err
	}

	var grid [][]interface{}
	switch format {
	case FormatXLSX:
		grid, err = readXLSX(data)
	case FormatXLS:
		grid, err = readXLS(data)
	case FormatCSV:
		grid, err = readCSV(data)
	}
	if err != nil {
		return nil, err
	}

	return buildRows(grid), nil
}

func readXLSX(data []byte) ([][]interface{}, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("%w: no sheets found in Excel file", ErrDecode)
	}

	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read Excel rows: %v", ErrDecode, err)
	}

	grid := make([][]interface{}, len(rows))
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, raw := range row {
			if raw == "" {
				continue
			}
			cellName, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrDecode, err)
			}
			cellType, err := f.GetCellType(sheetName, cellName)
			if err != nil {
				return nil, fmt.Errorf("%w: cell %s: %v", ErrDecode, cellName, err)
			}
			cells[j] = typedValue(cellType, raw)
		}
		grid[i] = cells
	}
	return grid, nil
}

// typedValue maps a raw xlsx cell to a row value. Cells without an explicit
// type attribute are numbers in files written by Excel.
func typedValue(cellType excelize.CellType, raw string) interface{} {
	switch cellType {
	case excelize.CellTypeBool:
		return raw == "1" || strings.EqualFold(raw, "true")
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f
		}
		return raw
	default:
		return raw
	}
}

// readXLS parses a legacy XLS workbook. The reader only opens files by
// path, so the data goes through a temporary file. It panics on some
// malformed files; those are reported as decode errors.
func readXLS(data []byte) (grid [][]interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			grid, err = nil, fmt.Errorf("%w: malformed XLS file: %v", ErrDecode, r)
		}
	}()

	tmpFile, err := os.CreateTemp("", "ifsc-*.xls")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmpFile.Name())
	defer tmpFile.Close()

	if _, err := tmpFile.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	tmpFile.Close()

	book, err := xls.OpenFile(tmpFile.Name())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	sheet, err := book.GetSheet(0)
	if err != nil || sheet == nil {
		return nil, fmt.Errorf("%w: no sheets found in XLS file", ErrDecode)
	}

	for _, xlsRow := range sheet.GetRows() {
		if xlsRow == nil {
			grid = append(grid, nil)
			continue
		}
		cols := xlsRow.GetCols()
		cells := make([]interface{}, len(cols))
		for j, col := range cols {
			if s := col.GetString(); s != "" {
				cells[j] = s
			}
		}
		grid = append(grid, cells)
	}
	return grid, nil
}

func readCSV(data []byte) ([][]interface{}, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse csv: %v", ErrDecode, err)
	}

	grid := make([][]interface{}, len(records))
	for i, record := range records {
		cells := make([]interface{}, len(record))
		for j, value := range record {
			if value != "" {
				cells[j] = value
			}
		}
		grid[i] = cells
	}
	return grid, nil
}

// buildRows turns a cell grid into rows keyed by the header line.
func buildRows(grid [][]interface{}) RowSet {
	start := -1
	width := 0
	for i, cells := range grid {
		if start < 0 && !isBlank(cells) {
			start = i
		}
		if len(cells) > width {
			width = len(cells)
		}
	}
	if start < 0 {
		return RowSet{}
	}

	header := headerNames(grid[start], width)

	rows := make(RowSet, 0, len(grid)-start-1)
	for _, cells := range grid[start+1:] {
		row := NewRow()
		for j, v := range cells {
			if v == nil {
				continue
			}
			row.Set(header[j], v)
		}
		if row.Len() > 0 {
			rows = append(rows, row)
		}
	}
	return rows
}

// headerNames names every column of the sheet. Blank header cells become
// "__EMPTY" and repeated names get a numeric suffix so keys stay unique.
func headerNames(cells []interface{}, width int) []string {
	names := make([]string, width)
	used := make(map[string]bool, width)
	counts := make(map[string]int, width)
	for j := 0; j < width; j++ {
		base := "__EMPTY"
		if j < len(cells) && cells[j] != nil {
			base = Text(cells[j])
		}
		name := base
		for used[name] {
			counts[base]++
			name = fmt.Sprintf("%s_%d", base, counts[base])
		}
		used[name] = true
		names[j] = name
	}
	return names
}

func isBlank(cells []interface{}) bool {
	for _, v := range cells {
		if v != nil {
			return false
		}
	}
	return true
}
