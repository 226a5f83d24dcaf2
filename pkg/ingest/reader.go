package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Table is one parsed sheet or CSV file: a cleaned header plus raw string
// rows, before type conversion.
type Table struct {
	Name    string
	Columns []string
	Types   []string
	Rows    [][]string
}

// ReadCSV parses a CSV stream into a single table named after the file stem.
// Ragged rows are tolerated; missing cells read as empty.
func ReadCSV(r io.Reader, name string) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv file is empty")
	}

	return buildTable(name, records)
}

// ReadXLSX parses a workbook into one table per non-empty sheet.
func ReadXLSX(r io.Reader) ([]*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	var tables []*Table
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		if len(rows) == 0 {
			continue
		}
		table, err := buildTable(sheet, rows)
		if err != nil {
			return nil, fmt.Errorf("sheet %q: %w", sheet, err)
		}
		tables = append(tables, table)
	}

	if len(tables) == 0 {
		return nil, fmt.Errorf("workbook has no non-empty sheets")
	}
	return tables, nil
}

// buildTable cleans the header, pads ragged rows, and infers column types.
func buildTable(name string, records [][]string) (*Table, error) {
	header := records[0]
	if len(header) == 0 {
		return nil, fmt.Errorf("header row is empty")
	}

	columns := CleanColumnNames(header)
	width := len(columns)

	rows := make([][]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make([]string, width)
		for i := 0; i < width && i < len(rec); i++ {
			row[i] = rec[i]
		}
		rows = append(rows, row)
	}

	return &Table{
		Name:    strings.TrimSpace(name),
		Columns: columns,
		Types:   InferColumnTypes(rows, width),
		Rows:    rows,
	}, nil
}
