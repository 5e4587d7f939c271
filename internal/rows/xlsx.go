// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package rows

import (
	"strings"

	"github.com/xuri/excelize/v2"
)

// headerRow is the worksheet row holding the column names.
const headerRow = 1

// XLSXTable is a parsed XLSX worksheet. The workbook stays open so the
// classified copy can be written into it, keeping every other sheet and
// its formatting intact.
type XLSXTable struct {
	file    *excelize.File
	sheet   string
	rows    []Row
	columns []string
	closed  bool
}

// ReadXLSX parses an XLSX file. The first sheet whose header row carries
// the required columns is used; every cell is read as a string.
func ReadXLSX(path string) (*XLSXTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, inputErrorf("cannot read %s: %v", path, err)
	}

	for _, sheet := range f.GetSheetList() {
		raw, err := f.GetRows(sheet)
		if err != nil || len(raw) == 0 {
			continue
		}

		columns := make([]string, len(raw[0]))
		for i, cell := range raw[0] {
			columns[i] = strings.TrimSpace(cell)
		}
		if validateColumns(columns) != nil {
			continue
		}

		tableRows := make([]Row, 0, len(raw)-1)
		for _, record := range raw[1:] {
			row := make(Row, len(columns))
			for i, col := range columns {
				if col == "" {
					continue
				}
				if i < len(record) {
					row[col] = record[i]
				} else {
					row[col] = ""
				}
			}
			tableRows = append(tableRows, row)
		}

		return &XLSXTable{file: f, sheet: sheet, rows: tableRows, columns: columns}, nil
	}

	f.Close()
	return nil, inputErrorf("no sheet in %s carries the required columns %q and %q", path, IDColumn, textColumnVariants[0])
}

// Rows returns the data rows in sheet order.
func (t *XLSXTable) Rows() []Row {
	return t.rows
}

// Columns returns the header in sheet order.
func (t *XLSXTable) Columns() []string {
	return t.columns
}

// Write rewrites the source sheet with rows plus appendColumns and saves
// the workbook to path. Sheets other than the source sheet are carried
// over untouched.
func (t *XLSXTable) Write(path string, rows []Row, appendColumns []string) error {
	columns := mergeColumns(t.columns, appendColumns)

	for i, col := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, headerRow)
		if err != nil {
			return err
		}
		if err := t.file.SetCellStr(t.sheet, cell, col); err != nil {
			return err
		}
	}

	for r, row := range rows {
		for c, col := range columns {
			cell, err := excelize.CoordinatesToCellName(c+1, headerRow+1+r)
			if err != nil {
				return err
			}
			if err := t.file.SetCellStr(t.sheet, cell, row[col]); err != nil {
				return err
			}
		}
	}

	return t.file.SaveAs(path)
}

// Close releases the underlying workbook.
func (t *XLSXTable) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true
	return t.file.Close()
}
