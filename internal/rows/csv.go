// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package rows

import (
	"bytes"
	"encoding/csv"
	"os"
)

// sniffSampleSize is how much of the file the delimiter sniffer reads.
const sniffSampleSize = 2048

// delimiterCandidates in preference order. Brazilian exports use
// semicolons about as often as commas.
var delimiterCandidates = []rune{',', ';', '\t', '|'}

// CSVTable is a parsed CSV file.
type CSVTable struct {
	rows      []Row
	columns   []string
	delimiter rune
}

// ReadCSV parses a UTF-8 CSV file. The delimiter is sniffed from the
// header line inside the first 2 KiB, with a comma fallback.
func ReadCSV(path string) (*CSVTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, inputErrorf("cannot read %s: %v", path, err)
	}
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	delimiter := sniffDelimiter(data)
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	// Ragged rows are tolerated; short rows read as empty cells.
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, inputErrorf("malformed CSV in %s: %v", path, err)
	}
	if len(records) == 0 {
		return nil, inputErrorf("%s has no header row", path)
	}

	columns := make([]string, len(records[0]))
	for i, col := range records[0] {
		columns[i] = col
	}
	if err := validateColumns(columns); err != nil {
		return nil, err
	}

	tableRows := make([]Row, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(Row, len(columns))
		for i, col := range columns {
			if i < len(record) {
				row[col] = record[i]
			} else {
				row[col] = ""
			}
		}
		tableRows = append(tableRows, row)
	}

	return &CSVTable{rows: tableRows, columns: columns, delimiter: delimiter}, nil
}

// Rows returns the data rows in file order.
func (t *CSVTable) Rows() []Row {
	return t.rows
}

// Columns returns the header in file order.
func (t *CSVTable) Columns() []string {
	return t.columns
}

// Write writes rows to path using the input's delimiter, with
// appendColumns added after the original header.
func (t *CSVTable) Write(path string, rows []Row, appendColumns []string) error {
	columns := mergeColumns(t.columns, appendColumns)

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(f)
	writer.Comma = t.delimiter
	_ = writer.Write(columns)
	record := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			record[i] = row[col]
		}
		_ = writer.Write(record)
	}
	writer.Flush()

	// csv.Writer errors are sticky; one check covers every Write above.
	if err := writer.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Close is a no-op; CSV tables hold no resources after parsing.
func (t *CSVTable) Close() error {
	return nil
}

// sniffDelimiter counts candidate separators on the header line of the
// sample and picks the most frequent one, defaulting to a comma.
func sniffDelimiter(data []byte) rune {
	sample := data
	if len(sample) > sniffSampleSize {
		sample = sample[:sniffSampleSize]
	}
	if i := bytes.IndexByte(sample, '\n'); i >= 0 {
		sample = sample[:i]
	}

	best := ','
	bestCount := 0
	for _, candidate := range delimiterCandidates {
		if n := bytes.Count(sample, []byte(string(candidate))); n > bestCount {
			best = candidate
			bestCount = n
		}
	}
	return best
}
