// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package rows reads and writes the spreadsheet files the screening
// pipeline works on. Readers parse CSV or XLSX input into uniform string
// rows; writers emit the same rows with the verdict columns appended, in
// the same format and column order as the input.
package rows

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"crivo/internal/detector"
)

// IDColumn is the required identifier column.
const IDColumn = "ID"

// textColumnVariants are the accepted spellings of the text column. The
// first one is canonical; readers keep whichever spelling the input used.
var textColumnVariants = []string{"Texto Mascarado", "texto mascarado", "texto_mascarado"}

// Row is one input record keyed by column name. Missing cells read as
// empty strings.
type Row map[string]string

// Table is a parsed input file. A Table remembers enough of its source
// format to write the classified copy in the same shape: same delimiter
// for CSV, same workbook for XLSX.
type Table interface {
	Rows() []Row
	Columns() []string

	// Write writes rows to path with appendColumns added after the
	// original columns. Columns already present are not duplicated.
	Write(path string, rows []Row, appendColumns []string) error

	// Close releases reader resources. Safe to call more than once.
	Close() error
}

// InputError marks a malformed or unusable input file. The CLI reserves
// an exit code for it.
type InputError struct {
	msg string
}

func (e *InputError) Error() string { return e.msg }

func inputErrorf(format string, args ...interface{}) *InputError {
	return &InputError{msg: fmt.Sprintf(format, args...)}
}

// IsInputError reports whether err is an input contract violation.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}

// Read parses an input file, dispatching on its extension.
func Read(path string) (Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(path)
	case ".xlsx":
		return ReadXLSX(path)
	default:
		return nil, inputErrorf("unsupported input format %q, want .csv or .xlsx", filepath.Ext(path))
	}
}

// TextColumn returns the text column name actually present in columns.
func TextColumn(columns []string) (string, bool) {
	for _, variant := range textColumnVariants {
		for _, col := range columns {
			if col == variant {
				return variant, true
			}
		}
	}
	return "", false
}

// validateColumns checks the required-column contract shared by both
// readers.
func validateColumns(columns []string) error {
	var missing []string
	found := false
	for _, col := range columns {
		if col == IDColumn {
			found = true
			break
		}
	}
	if !found {
		missing = append(missing, IDColumn)
	}
	if _, ok := TextColumn(columns); !ok {
		missing = append(missing, textColumnVariants[0])
	}
	if len(missing) > 0 {
		return inputErrorf("input is missing required columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Observations converts table rows into screening observations. Row
// numbers start at 2, the first data line of the source file.
func Observations(t Table) []detector.Observation {
	textCol, _ := TextColumn(t.Columns())
	obs := make([]detector.Observation, len(t.Rows()))
	for i, row := range t.Rows() {
		obs[i] = detector.Observation{
			ID:   row[IDColumn],
			Text: row[textCol],
			Row:  i + 2,
		}
	}
	return obs
}

// OutputColumns lists the verdict columns appended to the input columns,
// in output order.
func OutputColumns() []string {
	cols := make([]string, 0, len(detector.Categories)+2)
	cols = append(cols, "nao_publico")
	cols = append(cols, detector.Categories...)
	return append(cols, "detector_prioritario")
}

// ApplyVerdict returns a copy of row with the verdict columns filled in.
// A zeroed verdict yields all-zero flags and an empty priority, which is
// exactly what pass-through rows carry.
func ApplyVerdict(row Row, v detector.Verdict) Row {
	out := make(Row, len(row)+len(detector.Categories)+2)
	for k, val := range row {
		out[k] = val
	}
	if v.IsPersonal {
		out["nao_publico"] = "1"
	} else {
		out["nao_publico"] = "0"
	}
	for _, id := range detector.Categories {
		out[id] = strconv.Itoa(v.Flags[id])
	}
	out["detector_prioritario"] = v.PriorityDetector
	return out
}

// DefaultOutputPath places the classified copy next to the input, with a
// _classificado suffix before the extension.
func DefaultOutputPath(inputPath string) string {
	ext := filepath.Ext(inputPath)
	return strings.TrimSuffix(inputPath, ext) + "_classificado" + ext
}

// CheckOutputPath verifies that an explicit output path keeps the input
// format. Mirroring the format is part of the output contract, so a
// mismatch is an input error, not a silent conversion.
func CheckOutputPath(inputPath, outputPath string) error {
	inExt := filepath.Ext(inputPath)
	outExt := filepath.Ext(outputPath)
	if !strings.EqualFold(inExt, outExt) {
		return inputErrorf("output extension %q does not match input extension %q", outExt, inExt)
	}
	return nil
}

// mergeColumns appends the columns from extra that base does not already
// have, preserving order.
func mergeColumns(base, extra []string) []string {
	merged := make([]string, 0, len(base)+len(extra))
	merged = append(merged, base...)
	for _, col := range extra {
		present := false
		for _, have := range merged {
			if have == col {
				present = true
				break
			}
		}
		if !present {
			merged = append(merged, col)
		}
	}
	return merged
}
