// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package csv

import (
	"fmt"
	"strings"

	"crivo/internal/detector"
	"crivo/internal/formatters"
	"crivo/internal/formatters/shared"
)

// Formatter implements CSV output formatting
type Formatter struct{}

// NewFormatter creates a new CSV formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

func (f *Formatter) Name() string {
	return "csv"
}

func (f *Formatter) Description() string {
	return "Comma-separated values for spreadsheet import"
}

func (f *Formatter) FileExtension() string {
	return ".csv"
}

func (f *Formatter) Format(report formatters.Report, options formatters.Options) (string, error) {
	headers := []string{"ID", "Nao Publico", "Detector", "Source", "Flags", "Evidence"}
	if options.Verbose {
		headers = append(headers, "Weak Score", "Remote Failure")
	}

	// Start with header row
	csvRows := []string{strings.Join(headers, ",")}

	for _, v := range report.Verdicts {
		if v.IsPersonal {
			csvRows = append(csvRows, f.createCSVRow(v, options))
		}
		for _, s := range v.Suppressed {
			csvRows = append(csvRows, f.createSuppressedRow(v, s, options))
		}
	}

	return strings.Join(csvRows, "\n"), nil
}

// createCSVRow creates a CSV row for a flagged verdict
func (f *Formatter) createCSVRow(v detector.Verdict, options formatters.Options) string {
	var spans []string
	for _, item := range v.Evidence {
		spans = append(spans, item.Span)
	}
	displayText := shared.DisplaySpan(strings.Join(spans, "; "), options.ShowMatch)

	row := []string{
		f.escapeCSVField(v.ObservationID),
		"1",
		f.escapeCSVField(v.PriorityDetector),
		f.escapeCSVField(string(v.Source)),
		f.escapeCSVField(shared.FlagsLabel(v)),
		f.escapeCSVField(displayText),
	}
	if options.Verbose {
		row = append(row,
			fmt.Sprintf("%.2f", v.WeakScore),
			f.escapeCSVField(v.RemoteFailure))
	}

	return strings.Join(row, ",")
}

// createSuppressedRow creates a CSV row for one allowlisted finding
func (f *Formatter) createSuppressedRow(v detector.Verdict, s detector.SuppressedMatch, options formatters.Options) string {
	displayText := shared.DisplaySpan(s.Evidence.Span, options.ShowMatch)

	row := []string{
		f.escapeCSVField(v.ObservationID),
		"0",
		f.escapeCSVField(s.Evidence.Type),
		"suppressed",
		f.escapeCSVField("rule: " + s.Rule),
		f.escapeCSVField(displayText),
	}
	if options.Verbose {
		row = append(row, "", f.escapeCSVField(s.Reason))
	}

	return strings.Join(row, ",")
}

// escapeCSVField properly escapes a field for CSV format and prevents CSV injection
func (f *Formatter) escapeCSVField(field string) string {
	// Prevent CSV injection by sanitizing formula characters
	field = f.sanitizeFormulaInjection(field)

	// If field contains comma, quote, or newline, wrap in quotes and escape internal quotes
	if strings.Contains(field, ",") || strings.Contains(field, "\"") || strings.Contains(field, "\n") || strings.Contains(field, "\r") {
		// Escape internal quotes by doubling them
		escaped := strings.ReplaceAll(field, "\"", "\"\"")
		return fmt.Sprintf("\"%s\"", escaped)
	}
	return field
}

// sanitizeFormulaInjection prevents CSV injection attacks by sanitizing formula characters
func (f *Formatter) sanitizeFormulaInjection(field string) string {
	if len(field) == 0 {
		return field
	}

	// Evidence spans land in spreadsheets, so neutralize anything a
	// spreadsheet would evaluate as a formula
	firstChar := field[0]
	if firstChar == '=' || firstChar == '+' || firstChar == '-' || firstChar == '@' {
		// Prefix with single quote to prevent formula execution
		return "'" + field
	}

	return field
}

// Register the formatter during package initialization
func init() {
	formatters.Register(NewFormatter())
}
