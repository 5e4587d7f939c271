// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package text

import (
	"fmt"
	"strings"
	"time"

	"crivo/internal/detector"
	"crivo/internal/formatters"
	"crivo/internal/formatters/shared"

	"github.com/fatih/color"
)

// Formatter implements text-based output formatting
type Formatter struct {
	colors map[string]*color.Color
}

// NewFormatter creates a new text formatter
func NewFormatter() *Formatter {
	return &Formatter{
		colors: map[string]*color.Color{
			"green":   color.New(color.FgGreen),
			"yellow":  color.New(color.FgYellow),
			"red":     color.New(color.FgRed),
			"cyan":    color.New(color.FgCyan),
			"magenta": color.New(color.FgMagenta),
			"blue":    color.New(color.FgBlue),
			"white":   color.New(color.FgWhite, color.Bold),
		},
	}
}

func (f *Formatter) Name() string {
	return "text"
}

func (f *Formatter) Description() string {
	return "Human-readable text output with colors and tables"
}

func (f *Formatter) FileExtension() string {
	return ".txt"
}

func (f *Formatter) Format(report formatters.Report, options formatters.Options) (string, error) {
	// Disable colors if requested
	if options.NoColor {
		color.NoColor = true
	}

	tally := shared.Count(report.Verdicts)

	var builder strings.Builder
	f.appendSummary(&builder, report, tally, options)
	f.appendDetectorTable(&builder, tally, options)

	flagged := flaggedVerdicts(report.Verdicts)
	if len(flagged) == 0 {
		builder.WriteString("No personal data found.\n")
		return builder.String(), nil
	}

	if options.Verbose {
		for _, v := range flagged {
			f.appendDetailedVerdict(&builder, v, options)
		}
		return builder.String(), nil
	}

	f.appendHeaders(&builder, flagged, options)
	for _, v := range flagged {
		f.appendSummaryLine(&builder, v, flagged, options)
	}
	return builder.String(), nil
}

// flaggedVerdicts keeps the rows worth listing: personal rows plus rows
// where only a suppression kept them public.
func flaggedVerdicts(verdicts []detector.Verdict) []detector.Verdict {
	var flagged []detector.Verdict
	for _, v := range verdicts {
		if v.IsPersonal || len(v.Suppressed) > 0 {
			flagged = append(flagged, v)
		}
	}
	return flagged
}

// appendSummary adds the run rollup block to the string builder
func (f *Formatter) appendSummary(builder *strings.Builder, report formatters.Report, tally shared.Tally, options formatters.Options) {
	title := "=== Screening Summary ===\n"
	if !options.NoColor {
		title = f.colors["white"].Sprint(title)
	}
	builder.WriteString(title)

	f.appendField(builder, "Input", report.Input, options)
	if report.Output != "" {
		f.appendField(builder, "Output", report.Output, options)
	}
	if report.EvidencePath != "" {
		f.appendField(builder, "Evidence log", report.EvidencePath, options)
	}

	rows := fmt.Sprintf("%d screened", tally.Total)
	if report.PassedThrough > 0 {
		rows = fmt.Sprintf("%d screened, %d passed through unscreened", tally.Total, report.PassedThrough)
	}
	f.appendField(builder, "Rows", rows, options)

	percent := float64(tally.Personal) / float64(max(tally.Total, 1)) * 100
	f.appendField(builder, "Not public", fmt.Sprintf("%d (%.1f%%)", tally.Personal, percent), options)

	if tally.SuppressedFindings > 0 {
		f.appendField(builder, "Suppressed",
			fmt.Sprintf("%d findings on %d rows", tally.SuppressedFindings, tally.SuppressedRows), options)
	}

	oracleRows := tally.BySource[detector.SourceOracleCache] + tally.BySource[detector.SourceOracleRemote]
	sources := fmt.Sprintf("%d strong, %d weak, %d oracle",
		tally.BySource[detector.SourceStrong], tally.BySource[detector.SourceWeak], oracleRows)
	f.appendField(builder, "Sources", sources, options)

	if tally.RemoteFailures > 0 {
		f.appendField(builder, "Oracle failures",
			fmt.Sprintf("%d rows classified locally after a remote error", tally.RemoteFailures), options)
	}

	if report.Workers > 0 {
		f.appendField(builder, "Workers", fmt.Sprintf("%d", report.Workers), options)
	}
	if report.Duration > 0 {
		f.appendField(builder, "Duration",
			fmt.Sprintf("%s (%.1f rows/s)", report.Duration.Round(time.Millisecond), report.RowsPerSecond()), options)
	}
	builder.WriteString("\n")
}

// appendField adds one "label: value" summary line
func (f *Formatter) appendField(builder *strings.Builder, label, value string, options formatters.Options) {
	if !options.NoColor {
		f.colors["cyan"].Fprintf(builder, "%-16s", label+":")
		f.colors["white"].Fprintf(builder, "%s\n", value)
		return
	}
	fmt.Fprintf(builder, "%-16s%s\n", label+":", value)
}

// appendDetectorTable adds the per-category counts in column order
func (f *Formatter) appendDetectorTable(builder *strings.Builder, tally shared.Tally, options formatters.Options) {
	header := fmt.Sprintf("%-15s %s\n", "DETECTOR", "ROWS")
	if !options.NoColor {
		header = f.colors["white"].Sprintf("%-15s %s\n", "DETECTOR", "ROWS")
	}
	builder.WriteString(header)

	for _, id := range detector.Categories {
		name := id
		if !options.NoColor {
			name = f.colors["cyan"].Sprintf("%-15s", id)
		} else {
			name = fmt.Sprintf("%-15s", id)
		}
		fmt.Fprintf(builder, "%s %d\n", name, tally.ByDetector[id])
	}
	builder.WriteString("\n")
}

// appendHeaders adds column headers to the string builder
func (f *Formatter) appendHeaders(builder *strings.Builder, flagged []detector.Verdict, options formatters.Options) {
	evidenceWidth := f.calculateEvidenceColumnWidth(flagged, options)
	headerStr := fmt.Sprintf("%-8s %-12s %-14s %-24s %-*s\n",
		"SOURCE", "ROW", "DETECTOR", "FLAGS", evidenceWidth, "EVIDENCE")
	if !options.NoColor {
		headerStr = f.colors["white"].Sprintf("%-8s %-12s %-14s %-24s %-*s\n",
			"SOURCE", "ROW", "DETECTOR", "FLAGS", evidenceWidth, "EVIDENCE")
	}
	builder.WriteString(headerStr)

	totalWidth := 8 + 1 + 12 + 1 + 14 + 1 + 24 + 1 + evidenceWidth
	separator := strings.Repeat("-", totalWidth) + "\n"
	if !options.NoColor {
		separator = f.colors["white"].Sprint(strings.Repeat("-", totalWidth) + "\n")
	}
	builder.WriteString(separator)
}

// calculateEvidenceColumnWidth calculates the optimal width for the evidence column
func (f *Formatter) calculateEvidenceColumnWidth(flagged []detector.Verdict, options formatters.Options) int {
	maxWidth := 10 // Minimum width for "[REDACTED]"
	if !options.ShowMatch {
		return maxWidth
	}
	for _, v := range flagged {
		text := f.evidenceText(v, options)
		runeCount := len([]rune(text))
		if runeCount > maxWidth {
			maxWidth = runeCount
		}
	}
	// Cap at 30 characters for readability
	if maxWidth > 30 {
		maxWidth = 30
	}
	return maxWidth
}

// evidenceText flattens a verdict's spans into one display string
func (f *Formatter) evidenceText(v detector.Verdict, options formatters.Options) string {
	items := v.Evidence
	if len(items) == 0 && len(v.Suppressed) > 0 {
		for _, s := range v.Suppressed {
			items = append(items, s.Evidence)
		}
	}
	if len(items) == 0 {
		return "-"
	}

	var spans []string
	for _, item := range items {
		span := strings.ReplaceAll(item.Span, "\n", " ")
		span = strings.ReplaceAll(span, "\t", " ")
		spans = append(spans, span)
	}
	return shared.DisplaySpan(strings.Join(spans, "; "), options.ShowMatch)
}

// appendSummaryLine adds a single line summary to the string builder
func (f *Formatter) appendSummaryLine(builder *strings.Builder, v detector.Verdict, flagged []detector.Verdict, options formatters.Options) {
	sourceName, sourceColor := f.sourceLabel(v)
	sourceStr := fmt.Sprintf("[%-6s]", sourceName)
	if !options.NoColor {
		sourceStr = sourceColor.Sprintf("[%-6s]", sourceName)
	}

	rowID := v.ObservationID
	if len(rowID) > 12 {
		rowID = rowID[:9] + "..."
	}
	rowStr := fmt.Sprintf("%-12s", rowID)
	if !options.NoColor {
		rowStr = f.colors["green"].Sprintf("%-12s", rowID)
	}

	detectorStr := fmt.Sprintf("%-14s", priorityLabel(v))
	if !options.NoColor {
		detectorStr = f.colors["cyan"].Sprintf("%-14s", priorityLabel(v))
	}

	flags := shared.FlagsLabel(v)
	if len(flags) > 24 {
		flags = flags[:21] + "..."
	}
	flagsStr := fmt.Sprintf("%-24s", flags)
	if !options.NoColor {
		flagsStr = f.colors["blue"].Sprintf("%-24s", flags)
	}

	targetWidth := f.calculateEvidenceColumnWidth(flagged, options)
	evidence := f.evidenceText(v, options)
	runes := []rune(evidence)
	if len(runes) > targetWidth {
		evidence = string(runes[:targetWidth-3]) + "..."
	}
	padding := targetWidth - len([]rune(evidence))
	if padding > 0 {
		evidence += strings.Repeat(" ", padding)
	}

	fmt.Fprintf(builder, "%s %s %s %s %s\n", sourceStr, rowStr, detectorStr, flagsStr, evidence)
}

// sourceLabel maps a verdict to its table label and color
func (f *Formatter) sourceLabel(v detector.Verdict) (string, *color.Color) {
	if !v.IsPersonal {
		return "SUPP", f.colors["white"]
	}
	switch v.Source {
	case detector.SourceStrong:
		return "STRONG", f.colors["red"]
	case detector.SourceWeak:
		return "WEAK", f.colors["yellow"]
	case detector.SourceOracleCache, detector.SourceOracleRemote:
		return "ORACLE", f.colors["magenta"]
	default:
		return "LOCAL", f.colors["white"]
	}
}

func priorityLabel(v detector.Verdict) string {
	if v.PriorityDetector != "" {
		return v.PriorityDetector
	}
	return "-"
}

// appendDetailedVerdict adds detailed row information to the string builder
func (f *Formatter) appendDetailedVerdict(builder *strings.Builder, v detector.Verdict, options formatters.Options) {
	if !options.NoColor {
		f.colors["white"].Fprintf(builder, "=== Row %s ===\n", v.ObservationID)
	} else {
		fmt.Fprintf(builder, "=== Row %s ===\n", v.ObservationID)
	}

	status := "public (suppressed findings only)"
	if v.IsPersonal {
		status = fmt.Sprintf("not public, resolved by the %s stage", v.Source)
	}
	f.appendField(builder, "Status", status, options)

	if v.PriorityDetector != "" {
		f.appendField(builder, "Detector", v.PriorityDetector, options)
	}
	if flags := shared.FlagsLabel(v); flags != "-" {
		f.appendField(builder, "Flags", flags, options)
	}
	if v.WeakScore > 0 {
		f.appendField(builder, "Weak score", fmt.Sprintf("%.2f", v.WeakScore), options)
	}
	if v.RemoteFailure != "" {
		f.appendField(builder, "Oracle failure", v.RemoteFailure, options)
	}

	// Verbose implies showing spans, same as a scan with --show-match.
	if len(v.Evidence) > 0 {
		if !options.NoColor {
			f.colors["cyan"].Fprintf(builder, "Evidence:\n")
		} else {
			fmt.Fprintf(builder, "Evidence:\n")
		}
		for _, item := range v.Evidence {
			if !options.NoColor {
				fmt.Fprintf(builder, "- %s: ", item.Type)
				f.colors["yellow"].Fprintf(builder, "%q", item.Span)
				fmt.Fprintf(builder, " (fragment %d)\n", item.FragmentIdx)
			} else {
				fmt.Fprintf(builder, "- %s: %q (fragment %d)\n", item.Type, item.Span, item.FragmentIdx)
			}
		}
	}

	if len(v.Suppressed) > 0 {
		if !options.NoColor {
			f.colors["cyan"].Fprintf(builder, "Suppressed:\n")
		} else {
			fmt.Fprintf(builder, "Suppressed:\n")
		}
		for _, s := range v.Suppressed {
			if !options.NoColor {
				fmt.Fprintf(builder, "- %s: %q suppressed by ", s.Evidence.Type, s.Evidence.Span)
				f.colors["white"].Fprintf(builder, "%s", s.Rule)
				fmt.Fprintf(builder, " (%s)\n", s.Reason)
			} else {
				fmt.Fprintf(builder, "- %s: %q suppressed by %s (%s)\n", s.Evidence.Type, s.Evidence.Span, s.Rule, s.Reason)
			}
		}
	}

	fmt.Fprintln(builder)
}

// Register the formatter during package initialization
func init() {
	formatters.Register(NewFormatter())
}
