// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package csv

import (
	"strings"
	"testing"

	"crivo/internal/detector"
	"crivo/internal/formatters"
)

func TestFormat_RedactsByDefault(t *testing.T) {
	report := formatters.Report{
		Verdicts: []detector.Verdict{
			{
				ObservationID:    "12",
				IsPersonal:       true,
				PriorityDetector: "email",
				Flags:            map[string]int{"email": 1},
				Source:           detector.SourceStrong,
				Evidence: []detector.EvidenceItem{
					{Type: "email", Span: "ana@exemplo.com"},
				},
			},
		},
	}

	out, err := NewFormatter().Format(report, formatters.Options{})
	if err != nil {
		t.Fatalf("Format: %v", err)
	}

	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want header plus one row", len(lines))
	}
	if lines[0] != "ID,Nao Publico,Detector,Source,Flags,Evidence" {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "[REDACTED]") {
		t.Errorf("row = %q, want redacted evidence", lines[1])
	}
	if strings.Contains(out, "ana@exemplo.com") {
		t.Errorf("output leaks the span: %q", out)
	}
}

func TestFormat_ShowMatchIncludesSpans(t *testing.T) {
	report := formatters.Report{
		Verdicts: []detector.Verdict{
			{
				ObservationID:    "12",
				IsPersonal:       true,
				PriorityDetector: "email",
				Flags:            map[string]int{"email": 1},
				Source:           detector.SourceStrong,
				Evidence: []detector.EvidenceItem{
					{Type: "email", Span: "ana@exemplo.com"},
				},
			},
		},
	}

	out, err := NewFormatter().Format(report, formatters.Options{ShowMatch: true})
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if !strings.Contains(out, "ana@exemplo.com") {
		t.Errorf("output = %q, want the span shown", out)
	}
}

func TestFormat_SuppressedRowsListed(t *testing.T) {
	report := formatters.Report{
		Verdicts: []detector.Verdict{
			{
				ObservationID: "30",
				Suppressed: []detector.SuppressedMatch{
					{
						Evidence: detector.EvidenceItem{Type: "email", Span: "suporte@exemplo.com"},
						Rule:     "service-mailbox",
						Reason:   "shared inbox",
					},
				},
			},
		},
	}

	out, err := NewFormatter().Format(report, formatters.Options{})
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if !strings.Contains(out, "suppressed") || !strings.Contains(out, "rule: service-mailbox") {
		t.Errorf("output = %q, want the suppressed row listed", out)
	}
}

func TestEscapeCSVField(t *testing.T) {
	f := NewFormatter()

	if got := f.escapeCSVField(`Silva, Ana`); got != `"Silva, Ana"` {
		t.Errorf("comma field = %q", got)
	}
	if got := f.escapeCSVField(`diz "oi"`); got != `"diz ""oi"""` {
		t.Errorf("quote field = %q", got)
	}
	// Formula characters get neutralized before any quoting.
	if got := f.escapeCSVField("=SUM(A1)"); got != "'=SUM(A1)" {
		t.Errorf("formula field = %q", got)
	}
	if got := f.escapeCSVField("+5511987654321"); got != "'+5511987654321" {
		t.Errorf("plus field = %q", got)
	}
	if got := f.escapeCSVField("plain"); got != "plain" {
		t.Errorf("plain field = %q", got)
	}
}
