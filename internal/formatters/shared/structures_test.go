// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package shared

import (
	"testing"
	"time"

	"crivo/internal/detector"
	"crivo/internal/formatters"
)

func sampleVerdicts() []detector.Verdict {
	return []detector.Verdict{
		{
			ObservationID:    "1",
			IsPersonal:       true,
			PriorityDetector: "email",
			Flags:            map[string]int{"email": 1},
			Source:           detector.SourceStrong,
			Evidence: []detector.EvidenceItem{
				{Type: "email", Span: "ana@exemplo.com", FragmentIdx: 0},
			},
		},
		{
			ObservationID: "2",
			Flags:         map[string]int{},
			Source:        detector.SourceNone,
		},
		{
			ObservationID:    "3",
			IsPersonal:       true,
			PriorityDetector: "nome",
			Flags:            map[string]int{"nome": 1, "endereco": 1},
			Source:           detector.SourceWeak,
			WeakScore:        1.5,
		},
		{
			ObservationID: "4",
			Flags:         map[string]int{},
			Source:        detector.SourceNone,
			Suppressed: []detector.SuppressedMatch{
				{
					Evidence: detector.EvidenceItem{Type: "email", Span: "suporte@exemplo.com"},
					Rule:     "service-mailbox",
					Reason:   "shared inbox",
				},
			},
			RemoteFailure: "oracle timeout",
		},
	}
}

func TestCount(t *testing.T) {
	tally := Count(sampleVerdicts())

	if tally.Total != 4 {
		t.Errorf("Total = %d, want 4", tally.Total)
	}
	if tally.Personal != 2 || tally.Public != 2 {
		t.Errorf("Personal/Public = %d/%d, want 2/2", tally.Personal, tally.Public)
	}
	if tally.SuppressedRows != 1 || tally.SuppressedFindings != 1 {
		t.Errorf("suppressed = %d rows %d findings, want 1/1", tally.SuppressedRows, tally.SuppressedFindings)
	}
	if tally.RemoteFailures != 1 {
		t.Errorf("RemoteFailures = %d, want 1", tally.RemoteFailures)
	}
	if tally.ByDetector["email"] != 1 || tally.ByDetector["nome"] != 1 || tally.ByDetector["endereco"] != 1 {
		t.Errorf("ByDetector = %v", tally.ByDetector)
	}
	if tally.ByDetector["telefone"] != 0 {
		t.Errorf("telefone count = %d, want a zero entry", tally.ByDetector["telefone"])
	}
	if tally.BySource[detector.SourceStrong] != 1 || tally.BySource[detector.SourceWeak] != 1 {
		t.Errorf("BySource = %v", tally.BySource)
	}
}

func TestFlagsLabel(t *testing.T) {
	v := detector.Verdict{Flags: map[string]int{"nome": 1, "endereco": 1}}
	if got := FlagsLabel(v); got != "endereco,nome" {
		t.Errorf("FlagsLabel = %q, want column order endereco,nome", got)
	}
	if got := FlagsLabel(detector.Verdict{}); got != "-" {
		t.Errorf("FlagsLabel on empty verdict = %q, want -", got)
	}
}

func TestDisplaySpan(t *testing.T) {
	if got := DisplaySpan("ana@exemplo.com", false); got != "[REDACTED]" {
		t.Errorf("DisplaySpan hidden = %q", got)
	}
	if got := DisplaySpan("ana@exemplo.com", true); got != "ana@exemplo.com" {
		t.Errorf("DisplaySpan shown = %q", got)
	}
}

func TestBuildReport(t *testing.T) {
	report := formatters.Report{
		Input:         "dados.csv",
		Output:        "dados_classificado.csv",
		Verdicts:      sampleVerdicts(),
		PassedThrough: 10,
		Workers:       4,
		Duration:      2 * time.Second,
	}
	out := BuildReport(report, formatters.Options{Verbose: true})

	if out.Summary.Rows != 4 || out.Summary.NaoPublico != 2 || out.Summary.Publico != 2 {
		t.Errorf("summary = %+v", out.Summary)
	}
	if out.Summary.PassedThrough != 10 || out.Summary.Workers != 4 || out.Summary.DurationMS != 2000 {
		t.Errorf("run fields = %+v", out.Summary)
	}

	// Only the flagged rows appear as results.
	if len(out.Results) != 2 {
		t.Fatalf("results = %d, want 2", len(out.Results))
	}
	if out.Results[0].ID != "1" || out.Results[0].Source != "strong" {
		t.Errorf("first result = %+v", out.Results[0])
	}
	if len(out.Results[0].Evidence) != 1 || out.Results[0].Evidence[0].Span != "ana@exemplo.com" {
		t.Errorf("first result evidence = %+v", out.Results[0].Evidence)
	}
	if out.Results[1].WeakScore != 1.5 {
		t.Errorf("verbose weak score = %v, want 1.5", out.Results[1].WeakScore)
	}

	if len(out.Suppressed) != 1 {
		t.Fatalf("suppressed = %d, want 1", len(out.Suppressed))
	}
	if out.Suppressed[0].ID != "4" || out.Suppressed[0].SuppressedBy != "service-mailbox" {
		t.Errorf("suppressed = %+v", out.Suppressed[0])
	}
}

func TestBuildReport_NoFindings(t *testing.T) {
	report := formatters.Report{
		Input:    "dados.csv",
		Verdicts: []detector.Verdict{{ObservationID: "1"}},
	}
	out := BuildReport(report, formatters.Options{})

	if out.Results == nil {
		t.Fatal("Results must serialize as an empty array, not null")
	}
	if len(out.Results) != 0 {
		t.Errorf("results = %d, want 0", len(out.Results))
	}
}
