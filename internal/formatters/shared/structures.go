// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package shared

import (
	"crivo/internal/detector"
	"crivo/internal/formatters"
)

// Tally is the run rollup every renderer shows.
type Tally struct {
	Total              int
	Personal           int
	Public             int
	SuppressedRows     int
	SuppressedFindings int
	RemoteFailures     int
	ByDetector         map[string]int
	BySource           map[detector.Source]int
}

// Count derives the rollup from the verdicts.
func Count(verdicts []detector.Verdict) Tally {
	tally := Tally{
		ByDetector: make(map[string]int, len(detector.Categories)),
		BySource:   make(map[detector.Source]int),
	}
	for _, id := range detector.Categories {
		tally.ByDetector[id] = 0
	}
	for _, v := range verdicts {
		tally.Total++
		if v.IsPersonal {
			tally.Personal++
		} else {
			tally.Public++
		}
		if len(v.Suppressed) > 0 {
			tally.SuppressedRows++
			tally.SuppressedFindings += len(v.Suppressed)
		}
		if v.RemoteFailure != "" {
			tally.RemoteFailures++
		}
		for id, flag := range v.Flags {
			if flag == 1 {
				tally.ByDetector[id]++
			}
		}
		tally.BySource[v.Source]++
	}
	return tally
}

// DisplaySpan returns the evidence span when showing matches is allowed,
// and a redaction marker otherwise.
func DisplaySpan(span string, show bool) string {
	if show {
		return span
	}
	return "[REDACTED]"
}

// FlagsLabel joins the set flags in column order, for compact listings.
func FlagsLabel(v detector.Verdict) string {
	label := ""
	for _, id := range detector.Categories {
		if v.Flags[id] != 1 {
			continue
		}
		if label != "" {
			label += ","
		}
		label += id
	}
	if label == "" {
		return "-"
	}
	return label
}

// JSONReport represents the top-level response structure for JSON/YAML output
type JSONReport struct {
	Input       string           `json:"input" yaml:"input"`
	Output      string           `json:"output,omitempty" yaml:"output,omitempty"`
	EvidenceLog string           `json:"evidence_log,omitempty" yaml:"evidence_log,omitempty"`
	Summary     JSONSummary      `json:"summary" yaml:"summary"`
	Results     []JSONVerdict    `json:"results" yaml:"results"`
	Suppressed  []JSONSuppressed `json:"suppressed,omitempty" yaml:"suppressed,omitempty"`
}

// JSONSummary carries the run rollup in JSON/YAML output
type JSONSummary struct {
	Rows               int            `json:"rows" yaml:"rows"`
	NaoPublico         int            `json:"nao_publico" yaml:"nao_publico"`
	Publico            int            `json:"publico" yaml:"publico"`
	PassedThrough      int            `json:"passed_through,omitempty" yaml:"passed_through,omitempty"`
	ByDetector         map[string]int `json:"by_detector" yaml:"by_detector"`
	BySource           map[string]int `json:"by_source" yaml:"by_source"`
	SuppressedFindings int            `json:"suppressed_findings,omitempty" yaml:"suppressed_findings,omitempty"`
	RemoteFailures     int            `json:"remote_failures,omitempty" yaml:"remote_failures,omitempty"`
	Workers            int            `json:"workers,omitempty" yaml:"workers,omitempty"`
	DurationMS         int64          `json:"duration_ms,omitempty" yaml:"duration_ms,omitempty"`
}

// JSONVerdict represents a single flagged row in JSON/YAML format
type JSONVerdict struct {
	ID               string         `json:"id" yaml:"id"`
	NaoPublico       int            `json:"nao_publico" yaml:"nao_publico"`
	PriorityDetector string         `json:"detector_prioritario,omitempty" yaml:"detector_prioritario,omitempty"`
	Flags            map[string]int `json:"flags" yaml:"flags"`
	Source           string         `json:"source" yaml:"source"`
	WeakScore        float64        `json:"weak_score,omitempty" yaml:"weak_score,omitempty"`
	Evidence         []JSONEvidence `json:"evidence,omitempty" yaml:"evidence,omitempty"`
	RemoteFailure    string         `json:"remote_failure,omitempty" yaml:"remote_failure,omitempty"`
}

// JSONEvidence is one evidence span in JSON/YAML format
type JSONEvidence struct {
	Type        string `json:"type" yaml:"type"`
	Span        string `json:"span" yaml:"span"`
	FragmentIdx int    `json:"fragment_idx" yaml:"fragment_idx"`
}

// JSONSuppressed is one allowlisted finding with its row attribution
type JSONSuppressed struct {
	ID           string       `json:"id" yaml:"id"`
	Finding      JSONEvidence `json:"finding" yaml:"finding"`
	SuppressedBy string       `json:"suppressed_by" yaml:"suppressed_by"`
	RuleReason   string       `json:"rule_reason" yaml:"rule_reason"`
}

// BuildReport converts a screening report to the JSON/YAML structure.
// Results carries the flagged rows only; the clean rows are summarized
// by the counts.
func BuildReport(report formatters.Report, options formatters.Options) JSONReport {
	tally := Count(report.Verdicts)

	bySource := make(map[string]int, len(tally.BySource))
	for source, n := range tally.BySource {
		bySource[string(source)] = n
	}

	out := JSONReport{
		Input:       report.Input,
		Output:      report.Output,
		EvidenceLog: report.EvidencePath,
		Summary: JSONSummary{
			Rows:               tally.Total,
			NaoPublico:         tally.Personal,
			Publico:            tally.Public,
			PassedThrough:      report.PassedThrough,
			ByDetector:         tally.ByDetector,
			BySource:           bySource,
			SuppressedFindings: tally.SuppressedFindings,
			RemoteFailures:     tally.RemoteFailures,
			Workers:            report.Workers,
			DurationMS:         report.Duration.Milliseconds(),
		},
		Results: []JSONVerdict{},
	}

	for _, v := range report.Verdicts {
		for _, s := range v.Suppressed {
			out.Suppressed = append(out.Suppressed, JSONSuppressed{
				ID: v.ObservationID,
				Finding: JSONEvidence{
					Type:        s.Evidence.Type,
					Span:        s.Evidence.Span,
					FragmentIdx: s.Evidence.FragmentIdx,
				},
				SuppressedBy: s.Rule,
				RuleReason:   s.Reason,
			})
		}

		if !v.IsPersonal {
			continue
		}

		result := JSONVerdict{
			ID:               v.ObservationID,
			NaoPublico:       1,
			PriorityDetector: v.PriorityDetector,
			Flags:            v.Flags,
			Source:           string(v.Source),
			RemoteFailure:    v.RemoteFailure,
		}
		if options.Verbose {
			result.WeakScore = v.WeakScore
		}
		for _, item := range v.Evidence {
			result.Evidence = append(result.Evidence, JSONEvidence{
				Type:        item.Type,
				Span:        item.Span,
				FragmentIdx: item.FragmentIdx,
			})
		}
		out.Results = append(out.Results, result)
	}

	return out
}
