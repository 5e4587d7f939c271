// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package detector

import (
	"context"

	"crivo/internal/fragment"
)

// Detector IDs. The output columns carry these names verbatim.
const (
	Identificador = "identificador"
	Email         = "email"
	Telefone      = "telefone"
	Endereco      = "endereco"
	RG            = "rg"
	Nome          = "nome"
)

// StrongOrder is the fixed cascade order. The arbiter reports the first
// positive of this order as the priority detector, so changing it changes
// verdicts on texts where two categories both match.
var StrongOrder = []string{Identificador, Email, Telefone, Endereco, RG}

// Categories lists every detector column in output order.
var Categories = []string{Identificador, Email, Telefone, Endereco, RG, Nome}

// Observation is one input row to be classified. Immutable once read.
type Observation struct {
	ID   string
	Text string
	Row  int // 1-based position in the source file, for error reporting
}

// Result is the outcome of one detector evaluation on one fragment.
// Strong detectors use boolean semantics with Score = 1.0 on a match; weak
// detectors report a heuristic score that the arbiter compares against the
// detector's threshold.
type Result struct {
	DetectorID string
	Matched    bool
	Evidence   string
	Score      float64
}

// Validator is a strong detector: a pure function of one fragment.
type Validator interface {
	ID() string
	Evaluate(frag fragment.Fragment) Result
}

// Scorer is a weak detector. It may consult the remote oracle for token
// resolution, hence the context.
type Scorer interface {
	ID() string
	Threshold() float64
	Score(ctx context.Context, frag fragment.Fragment) Result
}

// EvidenceItem ties one evidence span to its category and the fragment it
// was found in.
type EvidenceItem struct {
	Type        string `json:"type"`
	Span        string `json:"span"`
	FragmentIdx int    `json:"fragment_idx"`
}

// Source records which stage resolved an observation.
type Source string

const (
	SourceNone         Source = "none"
	SourceStrong       Source = "strong"
	SourceWeak         Source = "weak"
	SourceOracleCache  Source = "oracle-cache"
	SourceOracleRemote Source = "oracle-remote"
)

// SuppressedMatch is a detector hit that an allowlist rule downgraded. It
// is reported for audit but does not mark the observation personal.
type SuppressedMatch struct {
	Evidence EvidenceItem `json:"finding"`
	Rule     string       `json:"suppressed_by"`
	Reason   string       `json:"rule_reason"`
}

// Verdict is the final, immutable outcome for one observation. Exactly one
// verdict exists per observation.
type Verdict struct {
	ObservationID    string
	IsPersonal       bool
	PriorityDetector string
	Flags            map[string]int
	Evidence         []EvidenceItem
	Suppressed       []SuppressedMatch
	Source           Source

	// WeakScore is the best weak-path score, kept even when it fell
	// short of the threshold so the oracle gate can see ambiguity.
	WeakScore float64

	// RemoteFailure carries a non-fatal oracle error. The observation is
	// still classified, by the weak path.
	RemoteFailure string
}

// NewFlags returns a zeroed flag map covering every category.
func NewFlags() map[string]int {
	flags := make(map[string]int, len(Categories))
	for _, id := range Categories {
		flags[id] = 0
	}
	return flags
}
