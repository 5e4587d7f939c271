// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package endereco detects Brazilian street addresses in fragment text.
//
// The validator has two modes. The strong mode matches unambiguous
// address forms: a CEP postal code, or a street keyword followed by a
// number. The weak mode scores looser hints (a street keyword with no
// number, a neighborhood mention) and is consulted only when no strong
// detector resolved the observation.
package endereco

import (
	"context"
	"regexp"
	"strings"

	"crivo/internal/detector"
	"crivo/internal/fragment"
)

// weakThreshold is the score a fragment must reach for the weak
// address path to mark an observation.
const weakThreshold = 0.5

var (
	// cepRE matches the fixed ddddd-ddd postal code format.
	cepRE = regexp.MustCompile(`\b\d{5}-\d{3}\b`)

	streetKeywords = `(?:rua|avenida|av|rodovia|travessa|quadra|lote|bloco|apto|apartamento|conjunto|condominio)`

	// streetNumberRE matches a street keyword directly followed by a
	// number, allowing a comma or dash separator: "quadra 5",
	// "rua, 123", "av. 100". A keyword with prose in between does not
	// count as the strong form.
	streetNumberRE = regexp.MustCompile(`\b` + streetKeywords + `\b\.?\s*[,\-]?\s*\d+`)

	// streetKeywordRE matches a bare street keyword, the weak hint.
	streetKeywordRE = regexp.MustCompile(`\b` + streetKeywords + `\b`)

	// bairroRE matches a neighborhood mention with a following name.
	bairroRE = regexp.MustCompile(`\bbairro\s+\p{L}[\p{L} ]*`)
)

// Validator implements detector.Validator for the strong address forms
// and detector.Scorer for the weak heuristic.
type Validator struct{}

// NewValidator creates and returns a new Validator instance.
func NewValidator() *Validator {
	return &Validator{}
}

// ID returns the detector identifier for this validator.
func (v *Validator) ID() string {
	return detector.Endereco
}

// Evaluate scans a fragment for unambiguous address forms: a CEP postal
// code or a street keyword followed by a number.
func (v *Validator) Evaluate(frag fragment.Fragment) detector.Result {
	result := detector.Result{DetectorID: v.ID()}
	text := frag.Folded
	if text == "" {
		return result
	}

	if m := cepRE.FindString(text); m != "" {
		result.Matched = true
		result.Evidence = m
		result.Score = 1.0
		return result
	}

	if m := streetNumberRE.FindString(text); m != "" {
		result.Matched = true
		result.Evidence = strings.TrimSpace(m)
		result.Score = 1.0
		return result
	}

	return result
}

// Threshold returns the score at which the weak address heuristic marks
// an observation.
func (v *Validator) Threshold() float64 {
	return weakThreshold
}

// Score rates loose address hints in a fragment. A bare street keyword
// and a neighborhood mention each contribute 0.5; either alone reaches
// the weak threshold.
func (v *Validator) Score(_ context.Context, frag fragment.Fragment) detector.Result {
	result := detector.Result{DetectorID: v.ID()}
	text := frag.Folded
	if text == "" {
		return result
	}

	var evidence []string
	if m := streetKeywordRE.FindString(text); m != "" {
		result.Score += 0.5
		evidence = append(evidence, m)
	}
	if m := bairroRE.FindString(text); m != "" {
		result.Score += 0.5
		evidence = append(evidence, strings.TrimSpace(m))
	}

	if result.Score >= weakThreshold {
		result.Matched = true
		result.Evidence = strings.Join(evidence, "; ")
	}
	return result
}
