// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package rg detects identity and professional registry numbers in
// fragment text.
//
// RG numbers have no national check digit, so unmarked digit runs are
// never accepted. Every accepted form requires an explicit contextual
// marker: an rg/identidade token near a plausible value, an rg label
// glued to a formatted number, an OAB registration, a labeled 2-4-4
// serial, a NIS label, or a matricula label. Matricula codes are
// suppressed when the nearby context talks about property registries.
package rg

import (
	"regexp"
	"strings"

	"crivo/internal/detector"
	"crivo/internal/fragment"
)

// contextPad is how many bytes around a matricula match are inspected
// for property-registry vocabulary.
const contextPad = 40

var (
	// markerRE and valueRE form the primary rule: a marker token
	// anywhere in the fragment plus a standalone 5-12 digit value.
	markerRE = regexp.MustCompile(`\b(?:rg|identidade)\b`)
	valueRE  = regexp.MustCompile(`\b\d{5,12}[\w-]?\b`)

	// rgLabelRE catches formatted values glued to an rg label, such as
	// "rg: 12.345.678-9", which the standalone value rule cannot see.
	rgLabelRE = regexp.MustCompile(`\brg\s*[:\-]?\s*\d[\d.\-]+`)

	// oabRE matches OAB professional registrations with optional
	// state suffix.
	oabRE = regexp.MustCompile(`\boab\s*(?:/[a-z]{2})?[ -]?\d[\d.\-]{3,}`)

	// serialRE matches dd-dddd-dddd serials near an identity label.
	serialRE = regexp.MustCompile(`\b(?:rg|registro|identidade)\b[\w\s:.-]{0,10}\d{2}-\d{4}-\d{4}\b`)

	// nisRE matches labeled NIS social registry numbers.
	nisRE = regexp.MustCompile(`\bnis\s*[:=]?\s*\d{5,}\b`)

	// matriculaRE matches labeled enrollment codes. imovelRE marks the
	// surrounding context that downgrades them to property registry
	// numbers.
	matriculaRE = regexp.MustCompile(`\bmatricul(?:a|o)\b\s*[:=]?\s*\w[\w.\-/]{3,}`)
	imovelRE    = regexp.MustCompile(`\bimovel|imobiliari`)
)

// Validator implements the detector.Validator interface for detecting
// identity registry numbers.
type Validator struct{}

// NewValidator creates and returns a new Validator instance.
func NewValidator() *Validator {
	return &Validator{}
}

// ID returns the detector identifier for this validator.
func (v *Validator) ID() string {
	return detector.RG
}

// Evaluate scans a fragment for marked registry numbers. Rules are
// tried from most to least specific; the first hit wins.
func (v *Validator) Evaluate(frag fragment.Fragment) detector.Result {
	result := detector.Result{DetectorID: v.ID()}
	text := frag.Folded
	if text == "" {
		return result
	}

	if markerRE.MatchString(text) {
		if m := valueRE.FindString(text); m != "" {
			return v.match(result, m)
		}
	}
	if m := rgLabelRE.FindString(text); m != "" {
		return v.match(result, m)
	}
	if m := oabRE.FindString(text); m != "" {
		return v.match(result, m)
	}
	if m := serialRE.FindString(text); m != "" {
		return v.match(result, m)
	}
	if m := nisRE.FindString(text); m != "" {
		return v.match(result, m)
	}
	if m := matriculaRE.FindString(text); m != "" {
		context := detector.Surround(text, m, contextPad)
		if !imovelRE.MatchString(context) {
			return v.match(result, m)
		}
	}

	return result
}

func (v *Validator) match(result detector.Result, evidence string) detector.Result {
	result.Matched = true
	result.Evidence = strings.TrimSpace(evidence)
	result.Score = 1.0
	return result
}
