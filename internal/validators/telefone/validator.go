// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package telefone detects Brazilian phone numbers in fragment text.
//
// Bare digit runs are ambiguous in administrative text, where process
// numbers, monetary values and years outnumber real phones. A candidate
// is therefore accepted only when the fragment carries an explicit phone
// marker, or when the number itself is anchored by a country code or an
// area code.
package telefone

import (
	"regexp"
	"strings"

	"crivo/internal/detector"
	"crivo/internal/fragment"
)

var (
	// baseRE matches the general shape of a Brazilian phone number:
	// optional +55, optional two-digit area code, 8 or 9 digit local
	// number with an optional separator before the last four digits.
	baseRE = regexp.MustCompile(`(?:\+?55\s*)?(?:\(?\d{2}\)?\s*)?(?:9?\d{4})[-\s]?\d{4}`)

	// markerRE flags fragments that talk about phones explicitly. Any
	// base match inside such a fragment is accepted as-is.
	markerRE = regexp.MustCompile(`\b(?:tel|telefone|whats|whatsapp)\b`)

	// processRE flags fragments about case numbers. Without a phone
	// marker these fragments are dominated by protocol digits, so the
	// whole fragment is skipped.
	processRE = regexp.MustCompile(`\b(?:processo|sei)\b`)

	// Anchors that let a number stand on its own without a marker.
	parenDDDRE   = regexp.MustCompile(`\(\d{2}\)`)
	leadingDDDRE = regexp.MustCompile(`^\s*\d{2}\b`)

	// labelCompactRE catches compact 10-11 digit numbers glued to a
	// contact label, which the anchored path rejects for having no
	// separator after the area code.
	labelCompactRE = regexp.MustCompile(`\b(?:tel(?:efone)?|cel(?:ular)?|whats(?:app)?|contato)\b[^\d]{0,6}((?:\+?55\s*)?\(?[1-9]\d\)?\s*[2-9]\d{7,8})\b`)

	// oitocentosRE catches labeled 0800 service numbers, whose spaced
	// 3+4 grouping does not fit the base shape.
	oitocentosRE = regexp.MustCompile(`\b(?:tel(?:efone)?|contato)\b[^\d]{0,6}(0?800[\s-]?\d{3}[\s-]?\d{4})\b`)
)

// Validator implements the detector.Validator interface for detecting
// Brazilian phone numbers with contextual gating.
type Validator struct{}

// NewValidator creates and returns a new Validator instance.
func NewValidator() *Validator {
	return &Validator{}
}

// ID returns the detector identifier for this validator.
func (v *Validator) ID() string {
	return detector.Telefone
}

// Evaluate scans a fragment for phone numbers. Fragments about case
// numbers are skipped unless they also mention phones. Without a phone
// marker a candidate must carry its own anchor: a +55 prefix, a
// parenthesized area code, or a leading bare area code.
func (v *Validator) Evaluate(frag fragment.Fragment) detector.Result {
	result := detector.Result{DetectorID: v.ID()}
	text := frag.Folded
	if text == "" {
		return result
	}

	hasMarker := markerRE.MatchString(text)
	if processRE.MatchString(text) && !hasMarker {
		return result
	}

	for _, m := range baseRE.FindAllString(text, -1) {
		if hasMarker || anchored(m) {
			result.Matched = true
			result.Evidence = strings.TrimSpace(m)
			result.Score = 1.0
			return result
		}
	}

	if sub := labelCompactRE.FindStringSubmatch(text); sub != nil {
		result.Matched = true
		result.Evidence = strings.TrimSpace(sub[1])
		result.Score = 1.0
		return result
	}

	if sub := oitocentosRE.FindStringSubmatch(text); sub != nil {
		result.Matched = true
		result.Evidence = strings.TrimSpace(sub[1])
		result.Score = 1.0
		return result
	}

	return result
}

// anchored reports whether a candidate number is self-evidently a phone
// without any surrounding marker.
func anchored(match string) bool {
	if strings.Contains(match, "+55") {
		return true
	}
	if parenDDDRE.MatchString(match) {
		return true
	}
	return leadingDDDRE.MatchString(match)
}
