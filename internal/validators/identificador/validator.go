// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package identificador detects Brazilian tax identifiers (CPF) by digit
// pattern plus modulo-11 dual-checksum validation.
package identificador

import (
	"regexp"

	"crivo/internal/detector"
	"crivo/internal/fragment"
)

// candidateRE matches 11-digit sequences in dotted (123.456.789-09) or
// bare (12345678909) form. Longer digit runs produce no candidate.
var candidateRE = regexp.MustCompile(`\b\d{3}\.?\d{3}\.?\d{3}-?\d{2}\b`)

// Validator implements the strong tax-identifier detector.
type Validator struct{}

// NewValidator creates a new identifier validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ID returns the detector identifier.
func (v *Validator) ID() string {
	return detector.Identificador
}

// Evaluate scans the fragment for checksum-valid identifiers. Every
// candidate is tried; the first valid one becomes the match. Candidates
// that fail the checksum are plain non-matches.
func (v *Validator) Evaluate(frag fragment.Fragment) detector.Result {
	result := detector.Result{DetectorID: v.ID()}
	for _, candidate := range candidateRE.FindAllString(frag.Folded, -1) {
		if Valid(candidate) {
			result.Matched = true
			result.Evidence = candidate
			result.Score = 1.0
			break
		}
	}
	return result
}

// Valid reports whether value is a checksum-correct identifier: exactly 11
// digits, not a single repeated digit, and both trailing check digits
// derivable from the preceding digits.
func Valid(value string) bool {
	digits := digitsOf(value)
	if len(digits) != 11 {
		return false
	}
	if allSame(digits) {
		return false
	}
	return digits[9] == checkDigit(digits[:9]) && digits[10] == checkDigit(digits[:10])
}

// checkDigit computes one modulo-11 check digit. Weights descend from
// len(digits)+1 down to 2; remainders 0 and 1 map to digit 0.
func checkDigit(digits []int) int {
	weight := len(digits) + 1
	sum := 0
	for _, d := range digits {
		sum += d * weight
		weight--
	}
	rest := sum % 11
	if rest < 2 {
		return 0
	}
	return 11 - rest
}

func digitsOf(value string) []int {
	digits := make([]int, 0, len(value))
	for _, r := range value {
		if r >= '0' && r <= '9' {
			digits = append(digits, int(r-'0'))
		}
	}
	return digits
}

func allSame(digits []int) bool {
	for _, d := range digits[1:] {
		if d != digits[0] {
			return false
		}
	}
	return true
}
