// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package email detects email addresses, including the spelled-out
// obfuscations common in public-records text ("nome arroba dominio ponto
// com", bracketed [at]/[dot] forms).
package email

import (
	"regexp"

	"crivo/internal/detector"
	"crivo/internal/fragment"
)

// addressRE is the standard local-part@domain pattern. The domain needs at
// least one dot and a letters-only top-level segment of two or more
// characters.
var addressRE = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

// Obfuscation canonicalization. The at/dot words only count when they are
// delimited by whitespace or brackets, so words that merely contain "at"
// or "ponto" are left alone.
var (
	atWordRE    = regexp.MustCompile(`(?:\s+|\s*[\[(])\s*(?:at|arroba)\s*(?:[\])]\s*|\s+)`)
	dotWordRE   = regexp.MustCompile(`(?:\s+|\s*[\[(])\s*(?:dot|ponto)\s*(?:[\])]\s*|\s+)`)
	aroundAtRE  = regexp.MustCompile(`\s*@\s*`)
	aroundDotRE = regexp.MustCompile(`\s*\.\s*`)
)

// Validator implements the strong email detector.
type Validator struct{}

// NewValidator creates a new email validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ID returns the detector identifier.
func (v *Validator) ID() string {
	return detector.Email
}

// Evaluate matches plain addresses first, then retries on the
// de-obfuscated fragment. Evidence for an obfuscated hit is the
// canonicalized address, which is what a reviewer needs to see.
func (v *Validator) Evaluate(frag fragment.Fragment) detector.Result {
	result := detector.Result{DetectorID: v.ID()}
	if match := addressRE.FindString(frag.Folded); match != "" {
		result.Matched = true
		result.Evidence = match
		result.Score = 1.0
		return result
	}
	if match := addressRE.FindString(deobfuscate(frag.Folded)); match != "" {
		result.Matched = true
		result.Evidence = match
		result.Score = 1.0
	}
	return result
}

// deobfuscate rewrites delimited at/arroba and dot/ponto words into their
// symbols and squeezes the whitespace around @ and dots.
func deobfuscate(text string) string {
	out := atWordRE.ReplaceAllString(text, "@")
	out = dotWordRE.ReplaceAllString(out, ".")
	out = aroundAtRE.ReplaceAllString(out, "@")
	return aroundDotRE.ReplaceAllString(out, ".")
}
