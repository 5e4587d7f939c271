// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package normalize canonicalizes raw cell text for matching and for
// cache-key hashing. Normalization is deterministic and side-effect free:
// identical raw input always yields the identical canonical form and the
// identical key.
package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// wordRE matches runs of letters, digits and underscore, accents included.
// These runs are the word units fragment boundaries are measured in.
var wordRE = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// foldChain strips combining marks: NFD decomposition, drop nonspacing
// marks, NFC recomposition.
var foldChain = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalized is the canonical form of one observation text.
type Normalized struct {
	// Text is lower-cased and whitespace-collapsed. Accents and
	// punctuation are kept so evidence spans still read like the source.
	Text string

	// Folded is Text with combining marks stripped. Detectors match
	// against this form so "matrícula" and "matricula" behave the same.
	Folded string

	// Words holds the stable tokenization of Text; Spans holds the byte
	// range of each word inside Text. Together they define fragment
	// boundaries without losing the characters between words.
	Words []string
	Spans [][]int
}

// Normalize canonicalizes raw text.
func Normalize(raw string) Normalized {
	text := Collapse(strings.ToLower(raw))
	return Normalized{
		Text:   text,
		Folded: Fold(text),
		Words:  wordRE.FindAllString(text, -1),
		Spans:  wordRE.FindAllStringIndex(text, -1),
	}
}

// Empty reports whether the text carries no words at all. Empty
// observations classify as public with no evidence.
func (n Normalized) Empty() bool {
	return len(n.Words) == 0
}

// Collapse trims the text and squeezes internal whitespace runs down to a
// single space.
func Collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Fold strips combining marks from s.
func Fold(s string) string {
	out, _, err := transform.String(foldChain, s)
	if err != nil {
		return s
	}
	return out
}

// FoldToken lower-cases and accent-folds a single token for lexicon
// lookups.
func FoldToken(s string) string {
	return Fold(strings.ToLower(s))
}

// Key returns the cache key for raw text: the hex sha256 digest of the
// lower-cased, whitespace-collapsed form. Accents are part of the key, so
// only visually identical rows share an entry.
func Key(raw string) string {
	sum := sha256.Sum256([]byte(Collapse(strings.ToLower(raw))))
	return hex.EncodeToString(sum[:])
}
