// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package detector

import "strings"

// Surround returns the match plus up to pad bytes of fragment text on each
// side of the first occurrence of span. Detectors use it for proximity
// guards, the evidence log for bounded audit snippets. When span does not
// occur in text, span itself is returned.
func Surround(text, span string, pad int) string {
	idx := strings.Index(text, span)
	if idx < 0 {
		return span
	}
	start := idx - pad
	if start < 0 {
		start = 0
	}
	end := idx + len(span) + pad
	if end > len(text) {
		end = len(text)
	}
	return text[start:end]
}

// Snippet trims an evidence span to at most limit bytes, appending an
// ellipsis when it had to cut.
func Snippet(span string, limit int) string {
	if limit <= 0 || len(span) <= limit {
		return span
	}
	return span[:limit] + "..."
}
