// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package fragment splits normalized text into overlapping word-windows so
// detectors always see bounded, consistent context.
package fragment

import (
	"fmt"

	"crivo/internal/normalize"
)

// Window and overlap bounds, in words.
const (
	MinWindow      = 30
	MaxWindow      = 40
	MinOverlap     = 10
	MaxOverlap     = 15
	DefaultWindow  = 35
	DefaultOverlap = 12
)

// Fragment is one window of an observation's normalized text. Start and
// End are word offsets; Order is the 0-based scan position. Text keeps the
// original characters between the window's words, Folded is the
// accent-stripped form detectors match against.
type Fragment struct {
	Text   string
	Folded string
	Start  int
	End    int
	Order  int
}

// Splitter produces the ordered window sequence for a fixed configuration.
type Splitter struct {
	window  int
	overlap int
}

// NewSplitter validates the window geometry once, at construction. A fixed
// configuration yields deterministic fragmentation.
func NewSplitter(window, overlap int) (*Splitter, error) {
	if window < MinWindow || window > MaxWindow {
		return nil, fmt.Errorf("window size %d outside [%d,%d]", window, MinWindow, MaxWindow)
	}
	if overlap < MinOverlap || overlap > MaxOverlap {
		return nil, fmt.Errorf("window overlap %d outside [%d,%d]", overlap, MinOverlap, MaxOverlap)
	}
	return &Splitter{window: window, overlap: overlap}, nil
}

// DefaultSplitter returns a splitter with the default geometry.
func DefaultSplitter() *Splitter {
	s, err := NewSplitter(DefaultWindow, DefaultOverlap)
	if err != nil {
		panic(err)
	}
	return s
}

// Window returns the configured window size in words.
func (s *Splitter) Window() int { return s.window }

// Overlap returns the configured overlap in words.
func (s *Splitter) Overlap() int { return s.overlap }

// Split walks the word sequence in fixed windows. Every word position is
// covered at least once; consecutive fragments overlap by the configured
// amount; the walk stops as soon as a window reaches the final word, so the
// last fragment may be shorter. Empty text yields a single empty fragment.
func (s *Splitter) Split(n normalize.Normalized) []Fragment {
	if n.Empty() {
		return []Fragment{{}}
	}

	var frags []Fragment
	start := 0
	for order := 0; start < len(n.Words); order++ {
		end := start + s.window
		if end > len(n.Words) {
			end = len(n.Words)
		}
		text := n.Text[n.Spans[start][0]:n.Spans[end-1][1]]
		frags = append(frags, Fragment{
			Text:   text,
			Folded: normalize.Fold(text),
			Start:  start,
			End:    end,
			Order:  order,
		})
		if end == len(n.Words) {
			break
		}
		start = end - s.overlap
	}
	return frags
}
