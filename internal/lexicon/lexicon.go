// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package lexicon holds the weighted name-token table the name scorer
// consults. Weights come from three layers: the built-in seed, an optional
// CSV overlay, and tokens learned from remote lookups. Learned weights
// never overwrite weights that already exist.
package lexicon

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"

	"crivo/internal/normalize"
)

// Weight sources, recorded when entries are persisted.
const (
	SourceSeed    = "seed"
	SourceFile    = "file"
	SourceLearned = "learned"
)

// Store persists learned weights across runs.
type Store interface {
	NameWeights() (map[string]float64, error)
	SaveNameWeight(token string, weight float64, source string) error
}

// Lexicon is safe for concurrent readers and writers; the name scorer runs
// on every worker.
type Lexicon struct {
	mu      sync.RWMutex
	weights map[string]float64
	store   Store
}

// New returns a lexicon carrying the built-in seed: positive weights for
// common given and family names, negative weights for institutional terms.
func New() *Lexicon {
	l := NewBare()
	for token, weight := range seedGivenNames {
		l.weights[normalize.FoldToken(token)] = weight
	}
	for token, weight := range seedFamilyNames {
		l.weights[normalize.FoldToken(token)] = weight
	}
	for _, token := range institutionalTerms {
		l.weights[normalize.FoldToken(token)] = institutionalWeight
	}
	return l
}

// NewBare returns an empty lexicon. The name scorer degrades to its
// permissive fallback rule when it gets one.
func NewBare() *Lexicon {
	return &Lexicon{weights: make(map[string]float64)}
}

// LoadFile overlays weights from a token,weight CSV. A header row is
// skipped when the weight column does not parse. File entries override the
// seed.
func (l *Lexicon) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open lexicon file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	l.mu.Lock()
	defer l.mu.Unlock()
	line := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read lexicon file: %w", err)
		}
		line++
		if len(record) < 2 || record[0] == "" {
			continue
		}
		weight, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			if line == 1 {
				continue
			}
			return fmt.Errorf("lexicon line %d: weight %q is not numeric", line, record[1])
		}
		l.weights[normalize.FoldToken(record[0])] = weight
	}
	return nil
}

// AttachStore merges previously learned weights and keeps the store for
// future Learn calls. Stored weights do not override seed or file entries.
func (l *Lexicon) AttachStore(store Store) error {
	learned, err := store.NameWeights()
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.store = store
	for token, weight := range learned {
		key := normalize.FoldToken(token)
		if _, ok := l.weights[key]; !ok {
			l.weights[key] = weight
		}
	}
	return nil
}

// Weight looks up the weight of a token. The token is folded before the
// lookup, so callers may pass raw text.
func (l *Lexicon) Weight(token string) (float64, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	w, ok := l.weights[normalize.FoldToken(token)]
	return w, ok
}

// Learn records a weight for a previously unknown token and persists it
// when a store is attached. Existing tokens are left untouched.
func (l *Lexicon) Learn(token string, weight float64) {
	key := normalize.FoldToken(token)
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.weights[key]; ok {
		return
	}
	l.weights[key] = weight
	if l.store != nil {
		// A failed write only costs a repeat lookup next run.
		_ = l.store.SaveNameWeight(key, weight, SourceLearned)
	}
}

// Len returns the number of known tokens.
func (l *Lexicon) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.weights)
}

// Empty reports whether no weights are loaded at all.
func (l *Lexicon) Empty() bool {
	return l.Len() == 0
}

// Institutional reports whether the token carries a negative institutional
// weight.
func (l *Lexicon) Institutional(token string) bool {
	w, ok := l.Weight(token)
	if ok {
		return w < 0
	}
	return IsInstitutionalTerm(token)
}
