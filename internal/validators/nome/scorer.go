// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package nome scores name-like token runs against a weighted lexicon.
//
// Capitalization is gone after normalization, so the scorer cannot lean
// on it. Candidates come from three patterns: an explicit nome label, a
// self-introduction or signature, and generic runs of two or more
// name-like tokens. Candidate tokens are summed against the lexicon;
// institutional vocabulary carries negative weight and pulls runs about
// procurement or government bodies below zero. Unknown tokens score
// nothing unless a remote resolver is configured, in which case a
// confirmed token enters the lexicon and counts from then on.
package nome

import (
	"context"
	"regexp"
	"strings"

	"crivo/internal/detector"
	"crivo/internal/fragment"
	"crivo/internal/lexicon"
	"crivo/internal/normalize"
)

// Config carries the scorer thresholds. Zero values are not usable;
// start from DefaultConfig.
type Config struct {
	// ScoreMin accepts a candidate with two or more positive tokens.
	ScoreMin float64

	// ScoreMinSingle accepts a short candidate on one strong token.
	ScoreMinSingle float64

	// MaxTokensSingle caps candidate length for the single-strong-token
	// rule.
	MaxTokensSingle int

	// MaxTokensFallback caps candidate length for the bare-lexicon
	// fallback rule.
	MaxTokensFallback int

	// RemoteLookup enables resolving unknown tokens through the
	// configured TokenResolver.
	RemoteLookup bool
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return Config{
		ScoreMin:          0.6,
		ScoreMinSingle:    1.1,
		MaxTokensSingle:   4,
		MaxTokensFallback: 4,
	}
}

// TokenResolver resolves tokens the lexicon does not know. The fragment
// text gives the resolver context; the returned map carries weights for
// the tokens it could classify. Failures degrade to local scoring.
type TokenResolver interface {
	ResolveNameTokens(ctx context.Context, fragmentText string, tokens []string) (map[string]float64, error)
}

const (
	nameToken = `[a-z][a-z'-]+`
	connector = `(?:da|de|do|dos|das|e)`
	tokenRun  = nameToken + `(?:\s+(?:` + connector + `\s+)?` + nameToken + `)`
)

var (
	tokenRE    = regexp.MustCompile(nameToken)
	sequenceRE = regexp.MustCompile(`\b` + tokenRun + `+\b`)
	labelRE    = regexp.MustCompile(`\bnome(?:\s+completo)?\s*[:\-]?\s*(` + tokenRun + `*)`)
	introRE    = regexp.MustCompile(`\b(?:meu\s+nome\s+e|me\s+chamo|sou\s+[oa]?|ass(?:inatura|inado)?|att\.?|at\.?\.?te?\.?|atenciosamente)[,:\s]+` + tokenRun + `*`)
)

var connectorSet = map[string]bool{
	"da": true, "de": true, "do": true, "dos": true, "das": true, "e": true,
}

// Scorer implements the detector.Scorer interface for scoring personal
// names.
type Scorer struct {
	cfg      Config
	lex      *lexicon.Lexicon
	resolver TokenResolver
}

// NewScorer creates a Scorer over the given lexicon.
func NewScorer(lex *lexicon.Lexicon, cfg Config) *Scorer {
	return &Scorer{cfg: cfg, lex: lex}
}

// NewScorerWithResolver creates a Scorer that consults resolver for
// unknown tokens when Config.RemoteLookup is set.
func NewScorerWithResolver(lex *lexicon.Lexicon, cfg Config, resolver TokenResolver) *Scorer {
	s := NewScorer(lex, cfg)
	s.resolver = resolver
	return s
}

// ID returns the detector identifier for this scorer.
func (s *Scorer) ID() string {
	return detector.Nome
}

// Threshold returns the score at which an observation is marked via the
// name path.
func (s *Scorer) Threshold() float64 {
	return s.cfg.ScoreMin
}

// Score evaluates name candidates in a fragment. Labeled candidates are
// tried first, then introductions, then generic token runs; the first
// accepted candidate wins. An introduction is decisive on its own and
// reports score 1.0. When nothing is accepted, the best candidate score
// is still reported so the caller can tell an ambiguous fragment from a
// silent one.
func (s *Scorer) Score(ctx context.Context, frag fragment.Fragment) detector.Result {
	result := detector.Result{DetectorID: s.ID()}
	text := frag.Folded
	if text == "" {
		return result
	}

	var best float64

	if m := labelRE.FindStringSubmatch(text); m != nil {
		score, ok := s.scoreLabeled(ctx, m[1])
		if ok {
			result.Matched = true
			result.Evidence = strings.TrimSpace(m[0])
			result.Score = score
			return result
		}
		if score > best {
			best = score
		}
	}

	if m := introRE.FindString(text); m != "" {
		result.Matched = true
		result.Evidence = strings.TrimSpace(m)
		result.Score = 1.0
		return result
	}

	for _, m := range sequenceRE.FindAllString(text, -1) {
		toks := splitTokens(m)
		if len(toks) < 2 {
			continue
		}
		score, ok := s.decide(ctx, m, toks)
		if ok {
			result.Matched = true
			result.Evidence = strings.TrimSpace(m)
			result.Score = score
			return result
		}
		if score > best {
			best = score
		}
	}

	result.Score = best
	return result
}

// scoreLabeled evaluates the name part of a labeled candidate. A single
// leftover token gets the dedicated single-token rule; longer runs go
// through the regular decision.
func (s *Scorer) scoreLabeled(ctx context.Context, name string) (float64, bool) {
	toks := splitTokens(name)
	switch len(toks) {
	case 0:
		return 0, false
	case 1:
		return s.decideSingle(toks[0])
	default:
		return s.decide(ctx, name, toks)
	}
}

// decide applies the scoring rules to a multi-token candidate.
func (s *Scorer) decide(ctx context.Context, candidate string, toks []string) (float64, bool) {
	// Statute references ("lei maria da penha") read like names but
	// never are one.
	if toks[0] == "lei" {
		return 0, false
	}

	overlay := s.resolveUnknown(ctx, candidate, toks)

	if s.lex.Empty() && len(overlay) == 0 {
		for _, t := range toks {
			if lexicon.IsInstitutionalTerm(t) {
				return 0, false
			}
		}
		if len(toks) <= s.cfg.MaxTokensFallback {
			return 1.0, true
		}
		return 0, false
	}

	var score float64
	posHits := 0
	for _, t := range toks {
		w, ok := s.weightOf(t, overlay)
		if !ok {
			continue
		}
		score += w
		if w > 0 {
			posHits++
		}
	}

	if score <= 0 {
		return score, false
	}
	if posHits >= 2 && score >= s.cfg.ScoreMin {
		return score, true
	}
	if posHits >= 1 && score >= s.cfg.ScoreMinSingle && len(toks) <= s.cfg.MaxTokensSingle {
		return score, true
	}
	return score, false
}

// decideSingle applies the single-token rule for labeled candidates.
func (s *Scorer) decideSingle(token string) (float64, bool) {
	if s.lex.Institutional(token) {
		return 0, false
	}
	w, known := s.lex.Weight(token)
	if !known {
		if len(token) >= 3 {
			return 1.0, true
		}
		return 0, false
	}
	if w > 0 {
		return w, true
	}
	return 0, false
}

// resolveUnknown asks the resolver about tokens the lexicon does not
// know and feeds confirmed weights back into it.
func (s *Scorer) resolveUnknown(ctx context.Context, candidate string, toks []string) map[string]float64 {
	if !s.cfg.RemoteLookup || s.resolver == nil {
		return nil
	}

	var unknown []string
	seen := make(map[string]bool)
	for _, t := range toks {
		if seen[t] {
			continue
		}
		seen[t] = true
		if _, known := s.lex.Weight(t); !known {
			unknown = append(unknown, t)
		}
	}
	if len(unknown) == 0 {
		return nil
	}

	resolved, err := s.resolver.ResolveNameTokens(ctx, candidate, unknown)
	if err != nil || len(resolved) == 0 {
		return nil
	}
	overlay := make(map[string]float64, len(resolved))
	for tok, w := range resolved {
		key := normalize.FoldToken(tok)
		overlay[key] = w
		s.lex.Learn(key, w)
	}
	return overlay
}

func (s *Scorer) weightOf(token string, overlay map[string]float64) (float64, bool) {
	if w, ok := overlay[token]; ok {
		return w, true
	}
	return s.lex.Weight(token)
}

// splitTokens extracts candidate tokens, dropping connector words.
func splitTokens(candidate string) []string {
	var toks []string
	for _, t := range tokenRE.FindAllString(candidate, -1) {
		if connectorSet[t] {
			continue
		}
		toks = append(toks, t)
	}
	return toks
}
