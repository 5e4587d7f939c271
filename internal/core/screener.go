// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"context"

	"crivo/internal/detector"
	"crivo/internal/fragment"
	"crivo/internal/lexicon"
	"crivo/internal/normalize"
	"crivo/internal/observability"
	"crivo/internal/oracle"
	"crivo/internal/suppressions"
	"crivo/internal/validators/nome"
)

// OracleClient resolves observations the local detectors left ambiguous.
// *oracle.Oracle implements it.
type OracleClient interface {
	Resolve(ctx context.Context, text string) (oracle.Resolution, error)
}

// ScreenerConfig assembles a Screener. Nil fields fall back to local-only
// defaults, so a zero config still screens.
type ScreenerConfig struct {
	Splitter     *fragment.Splitter
	Strong       []detector.Validator
	Weak         []detector.Scorer
	Suppressions *suppressions.SuppressionManager
	Oracle       OracleClient
	Observer     *observability.StandardObserver
}

// Screener classifies one observation at a time: normalize, fragment, run
// the strong cascade, then the weak scorers, then consult the oracle when
// the outcome is still ambiguous. Screeners are safe for concurrent use as
// long as their scorers are.
type Screener struct {
	splitter *fragment.Splitter
	strong   []detector.Validator
	weak     []detector.Scorer
	suppress *suppressions.SuppressionManager
	oracle   OracleClient
	observer *observability.StandardObserver
}

// NewScreener builds a Screener from cfg, filling defaults for nil fields.
func NewScreener(cfg ScreenerConfig) *Screener {
	s := &Screener{
		splitter: cfg.Splitter,
		strong:   cfg.Strong,
		weak:     cfg.Weak,
		suppress: cfg.Suppressions,
		oracle:   cfg.Oracle,
		observer: cfg.Observer,
	}
	if s.splitter == nil {
		s.splitter = fragment.DefaultSplitter()
	}
	if s.strong == nil {
		s.strong = BuildStrongSet()
	}
	if s.weak == nil {
		s.weak = BuildWeakSet(lexicon.New(), nome.DefaultConfig(), nil)
	}
	if s.observer == nil {
		s.observer = observability.NewStandardObserver(observability.ObservabilityOff, nil)
	}
	return s
}

// Screen classifies a single observation and returns its verdict. The
// returned verdict always carries a fully populated flag map.
func (s *Screener) Screen(ctx context.Context, obs detector.Observation) detector.Verdict {
	finish := s.observer.StartTiming("screener", "screen", obs.ID)
	verdict := s.screen(ctx, obs)
	finish(true, map[string]interface{}{
		"personal": verdict.IsPersonal,
		"source":   string(verdict.Source),
	})
	return verdict
}

func (s *Screener) screen(ctx context.Context, obs detector.Observation) detector.Verdict {
	verdict := detector.Verdict{
		ObservationID: obs.ID,
		Flags:         detector.NewFlags(),
		Source:        detector.SourceNone,
	}

	norm := normalize.Normalize(obs.Text)
	if norm.Empty() {
		return verdict
	}
	frags := s.splitter.Split(norm)

	// Strong cascade, fragment order outer and detector order inner. The
	// first unsuppressed hit settles the observation with exactly one flag.
	for _, frag := range frags {
		for _, v := range s.strong {
			res := v.Evaluate(frag)
			if !res.Matched {
				continue
			}
			item := detector.EvidenceItem{
				Type:        res.DetectorID,
				Span:        res.Evidence,
				FragmentIdx: frag.Order,
			}
			if rule := s.suppressionFor(res.DetectorID, res.Evidence); rule != nil {
				verdict.Suppressed = append(verdict.Suppressed, detector.SuppressedMatch{
					Evidence: item,
					Rule:     rule.ID,
					Reason:   rule.Reason,
				})
				continue
			}
			verdict.IsPersonal = true
			verdict.PriorityDetector = res.DetectorID
			verdict.Flags[res.DetectorID] = 1
			verdict.Evidence = append(verdict.Evidence, item)
			verdict.Source = detector.SourceStrong
			return verdict
		}
	}

	// Weak pass, scorer order outer so a name hit anywhere outranks an
	// address hit for the priority column. Every scorer sees every
	// fragment; more than one flag can end up set.
	for _, sc := range s.weak {
		for _, frag := range frags {
			res := sc.Score(ctx, frag)
			if !res.Matched {
				if res.Score > verdict.WeakScore {
					verdict.WeakScore = res.Score
				}
				continue
			}
			item := detector.EvidenceItem{
				Type:        res.DetectorID,
				Span:        res.Evidence,
				FragmentIdx: frag.Order,
			}
			if rule := s.suppressionFor(res.DetectorID, res.Evidence); rule != nil {
				// Suppressed spans stay out of the ambiguity signal.
				verdict.Suppressed = append(verdict.Suppressed, detector.SuppressedMatch{
					Evidence: item,
					Rule:     rule.ID,
					Reason:   rule.Reason,
				})
				continue
			}
			if res.Score > verdict.WeakScore {
				verdict.WeakScore = res.Score
			}
			verdict.Flags[res.DetectorID] = 1
			verdict.Evidence = append(verdict.Evidence, item)
			if verdict.PriorityDetector == "" {
				verdict.PriorityDetector = res.DetectorID
			}
		}
	}
	if anyFlag(verdict.Flags) {
		verdict.IsPersonal = true
		verdict.Source = detector.SourceWeak
		return verdict
	}

	// Oracle gate. Only observations with some weak signal that fell short
	// of a threshold go remote; silent texts resolve locally as public.
	if s.oracle == nil || verdict.WeakScore <= 0 {
		return verdict
	}
	resolution, err := s.oracle.Resolve(ctx, obs.Text)
	if err != nil {
		verdict.RemoteFailure = err.Error()
		return verdict
	}
	verdict.Source = resolution.Source
	if !resolution.Hint.ContainsPII {
		return verdict
	}
	for _, cat := range resolution.Hint.Categories {
		// Cached hints may predate the current category set.
		if _, ok := verdict.Flags[cat]; ok {
			verdict.Flags[cat] = 1
		}
	}
	verdict.IsPersonal = anyFlag(verdict.Flags)
	if verdict.IsPersonal && verdict.PriorityDetector == "" {
		verdict.PriorityDetector = firstFlagged(verdict.Flags)
	}
	verdict.Evidence = append(verdict.Evidence, resolution.Evidence...)
	return verdict
}

// suppressionFor returns the matching allowlist rule, or nil when the
// evidence stands.
func (s *Screener) suppressionFor(detectorID, evidence string) *suppressions.SuppressionRule {
	if s.suppress == nil {
		return nil
	}
	if ok, rule := s.suppress.IsSuppressed(detectorID, evidence); ok {
		return rule
	}
	return nil
}

func anyFlag(flags map[string]int) bool {
	for _, v := range flags {
		if v == 1 {
			return true
		}
	}
	return false
}

// firstFlagged returns the first set flag in category order.
func firstFlagged(flags map[string]int) string {
	for _, id := range detector.Categories {
		if flags[id] == 1 {
			return id
		}
	}
	return ""
}

// Summary aggregates verdicts for the run report.
type Summary struct {
	Total          int
	Personal       int
	Suppressed     int
	RemoteFailures int
	ByDetector     map[string]int
	BySource       map[detector.Source]int
}

// Summarize folds a batch of verdicts into per-category and per-source
// counts. ByDetector counts set flags, so one observation can contribute
// to several categories.
func Summarize(verdicts []detector.Verdict) Summary {
	s := Summary{
		ByDetector: make(map[string]int),
		BySource:   make(map[detector.Source]int),
	}
	for _, v := range verdicts {
		s.Total++
		if v.IsPersonal {
			s.Personal++
		}
		s.Suppressed += len(v.Suppressed)
		if v.RemoteFailure != "" {
			s.RemoteFailures++
		}
		s.BySource[v.Source]++
		for _, id := range detector.Categories {
			if v.Flags[id] == 1 {
				s.ByDetector[id]++
			}
		}
	}
	return s
}
