// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package oracle resolves ambiguous observations remotely: a chat-model
// classifier for full-text verdict hints and a gender-inference lookup
// for name-token plausibility. Both are optional, cache-first, and
// failure-tolerant; a dead oracle degrades screening to the local weak
// path, it never fails a run.
package oracle

import (
	"context"
	"time"

	"crivo/internal/cache"
	"crivo/internal/cost"
	"crivo/internal/detector"
	"crivo/internal/normalize"
	"crivo/internal/observability"
	"crivo/internal/resilience"
)

// Cache entry sources.
const (
	SourceLLM    = "llm"
	SourceLookup = "lookup"
)

// DefaultTimeout bounds one remote classification attempt. Retries get a
// fresh timeout each.
const DefaultTimeout = 20 * time.Second

// Usage is the token consumption of one classification.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// Outcome is one remote classification: the durable hint plus the
// per-row evidence spans, which are reported once but never cached.
type Outcome struct {
	Hint     cache.Hint
	Evidence []detector.EvidenceItem
	Model    string
	Usage    Usage
}

// Classifier resolves one ambiguous text remotely.
type Classifier interface {
	Classify(ctx context.Context, text string) (Outcome, error)
}

// Store is the slice of the cache the oracle reads and writes.
type Store interface {
	Get(key string) (cache.Entry, bool, error)
	Put(e cache.Entry) error
}

// Resolution is what the screener receives: the hint and which path
// produced it.
type Resolution struct {
	Hint     cache.Hint
	Evidence []detector.EvidenceItem
	Source   detector.Source
	Model    string
}

// Oracle serves classification requests cache-first. Remote calls carry
// a per-attempt timeout, retry on retryable classifications, and stop
// going out at all once the circuit breaker opens.
type Oracle struct {
	classifier Classifier
	store      Store
	tracker    *cost.Tracker
	observer   *observability.StandardObserver
	breaker    *resilience.CircuitBreaker
	retry      resilience.RetryConfig
	timeout    time.Duration
}

// New creates an oracle. A nil tracker gets default pricing; a nil
// observer stays silent.
func New(classifier Classifier, store Store, tracker *cost.Tracker, observer *observability.StandardObserver) *Oracle {
	if tracker == nil {
		tracker = cost.NewTracker(cost.DefaultPricing())
	}
	if observer == nil {
		observer = observability.NewStandardObserver(observability.ObservabilityOff, nil)
	}
	return &Oracle{
		classifier: classifier,
		store:      store,
		tracker:    tracker,
		observer:   observer,
		breaker:    resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("oracle")),
		retry:      resilience.RemoteRetryConfig(),
		timeout:    DefaultTimeout,
	}
}

// Resolve answers for one observation text. The cache is consulted by
// content hash before any network call; a hit costs nothing. On a miss
// the classifier runs and the hint is persisted under the same key, so
// an identical row in any later run resolves locally.
func (o *Oracle) Resolve(ctx context.Context, text string) (Resolution, error) {
	key := normalize.Key(text)

	entry, ok, err := o.store.Get(key)
	if err == nil && ok {
		o.tracker.RecordCacheHit()
		return Resolution{Hint: entry.Hint, Source: detector.SourceOracleCache, Model: entry.Model}, nil
	}
	// A cache read error falls through to the remote path; a broken
	// cache must not take the oracle down with it.

	finish := o.observer.StartTiming("oracle", "classify", key[:12])

	outcome, err := resilience.RetryWithResult(ctx, o.retry, func(ctx context.Context) (Outcome, error) {
		var out Outcome
		err := o.breaker.Execute(ctx, func(ctx context.Context) error {
			callCtx, cancel := context.WithTimeout(ctx, o.timeout)
			defer cancel()
			var cerr error
			out, cerr = o.classifier.Classify(callCtx, text)
			return cerr
		})
		return out, err
	})
	if err != nil {
		o.tracker.RecordFailure()
		finish(false, map[string]interface{}{"error": err.Error()})
		return Resolution{}, err
	}

	o.tracker.RecordClassification(outcome.Usage.PromptTokens, outcome.Usage.CompletionTokens)

	// A failed write only costs a repeat call for the same content.
	_ = o.store.Put(cache.Entry{
		Key:    key,
		Hint:   outcome.Hint,
		Source: SourceLLM,
		Model:  outcome.Model,
	})

	finish(true, map[string]interface{}{"contains_pii": outcome.Hint.ContainsPII})
	return Resolution{
		Hint:     outcome.Hint,
		Evidence: outcome.Evidence,
		Source:   detector.SourceOracleRemote,
		Model:    outcome.Model,
	}, nil
}

// Tracker exposes the usage tracker for the run summary.
func (o *Oracle) Tracker() *cost.Tracker {
	return o.tracker
}
