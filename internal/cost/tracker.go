// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package cost accounts for remote oracle usage: how many classifications
// and name lookups the run made, what they cost, and what the cache saved.
// The summary feeds the end-of-run report.
package cost

import (
	"fmt"
	"strings"
	"sync"
)

// Pricing holds per-unit rates for the remote services.
type Pricing struct {
	PromptTokenPer1K     float64 // classification input tokens
	CompletionTokenPer1K float64 // classification output tokens
	LookupRequest        float64 // one name-lookup HTTP request
}

// DefaultPricing returns current gpt-4o-mini and lookup-API rates.
func DefaultPricing() Pricing {
	return Pricing{
		PromptTokenPer1K:     0.00015, // $0.15 per 1M input tokens
		CompletionTokenPer1K: 0.0006,  // $0.60 per 1M output tokens
		LookupRequest:        0.0001,  // ~$10 per 100k requests
	}
}

// Nominal token counts for one classification, used to price cache hits
// that never reached the API. Rough approximation: prompt plus three
// fragments in, a short JSON verdict out.
const (
	nominalPromptTokens     = 600
	nominalCompletionTokens = 120
)

// Tracker accumulates remote usage across a run. Safe for concurrent use
// by the worker pool.
type Tracker struct {
	mu      sync.Mutex
	pricing Pricing

	classifications int
	failures        int
	promptTokens    int
	completionToks  int
	lookupRequests  int
	cacheHits       int
}

// NewTracker creates a tracker with the given pricing.
func NewTracker(pricing Pricing) *Tracker {
	return &Tracker{pricing: pricing}
}

// RecordClassification counts one completed remote classification and its
// token usage.
func (t *Tracker) RecordClassification(promptTokens, completionTokens int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.classifications++
	t.promptTokens += promptTokens
	t.completionToks += completionTokens
}

// RecordFailure counts a remote classification that did not resolve.
func (t *Tracker) RecordFailure() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failures++
}

// RecordLookups counts name-lookup HTTP requests.
func (t *Tracker) RecordLookups(requests int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lookupRequests += requests
}

// RecordCacheHit counts a classification answered from the cache.
func (t *Tracker) RecordCacheHit() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cacheHits++
}

// Summary is a point-in-time snapshot of remote usage and cost.
type Summary struct {
	Classifications  int     `json:"classifications"`
	Failures         int     `json:"failures"`
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	LookupRequests   int     `json:"lookup_requests"`
	CacheHits        int     `json:"cache_hits"`
	SpentCost        float64 `json:"spent_cost"`
	AvoidedCost      float64 `json:"avoided_cost"`
}

// Summary returns the current totals. SpentCost prices actual token usage
// and lookup requests; AvoidedCost prices the classifications the cache
// answered instead.
func (t *Tracker) Summary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	spent := float64(t.promptTokens)/1000.0*t.pricing.PromptTokenPer1K +
		float64(t.completionToks)/1000.0*t.pricing.CompletionTokenPer1K +
		float64(t.lookupRequests)*t.pricing.LookupRequest

	perCall := float64(nominalPromptTokens)/1000.0*t.pricing.PromptTokenPer1K +
		float64(nominalCompletionTokens)/1000.0*t.pricing.CompletionTokenPer1K

	return Summary{
		Classifications:  t.classifications,
		Failures:         t.failures,
		PromptTokens:     t.promptTokens,
		CompletionTokens: t.completionToks,
		LookupRequests:   t.lookupRequests,
		CacheHits:        t.cacheHits,
		SpentCost:        spent,
		AvoidedCost:      float64(t.cacheHits) * perCall,
	}
}

// FormatCostSummary returns a one-line human-readable cost breakdown.
func (s Summary) FormatCostSummary() string {
	if s.Classifications == 0 && s.LookupRequests == 0 && s.CacheHits == 0 {
		return "Remote cost: $0.00 (no oracle usage)"
	}

	summary := fmt.Sprintf("Remote cost: $%.4f", s.SpentCost)

	var breakdown []string
	if s.Classifications > 0 {
		breakdown = append(breakdown, fmt.Sprintf("%d classifications", s.Classifications))
	}
	if s.LookupRequests > 0 {
		breakdown = append(breakdown, fmt.Sprintf("%d lookups", s.LookupRequests))
	}
	if s.CacheHits > 0 {
		breakdown = append(breakdown, fmt.Sprintf("%d cache hits, ~$%.4f avoided", s.CacheHits, s.AvoidedCost))
	}

	if len(breakdown) > 0 {
		summary += " (" + strings.Join(breakdown, ", ") + ")"
	}

	return summary
}

// FormatDetailedSummary returns multi-line cost information.
func (s Summary) FormatDetailedSummary() string {
	summary := s.FormatCostSummary() + "\n"
	summary += fmt.Sprintf("Classifications: %d (%d failed)", s.Classifications, s.Failures)

	if s.PromptTokens > 0 || s.CompletionTokens > 0 {
		summary += fmt.Sprintf(", Tokens: %d in / %d out", s.PromptTokens, s.CompletionTokens)
	}
	if s.LookupRequests > 0 {
		summary += fmt.Sprintf(", Lookups: %d", s.LookupRequests)
	}
	if s.CacheHits > 0 {
		summary += fmt.Sprintf(", Cache hits: %d", s.CacheHits)
	}

	return summary
}
