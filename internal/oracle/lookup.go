// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"crivo/internal/cost"
	"crivo/internal/normalize"
)

// DefaultLookupURL is the public gender-inference endpoint.
const DefaultLookupURL = "https://api.genderize.io"

const (
	// genderNameWeight is what a confirmed first name contributes to the
	// name score, matching a curated common-name lexicon entry.
	genderNameWeight = 1.2

	// minLookupProbability is the confidence floor below which a lookup
	// answer is treated as "not a name".
	minLookupProbability = 0.6

	lookupTimeout = 5 * time.Second
)

// genderReply is the lookup service's answer for one token. Gender is
// empty when the service does not recognize the name.
type genderReply struct {
	Name        string  `json:"name"`
	Gender      string  `json:"gender"`
	Probability float64 `json:"probability"`
	Count       int     `json:"count"`
}

// NameLookup resolves unknown name tokens through a gender-inference
// service. A token the service recognizes as male or female with enough
// confidence earns the common-name weight; everything else is left for
// the local fallback rules. It implements the name scorer's resolver
// contract.
type NameLookup struct {
	baseURL string
	apiKey  string
	client  *http.Client
	tracker *cost.Tracker
}

// NewNameLookup creates a lookup against baseURL, or DefaultLookupURL
// when empty. The API key is optional; without one the public rate
// limits apply.
func NewNameLookup(baseURL, apiKey string, tracker *cost.Tracker) *NameLookup {
	if baseURL == "" {
		baseURL = DefaultLookupURL
	}
	if tracker == nil {
		tracker = cost.NewTracker(cost.DefaultPricing())
	}
	return &NameLookup{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: lookupTimeout},
		tracker: tracker,
	}
}

// ResolveNameTokens queries the service once per distinct token and
// returns weights for the tokens it confirmed. Individual failures skip
// the token; the error is non-nil only when every query failed and
// nothing was resolved, so a flaky service degrades scoring instead of
// breaking it. Quota and credential rejections stop the batch early
// because every remaining query would fail the same way.
func (l *NameLookup) ResolveNameTokens(ctx context.Context, _ string, tokens []string) (map[string]float64, error) {
	weights := make(map[string]float64)
	seen := make(map[string]bool)
	requests := 0
	var lastErr error

	for _, token := range tokens {
		key := normalize.FoldToken(token)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true

		requests++
		reply, status, err := l.lookupOne(ctx, key)
		if err != nil {
			lastErr = err
			if status == http.StatusUnauthorized || status == http.StatusPaymentRequired || status == http.StatusTooManyRequests {
				break
			}
			continue
		}
		if (reply.Gender == "male" || reply.Gender == "female") && reply.Probability >= minLookupProbability {
			weights[key] = genderNameWeight
		}
	}

	if requests > 0 {
		l.tracker.RecordLookups(requests)
	}
	if len(weights) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return weights, nil
}

// lookupOne performs one GET. The returned status is zero when the
// request never reached the service.
func (l *NameLookup) lookupOne(ctx context.Context, token string) (genderReply, int, error) {
	q := url.Values{}
	q.Set("name", token)
	if l.apiKey != "" {
		q.Set("apikey", l.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"/?"+q.Encode(), nil)
	if err != nil {
		return genderReply{}, 0, fmt.Errorf("building lookup request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return genderReply{}, 0, fmt.Errorf("name lookup for %q: %w", token, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return genderReply{}, resp.StatusCode, fmt.Errorf("name lookup for %q: status %d", token, resp.StatusCode)
	}

	var reply genderReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return genderReply{}, resp.StatusCode, fmt.Errorf("decoding lookup reply for %q: %w", token, err)
	}
	return reply, resp.StatusCode, nil
}
