// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"crivo/internal/cache"
	"crivo/internal/detector"
	"crivo/internal/fragment"
	"crivo/internal/normalize"
	"crivo/internal/resilience"
)

// DefaultModel is the chat model used when the configuration names none.
const DefaultModel = "gpt-4o-mini"

// maxSuspectFragments caps how much of an observation goes over the wire.
const maxSuspectFragments = 3

// suspectKeywords rank fragments by how likely they are to carry personal
// data. Plain substring hits on the lower-cased fragment; "whats" also
// catches "whatsapp".
var suspectKeywords = []string{
	"nome", "cpf", "rg", "telefone", "email", "rua", "avenida", "whats", "contato",
}

// typeMap translates the model's category vocabulary to detector IDs.
// Unknown categories set no flag.
var typeMap = map[string]string{
	"cpf":   detector.Identificador,
	"email": detector.Email,
	"rg":    detector.RG,
	"phone": detector.Telefone,
	"name":  detector.Nome,
}

// llmReply is the JSON contract the prompt demands from the model.
type llmReply struct {
	ContainsPII bool      `json:"contains_pii"`
	PIITypes    []string  `json:"pii_types"`
	Evidence    []llmSpan `json:"evidence"`
	Confidence  float64   `json:"confidence"`
}

type llmSpan struct {
	Type        string `json:"type"`
	Span        string `json:"span"`
	FragmentIdx int    `json:"fragment_idx"`
}

// suspectFragment is one wire-format fragment sent to the model. Indexes
// refer to the observation's fragment order, so evidence points back into
// the same windows the local detectors saw.
type suspectFragment struct {
	FragmentIdx int    `json:"fragment_idx"`
	Text        string `json:"text"`
}

// LLMClassifier asks a chat model for a strict-JSON verdict over the
// suspect fragments of an observation. It implements Classifier.
type LLMClassifier struct {
	client   *openai.Client
	model    string
	splitter *fragment.Splitter
}

// NewLLMClassifier creates a classifier against the public API. An empty
// model falls back to DefaultModel; a nil splitter uses the default window
// geometry, which should match the local pipeline's so fragment indexes
// line up.
func NewLLMClassifier(apiKey, model string, splitter *fragment.Splitter) *LLMClassifier {
	return newLLMClassifier(openai.NewClient(apiKey), model, splitter)
}

// NewLLMClassifierWithBaseURL targets an OpenAI-compatible endpoint, for
// self-hosted gateways and for tests.
func NewLLMClassifierWithBaseURL(apiKey, baseURL, model string, splitter *fragment.Splitter) *LLMClassifier {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return newLLMClassifier(openai.NewClientWithConfig(cfg), model, splitter)
}

func newLLMClassifier(client *openai.Client, model string, splitter *fragment.Splitter) *LLMClassifier {
	if model == "" {
		model = DefaultModel
	}
	if splitter == nil {
		splitter = fragment.DefaultSplitter()
	}
	return &LLMClassifier{client: client, model: model, splitter: splitter}
}

// Model returns the model this classifier queries.
func (c *LLMClassifier) Model() string { return c.model }

// Classify sends the top suspect fragments of text to the model and maps
// its strict-JSON reply onto the detector vocabulary. Transport and parse
// failures come back classified so the retry layer knows which are worth
// a second attempt.
func (c *LLMClassifier) Classify(ctx context.Context, text string) (Outcome, error) {
	payload, err := json.Marshal(c.selectSuspectFragments(text))
	if err != nil {
		return Outcome{}, fmt.Errorf("encoding suspect fragments: %w", err)
	}

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(string(payload))},
		},
		// The field is omitempty, so a literal 0 would silently become
		// the API default of 1. Smallest positive value pins it.
		Temperature: math.SmallestNonzeroFloat32,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return Outcome{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Outcome{}, resilience.NewTransientError("oracle reply carried no choices", nil)
	}

	reply, err := parseReply(resp.Choices[0].Message.Content)
	if err != nil {
		// Strict JSON mode makes this rare but not impossible; a fresh
		// attempt usually produces a parseable reply.
		return Outcome{}, resilience.NewTransientError(fmt.Sprintf("unparseable oracle reply: %v", err), err)
	}

	hint, evidence := mapReply(reply)
	return Outcome{
		Hint:     hint,
		Evidence: evidence,
		Model:    c.model,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
		},
	}, nil
}

// selectSuspectFragments windows the text the same way the local pipeline
// does and keeps the fragments with the most keyword hits. Ties keep scan
// order, so the choice is deterministic. Empty fragments are dropped.
func (c *LLMClassifier) selectSuspectFragments(text string) []suspectFragment {
	frags := c.splitter.Split(normalize.Normalize(text))

	type scored struct {
		frag  fragment.Fragment
		score int
	}
	ranked := make([]scored, 0, len(frags))
	for _, f := range frags {
		ranked = append(ranked, scored{frag: f, score: keywordScore(f.Text)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if len(ranked) > maxSuspectFragments {
		ranked = ranked[:maxSuspectFragments]
	}
	selected := make([]suspectFragment, 0, len(ranked))
	for _, s := range ranked {
		if s.frag.Text == "" {
			continue
		}
		selected = append(selected, suspectFragment{FragmentIdx: s.frag.Order, Text: s.frag.Text})
	}
	return selected
}

func keywordScore(text string) int {
	lower := strings.ToLower(text)
	score := 0
	for _, kw := range suspectKeywords {
		if strings.Contains(lower, kw) {
			score++
		}
	}
	return score
}

// buildPrompt assembles the single user message. The instructions are in
// Portuguese because the screened data is; the JSON skeleton keeps the
// model's reply machine-checkable.
func buildPrompt(fragmentsJSON string) string {
	var b strings.Builder
	b.WriteString("Você é um classificador de dados pessoais. Analise os fragmentos e responda apenas com JSON estrito. ")
	b.WriteString("Retorne contains_pii=true somente se houver evidência explícita. ")
	b.WriteString("JSON esperado: {\n")
	b.WriteString("  \"contains_pii\": boolean,\n")
	b.WriteString("  \"pii_types\": [\"name\",\"email\",\"cpf\",\"rg\",\"phone\"],\n")
	b.WriteString("  \"evidence\": [{\"type\": string, \"span\": string, \"fragment_idx\": number}],\n")
	b.WriteString("  \"confidence\": number\n")
	b.WriteString("}\n\n")
	b.WriteString("Fragmentos: ")
	b.WriteString(fragmentsJSON)
	return b.String()
}

// parseReply decodes the model's JSON, tolerating a markdown code fence
// or prose around the object.
func parseReply(content string) (llmReply, error) {
	cleaned := stripCodeFence(content)
	if !strings.HasPrefix(cleaned, "{") {
		cleaned = extractJSONObject(cleaned)
	}
	var reply llmReply
	if err := json.Unmarshal([]byte(cleaned), &reply); err != nil {
		return llmReply{}, err
	}
	return reply, nil
}

// mapReply turns a model reply into a durable hint plus evidence in the
// detector vocabulary. A positive with no evidence is normalized to a
// negative before anything is cached, so cache replays can never flag a
// row the fresh call would not have flagged. Categories from pii_types
// and from evidence types are unioned; unknown categories are dropped.
func mapReply(reply llmReply) (cache.Hint, []detector.EvidenceItem) {
	seen := make(map[string]bool)
	var evidence []detector.EvidenceItem
	for _, span := range reply.Evidence {
		id, ok := typeMap[strings.ToLower(span.Type)]
		if !ok {
			continue
		}
		seen[id] = true
		evidence = append(evidence, detector.EvidenceItem{
			Type:        id,
			Span:        span.Span,
			FragmentIdx: span.FragmentIdx,
		})
	}
	for _, t := range reply.PIITypes {
		if id, ok := typeMap[strings.ToLower(t)]; ok {
			seen[id] = true
		}
	}

	var categories []string
	for _, id := range detector.Categories {
		if seen[id] {
			categories = append(categories, id)
		}
	}

	hint := cache.Hint{
		ContainsPII: reply.ContainsPII && len(reply.Evidence) > 0,
		Categories:  categories,
		Confidence:  reply.Confidence,
	}
	if !hint.ContainsPII {
		// A negative carries nothing with it, so replaying the cached
		// hint behaves exactly like the fresh call did.
		hint.Categories = nil
		evidence = nil
	}
	return hint, evidence
}

// extractJSONObject pulls the outermost {...} out of surrounding prose.
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	if start < 0 {
		return s
	}
	end := strings.LastIndex(s, "}")
	if end < start {
		return s
	}
	return s[start : end+1]
}

// stripCodeFence removes a ```json ... ``` or ``` ... ``` wrapper.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	return s
}
