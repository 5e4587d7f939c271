// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"crivo/internal/cache"
	"crivo/internal/detector"
	"crivo/internal/fragment"
	"crivo/internal/lexicon"
	"crivo/internal/oracle"
	"crivo/internal/suppressions"
	"crivo/internal/validators/nome"
)

// stubValidator matches on the fragment orders listed in matchOn.
type stubValidator struct {
	id      string
	matchOn map[int]string
	calls   int
}

func (v *stubValidator) ID() string { return v.id }

func (v *stubValidator) Evaluate(frag fragment.Fragment) detector.Result {
	v.calls++
	res := detector.Result{DetectorID: v.id}
	if span, ok := v.matchOn[frag.Order]; ok {
		res.Matched = true
		res.Evidence = span
		res.Score = 1.0
	}
	return res
}

// stubScorer returns the same result for every fragment.
type stubScorer struct {
	id     string
	result detector.Result
	calls  int
}

func (s *stubScorer) ID() string { return s.id }

func (s *stubScorer) Threshold() float64 { return 0.6 }

func (s *stubScorer) Score(_ context.Context, _ fragment.Fragment) detector.Result {
	s.calls++
	res := s.result
	res.DetectorID = s.id
	return res
}

type stubOracle struct {
	calls   int
	gotText string
	res     oracle.Resolution
	err     error
}

var _ OracleClient = (*stubOracle)(nil)

func (o *stubOracle) Resolve(_ context.Context, text string) (oracle.Resolution, error) {
	o.calls++
	o.gotText = text
	if o.err != nil {
		return oracle.Resolution{}, o.err
	}
	return o.res, nil
}

// twoFragmentText is long enough for exactly two windows under the
// default splitter.
func twoFragmentText() string {
	return strings.TrimSpace(strings.Repeat("registro ", 40))
}

func writeSuppressions(t *testing.T, doc string) *suppressions.SuppressionManager {
	t.Helper()
	path := filepath.Join(t.TempDir(), "suppressions.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write suppressions file: %v", err)
	}
	return suppressions.NewSuppressionManager(path)
}

func TestScreen_EmptyTextIsPublic(t *testing.T) {
	s := NewScreener(ScreenerConfig{
		Strong: []detector.Validator{},
		Weak:   []detector.Scorer{},
	})
	verdict := s.Screen(context.Background(), detector.Observation{ID: "7", Text: "   \t "})

	if verdict.IsPersonal {
		t.Error("blank text should not be personal")
	}
	if verdict.ObservationID != "7" {
		t.Errorf("expected observation id to pass through, got %q", verdict.ObservationID)
	}
	if verdict.Source != detector.SourceNone {
		t.Errorf("expected source none, got %q", verdict.Source)
	}
	if len(verdict.Flags) != len(detector.Categories) {
		t.Errorf("expected %d flag entries, got %d", len(detector.Categories), len(verdict.Flags))
	}
	for id, v := range verdict.Flags {
		if v != 0 {
			t.Errorf("flag %q should be 0, got %d", id, v)
		}
	}
}

func TestScreen_EarlierFragmentBeatsCascadeRank(t *testing.T) {
	// The identifier detector outranks email inside one fragment, but a
	// hit in fragment 0 must win over any hit in fragment 1.
	ident := &stubValidator{id: detector.Identificador, matchOn: map[int]string{1: "390.533.447-05"}}
	mail := &stubValidator{id: detector.Email, matchOn: map[int]string{0: "a@b.com"}}

	s := NewScreener(ScreenerConfig{
		Strong: []detector.Validator{ident, mail},
		Weak:   []detector.Scorer{},
	})
	verdict := s.Screen(context.Background(), detector.Observation{ID: "1", Text: twoFragmentText()})

	if !verdict.IsPersonal {
		t.Fatal("expected a personal verdict")
	}
	if verdict.PriorityDetector != detector.Email {
		t.Errorf("expected priority email, got %q", verdict.PriorityDetector)
	}
	if verdict.Flags[detector.Email] != 1 || verdict.Flags[detector.Identificador] != 0 {
		t.Errorf("expected only the email flag set, got %v", verdict.Flags)
	}
	if len(verdict.Evidence) != 1 || verdict.Evidence[0].FragmentIdx != 0 {
		t.Errorf("expected one evidence item from fragment 0, got %v", verdict.Evidence)
	}
	if ident.calls != 1 {
		t.Errorf("identifier detector should have seen only fragment 0, got %d calls", ident.calls)
	}
	if mail.calls != 1 {
		t.Errorf("email detector should have been called once, got %d calls", mail.calls)
	}
}

func TestScreen_CascadeOrderBreaksTies(t *testing.T) {
	first := &stubValidator{id: detector.Identificador, matchOn: map[int]string{0: "390.533.447-05"}}
	second := &stubValidator{id: detector.Email, matchOn: map[int]string{0: "a@b.com"}}

	s := NewScreener(ScreenerConfig{
		Strong: []detector.Validator{first, second},
		Weak:   []detector.Scorer{},
	})
	verdict := s.Screen(context.Background(), detector.Observation{ID: "1", Text: "texto qualquer"})

	if verdict.PriorityDetector != detector.Identificador {
		t.Errorf("expected the first detector in cascade order to win, got %q", verdict.PriorityDetector)
	}
	if second.calls != 0 {
		t.Errorf("later detector should not run after a hit, got %d calls", second.calls)
	}
}

func TestScreen_StrongHitSkipsWeakAndOracle(t *testing.T) {
	strong := &stubValidator{id: detector.Email, matchOn: map[int]string{0: "a@b.com"}}
	weak := &stubScorer{id: detector.Nome, result: detector.Result{Matched: true, Evidence: "maria silva", Score: 1.2}}
	orc := &stubOracle{}

	s := NewScreener(ScreenerConfig{
		Strong: []detector.Validator{strong},
		Weak:   []detector.Scorer{weak},
		Oracle: orc,
	})
	verdict := s.Screen(context.Background(), detector.Observation{ID: "1", Text: "contato a@b.com"})

	if verdict.Source != detector.SourceStrong {
		t.Errorf("expected source strong, got %q", verdict.Source)
	}
	if weak.calls != 0 {
		t.Errorf("weak pass should not run after a strong hit, got %d calls", weak.calls)
	}
	if orc.calls != 0 {
		t.Errorf("oracle should not be consulted after a strong hit, got %d calls", orc.calls)
	}
	set := 0
	for _, v := range verdict.Flags {
		set += v
	}
	if set != 1 {
		t.Errorf("a strong verdict carries exactly one flag, got %v", verdict.Flags)
	}
}

func TestScreen_RealDetectors(t *testing.T) {
	s := NewScreener(ScreenerConfig{})

	cases := []struct {
		name     string
		text     string
		priority string
		source   detector.Source
	}{
		{"plain email", "Contato: joao.silva@exemplo.com", detector.Email, detector.SourceStrong},
		{"checksum valid cpf", "CPF 390.533.447-05 anexado ao processo", detector.Identificador, detector.SourceStrong},
		{"marked phone", "Telefone: (11) 98765-4321", detector.Telefone, detector.SourceStrong},
		{"postal code", "Entregar no CEP 01310-100", detector.Endereco, detector.SourceStrong},
		{"labeled rg", "Documento RG 12.345.678-9 apresentado", detector.RG, detector.SourceStrong},
		{"self introduction", "Me chamo Maria Silva", detector.Nome, detector.SourceWeak},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			verdict := s.Screen(context.Background(), detector.Observation{ID: tc.name, Text: tc.text})
			if !verdict.IsPersonal {
				t.Fatalf("expected %q to be personal", tc.text)
			}
			if verdict.PriorityDetector != tc.priority {
				t.Errorf("expected priority %q, got %q", tc.priority, verdict.PriorityDetector)
			}
			if verdict.Source != tc.source {
				t.Errorf("expected source %q, got %q", tc.source, verdict.Source)
			}
			if verdict.Flags[tc.priority] != 1 {
				t.Errorf("expected flag %q set, got %v", tc.priority, verdict.Flags)
			}
			if len(verdict.Evidence) == 0 {
				t.Error("expected at least one evidence item")
			}
		})
	}
}

func TestScreen_PublicTextStaysLocal(t *testing.T) {
	orc := &stubOracle{}
	s := NewScreener(ScreenerConfig{Oracle: orc})

	verdict := s.Screen(context.Background(), detector.Observation{ID: "1", Text: "Reunião sobre orçamento anual"})

	if verdict.IsPersonal {
		t.Error("institutional text should not be personal")
	}
	if verdict.WeakScore != 0 {
		t.Errorf("expected weak score 0, got %v", verdict.WeakScore)
	}
	if orc.calls != 0 {
		t.Errorf("oracle should not see zero-signal text, got %d calls", orc.calls)
	}
	if verdict.Source != detector.SourceNone {
		t.Errorf("expected source none, got %q", verdict.Source)
	}
}

func TestScreen_WeakPassSetsBothFlags(t *testing.T) {
	s := NewScreener(ScreenerConfig{})

	verdict := s.Screen(context.Background(), detector.Observation{
		ID:   "1",
		Text: "Me chamo Maria Silva, moro no bairro Centro",
	})

	if !verdict.IsPersonal {
		t.Fatal("expected a personal verdict")
	}
	if verdict.Source != detector.SourceWeak {
		t.Errorf("expected source weak, got %q", verdict.Source)
	}
	if verdict.Flags[detector.Nome] != 1 {
		t.Errorf("expected the name flag set, got %v", verdict.Flags)
	}
	if verdict.Flags[detector.Endereco] != 1 {
		t.Errorf("expected the address flag set, got %v", verdict.Flags)
	}
	if verdict.PriorityDetector != detector.Nome {
		t.Errorf("name outranks address in the weak pass, got %q", verdict.PriorityDetector)
	}
	if len(verdict.Evidence) < 2 {
		t.Errorf("expected evidence from both weak detectors, got %v", verdict.Evidence)
	}
}

func TestScreen_SuppressedStrongMatchKeepsRowPublic(t *testing.T) {
	manager := writeSuppressions(t, `version: "1.0"
rules:
  - id: service-mailbox
    value: allowed@example.com
    detectors: [email]
    reason: institutional mailbox
    enabled: true
`)
	orc := &stubOracle{}
	s := NewScreener(ScreenerConfig{Suppressions: manager, Oracle: orc})

	verdict := s.Screen(context.Background(), detector.Observation{ID: "1", Text: "contato: allowed@example.com"})

	if verdict.IsPersonal {
		t.Error("suppressed match should not mark the row personal")
	}
	if len(verdict.Suppressed) != 1 {
		t.Fatalf("expected one suppressed match, got %d", len(verdict.Suppressed))
	}
	sup := verdict.Suppressed[0]
	if sup.Rule != "service-mailbox" {
		t.Errorf("expected rule id service-mailbox, got %q", sup.Rule)
	}
	if sup.Evidence.Type != detector.Email {
		t.Errorf("expected suppressed email evidence, got %q", sup.Evidence.Type)
	}
	if verdict.Flags[detector.Email] != 0 {
		t.Errorf("suppressed hit must not set a flag, got %v", verdict.Flags)
	}
	if orc.calls != 0 {
		t.Errorf("suppressed row should not reach the oracle, got %d calls", orc.calls)
	}
}

func TestScreen_SuppressedWeakMatchStaysOutOfAmbiguity(t *testing.T) {
	manager := writeSuppressions(t, `version: "1.0"
rules:
  - id: signature-block
    value: me chamo maria silva
    detectors: [nome]
    reason: template signature
    enabled: true
`)
	orc := &stubOracle{}
	s := NewScreener(ScreenerConfig{Suppressions: manager, Oracle: orc})

	verdict := s.Screen(context.Background(), detector.Observation{ID: "1", Text: "Me chamo Maria Silva"})

	if verdict.IsPersonal {
		t.Error("suppressed weak match should not mark the row personal")
	}
	if len(verdict.Suppressed) != 1 {
		t.Fatalf("expected one suppressed match, got %d", len(verdict.Suppressed))
	}
	if verdict.WeakScore != 0 {
		t.Errorf("suppressed span must not feed the ambiguity signal, got score %v", verdict.WeakScore)
	}
	if orc.calls != 0 {
		t.Errorf("allowlisted span should not reach the oracle, got %d calls", orc.calls)
	}
}

func TestScreen_AmbiguousConsultsOracle(t *testing.T) {
	weak := &stubScorer{id: detector.Nome, result: detector.Result{Score: 0.3}}
	orc := &stubOracle{res: oracle.Resolution{
		Hint:     cache.Hint{ContainsPII: true, Categories: []string{detector.Nome}, Confidence: 0.88},
		Evidence: []detector.EvidenceItem{{Type: detector.Nome, Span: "fulano de tal", FragmentIdx: 0}},
		Source:   detector.SourceOracleRemote,
		Model:    "gpt-4o-mini",
	}}
	s := NewScreener(ScreenerConfig{
		Strong: []detector.Validator{},
		Weak:   []detector.Scorer{weak},
		Oracle: orc,
	})

	verdict := s.Screen(context.Background(), detector.Observation{ID: "1", Text: "texto ambiguo"})

	if orc.calls != 1 {
		t.Fatalf("expected one oracle call, got %d", orc.calls)
	}
	if !verdict.IsPersonal {
		t.Fatal("positive oracle hint should mark the row personal")
	}
	if verdict.Source != detector.SourceOracleRemote {
		t.Errorf("expected source oracle-remote, got %q", verdict.Source)
	}
	if verdict.Flags[detector.Nome] != 1 {
		t.Errorf("expected the name flag from the hint, got %v", verdict.Flags)
	}
	if verdict.PriorityDetector != detector.Nome {
		t.Errorf("expected priority nome, got %q", verdict.PriorityDetector)
	}
	if verdict.WeakScore != 0.3 {
		t.Errorf("expected weak score 0.3, got %v", verdict.WeakScore)
	}
	if len(verdict.Evidence) != 1 || verdict.Evidence[0].Span != "fulano de tal" {
		t.Errorf("expected the oracle evidence span, got %v", verdict.Evidence)
	}
}

func TestScreen_OracleNegativeStaysPublic(t *testing.T) {
	weak := &stubScorer{id: detector.Nome, result: detector.Result{Score: 0.4}}
	orc := &stubOracle{res: oracle.Resolution{
		Hint:   cache.Hint{ContainsPII: false},
		Source: detector.SourceOracleRemote,
	}}
	s := NewScreener(ScreenerConfig{
		Strong: []detector.Validator{},
		Weak:   []detector.Scorer{weak},
		Oracle: orc,
	})

	verdict := s.Screen(context.Background(), detector.Observation{ID: "1", Text: "texto ambiguo"})

	if verdict.IsPersonal {
		t.Error("negative oracle hint should keep the row public")
	}
	if verdict.Source != detector.SourceOracleRemote {
		t.Errorf("a consulted oracle still stamps the source, got %q", verdict.Source)
	}
	if len(verdict.Evidence) != 0 {
		t.Errorf("negative resolution carries no evidence, got %v", verdict.Evidence)
	}
	if anyFlag(verdict.Flags) {
		t.Errorf("expected no flags, got %v", verdict.Flags)
	}
}

func TestScreen_OracleFailureDegradesToLocal(t *testing.T) {
	weak := &stubScorer{id: detector.Nome, result: detector.Result{Score: 0.4}}
	orc := &stubOracle{err: errors.New("oracle unreachable")}
	s := NewScreener(ScreenerConfig{
		Strong: []detector.Validator{},
		Weak:   []detector.Scorer{weak},
		Oracle: orc,
	})

	verdict := s.Screen(context.Background(), detector.Observation{ID: "1", Text: "texto ambiguo"})

	if verdict.IsPersonal {
		t.Error("a dead oracle must not change the local verdict")
	}
	if verdict.RemoteFailure == "" {
		t.Error("expected the oracle failure to be recorded")
	}
	if verdict.Source != detector.SourceNone {
		t.Errorf("expected source none after oracle failure, got %q", verdict.Source)
	}
}

func TestScreen_OracleReceivesRawText(t *testing.T) {
	raw := "  Documento   ENCAMINHADO por José  "
	weak := &stubScorer{id: detector.Nome, result: detector.Result{Score: 0.4}}
	orc := &stubOracle{res: oracle.Resolution{Source: detector.SourceOracleRemote}}
	s := NewScreener(ScreenerConfig{
		Strong: []detector.Validator{},
		Weak:   []detector.Scorer{weak},
		Oracle: orc,
	})

	s.Screen(context.Background(), detector.Observation{ID: "1", Text: raw})

	if orc.gotText != raw {
		t.Errorf("oracle must see the original text, got %q", orc.gotText)
	}
}

func TestScreen_RealAmbiguityReachesOracle(t *testing.T) {
	// A lone surname scores 0.5, below every acceptance rule, which is
	// exactly the ambiguity the oracle exists for.
	orc := &stubOracle{res: oracle.Resolution{
		Hint:   cache.Hint{ContainsPII: true, Categories: []string{detector.Nome}},
		Source: detector.SourceOracleRemote,
	}}
	s := NewScreener(ScreenerConfig{Oracle: orc})

	text := "documento encaminhado por silva ontem"
	verdict := s.Screen(context.Background(), detector.Observation{ID: "1", Text: text})

	if orc.calls != 1 {
		t.Fatalf("expected the ambiguous row to reach the oracle, got %d calls", orc.calls)
	}
	if orc.gotText != text {
		t.Errorf("oracle should receive the raw row text, got %q", orc.gotText)
	}
	if !verdict.IsPersonal {
		t.Error("expected the oracle hint to settle the row as personal")
	}
	if verdict.WeakScore != 0.5 {
		t.Errorf("expected weak score 0.5 from the lone surname, got %v", verdict.WeakScore)
	}
}

func TestScreen_AmbiguousWithoutOracleStaysPublic(t *testing.T) {
	s := NewScreener(ScreenerConfig{})

	verdict := s.Screen(context.Background(), detector.Observation{ID: "1", Text: "documento encaminhado por silva ontem"})

	if verdict.IsPersonal {
		t.Error("ambiguity without an oracle resolves as public")
	}
	if verdict.Source != detector.SourceNone {
		t.Errorf("expected source none, got %q", verdict.Source)
	}
	if verdict.RemoteFailure != "" {
		t.Errorf("no oracle configured is not a failure, got %q", verdict.RemoteFailure)
	}
	if verdict.WeakScore != 0.5 {
		t.Errorf("expected the sub-threshold score to be reported, got %v", verdict.WeakScore)
	}
}

func TestBuildStrongSet_CascadeOrder(t *testing.T) {
	set := BuildStrongSet()
	if len(set) != len(detector.StrongOrder) {
		t.Fatalf("expected %d strong validators, got %d", len(detector.StrongOrder), len(set))
	}
	for i, v := range set {
		if v.ID() != detector.StrongOrder[i] {
			t.Errorf("position %d: expected %q, got %q", i, detector.StrongOrder[i], v.ID())
		}
	}
}

func TestBuildWeakSet_NameBeforeAddress(t *testing.T) {
	set := BuildWeakSet(lexicon.New(), nome.DefaultConfig(), nil)
	if len(set) != 2 {
		t.Fatalf("expected 2 weak scorers, got %d", len(set))
	}
	if set[0].ID() != detector.Nome || set[1].ID() != detector.Endereco {
		t.Errorf("expected [nome endereco], got [%s %s]", set[0].ID(), set[1].ID())
	}
}

func TestSummarize(t *testing.T) {
	flagged := func(ids ...string) map[string]int {
		flags := detector.NewFlags()
		for _, id := range ids {
			flags[id] = 1
		}
		return flags
	}
	verdicts := []detector.Verdict{
		{IsPersonal: true, Flags: flagged(detector.Email), Source: detector.SourceStrong},
		{IsPersonal: true, Flags: flagged(detector.Nome, detector.Endereco), Source: detector.SourceWeak},
		{Flags: flagged(), Source: detector.SourceNone, RemoteFailure: "oracle unreachable"},
		{Flags: flagged(), Source: detector.SourceNone, Suppressed: []detector.SuppressedMatch{{Rule: "r1"}}},
	}

	s := Summarize(verdicts)

	if s.Total != 4 {
		t.Errorf("expected total 4, got %d", s.Total)
	}
	if s.Personal != 2 {
		t.Errorf("expected 2 personal, got %d", s.Personal)
	}
	if s.Suppressed != 1 {
		t.Errorf("expected 1 suppressed, got %d", s.Suppressed)
	}
	if s.RemoteFailures != 1 {
		t.Errorf("expected 1 remote failure, got %d", s.RemoteFailures)
	}
	if s.ByDetector[detector.Email] != 1 || s.ByDetector[detector.Nome] != 1 || s.ByDetector[detector.Endereco] != 1 {
		t.Errorf("unexpected per-detector counts: %v", s.ByDetector)
	}
	if s.BySource[detector.SourceStrong] != 1 || s.BySource[detector.SourceWeak] != 1 || s.BySource[detector.SourceNone] != 2 {
		t.Errorf("unexpected per-source counts: %v", s.BySource)
	}
}
