// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package normalize

import (
	"strings"
	"testing"
)

func TestNormalizeCollapsesCaseAndWhitespace(t *testing.T) {
	n := Normalize("  Contato:   João  da Silva \t\n ")

	if n.Text != "contato: joão da silva" {
		t.Errorf("Text = %q, want %q", n.Text, "contato: joão da silva")
	}
	if n.Folded != "contato: joao da silva" {
		t.Errorf("Folded = %q, want %q", n.Folded, "contato: joao da silva")
	}
}

func TestNormalizeTokenization(t *testing.T) {
	n := Normalize("Contato: joao.silva@exemplo.com aqui")

	want := []string{"contato", "joao", "silva", "exemplo", "com", "aqui"}
	if len(n.Words) != len(want) {
		t.Fatalf("Words = %v, want %v", n.Words, want)
	}
	for i, w := range want {
		if n.Words[i] != w {
			t.Errorf("Words[%d] = %q, want %q", i, n.Words[i], w)
		}
	}
	if len(n.Spans) != len(n.Words) {
		t.Fatalf("got %d spans for %d words", len(n.Spans), len(n.Words))
	}
	for i, span := range n.Spans {
		if got := n.Text[span[0]:span[1]]; got != n.Words[i] {
			t.Errorf("span %d resolves to %q, want %q", i, got, n.Words[i])
		}
	}
}

func TestNormalizeIsDeterministic(t *testing.T) {
	raw := "Processo SEI 1234: favor contatar João"
	a := Normalize(raw)
	b := Normalize(raw)

	if a.Text != b.Text || a.Folded != b.Folded {
		t.Errorf("normalization is not deterministic: %q vs %q", a.Text, b.Text)
	}
	if Key(raw) != Key(raw) {
		t.Error("key is not deterministic")
	}
}

func TestEmpty(t *testing.T) {
	for _, raw := range []string{"", "   ", "\t\n", " .,;- "} {
		if n := Normalize(raw); !n.Empty() {
			t.Errorf("Normalize(%q).Empty() = false, want true (words %v)", raw, n.Words)
		}
	}
	if Normalize("a").Empty() {
		t.Error("Normalize(\"a\").Empty() = true, want false")
	}
}

func TestKeyNormalization(t *testing.T) {
	base := Key("Meu nome é João")
	if got := Key("  meu  NOME é joão "); got != base {
		t.Error("case and whitespace variants should share a key")
	}
	if got := Key("meu nome e joao"); got == base {
		t.Error("accent variants must not share a key")
	}
	if len(base) != 64 || strings.ToLower(base) != base {
		t.Errorf("key %q is not a lowercase hex sha256 digest", base)
	}
}

func TestFoldToken(t *testing.T) {
	folds := map[string]string{
		"João":      "joao",
		"MATRÍCULA": "matricula",
		"Ação":      "acao",
		"setor":     "setor",
	}
	for in, want := range folds {
		if got := FoldToken(in); got != want {
			t.Errorf("FoldToken(%q) = %q, want %q", in, got, want)
		}
	}
}
