// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package email

import (
	"testing"

	"crivo/internal/fragment"
	"crivo/internal/normalize"
)

func frag(text string) fragment.Fragment {
	return fragment.DefaultSplitter().Split(normalize.Normalize(text))[0]
}

func TestEvaluatePlainAddress(t *testing.T) {
	v := NewValidator()

	r := v.Evaluate(frag("Contato: joao.silva@exemplo.com"))
	if !r.Matched {
		t.Fatal("plain address not matched")
	}
	if r.Evidence != "joao.silva@exemplo.com" {
		t.Errorf("evidence = %q", r.Evidence)
	}
	if r.Score != 1.0 {
		t.Errorf("score = %v, want 1.0", r.Score)
	}
}

func TestEvaluateRequiresDottedDomain(t *testing.T) {
	v := NewValidator()
	for _, text := range []string{
		"escreva para usuario@localhost hoje",
		"referência a item@2 do edital",
		"texto sem contato nenhum",
	} {
		if r := v.Evaluate(frag(text)); r.Matched {
			t.Errorf("Evaluate(%q) matched %q", text, r.Evidence)
		}
	}
}

func TestEvaluateObfuscatedForms(t *testing.T) {
	v := NewValidator()
	cases := []struct {
		text string
		want string
	}{
		{"escreva para maria ponto souza arroba exemplo ponto com", "maria.souza@exemplo.com"},
		{"contato joao[at]exemplo[dot]com aqui", "joao@exemplo.com"},
		{"suporte (at) orgao (dot) gov (dot) br", "suporte@orgao.gov.br"},
	}
	for _, c := range cases {
		r := v.Evaluate(frag(c.text))
		if !r.Matched {
			t.Errorf("Evaluate(%q) did not match", c.text)
			continue
		}
		if r.Evidence != c.want {
			t.Errorf("Evaluate(%q) evidence = %q, want %q", c.text, r.Evidence, c.want)
		}
	}
}

func TestDeobfuscateLeavesEmbeddedWordsAlone(t *testing.T) {
	v := NewValidator()
	for _, text := range []string{
		"o combate atencioso continua barato",
		"veja o ponto de atendimento da prefeitura",
	} {
		if r := v.Evaluate(frag(text)); r.Matched {
			t.Errorf("Evaluate(%q) fabricated address %q", text, r.Evidence)
		}
	}
}
