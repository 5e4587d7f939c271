// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"crivo/internal/detector"
	"crivo/internal/lexicon"
	"crivo/internal/validators/email"
	"crivo/internal/validators/endereco"
	"crivo/internal/validators/identificador"
	"crivo/internal/validators/nome"
	"crivo/internal/validators/rg"
	"crivo/internal/validators/telefone"
)

// BuildStrongSet constructs the strong validators in cascade order. The
// slice order is the evaluation order, and the first unsuppressed match
// settles the observation, so this order decides the priority detector
// on texts where two categories both match.
func BuildStrongSet() []detector.Validator {
	return []detector.Validator{
		identificador.NewValidator(),
		email.NewValidator(),
		telefone.NewValidator(),
		endereco.NewValidator(),
		rg.NewValidator(),
	}
}

// BuildWeakSet constructs the weak scorers, name before address. Pass nil
// for resolver to keep name scoring fully local; cfg.RemoteLookup has no
// effect without one.
func BuildWeakSet(lex *lexicon.Lexicon, cfg nome.Config, resolver nome.TokenResolver) []detector.Scorer {
	var nameScorer *nome.Scorer
	if resolver != nil {
		nameScorer = nome.NewScorerWithResolver(lex, cfg, resolver)
	} else {
		nameScorer = nome.NewScorer(lex, cfg)
	}
	return []detector.Scorer{
		nameScorer,
		endereco.NewValidator(),
	}
}
