// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package lexicon

import "crivo/internal/normalize"

// GenderConfirmedWeight is assigned to tokens a remote name lookup
// confirmed as given names. It clears the single-token acceptance
// threshold on its own.
const GenderConfirmedWeight = 1.2

// institutionalWeight penalizes subject-matter and institution terms that
// often travel next to name-like token runs.
const institutionalWeight = -0.6

// seedGivenNames maps common Brazilian given names to their weights.
// Distinctive given names score high enough that two of them clear the
// multi-token threshold.
var seedGivenNames = map[string]float64{
	"adriana":   0.8,
	"alessandra": 0.8,
	"alexandre": 0.8,
	"aline":     0.8,
	"amanda":    0.8,
	"ana":       0.7,
	"andre":     0.8,
	"andreia":   0.8,
	"antonio":   0.8,
	"beatriz":   0.8,
	"bruna":     0.8,
	"bruno":     0.8,
	"camila":    0.8,
	"carla":     0.8,
	"carlos":    0.8,
	"carolina":  0.8,
	"cesar":     0.8,
	"cintia":    0.8,
	"claudia":   0.8,
	"cristiano":  0.8,
	"daniel":    0.8,
	"daniela":   0.8,
	"diego":     0.8,
	"eduardo":   0.8,
	"elaine":    0.8,
	"fabiana":   0.8,
	"fabio":     0.8,
	"felipe":    0.8,
	"fernanda":  0.8,
	"fernando":  0.8,
	"francisco": 0.8,
	"gabriel":   0.8,
	"gabriela":  0.8,
	"gustavo":   0.8,
	"helena":    0.8,
	"henrique":  0.8,
	"isabela":   0.8,
	"joao":      0.8,
	"jorge":     0.8,
	"jose":      0.8,
	"juliana":   0.8,
	"larissa":   0.8,
	"leandro":   0.8,
	"leonardo":  0.8,
	"leticia":   0.8,
	"lucas":     0.8,
	"luciana":   0.8,
	"luiz":      0.8,
	"marcela":   0.8,
	"marcelo":   0.8,
	"marcia":    0.8,
	"marcos":    0.8,
	"maria":     0.7,
	"mariana":   0.8,
	"mateus":    0.8,
	"miguel":    0.8,
	"patricia":  0.8,
	"paulo":     0.8,
	"pedro":     0.8,
	"rafael":    0.8,
	"rafaela":   0.8,
	"renata":    0.8,
	"ricardo":   0.8,
	"roberto":   0.8,
	"rodrigo":   0.8,
	"sandra":    0.8,
	"sergio":    0.8,
	"simone":    0.8,
	"thiago":    0.8,
	"vanessa":   0.8,
	"vinicius":  0.8,
	"vitor":     0.8,
}

// seedFamilyNames maps common surnames to weights below the single-token
// threshold: a surname alone never flags a row, a given name plus a
// surname does.
var seedFamilyNames = map[string]float64{
	"almeida":   0.4,
	"alves":     0.4,
	"araujo":    0.4,
	"barbosa":   0.4,
	"barros":    0.4,
	"batista":   0.4,
	"cardoso":   0.4,
	"carvalho":  0.4,
	"castro":    0.4,
	"correia":   0.4,
	"costa":     0.4,
	"cunha":     0.4,
	"dias":      0.4,
	"duarte":    0.4,
	"fernandes": 0.4,
	"ferreira":  0.4,
	"fonseca":   0.4,
	"freitas":   0.4,
	"gomes":     0.4,
	"goncalves": 0.4,
	"lima":      0.4,
	"lopes":     0.4,
	"machado":   0.4,
	"martins":   0.4,
	"melo":      0.4,
	"mendes":    0.4,
	"miranda":   0.4,
	"monteiro":  0.4,
	"moraes":    0.4,
	"moreira":   0.4,
	"moura":     0.4,
	"nascimento": 0.4,
	"nunes":     0.4,
	"oliveira":  0.4,
	"pereira":   0.4,
	"pinto":     0.4,
	"ramos":     0.4,
	"reis":      0.4,
	"ribeiro":   0.4,
	"rocha":     0.4,
	"rodrigues": 0.4,
	"santana":   0.4,
	"santos":    0.4,
	"silva":     0.5,
	"soares":    0.4,
	"souza":     0.5,
	"teixeira":  0.4,
	"vieira":    0.4,
}

// institutionalTerms collect subject and org vocabulary that must pull
// candidate scores down.
var institutionalTerms = []string{
	"concurso",
	"edital",
	"protocolo",
	"processo",
	"prefeitura",
	"secretaria",
	"governo",
	"departamento",
	"diretoria",
	"coordenacao",
	"ministerio",
	"instituto",
	"universidade",
	"hospital",
	"escola",
	"bairro",
	"rua",
	"avenida",
	"setor",
}

var institutionalSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(institutionalTerms))
	for _, t := range institutionalTerms {
		set[normalize.FoldToken(t)] = struct{}{}
	}
	return set
}()

// IsInstitutionalTerm reports whether token belongs to the institutional
// vocabulary, independent of loaded weights. The name scorer needs this
// even when running with a bare lexicon.
func IsInstitutionalTerm(token string) bool {
	_, ok := institutionalSet[normalize.FoldToken(token)]
	return ok
}
