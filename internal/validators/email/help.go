// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package email

import "crivo/internal/help"

// GetCheckInfo returns standardized information about the email check
func (v *Validator) GetCheckInfo() help.CheckInfo {
	return help.CheckInfo{
		Name:             "email",
		ShortDescription: "Detecta endereços de e-mail, inclusive grafias ofuscadas",
		DetailedDescription: `O detector email casa o padrão usual local@dominio, exigindo ao menos um
ponto no domínio e um segmento final só de letras com duas ou mais
posições.

Grafias ofuscadas com arroba/ponto por extenso ou [at]/(dot) entre
colchetes são canonizadas antes de uma segunda tentativa; a evidência
registrada é o endereço já reconstruído.`,
		Patterns: []string{
			"joao.silva@exemplo.com",
			"maria arroba exemplo ponto com",
			"suporte[at]orgao[dot]gov[dot]br",
		},
		Guards: []string{
			"palavras que apenas contêm 'at' ou 'ponto' não são reescritas",
		},
		Examples: []string{
			"crivo --input pedidos.csv",
			"crivo --input pedidos.csv --show-match --format text",
		},
	}
}
