// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package telefone

import "crivo/internal/help"

// GetCheckInfo returns help information for the telefone detector.
func (v *Validator) GetCheckInfo() help.CheckInfo {
	return help.CheckInfo{
		Name:             "telefone",
		ShortDescription: "Detecta números de telefone brasileiros",
		DetailedDescription: `O detector de telefone reconhece números brasileiros em vários formatos:
com código do país (+55), com DDD entre parênteses ou solto, fixos de 8
dígitos e celulares de 9 dígitos, além de números de serviço 0800.

Como sequências numéricas são comuns em texto administrativo (processos,
valores, anos), um número só é aceito quando o fragmento menciona telefone
explicitamente ou quando o próprio número carrega uma âncora: prefixo +55,
DDD entre parênteses ou DDD no início do candidato.`,
		Patterns: []string{
			"(61) 99999-0000",
			"+55 61 99999-0000",
			"61 3333-4444",
			"tel: 61999990000",
			"telefone 0800 123 4567",
		},
		Guards: []string{
			"fragmentos sobre processo/SEI sem menção a telefone são ignorados",
			"números sem âncora e sem marcador não são aceitos",
			"pares de valores como '1500 2500' não casam com a âncora de DDD",
		},
		Examples: []string{
			"crivo --input pedidos.csv",
			"crivo --input pedidos.csv --show-match",
		},
	}
}
