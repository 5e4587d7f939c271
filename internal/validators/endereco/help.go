// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package endereco

import "crivo/internal/help"

// GetCheckInfo returns help information for the endereco detector.
func (v *Validator) GetCheckInfo() help.CheckInfo {
	return help.CheckInfo{
		Name:             "endereco",
		ShortDescription: "Detecta endereços e CEPs",
		DetailedDescription: `O detector de endereço tem duas camadas. A forma forte casa um CEP no
formato ddddd-ddd ou uma palavra de logradouro (rua, avenida, av., rodovia,
travessa, quadra, lote, bloco, apto, apartamento, conjunto, condominio)
seguida diretamente de um número.

A heurística fraca pontua indícios mais soltos: palavra de logradouro sem
número (0.5) e menção a bairro com nome (0.5). Ela só é consultada quando
nenhum detector forte resolveu a observação, e marca a linha quando a
pontuação atinge 0.5.`,
		Patterns: []string{
			"70040-010",
			"quadra 5 lote 12",
			"rua, 123",
			"bairro jardim primavera",
		},
		Guards: []string{
			"palavra de logradouro seguida de prosa (sem número) não conta como forma forte",
			"a heurística fraca nunca roda quando um detector forte já casou",
		},
		Examples: []string{
			"crivo --input pedidos.csv",
			"crivo --input pedidos.csv --evidence evidencias.jsonl",
		},
	}
}
