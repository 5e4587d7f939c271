// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package identificador

import "crivo/internal/help"

// GetCheckInfo returns standardized information about the identifier check
func (v *Validator) GetCheckInfo() help.CheckInfo {
	return help.CheckInfo{
		Name:             "identificador",
		ShortDescription: "Detecta identificadores fiscais (CPF) com validação de dígitos verificadores",
		DetailedDescription: `O detector identificador procura sequências de 11 dígitos, com ou sem
pontuação, e valida os dois dígitos verificadores pelo algoritmo de
módulo 11. Sequências com dígito repetido (111.111.111-11) são sempre
rejeitadas, mesmo quando a aritmética fecha.

Um identificador válido encerra a classificação da linha: nenhum outro
detector é consultado.`,
		Patterns: []string{
			"123.456.789-09",
			"12345678909",
		},
		Guards: []string{
			"dígitos verificadores incorretos",
			"sequências de um único dígito repetido",
			"corridas de 12 ou mais dígitos",
		},
		Examples: []string{
			"crivo --input pedidos.csv",
			"crivo --input pedidos.xlsx --format json",
		},
	}
}
