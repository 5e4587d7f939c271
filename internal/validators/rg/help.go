// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package rg

import "crivo/internal/help"

// GetCheckInfo returns help information for the rg detector.
func (v *Validator) GetCheckInfo() help.CheckInfo {
	return help.CheckInfo{
		Name:             "rg",
		ShortDescription: "Detecta RG e registros profissionais",
		DetailedDescription: `O detector de RG cobre documentos de identidade e registros correlatos.
Como o RG não tem dígito verificador nacional, números soltos nunca são
aceitos: toda forma reconhecida exige um marcador textual.

Formas aceitas: token rg/identidade no fragmento junto de um valor de 5 a
12 dígitos; rótulo rg colado a um número formatado (rg: 12.345.678-9);
registro OAB com UF opcional; serial dd-dddd-dddd próximo de um rótulo de
identidade; rótulo NIS; e rótulo matrícula seguido de código. Matrículas
são descartadas quando o contexto próximo (±40 caracteres) menciona
imóvel ou imobiliária, o que indica registro de imóvel e não de pessoa.`,
		Patterns: []string{
			"rg 123456789",
			"rg: 12.345.678-9",
			"oab/df 12345",
			"registro 21-1205-1999",
			"nis: 12345678",
			"matricula 4321-0",
		},
		Guards: []string{
			"sequências de dígitos sem marcador nunca casam",
			"valores fora da faixa de 5 a 12 dígitos não servem para a regra principal",
			"matrícula com menção próxima a imóvel/imobiliária é ignorada",
		},
		Examples: []string{
			"crivo --input pedidos.csv",
			"crivo --input pedidos.csv --verbose",
		},
	}
}
