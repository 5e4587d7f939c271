// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package nome

import "crivo/internal/help"

// GetCheckInfo returns help information for the nome detector.
func GetCheckInfo() help.CheckInfo {
	return help.CheckInfo{
		Name:             "nome",
		ShortDescription: "Pontua sequências que parecem nomes de pessoa",
		DetailedDescription: `O detector de nome não depende de capitalização: ele extrai candidatos
por três padrões (rótulo "nome:", apresentações como "me chamo" ou
assinaturas, e sequências de dois ou mais tokens com cara de nome) e soma
os pesos dos tokens contra um léxico embutido. Nomes próprios comuns têm
peso positivo; vocabulário institucional (edital, protocolo, prefeitura)
tem peso negativo e derruba a pontuação de frases administrativas.

Uma apresentação explícita decide sozinha. Nos demais casos valem os
limiares: dois tokens positivos com soma ≥ 0.6, ou um token forte com
soma ≥ 1.1 em candidatos de até 4 tokens. Com consulta remota habilitada
(name_token_remote_lookup), tokens desconhecidos confirmados como nomes
entram no léxico com peso 1.2.`,
		Patterns: []string{
			"nome: joao da silva",
			"me chamo rogerio",
			"atenciosamente, maria souza",
			"encaminhado por joao silva",
		},
		Guards: []string{
			"referências a leis (\"lei maria da penha\") são descartadas",
			"frases sobre edital, concurso ou protocolo pontuam negativo",
			"a pontuação fraca só decide quando nenhum detector forte casou",
		},
		Examples: []string{
			"crivo --input pedidos.csv",
			"crivo --input pedidos.csv --lexicon pesos.csv",
		},
	}
}
