package catalog

import "careermatch/internal/types"

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := New(defaultCareers())
	if err != nil {
		panic(err)
	}
	return c
}

func defaultCareers() []types.Career {
	return []types.Career{
		{
			Title: "Desenvolvedor de Software",
			Technical: types.Requirements{
				{Skill: "Python", Level: 4},
				{Skill: "Estruturas de Dados", Level: 4},
				{Skill: "Banco de Dados", Level: 3},
				{Skill: "Controle de Versão (git)", Level: 3},
			},
			Behavioral: types.Requirements{
				{Skill: "Trabalho em Equipe", Level: 4},
				{Skill: "Comunicação", Level: 3},
				{Skill: "Resolução de Problemas", Level: 4},
			},
			Description: "Criação de aplicações, APIs e sistemas backend/frontend.",
		},
		{
			Title: "Cientista de Dados",
			Technical: types.Requirements{
				{Skill: "Python", Level: 4},
				{Skill: "Estatística", Level: 4},
				{Skill: "Manipulação de Dados (pandas)", Level: 4},
				{Skill: "Machine Learning", Level: 3},
			},
			Behavioral: types.Requirements{
				{Skill: "Curiosidade", Level: 5},
				{Skill: "Resolução de Problemas", Level: 4},
				{Skill: "Comunicação", Level: 3},
			},
			Description: "Análise de dados, modelagem e insights para tomada de decisão.",
		},
		{
			Title: "Engenheiro de Automação / Embutidos",
			Technical: types.Requirements{
				{Skill: "C", Level: 4},
				{Skill: "Eletrônica", Level: 4},
				{Skill: "Microcontroladores (Arduino/MCU)", Level: 4},
				{Skill: "Projeto de Circuitos", Level: 3},
			},
			Behavioral: types.Requirements{
				{Skill: "Atenção a Detalhes", Level: 4},
				{Skill: "Trabalho em Equipe", Level: 3},
				{Skill: "Resiliência", Level: 3},
			},
			Description: "Desenvolvimento de sistemas embarcados e automação.",
		},
		{
			Title: "Analista de QA / Testes",
			Technical: types.Requirements{
				{Skill: "Testes Automatizados", Level: 4},
				{Skill: "Python", Level: 3},
				{Skill: "CI/CD", Level: 3},
				{Skill: "Documentação Técnica", Level: 3},
			},
			Behavioral: types.Requirements{
				{Skill: "Atenção a Detalhes", Level: 5},
				{Skill: "Comunicação", Level: 4},
			},
			Description: "Garantia de qualidade, automação de testes e revisão de funcionalidades.",
		},
	}
}
