package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	apperrors "careermatch/internal/errors"
	"careermatch/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()

	assert.Equal(t, 4, c.Len())
	assert.Equal(t, []string{
		"Desenvolvedor de Software",
		"Cientista de Dados",
		"Engenheiro de Automação / Embutidos",
		"Analista de QA / Testes",
	}, c.Titles())

	dev, err := c.Find("desenvolvedor de software")
	require.NoError(t, err)
	assert.Equal(t, []string{"Python", "Estruturas de Dados", "Banco de Dados", "Controle de Versão (git)"}, dev.Technical.Skills())
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name    string
		careers []types.Career
	}{
		{"empty", nil},
		{"missing title", []types.Career{{Title: " "}}},
		{"duplicate title", []types.Career{{Title: "QA"}, {Title: "qa"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.careers)
			require.Error(t, err)
			assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.TypeOf(err))
		})
	}
}

func TestCatalogIsImmutable(t *testing.T) {
	careers := []types.Career{{Title: "QA", Technical: types.Requirements{{Skill: "Python", Level: 3}}}}
	c, err := New(careers)
	require.NoError(t, err)

	careers[0].Technical[0].Level = 5
	got := c.Careers()
	got[0].Title = "Outra"

	qa, err := c.Find("QA")
	require.NoError(t, err)
	assert.Equal(t, 3, qa.Technical[0].Level)
}

func TestFindNotFound(t *testing.T) {
	_, err := Default().Find("Astronauta")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCareerNotFound))
	assert.Equal(t, apperrors.ErrorTypeNotFound, apperrors.TypeOf(err))
}

func TestSkillUnion(t *testing.T) {
	tech, beh := Default().SkillUnion()

	assert.Len(t, tech, 14)
	assert.Contains(t, tech, "Python")
	assert.IsIncreasing(t, tech)
	assert.Equal(t, []string{
		"Atenção a Detalhes",
		"Comunicação",
		"Curiosidade",
		"Resiliência",
		"Resolução de Problemas",
		"Trabalho em Equipe",
	}, beh)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "careers.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`careers:
  - title: SRE
    requirements_tech:
      Linux: 4
      Go: 3
    requirements_beh:
      Calma: 5
    description: Operação de sistemas.
  - title: Designer
    requirements_beh:
      Criatividade: 5
`), 0o600))

	jsonPath := filepath.Join(dir, "careers.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"careers":[
  {"title":"SRE","requirements_tech":{"Linux":4,"Go":3},"requirements_beh":{"Calma":5},"description":"Operação de sistemas."},
  {"title":"Designer","requirements_beh":{"Criatividade":5}}
]}`), 0o600))

	for _, path := range []string{yamlPath, jsonPath} {
		t.Run(filepath.Ext(path), func(t *testing.T) {
			c, err := LoadFile(path)
			require.NoError(t, err)
			assert.Equal(t, []string{"SRE", "Designer"}, c.Titles())

			sre, err := c.Find("sre")
			require.NoError(t, err)
			assert.Equal(t, types.Requirements{{Skill: "Linux", Level: 4}, {Skill: "Go", Level: 3}}, sre.Technical)
			assert.Equal(t, "Operação de sistemas.", sre.Description)

			designer, err := c.Find("Designer")
			require.NoError(t, err)
			assert.Empty(t, designer.Technical)
		})
	}
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		return path
	}

	tests := []struct {
		name     string
		path     string
		wantType apperrors.ErrorType
	}{
		{"missing file", filepath.Join(dir, "nope.yaml"), apperrors.ErrorTypeIO},
		{"unsupported extension", write("careers.toml", "x = 1"), apperrors.ErrorTypeValidation},
		{"unknown field", write("bad.yaml", "careers:\n  - title: QA\n    salary: 10\n"), apperrors.ErrorTypeValidation},
		{"requirements as list", write("list.yaml", "careers:\n  - title: QA\n    requirements_tech: [Python]\n"), apperrors.ErrorTypeValidation},
		{"empty catalog", write("empty.json", `{"careers":[]}`), apperrors.ErrorTypeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(tt.path)
			require.Error(t, err)
			assert.Equal(t, tt.wantType, apperrors.TypeOf(err))
		})
	}
}

func TestLoadEmptyPathUsesDefault(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Titles(), c.Titles())
}
