package types

import (
	"encoding/json"
	"testing"

	"careermatch/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestRequirementsJSONKeepsOrder(t *testing.T) {
	input := `{"Python":4,"Estruturas de Dados":4,"Banco de Dados":3,"Controle de Versão (git)":3}`

	var reqs Requirements
	require.NoError(t, json.Unmarshal([]byte(input), &reqs))
	assert.Equal(t, []string{"Python", "Estruturas de Dados", "Banco de Dados", "Controle de Versão (git)"}, reqs.Skills())

	out, err := json.Marshal(reqs)
	require.NoError(t, err)
	assert.JSONEq(t, input, string(out))
	assert.Equal(t, input, string(out))
}

func TestRequirementsJSONRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"array", `[1,2]`},
		{"duplicate", `{"C":4,"C":3}`},
		{"non-integer", `{"C":"high"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var reqs Requirements
			assert.Error(t, json.Unmarshal([]byte(tt.input), &reqs))
		})
	}
}

func TestRequirementsYAMLKeepsOrder(t *testing.T) {
	input := "Testes Automatizados: 4\nPython: 3\nCI/CD: 3\n"

	var reqs Requirements
	require.NoError(t, yaml.Unmarshal([]byte(input), &reqs))
	assert.Equal(t, Requirements{
		{Skill: "Testes Automatizados", Level: 4},
		{Skill: "Python", Level: 3},
		{Skill: "CI/CD", Level: 3},
	}, reqs)

	out, err := yaml.Marshal(reqs)
	require.NoError(t, err)
	assert.Equal(t, input, string(out))
}

func TestRequirementsLevel(t *testing.T) {
	reqs := Requirements{{Skill: "C", Level: 4}}

	level, ok := reqs.Level("C")
	assert.True(t, ok)
	assert.Equal(t, 4, level)

	_, ok = reqs.Level("Go")
	assert.False(t, ok)
}

func TestProfileValidate(t *testing.T) {
	tests := []struct {
		name    string
		profile Profile
		wantErr bool
	}{
		{"valid", Profile{Name: "Ana", Technical: map[string]int{"Python": 5}, Behavioral: map[string]int{"Comunicação": 0}}, false},
		{"no skills", Profile{Name: "Ana"}, false},
		{"blank name", Profile{Name: "  "}, true},
		{"level too high", Profile{Name: "Ana", Technical: map[string]int{"Python": 6}}, true},
		{"negative level", Profile{Name: "Ana", Behavioral: map[string]int{"Curiosidade": -1}}, true},
		{"empty skill name", Profile{Name: "Ana", Technical: map[string]int{"": 3}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.profile.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, errors.ErrorTypeValidation, errors.TypeOf(err))
		})
	}
}

func TestProfileLevelDefaultsToZero(t *testing.T) {
	p := Profile{Name: "Ana", Technical: map[string]int{"Python": 4}}

	assert.Equal(t, 4, p.Level(CategoryTechnical, "Python"))
	assert.Equal(t, 0, p.Level(CategoryTechnical, "C"))
	assert.Equal(t, 0, p.Level(CategoryBehavioral, "Comunicação"))
	assert.Equal(t, "ana", Profile{Name: " ANA "}.Key())
}

func TestPercent(t *testing.T) {
	tests := []struct {
		ratio float64
		want  float64
	}{
		{0.825, 82.5},
		{1, 100},
		{0, 0},
		{0.66666, 66.7},
		{0.12345, 12.3},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, Percent(tt.ratio), 1e-9)
	}
}

func TestGapEntryLabel(t *testing.T) {
	g := GapEntry{Skill: "Comunicação", Category: CategoryBehavioral, Gap: 1, Required: 4}
	assert.Equal(t, "Comunicação (behavioral)", g.Label())
}
