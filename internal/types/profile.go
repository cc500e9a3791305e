package types

import (
	"fmt"
	"strings"

	"careermatch/internal/errors"
)

// Skill levels accepted from users. 0 means not rated.
const (
	MinSkillLevel = 0
	MaxSkillLevel = 5
)

// Profile is a person's self-rated skills. Skills missing from the maps are
// treated as level 0.
type Profile struct {
	Name       string         `json:"name" yaml:"name"`
	Technical  map[string]int `json:"technical_skills" yaml:"technical_skills"`
	Behavioral map[string]int `json:"behavioral_skills" yaml:"behavioral_skills"`
	Notes      string         `json:"notes" yaml:"notes"`
}

// TechnicalLevel returns the attained level for a technical skill.
func (p Profile) TechnicalLevel(skill string) int {
	return p.Technical[skill]
}

// BehavioralLevel returns the attained level for a behavioral skill.
func (p Profile) BehavioralLevel(skill string) int {
	return p.Behavioral[skill]
}

// Level returns the attained level for skill in the given category.
func (p Profile) Level(category Category, skill string) int {
	if category == CategoryBehavioral {
		return p.BehavioralLevel(skill)
	}
	return p.TechnicalLevel(skill)
}

// Key is the case-insensitive lookup key for the profile name.
func (p Profile) Key() string {
	return NameKey(p.Name)
}

// NameKey normalizes a profile name for lookups.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Validate checks the profile before it is stored. Scoring never calls it.
func (p Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.NewValidationError(errors.ErrCodeInvalidProfile, "profile name is required", nil)
	}
	if err := validateLevels(p.Technical, CategoryTechnical); err != nil {
		return err.WithContext("profile", p.Name)
	}
	if err := validateLevels(p.Behavioral, CategoryBehavioral); err != nil {
		return err.WithContext("profile", p.Name)
	}
	return nil
}

func validateLevels(skills map[string]int, category Category) *errors.AppError {
	for skill, level := range skills {
		if strings.TrimSpace(skill) == "" {
			return errors.NewValidationError(errors.ErrCodeInvalidProfile,
				fmt.Sprintf("empty %s skill name", category), nil)
		}
		if level < MinSkillLevel || level > MaxSkillLevel {
			return errors.NewValidationError(errors.ErrCodeInvalidProfile,
				fmt.Sprintf("%s skill %q has level %d, expected %d-%d", category, skill, level, MinSkillLevel, MaxSkillLevel), nil)
		}
	}
	return nil
}
