package types

import (
	"fmt"
	"math"
	"time"
)

// Category tags a skill as technical or behavioral.
type Category string

const (
	CategoryTechnical  Category = "technical"
	CategoryBehavioral Category = "behavioral"
)

// Categories in scoring order.
var Categories = []Category{CategoryTechnical, CategoryBehavioral}

// CompatibilityResult pairs a career with its compatibility score in [0,1].
type CompatibilityResult struct {
	Career Career  `json:"career"`
	Score  float64 `json:"score"`
}

// GapEntry is the shortfall for one required skill. Gap is in (0,1].
type GapEntry struct {
	Skill    string   `json:"skill"`
	Category Category `json:"category"`
	Gap      float64  `json:"gap"`
	Required int      `json:"required"`
}

// Label renders the skill tagged with its category.
func (g GapEntry) Label() string {
	return fmt.Sprintf("%s (%s)", g.Skill, g.Category)
}

// Recommendation is one ranked career in a report.
type Recommendation struct {
	Career      string     `json:"career"`
	Score       float64    `json:"score"`
	Percent     float64    `json:"percent"`
	Description string     `json:"description"`
	Gaps        []GapEntry `json:"gaps,omitempty"`
}

// Report is the persisted result of analysing one profile.
type Report struct {
	ID              string           `json:"id"`
	GeneratedAt     time.Time        `json:"generatedAt"`
	Profile         Profile          `json:"profile"`
	Recommendations []Recommendation `json:"recommendations"`
}

// GapReport is the improvement-area listing for one profile and career.
type GapReport struct {
	Profile string     `json:"profile"`
	Career  string     `json:"career"`
	Score   float64    `json:"score"`
	Percent float64    `json:"percent"`
	Gaps    []GapEntry `json:"gaps"`
}

// LearningStep is one action in a learning plan.
type LearningStep struct {
	Skill     string   `json:"skill"`
	Action    string   `json:"action"`
	Resources []string `json:"resources"`
	Timeframe string   `json:"timeframe"`
}

// Advice is a learning plan for closing a profile's gaps for one career.
type Advice struct {
	Profile string         `json:"profile"`
	Career  string         `json:"career"`
	Summary string         `json:"summary"`
	Steps   []LearningStep `json:"steps"`
}

// Percent converts a ratio to a percentage rounded to one decimal place.
func Percent(ratio float64) float64 {
	return math.Round(ratio*1000) / 10
}

// AdviceInput is what the learning-plan advisor is asked about.
type AdviceInput struct {
	Profile Profile    `json:"profile"`
	Career  Career     `json:"career"`
	Score   float64    `json:"score"`
	Gaps    []GapEntry `json:"gaps"`
}
