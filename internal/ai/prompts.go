package ai

import (
	"fmt"
	"strings"

	"careermatch/internal/types"
)

// DefaultSystemPrompt is the advisor's built-in system instruction.
const DefaultSystemPrompt = `You are a career coach who builds short, practical learning plans.

- Base every step on the skill gaps you are given; do not invent new requirements
- Prefer concrete actions and freely available resources
- Keep timeframes realistic for someone studying part time
- Answer in the language of the career title and skill names`

// userPromptTemplate receives the profile name, career title, career
// description, compatibility percentage and the gap listing.
const userPromptTemplate = `Build a learning plan for %s, who wants to work as "%s".

**Career description:**
%s

**Current compatibility:** %.1f%%

**Skill gaps (largest first):**
%s

Return a summary and one step per gap, in the same order. Each step names the skill, the action to take, up to three resources and a timeframe.`

// buildAdvicePrompt renders the user prompt for one advice request.
func buildAdvicePrompt(input types.AdviceInput) string {
	var gaps strings.Builder
	if len(input.Gaps) == 0 {
		gaps.WriteString("- none: every requirement is met; suggest how to go beyond the required levels\n")
	}
	for _, gap := range input.Gaps {
		attained := input.Profile.Level(gap.Category, gap.Skill)
		fmt.Fprintf(&gaps, "- %s: level %d of %d required (gap %.1f%%)\n",
			gap.Label(), attained, gap.Required, types.Percent(gap.Gap))
	}

	return fmt.Sprintf(userPromptTemplate,
		input.Profile.Name,
		input.Career.Title,
		input.Career.Description,
		types.Percent(input.Score),
		strings.TrimRight(gaps.String(), "\n"))
}

// resolvePrompt returns the configured prompt, or the default when unset.
func resolvePrompt(fromConfig, fromDefault string) string {
	if strings.TrimSpace(fromConfig) != "" {
		return fromConfig
	}
	return fromDefault
}
