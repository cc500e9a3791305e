package formatters

import (
	"fmt"
	"strings"

	"careermatch/internal/types"
)

// ReportMarkdownFormatter renders recommendations as markdown.
type ReportMarkdownFormatter struct{}

func (f *ReportMarkdownFormatter) Format(data any) (string, error) {
	report, ok := deref[types.Report](data)
	if !ok {
		return "", fmt.Errorf("expected Report, got %T", data)
	}

	var output strings.Builder
	fmt.Fprintf(&output, "# Career Recommendations for %s\n\n", report.Profile.Name)
	if !report.GeneratedAt.IsZero() {
		fmt.Fprintf(&output, "_Generated %s_\n\n", report.GeneratedAt.Format("2006-01-02 15:04 MST"))
	}
	for i, rec := range report.Recommendations {
		fmt.Fprintf(&output, "## %d. %s (%s)\n\n", i+1, rec.Career, FormatPercent(rec.Percent))
		fmt.Fprintf(&output, "%s\n\n", rec.Description)
		if len(rec.Gaps) == 0 {
			output.WriteString("No critical areas to improve.\n\n")
			continue
		}
		writeGapTable(&output, rec.Gaps)
	}
	return output.String(), nil
}

func (f *ReportMarkdownFormatter) SupportedType() string { return TypeReport }

func writeGapTable(output *strings.Builder, gaps []types.GapEntry) {
	output.WriteString("| Skill | Category | Gap | Required |\n")
	output.WriteString("|---|---|---|---|\n")
	for _, gap := range gaps {
		fmt.Fprintf(output, "| %s | %s | %s | %d |\n",
			gap.Skill, gap.Category, FormatPercent(types.Percent(gap.Gap)), gap.Required)
	}
	output.WriteString("\n")
}

// GapReportMarkdownFormatter renders one career's improvement areas.
type GapReportMarkdownFormatter struct{}

func (f *GapReportMarkdownFormatter) Format(data any) (string, error) {
	gaps, ok := deref[types.GapReport](data)
	if !ok {
		return "", fmt.Errorf("expected GapReport, got %T", data)
	}

	var output strings.Builder
	fmt.Fprintf(&output, "# %s: %s\n\n", gaps.Profile, gaps.Career)
	fmt.Fprintf(&output, "**Compatibility:** %s\n\n", FormatPercent(gaps.Percent))
	if len(gaps.Gaps) == 0 {
		output.WriteString("Every requirement is met.\n")
		return output.String(), nil
	}
	writeGapTable(&output, gaps.Gaps)
	return output.String(), nil
}

func (f *GapReportMarkdownFormatter) SupportedType() string { return TypeGapReport }

// ProfileMarkdownFormatter renders a stored profile.
type ProfileMarkdownFormatter struct{}

func (f *ProfileMarkdownFormatter) Format(data any) (string, error) {
	profile, ok := deref[types.Profile](data)
	if !ok {
		return "", fmt.Errorf("expected Profile, got %T", data)
	}

	var output strings.Builder
	fmt.Fprintf(&output, "# %s\n\n", profile.Name)
	writeSkillsMarkdown(&output, "Technical Skills", profile.Technical)
	writeSkillsMarkdown(&output, "Behavioral Skills", profile.Behavioral)
	if profile.Notes != "" {
		fmt.Fprintf(&output, "## Notes\n\n%s\n", profile.Notes)
	}
	return output.String(), nil
}

func (f *ProfileMarkdownFormatter) SupportedType() string { return TypeProfile }

func writeSkillsMarkdown(output *strings.Builder, title string, skills map[string]int) {
	fmt.Fprintf(output, "## %s\n\n", title)
	if len(skills) == 0 {
		output.WriteString("_None rated._\n\n")
		return
	}
	for _, skill := range sortedSkills(skills) {
		fmt.Fprintf(output, "- **%s:** %d/%d\n", skill, skills[skill], types.MaxSkillLevel)
	}
	output.WriteString("\n")
}

// ProfileListMarkdownFormatter lists profile names.
type ProfileListMarkdownFormatter struct{}

func (f *ProfileListMarkdownFormatter) Format(data any) (string, error) {
	profiles, ok := data.([]types.Profile)
	if !ok {
		return "", fmt.Errorf("expected []Profile, got %T", data)
	}

	var output strings.Builder
	output.WriteString("# Profiles\n\n")
	if len(profiles) == 0 {
		output.WriteString("_No profiles registered._\n")
	}
	for _, profile := range profiles {
		fmt.Fprintf(&output, "- %s\n", profile.Name)
	}
	return output.String(), nil
}

func (f *ProfileListMarkdownFormatter) SupportedType() string { return TypeProfileList }

// CareerListMarkdownFormatter renders the catalog.
type CareerListMarkdownFormatter struct{}

func (f *CareerListMarkdownFormatter) Format(data any) (string, error) {
	careers, ok := data.([]types.Career)
	if !ok {
		return "", fmt.Errorf("expected []Career, got %T", data)
	}

	var output strings.Builder
	output.WriteString("# Careers\n\n")
	for _, career := range careers {
		fmt.Fprintf(&output, "## %s\n\n%s\n\n", career.Title, career.Description)
		output.WriteString("| Skill | Category | Level |\n")
		output.WriteString("|---|---|---|\n")
		for _, category := range types.Categories {
			for _, req := range career.Requirements(category) {
				fmt.Fprintf(&output, "| %s | %s | %d |\n", req.Skill, category, req.Level)
			}
		}
		output.WriteString("\n")
	}
	return output.String(), nil
}

func (f *CareerListMarkdownFormatter) SupportedType() string { return TypeCareerList }

// AdviceMarkdownFormatter renders a learning plan.
type AdviceMarkdownFormatter struct{}

func (f *AdviceMarkdownFormatter) Format(data any) (string, error) {
	advice, ok := deref[types.Advice](data)
	if !ok {
		return "", fmt.Errorf("expected Advice, got %T", data)
	}

	var output strings.Builder
	fmt.Fprintf(&output, "# Learning Plan: %s\n\n", advice.Career)
	fmt.Fprintf(&output, "**Profile:** %s\n\n", advice.Profile)
	fmt.Fprintf(&output, "%s\n\n", advice.Summary)
	for i, step := range advice.Steps {
		fmt.Fprintf(&output, "## %d. %s\n\n", i+1, step.Skill)
		fmt.Fprintf(&output, "%s\n\n", step.Action)
		if step.Timeframe != "" {
			fmt.Fprintf(&output, "**Timeframe:** %s\n\n", step.Timeframe)
		}
		for _, resource := range step.Resources {
			fmt.Fprintf(&output, "- %s\n", resource)
		}
		if len(step.Resources) > 0 {
			output.WriteString("\n")
		}
	}
	return output.String(), nil
}

func (f *AdviceMarkdownFormatter) SupportedType() string { return TypeAdvice }
