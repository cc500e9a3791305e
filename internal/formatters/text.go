package formatters

import (
	"fmt"
	"strings"

	"careermatch/internal/types"
)

// ReportTextFormatter renders recommendations for a terminal.
type ReportTextFormatter struct{}

func (f *ReportTextFormatter) Format(data any) (string, error) {
	report, ok := deref[types.Report](data)
	if !ok {
		return "", fmt.Errorf("expected Report, got %T", data)
	}

	var output strings.Builder
	fmt.Fprintf(&output, "Analyzing profile: %s\n\n", report.Profile.Name)
	if len(report.Recommendations) == 0 {
		output.WriteString("No careers to recommend.\n")
	}
	for i, rec := range report.Recommendations {
		fmt.Fprintf(&output, "%d) %s - compatibility: %s\n", i+1, rec.Career, FormatPercent(rec.Percent))
		fmt.Fprintf(&output, "   Description: %s\n", rec.Description)
		if len(rec.Gaps) > 0 {
			output.WriteString("   Top areas to improve:\n")
			for _, gap := range rec.Gaps {
				fmt.Fprintf(&output, "     - %s: gap %s (required level: %d)\n",
					gap.Label(), FormatPercent(types.Percent(gap.Gap)), gap.Required)
			}
		} else {
			output.WriteString("   No critical areas to improve.\n")
		}
		output.WriteString("\n")
	}

	return output.String(), nil
}

func (f *ReportTextFormatter) SupportedType() string { return TypeReport }

// GapReportTextFormatter renders one career's improvement areas.
type GapReportTextFormatter struct{}

func (f *GapReportTextFormatter) Format(data any) (string, error) {
	gaps, ok := deref[types.GapReport](data)
	if !ok {
		return "", fmt.Errorf("expected GapReport, got %T", data)
	}

	var output strings.Builder
	fmt.Fprintf(&output, "=== %s / %s ===\n", gaps.Profile, gaps.Career)
	fmt.Fprintf(&output, "Compatibility: %s\n\n", FormatPercent(gaps.Percent))
	if len(gaps.Gaps) == 0 {
		output.WriteString("No gaps: every requirement is met.\n")
		return output.String(), nil
	}
	for _, gap := range gaps.Gaps {
		fmt.Fprintf(&output, "- %s: gap %s (required level: %d)\n",
			gap.Label(), FormatPercent(types.Percent(gap.Gap)), gap.Required)
	}
	return output.String(), nil
}

func (f *GapReportTextFormatter) SupportedType() string { return TypeGapReport }

// ProfileTextFormatter renders a stored profile.
type ProfileTextFormatter struct{}

func (f *ProfileTextFormatter) Format(data any) (string, error) {
	profile, ok := deref[types.Profile](data)
	if !ok {
		return "", fmt.Errorf("expected Profile, got %T", data)
	}

	var output strings.Builder
	fmt.Fprintf(&output, "Profile: %s\n", profile.Name)
	writeSkillsText(&output, "Technical skills", profile.Technical)
	writeSkillsText(&output, "Behavioral skills", profile.Behavioral)
	if profile.Notes != "" {
		fmt.Fprintf(&output, "Notes: %s\n", profile.Notes)
	}
	return output.String(), nil
}

func (f *ProfileTextFormatter) SupportedType() string { return TypeProfile }

func writeSkillsText(output *strings.Builder, title string, skills map[string]int) {
	fmt.Fprintf(output, "%s:\n", title)
	if len(skills) == 0 {
		output.WriteString("  (none)\n")
		return
	}
	for _, skill := range sortedSkills(skills) {
		fmt.Fprintf(output, "  %s: %d\n", skill, skills[skill])
	}
}

// ProfileListTextFormatter lists profile names.
type ProfileListTextFormatter struct{}

func (f *ProfileListTextFormatter) Format(data any) (string, error) {
	profiles, ok := data.([]types.Profile)
	if !ok {
		return "", fmt.Errorf("expected []Profile, got %T", data)
	}
	if len(profiles) == 0 {
		return "No profiles registered.\n", nil
	}

	var output strings.Builder
	output.WriteString("Registered profiles:\n")
	for _, profile := range profiles {
		fmt.Fprintf(&output, " - %s\n", profile.Name)
	}
	return output.String(), nil
}

func (f *ProfileListTextFormatter) SupportedType() string { return TypeProfileList }

// CareerListTextFormatter lists the catalog.
type CareerListTextFormatter struct{}

func (f *CareerListTextFormatter) Format(data any) (string, error) {
	careers, ok := data.([]types.Career)
	if !ok {
		return "", fmt.Errorf("expected []Career, got %T", data)
	}

	var output strings.Builder
	for i, career := range careers {
		fmt.Fprintf(&output, "%d) %s\n", i+1, career.Title)
		fmt.Fprintf(&output, "   %s\n", career.Description)
		writeRequirementsText(&output, "Technical", career.Technical)
		writeRequirementsText(&output, "Behavioral", career.Behavioral)
	}
	return output.String(), nil
}

func (f *CareerListTextFormatter) SupportedType() string { return TypeCareerList }

func writeRequirementsText(output *strings.Builder, title string, reqs types.Requirements) {
	if len(reqs) == 0 {
		return
	}
	parts := make([]string, len(reqs))
	for i, req := range reqs {
		parts[i] = fmt.Sprintf("%s %d", req.Skill, req.Level)
	}
	fmt.Fprintf(output, "   %s: %s\n", title, strings.Join(parts, ", "))
}

// AdviceTextFormatter renders a learning plan.
type AdviceTextFormatter struct{}

func (f *AdviceTextFormatter) Format(data any) (string, error) {
	advice, ok := deref[types.Advice](data)
	if !ok {
		return "", fmt.Errorf("expected Advice, got %T", data)
	}

	var output strings.Builder
	fmt.Fprintf(&output, "=== LEARNING PLAN: %s -> %s ===\n\n", advice.Profile, advice.Career)
	output.WriteString(advice.Summary)
	output.WriteString("\n\n")
	for i, step := range advice.Steps {
		fmt.Fprintf(&output, "%d. %s (%s)\n", i+1, step.Skill, step.Timeframe)
		fmt.Fprintf(&output, "   %s\n", step.Action)
		for _, resource := range step.Resources {
			fmt.Fprintf(&output, "   * %s\n", resource)
		}
	}
	return output.String(), nil
}

func (f *AdviceTextFormatter) SupportedType() string { return TypeAdvice }
