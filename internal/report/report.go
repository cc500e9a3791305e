// Package report assembles analysis reports and saves them through a sink.
package report

import (
	"strings"
	"time"

	"careermatch/internal/engine"
	"careermatch/internal/types"

	"github.com/google/uuid"
)

var (
	newID = uuid.NewString
	now   = func() time.Time { return time.Now().UTC() }
)

// Build turns a ranking into a report, attaching up to topGaps improvement
// areas to each recommended career.
func Build(profile types.Profile, ranking []types.CompatibilityResult, topGaps int) types.Report {
	recommendations := make([]types.Recommendation, 0, len(ranking))
	for _, result := range ranking {
		recommendations = append(recommendations, types.Recommendation{
			Career:      result.Career.Title,
			Score:       result.Score,
			Percent:     types.Percent(result.Score),
			Description: result.Career.Description,
			Gaps:        engine.ImprovementAreas(profile, result.Career, topGaps),
		})
	}

	return types.Report{
		ID:              newID(),
		GeneratedAt:     now(),
		Profile:         profile,
		Recommendations: recommendations,
	}
}

// BuildGapReport describes the improvement areas of one profile for one career.
func BuildGapReport(profile types.Profile, career types.Career, topN int) types.GapReport {
	score := engine.Compatibility(profile, career)
	return types.GapReport{
		Profile: profile.Name,
		Career:  career.Title,
		Score:   score,
		Percent: types.Percent(score),
		Gaps:    engine.ImprovementAreas(profile, career, topN),
	}
}

// FileName is the report file name for a profile, e.g. "report_Ana_Souza.json".
func FileName(profileName, ext string) string {
	name := strings.ReplaceAll(strings.TrimSpace(profileName), " ", "_")
	name = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == 0 {
			return '_'
		}
		return r
	}, name)
	return "report_" + name + "." + strings.TrimPrefix(ext, ".")
}
