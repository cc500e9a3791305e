package engine

import (
	"cmp"
	"slices"
	"strings"

	"careermatch/internal/types"
)

// ImprovementAreas lists the skills where profile falls short of career,
// largest gap first, truncated to topN. Equal gaps keep technical entries
// before behavioral ones, then catalog requirement order.
func ImprovementAreas(profile types.Profile, career types.Career, topN int) []types.GapEntry {
	if topN <= 0 {
		return []types.GapEntry{}
	}

	var gaps []types.GapEntry
	for _, category := range types.Categories {
		for _, req := range career.Requirements(category) {
			if req.Level <= 0 {
				continue
			}
			attained := profile.Level(category, req.Skill)
			gap := max(0, 1-float64(attained)/float64(req.Level))
			if gap > 0 {
				gaps = append(gaps, types.GapEntry{
					Skill:    req.Skill,
					Category: category,
					Gap:      gap,
					Required: req.Level,
				})
			}
		}
	}

	slices.SortStableFunc(gaps, func(a, b types.GapEntry) int {
		return cmp.Compare(b.Gap, a.Gap)
	})

	if len(gaps) > topN {
		gaps = gaps[:topN]
	}
	if gaps == nil {
		return []types.GapEntry{}
	}
	return gaps
}

// GapAnalyzer computes improvement areas against a fixed catalog.
type GapAnalyzer struct {
	careers []types.Career
}

// NewGapAnalyzer creates an analyzer over careers. The slice is copied.
func NewGapAnalyzer(careers []types.Career) *GapAnalyzer {
	return &GapAnalyzer{careers: slices.Clone(careers)}
}

// ImprovementAreas returns the gaps of profile for the career titled title,
// matched case-insensitively. ok is false when the title is not in the catalog.
func (g *GapAnalyzer) ImprovementAreas(profile types.Profile, title string, topN int) (gaps []types.GapEntry, ok bool) {
	for _, career := range g.careers {
		if strings.EqualFold(career.Title, strings.TrimSpace(title)) {
			return ImprovementAreas(profile, career, topN), true
		}
	}
	return nil, false
}
