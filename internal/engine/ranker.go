package engine

import (
	"cmp"
	"slices"

	"careermatch/internal/types"
)

// Ranker orders a fixed catalog of careers by compatibility with a profile.
type Ranker struct {
	careers []types.Career
}

// NewRanker creates a ranker over careers. The slice is copied; its order is
// the tie-break for equal scores.
func NewRanker(careers []types.Career) *Ranker {
	return &Ranker{careers: slices.Clone(careers)}
}

// Len returns the number of careers ranked.
func (r *Ranker) Len() int {
	return len(r.careers)
}

// Recommend returns the topN careers by descending compatibility. Careers
// with equal scores keep catalog order. Fewer results are returned when the
// catalog is smaller than topN.
func (r *Ranker) Recommend(profile types.Profile, topN int) []types.CompatibilityResult {
	if topN <= 0 {
		return []types.CompatibilityResult{}
	}

	results := make([]types.CompatibilityResult, len(r.careers))
	for i, career := range r.careers {
		results[i] = types.CompatibilityResult{
			Career: career,
			Score:  Compatibility(profile, career),
		}
	}

	slices.SortStableFunc(results, func(a, b types.CompatibilityResult) int {
		return cmp.Compare(b.Score, a.Score)
	})

	if len(results) > topN {
		results = results[:topN]
	}
	return results
}
