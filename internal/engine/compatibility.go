package engine

import "careermatch/internal/types"

// Compatibility returns the weighted compatibility of profile with career.
// Each category contributes the mean SkillScore of its requirements; a
// category without requirements counts as fully met.
func Compatibility(profile types.Profile, career types.Career) float64 {
	technical := categoryAverage(profile.TechnicalLevel, career.Technical)
	behavioral := categoryAverage(profile.BehavioralLevel, career.Behavioral)
	return TechnicalWeight*technical + BehavioralWeight*behavioral
}

func categoryAverage(attained func(skill string) int, requirements types.Requirements) float64 {
	if len(requirements) == 0 {
		return 1.0
	}

	var sum float64
	for _, req := range requirements {
		sum += SkillScore(attained(req.Skill), req.Level)
	}
	return sum / float64(len(requirements))
}
