package engine

// SkillScore returns how much of a required level is attained, capped at 1.
// A requirement of 0 or less is always fully satisfied. There is no lower
// bound: a negative attained level yields a negative score.
func SkillScore(attained, required int) float64 {
	if required <= 0 {
		return 1.0
	}
	return min(1.0, float64(attained)/float64(required))
}
