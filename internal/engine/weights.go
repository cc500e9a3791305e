// Package engine scores profiles against careers. Every function here is pure:
// inputs are never mutated, nothing is cached and no I/O is performed, so all
// of it is safe for concurrent use.
package engine

import (
	"fmt"
	"math"
)

// Category weights of the compatibility score. They must sum to 1.
const (
	TechnicalWeight  = 0.7
	BehavioralWeight = 0.3
)

const weightTolerance = 1e-9

// ValidateWeights checks that a pair of category weights is a convex combination.
func ValidateWeights(technical, behavioral float64) error {
	if technical < 0 || technical > 1 {
		return fmt.Errorf("technical weight %.3f out of range [0,1]", technical)
	}
	if behavioral < 0 || behavioral > 1 {
		return fmt.Errorf("behavioral weight %.3f out of range [0,1]", behavioral)
	}
	if sum := technical + behavioral; math.Abs(sum-1.0) > weightTolerance {
		return fmt.Errorf("weights must sum to 1.0, got %.6f", sum)
	}
	return nil
}
