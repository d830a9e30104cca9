// Package scoring implements the rule-based credit sub-score calculators and
// their aggregation into a total score and tier.
//
// Every calculator is a pure function of domain.BorrowerSignals built from
// monotonic step functions. Bands are closed, ordered and non-overlapping;
// a value sitting exactly on a boundary falls into the higher band.
package scoring

import "math"

// anyPositive is the lower bound of a band that admits every positive value.
const anyPositive = math.SmallestNonzeroFloat64

// step is one band of a step function: values >= min are worth points.
type step struct {
	min    float64
	points int
}

// ladder is a step function with bands ordered from the highest bound down.
// Values below every bound score floor.
type ladder struct {
	steps []step
	floor int
}

func (l ladder) score(v float64) int {
	if math.IsNaN(v) {
		return l.floor
	}
	for _, s := range l.steps {
		if v >= s.min {
			return s.points
		}
	}
	return l.floor
}

// top returns the highest number of points the ladder can award.
func (l ladder) top() int {
	m := l.floor
	for _, s := range l.steps {
		if s.points > m {
			m = s.points
		}
	}
	return m
}

// clamp bounds v to [0, limit].
func clamp(v, limit int) int {
	if v < 0 {
		return 0
	}
	if v > limit {
		return limit
	}
	return v
}

// ratio returns num/den, or ok=false when den is not positive.
func ratio(num, den float64) (r float64, ok bool) {
	if den <= 0 || math.IsNaN(num) || math.IsNaN(den) {
		return 0, false
	}
	return num / den, true
}
