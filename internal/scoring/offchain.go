package scoring

import "credit-risk-engine/internal/domain"

// Neutral off-chain points used when there is nothing to evaluate or the
// underlying dataset could not be fetched.
const (
	defaultOnTimePoints    = 75 // no payments recorded: half of 150
	defaultRepaymentPoints = 50 // nothing ever borrowed
	defaultDefaultPoints   = 25 // no loan history
	noDefaultsPoints       = 50
)

// onTimeLadder scales the on-time ratio to 150 points in steps.
// A ratio of exactly 0 scores the floor.
var onTimeLadder = ladder{
	steps: []step{
		{min: 0.9, points: 150},
		{min: 0.8, points: 120},
		{min: 0.7, points: 90},
		{min: 0.5, points: 60},
		{min: anyPositive, points: 30},
	},
	floor: 0,
}

var repaymentLadder = ladder{
	steps: []step{
		{min: 1.0, points: 100},
		{min: 0.8, points: 75},
		{min: 0.6, points: 50},
		{min: 0.3, points: 25},
	},
	floor: 0,
}

// OffChain scores traditional financial history in [0, domain.MaxOffChain]:
// on-time payments (0-150), repayment ratio (0-100), default rate (0-50).
func OffChain(s domain.BorrowerSignals) int {
	return clamp(onTimePoints(s)+repaymentPoints(s)+defaultRatePoints(s), domain.MaxOffChain)
}

func onTimePoints(s domain.BorrowerSignals) int {
	if s.Unavailable(domain.DatasetPayments) {
		return defaultOnTimePoints
	}
	r, ok := ratio(float64(s.OnTimePayments), float64(s.OnTimePayments+s.LatePayments))
	if !ok {
		return defaultOnTimePoints
	}
	return onTimeLadder.score(r)
}

func repaymentPoints(s domain.BorrowerSignals) int {
	if s.Unavailable(domain.DatasetLoans) {
		return defaultRepaymentPoints
	}
	r, ok := ratio(s.TotalRepaid, s.TotalBorrowed)
	if !ok {
		return defaultRepaymentPoints
	}
	return repaymentLadder.score(r)
}

// defaultRatePoints awards full credit with zero defaults and degrades in
// three steps as the default ratio rises past 10% and 20%.
func defaultRatePoints(s domain.BorrowerSignals) int {
	r, ok := ratio(float64(s.DefaultedLoans), float64(s.TotalLoans))
	switch {
	case !ok, s.Unavailable(domain.DatasetLoans):
		return defaultDefaultPoints
	case s.DefaultedLoans <= 0:
		return noDefaultsPoints
	case r <= 0.10:
		return 30
	case r <= 0.20:
		return 15
	default:
		return 0
	}
}
