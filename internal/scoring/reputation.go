package scoring

import "credit-risk-engine/internal/domain"

// Neutral reputation points used when a fact is unknown.
const (
	defaultAccountAgePoints   = 25
	defaultVerificationPoints = 25
	defaultHistoryDepthPoints = 25
)

var accountAgeLadder = ladder{
	steps: []step{
		{min: 730, points: 50},
		{min: 365, points: 40},
		{min: 180, points: 30},
		{min: 90, points: 20},
		{min: 30, points: 10},
	},
	floor: 0,
}

var historyDepthLadder = ladder{
	steps: []step{
		{min: 24, points: 50},
		{min: 12, points: 40},
		{min: 6, points: 30},
		{min: 3, points: 20},
	},
	floor: 10,
}

// Reputation scores platform tenure and identity in [0, domain.MaxReputation]:
// account age (0-50), KYC/AML verification (0-50), loan history depth (0-50).
func Reputation(s domain.BorrowerSignals) int {
	age := defaultAccountAgePoints
	if s.AccountAgeDays != nil {
		age = accountAgeLadder.score(float64(*s.AccountAgeDays))
	}

	depth := defaultHistoryDepthPoints
	if !s.Unavailable(domain.DatasetLoans) {
		depth = historyDepthLadder.score(float64(s.LoanHistoryMonths))
	}

	return clamp(age+verificationPoints(s)+depth, domain.MaxReputation)
}

func verificationPoints(s domain.BorrowerSignals) int {
	switch {
	case s.Unavailable(domain.DatasetProfile):
		return defaultVerificationPoints
	case s.KYCVerified && s.AMLVerified && s.VerificationLevel == domain.VerificationEnhanced:
		return 50
	case s.KYCVerified && s.AMLVerified && s.VerificationLevel == domain.VerificationStandard:
		return 40
	case s.KYCVerified && s.AMLVerified:
		return 30
	case s.KYCVerified:
		return 20
	default:
		return 10
	}
}
