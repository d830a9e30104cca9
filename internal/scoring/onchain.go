package scoring

import "credit-risk-engine/internal/domain"

// Neutral on-chain points used when a fact is unknown.
const (
	defaultWalletAgePoints  = 50
	defaultTxVolumePoints   = 30
	defaultStablecoinPoints = 75
)

var walletAgeLadder = ladder{
	steps: []step{
		{min: 730, points: 100},
		{min: 365, points: 75},
		{min: 180, points: 50},
		{min: 30, points: 30},
	},
	floor: 10,
}

var txVolumeLadder = ladder{
	steps: []step{
		{min: 1000, points: 100},
		{min: 500, points: 75},
		{min: 100, points: 50},
		{min: 10, points: 30},
	},
	floor: 10,
}

var stablecoinLadder = ladder{
	steps: []step{
		{min: 0.7, points: 150},
		{min: 0.5, points: 110},
		{min: 0.3, points: 75},
		{min: 0.1, points: 45},
	},
	floor: 15,
}

// OnChain scores blockchain behavior in [0, domain.MaxOnChain]:
// wallet age (0-100), transaction volume (0-100), stablecoin ratio (0-150).
func OnChain(s domain.BorrowerSignals) int {
	age := defaultWalletAgePoints
	if s.WalletAgeDays != nil {
		age = walletAgeLadder.score(float64(*s.WalletAgeDays))
	}

	volume := defaultTxVolumePoints
	if s.TransactionCount != nil {
		volume = txVolumeLadder.score(float64(*s.TransactionCount))
	}

	stable := defaultStablecoinPoints
	if s.StablecoinRatio != nil {
		stable = stablecoinLadder.score(*s.StablecoinRatio)
	}

	return clamp(age+volume+stable, domain.MaxOnChain)
}
