package scoring

import (
	"math"

	"credit-risk-engine/internal/domain"
)

// Compute runs the four calculators and aggregates them. Each component is
// clamped to its cap before summing, so Total is always the exact sum and
// Tier always follows the global thresholds. Compute cannot fail.
func Compute(s domain.BorrowerSignals) domain.ScoreComponents {
	return Aggregate(OnChain(s), OffChain(s), Assets(s), Reputation(s))
}

// Aggregate clamps four raw sub-scores to their caps and derives Total and Tier.
func Aggregate(onChain, offChain, assets, reputation int) domain.ScoreComponents {
	c := domain.ScoreComponents{
		OnChain:    clamp(onChain, domain.MaxOnChain),
		OffChain:   clamp(offChain, domain.MaxOffChain),
		Assets:     clamp(assets, domain.MaxAssets),
		Reputation: clamp(reputation, domain.MaxReputation),
	}
	c.Total = c.OnChain + c.OffChain + c.Assets + c.Reputation
	c.Tier = domain.TierFor(c.Total)
	return c
}

// AggregateFloat rounds fractional sub-scores to the nearest integer before
// aggregating. Used when an outside authority reports non-integer components.
func AggregateFloat(onChain, offChain, assets, reputation float64) domain.ScoreComponents {
	return Aggregate(roundPoints(onChain), roundPoints(offChain), roundPoints(assets), roundPoints(reputation))
}

func roundPoints(v float64) int {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > domain.MaxTotal {
		return domain.MaxTotal
	}
	return int(math.Round(v))
}
