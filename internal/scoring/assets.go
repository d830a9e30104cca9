package scoring

import "credit-risk-engine/internal/domain"

// assetValueLadder has seven bands; values of 1,000,000 and above sit in
// the top band with everything from 500,000.
var assetValueLadder = ladder{
	steps: []step{
		{min: 500_000, points: 80},
		{min: 250_000, points: 65},
		{min: 100_000, points: 50},
		{min: 50_000, points: 35},
		{min: 10_000, points: 20},
		{min: anyPositive, points: 10},
	},
	floor: 0,
}

var assetDiversityLadder = ladder{
	steps: []step{
		{min: 4, points: 60},
		{min: 3, points: 45},
		{min: 2, points: 30},
		{min: 1, points: 15},
	},
	floor: 0,
}

var assetCountLadder = ladder{
	steps: []step{
		{min: 5, points: 40},
		{min: 3, points: 30},
		{min: 2, points: 20},
		{min: 1, points: 10},
	},
	floor: 0,
}

// unlockedLadder awards up to 20 points in proportion to the share of
// collateral value not currently pledged.
var unlockedLadder = ladder{
	steps: []step{
		{min: 0.8, points: 20},
		{min: 0.6, points: 15},
		{min: 0.4, points: 10},
		{min: 0.2, points: 5},
	},
	floor: 0,
}

// defaultAssetsPoints is half of every asset bucket, 40+30+20+10, scored
// when collateral could not be fetched.
const defaultAssetsPoints = 100

// Assets scores tokenized collateral quality in [0, domain.MaxAssets]:
// total value (0-80), type diversity (0-60), count (0-40), unlocked share (0-20).
func Assets(s domain.BorrowerSignals) int {
	if s.Unavailable(domain.DatasetCollateral) {
		return defaultAssetsPoints
	}

	value := assetValueLadder.score(s.TotalAssetValue)
	diversity := assetDiversityLadder.score(float64(s.AssetDiversity))
	count := assetCountLadder.score(float64(s.AssetCount))

	unlocked := 0
	if locked, ok := ratio(s.LockedAssetValue, s.TotalAssetValue); ok {
		if locked > 1 {
			locked = 1
		}
		if locked < 0 {
			locked = 0
		}
		unlocked = unlockedLadder.score(1 - locked)
	}

	return clamp(value+diversity+count+unlocked, domain.MaxAssets)
}
