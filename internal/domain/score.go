package domain

import "time"

// Sub-score caps. A component never exceeds its cap regardless of input.
const (
	MaxOnChain    = 350
	MaxOffChain   = 300
	MaxAssets     = 200
	MaxReputation = 150
	MaxTotal      = MaxOnChain + MaxOffChain + MaxAssets + MaxReputation
)

// Tier is a discrete risk category derived from the total score.
type Tier string

// Tier constants, best to worst.
const (
	TierAPlus Tier = "A+"
	TierA     Tier = "A"
	TierB     Tier = "B"
	TierC     Tier = "C"
	TierD     Tier = "D"
)

// TierThreshold maps an inclusive lower bound on Total to a tier.
type TierThreshold struct {
	MinTotal int
	Tier     Tier
}

// TierThresholds is the global policy table shared by scoring and by
// downstream pricing and LTV logic. Ordered from the highest bound down.
var TierThresholds = []TierThreshold{
	{MinTotal: 850, Tier: TierAPlus},
	{MinTotal: 750, Tier: TierA},
	{MinTotal: 600, Tier: TierB},
	{MinTotal: 450, Tier: TierC},
}

// TierFor returns the tier for a total score. Totals below the lowest
// threshold map to D.
func TierFor(total int) Tier {
	for _, th := range TierThresholds {
		if total >= th.MinTotal {
			return th.Tier
		}
	}
	return TierD
}

// IsValid checks if the tier is one of the five known tiers.
func (t Tier) IsValid() bool {
	switch t {
	case TierAPlus, TierA, TierB, TierC, TierD:
		return true
	}
	return false
}

// Rank returns an ordinal for comparing tiers: A+ is 5, D is 1, unknown is 0.
func (t Tier) Rank() int {
	switch t {
	case TierAPlus:
		return 5
	case TierA:
		return 4
	case TierB:
		return 3
	case TierC:
		return 2
	case TierD:
		return 1
	}
	return 0
}

// String returns the string representation of Tier.
func (t Tier) String() string {
	return string(t)
}

// ScoreComponents holds the four capped sub-scores, their sum and the tier.
type ScoreComponents struct {
	OnChain    int
	OffChain   int
	Assets     int
	Reputation int
	Total      int
	Tier       Tier
}

// Consistent reports whether every component is within its cap, Total is the
// exact sum and Tier matches Total.
func (c ScoreComponents) Consistent() bool {
	if c.OnChain < 0 || c.OnChain > MaxOnChain {
		return false
	}
	if c.OffChain < 0 || c.OffChain > MaxOffChain {
		return false
	}
	if c.Assets < 0 || c.Assets > MaxAssets {
		return false
	}
	if c.Reputation < 0 || c.Reputation > MaxReputation {
		return false
	}
	if c.Total != c.OnChain+c.OffChain+c.Assets+c.Reputation {
		return false
	}
	return c.Tier == TierFor(c.Total)
}

// NeutralComponents is the bootstrap default: every component at half its
// cap, which lands in tier C.
func NeutralComponents() ScoreComponents {
	c := ScoreComponents{
		OnChain:    MaxOnChain / 2,
		OffChain:   MaxOffChain / 2,
		Assets:     MaxAssets / 2,
		Reputation: MaxReputation / 2,
	}
	c.Total = c.OnChain + c.OffChain + c.Assets + c.Reputation
	c.Tier = TierFor(c.Total)
	return c
}

// VerificationSnapshot captures identity verification at computation time.
type VerificationSnapshot struct {
	KYCVerified       bool
	AMLVerified       bool
	VerificationLevel VerificationLevel
}

// ScoreRecord is one immutable, timestamped evaluation for a borrower.
// Corresponds to the credit_scores table. Never updated; superseded by
// later records for the same borrower.
type ScoreRecord struct {
	ID         string // uuid
	BorrowerID string

	ScoreComponents

	PreviousTotal *int // Total of the prior record, nil if none
	ModelVersion  string
	Verification  VerificationSnapshot
	Source        Source

	TokenizedScoreRef *string // external certificate reference (nullable)
	SourceDataHash    string  // content hash of the data the score was built from

	IssuedAt   time.Time
	ValidUntil time.Time
}

// Expired reports whether the record's validity horizon has passed at now.
func (r *ScoreRecord) Expired(now time.Time) bool {
	return !now.Before(r.ValidUntil)
}
