package domain

// Dataset names a dependent data slice gathered by the signal fetcher.
type Dataset string

const (
	DatasetLoans      Dataset = "loans"
	DatasetPayments   Dataset = "payments"
	DatasetCollateral Dataset = "collateral"
	DatasetProfile    Dataset = "profile"
	DatasetOnChain    Dataset = "onchain"
)

// BorrowerSignals is the ephemeral set of facts the calculators score.
// Built fresh per computation. Pointer fields are nil when the underlying
// fact is unknown; calculators substitute neutral values for them.
type BorrowerSignals struct {
	// On-chain
	WalletAgeDays    *int
	TransactionCount *int
	StablecoinRatio  *float64 // 0..1

	// Loan history
	TotalLoans     int
	ActiveLoans    int
	RepaidLoans    int
	DefaultedLoans int
	TotalBorrowed  float64
	TotalRepaid    float64
	AverageLTV     float64

	// Payment history
	OnTimePayments int
	LatePayments   int

	// Tokenized collateral
	TotalAssetValue  float64
	LockedAssetValue float64
	AssetCount       int
	AssetDiversity   int // distinct asset types

	// Platform tenure and identity
	AccountAgeDays    *int
	KYCVerified       bool
	AMLVerified       bool
	VerificationLevel VerificationLevel
	LoanHistoryMonths int

	// Degraded lists the datasets that could not be fetched. Their fields
	// are left empty and the calculators score them at neutral values.
	Degraded []Dataset
}

// Unavailable reports whether dataset d could not be fetched.
func (s *BorrowerSignals) Unavailable(d Dataset) bool {
	for _, x := range s.Degraded {
		if x == d {
			return true
		}
	}
	return false
}

// Verification returns the identity verification snapshot of the signals.
func (s *BorrowerSignals) Verification() VerificationSnapshot {
	return VerificationSnapshot{
		KYCVerified:       s.KYCVerified,
		AMLVerified:       s.AMLVerified,
		VerificationLevel: s.VerificationLevel,
	}
}
