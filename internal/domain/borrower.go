package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanStatus is the lifecycle state of a loan.
type LoanStatus string

const (
	LoanStatusPending   LoanStatus = "pending"
	LoanStatusActive    LoanStatus = "active"
	LoanStatusRepaid    LoanStatus = "repaid"
	LoanStatusDefaulted LoanStatus = "defaulted"
)

// VerificationLevel is the depth of identity verification a borrower passed.
type VerificationLevel string

const (
	VerificationNone     VerificationLevel = ""
	VerificationBasic    VerificationLevel = "basic"
	VerificationStandard VerificationLevel = "standard"
	VerificationEnhanced VerificationLevel = "enhanced"
)

// IsValid checks if the level is empty or one of the known levels.
func (v VerificationLevel) IsValid() bool {
	switch v {
	case VerificationNone, VerificationBasic, VerificationStandard, VerificationEnhanced:
		return true
	}
	return false
}

// Loan is a loan held by a borrower. Corresponds to the loans table.
type Loan struct {
	ID              string
	BorrowerID      string
	Status          LoanStatus
	Principal       decimal.Decimal
	AmountRepaid    decimal.Decimal
	CollateralValue decimal.Decimal // zero when unsecured
	StartDate       time.Time
	EndDate         *time.Time // maturity or completion date (nullable)
	NextPaymentDate *time.Time // next scheduled installment for active loans (nullable)
}

// Payment is a single installment paid against a loan.
// Corresponds to the loan_payments table.
type Payment struct {
	ID         string
	LoanID     string
	BorrowerID string
	Amount     decimal.Decimal
	DueAt      *time.Time // scheduled due date when the schedule records one
	PaidAt     time.Time
}

// CollateralAsset is a tokenized asset owned by a borrower.
// Corresponds to the collateral_assets table.
type CollateralAsset struct {
	ID        string
	OwnerID   string
	AssetType string // real_estate | invoice | commodity | equity | bond | ...
	Value     decimal.Decimal
	Locked    bool // currently pledged as loan collateral
}

// BorrowerProfile is the platform account and identity record of a borrower.
// Corresponds to the borrower_profiles table.
type BorrowerProfile struct {
	ID                string
	WalletAddress     string // empty when no wallet is linked
	CreatedAt         time.Time
	KYCVerified       bool
	AMLVerified       bool
	VerificationLevel VerificationLevel
}

// WalletActivity summarizes on-chain activity of a wallet.
type WalletActivity struct {
	Address          string
	FirstSeen        *time.Time // oldest observed transaction (nullable)
	TransactionCount int
	StablecoinValue  float64 // USD value of stablecoin balances
	NativeValue      float64 // USD value of native balance
}
