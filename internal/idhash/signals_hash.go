// Package idhash computes deterministic content hashes.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"credit-risk-engine/internal/domain"
)

// ComputeSignalsHash computes the source_data_hash of a score record.
// Formula: SHA256(borrower_id|<scored signal fields in fixed order>)
// Unknown facts encode as "-". Degraded datasets are not part of the hash
// because they never influence the score.
// Returns hex-encoded hash (64 characters).
func ComputeSignalsHash(borrowerID string, s domain.BorrowerSignals) string {
	fields := []string{
		borrowerID,
		optInt(s.WalletAgeDays),
		optInt(s.TransactionCount),
		optFloat(s.StablecoinRatio),
		strconv.Itoa(s.TotalLoans),
		strconv.Itoa(s.ActiveLoans),
		strconv.Itoa(s.RepaidLoans),
		strconv.Itoa(s.DefaultedLoans),
		formatFloat(s.TotalBorrowed),
		formatFloat(s.TotalRepaid),
		formatFloat(s.AverageLTV),
		strconv.Itoa(s.OnTimePayments),
		strconv.Itoa(s.LatePayments),
		formatFloat(s.TotalAssetValue),
		formatFloat(s.LockedAssetValue),
		strconv.Itoa(s.AssetCount),
		strconv.Itoa(s.AssetDiversity),
		optInt(s.AccountAgeDays),
		strconv.FormatBool(s.KYCVerified),
		strconv.FormatBool(s.AMLVerified),
		string(s.VerificationLevel),
		strconv.Itoa(s.LoanHistoryMonths),
	}

	hash := sha256.Sum256([]byte(strings.Join(fields, "|")))
	return hex.EncodeToString(hash[:])
}

// ComputeComponentsHash hashes externally supplied components when the
// submitting authority did not provide its own source data hash.
// Formula: SHA256(borrower_id|on_chain|off_chain|assets|reputation|total|tier|model_version)
func ComputeComponentsHash(borrowerID string, c domain.ScoreComponents, modelVersion string) string {
	data := fmt.Sprintf("%s|%d|%d|%d|%d|%d|%s|%s",
		borrowerID,
		c.OnChain,
		c.OffChain,
		c.Assets,
		c.Reputation,
		c.Total,
		c.Tier,
		modelVersion,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

func optInt(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

func optFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return formatFloat(*v)
}

// formatFloat uses the shortest representation that round-trips.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
