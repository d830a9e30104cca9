package api

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"credit-risk-engine/internal/domain"
	"credit-risk-engine/internal/engine"
)

// ScoreRecordJSON is the wire form of a score record.
type ScoreRecordJSON struct {
	ID                string    `json:"id"`
	BorrowerID        string    `json:"borrowerId"`
	OnChainScore      int       `json:"onChainScore"`
	OffChainScore     int       `json:"offChainScore"`
	AssetScore        int       `json:"assetScore"`
	ReputationScore   int       `json:"reputationScore"`
	TotalScore        int       `json:"totalScore"`
	Tier              string    `json:"tier"`
	PreviousScore     *int      `json:"previousScore"`
	ModelVersion      string    `json:"modelVersion"`
	KYCVerified       bool      `json:"kycVerified"`
	AMLVerified       bool      `json:"amlVerified"`
	VerificationLevel string    `json:"verificationLevel,omitempty"`
	Source            string    `json:"source"`
	TokenizedScoreRef *string   `json:"tokenizedScoreRef"`
	SourceDataHash    string    `json:"sourceDataHash"`
	IssuedAt          time.Time `json:"issuedAt"`
	ValidUntil        time.Time `json:"validUntil"`
}

// PartnerJSON is the wire form of a partner access record.
type PartnerJSON struct {
	PartnerID       string     `json:"partnerId"`
	PartnerName     string     `json:"partnerName"`
	Authorized      bool       `json:"authorized"`
	AccessCount     int        `json:"accessCount"`
	LastAccessedAt  *time.Time `json:"lastAccessedAt"`
	PermissionLevel string     `json:"permissionLevel"`
}

// ReadResponse is the body of a successful read.
type ReadResponse struct {
	CreditScore ScoreRecordJSON `json:"creditScore"`
	Partners    []PartnerJSON   `json:"partners"`
}

// SubmitResponse is the body of a successful submission.
type SubmitResponse struct {
	CreditScore ScoreRecordJSON `json:"creditScore"`
}

// HistoryResponse is the body of a history request, newest first.
type HistoryResponse struct {
	History []ScoreRecordJSON `json:"history"`
}

// SubmitRequest is an externally computed score. Score fields are decoded
// as json.Number so non-numeric values are rejected with a precise message.
type SubmitRequest struct {
	OnChainScore      json.Number `json:"onChainScore"`
	OffChainScore     json.Number `json:"offChainScore"`
	AssetScore        json.Number `json:"assetScore"`
	ReputationScore   json.Number `json:"reputationScore"`
	TotalScore        json.Number `json:"totalScore"`
	Tier              string      `json:"tier"`
	ModelVersion      string      `json:"modelVersion"`
	TokenizedScoreRef *string     `json:"tokenizedScoreRef"`
	SourceDataHash    string      `json:"sourceDataHash"`
	ValidUntil        *time.Time  `json:"validUntil"`
	KYCVerified       bool        `json:"kycVerified"`
	AMLVerified       bool        `json:"amlVerified"`
	VerificationLevel string      `json:"verificationLevel"`
}

// Submission converts the request, checking that every score is an integer.
func (r *SubmitRequest) Submission() (engine.Submission, error) {
	var (
		sub  engine.Submission
		errs []string
	)
	fields := []struct {
		name string
		raw  json.Number
		dst  *int
	}{
		{"onChainScore", r.OnChainScore, &sub.OnChain},
		{"offChainScore", r.OffChainScore, &sub.OffChain},
		{"assetScore", r.AssetScore, &sub.Assets},
		{"reputationScore", r.ReputationScore, &sub.Reputation},
		{"totalScore", r.TotalScore, &sub.Total},
	}
	for _, f := range fields {
		if f.raw == "" {
			errs = append(errs, f.name+" is required")
			continue
		}
		v, err := f.raw.Int64()
		if err != nil {
			errs = append(errs, f.name+" must be an integer")
			continue
		}
		*f.dst = int(v)
	}
	if len(errs) > 0 {
		return engine.Submission{}, fmt.Errorf("%w: %s", engine.ErrInvalidSubmission, strings.Join(errs, "; "))
	}

	sub.Tier = domain.Tier(strings.TrimSpace(r.Tier))
	sub.ModelVersion = strings.TrimSpace(r.ModelVersion)
	sub.TokenizedScoreRef = r.TokenizedScoreRef
	sub.SourceDataHash = strings.TrimSpace(r.SourceDataHash)
	sub.ValidUntil = r.ValidUntil
	sub.KYCVerified = r.KYCVerified
	sub.AMLVerified = r.AMLVerified
	sub.VerificationLevel = domain.VerificationLevel(strings.ToLower(strings.TrimSpace(r.VerificationLevel)))
	return sub, nil
}

func toScoreJSON(r *domain.ScoreRecord) ScoreRecordJSON {
	return ScoreRecordJSON{
		ID:                r.ID,
		BorrowerID:        r.BorrowerID,
		OnChainScore:      r.OnChain,
		OffChainScore:     r.OffChain,
		AssetScore:        r.Assets,
		ReputationScore:   r.Reputation,
		TotalScore:        r.Total,
		Tier:              r.Tier.String(),
		PreviousScore:     r.PreviousTotal,
		ModelVersion:      r.ModelVersion,
		KYCVerified:       r.Verification.KYCVerified,
		AMLVerified:       r.Verification.AMLVerified,
		VerificationLevel: string(r.Verification.VerificationLevel),
		Source:            r.Source.String(),
		TokenizedScoreRef: r.TokenizedScoreRef,
		SourceDataHash:    r.SourceDataHash,
		IssuedAt:          r.IssuedAt,
		ValidUntil:        r.ValidUntil,
	}
}

func toPartnersJSON(partners []*domain.PartnerAccessRecord) []PartnerJSON {
	out := make([]PartnerJSON, 0, len(partners))
	for _, p := range partners {
		out = append(out, PartnerJSON{
			PartnerID:       p.PartnerID,
			PartnerName:     p.PartnerName,
			Authorized:      p.Authorized,
			AccessCount:     p.AccessCount,
			LastAccessedAt:  p.LastAccessedAt,
			PermissionLevel: string(p.Permission),
		})
	}
	return out
}
