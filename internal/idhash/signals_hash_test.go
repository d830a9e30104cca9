package idhash

import (
	"testing"

	"credit-risk-engine/internal/domain"
)

func intPtr(v int) *int { return &v }

func TestComputeSignalsHash(t *testing.T) {
	tests := []struct {
		name       string
		borrowerID string
		signals    domain.BorrowerSignals
		wantLen    int // hash length should be 64
	}{
		{
			name:       "empty signals",
			borrowerID: "borrower-1",
			signals:    domain.BorrowerSignals{},
			wantLen:    64,
		},
		{
			name:       "populated signals",
			borrowerID: "borrower-2",
			signals: domain.BorrowerSignals{
				WalletAgeDays:     intPtr(400),
				TotalLoans:        3,
				TotalBorrowed:     15000.5,
				KYCVerified:       true,
				VerificationLevel: domain.VerificationStandard,
			},
			wantLen: 64,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeSignalsHash(tt.borrowerID, tt.signals)

			if len(got) != tt.wantLen {
				t.Errorf("ComputeSignalsHash() length = %d, want %d", len(got), tt.wantLen)
			}

			// Verify determinism: same inputs should produce same output
			got2 := ComputeSignalsHash(tt.borrowerID, tt.signals)
			if got != got2 {
				t.Errorf("ComputeSignalsHash() not deterministic: %s != %s", got, got2)
			}
		})
	}
}

func TestComputeSignalsHash_DistinguishesUnknownFromZero(t *testing.T) {
	unknown := ComputeSignalsHash("b", domain.BorrowerSignals{})
	zero := ComputeSignalsHash("b", domain.BorrowerSignals{WalletAgeDays: intPtr(0)})

	if unknown == zero {
		t.Error("unknown wallet age and zero wallet age should hash differently")
	}
}

func TestComputeSignalsHash_IgnoresDegraded(t *testing.T) {
	clean := ComputeSignalsHash("b", domain.BorrowerSignals{TotalLoans: 2})
	degraded := ComputeSignalsHash("b", domain.BorrowerSignals{
		TotalLoans: 2,
		Degraded:   []domain.Dataset{domain.DatasetOnChain},
	})

	if clean != degraded {
		t.Error("degraded datasets should not change the hash")
	}
}

func TestComputeSignalsHash_DifferentBorrowers(t *testing.T) {
	s := domain.BorrowerSignals{TotalLoans: 1}
	if ComputeSignalsHash("a", s) == ComputeSignalsHash("b", s) {
		t.Error("different borrowers should produce different hashes")
	}
}

func TestComputeComponentsHash(t *testing.T) {
	c := domain.NeutralComponents()

	got := ComputeComponentsHash("borrower-1", c, "external")
	if len(got) != 64 {
		t.Errorf("ComputeComponentsHash() length = %d, want 64", len(got))
	}
	if got == ComputeComponentsHash("borrower-1", c, "rules-v1") {
		t.Error("model version should be part of the hash")
	}
}
