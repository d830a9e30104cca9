package solana_test

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"testing"

	"github.com/mr-tron/base58"

	"credit-risk-engine/internal/solana"
	"credit-risk-engine/internal/solana/stub"
)

func newWallet(t *testing.T) string {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return base58.Encode(pub)
}

// signatures builds n signatures newest first, one hour apart, ending at oldest.
func signatures(n int, oldest int64) []solana.SignatureInfo {
	sigs := make([]solana.SignatureInfo, n)
	for i := 0; i < n; i++ {
		bt := oldest + int64(n-1-i)*3600
		sigs[i] = solana.SignatureInfo{Signature: fmt.Sprintf("sig-%d", i), Slot: int64(n - i), BlockTime: &bt}
	}
	return sigs
}

func TestActivityReader_WalletActivity(t *testing.T) {
	wallet := newWallet(t)
	rpc := stub.NewRPCClient()
	rpc.AddSignatures(wallet, signatures(25, 1_600_000_000))
	rpc.Balances[wallet] = 2 * solana.LamportsPerSOL
	rpc.AddTokenAccount(wallet, solana.TokenAccount{Mint: solana.USDCMint, UIAmount: 300})
	rpc.AddTokenAccount(wallet, solana.TokenAccount{Mint: solana.USDTMint, UIAmount: 100})
	rpc.AddTokenAccount(wallet, solana.TokenAccount{Mint: "OtherMint", UIAmount: 1e6})

	reader := solana.NewActivityReader(rpc, 100, solana.WithPageSize(10))

	activity, err := reader.WalletActivity(context.Background(), wallet)
	if err != nil {
		t.Fatalf("WalletActivity: %v", err)
	}

	if activity.TransactionCount != 25 {
		t.Errorf("expected 25 transactions, got %d", activity.TransactionCount)
	}
	if activity.FirstSeen == nil || activity.FirstSeen.Unix() != 1_600_000_000 {
		t.Errorf("expected first seen at 1600000000, got %v", activity.FirstSeen)
	}
	if activity.StablecoinValue != 400 {
		t.Errorf("expected stablecoin value 400, got %f", activity.StablecoinValue)
	}
	if activity.NativeValue != 200 {
		t.Errorf("expected native value 200, got %f", activity.NativeValue)
	}
}

func TestActivityReader_MaxPagesBoundsHistory(t *testing.T) {
	wallet := newWallet(t)
	rpc := stub.NewRPCClient()
	rpc.AddSignatures(wallet, signatures(50, 1_600_000_000))

	reader := solana.NewActivityReader(rpc, 100, solana.WithPageSize(10), solana.WithMaxPages(2))

	activity, err := reader.WalletActivity(context.Background(), wallet)
	if err != nil {
		t.Fatalf("WalletActivity: %v", err)
	}
	if activity.TransactionCount != 20 {
		t.Errorf("expected 20 transactions, got %d", activity.TransactionCount)
	}
}

func TestActivityReader_EmptyWallet(t *testing.T) {
	wallet := newWallet(t)
	reader := solana.NewActivityReader(stub.NewRPCClient(), 100)

	activity, err := reader.WalletActivity(context.Background(), wallet)
	if err != nil {
		t.Fatalf("WalletActivity: %v", err)
	}
	if activity.TransactionCount != 0 || activity.FirstSeen != nil {
		t.Errorf("expected no history, got %+v", activity)
	}
}

func TestActivityReader_InvalidAddress(t *testing.T) {
	rpc := stub.NewRPCClient()
	reader := solana.NewActivityReader(rpc, 100)

	_, err := reader.WalletActivity(context.Background(), "definitely-not-a-wallet")
	if !errors.Is(err, solana.ErrInvalidAddress) {
		t.Errorf("expected ErrInvalidAddress, got %v", err)
	}
	if rpc.Calls != 0 {
		t.Errorf("expected no RPC calls, got %d", rpc.Calls)
	}
}

func TestActivityReader_RPCFailure(t *testing.T) {
	wallet := newWallet(t)
	rpc := stub.NewRPCClient()
	rpc.Err = errors.New("node unavailable")

	reader := solana.NewActivityReader(rpc, 100)

	if _, err := reader.WalletActivity(context.Background(), wallet); err == nil {
		t.Fatal("expected error, got nil")
	}
}
