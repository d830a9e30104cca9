// Package solana reads wallet activity from a Solana JSON-RPC endpoint.
package solana

import "context"

// RPCClient defines the subset of the Solana RPC HTTP interface used to
// summarize wallet activity.
type RPCClient interface {
	// GetSignaturesForAddress retrieves signatures for an address with pagination.
	// Results are ordered newest first.
	GetSignaturesForAddress(ctx context.Context, address string, opts *SignaturesOpts) ([]SignatureInfo, error)

	// GetBalance retrieves the native balance of an account in lamports.
	GetBalance(ctx context.Context, address string) (uint64, error)

	// GetTokenAccountsByOwner retrieves the SPL token accounts of owner for a mint.
	GetTokenAccountsByOwner(ctx context.Context, owner, mint string) ([]TokenAccount, error)
}
