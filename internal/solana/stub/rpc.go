package stub

import (
	"context"
	"sync"

	"credit-risk-engine/internal/solana"
)

// RPCClient implements solana.RPCClient for testing.
// Err, when set, is returned from every call.
type RPCClient struct {
	mu            sync.Mutex
	Signatures    map[string][]solana.SignatureInfo // newest first
	Balances      map[string]uint64
	TokenAccounts map[string][]solana.TokenAccount // keyed by owner
	Err           error
	Calls         int
}

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Signatures:    make(map[string][]solana.SignatureInfo),
		Balances:      make(map[string]uint64),
		TokenAccounts: make(map[string][]solana.TokenAccount),
	}
}

// GetSignaturesForAddress pages through the stored signatures the way the
// RPC node does: results start after opts.Before and hold at most opts.Limit.
func (c *RPCClient) GetSignaturesForAddress(_ context.Context, address string, opts *solana.SignaturesOpts) ([]solana.SignatureInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls++

	if c.Err != nil {
		return nil, c.Err
	}

	sigs := c.Signatures[address]
	if opts != nil && opts.Before != "" {
		for i, s := range sigs {
			if s.Signature == opts.Before {
				sigs = sigs[i+1:]
				break
			}
		}
	}

	if opts != nil && opts.Limit > 0 && opts.Limit < len(sigs) {
		sigs = sigs[:opts.Limit]
	}

	out := make([]solana.SignatureInfo, len(sigs))
	copy(out, sigs)
	return out, nil
}

// GetBalance returns the stored balance, zero if none.
func (c *RPCClient) GetBalance(_ context.Context, address string) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls++

	if c.Err != nil {
		return 0, c.Err
	}
	return c.Balances[address], nil
}

// GetTokenAccountsByOwner returns the stored accounts of owner for mint.
func (c *RPCClient) GetTokenAccountsByOwner(_ context.Context, owner, mint string) ([]solana.TokenAccount, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls++

	if c.Err != nil {
		return nil, c.Err
	}

	var out []solana.TokenAccount
	for _, a := range c.TokenAccounts[owner] {
		if a.Mint == mint {
			out = append(out, a)
		}
	}
	return out, nil
}

// AddSignatures adds signatures for an address to the stub store.
func (c *RPCClient) AddSignatures(address string, sigs []solana.SignatureInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Signatures[address] = append(c.Signatures[address], sigs...)
}

// AddTokenAccount adds a token account for an owner.
func (c *RPCClient) AddTokenAccount(owner string, acct solana.TokenAccount) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.TokenAccounts[owner] = append(c.TokenAccounts[owner], acct)
}

// Compile-time interface check.
var _ solana.RPCClient = (*RPCClient)(nil)
