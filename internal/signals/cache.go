package signals

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"credit-risk-engine/internal/domain"
	"credit-risk-engine/internal/observability"
)

// CachedFetcher memoizes signals per borrower for a fixed TTL.
// Degraded results are never cached so a transient outage does not pin
// neutral values. Cached signals are shared and must not be mutated.
type CachedFetcher struct {
	next  Fetcher
	cache *expirable.LRU[string, domain.BorrowerSignals]
}

// NewCachedFetcher wraps next with an LRU of at most size entries.
func NewCachedFetcher(next Fetcher, size int, ttl time.Duration) *CachedFetcher {
	return &CachedFetcher{
		next:  next,
		cache: expirable.NewLRU[string, domain.BorrowerSignals](size, nil, ttl),
	}
}

// WithCache returns next unchanged when ttl or size is not positive.
func WithCache(next Fetcher, size int, ttl time.Duration) Fetcher {
	if ttl <= 0 || size <= 0 {
		return next
	}
	return NewCachedFetcher(next, size, ttl)
}

// Fetch returns cached signals when present, otherwise delegates.
func (c *CachedFetcher) Fetch(ctx context.Context, borrowerID string) (domain.BorrowerSignals, error) {
	if s, ok := c.cache.Get(borrowerID); ok {
		observability.RecordCacheLookup(true)
		return s, nil
	}
	observability.RecordCacheLookup(false)

	s, err := c.next.Fetch(ctx, borrowerID)
	if err != nil {
		return s, err
	}
	if len(s.Degraded) == 0 {
		c.cache.Add(borrowerID, s)
	}
	return s, nil
}

// Invalidate drops the cached entry of a borrower.
func (c *CachedFetcher) Invalidate(borrowerID string) {
	c.cache.Remove(borrowerID)
}

// Len returns the number of cached entries.
func (c *CachedFetcher) Len() int {
	return c.cache.Len()
}
