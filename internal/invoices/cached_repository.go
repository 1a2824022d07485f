package invoices

import (
	"context"
	"sync"
	"time"

	"github.com/paylinkhq/server/internal/cacheutil"
)

// CachedRepository wraps any Repository with a short TTL read cache. Unknown
// IDs are not cached so a newly created invoice is payable immediately.
type CachedRepository struct {
	underlying Repository
	cacheTTL   time.Duration
	mu         sync.RWMutex
	byID       map[string]cacheutil.CachedValue[Invoice]
	list       cacheutil.CachedValue[[]Invoice]
}

// NewCachedRepository wraps a repository with caching.
func NewCachedRepository(underlying Repository, cacheTTL time.Duration) *CachedRepository {
	return &CachedRepository{
		underlying: underlying,
		cacheTTL:   cacheTTL,
		byID:       make(map[string]cacheutil.CachedValue[Invoice]),
	}
}

// GetInvoice reads through the cache.
func (r *CachedRepository) GetInvoice(ctx context.Context, id string) (Invoice, error) {
	if r.cacheTTL == 0 {
		return r.underlying.GetInvoice(ctx, id)
	}

	return cacheutil.ReadThrough(
		&r.mu,
		func(now time.Time) (Invoice, bool) {
			return cacheutil.Lookup(r.byID, id, now, r.cacheTTL)
		},
		func(now time.Time) (Invoice, error) {
			inv, err := r.underlying.GetInvoice(ctx, id)
			if err != nil {
				return Invoice{}, err
			}
			r.byID[id] = cacheutil.CachedValue[Invoice]{Value: inv, FetchedAt: now}
			return inv, nil
		},
	)
}

// ListInvoices reads through the cache.
func (r *CachedRepository) ListInvoices(ctx context.Context) ([]Invoice, error) {
	if r.cacheTTL == 0 {
		return r.underlying.ListInvoices(ctx)
	}

	return cacheutil.ReadThrough(
		&r.mu,
		func(now time.Time) ([]Invoice, bool) {
			if r.list.Value != nil && r.list.Fresh(now, r.cacheTTL) {
				return r.list.Value, true
			}
			return nil, false
		},
		func(now time.Time) ([]Invoice, error) {
			list, err := r.underlying.ListInvoices(ctx)
			if err != nil {
				return nil, err
			}
			if list == nil {
				list = []Invoice{}
			}
			r.list = cacheutil.CachedValue[[]Invoice]{Value: list, FetchedAt: now}
			return list, nil
		},
	)
}

// SaveInvoice writes through and drops cached entries.
func (r *CachedRepository) SaveInvoice(ctx context.Context, inv Invoice) (Invoice, error) {
	var saved Invoice
	err := cacheutil.WriteThrough(r.InvalidateCache, func() error {
		var err error
		saved, err = r.underlying.SaveInvoice(ctx, inv)
		return err
	})
	return saved, err
}

// Close closes the underlying repository.
func (r *CachedRepository) Close() error {
	return r.underlying.Close()
}

// InvalidateCache forces the next reads to hit the store.
func (r *CachedRepository) InvalidateCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID = make(map[string]cacheutil.CachedValue[Invoice])
	r.list = cacheutil.CachedValue[[]Invoice]{}
}
