package catalog

import (
	"context"
	"errors"
	"sync"
)

// ErrStale marks a catalog response that arrived after a newer fetch was
// issued. The caller must discard the result without touching cart state.
var ErrStale = errors.New("catalog: stale fetch discarded")

// Source is anything that can resolve a product lookup.
type Source interface {
	Product(ctx context.Context, productID string) (Product, error)
}

// Fetcher serializes catalog lookups behind a monotonically increasing
// request sequence. Only the most recently issued fetch may commit: a slow
// earlier response can never overwrite newer state, and cancelling in-flight
// fetches (e.g. on store change) leaves committed cart items alone.
type Fetcher struct {
	src Source

	mu     sync.Mutex
	latest uint64
}

// NewFetcher wraps the source with sequence guarding.
func NewFetcher(src Source) *Fetcher {
	return &Fetcher{src: src}
}

// Product fetches the product and returns ErrStale when a newer fetch was
// issued while this one was in flight.
func (f *Fetcher) Product(ctx context.Context, productID string) (Product, error) {
	if f == nil || f.src == nil {
		return Product{}, errors.New("catalog fetcher not configured")
	}
	seq := f.begin()
	product, err := f.src.Product(ctx, productID)
	if !f.current(seq) {
		return Product{}, ErrStale
	}
	return product, err
}

// Cancel invalidates every fetch currently in flight.
func (f *Fetcher) Cancel() {
	f.begin()
}

func (f *Fetcher) begin() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.latest++
	return f.latest
}

func (f *Fetcher) current(seq uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return seq == f.latest
}
