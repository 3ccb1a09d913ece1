package catalog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/kasir-pos/internal/catalog"
)

type scriptedSource struct {
	fn func(ctx context.Context, productID string) (catalog.Product, error)
}

func (s scriptedSource) Product(ctx context.Context, productID string) (catalog.Product, error) {
	return s.fn(ctx, productID)
}

func TestFetcherPassesThroughLatest(t *testing.T) {
	src := scriptedSource{fn: func(_ context.Context, id string) (catalog.Product, error) {
		return catalog.Product{ID: id}, nil
	}}
	fetcher := catalog.NewFetcher(src)

	p, err := fetcher.Product(context.Background(), "p-1")
	require.NoError(t, err)
	require.Equal(t, "p-1", p.ID)
}

func TestFetcherDiscardsOvertakenResponse(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	src := scriptedSource{fn: func(_ context.Context, id string) (catalog.Product, error) {
		if id == "slow" {
			close(started)
			<-release
		}
		return catalog.Product{ID: id}, nil
	}}
	fetcher := catalog.NewFetcher(src)

	done := make(chan error, 1)
	go func() {
		_, err := fetcher.Product(context.Background(), "slow")
		done <- err
	}()

	// Issue a newer fetch while the first is still in flight, then release
	// the slow response. The slow result must be discarded as stale.
	<-started
	p, err := fetcher.Product(context.Background(), "fast")
	require.NoError(t, err)
	require.Equal(t, "fast", p.ID)

	close(release)
	require.ErrorIs(t, <-done, catalog.ErrStale)
}

func TestFetcherCancelInvalidatesInFlight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	src := scriptedSource{fn: func(_ context.Context, id string) (catalog.Product, error) {
		close(started)
		<-release
		return catalog.Product{ID: id}, nil
	}}
	fetcher := catalog.NewFetcher(src)

	done := make(chan error, 1)
	go func() {
		_, err := fetcher.Product(context.Background(), "p-1")
		done <- err
	}()

	<-started
	fetcher.Cancel()
	close(release)
	require.ErrorIs(t, <-done, catalog.ErrStale)
}
