package usecase

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/grocerylens/backend/internal/domain"
)

const defaultFetchTimeout = 30 * time.Second

// StoreFetcher searches every configured store concurrently and hands back a
// fully materialised result per store
type StoreFetcher struct {
	adapters []domain.StoreAdapter
	timeout  time.Duration
}

// NewStoreFetcher creates a fetcher over the given adapters. Each store search
// is bounded by timeout (30s when zero).
func NewStoreFetcher(adapters []domain.StoreAdapter, timeout time.Duration) *StoreFetcher {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &StoreFetcher{adapters: adapters, timeout: timeout}
}

// Stores returns the names of the configured stores
func (f *StoreFetcher) Stores() []string {
	names := make([]string, 0, len(f.adapters))
	for _, adapter := range f.adapters {
		names = append(names, adapter.Name())
	}
	return names
}

// FetchAll searches all stores for query. A store that fails is reported with
// StoreStatusError and never affects the others. The only error returned is
// ErrNoStores or the cancellation of ctx.
func (f *StoreFetcher) FetchAll(ctx context.Context, query string) (map[string]domain.StoreResult, error) {
	if len(f.adapters) == 0 {
		return nil, domain.ErrNoStores
	}

	var mu sync.Mutex
	results := make(map[string]domain.StoreResult, len(f.adapters))

	g, gCtx := errgroup.WithContext(ctx)
	for _, adapter := range f.adapters {
		g.Go(func() error {
			result := f.fetchOne(gCtx, adapter, query)

			mu.Lock()
			results[adapter.Name()] = result
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

func (f *StoreFetcher) fetchOne(ctx context.Context, adapter domain.StoreAdapter, query string) domain.StoreResult {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	name := adapter.Name()
	started := time.Now()

	result, err := adapter.Search(ctx, query)
	if err != nil {
		log.Printf("[STORE] %s search for %q failed after %s: %v", name, query, time.Since(started).Round(time.Millisecond), err)
		return domain.StoreResult{
			Store:  name,
			Status: domain.StoreStatusError,
			Error:  fmt.Errorf("%w: %v", domain.ErrStoreFailure, err).Error(),
		}
	}

	result.Store = name
	if result.Status == "" {
		result.Status = domain.StoreStatusOK
	}
	if result.Status == domain.StoreStatusOK && len(result.Products) == 0 {
		result.Status = domain.StoreStatusEmpty
	}

	log.Printf("[STORE] %s returned %d listings for %q in %s", name, len(result.Products), query, time.Since(started).Round(time.Millisecond))
	return result
}
