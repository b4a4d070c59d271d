package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations.
// Values are JSON documents so that every implementation behaves like a remote cache.
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// StoreAdapter searches a single e-commerce store.
// A returned error means the store could not be searched at all.
type StoreAdapter interface {
	Name() string
	Search(ctx context.Context, query string) (StoreResult, error)
}

// PriceHistoryRepository records reconciled prices and answers trend queries
type PriceHistoryRepository interface {
	SaveSearchResults(ctx context.Context, groups []MatchedProductGroup) (int, error)
	GetProductByName(ctx context.Context, matchedName string) (*TrackedProduct, error)
	GetPriceHistory(ctx context.Context, productID int64, days int) ([]PricePoint, error)
	GetPriceComparison(ctx context.Context, productID int64) (*PriceComparison, error)
	GetTrackedProducts(ctx context.Context, limit int) ([]TrackedProduct, error)
	Stats(ctx context.Context) (*HistoryStats, error)
	Close() error
}

// ProductIndexer publishes reconciled products to a full-text index
type ProductIndexer interface {
	IndexGroups(ctx context.Context, groups []MatchedProductGroup) error
	Suggest(ctx context.Context, query string, limit int) ([]string, error)
}
