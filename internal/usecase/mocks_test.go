package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/grocerylens/backend/internal/domain"
)

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	data      map[string][]byte
	getError  error
	setError  error
	getCalled bool
	setCalled bool
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		data: make(map[string][]byte),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	m.getCalled = true
	if m.getError != nil {
		return nil, m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.setCalled = true
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	return ok, nil
}

// MockStoreAdapter is a mock implementation of domain.StoreAdapter
type MockStoreAdapter struct {
	name    string
	result  domain.StoreResult
	err     error
	delay   time.Duration
	mu      sync.Mutex
	queries []string
}

func NewMockStoreAdapter(name string, listings ...domain.RawListing) *MockStoreAdapter {
	return &MockStoreAdapter{
		name:   name,
		result: domain.StoreResult{Status: domain.StoreStatusOK, Products: listings},
	}
}

func (m *MockStoreAdapter) Name() string {
	return m.name
}

func (m *MockStoreAdapter) Search(ctx context.Context, query string) (domain.StoreResult, error) {
	m.mu.Lock()
	m.queries = append(m.queries, query)
	m.mu.Unlock()

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return domain.StoreResult{}, ctx.Err()
		}
	}
	if m.err != nil {
		return domain.StoreResult{}, m.err
	}
	return m.result, nil
}

func (m *MockStoreAdapter) searchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queries)
}

// MockPriceHistoryRepository is a mock implementation of domain.PriceHistoryRepository
type MockPriceHistoryRepository struct {
	saved      [][]domain.MatchedProductGroup
	products   map[string]*domain.TrackedProduct
	history    map[int64][]domain.PricePoint
	comparison *domain.PriceComparison
	tracked    []domain.TrackedProduct
	stats      *domain.HistoryStats
	saveError  error
	queryError error
	lastLimit  int
	lastDays   int
}

func NewMockPriceHistoryRepository() *MockPriceHistoryRepository {
	return &MockPriceHistoryRepository{
		products: make(map[string]*domain.TrackedProduct),
		history:  make(map[int64][]domain.PricePoint),
	}
}

func (m *MockPriceHistoryRepository) SaveSearchResults(ctx context.Context, groups []domain.MatchedProductGroup) (int, error) {
	if m.saveError != nil {
		return 0, m.saveError
	}
	m.saved = append(m.saved, groups)
	return len(groups), nil
}

func (m *MockPriceHistoryRepository) GetProductByName(ctx context.Context, name string) (*domain.TrackedProduct, error) {
	if p, ok := m.products[name]; ok {
		return p, nil
	}
	return nil, domain.ErrProductNotFound
}

func (m *MockPriceHistoryRepository) GetPriceHistory(ctx context.Context, productID int64, days int) ([]domain.PricePoint, error) {
	m.lastDays = days
	if m.queryError != nil {
		return nil, m.queryError
	}
	points, ok := m.history[productID]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return points, nil
}

func (m *MockPriceHistoryRepository) GetPriceComparison(ctx context.Context, productID int64) (*domain.PriceComparison, error) {
	if m.queryError != nil {
		return nil, m.queryError
	}
	if m.comparison == nil || m.comparison.Product.ID != productID {
		return nil, domain.ErrProductNotFound
	}
	return m.comparison, nil
}

func (m *MockPriceHistoryRepository) GetTrackedProducts(ctx context.Context, limit int) ([]domain.TrackedProduct, error) {
	m.lastLimit = limit
	if m.queryError != nil {
		return nil, m.queryError
	}
	return m.tracked, nil
}

func (m *MockPriceHistoryRepository) Stats(ctx context.Context) (*domain.HistoryStats, error) {
	if m.queryError != nil {
		return nil, m.queryError
	}
	return m.stats, nil
}

func (m *MockPriceHistoryRepository) Close() error {
	return nil
}

// MockProductIndexer is a mock implementation of domain.ProductIndexer
type MockProductIndexer struct {
	indexed     []domain.MatchedProductGroup
	suggestions []string
	indexError  error
	suggestErr  error
	lastLimit   int
}

func (m *MockProductIndexer) IndexGroups(ctx context.Context, groups []domain.MatchedProductGroup) error {
	if m.indexError != nil {
		return m.indexError
	}
	m.indexed = append(m.indexed, groups...)
	return nil
}

func (m *MockProductIndexer) Suggest(ctx context.Context, query string, limit int) ([]string, error) {
	m.lastLimit = limit
	if m.suggestErr != nil {
		return nil, m.suggestErr
	}
	return m.suggestions, nil
}
