package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/grocerylens/backend/internal/domain"
)

// Response sources
const (
	SourceLive  = "live"
	SourceCache = "cache"
)

const (
	defaultSearchCacheTTL = 6 * time.Hour
	defaultTrendDays      = 30
	defaultSuggestLimit   = 10
	maxSuggestLimit       = 50
)

// SearchServiceConfig holds configuration for the search service
type SearchServiceConfig struct {
	CacheTTL  time.Duration
	TrendDays int
}

// SearchService answers product searches.
// Flow: preprocess -> cache -> fetch stores -> reconcile -> record history -> index -> cache
type SearchService struct {
	cache        domain.CacheRepository
	fetcher      *StoreFetcher
	reconciler   *Reconciler
	preprocessor *QueryPreprocessor
	history      domain.PriceHistoryRepository
	indexer      domain.ProductIndexer
	cacheTTL     time.Duration
	trendDays    int
	now          func() time.Time
}

// NewSearchService creates a new search service. history and indexer are
// optional; a nil value disables trend enrichment and suggestions.
func NewSearchService(
	cache domain.CacheRepository,
	fetcher *StoreFetcher,
	reconciler *Reconciler,
	preprocessor *QueryPreprocessor,
	history domain.PriceHistoryRepository,
	indexer domain.ProductIndexer,
	config SearchServiceConfig,
) *SearchService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = defaultSearchCacheTTL
	}

	trendDays := config.TrendDays
	if trendDays <= 0 {
		trendDays = defaultTrendDays
	}

	if preprocessor == nil {
		preprocessor = NewQueryPreprocessor(false)
	}

	return &SearchService{
		cache:        cache,
		fetcher:      fetcher,
		reconciler:   reconciler,
		preprocessor: preprocessor,
		history:      history,
		indexer:      indexer,
		cacheTTL:     cacheTTL,
		trendDays:    trendDays,
		now:          time.Now,
	}
}

// Search finds, reconciles and ranks products for a query across all stores
func (s *SearchService) Search(ctx context.Context, request *domain.SearchRequest) (*domain.SearchResponse, error) {
	if request == nil || strings.TrimSpace(request.Query) == "" {
		return nil, domain.ErrInvalidRequest
	}
	if request.SortBy != "" && !validSortKey(request.SortBy) {
		return nil, fmt.Errorf("%w: unknown sort key %q", domain.ErrInvalidRequest, request.SortBy)
	}

	query := s.preprocessor.PreprocessQuery(request.Query)
	if query == "" {
		return nil, domain.ErrInvalidRequest
	}
	cacheKey := CacheKey(query)

	if cached, err := s.getFromCache(ctx, cacheKey); err == nil {
		cached.Source = SourceCache
		applySort(cached, request)
		return cached, nil
	}

	results, err := s.fetcher.FetchAll(ctx, query)
	if err != nil {
		return nil, err
	}

	summaries, failed := summarizeStores(results)
	if failed == len(results) {
		return nil, fmt.Errorf("%w: %d store(s) searched", domain.ErrAllStoresFailed, failed)
	}

	groups := s.reconciler.Reconcile(results, query)
	s.recordHistory(ctx, groups)
	s.indexGroups(ctx, groups)

	response := &domain.SearchResponse{
		Query:      query,
		Products:   groups,
		Stores:     summaries,
		Source:     SourceLive,
		SearchedAt: s.now().UTC(),
	}

	// Partial results are not cached so a recovered store is picked up on the next search
	if failed == 0 {
		if err := s.setInCache(ctx, cacheKey, response); err != nil {
			log.Printf("[SEARCH] Failed to cache %q: %v", query, err)
		}
	}

	applySort(response, request)
	return response, nil
}

// Sort re-orders an already reconciled product list
func (s *SearchService) Sort(request *domain.SortRequest) ([]domain.MatchedProductGroup, error) {
	if request == nil || !validSortKey(request.SortBy) {
		return nil, domain.ErrInvalidRequest
	}
	return SortGroups(request.Products, request.SortBy, ascendingOrDefault(request.Ascending)), nil
}

// Suggest returns product names from the search index that match a prefix
func (s *SearchService) Suggest(ctx context.Context, query string, limit int) ([]string, error) {
	if s.indexer == nil {
		return nil, domain.ErrIndexUnavailable
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrInvalidRequest
	}

	if limit <= 0 {
		limit = defaultSuggestLimit
	}
	if limit > maxSuggestLimit {
		limit = maxSuggestLimit
	}

	suggestions, err := s.indexer.Suggest(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrIndexUnavailable, err)
	}
	return suggestions, nil
}

// recordHistory saves today's prices and attaches the product identity and
// recent price trend to each group. Failures only cost the enrichment.
func (s *SearchService) recordHistory(ctx context.Context, groups []domain.MatchedProductGroup) {
	if s.history == nil || len(groups) == 0 {
		return
	}

	saved, err := s.history.SaveSearchResults(ctx, groups)
	if err != nil {
		log.Printf("[HISTORY] Failed to save search results: %v", err)
		return
	}
	log.Printf("[HISTORY] Saved %d product groups", saved)

	for i := range groups {
		product, err := s.history.GetProductByName(ctx, groups[i].MatchedName)
		if err != nil {
			continue
		}
		id := product.ID
		groups[i].ProductID = &id

		trend, err := s.history.GetPriceHistory(ctx, id, s.trendDays)
		if err != nil {
			log.Printf("[HISTORY] Failed to load trend for product %d: %v", id, err)
			continue
		}
		groups[i].Trend = trend
	}
}

func (s *SearchService) indexGroups(ctx context.Context, groups []domain.MatchedProductGroup) {
	if s.indexer == nil || len(groups) == 0 {
		return
	}
	if err := s.indexer.IndexGroups(ctx, groups); err != nil {
		log.Printf("[INDEX] Failed to index %d products: %v", len(groups), err)
	}
}

// getFromCache retrieves a search response from cache
func (s *SearchService) getFromCache(ctx context.Context, key string) (*domain.SearchResponse, error) {
	payload, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var response domain.SearchResponse
	if err := json.Unmarshal(payload, &response); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCacheMiss, err)
	}
	return &response, nil
}

// setInCache stores a search response in cache
func (s *SearchService) setInCache(ctx context.Context, key string, response *domain.SearchResponse) error {
	payload, err := json.Marshal(response)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, key, payload, s.cacheTTL)
}

// summarizeStores reports every store's outcome and counts the failed ones
func summarizeStores(results map[string]domain.StoreResult) (map[string]domain.StoreSummary, int) {
	summaries := make(map[string]domain.StoreSummary, len(results))
	failed := 0
	for name, result := range results {
		if result.Status == domain.StoreStatusError {
			failed++
		}
		summaries[name] = domain.StoreSummary{
			Status:   result.Status,
			Count:    len(result.Products),
			Location: result.Location,
			Error:    result.Error,
		}
	}
	return summaries, failed
}

func applySort(response *domain.SearchResponse, request *domain.SearchRequest) {
	if request.SortBy == "" {
		return
	}
	response.Products = SortGroups(response.Products, request.SortBy, ascendingOrDefault(request.Ascending))
}

func validSortKey(sortBy string) bool {
	switch strings.ToLower(sortBy) {
	case domain.SortByPrice, domain.SortByQuantity, domain.SortByName:
		return true
	}
	return false
}

func ascendingOrDefault(ascending *bool) bool {
	return ascending == nil || *ascending
}
