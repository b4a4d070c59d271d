package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/grocerylens/backend/config"
	httpDelivery "github.com/grocerylens/backend/internal/delivery/http"
	"github.com/grocerylens/backend/internal/domain"
	"github.com/grocerylens/backend/internal/infrastructure/cache"
	"github.com/grocerylens/backend/internal/infrastructure/categories"
	"github.com/grocerylens/backend/internal/infrastructure/history"
	"github.com/grocerylens/backend/internal/infrastructure/search"
	"github.com/grocerylens/backend/internal/infrastructure/store"
	"github.com/grocerylens/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debug := cfg.Server.Environment == "development"

	log.Printf("Starting GroceryLens Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Cache Type: %s (TTL %s)", cfg.Cache.Type, cfg.Cache.TTL)

	// Initialize infrastructure dependencies
	memoryCache := cache.NewMemoryCache(cfg.Cache.CleanupInterval)
	defer memoryCache.Close()

	adapters := buildStores(cfg, debug)
	if len(adapters) == 0 {
		log.Printf("WARNING: no stores configured - searches will fail until stores are added to config.yaml")
	}

	repo := openHistory(cfg)
	if repo != nil {
		defer repo.Close()
	}

	var indexer domain.ProductIndexer
	if cfg.Search.Enabled {
		indexer = search.NewMeiliIndexer(cfg.Search.URL, cfg.Search.APIKey, cfg.Search.Index)
		log.Printf("Product index: %s (index %s)", cfg.Search.URL, cfg.Search.Index)
	}

	// Initialize usecase layer
	table := categories.Load(cfg.Categories.Path)
	classifier := usecase.NewRelevanceClassifier(table, cfg.Matching.FreshCategory)
	grouper := usecase.NewSimilarityGrouper(usecase.GrouperConfig{
		SimilarityThreshold: cfg.Matching.SimilarityThreshold,
		MinStoresPerGroup:   cfg.Matching.MinStoresPerGroup,
		EnableDebugLogging:  cfg.Matching.EnableDebugLogging,
	})
	reconciler := usecase.NewReconciler(classifier, grouper, usecase.ReconcilerConfig{
		ExactMatchThreshold: cfg.Matching.ExactMatchThreshold,
		EnableDebugLogging:  cfg.Matching.EnableDebugLogging,
	})
	fetcher := usecase.NewStoreFetcher(adapters, cfg.FetchTimeout)

	searchService := usecase.NewSearchService(
		memoryCache,
		fetcher,
		reconciler,
		usecase.NewQueryPreprocessor(cfg.Matching.EnableDebugLogging),
		repo,
		indexer,
		usecase.SearchServiceConfig{
			CacheTTL:  cfg.Cache.TTL,
			TrendDays: cfg.History.TrendDays,
		},
	)

	var historyService *usecase.PriceHistoryService
	if repo != nil {
		historyService = usecase.NewPriceHistoryService(repo, cfg.History.TrendDays)
	}

	log.Printf("Matching: similarity=%.2f, exact=%.2f, min_stores=%d, debug=%v",
		cfg.Matching.SimilarityThreshold,
		cfg.Matching.ExactMatchThreshold,
		cfg.Matching.MinStoresPerGroup,
		cfg.Matching.EnableDebugLogging)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(searchService, historyService, fetcher.Stores())

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           h2c.NewHandler(router, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Printf("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.FetchTimeout+5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}

// buildStores creates one scraping adapter per configured store
func buildStores(cfg *config.Config, debug bool) []domain.StoreAdapter {
	adapters := make([]domain.StoreAdapter, 0, len(cfg.Stores))
	for _, sc := range cfg.Stores {
		adapter, err := store.NewHTMLStore(store.Config{
			Name:              sc.Name,
			SearchURL:         sc.SearchURL,
			ItemSelector:      sc.ItemSelector,
			NameSelector:      sc.NameSelector,
			PriceSelector:     sc.PriceSelector,
			ImageSelector:     sc.ImageSelector,
			LinkSelector:      sc.LinkSelector,
			Location:          sc.Location,
			RequestsPerMinute: sc.RequestsPerMinute,
		}, cfg.FetchTimeout)
		if err != nil {
			log.Fatalf("Failed to configure store %s: %v", sc.Name, err)
		}
		adapter.SetDebug(debug)
		adapters = append(adapters, adapter)
		log.Printf("Store configured: %s (%s)", sc.Name, sc.Location)
	}
	return adapters
}

// openHistory opens the configured price history backend. A backend that
// cannot be opened disables price history instead of stopping the server.
func openHistory(cfg *config.Config) domain.PriceHistoryRepository {
	switch cfg.History.Driver {
	case "sqlite":
		repo, err := history.NewSQLiteRepository(cfg.History.Path)
		if err != nil {
			log.Printf("WARNING: price history disabled: %v", err)
			return nil
		}
		return repo
	case "postgres":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		repo, err := history.NewPostgresRepository(ctx, cfg.History.DSN, cfg.History.MaxConns)
		if err != nil {
			log.Printf("WARNING: price history disabled: %v", err)
			return nil
		}
		return repo
	default:
		log.Printf("Price history disabled")
		return nil
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
