package store

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"golang.org/x/time/rate"

	"github.com/grocerylens/backend/internal/domain"
)

const (
	defaultRequestTimeout = 30 * time.Second
	maxRetries            = 2
	baseBackoff           = 500 * time.Millisecond
	userAgent             = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// Config describes how to search one store and where its listings live in the result page
type Config struct {
	Name              string
	SearchURL         string // must contain %s for the escaped query
	ItemSelector      string
	NameSelector      string
	PriceSelector     string
	ImageSelector     string
	LinkSelector      string
	Location          string
	RequestsPerMinute int
}

// HTMLStore searches a store by scraping its search result page
type HTMLStore struct {
	config      Config
	timeout     time.Duration
	rateLimiter *rate.Limiter
	debug       bool
}

// NewHTMLStore creates a store adapter from its selectors
func NewHTMLStore(config Config, timeout time.Duration) (*HTMLStore, error) {
	if config.Name == "" {
		return nil, fmt.Errorf("store name is required")
	}
	if strings.Count(config.SearchURL, "%s") != 1 {
		return nil, fmt.Errorf("store %s: search_url must contain exactly one %%s", config.Name)
	}
	if config.ItemSelector == "" || config.NameSelector == "" {
		return nil, fmt.Errorf("store %s: item_selector and name_selector are required", config.Name)
	}
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	limit := rate.Inf
	if config.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(config.RequestsPerMinute))
	}

	return &HTMLStore{
		config:      config,
		timeout:     timeout,
		rateLimiter: rate.NewLimiter(limit, 1),
	}, nil
}

// SetDebug enables or disables per-request logging
func (s *HTMLStore) SetDebug(debug bool) {
	s.debug = debug
}

// Name returns the store name
func (s *HTMLStore) Name() string {
	return s.config.Name
}

// Search fetches the store's result page for query and maps every item to a RawListing
func (s *HTMLStore) Search(ctx context.Context, query string) (domain.StoreResult, error) {
	if err := s.rateLimiter.Wait(ctx); err != nil {
		return domain.StoreResult{}, fmt.Errorf("rate limiter error: %w", err)
	}

	searchURL := fmt.Sprintf(s.config.SearchURL, url.QueryEscape(query))

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := exponentialBackoff(attempt)
			if s.debug {
				log.Printf("[STORE] %s retry %d/%d after %v", s.config.Name, attempt, maxRetries, backoff)
			}
			select {
			case <-ctx.Done():
				return domain.StoreResult{}, ctx.Err()
			case <-time.After(backoff):
			}
		}

		listings, statusCode, err := s.fetch(ctx, searchURL)
		if err == nil {
			return s.result(listings), nil
		}
		lastErr = err

		// Client errors will not change on retry
		if statusCode >= 400 && statusCode < 500 {
			return domain.StoreResult{}, err
		}
		if ctx.Err() != nil {
			return domain.StoreResult{}, ctx.Err()
		}
	}

	return domain.StoreResult{}, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// fetch visits the search page once and returns the mapped listings and the HTTP status
func (s *HTMLStore) fetch(ctx context.Context, searchURL string) ([]domain.RawListing, int, error) {
	var (
		mu         sync.Mutex
		listings   []domain.RawListing
		statusCode int
		fetchErr   error
	)

	c := s.newCollector(ctx)
	c.OnHTML(s.config.ItemSelector, func(e *colly.HTMLElement) {
		listing, ok := mapListing(e, s.config)
		if !ok {
			return
		}
		mu.Lock()
		listings = append(listings, listing)
		mu.Unlock()
	})
	c.OnResponse(func(r *colly.Response) {
		mu.Lock()
		statusCode = r.StatusCode
		mu.Unlock()
	})
	c.OnError(func(r *colly.Response, err error) {
		mu.Lock()
		statusCode = r.StatusCode
		fetchErr = fmt.Errorf("%s returned status %d: %w", searchURL, r.StatusCode, err)
		mu.Unlock()
	})
	if s.debug {
		c.OnRequest(func(r *colly.Request) {
			log.Printf("[STORE] %s visiting %s", s.config.Name, r.URL)
		})
	}

	visitErr := c.Visit(searchURL)
	c.Wait()

	mu.Lock()
	defer mu.Unlock()

	if fetchErr != nil {
		return nil, statusCode, fetchErr
	}
	if visitErr != nil {
		return nil, statusCode, fmt.Errorf("visit %s: %w", searchURL, visitErr)
	}
	return listings, statusCode, nil
}

func (s *HTMLStore) result(listings []domain.RawListing) domain.StoreResult {
	result := domain.StoreResult{
		Store:    s.config.Name,
		Status:   domain.StoreStatusOK,
		Products: listings,
		Location: s.config.Location,
	}
	if len(listings) == 0 {
		result.Status = domain.StoreStatusEmpty
	}
	return result
}

func (s *HTMLStore) newCollector(ctx context.Context) *colly.Collector {
	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.StdlibContext(ctx),
	)
	c.SetRequestTimeout(s.timeout)
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept-Language", "en")
	})
	return c
}

// exponentialBackoff calculates backoff duration for retry attempts
func exponentialBackoff(attempt int) time.Duration {
	return baseBackoff * time.Duration(1<<uint(attempt-1))
}
