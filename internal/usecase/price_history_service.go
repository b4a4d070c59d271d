package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/grocerylens/backend/internal/domain"
)

const (
	defaultTrackedLimit = 50
	maxTrackedLimit     = 500
	maxHistoryDays      = 365
)

// PriceHistoryService exposes recorded prices to the delivery layer
type PriceHistoryService struct {
	repo        domain.PriceHistoryRepository
	defaultDays int
}

// NewPriceHistoryService creates a service over repo. A nil repo makes every
// call fail with ErrHistoryUnavailable.
func NewPriceHistoryService(repo domain.PriceHistoryRepository, defaultDays int) *PriceHistoryService {
	if defaultDays <= 0 {
		defaultDays = defaultTrendDays
	}
	return &PriceHistoryService{repo: repo, defaultDays: defaultDays}
}

// Enabled reports whether a repository is configured
func (s *PriceHistoryService) Enabled() bool {
	return s.repo != nil
}

// TrackedProducts lists the most recently tracked products with their current prices
func (s *PriceHistoryService) TrackedProducts(ctx context.Context, limit int) ([]domain.TrackedProduct, error) {
	if s.repo == nil {
		return nil, domain.ErrHistoryUnavailable
	}
	if limit <= 0 {
		limit = defaultTrackedLimit
	}
	if limit > maxTrackedLimit {
		limit = maxTrackedLimit
	}

	products, err := s.repo.GetTrackedProducts(ctx, limit)
	if err != nil {
		return nil, wrapHistoryError(err)
	}
	return products, nil
}

// PriceHistory returns the price points of a product over the last days days
func (s *PriceHistoryService) PriceHistory(ctx context.Context, productID int64, days int) ([]domain.PricePoint, error) {
	if s.repo == nil {
		return nil, domain.ErrHistoryUnavailable
	}
	if productID <= 0 {
		return nil, domain.ErrInvalidRequest
	}
	if days <= 0 {
		days = s.defaultDays
	}
	if days > maxHistoryDays {
		days = maxHistoryDays
	}

	points, err := s.repo.GetPriceHistory(ctx, productID, days)
	if err != nil {
		return nil, wrapHistoryError(err)
	}
	return points, nil
}

// Comparison returns the current price of a product in every store that sells it
func (s *PriceHistoryService) Comparison(ctx context.Context, productID int64) (*domain.PriceComparison, error) {
	if s.repo == nil {
		return nil, domain.ErrHistoryUnavailable
	}
	if productID <= 0 {
		return nil, domain.ErrInvalidRequest
	}

	comparison, err := s.repo.GetPriceComparison(ctx, productID)
	if err != nil {
		return nil, wrapHistoryError(err)
	}
	return comparison, nil
}

// Stats summarises the price history store
func (s *PriceHistoryService) Stats(ctx context.Context) (*domain.HistoryStats, error) {
	if s.repo == nil {
		return nil, domain.ErrHistoryUnavailable
	}

	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, wrapHistoryError(err)
	}
	return stats, nil
}

// wrapHistoryError keeps ErrProductNotFound and reports anything else as unavailable
func wrapHistoryError(err error) error {
	if errors.Is(err, domain.ErrProductNotFound) || errors.Is(err, domain.ErrHistoryUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrHistoryUnavailable, err)
}
