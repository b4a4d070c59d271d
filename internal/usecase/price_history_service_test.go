package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/grocerylens/backend/internal/domain"
)

func TestPriceHistoryService_Unavailable(t *testing.T) {
	svc := NewPriceHistoryService(nil, 0)
	ctx := context.Background()

	if svc.Enabled() {
		t.Error("Enabled() = true, want false without repository")
	}

	checks := map[string]func() error{
		"tracked":    func() error { _, err := svc.TrackedProducts(ctx, 10); return err },
		"history":    func() error { _, err := svc.PriceHistory(ctx, 1, 7); return err },
		"comparison": func() error { _, err := svc.Comparison(ctx, 1); return err },
		"stats":      func() error { _, err := svc.Stats(ctx); return err },
	}
	for name, check := range checks {
		t.Run(name, func(t *testing.T) {
			if err := check(); !errors.Is(err, domain.ErrHistoryUnavailable) {
				t.Errorf("error = %v, want ErrHistoryUnavailable", err)
			}
		})
	}
}

func TestPriceHistoryService_TrackedProducts(t *testing.T) {
	repo := NewMockPriceHistoryRepository()
	repo.tracked = []domain.TrackedProduct{{ID: 1, NormalizedName: "Nestle Milk 1L"}}
	svc := NewPriceHistoryService(repo, 30)
	ctx := context.Background()

	testCases := []struct {
		name      string
		limit     int
		wantLimit int
	}{
		{name: "default limit", limit: 0, wantLimit: 50},
		{name: "custom limit", limit: 5, wantLimit: 5},
		{name: "clamped limit", limit: 10000, wantLimit: 500},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			products, err := svc.TrackedProducts(ctx, tc.limit)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(products) != 1 {
				t.Errorf("len(products) = %d, want 1", len(products))
			}
			if repo.lastLimit != tc.wantLimit {
				t.Errorf("limit = %d, want %d", repo.lastLimit, tc.wantLimit)
			}
		})
	}
}

func TestPriceHistoryService_PriceHistory(t *testing.T) {
	repo := NewMockPriceHistoryRepository()
	repo.history[3] = []domain.PricePoint{{StoreName: "noon", Price: 12}}
	svc := NewPriceHistoryService(repo, 14)
	ctx := context.Background()

	t.Run("uses default days", func(t *testing.T) {
		points, err := svc.PriceHistory(ctx, 3, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(points) != 1 || repo.lastDays != 14 {
			t.Errorf("got %d points over %d days, want 1 over 14", len(points), repo.lastDays)
		}
	})

	t.Run("clamps days", func(t *testing.T) {
		_, _ = svc.PriceHistory(ctx, 3, 5000)
		if repo.lastDays != 365 {
			t.Errorf("days = %d, want 365", repo.lastDays)
		}
	})

	t.Run("rejects invalid id", func(t *testing.T) {
		if _, err := svc.PriceHistory(ctx, 0, 7); !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("error = %v, want ErrInvalidRequest", err)
		}
	})

	t.Run("unknown product", func(t *testing.T) {
		if _, err := svc.PriceHistory(ctx, 99, 7); !errors.Is(err, domain.ErrProductNotFound) {
			t.Errorf("error = %v, want ErrProductNotFound", err)
		}
	})

	t.Run("repository failure is unavailable", func(t *testing.T) {
		failing := NewMockPriceHistoryRepository()
		failing.queryError = errors.New("database is locked")
		_, err := NewPriceHistoryService(failing, 7).PriceHistory(ctx, 3, 7)
		if !errors.Is(err, domain.ErrHistoryUnavailable) {
			t.Errorf("error = %v, want ErrHistoryUnavailable", err)
		}
	})
}

func TestPriceHistoryService_ComparisonAndStats(t *testing.T) {
	repo := NewMockPriceHistoryRepository()
	repo.comparison = &domain.PriceComparison{
		Product: domain.TrackedProduct{ID: 4},
		Stores:  map[string]domain.StorePrice{"noon": {Price: 5}},
	}
	repo.stats = &domain.HistoryStats{ProductCount: 2, PriceCount: 9}
	svc := NewPriceHistoryService(repo, 0)
	ctx := context.Background()

	comparison, err := svc.Comparison(ctx, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if comparison.Stores["noon"].Price != 5 {
		t.Errorf("noon price = %v, want 5", comparison.Stores["noon"].Price)
	}

	if _, err := svc.Comparison(ctx, 5); !errors.Is(err, domain.ErrProductNotFound) {
		t.Errorf("error = %v, want ErrProductNotFound", err)
	}

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.ProductCount != 2 || stats.PriceCount != 9 {
		t.Errorf("stats = %+v, want 2 products and 9 prices", stats)
	}
}
