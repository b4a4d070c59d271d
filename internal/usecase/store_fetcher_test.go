package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/grocerylens/backend/internal/domain"
)

func TestNewStoreFetcher(t *testing.T) {
	t.Run("uses default timeout when zero", func(t *testing.T) {
		f := NewStoreFetcher(nil, 0)
		if f.timeout != 30*time.Second {
			t.Errorf("timeout = %v, want 30s", f.timeout)
		}
	})

	t.Run("lists store names", func(t *testing.T) {
		f := NewStoreFetcher([]domain.StoreAdapter{
			NewMockStoreAdapter("carrefour"),
			NewMockStoreAdapter("noon"),
		}, time.Second)
		names := f.Stores()
		if len(names) != 2 || names[0] != "carrefour" || names[1] != "noon" {
			t.Errorf("Stores() = %v, want [carrefour noon]", names)
		}
	})
}

func TestFetchAll(t *testing.T) {
	ctx := context.Background()

	t.Run("returns error without stores", func(t *testing.T) {
		_, err := NewStoreFetcher(nil, time.Second).FetchAll(ctx, "milk")
		if !errors.Is(err, domain.ErrNoStores) {
			t.Errorf("error = %v, want ErrNoStores", err)
		}
	})

	t.Run("collects every store", func(t *testing.T) {
		carrefour := NewMockStoreAdapter("carrefour", listing("Nestle Milk 1L", "AED 10"))
		noon := NewMockStoreAdapter("noon", listing("Nestle Milk 1L", "AED 12"))

		results, err := NewStoreFetcher([]domain.StoreAdapter{carrefour, noon}, time.Second).FetchAll(ctx, "milk")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(results) != 2 {
			t.Fatalf("len(results) = %d, want 2", len(results))
		}
		for _, name := range []string{"carrefour", "noon"} {
			if results[name].Status != domain.StoreStatusOK || results[name].Store != name {
				t.Errorf("results[%q] = %+v, want ok result named after the store", name, results[name])
			}
		}
	})

	t.Run("failing store does not affect others", func(t *testing.T) {
		healthy := NewMockStoreAdapter("carrefour", listing("Nestle Milk 1L", "AED 10"))
		broken := NewMockStoreAdapter("noon")
		broken.err = errors.New("connection refused")

		results, err := NewStoreFetcher([]domain.StoreAdapter{healthy, broken}, time.Second).FetchAll(ctx, "milk")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if results["carrefour"].Status != domain.StoreStatusOK {
			t.Errorf("carrefour status = %q, want ok", results["carrefour"].Status)
		}
		if results["noon"].Status != domain.StoreStatusError {
			t.Errorf("noon status = %q, want error", results["noon"].Status)
		}
		if !strings.Contains(results["noon"].Error, "connection refused") {
			t.Errorf("noon error = %q, want cause included", results["noon"].Error)
		}
	})

	t.Run("slow store times out", func(t *testing.T) {
		slow := NewMockStoreAdapter("talabat", listing("Nestle Milk 1L", "AED 9"))
		slow.delay = time.Second

		results, err := NewStoreFetcher([]domain.StoreAdapter{slow}, 20*time.Millisecond).FetchAll(ctx, "milk")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if results["talabat"].Status != domain.StoreStatusError {
			t.Errorf("status = %q, want error after timeout", results["talabat"].Status)
		}
	})

	t.Run("ok result without listings is empty", func(t *testing.T) {
		empty := NewMockStoreAdapter("noon")

		results, err := NewStoreFetcher([]domain.StoreAdapter{empty}, time.Second).FetchAll(ctx, "milk")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if results["noon"].Status != domain.StoreStatusEmpty {
			t.Errorf("status = %q, want empty", results["noon"].Status)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		slow := NewMockStoreAdapter("noon")
		slow.delay = time.Second

		_, err := NewStoreFetcher([]domain.StoreAdapter{slow}, time.Second).FetchAll(cancelled, "milk")
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	})
}
