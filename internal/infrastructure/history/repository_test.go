package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grocerylens/backend/internal/domain"
)

func floatPtr(v float64) *float64 {
	return &v
}

func milkGroup(carrefourPrice, noonPrice *float64) domain.MatchedProductGroup {
	return domain.MatchedProductGroup{
		MatchedName:   "Almarai Fresh Milk 1L",
		Brand:         "Almarai",
		PrimaryImage:  "https://cdn.example.com/milk.jpg",
		QuantityValue: floatPtr(1),
		QuantityUnit:  "l",
		Stores: map[string]domain.StoreOffer{
			"carrefour": {Name: "Almarai Fresh Milk 1L", Price: carrefourPrice, ProductURL: "https://carrefour.example.com/p/1"},
			"noon":      {Name: "Almarai Milk Full Fat 1L", Price: noonPrice},
		},
	}
}

// clock lets a contract test move the repository through days
type clock struct {
	current time.Time
}

func (c *clock) now() time.Time {
	return c.current
}

// testRepositoryContract runs the behaviour every price history backend shares
func testRepositoryContract(t *testing.T, repo domain.PriceHistoryRepository, c *clock) {
	ctx := context.Background()
	day1 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("save skips unnamed groups and unpriced offers", func(t *testing.T) {
		c.current = day1

		saved, err := repo.SaveSearchResults(ctx, []domain.MatchedProductGroup{
			milkGroup(floatPtr(6.5), nil),
			{MatchedName: ""},
		})

		require.NoError(t, err)
		assert.Equal(t, 1, saved)

		stats, err := repo.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), stats.ProductCount)
		assert.Equal(t, int64(1), stats.PriceCount)
	})

	t.Run("product lookup by name", func(t *testing.T) {
		product, err := repo.GetProductByName(ctx, "Almarai Fresh Milk 1L")

		require.NoError(t, err)
		assert.Positive(t, product.ID)
		assert.Equal(t, "Almarai", product.Brand)
		require.NotNil(t, product.QuantityValue)
		assert.Equal(t, 1.0, *product.QuantityValue)
		assert.Equal(t, "l", product.QuantityUnit)

		_, err = repo.GetProductByName(ctx, "Unknown Product")
		assert.ErrorIs(t, err, domain.ErrProductNotFound)
	})

	t.Run("same day save keeps the last price", func(t *testing.T) {
		c.current = day1.Add(3 * time.Hour)

		_, err := repo.SaveSearchResults(ctx, []domain.MatchedProductGroup{milkGroup(floatPtr(6.0), floatPtr(7.25))})
		require.NoError(t, err)

		product, err := repo.GetProductByName(ctx, "Almarai Fresh Milk 1L")
		require.NoError(t, err)

		points, err := repo.GetPriceHistory(ctx, product.ID, 30)
		require.NoError(t, err)
		require.Len(t, points, 2)
		assert.Equal(t, "carrefour", points[0].StoreName)
		assert.Equal(t, 6.0, points[0].Price)
		assert.Equal(t, "noon", points[1].StoreName)
		assert.Equal(t, "Almarai Milk Full Fat 1L", points[1].StoreProductName)
		assert.Equal(t, 7.25, points[1].Price)
	})

	t.Run("next day adds a row and retires the old one", func(t *testing.T) {
		c.current = day1.AddDate(0, 0, 1)

		_, err := repo.SaveSearchResults(ctx, []domain.MatchedProductGroup{milkGroup(floatPtr(5.5), nil)})
		require.NoError(t, err)

		product, err := repo.GetProductByName(ctx, "Almarai Fresh Milk 1L")
		require.NoError(t, err)

		points, err := repo.GetPriceHistory(ctx, product.ID, 30)
		require.NoError(t, err)
		require.Len(t, points, 3)
		assert.Equal(t, 5.5, points[0].Price)
		assert.True(t, points[0].EffectiveDate.Equal(effectiveDate(c.current)))

		comparison, err := repo.GetPriceComparison(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, product.ID, comparison.Product.ID)
		require.Len(t, comparison.Stores, 2)
		assert.Equal(t, 5.5, comparison.Stores["carrefour"].Price)
		assert.Equal(t, "https://carrefour.example.com/p/1", comparison.Stores["carrefour"].ProductURL)
		assert.Equal(t, "https://cdn.example.com/milk.jpg", comparison.Stores["carrefour"].ImageURL)
		// noon was not seen today, so its last price stays current
		assert.Equal(t, 7.25, comparison.Stores["noon"].Price)
	})

	t.Run("history window excludes old days", func(t *testing.T) {
		c.current = day1.AddDate(0, 0, 10)

		product, err := repo.GetProductByName(ctx, "Almarai Fresh Milk 1L")
		require.NoError(t, err)

		points, err := repo.GetPriceHistory(ctx, product.ID, 9)
		require.NoError(t, err)
		require.Len(t, points, 1)
		assert.Equal(t, 5.5, points[0].Price)
	})

	t.Run("unknown product", func(t *testing.T) {
		_, err := repo.GetPriceHistory(ctx, 999999, 30)
		assert.ErrorIs(t, err, domain.ErrProductNotFound)

		_, err = repo.GetPriceComparison(ctx, 999999)
		assert.ErrorIs(t, err, domain.ErrProductNotFound)
	})

	t.Run("tracked products newest first with current prices", func(t *testing.T) {
		bread := domain.MatchedProductGroup{
			MatchedName: "Modern Bakery White Bread",
			Brand:       "Modern",
			Stores: map[string]domain.StoreOffer{
				"carrefour": {Name: "Modern White Bread", Price: floatPtr(4.75)},
			},
		}
		_, err := repo.SaveSearchResults(ctx, []domain.MatchedProductGroup{bread})
		require.NoError(t, err)

		products, err := repo.GetTrackedProducts(ctx, 10)
		require.NoError(t, err)
		require.Len(t, products, 2)

		assert.Equal(t, "Modern Bakery White Bread", products[0].NormalizedName)
		assert.Nil(t, products[0].QuantityValue)
		assert.Equal(t, map[string]float64{"carrefour": 4.75}, products[0].Stores)

		assert.Equal(t, "Almarai Fresh Milk 1L", products[1].NormalizedName)
		assert.Equal(t, map[string]float64{"carrefour": 5.5, "noon": 7.25}, products[1].Stores)

		limited, err := repo.GetTrackedProducts(ctx, 1)
		require.NoError(t, err)
		require.Len(t, limited, 1)
		assert.Equal(t, "Modern Bakery White Bread", limited[0].NormalizedName)
	})

	t.Run("empty save", func(t *testing.T) {
		saved, err := repo.SaveSearchResults(ctx, nil)
		require.NoError(t, err)
		assert.Zero(t, saved)
	})
}
