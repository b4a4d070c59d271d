package history

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/grocerylens/backend/internal/domain"
)

// PostgresRepository stores price history in PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewPostgresRepository connects to dsn and applies the schema
func NewPostgresRepository(ctx context.Context, dsn string, maxConns int) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = int32(maxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	repo := &PostgresRepository{pool: pool, now: time.Now}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	log.Printf("[HISTORY] PostgreSQL price history ready (max %d connections)", cfg.MaxConns)
	return repo, nil
}

// Close closes the connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// SaveSearchResults records today's price of every priced store offer.
// Returns the number of groups saved.
func (r *PostgresRepository) SaveSearchResults(ctx context.Context, groups []domain.MatchedProductGroup) (int, error) {
	if len(groups) == 0 {
		return 0, nil
	}

	today := effectiveDate(r.now())

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	saved := 0
	for _, group := range groups {
		if group.MatchedName == "" {
			continue
		}

		var productID int64
		err := tx.QueryRow(ctx,
			`INSERT INTO products(normalized_name, brand, quantity_value, quantity_unit)
			 VALUES($1, NULLIF($2, ''), $3, NULLIF($4, ''))
			 ON CONFLICT (normalized_name) DO UPDATE SET normalized_name = EXCLUDED.normalized_name
			 RETURNING id`,
			group.MatchedName, group.Brand, group.QuantityValue, group.QuantityUnit,
		).Scan(&productID)
		if err != nil {
			return 0, fmt.Errorf("upsert product: %w", err)
		}

		stores := pricedOffers(group)
		storeProductIDs := make([]int64, len(stores))
		for i, store := range stores {
			offer := group.Stores[store]
			name := offer.Name
			if name == "" {
				name = group.MatchedName
			}
			err := tx.QueryRow(ctx,
				`INSERT INTO store_products(product_id, store_name, store_product_name, product_url, image_url)
				 VALUES($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''))
				 ON CONFLICT (product_id, store_name) DO UPDATE SET
				     store_product_name = EXCLUDED.store_product_name,
				     product_url = COALESCE(EXCLUDED.product_url, store_products.product_url),
				     image_url = COALESCE(EXCLUDED.image_url, store_products.image_url)
				 RETURNING id`,
				productID, store, name, offer.ProductURL, group.PrimaryImage,
			).Scan(&storeProductIDs[i])
			if err != nil {
				return 0, fmt.Errorf("upsert store product: %w", err)
			}
		}

		if err := recordPrices(ctx, tx, stores, storeProductIDs, group, today); err != nil {
			return 0, err
		}
		saved++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return saved, nil
}

// recordPrices writes the day's prices of one group (same day: last write wins)
// and retires older rows, in a single round trip
func recordPrices(ctx context.Context, tx pgx.Tx, stores []string, storeProductIDs []int64, group domain.MatchedProductGroup, day time.Time) error {
	if len(stores) == 0 {
		return nil
	}

	b := &pgx.Batch{}
	for i, store := range stores {
		b.Queue(
			`INSERT INTO price_history(store_product_id, price, effective_date, is_current)
			 VALUES($1, $2, $3, TRUE)
			 ON CONFLICT (store_product_id, effective_date) DO UPDATE SET
			     price = EXCLUDED.price,
			     is_current = TRUE,
			     created_at = now()`,
			storeProductIDs[i], *group.Stores[store].Price, day,
		)
		b.Queue(
			`UPDATE price_history SET is_current = FALSE WHERE store_product_id = $1 AND effective_date < $2`,
			storeProductIDs[i], day,
		)
	}

	br := tx.SendBatch(ctx, b)
	for k := 0; k < b.Len(); k++ {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("record price: %w", err)
		}
	}
	return br.Close()
}

const postgresProductColumns = `SELECT id, normalized_name, brand, quantity_value, quantity_unit, created_at FROM products`

// GetProductByName looks a product up by its matched name
func (r *PostgresRepository) GetProductByName(ctx context.Context, matchedName string) (*domain.TrackedProduct, error) {
	return scanPostgresProduct(r.pool.QueryRow(ctx, postgresProductColumns+` WHERE normalized_name = $1`, matchedName))
}

func (r *PostgresRepository) getProduct(ctx context.Context, productID int64) (*domain.TrackedProduct, error) {
	return scanPostgresProduct(r.pool.QueryRow(ctx, postgresProductColumns+` WHERE id = $1`, productID))
}

// GetPriceHistory returns the product's prices of the last days, newest first
func (r *PostgresRepository) GetPriceHistory(ctx context.Context, productID int64, days int) ([]domain.PricePoint, error) {
	if _, err := r.getProduct(ctx, productID); err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT sp.store_name, sp.store_product_name, ph.price, ph.effective_date
		 FROM price_history ph
		 JOIN store_products sp ON ph.store_product_id = sp.id
		 WHERE sp.product_id = $1 AND ph.effective_date >= $2
		 ORDER BY ph.effective_date DESC, sp.store_name`,
		productID, trendCutoff(r.now(), days),
	)
	if err != nil {
		return nil, fmt.Errorf("query price history: %w", err)
	}
	defer rows.Close()

	points := []domain.PricePoint{}
	for rows.Next() {
		var point domain.PricePoint
		if err := rows.Scan(&point.StoreName, &point.StoreProductName, &point.Price, &point.EffectiveDate); err != nil {
			return nil, fmt.Errorf("scan price history: %w", err)
		}
		points = append(points, point)
	}
	return points, rows.Err()
}

// GetPriceComparison returns the current price of the product at every store
func (r *PostgresRepository) GetPriceComparison(ctx context.Context, productID int64) (*domain.PriceComparison, error) {
	product, err := r.getProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT sp.store_name, sp.store_product_name, COALESCE(sp.product_url, ''), COALESCE(sp.image_url, ''),
		        ph.price, ph.effective_date
		 FROM store_products sp
		 JOIN price_history ph ON sp.id = ph.store_product_id AND ph.is_current
		 WHERE sp.product_id = $1`,
		productID,
	)
	if err != nil {
		return nil, fmt.Errorf("query current prices: %w", err)
	}
	defer rows.Close()

	comparison := &domain.PriceComparison{Product: *product, Stores: map[string]domain.StorePrice{}}
	for rows.Next() {
		var (
			store string
			price domain.StorePrice
		)
		if err := rows.Scan(&store, &price.Name, &price.ProductURL, &price.ImageURL, &price.Price, &price.LastUpdated); err != nil {
			return nil, fmt.Errorf("scan current price: %w", err)
		}
		comparison.Stores[store] = price
	}
	return comparison, rows.Err()
}

// GetTrackedProducts returns the most recently added products with their current prices
func (r *PostgresRepository) GetTrackedProducts(ctx context.Context, limit int) ([]domain.TrackedProduct, error) {
	rows, err := r.pool.Query(ctx, fmt.Sprintf(trackedProductsQuery, "$1", "TRUE"), limit)
	if err != nil {
		return nil, fmt.Errorf("query tracked products: %w", err)
	}
	defer rows.Close()

	products := []domain.TrackedProduct{}
	for rows.Next() {
		var (
			product domain.TrackedProduct
			brand   *string
			unit    *string
			store   *string
			price   *float64
		)
		if err := rows.Scan(&product.ID, &product.NormalizedName, &brand, &product.QuantityValue, &unit, &product.CreatedAt, &store, &price); err != nil {
			return nil, fmt.Errorf("scan tracked product: %w", err)
		}
		product.Brand = deref(brand)
		product.QuantityUnit = deref(unit)
		products = mergeTracked(products, product, store, price)
	}
	return products, rows.Err()
}

// Stats counts tracked products and recorded prices
func (r *PostgresRepository) Stats(ctx context.Context) (*domain.HistoryStats, error) {
	stats := &domain.HistoryStats{}
	err := r.pool.QueryRow(ctx,
		`SELECT (SELECT COUNT(*) FROM products), (SELECT COUNT(*) FROM price_history)`,
	).Scan(&stats.ProductCount, &stats.PriceCount)
	if err != nil {
		return nil, fmt.Errorf("count history: %w", err)
	}
	return stats, nil
}

func scanPostgresProduct(row pgx.Row) (*domain.TrackedProduct, error) {
	var (
		product domain.TrackedProduct
		brand   *string
		unit    *string
	)
	if err := row.Scan(&product.ID, &product.NormalizedName, &brand, &product.QuantityValue, &unit, &product.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}
	product.Brand = deref(brand)
	product.QuantityUnit = deref(unit)
	return &product, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
