package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/grocerylens/backend/internal/domain"
)

// SQLiteRepository stores price history in an embedded SQLite database
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteRepository opens (creating if needed) the database at path and applies the schema
func NewSQLiteRepository(path string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection serialises writers; SQLite allows only one at a time anyway
	db.SetMaxOpenConns(1)

	repo := &SQLiteRepository{db: db, now: time.Now}
	if err := repo.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	log.Printf("[HISTORY] SQLite price history ready at %s", path)
	return repo, nil
}

// Close closes the database
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
		return fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// SaveSearchResults records today's price of every priced store offer.
// Returns the number of groups saved.
func (r *SQLiteRepository) SaveSearchResults(ctx context.Context, groups []domain.MatchedProductGroup) (int, error) {
	if len(groups) == 0 {
		return 0, nil
	}

	now := r.now().UTC()
	timestamp := now.Format(time.RFC3339)
	today := effectiveDate(now).Format(dateLayout)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	saved := 0
	for _, group := range groups {
		if group.MatchedName == "" {
			continue
		}

		productID, err := r.upsertProduct(ctx, tx, group, timestamp)
		if err != nil {
			return 0, err
		}

		for _, store := range pricedOffers(group) {
			offer := group.Stores[store]
			storeProductID, err := r.upsertStoreProduct(ctx, tx, productID, store, offer, group, timestamp)
			if err != nil {
				return 0, err
			}
			if err := r.recordPrice(ctx, tx, storeProductID, *offer.Price, today, timestamp); err != nil {
				return 0, err
			}
		}
		saved++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return saved, nil
}

func (r *SQLiteRepository) upsertProduct(ctx context.Context, tx *sql.Tx, group domain.MatchedProductGroup, timestamp string) (int64, error) {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO products(normalized_name, brand, quantity_value, quantity_unit, created_at)
		 VALUES(?, ?, ?, ?, ?)
		 ON CONFLICT(normalized_name) DO NOTHING`,
		group.MatchedName, nullString(group.Brand), nullFloat(group.QuantityValue), nullString(group.QuantityUnit), timestamp,
	)
	if err != nil {
		return 0, fmt.Errorf("insert product: %w", err)
	}

	var id int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM products WHERE normalized_name = ?`, group.MatchedName).Scan(&id); err != nil {
		return 0, fmt.Errorf("select product: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) upsertStoreProduct(ctx context.Context, tx *sql.Tx, productID int64, store string, offer domain.StoreOffer, group domain.MatchedProductGroup, timestamp string) (int64, error) {
	name := offer.Name
	if name == "" {
		name = group.MatchedName
	}

	_, err := tx.ExecContext(ctx,
		`INSERT INTO store_products(product_id, store_name, store_product_name, product_url, image_url, created_at)
		 VALUES(?, ?, ?, ?, ?, ?)
		 ON CONFLICT(product_id, store_name) DO UPDATE SET
		     store_product_name = excluded.store_product_name,
		     product_url = COALESCE(excluded.product_url, store_products.product_url),
		     image_url = COALESCE(excluded.image_url, store_products.image_url)`,
		productID, store, name, nullString(offer.ProductURL), nullString(group.PrimaryImage), timestamp,
	)
	if err != nil {
		return 0, fmt.Errorf("upsert store product: %w", err)
	}

	var id int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM store_products WHERE product_id = ? AND store_name = ?`, productID, store,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("select store product: %w", err)
	}
	return id, nil
}

// recordPrice writes the day's price (same day: last write wins) and retires older rows
func (r *SQLiteRepository) recordPrice(ctx context.Context, tx *sql.Tx, storeProductID int64, price float64, day, timestamp string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO price_history(store_product_id, price, effective_date, is_current, created_at)
		 VALUES(?, ?, ?, 1, ?)
		 ON CONFLICT(store_product_id, effective_date) DO UPDATE SET
		     price = excluded.price,
		     is_current = 1,
		     created_at = excluded.created_at`,
		storeProductID, price, day, timestamp,
	)
	if err != nil {
		return fmt.Errorf("record price: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE price_history SET is_current = 0 WHERE store_product_id = ? AND effective_date < ?`,
		storeProductID, day,
	)
	if err != nil {
		return fmt.Errorf("retire old prices: %w", err)
	}
	return nil
}

// GetProductByName looks a product up by its matched name
func (r *SQLiteRepository) GetProductByName(ctx context.Context, matchedName string) (*domain.TrackedProduct, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, normalized_name, brand, quantity_value, quantity_unit, created_at
		 FROM products WHERE normalized_name = ?`, matchedName,
	)
	return scanSQLiteProduct(row)
}

func (r *SQLiteRepository) getProduct(ctx context.Context, productID int64) (*domain.TrackedProduct, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, normalized_name, brand, quantity_value, quantity_unit, created_at
		 FROM products WHERE id = ?`, productID,
	)
	return scanSQLiteProduct(row)
}

// GetPriceHistory returns the product's prices of the last days, newest first
func (r *SQLiteRepository) GetPriceHistory(ctx context.Context, productID int64, days int) ([]domain.PricePoint, error) {
	if _, err := r.getProduct(ctx, productID); err != nil {
		return nil, err
	}

	cutoff := trendCutoff(r.now(), days).Format(dateLayout)
	rows, err := r.db.QueryContext(ctx,
		`SELECT sp.store_name, sp.store_product_name, ph.price, ph.effective_date
		 FROM price_history ph
		 JOIN store_products sp ON ph.store_product_id = sp.id
		 WHERE sp.product_id = ? AND ph.effective_date >= ?
		 ORDER BY ph.effective_date DESC, sp.store_name`,
		productID, cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("query price history: %w", err)
	}
	defer rows.Close()

	points := []domain.PricePoint{}
	for rows.Next() {
		var (
			point domain.PricePoint
			day   string
		)
		if err := rows.Scan(&point.StoreName, &point.StoreProductName, &point.Price, &day); err != nil {
			return nil, fmt.Errorf("scan price history: %w", err)
		}
		if point.EffectiveDate, err = time.Parse(dateLayout, day); err != nil {
			return nil, fmt.Errorf("parse effective date %q: %w", day, err)
		}
		points = append(points, point)
	}
	return points, rows.Err()
}

// GetPriceComparison returns the current price of the product at every store
func (r *SQLiteRepository) GetPriceComparison(ctx context.Context, productID int64) (*domain.PriceComparison, error) {
	product, err := r.getProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT sp.store_name, sp.store_product_name, sp.product_url, sp.image_url, ph.price, ph.effective_date
		 FROM store_products sp
		 JOIN price_history ph ON sp.id = ph.store_product_id AND ph.is_current = 1
		 WHERE sp.product_id = ?`,
		productID,
	)
	if err != nil {
		return nil, fmt.Errorf("query current prices: %w", err)
	}
	defer rows.Close()

	comparison := &domain.PriceComparison{Product: *product, Stores: map[string]domain.StorePrice{}}
	for rows.Next() {
		var (
			store      string
			price      domain.StorePrice
			productURL sql.NullString
			imageURL   sql.NullString
			day        string
		)
		if err := rows.Scan(&store, &price.Name, &productURL, &imageURL, &price.Price, &day); err != nil {
			return nil, fmt.Errorf("scan current price: %w", err)
		}
		price.ProductURL = productURL.String
		price.ImageURL = imageURL.String
		if price.LastUpdated, err = time.Parse(dateLayout, day); err != nil {
			return nil, fmt.Errorf("parse effective date %q: %w", day, err)
		}
		comparison.Stores[store] = price
	}
	return comparison, rows.Err()
}

// GetTrackedProducts returns the most recently added products with their current prices
func (r *SQLiteRepository) GetTrackedProducts(ctx context.Context, limit int) ([]domain.TrackedProduct, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(trackedProductsQuery, "?", "1"), limit)
	if err != nil {
		return nil, fmt.Errorf("query tracked products: %w", err)
	}
	defer rows.Close()

	products := []domain.TrackedProduct{}
	for rows.Next() {
		var (
			product   domain.TrackedProduct
			brand     sql.NullString
			quantity  sql.NullFloat64
			unit      sql.NullString
			createdAt string
			store     sql.Null[string]
			price     sql.Null[float64]
		)
		if err := rows.Scan(&product.ID, &product.NormalizedName, &brand, &quantity, &unit, &createdAt, &store, &price); err != nil {
			return nil, fmt.Errorf("scan tracked product: %w", err)
		}
		fillProduct(&product, brand, quantity, unit, createdAt)
		products = mergeTracked(products, product, nullablePtr(store), nullablePtr(price))
	}
	return products, rows.Err()
}

// Stats counts tracked products and recorded prices
func (r *SQLiteRepository) Stats(ctx context.Context) (*domain.HistoryStats, error) {
	stats := &domain.HistoryStats{}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&stats.ProductCount); err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM price_history`).Scan(&stats.PriceCount); err != nil {
		return nil, fmt.Errorf("count prices: %w", err)
	}
	return stats, nil
}

func scanSQLiteProduct(row *sql.Row) (*domain.TrackedProduct, error) {
	var (
		product   domain.TrackedProduct
		brand     sql.NullString
		quantity  sql.NullFloat64
		unit      sql.NullString
		createdAt string
	)
	if err := row.Scan(&product.ID, &product.NormalizedName, &brand, &quantity, &unit, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}
	fillProduct(&product, brand, quantity, unit, createdAt)
	return &product, nil
}

func fillProduct(product *domain.TrackedProduct, brand sql.NullString, quantity sql.NullFloat64, unit sql.NullString, createdAt string) {
	product.Brand = brand.String
	product.QuantityUnit = unit.String
	if quantity.Valid {
		value := quantity.Float64
		product.QuantityValue = &value
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		product.CreatedAt = t
	}
}

func nullablePtr[T any](value sql.Null[T]) *T {
	if !value.Valid {
		return nil
	}
	v := value.V
	return &v
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
