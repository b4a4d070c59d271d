// Package history keeps a slowly changing (type 2) record of store prices:
// one row per store product per day, with the latest day flagged current.
package history

import (
	"slices"
	"time"

	"github.com/grocerylens/backend/internal/domain"
)

const dateLayout = "2006-01-02"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS products (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    normalized_name TEXT NOT NULL UNIQUE,
    brand TEXT,
    quantity_value REAL,
    quantity_unit TEXT,
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS store_products (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    product_id INTEGER NOT NULL REFERENCES products(id),
    store_name TEXT NOT NULL,
    store_product_name TEXT NOT NULL,
    product_url TEXT,
    image_url TEXT,
    created_at TEXT NOT NULL,
    UNIQUE(product_id, store_name)
);

CREATE TABLE IF NOT EXISTS price_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    store_product_id INTEGER NOT NULL REFERENCES store_products(id),
    price REAL NOT NULL,
    effective_date TEXT NOT NULL,
    is_current INTEGER NOT NULL DEFAULT 1,
    created_at TEXT NOT NULL,
    UNIQUE(store_product_id, effective_date)
);

CREATE INDEX IF NOT EXISTS idx_price_history_store_product ON price_history(store_product_id, effective_date DESC);
CREATE INDEX IF NOT EXISTS idx_store_products_product ON store_products(product_id);
CREATE INDEX IF NOT EXISTS idx_price_history_current ON price_history(is_current, store_product_id);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS products (
    id BIGSERIAL PRIMARY KEY,
    normalized_name TEXT NOT NULL UNIQUE,
    brand TEXT,
    quantity_value DOUBLE PRECISION,
    quantity_unit TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS store_products (
    id BIGSERIAL PRIMARY KEY,
    product_id BIGINT NOT NULL REFERENCES products(id),
    store_name TEXT NOT NULL,
    store_product_name TEXT NOT NULL,
    product_url TEXT,
    image_url TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE(product_id, store_name)
);

CREATE TABLE IF NOT EXISTS price_history (
    id BIGSERIAL PRIMARY KEY,
    store_product_id BIGINT NOT NULL REFERENCES store_products(id),
    price DOUBLE PRECISION NOT NULL,
    effective_date DATE NOT NULL,
    is_current BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE(store_product_id, effective_date)
);

CREATE INDEX IF NOT EXISTS idx_price_history_store_product ON price_history(store_product_id, effective_date DESC);
CREATE INDEX IF NOT EXISTS idx_store_products_product ON store_products(product_id);
CREATE INDEX IF NOT EXISTS idx_price_history_current ON price_history(is_current, store_product_id);
`

// effectiveDate truncates t to the UTC calendar day prices are recorded under
func effectiveDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// trendCutoff returns the first day included in a history window of days
func trendCutoff(now time.Time, days int) time.Time {
	return effectiveDate(now).AddDate(0, 0, -days)
}

// pricedOffers returns the store offers of a group that carry a price, in store order
func pricedOffers(group domain.MatchedProductGroup) []string {
	stores := make([]string, 0, len(group.Stores))
	for name, offer := range group.Stores {
		if offer.Price != nil {
			stores = append(stores, name)
		}
	}
	slices.Sort(stores)
	return stores
}

// trackedProductsQuery is shared by both dialects; only the placeholder differs
const trackedProductsQuery = `
SELECT p.id, p.normalized_name, p.brand, p.quantity_value, p.quantity_unit, p.created_at,
       sp.store_name, ph.price
FROM (SELECT * FROM products ORDER BY id DESC LIMIT %s) p
LEFT JOIN store_products sp ON sp.product_id = p.id
LEFT JOIN price_history ph ON ph.store_product_id = sp.id AND ph.is_current = %s
ORDER BY p.id DESC, sp.store_name`

// mergeTracked folds one joined row into the ordered product list
func mergeTracked(products []domain.TrackedProduct, row domain.TrackedProduct, store *string, price *float64) []domain.TrackedProduct {
	if n := len(products); n == 0 || products[n-1].ID != row.ID {
		row.Stores = map[string]float64{}
		products = append(products, row)
	}
	if store != nil && price != nil {
		products[len(products)-1].Stores[*store] = *price
	}
	return products
}
