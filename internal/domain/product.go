package domain

import "time"

// Match types assigned by the reconciler
const (
	MatchTypeExact   = "exact"
	MatchTypePartial = "partial"
)

// StoreOffer is the listing a store contributes to a matched product
type StoreOffer struct {
	Name       string   `json:"name"`
	Price      *float64 `json:"price"`
	ProductURL string   `json:"product_url,omitempty"`
}

// MatchedProductGroup represents the same physical product found across one or more stores
type MatchedProductGroup struct {
	ProductID           *int64                `json:"product_id,omitempty"`
	MatchedName         string                `json:"matched_name"`
	Brand               string                `json:"brand"`
	PrimaryImage        string                `json:"primary_image,omitempty"`
	QuantityValue       *float64              `json:"quantity_value"`
	QuantityUnit        string                `json:"quantity_unit,omitempty"`
	NormalizedUnitPrice *float64              `json:"normalized_unit_price"`
	MatchType           string                `json:"match_type"`
	RelevanceScore      float64               `json:"relevance_score"`
	Category            string                `json:"category,omitempty"`
	Stores              map[string]StoreOffer `json:"stores"`
	Trend               []PricePoint          `json:"trend,omitempty"`
}

// PricePoint is one recorded price of a product at one store on one day
type PricePoint struct {
	StoreName        string    `json:"store_name"`
	StoreProductName string    `json:"store_product_name"`
	Price            float64   `json:"price"`
	EffectiveDate    time.Time `json:"effective_date"`
}

// TrackedProduct is a canonical product known to the price history store
type TrackedProduct struct {
	ID             int64              `json:"id"`
	NormalizedName string             `json:"normalized_name"`
	Brand          string             `json:"brand,omitempty"`
	QuantityValue  *float64           `json:"quantity_value"`
	QuantityUnit   string             `json:"quantity_unit,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	Stores         map[string]float64 `json:"stores,omitempty"`
}

// StorePrice is the current price of a product at one store
type StorePrice struct {
	Name        string    `json:"name"`
	Price       float64   `json:"price"`
	ProductURL  string    `json:"product_url,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	LastUpdated time.Time `json:"last_updated"`
}

// PriceComparison lists the current prices of one product across stores
type PriceComparison struct {
	Product TrackedProduct        `json:"product"`
	Stores  map[string]StorePrice `json:"stores"`
}

// HistoryStats summarises the price history store
type HistoryStats struct {
	ProductCount int64 `json:"product_count"`
	PriceCount   int64 `json:"price_count"`
}
