package domain

// StoreStatus tells the reconciler whether a store's listings can be used
type StoreStatus string

const (
	StoreStatusOK    StoreStatus = "ok"
	StoreStatusEmpty StoreStatus = "empty"
	StoreStatusError StoreStatus = "error"
)

// RawListing is one scraped item from one store, exactly as the store adapter saw it
type RawListing struct {
	SourceStore string `json:"source_store,omitempty"`
	DisplayName string `json:"name"`
	PriceText   string `json:"price"`
	ImageURL    string `json:"image_url,omitempty"`
	ProductURL  string `json:"product_url,omitempty"`
}

// StoreResult is the outcome of searching a single store
type StoreResult struct {
	Store    string       `json:"store"`
	Status   StoreStatus  `json:"status"`
	Products []RawListing `json:"products"`
	Location string       `json:"location,omitempty"`
	Error    string       `json:"error,omitempty"`
}

// Usable reports whether the result carries listings worth parsing.
// A result without a status counts as a successful search.
func (r StoreResult) Usable() bool {
	return (r.Status == StoreStatusOK || r.Status == "") && len(r.Products) > 0
}

// ParsedListing is a RawListing after name, quantity and price extraction
type ParsedListing struct {
	SourceStore   string   `json:"source_store"`
	OriginalName  string   `json:"original_name"`
	Brand         string   `json:"brand"`
	CleanedName   string   `json:"cleaned_name"`
	QuantityValue *float64 `json:"quantity_value"`
	QuantityUnit  string   `json:"quantity_unit,omitempty"`
	Price         *float64 `json:"price"`
	ImageURL      string   `json:"image_url,omitempty"`
	ProductURL    string   `json:"product_url,omitempty"`
}

// BucketKey groups listings that can possibly be the same product.
// Listings without a quantity share the HasQuantity=false bucket of their brand.
type BucketKey struct {
	Brand       string
	HasQuantity bool
	Value       float64
	Unit        string
}
