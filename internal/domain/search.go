package domain

import "time"

// Sort keys accepted by the sort utility
const (
	SortByPrice    = "price"
	SortByQuantity = "quantity"
	SortByName     = "name"
)

// SearchRequest represents a product search across all configured stores
type SearchRequest struct {
	Query     string `json:"query" binding:"required"`
	SortBy    string `json:"sort_by,omitempty"`
	Ascending *bool  `json:"ascending,omitempty"`
}

// SortRequest re-orders an already reconciled product list
type SortRequest struct {
	Products  []MatchedProductGroup `json:"products"`
	SortBy    string                `json:"sort_by"`
	Ascending *bool                 `json:"ascending,omitempty"`
}

// StoreSummary reports how a single store behaved during a search
type StoreSummary struct {
	Status   StoreStatus `json:"status"`
	Count    int         `json:"count"`
	Location string      `json:"location,omitempty"`
	Error    string      `json:"error,omitempty"`
}

// SearchResponse is the reconciled answer to a SearchRequest
type SearchResponse struct {
	Query      string                  `json:"query"`
	Products   []MatchedProductGroup   `json:"products"`
	Stores     map[string]StoreSummary `json:"stores"`
	Source     string                  `json:"source"` // "live" or "cache"
	SearchedAt time.Time               `json:"searched_at"`
}
