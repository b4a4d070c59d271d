package domain

import "errors"

var (
	// ErrProductNotFound is returned when a product is not known to the price history store
	ErrProductNotFound = errors.New("product not found")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrStoreFailure is returned when a store adapter cannot complete a search
	ErrStoreFailure = errors.New("store search failed")

	// ErrNoStores is returned when a search is attempted without any configured store
	ErrNoStores = errors.New("no stores configured")

	// ErrAllStoresFailed is returned when every store failed during a search
	ErrAllStoresFailed = errors.New("all stores failed")

	// ErrHistoryUnavailable is returned when price history is disabled or unreachable
	ErrHistoryUnavailable = errors.New("price history unavailable")

	// ErrIndexUnavailable is returned when the product search index is disabled or unreachable
	ErrIndexUnavailable = errors.New("product index unavailable")
)
