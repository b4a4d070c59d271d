package http

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/grocerylens/backend/internal/domain"
	"github.com/grocerylens/backend/internal/usecase"
)

const (
	serviceName    = "grocerylens-backend"
	serviceVersion = "1.0.0"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	searchService  *usecase.SearchService
	historyService *usecase.PriceHistoryService
	stores         []string
}

// NewHandler creates a new HTTP handler. Either service may be nil; its
// endpoints then answer 503.
func NewHandler(searchService *usecase.SearchService, historyService *usecase.PriceHistoryService, stores []string) *Handler {
	return &Handler{
		searchService:  searchService,
		historyService: historyService,
		stores:         stores,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	stores := h.stores
	if stores == nil {
		stores = []string{}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
		"version": serviceVersion,
		"stores":  stores,
		"history": h.historyService != nil && h.historyService.Enabled(),
	})
}

// SearchProducts handles product search requests
func (h *Handler) SearchProducts(c *gin.Context) {
	if h.searchService == nil {
		respondNotConfigured(c, "Product search")
		return
	}

	var req domain.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	response, err := h.searchService.Search(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// SortProducts re-orders a product list returned by a previous search
func (h *Handler) SortProducts(c *gin.Context) {
	if h.searchService == nil {
		respondNotConfigured(c, "Product search")
		return
	}

	var req domain.SortRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	products, err := h.searchService.Sort(&req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// SuggestProducts returns product names matching a partial query
func (h *Handler) SuggestProducts(c *gin.Context) {
	if h.searchService == nil {
		respondNotConfigured(c, "Product search")
		return
	}

	limit, ok := intQuery(c, "limit")
	if !ok {
		return
	}

	suggestions, err := h.searchService.Suggest(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

// TrackedProducts lists the products with recorded prices
func (h *Handler) TrackedProducts(c *gin.Context) {
	if h.historyService == nil {
		respondNotConfigured(c, "Price history")
		return
	}

	limit, ok := intQuery(c, "limit")
	if !ok {
		return
	}

	products, err := h.historyService.TrackedProducts(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// PriceHistory returns the recorded prices of one product
func (h *Handler) PriceHistory(c *gin.Context) {
	if h.historyService == nil {
		respondNotConfigured(c, "Price history")
		return
	}

	id, ok := productID(c)
	if !ok {
		return
	}
	days, ok := intQuery(c, "days")
	if !ok {
		return
	}

	points, err := h.historyService.PriceHistory(c.Request.Context(), id, days)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product_id": id, "history": points})
}

// PriceComparison returns the current price of one product at every store
func (h *Handler) PriceComparison(c *gin.Context) {
	if h.historyService == nil {
		respondNotConfigured(c, "Price history")
		return
	}

	id, ok := productID(c)
	if !ok {
		return
	}

	comparison, err := h.historyService.Comparison(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comparison)
}

// Stats returns price history counters
func (h *Handler) Stats(c *gin.Context) {
	if h.historyService == nil {
		respondNotConfigured(c, "Price history")
		return
	}

	stats, err := h.historyService.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// respondError maps domain errors to HTTP status codes
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrProductNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrAllStoresFailed):
		status = http.StatusBadGateway
	case errors.Is(err, domain.ErrNoStores),
		errors.Is(err, domain.ErrHistoryUnavailable),
		errors.Is(err, domain.ErrIndexUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}

	if status == http.StatusInternalServerError {
		log.Printf("[HTTP] %s %s failed: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func respondNotConfigured(c *gin.Context, feature string) {
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": feature + " is not configured"})
}

// intQuery parses an optional integer query parameter; absent means 0
func intQuery(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name + " parameter"})
		return 0, false
	}
	return value, true
}

func productID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product id"})
		return 0, false
	}
	return id, true
}
