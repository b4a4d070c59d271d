package search

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"log"
	"slices"
	"strconv"
	"strings"

	"github.com/meilisearch/meilisearch-go"

	"github.com/grocerylens/backend/internal/domain"
)

const defaultIndex = "products"

// productDocument is the indexed form of a reconciled product
type productDocument struct {
	ID            string   `json:"id"`
	MatchedName   string   `json:"matched_name"`
	Brand         string   `json:"brand"`
	Category      string   `json:"category,omitempty"`
	QuantityValue *float64 `json:"quantity_value,omitempty"`
	QuantityUnit  string   `json:"quantity_unit,omitempty"`
	Stores        []string `json:"stores"`
	MinPrice      *float64 `json:"min_price,omitempty"`
	Image         string   `json:"image,omitempty"`
}

// MeiliIndexer publishes reconciled products to Meilisearch and serves name suggestions
type MeiliIndexer struct {
	index meilisearch.IndexManager
	uid   string
}

// NewMeiliIndexer connects to the Meilisearch server at url and prepares the index
func NewMeiliIndexer(url, apiKey, indexUID string) *MeiliIndexer {
	if indexUID == "" {
		indexUID = defaultIndex
	}

	client := meilisearch.New(url, meilisearch.WithAPIKey(apiKey))
	if _, err := client.CreateIndex(&meilisearch.IndexConfig{Uid: indexUID, PrimaryKey: "id"}); err != nil {
		log.Printf("[INDEX] Could not create index %s: %v", indexUID, err)
	}

	index := client.Index(indexUID)
	settings := meilisearch.Settings{
		SearchableAttributes: []string{"matched_name", "brand", "category"},
		SortableAttributes:   []string{"min_price", "matched_name"},
	}
	if _, err := index.UpdateSettings(&settings); err != nil {
		log.Printf("[INDEX] Could not update settings of %s: %v", indexUID, err)
	}

	return &MeiliIndexer{index: index, uid: indexUID}
}

// IndexGroups adds or replaces the documents of the given groups
func (m *MeiliIndexer) IndexGroups(ctx context.Context, groups []domain.MatchedProductGroup) error {
	if len(groups) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	docs := make([]productDocument, 0, len(groups))
	for _, group := range groups {
		if doc, ok := toDocument(group); ok {
			docs = append(docs, doc)
		}
	}
	if len(docs) == 0 {
		return nil
	}

	if _, err := m.index.AddDocuments(docs, nil); err != nil {
		return fmt.Errorf("add documents to %s: %w", m.uid, err)
	}
	return nil
}

// Suggest returns distinct product names matching query, best match first
func (m *MeiliIndexer) Suggest(ctx context.Context, query string, limit int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := m.index.Search(query, &meilisearch.SearchRequest{
		Limit:                int64(limit),
		AttributesToRetrieve: []string{"matched_name"},
	})
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", m.uid, err)
	}

	// Hits are decoded through JSON so the hit representation of the client does not leak
	raw, err := json.Marshal(res.Hits)
	if err != nil {
		return nil, err
	}
	var hits []struct {
		MatchedName string `json:"matched_name"`
	}
	if err := json.Unmarshal(raw, &hits); err != nil {
		return nil, fmt.Errorf("decode hits: %w", err)
	}

	suggestions := make([]string, 0, len(hits))
	for _, hit := range hits {
		if hit.MatchedName != "" && !slices.Contains(suggestions, hit.MatchedName) {
			suggestions = append(suggestions, hit.MatchedName)
		}
	}
	return suggestions, nil
}

func toDocument(group domain.MatchedProductGroup) (productDocument, bool) {
	id := documentID(group)
	if id == "" {
		return productDocument{}, false
	}

	doc := productDocument{
		ID:            id,
		MatchedName:   group.MatchedName,
		Brand:         group.Brand,
		Category:      group.Category,
		QuantityValue: group.QuantityValue,
		QuantityUnit:  group.QuantityUnit,
		Stores:        make([]string, 0, len(group.Stores)),
		Image:         group.PrimaryImage,
	}
	for store, offer := range group.Stores {
		doc.Stores = append(doc.Stores, store)
		if offer.Price != nil && (doc.MinPrice == nil || *offer.Price < *doc.MinPrice) {
			price := *offer.Price
			doc.MinPrice = &price
		}
	}
	slices.Sort(doc.Stores)
	return doc, true
}

// documentID prefers the price history ID and falls back to a slug of the
// matched name, limited to the characters Meilisearch accepts in a primary key
func documentID(group domain.MatchedProductGroup) string {
	if group.ProductID != nil {
		return "p" + strconv.FormatInt(*group.ProductID, 10)
	}

	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(group.MatchedName) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		if strings.TrimSpace(group.MatchedName) == "" {
			return ""
		}
		// Names without Latin letters or digits, e.g. Arabic listings
		h := fnv.New64a()
		h.Write([]byte(group.MatchedName))
		return "h-" + strconv.FormatUint(h.Sum64(), 16)
	}
	if len(slug) > 500 {
		slug = slug[:500]
	}
	return "n-" + slug
}
