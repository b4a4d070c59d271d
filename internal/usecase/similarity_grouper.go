package usecase

import (
	"log"
	"regexp"
	"strings"

	"github.com/grocerylens/backend/internal/domain"
)

// unknownBrand is the bucket brand of listings whose brand could not be identified
const unknownBrand = "unknown"

// Default grouping parameters
const (
	defaultSimilarityThreshold = 0.8
	defaultMinStoresPerGroup   = 1
)

// quantityTokenPatterns remove quantity and pack tokens before name comparison.
// Order matters: combined multipacks first.
var quantityTokenPatterns = []*regexp.Regexp{
	// 6x330ml, 6 x 330 ml
	regexp.MustCompile(`\d+(?:\.\d+)?\s*[x×]\s*\d+(?:\.\d+)?\s*(?:kg|g|l|ml|ltr)?\b`),
	// 330mlx6
	regexp.MustCompile(`\d+(?:\.\d+)?\s*(?:kg|g|l|ml|ltr)\s*[x×]\s*\d+(?:\.\d+)?\b`),
	// 500ml, 1.5kg, 1 L
	regexp.MustCompile(`\d+(?:\.\d+)?\s*(?:kilograms?|kg|grams?|g|litres?|liters?|ltr|l|ml|pcs|pieces?|pc|packs?|pck|sqft|sq\.?\s*ft)\b`),
	// x6, x 12
	regexp.MustCompile(`\b[x×]\s*\d+\b`),
	// pack of 6
	regexp.MustCompile(`\b(?:pack of|set of|box of)\s*\d+\b`),
}

var punctuationRegex = regexp.MustCompile(`[^\p{L}\p{N}\s]`)

// marketingNoiseWords carry no product identity; "Almarai Fresh Milk" and
// "Almarai Milk" are the same carton.
var marketingNoiseWords = map[string]bool{
	"fresh": true, "new": true, "original": true, "premium": true,
	"classic": true, "value": true, "best": true, "quality": true,
}

// GrouperConfig holds configuration for the similarity grouper
type GrouperConfig struct {
	SimilarityThreshold float64
	MinStoresPerGroup   int
	EnableDebugLogging  bool
}

// SimilarityGrouper clusters parsed listings from different stores into
// groups that represent the same physical product
type SimilarityGrouper struct {
	similarityThreshold float64
	minStoresPerGroup   int
	enableDebugLogging  bool
}

// NewSimilarityGrouper creates a grouper with the given configuration
func NewSimilarityGrouper(config GrouperConfig) *SimilarityGrouper {
	threshold := config.SimilarityThreshold
	if threshold <= 0 || threshold > 1 {
		threshold = defaultSimilarityThreshold
	}

	minStores := config.MinStoresPerGroup
	if minStores <= 0 {
		minStores = defaultMinStoresPerGroup
	}

	return &SimilarityGrouper{
		similarityThreshold: threshold,
		minStoresPerGroup:   minStores,
		enableDebugLogging:  config.EnableDebugLogging,
	}
}

// BucketKeyFor returns the exact-match key a listing is pre-grouped under
func BucketKeyFor(listing domain.ParsedListing) domain.BucketKey {
	brand := strings.ToLower(strings.TrimSpace(listing.Brand))
	if brand == "" {
		brand = unknownBrand
	}

	key := domain.BucketKey{Brand: brand}
	if listing.QuantityValue != nil {
		key.HasQuantity = true
		key.Value = *listing.QuantityValue
		key.Unit = listing.QuantityUnit
	}
	return key
}

// Group buckets listings by brand and quantity, then clusters each bucket by
// name similarity. Buckets and clusters keep first-seen order.
func (g *SimilarityGrouper) Group(listings []domain.ParsedListing) []domain.MatchedProductGroup {
	if len(listings) == 0 {
		return nil
	}

	var order []domain.BucketKey
	buckets := make(map[domain.BucketKey][]domain.ParsedListing)
	for _, listing := range listings {
		key := BucketKeyFor(listing)
		if _, ok := buckets[key]; !ok {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], listing)
	}

	var groups []domain.MatchedProductGroup
	for _, key := range order {
		for _, cluster := range g.clusterBucket(buckets[key]) {
			group := buildGroup(cluster)
			if len(group.Stores) < g.minStoresPerGroup {
				if g.enableDebugLogging {
					log.Printf("[GROUP] Dropping %q: %d store(s), need %d",
						group.MatchedName, len(group.Stores), g.minStoresPerGroup)
				}
				continue
			}
			groups = append(groups, group)
		}
	}

	if g.enableDebugLogging {
		log.Printf("[GROUP] %d listings -> %d buckets -> %d groups", len(listings), len(order), len(groups))
	}

	return groups
}

// clusterBucket is a greedy single pass: each unclustered listing seeds a
// cluster and absorbs every later listing similar enough to the seed
func (g *SimilarityGrouper) clusterBucket(items []domain.ParsedListing) [][]domain.ParsedListing {
	var clusters [][]domain.ParsedListing
	clustered := make([]bool, len(items))

	for i := range items {
		if clustered[i] {
			continue
		}
		clustered[i] = true
		cluster := []domain.ParsedListing{items[i]}

		for j := i + 1; j < len(items); j++ {
			if clustered[j] {
				continue
			}
			similarity := JaccardSimilarity(items[i].OriginalName, items[j].OriginalName)
			if g.enableDebugLogging {
				log.Printf("[GROUP] %q ~ %q = %.2f", items[i].OriginalName, items[j].OriginalName, similarity)
			}
			if similarity >= g.similarityThreshold {
				cluster = append(cluster, items[j])
				clustered[j] = true
			}
		}

		clusters = append(clusters, cluster)
	}

	return clusters
}

// buildGroup turns a cluster into a MatchedProductGroup. The seed listing
// names the group; each store keeps its cheapest listing.
func buildGroup(cluster []domain.ParsedListing) domain.MatchedProductGroup {
	seed := cluster[0]
	group := domain.MatchedProductGroup{
		MatchedName:  seed.OriginalName,
		Brand:        seed.Brand,
		QuantityUnit: seed.QuantityUnit,
		MatchType:    domain.MatchTypePartial,
		Stores:       make(map[string]domain.StoreOffer),
	}
	if seed.QuantityValue != nil {
		value := *seed.QuantityValue
		group.QuantityValue = &value
	}

	var minPrice *float64
	for _, listing := range cluster {
		if group.PrimaryImage == "" && listing.ImageURL != "" {
			group.PrimaryImage = listing.ImageURL
		}

		price := listing.Price
		if price != nil && (minPrice == nil || *price < *minPrice) {
			p := *price
			minPrice = &p
		}

		if listing.SourceStore == "" {
			continue
		}
		existing, ok := group.Stores[listing.SourceStore]
		if !ok || (price != nil && (existing.Price == nil || *price < *existing.Price)) {
			group.Stores[listing.SourceStore] = domain.StoreOffer{
				Name:       listing.OriginalName,
				Price:      price,
				ProductURL: listing.ProductURL,
			}
		}
	}

	if minPrice != nil {
		if quantity := NormalizeQuantity(group.QuantityValue, group.QuantityUnit); quantity > 0 {
			unitPrice := *minPrice / quantity
			group.NormalizedUnitPrice = &unitPrice
		}
	}

	return group
}

// JaccardSimilarity compares two product names as word sets, ignoring word
// order, quantity tokens, punctuation and marketing noise. Returns 0 when
// either name has no identity words left.
func JaccardSimilarity(name1, name2 string) float64 {
	tokens1 := tokenize(name1)
	tokens2 := tokenize(name2)
	if len(tokens1) == 0 || len(tokens2) == 0 {
		return 0
	}

	matched, _ := findIntersection(tokens1, tokens2)
	union := findUnion(tokens1, tokens2)
	if union == 0 {
		return 0
	}
	return float64(matched) / float64(union)
}

// tokenize splits a product name into lowercase identity words
func tokenize(s string) []string {
	cleaned := strings.ToLower(s)
	for _, pattern := range quantityTokenPatterns {
		cleaned = pattern.ReplaceAllString(cleaned, " ")
	}
	cleaned = punctuationRegex.ReplaceAllString(cleaned, " ")

	var tokens []string
	for _, word := range strings.Fields(cleaned) {
		if marketingNoiseWords[word] {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// findIntersection returns the count of common tokens and the list of matched tokens
func findIntersection(tokens1, tokens2 []string) (int, []string) {
	set := make(map[string]bool)
	for _, t := range tokens1 {
		set[t] = true
	}

	var matched []string
	seen := make(map[string]bool)
	for _, t := range tokens2 {
		if set[t] && !seen[t] {
			matched = append(matched, t)
			seen[t] = true
		}
	}

	return len(matched), matched
}

// findUnion returns the count of unique tokens across both sets
func findUnion(tokens1, tokens2 []string) int {
	set := make(map[string]bool)
	for _, t := range tokens1 {
		set[t] = true
	}
	for _, t := range tokens2 {
		set[t] = true
	}
	return len(set)
}
