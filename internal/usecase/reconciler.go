package usecase

import (
	"log"
	"math"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/grocerylens/backend/internal/domain"
)

const defaultExactMatchThreshold = 0.25

// ReconcilerConfig holds configuration for the reconciler
type ReconcilerConfig struct {
	ExactMatchThreshold float64
	EnableDebugLogging  bool
}

// Reconciler turns per-store search results into a ranked list of matched products.
// It performs no I/O and keeps no state between calls.
type Reconciler struct {
	classifier          *RelevanceClassifier
	grouper             *SimilarityGrouper
	exactMatchThreshold float64
	enableDebugLogging  bool
}

// NewReconciler creates a reconciler from its classifier and grouper
func NewReconciler(classifier *RelevanceClassifier, grouper *SimilarityGrouper, config ReconcilerConfig) *Reconciler {
	if classifier == nil {
		classifier = NewRelevanceClassifier(nil, "")
	}
	if grouper == nil {
		grouper = NewSimilarityGrouper(GrouperConfig{})
	}

	threshold := config.ExactMatchThreshold
	if threshold <= 0 {
		threshold = defaultExactMatchThreshold
	}

	return &Reconciler{
		classifier:          classifier,
		grouper:             grouper,
		exactMatchThreshold: threshold,
		enableDebugLogging:  config.EnableDebugLogging,
	}
}

// Reconcile parses every usable listing, groups them into products, scores
// each product against query and returns them best first. Stores whose result
// is not usable contribute nothing.
func (r *Reconciler) Reconcile(results map[string]domain.StoreResult, query string) []domain.MatchedProductGroup {
	stores := make([]string, 0, len(results))
	for store := range results {
		stores = append(stores, store)
	}
	sort.Strings(stores)

	var parsed []domain.ParsedListing
	for _, store := range stores {
		result := results[store]
		if !result.Usable() {
			if r.enableDebugLogging {
				log.Printf("[RECONCILE] Skipping %s: status=%s error=%q", store, result.Status, result.Error)
			}
			continue
		}

		for _, raw := range result.Products {
			if listing, ok := ParseListing(store, raw); ok {
				parsed = append(parsed, listing)
			}
		}
	}

	if len(parsed) == 0 {
		if r.enableDebugLogging {
			log.Printf("[RECONCILE] No listings to reconcile for %q", query)
		}
		return []domain.MatchedProductGroup{}
	}

	groups := r.grouper.Group(parsed)

	query = strings.TrimSpace(query)
	for i := range groups {
		r.scoreGroup(&groups[i], query)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		if a.RelevanceScore != b.RelevanceScore {
			return a.RelevanceScore > b.RelevanceScore
		}
		aExact := a.MatchType == domain.MatchTypeExact
		bExact := b.MatchType == domain.MatchTypeExact
		if aExact != bExact {
			return aExact
		}
		return unitPriceOrInf(a) < unitPriceOrInf(b)
	})

	if r.enableDebugLogging {
		log.Printf("[RECONCILE] %q: %d listings from %d stores -> %d products",
			query, len(parsed), len(stores), len(groups))
	}

	if groups == nil {
		return []domain.MatchedProductGroup{}
	}
	return groups
}

// scoreGroup sets the category, relevance score and match type of a group
func (r *Reconciler) scoreGroup(group *domain.MatchedProductGroup, query string) {
	group.Category = r.classifier.Classify(group.MatchedName)
	group.MatchType = domain.MatchTypePartial
	group.RelevanceScore = 0

	if query == "" {
		return
	}

	score := r.classifier.Score(group.MatchedName, query)
	group.RelevanceScore = score

	if score > 0 && ContainsAllTerms(group.MatchedName, query) {
		if score > r.exactMatchThreshold || r.classifier.Classify(query) == r.classifier.FreshCategory() {
			group.MatchType = domain.MatchTypeExact
		}
	}
}

// SortGroups re-orders groups by normalised unit price, normalised quantity or
// name. Products without a unit price sort last in both directions; an
// unknown key returns the groups in their original order. The input slice is
// not modified.
func SortGroups(groups []domain.MatchedProductGroup, sortBy string, ascending bool) []domain.MatchedProductGroup {
	sorted := make([]domain.MatchedProductGroup, len(groups))
	copy(sorted, groups)

	switch strings.ToLower(sortBy) {
	case domain.SortByPrice:
		sort.SliceStable(sorted, func(i, j int) bool {
			a, b := sorted[i].NormalizedUnitPrice, sorted[j].NormalizedUnitPrice
			if a == nil || b == nil {
				return a != nil && b == nil
			}
			if ascending {
				return *a < *b
			}
			return *a > *b
		})
	case domain.SortByQuantity:
		sort.SliceStable(sorted, func(i, j int) bool {
			a := NormalizeQuantity(sorted[i].QuantityValue, sorted[i].QuantityUnit)
			b := NormalizeQuantity(sorted[j].QuantityValue, sorted[j].QuantityUnit)
			if ascending {
				return a < b
			}
			return a > b
		})
	case domain.SortByName:
		c := collate.New(language.English, collate.IgnoreCase)
		sort.SliceStable(sorted, func(i, j int) bool {
			cmp := c.CompareString(sorted[i].MatchedName, sorted[j].MatchedName)
			if ascending {
				return cmp < 0
			}
			return cmp > 0
		})
	}

	return sorted
}

func unitPriceOrInf(group domain.MatchedProductGroup) float64 {
	if group.NormalizedUnitPrice == nil {
		return math.Inf(1)
	}
	return *group.NormalizedUnitPrice
}
