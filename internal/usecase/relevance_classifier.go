package usecase

import (
	"regexp"
	"strings"

	"github.com/grocerylens/backend/internal/domain"
)

// Relevance score weights
const (
	exactNameBonus     = 0.5  // name equals the query
	prefixBonus        = 0.3  // name starts with the query
	processedPenalty   = 0.5  // processed product for a fresh query
	categoryMatchBonus = 0.2  // product and query share a category
	identityBonus      = 0.4  // noise-stripped name equals the query
	leadingTermWeight  = 0.15 // divided by the term's 1-based position
	trailingTermBonus  = 0.05 // whole-word term found past leadingTermWindow
	substringPenalty   = 0.1  // term only found inside a larger word
	leadingTermWindow  = 20
)

// relevanceNoiseRegex strips weights, units and symbols before the identity check
var relevanceNoiseRegex = regexp.MustCompile(`\b(\d+\s*(kg|g|l|ml|pcs|pack|pk|bunch|grams|kilogram|oz|cm|mm|mtr))\b|[\(\)\-\,\+]`)

type keywordMatcher struct {
	category string
	patterns []*regexp.Regexp
}

// RelevanceClassifier scores product names against a search query and assigns
// coarse categories from a keyword table it is given.
type RelevanceClassifier struct {
	categories    []keywordMatcher
	disqualifiers []string
	freshCategory string
}

// NewRelevanceClassifier compiles the keyword table. A nil table falls back to
// domain.DefaultCategoryTable; an empty freshCategory to domain.FreshProduceCategory.
func NewRelevanceClassifier(table *domain.CategoryTable, freshCategory string) *RelevanceClassifier {
	if table == nil {
		table = domain.DefaultCategoryTable()
	}
	if freshCategory == "" {
		freshCategory = domain.FreshProduceCategory
	}

	c := &RelevanceClassifier{freshCategory: freshCategory}
	for _, category := range table.Categories {
		matcher := keywordMatcher{category: category.Name}
		for _, kw := range category.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}
			matcher.patterns = append(matcher.patterns, wholeWordRegex(kw))
		}
		c.categories = append(c.categories, matcher)
	}
	for _, dq := range table.Disqualifiers {
		if dq = strings.ToLower(strings.TrimSpace(dq)); dq != "" {
			c.disqualifiers = append(c.disqualifiers, dq)
		}
	}
	return c
}

// FreshCategory returns the category whose queries penalise processed products
func (c *RelevanceClassifier) FreshCategory() string {
	return c.freshCategory
}

// Classify returns the first category whose keyword appears as a whole word in
// text, or "" when none does. Processed products are never fresh.
func (c *RelevanceClassifier) Classify(text string) string {
	if text == "" {
		return ""
	}
	lower := strings.ToLower(text)
	processed := c.isProcessed(lower)

	for _, matcher := range c.categories {
		if matcher.category == c.freshCategory && processed {
			continue
		}
		for _, pattern := range matcher.patterns {
			if pattern.MatchString(lower) {
				return matcher.category
			}
		}
	}
	return ""
}

// Score returns how well name matches query, clamped to [0, 1]
func (c *RelevanceClassifier) Score(name, query string) float64 {
	name = strings.ToLower(name)
	query = strings.ToLower(query)
	terms := strings.Fields(query)
	if len(terms) == 0 {
		return 0
	}

	allWholeWords := containsAllWholeWords(name, terms)
	score := 0.0

	if name == query {
		score += exactNameBonus
	}
	if strings.HasPrefix(name, query) {
		score += prefixBonus
	}

	queryCategory := c.Classify(query)
	productCategory := c.Classify(name)

	switch {
	case queryCategory == c.freshCategory:
		if c.isProcessed(name) {
			score -= processedPenalty
		} else if productCategory == c.freshCategory && allWholeWords {
			score += categoryMatchBonus
			if stripRelevanceNoise(name) == query {
				score += identityBonus
			}
		}
	case queryCategory != "" && productCategory == queryCategory && allWholeWords:
		score += categoryMatchBonus
	}

	for i, term := range terms {
		if wholeWordRegex(term).MatchString(name) {
			if strings.Index(name, term) < leadingTermWindow {
				score += leadingTermWeight / float64(i+1)
			} else {
				score += trailingTermBonus
			}
		} else if strings.Contains(name, term) {
			score -= substringPenalty
		}
	}

	return clampScore(score)
}

// ContainsAllTerms reports whether every query term appears in name as a whole word
func ContainsAllTerms(name, query string) bool {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return false
	}
	return containsAllWholeWords(strings.ToLower(name), terms)
}

func (c *RelevanceClassifier) isProcessed(lower string) bool {
	for _, dq := range c.disqualifiers {
		if strings.Contains(lower, dq) {
			return true
		}
	}
	return false
}

func containsAllWholeWords(lower string, terms []string) bool {
	for _, term := range terms {
		if !wholeWordRegex(term).MatchString(lower) {
			return false
		}
	}
	return true
}

// wholeWordRegex matches word between non-word characters. RE2's \b only knows
// ASCII, so word boundaries are spelled out to cover accented and non-Latin names.
func wholeWordRegex(word string) *regexp.Regexp {
	return regexp.MustCompile(`(?:^|[^\p{L}\p{N}_])` + regexp.QuoteMeta(word) + `(?:$|[^\p{L}\p{N}_])`)
}

func stripRelevanceNoise(name string) string {
	cleaned := relevanceNoiseRegex.ReplaceAllString(name, "")
	return strings.Join(strings.Fields(cleaned), " ")
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
