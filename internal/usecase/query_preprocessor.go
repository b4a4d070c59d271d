package usecase

import (
	"log"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// maxQueryLength keeps store search URLs short
const maxQueryLength = 100

// QueryPreprocessor cleans user search queries before they are sent to stores
type QueryPreprocessor struct {
	enableDebugLogging bool
}

// Compiled regex patterns for query preprocessing
var (
	// Characters that break store search URLs
	specialCharsRegex = regexp.MustCompile(`[#%+@!^*()=\[\]{}<>|\\~?;:"` + "`" + `]`)

	// Lone punctuation left behind after cleanup
	orphanedPunctuationRegex = regexp.MustCompile(`(^|\s)[,.\-/']+(\s|$)`)
)

// shoppingNoiseWords describe the intent to buy, not the product
var shoppingNoiseWords = map[string]bool{
	"buy":      true,
	"cheap":    true,
	"cheapest": true,
	"best":     true,
	"price":    true,
	"prices":   true,
	"deal":     true,
	"deals":    true,
	"offer":    true,
	"offers":   true,
	"online":   true,
	"near":     true,
	"me":       true,
}

// NewQueryPreprocessor creates a new query preprocessor
func NewQueryPreprocessor(enableDebugLogging bool) *QueryPreprocessor {
	return &QueryPreprocessor{
		enableDebugLogging: enableDebugLogging,
	}
}

// PreprocessQuery normalises a user query: NFC form, lower case, no URL-hostile
// characters, no shopping noise words and collapsed whitespace. A query made
// only of noise words is kept as typed.
func (p *QueryPreprocessor) PreprocessQuery(query string) string {
	if strings.TrimSpace(query) == "" {
		return ""
	}

	original := query

	// Step 1: Unicode composition so "é" typed two ways hits the same cache entry
	cleaned := norm.NFC.String(query)
	cleaned = strings.ToLower(cleaned)

	// Step 2: Remove characters stores reject
	cleaned = strings.ReplaceAll(cleaned, "&", " and ")
	cleaned = specialCharsRegex.ReplaceAllString(cleaned, " ")
	cleaned = orphanedPunctuationRegex.ReplaceAllString(cleaned, " ")

	// Step 3: Remove noise words
	if withoutNoise := p.removeNoiseWords(cleaned); withoutNoise != "" {
		cleaned = withoutNoise
	}

	// Step 4: Normalize whitespace
	cleaned = multipleSpacesRegex.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)

	// Step 5: Limit query length, cutting at a word boundary when possible
	if len(cleaned) > maxQueryLength {
		cleaned = cleaned[:maxQueryLength]
		if lastSpace := strings.LastIndex(cleaned, " "); lastSpace > maxQueryLength/2 {
			cleaned = cleaned[:lastSpace]
		}
		cleaned = strings.ToValidUTF8(cleaned, "")
	}

	if p.enableDebugLogging {
		log.Printf("[PREPROCESS] Input: %q -> Output: %q", original, cleaned)
	}

	return cleaned
}

// removeNoiseWords removes shopping terms from the query
func (p *QueryPreprocessor) removeNoiseWords(s string) string {
	var kept []string
	for _, word := range strings.Fields(s) {
		if !shoppingNoiseWords[word] {
			kept = append(kept, word)
		}
	}
	return strings.Join(kept, " ")
}

// CacheKey builds the cache key of a preprocessed query.
// Format: "search:{normalized_query}"
func CacheKey(query string) string {
	return "search:" + normalizeForCacheKey(query)
}

// normalizeForCacheKey lower-cases s, drops punctuation and collapses whitespace
func normalizeForCacheKey(s string) string {
	if s == "" {
		return ""
	}
	result := strings.ToLower(norm.NFC.String(s))
	result = punctuationRegex.ReplaceAllString(result, "")
	result = multipleSpacesRegex.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}
