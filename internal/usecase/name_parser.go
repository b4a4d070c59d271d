package usecase

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/grocerylens/backend/internal/domain"
)

var multipleSpacesRegex = regexp.MustCompile(`\s+`)

// ParseName splits a display name into brand and cleaned name.
// The brand is the first whitespace-delimited token, kept verbatim; the rest
// loses every character that is not a letter, digit or space.
func ParseName(display string) (brand, cleaned string) {
	trimmed := strings.TrimSpace(display)
	if trimmed == "" {
		return "", ""
	}

	idx := strings.IndexFunc(trimmed, unicode.IsSpace)
	if idx < 0 {
		return trimmed, ""
	}

	brand = trimmed[:idx]
	rest := punctuationRegex.ReplaceAllString(trimmed[idx:], "")
	rest = multipleSpacesRegex.ReplaceAllString(rest, " ")
	return brand, strings.TrimSpace(rest)
}

// ParseListing turns a raw store listing into a ParsedListing.
// Returns false when the listing has no name; missing prices and quantities
// only leave the corresponding fields empty.
func ParseListing(store string, raw domain.RawListing) (domain.ParsedListing, bool) {
	name := strings.TrimSpace(raw.DisplayName)
	if name == "" {
		return domain.ParsedListing{}, false
	}

	if store == "" {
		store = raw.SourceStore
	}

	brand, cleaned := ParseName(name)
	value, unit := ExtractQuantity(name)

	return domain.ParsedListing{
		SourceStore:   store,
		OriginalName:  name,
		Brand:         brand,
		CleanedName:   cleaned,
		QuantityValue: value,
		QuantityUnit:  unit,
		Price:         ParsePrice(raw.PriceText),
		ImageURL:      raw.ImageURL,
		ProductURL:    raw.ProductURL,
	}, true
}
