package usecase

import (
	"regexp"
	"strconv"
	"strings"
)

var priceNumberRegex = regexp.MustCompile(`\d+(?:\.\d+)?`)

// unavailablePriceLabels are labels stores print instead of a price
var unavailablePriceLabels = map[string]bool{
	"n/a":           true,
	"na":            true,
	"-":             true,
	"unavailable":   true,
	"not available": true,
	"out of stock":  true,
}

// ParsePrice extracts the numeric price from a free-text price label such as
// "AED 1,234.50" or "12.50 AED". Commas are always thousands separators.
// Returns nil when the label carries no price.
func ParsePrice(text string) *float64 {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || unavailablePriceLabels[strings.ToLower(trimmed)] {
		return nil
	}

	cleaned := strings.ReplaceAll(trimmed, ",", "")
	token := priceNumberRegex.FindString(cleaned)
	if token == "" {
		return nil
	}

	value, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return nil
	}
	return &value
}
