package usecase

import "strings"

// Canonical quantity units
const (
	UnitKilogram   = "kg"
	UnitGram       = "g"
	UnitLitre      = "l"
	UnitMillilitre = "ml"
	UnitPieces     = "pcs"
	UnitSquareFeet = "sqft"
)

// unitSynonyms maps every spelling the quantity extractor recognises to its canonical unit
var unitSynonyms = map[string]string{
	"kg": UnitKilogram, "kgs": UnitKilogram, "kilogram": UnitKilogram, "kilograms": UnitKilogram,
	"g": UnitGram, "gm": UnitGram, "gms": UnitGram, "gram": UnitGram, "grams": UnitGram,
	"l": UnitLitre, "ltr": UnitLitre, "litre": UnitLitre, "litres": UnitLitre, "liter": UnitLitre, "liters": UnitLitre,
	"ml": UnitMillilitre,
	"pcs": UnitPieces, "pc": UnitPieces, "piece": UnitPieces, "pieces": UnitPieces,
	"pck": UnitPieces, "pack": UnitPieces, "packs": UnitPieces,
	"sqft": UnitSquareFeet, "sq.ft": UnitSquareFeet, "sq ft": UnitSquareFeet,
}

// NormalizeUnit maps a raw unit spelling to the canonical unit set.
// Unknown units are returned lower-cased but otherwise untouched.
func NormalizeUnit(raw string) string {
	unit := strings.ToLower(strings.TrimSpace(raw))
	unit = multipleSpacesRegex.ReplaceAllString(unit, " ")
	if canonical, ok := unitSynonyms[unit]; ok {
		return canonical
	}
	return unit
}

// NormalizeQuantity converts a quantity to the shared kg/l comparison axis.
// Grams and millilitres are divided by 1000 so that price per kg and price per
// litre are comparable numbers. Units outside the axis pass through unchanged.
// Returns 0 when the unit price cannot be computed.
func NormalizeQuantity(value *float64, unit string) float64 {
	if value == nil || *value == 0 || unit == "" {
		return 0
	}

	switch NormalizeUnit(unit) {
	case UnitKilogram, UnitLitre:
		return *value
	case UnitGram, UnitMillilitre:
		return *value / 1000
	default:
		return *value
	}
}
