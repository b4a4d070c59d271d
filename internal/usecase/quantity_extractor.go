package usecase

import (
	"regexp"
	"strconv"
	"strings"
)

// unitAlternation lists every unit spelling, longest first within each family
const unitAlternation = `(kilograms|kilogram|kgs|kg|grams|gram|gms|gm|g|litres|liters|litre|liter|ltr|ml|l|pieces|piece|pcs|pc|packs|pack|pck|sqft|sq\.ft|sq\s*ft|m)\b`

const (
	numberPattern   = `(\d+(?:\.\d+)?)`
	rangePattern    = `(\d+(?:\.\d+)?(?:-\d+(?:\.\d+)?)?)`
	multiplyPattern = `\s*[x×]\s*`
	countKeywords   = `(?:packs?|pcs|pieces?|sets?)`
)

// Compiled quantity patterns, in precedence order
var (
	// "(220-250g)", "(500 ml)"
	parenQuantityRegex = regexp.MustCompile(`\(` + rangePattern + `\s*` + unitAlternation + `\)`)

	// "1kg x 2"
	sizeTimesCountRegex = regexp.MustCompile(numberPattern + `\s*` + unitAlternation + multiplyPattern + numberPattern + `\b`)

	// "2 x 500g", "2 packs x 500g"
	countTimesSizeRegex = regexp.MustCompile(numberPattern + `\s*` + countKeywords + `?` + multiplyPattern + numberPattern + `\s*` + unitAlternation)

	// "21g", "1.5 kg" anywhere in the text
	sizeRegex = regexp.MustCompile(numberPattern + `\s*` + unitAlternation)

	// "6 pcs", "2 packs"
	countKeywordRegex = regexp.MustCompile(`(\d+)\s*` + countKeywords + `\b`)

	// "1kg ... pack of 2"
	sizePackOfRegex = regexp.MustCompile(numberPattern + `\s*` + unitAlternation + `.*?pack of\s*(\d+)\b`)

	// "1.5kg", "0.9-1kg"
	singleQuantityRegex = regexp.MustCompile(rangePattern + `\s*` + unitAlternation)

	// any numeric range such as "10-15"
	numericRangeRegex = regexp.MustCompile(`\d+-\d+`)
)

// measureUnits are units a "SIZE x COUNT" multipack can be expressed in
var measureUnits = map[string]bool{
	UnitKilogram: true, UnitGram: true, UnitLitre: true, UnitMillilitre: true, "m": true,
}

// ExtractQuantity extracts the (value, unit) pair from a product display name.
// Multipacks are multiplied out, ranges collapse to their midpoint and the unit
// is normalised to kg, g, l, ml, pcs or sqft when recognised.
// Returns (nil, "") when no quantity can be found.
func ExtractQuantity(name string) (*float64, string) {
	if strings.TrimSpace(name) == "" {
		return nil, ""
	}

	text := strings.ToLower(name)

	// A parenthesised weight is the net weight of the product and beats
	// any count or size printed elsewhere in the name.
	if m := parenQuantityRegex.FindStringSubmatch(text); m != nil {
		if value, ok := parseQuantityRange(m[1]); ok {
			return &value, NormalizeUnit(m[2])
		}
	}

	// "Approx 4 pieces per kg" describes the product, it is not a pack count
	if !strings.Contains(text, "approx") {
		multipackRules := []func(string) (float64, string, bool){
			matchSizeTimesCount,
			matchCountTimesSize,
			matchSizeThenCount,
			matchSizePackOf,
			matchCountThenSize,
		}
		for _, rule := range multipackRules {
			if value, unit, ok := rule(text); ok {
				return &value, NormalizeUnit(unit)
			}
		}
	}

	if m := singleQuantityRegex.FindStringSubmatch(text); m != nil {
		if value, ok := parseQuantityRange(m[1]); ok {
			return &value, NormalizeUnit(m[2])
		}
	}

	return nil, ""
}

// matchSizeTimesCount handles "1kg x 2". A size that ends a range ("1-1.2kg x 2")
// is left to the midpoint rule.
func matchSizeTimesCount(text string) (float64, string, bool) {
	for _, loc := range sizeTimesCountRegex.FindAllStringSubmatchIndex(text, -1) {
		if partOfNumber(text, loc[2]) {
			continue
		}
		unit := text[loc[4]:loc[5]]
		if !measureUnits[NormalizeUnit(unit)] {
			continue
		}
		size, err1 := strconv.ParseFloat(text[loc[2]:loc[3]], 64)
		count, err2 := strconv.ParseFloat(text[loc[6]:loc[7]], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		return multiplyPack(size, count), unit, true
	}
	return 0, "", false
}

// matchCountTimesSize handles "2 x 500g" and "2 packs x 500g"
func matchCountTimesSize(text string) (float64, string, bool) {
	m := countTimesSizeRegex.FindStringSubmatch(text)
	if m == nil {
		return 0, "", false
	}
	count, err1 := strconv.ParseFloat(m[1], 64)
	size, err2 := strconv.ParseFloat(m[2], 64)
	if err1 != nil || err2 != nil {
		return 0, "", false
	}
	return multiplyPack(size, count), m[3], true
}

// matchSizeThenCount handles "21g 6 PCS". Neither the size nor the count may
// be part of a range and no range may follow the size ("1kg 10-12 pieces" is a piece
// estimate, not a multipack).
func matchSizeThenCount(text string) (float64, string, bool) {
	for _, loc := range sizeRegex.FindAllStringSubmatchIndex(text, -1) {
		if partOfNumber(text, loc[2]) {
			continue
		}
		rest := text[loc[1]:]
		if numericRangeRegex.MatchString(rest) {
			continue
		}

		for _, c := range countKeywordRegex.FindAllStringSubmatchIndex(rest, -1) {
			if partOfNumber(rest, c[2]) {
				continue
			}
			size, err1 := strconv.ParseFloat(text[loc[2]:loc[3]], 64)
			count, err2 := strconv.ParseFloat(rest[c[2]:c[3]], 64)
			if err1 != nil || err2 != nil {
				continue
			}
			return multiplyPack(size, count), text[loc[4]:loc[5]], true
		}
	}
	return 0, "", false
}

// matchSizePackOf handles "1kg pack of 2"
func matchSizePackOf(text string) (float64, string, bool) {
	for _, loc := range sizePackOfRegex.FindAllStringSubmatchIndex(text, -1) {
		if partOfNumber(text, loc[2]) {
			continue
		}
		size, err1 := strconv.ParseFloat(text[loc[2]:loc[3]], 64)
		count, err2 := strconv.ParseFloat(text[loc[6]:loc[7]], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		return multiplyPack(size, count), text[loc[4]:loc[5]], true
	}
	return 0, "", false
}

// matchCountThenSize handles "4 Pieces - 8grams" and "3 pack 200g". Counts
// that belong to a range are ignored, as are sizes printed in parentheses
// right after the count keyword.
func matchCountThenSize(text string) (float64, string, bool) {
	for _, c := range countKeywordRegex.FindAllStringSubmatchIndex(text, -1) {
		if partOfNumber(text, c[2]) {
			continue
		}

		rest := strings.TrimLeft(text[c[1]:], " \t")
		switch {
		case strings.HasPrefix(rest, "of"):
			rest = rest[len("of"):]
		case strings.HasPrefix(rest, "-"):
			rest = rest[1:]
		}
		if strings.HasPrefix(strings.TrimLeft(rest, " \t"), "(") {
			continue
		}

		m := sizeRegex.FindStringSubmatch(rest)
		if m == nil {
			continue
		}
		count, err1 := strconv.ParseFloat(text[c[2]:c[3]], 64)
		size, err2 := strconv.ParseFloat(m[1], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		return multiplyPack(size, count), m[2], true
	}
	return 0, "", false
}

// multiplyPack returns size*count, except when both are equal: "30 Pieces - 30 Pieces"
// repeats the same figure and must not become 900.
func multiplyPack(size, count float64) float64 {
	if size == count {
		return size
	}
	return size * count
}

// partOfNumber reports whether the digits starting at idx continue a number or a range
func partOfNumber(text string, idx int) bool {
	if idx == 0 {
		return false
	}
	prev := text[idx-1]
	return prev == '-' || prev == '.' || (prev >= '0' && prev <= '9')
}

// parseQuantityRange parses "750" or "220-250"; ranges yield their midpoint
func parseQuantityRange(s string) (float64, bool) {
	low, high, isRange := strings.Cut(s, "-")
	a, err := strconv.ParseFloat(low, 64)
	if err != nil {
		return 0, false
	}
	if !isRange {
		return a, true
	}
	b, err := strconv.ParseFloat(high, 64)
	if err != nil {
		return 0, false
	}
	return (a + b) / 2, true
}
