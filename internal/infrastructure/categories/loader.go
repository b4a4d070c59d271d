package categories

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/grocerylens/backend/internal/domain"
)

// ErrNoCategories is returned for a well-formed document that defines no category
var ErrNoCategories = errors.New("no categories defined")

// File section names
const (
	categoriesKey    = "CATEGORIES"
	disqualifiersKey = "FRESH_DISQUALIFIERS"
)

// Load reads the category table from path. A missing or unreadable file
// yields the built-in table so classification always has keywords.
func Load(path string) *domain.CategoryTable {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Printf("[CATEGORIES] %s not found, using built-in categories", path)
		} else {
			log.Printf("[CATEGORIES] Error opening %s: %v, using built-in categories", path, err)
		}
		return domain.DefaultCategoryTable()
	}
	defer file.Close()

	table, err := Parse(file)
	if err != nil {
		log.Printf("[CATEGORIES] Error loading %s: %v, using built-in categories", path, err)
		return domain.DefaultCategoryTable()
	}

	log.Printf("[CATEGORIES] Loaded %d categories and %d disqualifiers from %s",
		len(table.Categories), len(table.Disqualifiers), path)
	return table
}

// Parse decodes a category document:
//
//	{"CATEGORIES": {"Fresh Produce": ["onion", ...], ...}, "FRESH_DISQUALIFIERS": ["chip", ...]}
//
// Category order is significant, so the CATEGORIES object is read token by
// token instead of into a map. A document without categories is rejected; a
// missing FRESH_DISQUALIFIERS section stays empty.
func Parse(r io.Reader) (*domain.CategoryTable, error) {
	dec := json.NewDecoder(r)
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}

	table := &domain.CategoryTable{}
	for dec.More() {
		key, err := readKey(dec)
		if err != nil {
			return nil, err
		}

		switch key {
		case categoriesKey:
			categories, err := parseCategories(dec)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", categoriesKey, err)
			}
			table.Categories = categories
		case disqualifiersKey:
			var words []string
			if err := dec.Decode(&words); err != nil {
				return nil, fmt.Errorf("%s: %w", disqualifiersKey, err)
			}
			table.Disqualifiers = normalizeKeywords(words)
		default:
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, err
			}
		}
	}

	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	if len(table.Categories) == 0 {
		return nil, ErrNoCategories
	}
	return table, nil
}

func parseCategories(dec *json.Decoder) ([]domain.Category, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}

	var categories []domain.Category
	for dec.More() {
		name, err := readKey(dec)
		if err != nil {
			return nil, err
		}
		var keywords []string
		if err := dec.Decode(&keywords); err != nil {
			return nil, fmt.Errorf("category %q: %w", name, err)
		}
		categories = append(categories, domain.Category{
			Name:     name,
			Keywords: normalizeKeywords(keywords),
		})
	}

	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	return categories, nil
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected object key, got %v", tok)
	}
	return key, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

// normalizeKeywords lower-cases keywords and drops blanks
func normalizeKeywords(words []string) []string {
	result := make([]string, 0, len(words))
	for _, word := range words {
		word = strings.ToLower(strings.TrimSpace(word))
		if word != "" {
			result = append(result, word)
		}
	}
	return result
}
