package usecase

import (
	"strings"
	"testing"
)

func TestNewQueryPreprocessor(t *testing.T) {
	t.Run("creates preprocessor with debug logging disabled", func(t *testing.T) {
		p := NewQueryPreprocessor(false)
		if p.enableDebugLogging {
			t.Error("expected debug logging to be disabled")
		}
	})

	t.Run("creates preprocessor with debug logging enabled", func(t *testing.T) {
		p := NewQueryPreprocessor(true)
		if !p.enableDebugLogging {
			t.Error("expected debug logging to be enabled")
		}
	})
}

func TestPreprocessQuery(t *testing.T) {
	p := NewQueryPreprocessor(false)

	testCases := []struct {
		name  string
		query string
		want  string
	}{
		{name: "lower-cases and trims", query: "  Almarai Milk  ", want: "almarai milk"},
		{name: "collapses whitespace", query: "red   onion", want: "red onion"},
		{name: "removes shopping noise", query: "cheapest milk near me", want: "milk"},
		{name: "keeps query made only of noise", query: "best deals", want: "best deals"},
		{name: "replaces ampersand", query: "M&M chocolate", want: "m and m chocolate"},
		{name: "removes url-hostile characters", query: "rice #1 (basmati)?", want: "rice 1 basmati"},
		{name: "drops orphaned punctuation", query: "milk - 1l", want: "milk 1l"},
		{name: "keeps inner hyphens", query: "coca-cola", want: "coca-cola"},
		{name: "composes unicode", query: "Nestlé", want: "nestlé"},
		{name: "empty query", query: "", want: ""},
		{name: "blank query", query: "   ", want: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := p.PreprocessQuery(tc.query)
			if got != tc.want {
				t.Errorf("PreprocessQuery(%q) = %q, want %q", tc.query, got, tc.want)
			}
		})
	}
}

func TestPreprocessQuery_LongInput(t *testing.T) {
	p := NewQueryPreprocessor(false)

	longQuery := strings.Repeat("organic basmati rice ", 20)
	result := p.PreprocessQuery(longQuery)

	if len(result) > maxQueryLength {
		t.Errorf("result length = %d, want <= %d", len(result), maxQueryLength)
	}
	if strings.HasSuffix(result, " ") {
		t.Errorf("result %q should not end with a space", result)
	}
}

func TestCacheKey(t *testing.T) {
	testCases := []struct {
		query string
		want  string
	}{
		{"almarai milk", "search:almarai milk"},
		{"Almarai  MILK!", "search:almarai milk"},
		{"coca-cola", "search:cocacola"},
		{"", "search:"},
	}

	for _, tc := range testCases {
		t.Run(tc.query, func(t *testing.T) {
			if got := CacheKey(tc.query); got != tc.want {
				t.Errorf("CacheKey(%q) = %q, want %q", tc.query, got, tc.want)
			}
		})
	}
}
