package categories

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grocerylens/backend/internal/domain"
)

const categoryDocument = `{
  "CATEGORIES": {
    "Fresh Produce": ["Onion", "potato", " "],
    "Dairy & Eggs": ["milk", "egg"],
    "Bakery": ["bread"]
  },
  "FRESH_DISQUALIFIERS": ["chip", "Powder"],
  "VERSION": {"major": 2}
}`

func TestParse_PreservesCategoryOrder(t *testing.T) {
	table, err := Parse(strings.NewReader(categoryDocument))

	require.NoError(t, err)
	require.Len(t, table.Categories, 3)
	assert.Equal(t, "Fresh Produce", table.Categories[0].Name)
	assert.Equal(t, "Dairy & Eggs", table.Categories[1].Name)
	assert.Equal(t, "Bakery", table.Categories[2].Name)
	assert.Equal(t, []string{"onion", "potato"}, table.Categories[0].Keywords)
	assert.Equal(t, []string{"chip", "powder"}, table.Disqualifiers)
}

func TestParse_MissingDisqualifiers(t *testing.T) {
	table, err := Parse(strings.NewReader(`{"CATEGORIES": {"Bakery": ["bread"]}}`))

	require.NoError(t, err)
	assert.Len(t, table.Categories, 1)
	assert.Empty(t, table.Disqualifiers)
}

func TestParse_NoCategories(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "empty object", doc: `{}`},
		{name: "only disqualifiers", doc: `{"FRESH_DISQUALIFIERS": ["chip"]}`},
		{name: "empty categories", doc: `{"CATEGORIES": {}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.doc))
			assert.ErrorIs(t, err, ErrNoCategories)
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "not an object", doc: `["milk"]`},
		{name: "truncated", doc: `{"CATEGORIES": {"Bakery": ["bread"]`},
		{name: "keywords not a list", doc: `{"CATEGORIES": {"Bakery": "bread"}}`},
		{name: "categories not an object", doc: `{"CATEGORIES": ["bread"]}`},
		{name: "empty", doc: ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.json")
	require.NoError(t, os.WriteFile(path, []byte(categoryDocument), 0o644))

	table := Load(path)

	require.Len(t, table.Categories, 3)
	assert.Equal(t, "Fresh Produce", table.Categories[0].Name)
}

func TestLoad_FallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	corrupt := filepath.Join(dir, "corrupt.json")
	require.NoError(t, os.WriteFile(corrupt, []byte(`{"CATEGORIES": `), 0o644))
	blank := filepath.Join(dir, "blank.json")
	require.NoError(t, os.WriteFile(blank, []byte(`{}`), 0o644))

	tests := []struct {
		name string
		path string
	}{
		{name: "missing file", path: filepath.Join(dir, "missing.json")},
		{name: "corrupt file", path: corrupt},
		{name: "file without categories", path: blank},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, domain.DefaultCategoryTable(), Load(tt.path))
		})
	}
}
