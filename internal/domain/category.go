package domain

// FreshProduceCategory is the category whose queries penalise processed products
const FreshProduceCategory = "Fresh Produce"

// Category is a named bucket of keywords; the first matching category wins
type Category struct {
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
}

// CategoryTable is the keyword configuration consumed by the relevance classifier
type CategoryTable struct {
	Categories    []Category `json:"categories"`
	Disqualifiers []string   `json:"disqualifiers"`
}

// DefaultCategoryTable returns the built-in table used when no configuration file can be read
func DefaultCategoryTable() *CategoryTable {
	return &CategoryTable{
		Categories: []Category{
			{Name: FreshProduceCategory, Keywords: []string{"onion", "potato", "tomato", "carrot", "apple", "banana", "garlic"}},
			{Name: "Dairy & Eggs", Keywords: []string{"milk", "egg", "cheese", "yogurt"}},
			{Name: "Meat & Seafood", Keywords: []string{"chicken", "beef", "fish"}},
			{Name: "Bakery", Keywords: []string{"bread"}},
			{Name: "Snacks & Sweets", Keywords: []string{"chip", "cookie", "chocolate"}},
			{Name: "Beverages", Keywords: []string{"water", "juice", "soda"}},
			{Name: "Pantry", Keywords: []string{"rice", "pasta", "oil"}},
		},
		Disqualifiers: []string{"chip", "powder", "sauce", "paste", "jam", "pickle"},
	}
}
