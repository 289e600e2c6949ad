package model

import "time"

// Category represents one main category with its ordered subcategories.
type Category struct {
	CreatedAt     time.Time
	Name          string
	Subcategories []string
	ID            int
}

// Taxonomy is the full category tree the classifier validates labels against.
// It is read-only to the classification core.
type Taxonomy []Category

// HasLabel reports whether the category/subcategory pair exists in the tree.
// An empty subcategory matches any category that exists.
func (t Taxonomy) HasLabel(category, subcategory string) bool {
	for _, c := range t {
		if c.Name != category {
			continue
		}
		if subcategory == "" {
			return true
		}
		for _, s := range c.Subcategories {
			if s == subcategory {
				return true
			}
		}
		return false
	}
	return false
}

// Names returns the category names in taxonomy order.
func (t Taxonomy) Names() []string {
	names := make([]string, 0, len(t))
	for _, c := range t {
		names = append(names, c.Name)
	}
	return names
}
