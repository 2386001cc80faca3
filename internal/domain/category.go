package domain

import "strings"

// Category is a business segment used to select savings percentages
type Category string

// The closed set of business categories. String values must match exactly.
const (
	CategoryDeli         Category = "Deli"
	CategoryCafe         Category = "Cafe"
	CategoryRestaurant   Category = "Restaurant"
	CategoryPub          Category = "Pub"
	CategorySportingClub Category = "Sporting club"
	CategoryCatering     Category = "Catering"
	CategoryGroceryStore Category = "Grocery store"
)

// DefaultCategory is used when a requested category has no configuration
const DefaultCategory = CategoryRestaurant

// Categories returns every category in display order.
func Categories() []Category {
	return []Category{
		CategoryDeli,
		CategoryCafe,
		CategoryRestaurant,
		CategoryPub,
		CategorySportingClub,
		CategoryCatering,
		CategoryGroceryStore,
	}
}

// ParseCategory matches s exactly against the closed set.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories() {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// CategoryFromSlug resolves a config key such as "sporting_club".
func CategoryFromSlug(slug string) (Category, bool) {
	for _, c := range Categories() {
		if c.Slug() == slug {
			return c, true
		}
	}
	return "", false
}

// Slug returns the lowercase, underscore-separated key used in config files.
func (c Category) Slug() string {
	return strings.ReplaceAll(strings.ToLower(string(c)), " ", "_")
}

// Valid reports whether c is part of the closed set.
func (c Category) Valid() bool {
	_, ok := ParseCategory(string(c))
	return ok
}

// SegmentConfig holds the savings percentages applied to a category
type SegmentConfig struct {
	TargetSavingsPercent     float64 `json:"targetSavingsPercent" validate:"gte=0,lte=100"`
	ProcurementTargetPercent float64 `json:"procurementTargetPercent" validate:"gte=0,lte=100"`
}
