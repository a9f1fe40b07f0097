package domain

import (
	"strings"

	"golang.org/x/text/cases"
)

const DefaultCategory = "Other"

// Categories is the fixed category set, in display order.
var Categories = []string{"Produce", "Dairy", "Meat", "Beverage", "Pantry", "Bakery", "Frozen", "Other"}

var categoryEmoji = map[string]string{
	"Produce":  "🥦",
	"Dairy":    "🥛",
	"Meat":     "🥩",
	"Beverage": "🥤",
	"Pantry":   "🥫",
	"Bakery":   "🍞",
	"Frozen":   "❄️",
	"Other":    "📦",
}

var foldedCategories = func() map[string]string {
	fold := cases.Fold()
	m := make(map[string]string, len(Categories))
	for _, c := range Categories {
		m[fold.String(c)] = c
	}
	return m
}()

// NormalizeCategory maps free text onto the fixed set, ignoring case. Unknown values become Other.
func NormalizeCategory(s string) string {
	if c, ok := foldedCategories[cases.Fold().String(strings.TrimSpace(s))]; ok {
		return c
	}
	return DefaultCategory
}

func CategoryEmoji(category string) string {
	return categoryEmoji[NormalizeCategory(category)]
}
