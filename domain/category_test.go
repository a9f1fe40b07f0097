package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCategory(t *testing.T) {
	for in, want := range map[string]string{
		"Dairy":     "Dairy",
		"dairy":     "Dairy",
		"  BAKERY ": "Bakery",
		"frozen":    "Frozen",
		"snacks":    "Other",
		"":          "Other",
	} {
		assert.Equal(t, want, NormalizeCategory(in), in)
	}
}

func TestCategoryEmoji(t *testing.T) {
	assert.Equal(t, "🍞", CategoryEmoji("bakery"))
	assert.Equal(t, "📦", CategoryEmoji("mystery"))
}
