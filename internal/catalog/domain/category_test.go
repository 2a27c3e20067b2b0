package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple", "Gift Sets", "gift-sets"},
		{"punctuation and doubled spaces", "Baby's Best!!  Blanket", "babys-best-blanket"},
		{"leading and trailing junk", "  --Soft Toys--  ", "soft-toys"},
		{"already a slug", "baby-care", "baby-care"},
		{"mixed case with digits", "0-3 Months", "0-3-months"},
		{"only punctuation", "!!!", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Slugify(tt.input))
		})
	}
}

func TestSlugifyIsIdempotent(t *testing.T) {
	inputs := []string{"Gift Sets", "Baby's Best!!  Blanket", "0-3 Months", "Crib & Cradle"}
	for _, input := range inputs {
		slug := Slugify(input)
		assert.Equal(t, slug, Slugify(slug), "slugify(%q) should be a fixed point", input)
	}
}
