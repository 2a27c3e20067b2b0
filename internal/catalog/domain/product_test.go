package domain

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyStockStatus(t *testing.T) {
	t.Run("zero stock forces sold-out", func(t *testing.T) {
		p := &Product{Stock: 0, Status: StatusAvailable}
		p.ApplyStockStatus()
		assert.Equal(t, StatusSoldOut, p.Status)
	})

	t.Run("restock revives sold-out", func(t *testing.T) {
		p := &Product{Stock: 5, Status: StatusSoldOut}
		p.ApplyStockStatus()
		assert.Equal(t, StatusAvailable, p.Status)
	})

	t.Run("discontinued is preserved while stocked", func(t *testing.T) {
		p := &Product{Stock: 5, Status: StatusDiscontinued}
		p.ApplyStockStatus()
		assert.Equal(t, StatusDiscontinued, p.Status)
	})

	t.Run("discontinued with zero stock becomes sold-out", func(t *testing.T) {
		p := &Product{Stock: 0, Status: StatusDiscontinued}
		p.ApplyStockStatus()
		assert.Equal(t, StatusSoldOut, p.Status)
	})
}

func TestGenerateSKU(t *testing.T) {
	pattern := regexp.MustCompile(`^NYH-\d+-[0-9A-Z]{9}$`)
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		sku := GenerateSKU()
		assert.Regexp(t, pattern, sku)
		assert.False(t, seen[sku], "duplicate SKU %s", sku)
		seen[sku] = true
	}
}

func TestNormalizeSort(t *testing.T) {
	tests := []struct {
		input      string
		field      string
		descending bool
	}{
		{"", "createdAt", true},
		{"price", "price", false},
		{"-price", "price", true},
		{"name", "name", false},
		{"-createdAt", "createdAt", true},
		{"evil; drop table", "createdAt", false},
	}
	for _, tt := range tests {
		field, descending := NormalizeSort(tt.input)
		assert.Equal(t, tt.field, field, "input %q", tt.input)
		assert.Equal(t, tt.descending, descending, "input %q", tt.input)
	}
}

func TestFirstImageURL(t *testing.T) {
	p := &Product{}
	assert.Empty(t, p.FirstImageURL())

	p.Images = []ProductImage{{URL: "https://cdn.example.com/a.jpg"}, {URL: "https://cdn.example.com/b.jpg"}}
	assert.Equal(t, "https://cdn.example.com/a.jpg", p.FirstImageURL())
}
