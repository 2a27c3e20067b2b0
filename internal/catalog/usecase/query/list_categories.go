package query

import (
	"context"

	"github.com/nayher/commerce-backend/internal/catalog/domain"
)

// ListCategoriesQuery lists categories, optionally including inactive ones.
type ListCategoriesQuery struct {
	IncludeInactive bool
}

// ListCategoriesHandler handles category listing queries
type ListCategoriesHandler struct {
	categories domain.CategoryRepository
	products   domain.ProductRepository
}

func NewListCategoriesHandler(categories domain.CategoryRepository, products domain.ProductRepository) *ListCategoriesHandler {
	return &ListCategoriesHandler{categories: categories, products: products}
}

// Handle executes the list categories query
func (h *ListCategoriesHandler) Handle(ctx context.Context, q ListCategoriesQuery) ([]CategoryWithCount, error) {
	categories, err := h.categories.List(ctx, !q.IncludeInactive)
	if err != nil {
		return nil, err
	}

	out := make([]CategoryWithCount, 0, len(categories))
	for _, category := range categories {
		count, err := h.products.CountActiveInCategory(ctx, category.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, CategoryWithCount{Category: category, ProductCount: count})
	}
	return out, nil
}
