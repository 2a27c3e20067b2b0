package query

import (
	"context"

	"github.com/nayher/commerce-backend/internal/catalog/domain"
)

// ListProductsQuery represents the query to list products with filters
type ListProductsQuery struct {
	Filter domain.ProductFilter
	// CategorySlug resolves to a category filter when set.
	CategorySlug string
}

// Pagination describes the page window of a listing.
type Pagination struct {
	Current int   `json:"current"`
	Pages   int   `json:"pages"`
	Total   int64 `json:"total"`
	HasNext bool  `json:"hasNext"`
	HasPrev bool  `json:"hasPrev"`
}

// ListProductsResult is a page of products.
type ListProductsResult struct {
	Products   []domain.Product `json:"products"`
	Category   *domain.Category `json:"category,omitempty"`
	Pagination Pagination       `json:"pagination"`
}

// ListProductsHandler handles product listing queries
type ListProductsHandler struct {
	products   domain.ProductRepository
	categories domain.CategoryRepository
}

func NewListProductsHandler(products domain.ProductRepository, categories domain.CategoryRepository) *ListProductsHandler {
	return &ListProductsHandler{products: products, categories: categories}
}

// Handle executes the list products query
func (h *ListProductsHandler) Handle(ctx context.Context, q ListProductsQuery) (*ListProductsResult, error) {
	filter := q.Filter
	if filter.Limit <= 0 {
		filter.Limit = 12
	}
	if filter.Page < 1 {
		filter.Page = 1
	}

	var category *domain.Category
	if q.CategorySlug != "" {
		found, err := h.categories.FindBySlug(ctx, q.CategorySlug)
		if err != nil {
			return nil, err
		}
		category = found
		filter.CategoryID = &found.ID
	}

	products, total, err := h.products.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	pages := int((total + int64(filter.Limit) - 1) / int64(filter.Limit))
	return &ListProductsResult{
		Products: products,
		Category: category,
		Pagination: Pagination{
			Current: filter.Page,
			Pages:   pages,
			Total:   total,
			HasNext: filter.Page < pages,
			HasPrev: filter.Page > 1,
		},
	}, nil
}
