package query

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nayher/commerce-backend/internal/catalog/domain"
	"github.com/nayher/commerce-backend/pkg/apperr"
)

// GetCategoryQuery looks a category up by hex ID or by slug.
type GetCategoryQuery struct {
	IDOrSlug string
}

// CategoryWithCount is a category joined with its active product count.
type CategoryWithCount struct {
	domain.Category
	ProductCount int64 `json:"productCount"`
}

// GetCategoryHandler handles get category queries
type GetCategoryHandler struct {
	categories domain.CategoryRepository
	products   domain.ProductRepository
}

func NewGetCategoryHandler(categories domain.CategoryRepository, products domain.ProductRepository) *GetCategoryHandler {
	return &GetCategoryHandler{categories: categories, products: products}
}

// Handle executes the get category query
func (h *GetCategoryHandler) Handle(ctx context.Context, q GetCategoryQuery) (*CategoryWithCount, error) {
	var category *domain.Category
	var err error

	if id, idErr := primitive.ObjectIDFromHex(q.IDOrSlug); idErr == nil {
		category, err = h.categories.FindByID(ctx, id)
	} else {
		category, err = h.categories.FindBySlug(ctx, q.IDOrSlug)
	}
	if err != nil {
		return nil, err
	}
	if !category.IsActive {
		return nil, apperr.New(apperr.CodeNotFound, "Category not found")
	}

	count, err := h.products.CountActiveInCategory(ctx, category.ID)
	if err != nil {
		return nil, err
	}
	return &CategoryWithCount{Category: *category, ProductCount: count}, nil
}
