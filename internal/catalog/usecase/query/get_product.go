package query

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nayher/commerce-backend/internal/catalog/domain"
	"github.com/nayher/commerce-backend/pkg/apperr"
)

// GetProductQuery represents the query to get a product by ID
type GetProductQuery struct {
	ID primitive.ObjectID
}

// GetProductResult is a product joined with its category summary.
type GetProductResult struct {
	Product  *domain.Product  `json:"product"`
	Category *domain.Category `json:"category,omitempty"`
}

// GetProductHandler handles get product queries
type GetProductHandler struct {
	products   domain.ProductRepository
	categories domain.CategoryRepository
}

func NewGetProductHandler(products domain.ProductRepository, categories domain.CategoryRepository) *GetProductHandler {
	return &GetProductHandler{products: products, categories: categories}
}

// Handle executes the get product query
func (h *GetProductHandler) Handle(ctx context.Context, q GetProductQuery) (*GetProductResult, error) {
	product, err := h.products.FindByID(ctx, q.ID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, apperr.New(apperr.CodeNotFound, "Product not found")
	}

	result := &GetProductResult{Product: product}
	if category, err := h.categories.FindByID(ctx, product.CategoryID); err == nil {
		result.Category = category
	}
	return result, nil
}
