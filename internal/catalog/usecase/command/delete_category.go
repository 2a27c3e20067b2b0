package command

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nayher/commerce-backend/internal/catalog/domain"
	"github.com/nayher/commerce-backend/pkg/apperr"
)

// DeleteCategoryCommand removes a category. Deletion is blocked while any
// active product still references it.
type DeleteCategoryCommand struct {
	CategoryID primitive.ObjectID
}

// DeleteCategoryHandler handles category deletion
type DeleteCategoryHandler struct {
	categories domain.CategoryRepository
	products   domain.ProductRepository
}

func NewDeleteCategoryHandler(categories domain.CategoryRepository, products domain.ProductRepository) *DeleteCategoryHandler {
	return &DeleteCategoryHandler{categories: categories, products: products}
}

// Handle executes the delete category command
func (h *DeleteCategoryHandler) Handle(ctx context.Context, cmd DeleteCategoryCommand) error {
	category, err := h.categories.FindByID(ctx, cmd.CategoryID)
	if err != nil {
		return err
	}

	count, err := h.products.CountActiveInCategory(ctx, category.ID)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperr.Newf(apperr.CodeUnavailable, "Cannot delete category. It has %d active products.", count)
	}

	return h.categories.Delete(ctx, category.ID)
}
