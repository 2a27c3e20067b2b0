package command

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nayher/commerce-backend/internal/catalog/domain"
	"github.com/nayher/commerce-backend/pkg/logger"
)

// DeleteProductCommand soft-deletes a product. The record stays behind so
// historical order line items keep resolving.
type DeleteProductCommand struct {
	ProductID primitive.ObjectID
}

// DeleteProductHandler handles product soft-deletion
type DeleteProductHandler struct {
	products domain.ProductRepository
	syncer   *ImageSyncer
}

func NewDeleteProductHandler(products domain.ProductRepository, syncer *ImageSyncer) *DeleteProductHandler {
	return &DeleteProductHandler{products: products, syncer: syncer}
}

// Handle executes the delete product command
func (h *DeleteProductHandler) Handle(ctx context.Context, cmd DeleteProductCommand) error {
	product, err := h.products.FindByID(ctx, cmd.ProductID)
	if err != nil {
		return err
	}

	if err := h.products.SoftDelete(ctx, product.ID); err != nil {
		return err
	}
	product.IsActive = false

	if result, err := h.syncer.ProductDeleted(ctx, product); err != nil {
		logger.Warn(ctx).Err(err).
			Str("product_id", product.ID.Hex()).
			Msg("Category image sync failed after product delete")
	} else if result.Action != SyncNone {
		logger.Info(ctx).
			Str("action", string(result.Action)).
			Str("category_id", result.CategoryID.Hex()).
			Msg("Category image synced")
	}

	return nil
}
