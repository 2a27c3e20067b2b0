package command

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nayher/commerce-backend/internal/catalog/domain"
	"github.com/nayher/commerce-backend/pkg/apperr"
	"github.com/nayher/commerce-backend/pkg/logger"
)

// UpdateProductCommand carries the full replacement state for a product.
// Nil slices mean "leave unchanged" is NOT supported here: the admin panel
// always submits the complete product form.
type UpdateProductCommand struct {
	ProductID   primitive.ObjectID
	Name        string
	Description string
	Price       float64
	Stock       int
	Status      string
	Tags        []string
	Colors      []string
	Sizes       []string
	Materials   []string
	Images      []domain.ProductImage
	CategoryID  primitive.ObjectID
	IsFeatured  bool
}

// UpdateProductHandler handles product updates
type UpdateProductHandler struct {
	products   domain.ProductRepository
	categories domain.CategoryRepository
	syncer     *ImageSyncer
}

func NewUpdateProductHandler(products domain.ProductRepository, categories domain.CategoryRepository, syncer *ImageSyncer) *UpdateProductHandler {
	return &UpdateProductHandler{products: products, categories: categories, syncer: syncer}
}

// Handle executes the update product command
func (h *UpdateProductHandler) Handle(ctx context.Context, cmd UpdateProductCommand) (*domain.Product, error) {
	if cmd.Name == "" {
		return nil, apperr.New(apperr.CodeInvalidArgument, "Please provide product name")
	}
	if cmd.Price < 0 {
		return nil, apperr.New(apperr.CodeInvalidArgument, "Price cannot be negative")
	}
	if cmd.Stock < 0 {
		return nil, apperr.New(apperr.CodeInvalidArgument, "Stock cannot be negative")
	}
	if cmd.Status != "" && cmd.Status != domain.StatusAvailable &&
		cmd.Status != domain.StatusSoldOut && cmd.Status != domain.StatusDiscontinued {
		return nil, apperr.New(apperr.CodeInvalidArgument, "Invalid product status")
	}

	product, err := h.products.FindByID(ctx, cmd.ProductID)
	if err != nil {
		return nil, err
	}

	oldCategoryID := product.CategoryID
	oldFirstImage := product.FirstImageURL()

	if cmd.CategoryID != oldCategoryID {
		category, err := h.categories.FindByID(ctx, cmd.CategoryID)
		if err != nil {
			return nil, err
		}
		if !category.IsActive {
			return nil, apperr.New(apperr.CodeNotFound, "Category not found")
		}
	}

	product.Name = cmd.Name
	product.Description = cmd.Description
	product.Price = cmd.Price
	product.Stock = cmd.Stock
	if cmd.Status != "" {
		product.Status = cmd.Status
	}
	product.Tags = cmd.Tags
	product.Colors = cmd.Colors
	product.Sizes = cmd.Sizes
	product.Materials = cmd.Materials
	product.Images = cmd.Images
	product.CategoryID = cmd.CategoryID
	product.IsFeatured = cmd.IsFeatured
	product.ApplyStockStatus()

	if err := h.products.Update(ctx, product); err != nil {
		return nil, err
	}

	if result, err := h.syncer.ProductUpdated(ctx, product, oldCategoryID, oldFirstImage); err != nil {
		logger.Warn(ctx).Err(err).
			Str("product_id", product.ID.Hex()).
			Msg("Category image sync failed after product update")
	} else if result.Action != SyncNone {
		logger.Info(ctx).
			Str("action", string(result.Action)).
			Str("category_id", result.CategoryID.Hex()).
			Msg("Category image synced")
	}

	return product, nil
}
