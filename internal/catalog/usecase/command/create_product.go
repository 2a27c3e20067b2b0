package command

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nayher/commerce-backend/internal/catalog/domain"
	"github.com/nayher/commerce-backend/pkg/apperr"
	"github.com/nayher/commerce-backend/pkg/logger"
)

// CreateProductCommand represents the command to create a new product
type CreateProductCommand struct {
	Name        string
	Description string
	Price       float64
	Stock       int
	SKU         string
	Tags        []string
	Colors      []string
	Sizes       []string
	Materials   []string
	Images      []domain.ProductImage
	CategoryID  primitive.ObjectID
	IsFeatured  bool
	CreatedBy   primitive.ObjectID
}

// CreateProductHandler handles product creation
type CreateProductHandler struct {
	products   domain.ProductRepository
	categories domain.CategoryRepository
	syncer     *ImageSyncer
}

func NewCreateProductHandler(products domain.ProductRepository, categories domain.CategoryRepository, syncer *ImageSyncer) *CreateProductHandler {
	return &CreateProductHandler{products: products, categories: categories, syncer: syncer}
}

// Handle executes the create product command
func (h *CreateProductHandler) Handle(ctx context.Context, cmd CreateProductCommand) (*domain.Product, error) {
	if cmd.Name == "" {
		return nil, apperr.New(apperr.CodeInvalidArgument, "Please provide product name")
	}
	if cmd.Description == "" {
		return nil, apperr.New(apperr.CodeInvalidArgument, "Please provide product description")
	}
	if cmd.Price < 0 {
		return nil, apperr.New(apperr.CodeInvalidArgument, "Price cannot be negative")
	}
	if cmd.Stock < 0 {
		return nil, apperr.New(apperr.CodeInvalidArgument, "Stock cannot be negative")
	}
	if cmd.CategoryID.IsZero() {
		return nil, apperr.New(apperr.CodeInvalidArgument, "Please provide product category")
	}

	category, err := h.categories.FindByID(ctx, cmd.CategoryID)
	if err != nil {
		return nil, err
	}
	if !category.IsActive {
		return nil, apperr.New(apperr.CodeNotFound, "Category not found")
	}

	sku := cmd.SKU
	if sku == "" {
		sku = domain.GenerateSKU()
	}

	product := &domain.Product{
		Name:        cmd.Name,
		Description: cmd.Description,
		Price:       cmd.Price,
		Stock:       cmd.Stock,
		Status:      domain.StatusAvailable,
		SKU:         sku,
		Tags:        cmd.Tags,
		Colors:      cmd.Colors,
		Sizes:       cmd.Sizes,
		Materials:   cmd.Materials,
		Images:      cmd.Images,
		CategoryID:  cmd.CategoryID,
		IsFeatured:  cmd.IsFeatured,
		IsActive:    true,
		CreatedBy:   cmd.CreatedBy,
	}
	product.ApplyStockStatus()

	if err := h.products.Create(ctx, product); err != nil {
		return nil, err
	}

	if result, err := h.syncer.ProductCreated(ctx, product); err != nil {
		logger.Warn(ctx).Err(err).
			Str("product_id", product.ID.Hex()).
			Msg("Category image sync failed after product create")
	} else if result.Action != SyncNone {
		logger.Info(ctx).
			Str("action", string(result.Action)).
			Str("category_id", result.CategoryID.Hex()).
			Msg("Category image synced")
	}

	return product, nil
}
