package command

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nayher/commerce-backend/internal/catalog/domain"
	"github.com/nayher/commerce-backend/pkg/apperr"
)

// SyncAction describes what an image sync pass did to a category.
type SyncAction string

const (
	SyncNone       SyncAction = "none"
	SyncAdopted    SyncAction = "adopted"
	SyncPropagated SyncAction = "propagated"
	SyncCleared    SyncAction = "cleared"
)

// SyncResult reports the outcome of one image sync pass.
type SyncResult struct {
	Action     SyncAction
	CategoryID primitive.ObjectID
	ProductID  primitive.ObjectID
}

// ImageSyncer keeps category images in sync with their products. It runs as a
// post-commit hook after product mutations: callers log a failed sync and move
// on, the product mutation itself is already committed and must not fail.
type ImageSyncer struct {
	products   domain.ProductRepository
	categories domain.CategoryRepository
}

func NewImageSyncer(products domain.ProductRepository, categories domain.CategoryRepository) *ImageSyncer {
	return &ImageSyncer{products: products, categories: categories}
}

// ProductCreated adopts the product's first image as the category image when
// the category has no image yet or its current image is auto-derived.
func (s *ImageSyncer) ProductCreated(ctx context.Context, product *domain.Product) (SyncResult, error) {
	if product.FirstImageURL() == "" {
		return SyncResult{Action: SyncNone}, nil
	}

	category, err := s.categories.FindByID(ctx, product.CategoryID)
	if err != nil {
		return SyncResult{Action: SyncNone}, err
	}

	if category.Image != "" && category.ImageSource != domain.ImageSourceAutoProduct {
		return SyncResult{Action: SyncNone}, nil
	}

	category.Image = product.FirstImageURL()
	category.ImageSource = domain.ImageSourceAutoProduct
	category.ImageFromProduct = product.ID
	if err := s.categories.Update(ctx, category); err != nil {
		return SyncResult{Action: SyncNone}, err
	}
	return SyncResult{Action: SyncAdopted, CategoryID: category.ID, ProductID: product.ID}, nil
}

// ProductUpdated handles category moves and first-image changes. A category
// move is treated as a delete against the old category and a create against
// the new one; an in-place image change propagates only when this product
// backs the category's auto image, and a backing product that ends up with no
// images at all rehomes the category like a delete.
func (s *ImageSyncer) ProductUpdated(ctx context.Context, updated *domain.Product, oldCategoryID primitive.ObjectID, oldFirstImage string) (SyncResult, error) {
	if updated.CategoryID != oldCategoryID {
		oldCategory, err := s.categories.FindByID(ctx, oldCategoryID)
		if err == nil && oldCategory.ImageFromProduct == updated.ID {
			if _, err := s.replaceBackingProduct(ctx, oldCategory, updated.ID); err != nil {
				return SyncResult{Action: SyncNone}, err
			}
		}
		return s.ProductCreated(ctx, updated)
	}

	if updated.FirstImageURL() == oldFirstImage {
		return SyncResult{Action: SyncNone}, nil
	}

	category, err := s.categories.FindByID(ctx, updated.CategoryID)
	if err != nil {
		return SyncResult{Action: SyncNone}, err
	}
	if category.ImageFromProduct != updated.ID {
		return SyncResult{Action: SyncNone}, nil
	}

	// The backing product lost all its images: rehome the category exactly
	// like a soft-delete would.
	if updated.FirstImageURL() == "" {
		return s.replaceBackingProduct(ctx, category, updated.ID)
	}

	category.Image = updated.FirstImageURL()
	if err := s.categories.Update(ctx, category); err != nil {
		return SyncResult{Action: SyncNone}, err
	}
	return SyncResult{Action: SyncPropagated, CategoryID: category.ID, ProductID: updated.ID}, nil
}

// ProductDeleted picks a replacement auto image from the next-oldest active
// product in the category, or clears the image back to manual when none is
// left.
func (s *ImageSyncer) ProductDeleted(ctx context.Context, product *domain.Product) (SyncResult, error) {
	category, err := s.categories.FindByID(ctx, product.CategoryID)
	if err != nil {
		return SyncResult{Action: SyncNone}, err
	}
	if category.ImageFromProduct != product.ID {
		return SyncResult{Action: SyncNone}, nil
	}
	return s.replaceBackingProduct(ctx, category, product.ID)
}

func (s *ImageSyncer) replaceBackingProduct(ctx context.Context, category *domain.Category, gone primitive.ObjectID) (SyncResult, error) {
	next, err := s.products.FindOldestActiveInCategory(ctx, category.ID, gone)
	if err != nil && !apperr.IsCode(err, apperr.CodeNotFound) {
		return SyncResult{Action: SyncNone}, err
	}

	if next != nil && next.FirstImageURL() != "" {
		category.Image = next.FirstImageURL()
		category.ImageSource = domain.ImageSourceAutoProduct
		category.ImageFromProduct = next.ID
		if err := s.categories.Update(ctx, category); err != nil {
			return SyncResult{Action: SyncNone}, err
		}
		return SyncResult{Action: SyncAdopted, CategoryID: category.ID, ProductID: next.ID}, nil
	}

	if category.ImageSource != domain.ImageSourceAutoProduct {
		return SyncResult{Action: SyncNone}, nil
	}
	category.Image = ""
	category.ImageSource = domain.ImageSourceManual
	category.ImageFromProduct = primitive.NilObjectID
	if err := s.categories.Update(ctx, category); err != nil {
		return SyncResult{Action: SyncNone}, err
	}
	return SyncResult{Action: SyncCleared, CategoryID: category.ID}, nil
}
