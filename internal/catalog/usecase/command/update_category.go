package command

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nayher/commerce-backend/internal/catalog/domain"
	"github.com/nayher/commerce-backend/pkg/apperr"
)

// UpdateCategoryCommand updates a category. Image semantics: setting a new,
// different image flips the category to a manual image and detaches the
// backing product; an empty Image leaves the current image alone unless
// ClearImage is set.
type UpdateCategoryCommand struct {
	CategoryID  primitive.ObjectID
	Name        string
	Description string
	Image       string
	ClearImage  bool
}

// UpdateCategoryHandler handles category updates
type UpdateCategoryHandler struct {
	categories domain.CategoryRepository
}

func NewUpdateCategoryHandler(categories domain.CategoryRepository) *UpdateCategoryHandler {
	return &UpdateCategoryHandler{categories: categories}
}

// Handle executes the update category command
func (h *UpdateCategoryHandler) Handle(ctx context.Context, cmd UpdateCategoryCommand) (*domain.Category, error) {
	category, err := h.categories.FindByID(ctx, cmd.CategoryID)
	if err != nil {
		return nil, err
	}

	if cmd.Name != "" && cmd.Name != category.Name {
		slug := domain.Slugify(cmd.Name)
		if slug == "" {
			return nil, apperr.New(apperr.CodeInvalidArgument, "Category name must contain letters or digits")
		}
		category.Name = cmd.Name
		category.Slug = slug
	}
	if cmd.Description != "" {
		category.Description = cmd.Description
	}

	switch {
	case cmd.ClearImage:
		category.Image = ""
		category.ImageSource = domain.ImageSourceManual
		category.ImageFromProduct = primitive.NilObjectID
	case cmd.Image != "" && cmd.Image != category.Image:
		category.Image = cmd.Image
		category.ImageSource = domain.ImageSourceManual
		category.ImageFromProduct = primitive.NilObjectID
	}

	if err := h.categories.Update(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}
