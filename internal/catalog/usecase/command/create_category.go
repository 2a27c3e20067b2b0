package command

import (
	"context"

	"github.com/nayher/commerce-backend/internal/catalog/domain"
	"github.com/nayher/commerce-backend/pkg/apperr"
)

// CreateCategoryCommand represents the command to create a new category
type CreateCategoryCommand struct {
	Name        string
	Description string
	Image       string
}

// CreateCategoryHandler handles category creation
type CreateCategoryHandler struct {
	categories domain.CategoryRepository
}

func NewCreateCategoryHandler(categories domain.CategoryRepository) *CreateCategoryHandler {
	return &CreateCategoryHandler{categories: categories}
}

// Handle executes the create category command
func (h *CreateCategoryHandler) Handle(ctx context.Context, cmd CreateCategoryCommand) (*domain.Category, error) {
	if cmd.Name == "" {
		return nil, apperr.New(apperr.CodeInvalidArgument, "Please provide category name")
	}
	slug := domain.Slugify(cmd.Name)
	if slug == "" {
		return nil, apperr.New(apperr.CodeInvalidArgument, "Category name must contain letters or digits")
	}

	category := &domain.Category{
		Name:        cmd.Name,
		Slug:        slug,
		Description: cmd.Description,
		Image:       cmd.Image,
		ImageSource: domain.ImageSourceManual,
		IsActive:    true,
	}

	if err := h.categories.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}
