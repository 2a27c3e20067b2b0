package domain

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category image sources. An auto image mirrors one of the category's
// products and is overwritten by the image sync hook; a manual image is
// admin-set and never touched automatically.
const (
	ImageSourceManual      = "manual"
	ImageSourceAutoProduct = "auto-from-product"
)

// Category groups products. Name and slug are unique; the slug is always
// derived from the name.
type Category struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name             string             `bson:"name" json:"name"`
	Slug             string             `bson:"slug" json:"slug"`
	Description      string             `bson:"description,omitempty" json:"description,omitempty"`
	Image            string             `bson:"image,omitempty" json:"image"`
	ImageSource      string             `bson:"imageSource" json:"imageSource"`
	ImageFromProduct primitive.ObjectID `bson:"imageFromProduct,omitempty" json:"imageFromProduct,omitempty"`
	IsActive         bool               `bson:"isActive" json:"isActive"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Slugify derives the URL slug from a category name: lowercase, drop anything
// that is not alphanumeric, space or hyphen, turn spaces into hyphens,
// collapse runs of hyphens and trim them from the ends. Applying it to its own
// output yields the same result.
func Slugify(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '\t', r == '-':
			b.WriteRune('-')
		}
	}
	slug := b.String()
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	return strings.Trim(slug, "-")
}

// CategoryRepository defines the contract for category data access.
type CategoryRepository interface {
	Create(ctx context.Context, category *Category) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*Category, error)
	FindBySlug(ctx context.Context, slug string) (*Category, error)
	List(ctx context.Context, activeOnly bool) ([]Category, error)
	Update(ctx context.Context, category *Category) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}
