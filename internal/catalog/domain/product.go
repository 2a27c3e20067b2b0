package domain

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product statuses. Status is derived from stock: zero stock forces sold-out,
// restocking a sold-out product makes it available again. Discontinued is only
// ever set by an admin and is not touched by the derivation.
const (
	StatusAvailable    = "available"
	StatusSoldOut      = "sold-out"
	StatusDiscontinued = "discontinued"
)

// ProductImage is one entry of a product's ordered image list.
type ProductImage struct {
	URL string `bson:"url" json:"url"`
	Alt string `bson:"alt,omitempty" json:"alt,omitempty"`
}

// Rating is the canonical review aggregate for a product.
type Rating struct {
	Average float64 `bson:"average" json:"average"`
	Count   int64   `bson:"count" json:"count"`
}

// Product represents a catalog product. Products are soft-deleted
// (IsActive=false) so historical order line items keep a valid reference.
type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	Price       float64            `bson:"price" json:"price"`
	Stock       int                `bson:"stock" json:"stock"`
	Status      string             `bson:"status" json:"status"`
	SKU         string             `bson:"sku" json:"sku"`
	Tags        []string           `bson:"tags,omitempty" json:"tags,omitempty"`
	Colors      []string           `bson:"colors,omitempty" json:"colors,omitempty"`
	Sizes       []string           `bson:"sizes,omitempty" json:"sizes,omitempty"`
	Materials   []string           `bson:"materials,omitempty" json:"materials,omitempty"`
	Images      []ProductImage     `bson:"images,omitempty" json:"images"`
	CategoryID  primitive.ObjectID `bson:"category" json:"category"`
	IsFeatured  bool               `bson:"isFeatured" json:"isFeatured"`
	Rating      Rating             `bson:"rating" json:"rating"`
	IsActive    bool               `bson:"isActive" json:"isActive"`
	CreatedBy   primitive.ObjectID `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ApplyStockStatus keeps the stock==0 <=> sold-out invariant. Must be called
// after every stock-affecting mutation, before persisting.
func (p *Product) ApplyStockStatus() {
	if p.Stock == 0 {
		p.Status = StatusSoldOut
	} else if p.Status == StatusSoldOut {
		p.Status = StatusAvailable
	}
}

// FirstImageURL returns the URL of the first image, or "" when there is none.
func (p *Product) FirstImageURL() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0].URL
}

const base36Upper = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// GenerateSKU produces a unique-enough SKU for products created without one.
func GenerateSKU() string {
	suffix := make([]byte, 9)
	for i := range suffix {
		suffix[i] = base36Upper[rand.IntN(len(base36Upper))]
	}
	return fmt.Sprintf("NYH-%d-%s", time.Now().UnixMilli(), suffix)
}

// ProductFilter narrows a product listing.
type ProductFilter struct {
	CategoryID      *primitive.ObjectID
	Search          string
	MinPrice        *float64
	MaxPrice        *float64
	Status          string
	FeaturedOnly    bool
	IncludeInactive bool
	Sort            string
	Page            int
	Limit           int
}

// ProductRepository defines the contract for product data access.
type ProductRepository interface {
	Create(ctx context.Context, product *Product) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*Product, error)
	List(ctx context.Context, filter ProductFilter) ([]Product, int64, error)
	Update(ctx context.Context, product *Product) error
	SoftDelete(ctx context.Context, id primitive.ObjectID) error
	CountActiveInCategory(ctx context.Context, categoryID primitive.ObjectID) (int64, error)
	FindOldestActiveInCategory(ctx context.Context, categoryID, exclude primitive.ObjectID) (*Product, error)
	UpdateRating(ctx context.Context, id primitive.ObjectID, rating Rating) error
}

// NormalizeSort maps the API sort parameter to a safe field/direction pair.
func NormalizeSort(sort string) (field string, descending bool) {
	if sort == "" {
		return "createdAt", true
	}
	if strings.HasPrefix(sort, "-") {
		return sortField(sort[1:]), true
	}
	return sortField(sort), false
}

func sortField(name string) string {
	switch name {
	case "price", "name", "createdAt", "stock":
		return name
	default:
		return "createdAt"
	}
}
