package domain

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartItem is a line in a cart. Price is snapshotted at add time; the
// populated view reflects current product data.
type CartItem struct {
	ProductID primitive.ObjectID `bson:"product" json:"product"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Price     float64            `bson:"price" json:"price"`
	Color     string             `bson:"color,omitempty" json:"color,omitempty"`
	Size      string             `bson:"size,omitempty" json:"size,omitempty"`
	AddedAt   time.Time          `bson:"addedAt" json:"addedAt"`
}

// Matches reports whether the item and the given variant describe the same
// cart line. Lines merge on (product, color, size).
func (i CartItem) Matches(productID primitive.ObjectID, color, size string) bool {
	return i.ProductID == productID && i.Color == color && i.Size == size
}

// Cart holds one user's cart. There is at most one cart per user.
type Cart struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user" json:"user"`
	Items     []CartItem         `bson:"items" json:"items"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// FindItem returns the index of the line matching the variant, or -1.
func (c *Cart) FindItem(productID primitive.ObjectID, color, size string) int {
	for i, item := range c.Items {
		if item.Matches(productID, color, size) {
			return i
		}
	}
	return -1
}

// PopulatedItem is a cart line joined with its current product summary.
type PopulatedItem struct {
	Product  ItemProduct `json:"product"`
	Quantity int         `json:"quantity"`
	Price    float64     `json:"price"`
	Color    string      `json:"color,omitempty"`
	Size     string      `json:"size,omitempty"`
	AddedAt  time.Time   `json:"addedAt"`
	Subtotal float64     `json:"subtotal"`
}

// ItemProduct is the product summary embedded in a populated cart.
type ItemProduct struct {
	ID     primitive.ObjectID `json:"id"`
	Name   string             `json:"name"`
	Price  float64            `json:"price"`
	Image  string             `json:"image,omitempty"`
	Stock  int                `json:"stock"`
	Status string             `json:"status"`
}

// PopulatedCart is the cart view returned to clients.
type PopulatedCart struct {
	ID         primitive.ObjectID `json:"id"`
	UserID     primitive.ObjectID `json:"user"`
	Items      []PopulatedItem    `json:"items"`
	TotalItems int                `json:"totalItems"`
	Subtotal   float64            `json:"subtotal"`
	UpdatedAt  time.Time          `json:"updatedAt"`
}

// CartRepository defines the contract for cart data access.
type CartRepository interface {
	// FindByUser returns the user's cart, or a NotFound error when none exists.
	FindByUser(ctx context.Context, userID primitive.ObjectID) (*Cart, error)
	// Save upserts the cart keyed by its user.
	Save(ctx context.Context, cart *Cart) error
}
