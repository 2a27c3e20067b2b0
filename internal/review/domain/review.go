package domain

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Review is one visitor's review of a product. Signed-in users are linked via
// UserID and write at most one review per product; anonymous reviews carry
// only the reviewer name and optional email.
type Review struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProductID          primitive.ObjectID `bson:"product" json:"product"`
	UserID             primitive.ObjectID `bson:"user,omitempty" json:"user,omitempty"`
	ReviewerName       string             `bson:"reviewerName" json:"reviewerName"`
	ReviewerEmail      string             `bson:"reviewerEmail,omitempty" json:"reviewerEmail,omitempty"`
	Rating             int                `bson:"rating" json:"rating"`
	Title              string             `bson:"title,omitempty" json:"title,omitempty"`
	Comment            string             `bson:"comment" json:"comment"`
	IsApproved         bool               `bson:"isApproved" json:"isApproved"`
	IsVerifiedPurchase bool               `bson:"isVerifiedPurchase" json:"isVerifiedPurchase"`
	HelpfulCount       int                `bson:"helpfulCount" json:"helpfulCount"`
	CreatedAt          time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Statistics aggregates the approved reviews of one product.
type Statistics struct {
	Average      float64       `json:"average"`
	Count        int64         `json:"count"`
	Distribution map[int]int64 `json:"distribution"`
}

// ReviewFilter narrows review listings.
type ReviewFilter struct {
	ProductID    *primitive.ObjectID
	ApprovedOnly bool
	Page         int
	Limit        int
}

// ReviewRepository defines the contract for review data access.
type ReviewRepository interface {
	Create(ctx context.Context, review *Review) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*Review, error)
	List(ctx context.Context, filter ReviewFilter) ([]*Review, int64, error)
	Update(ctx context.Context, review *Review) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	// Stats aggregates approved reviews for the product, including the
	// per-star distribution.
	Stats(ctx context.Context, productID primitive.ObjectID) (*Statistics, error)
}
