package domain

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is the minimal account record this backend needs. Credential handling
// and token issuance live in the external identity provider; guest records are
// created here when an anonymous checkout completes.
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	Role      string             `bson:"role" json:"role"`
	IsGuest   bool               `bson:"isGuest" json:"isGuest"`
	IsActive  bool               `bson:"isActive" json:"isActive"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// UserRepository defines the contract for user data access.
type UserRepository interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, user *User) error
	// FindOrCreateGuest returns the user with the given email, creating a
	// guest record when none exists.
	FindOrCreateGuest(ctx context.Context, email string) (*User, error)
}
