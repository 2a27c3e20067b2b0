package repository

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nayher/commerce-backend/internal/user/domain"
	"github.com/nayher/commerce-backend/pkg/apperr"
)

type MongoUserRepository struct {
	col *mongo.Collection
}

func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{col: db.Collection("users")}
}

// EnsureIndexes creates the unique email index.
func (r *MongoUserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *MongoUserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	var user domain.User
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.New(apperr.CodeNotFound, "User not found")
	}
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeUpstream, "Failed to load user")
	}
	return &user, nil
}

func (r *MongoUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.col.FindOne(ctx, bson.M{"email": strings.ToLower(email)}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.New(apperr.CodeNotFound, "User not found")
	}
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeUpstream, "Failed to load user")
	}
	return &user, nil
}

func (r *MongoUserRepository) Create(ctx context.Context, user *domain.User) error {
	now := time.Now()
	user.Email = strings.ToLower(user.Email)
	user.CreatedAt = now
	user.UpdatedAt = now
	res, err := r.col.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.New(apperr.CodeConflict, "Email already registered")
		}
		return apperr.Wrap(err, apperr.CodeUpstream, "Failed to create user")
	}
	user.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *MongoUserRepository) FindOrCreateGuest(ctx context.Context, email string) (*domain.User, error) {
	existing, err := r.FindByEmail(ctx, email)
	if err == nil {
		return existing, nil
	}
	if !apperr.IsCode(err, apperr.CodeNotFound) {
		return nil, err
	}

	name := email
	if at := strings.Index(email, "@"); at > 0 {
		name = email[:at]
	}
	guest := &domain.User{
		Name:     name,
		Email:    email,
		Role:     domain.RoleUser,
		IsGuest:  true,
		IsActive: true,
	}
	if err := r.Create(ctx, guest); err != nil {
		// Lost a race against a concurrent verification for the same email.
		if apperr.IsCode(err, apperr.CodeConflict) {
			return r.FindByEmail(ctx, email)
		}
		return nil, err
	}
	return guest, nil
}
