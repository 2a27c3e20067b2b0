package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nayher/commerce-backend/internal/cart/domain"
	"github.com/nayher/commerce-backend/pkg/apperr"
)

type MongoCartRepository struct {
	col *mongo.Collection
}

func NewMongoCartRepository(db *mongo.Database) *MongoCartRepository {
	return &MongoCartRepository{col: db.Collection("carts")}
}

// EnsureIndexes creates the unique per-user index.
func (r *MongoCartRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *MongoCartRepository) FindByUser(ctx context.Context, userID primitive.ObjectID) (*domain.Cart, error) {
	var cart domain.Cart
	err := r.col.FindOne(ctx, bson.M{"user": userID}).Decode(&cart)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.New(apperr.CodeNotFound, "Cart not found")
	}
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeUpstream, "Failed to load cart")
	}
	return &cart, nil
}

func (r *MongoCartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	now := time.Now()
	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = now
	}
	cart.UpdatedAt = now
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}

	res, err := r.col.UpdateOne(ctx,
		bson.M{"user": cart.UserID},
		bson.M{"$set": bson.M{
			"items":     cart.Items,
			"updatedAt": cart.UpdatedAt,
		}, "$setOnInsert": bson.M{
			"user":      cart.UserID,
			"createdAt": cart.CreatedAt,
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return apperr.Wrap(err, apperr.CodeUpstream, "Failed to save cart")
	}
	if res.UpsertedID != nil {
		cart.ID = res.UpsertedID.(primitive.ObjectID)
	}
	return nil
}
