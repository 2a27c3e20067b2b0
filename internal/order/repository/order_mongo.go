package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nayher/commerce-backend/internal/order/domain"
	"github.com/nayher/commerce-backend/pkg/apperr"
)

type MongoOrderRepository struct {
	col *mongo.Collection
}

func NewMongoOrderRepository(db *mongo.Database) *MongoOrderRepository {
	return &MongoOrderRepository{col: db.Collection("orders")}
}

// EnsureIndexes creates the unique order number index plus lookup indexes.
func (r *MongoOrderRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "orderNumber", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "payment.transactionId", Value: 1}},
		},
	})
	return err
}

func (r *MongoOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now
	res, err := r.col.InsertOne(ctx, order)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.New(apperr.CodeConflict, "Order number already exists")
		}
		return apperr.Wrap(err, apperr.CodeUpstream, "Failed to create order")
	}
	order.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *MongoOrderRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Order, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	return r.findOne(ctx, bson.M{"orderNumber": orderNumber})
}

func (r *MongoOrderRepository) FindByTransactionID(ctx context.Context, transactionID string) (*domain.Order, error) {
	return r.findOne(ctx, bson.M{"payment.transactionId": transactionID})
}

func (r *MongoOrderRepository) findOne(ctx context.Context, filter bson.M) (*domain.Order, error) {
	var order domain.Order
	err := r.col.FindOne(ctx, filter).Decode(&order)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.New(apperr.CodeNotFound, "Order not found")
	}
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeUpstream, "Failed to load order")
	}
	return &order, nil
}

func (r *MongoOrderRepository) List(ctx context.Context, filter domain.OrderFilter) ([]*domain.Order, int64, error) {
	query := bson.M{}
	if filter.UserID != nil {
		query["user"] = *filter.UserID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}

	total, err := r.col.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, apperr.Wrap(err, apperr.CodeUpstream, "Failed to count orders")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 10
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, apperr.Wrap(err, apperr.CodeUpstream, "Failed to list orders")
	}
	defer cursor.Close(ctx)

	var orders []*domain.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, 0, apperr.Wrap(err, apperr.CodeUpstream, "Failed to decode orders")
	}
	return orders, total, nil
}

func (r *MongoOrderRepository) Update(ctx context.Context, order *domain.Order) error {
	order.UpdatedAt = time.Now()
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": order.ID}, order)
	if err != nil {
		return apperr.Wrap(err, apperr.CodeUpstream, "Failed to update order")
	}
	if res.MatchedCount == 0 {
		return apperr.New(apperr.CodeNotFound, "Order not found")
	}
	return nil
}
