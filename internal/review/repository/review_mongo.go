package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nayher/commerce-backend/internal/review/domain"
	"github.com/nayher/commerce-backend/pkg/apperr"
)

type MongoReviewRepository struct {
	col *mongo.Collection
}

func NewMongoReviewRepository(db *mongo.Database) *MongoReviewRepository {
	return &MongoReviewRepository{col: db.Collection("reviews")}
}

// EnsureIndexes enforces one review per signed-in user per product. The
// index is partial so anonymous reviews, which carry no user field, are not
// constrained.
func (r *MongoReviewRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "product", Value: 1}, {Key: "user", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"user": bson.M{"$exists": true}}),
	})
	return err
}

func (r *MongoReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	now := time.Now()
	review.CreatedAt = now
	review.UpdatedAt = now
	res, err := r.col.InsertOne(ctx, review)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.New(apperr.CodeConflict, "You have already reviewed this product")
		}
		return apperr.Wrap(err, apperr.CodeUpstream, "Failed to create review")
	}
	review.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *MongoReviewRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Review, error) {
	var review domain.Review
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&review)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.New(apperr.CodeNotFound, "Review not found")
	}
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeUpstream, "Failed to load review")
	}
	return &review, nil
}

func (r *MongoReviewRepository) List(ctx context.Context, filter domain.ReviewFilter) ([]*domain.Review, int64, error) {
	query := bson.M{}
	if filter.ProductID != nil {
		query["product"] = *filter.ProductID
	}
	if filter.ApprovedOnly {
		query["isApproved"] = true
	}

	total, err := r.col.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, apperr.Wrap(err, apperr.CodeUpstream, "Failed to count reviews")
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
		return nil, 0, apperr.Wrap(err, apperr.CodeUpstream, "Failed to list reviews")
	}
	defer cursor.Close(ctx)

	var reviews []*domain.Review
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, 0, apperr.Wrap(err, apperr.CodeUpstream, "Failed to decode reviews")
	}
	return reviews, total, nil
}

func (r *MongoReviewRepository) Update(ctx context.Context, review *domain.Review) error {
	review.UpdatedAt = time.Now()
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": review.ID}, review)
	if err != nil {
		return apperr.Wrap(err, apperr.CodeUpstream, "Failed to update review")
	}
	if res.MatchedCount == 0 {
		return apperr.New(apperr.CodeNotFound, "Review not found")
	}
	return nil
}

func (r *MongoReviewRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return apperr.Wrap(err, apperr.CodeUpstream, "Failed to delete review")
	}
	if res.DeletedCount == 0 {
		return apperr.New(apperr.CodeNotFound, "Review not found")
	}
	return nil
}

func (r *MongoReviewRepository) Stats(ctx context.Context, productID primitive.ObjectID) (*domain.Statistics, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"product": productID, "isApproved": true}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$rating",
			"count": bson.M{"$sum": 1},
		}}},
	}
	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeUpstream, "Failed to aggregate reviews")
	}
	defer cursor.Close(ctx)

	var buckets []struct {
		Rating int   `bson:"_id"`
		Count  int64 `bson:"count"`
	}
	if err := cursor.All(ctx, &buckets); err != nil {
		return nil, apperr.Wrap(err, apperr.CodeUpstream, "Failed to decode review stats")
	}

	stats := &domain.Statistics{Distribution: map[int]int64{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}}
	var sum int64
	for _, b := range buckets {
		stats.Distribution[b.Rating] = b.Count
		stats.Count += b.Count
		sum += int64(b.Rating) * b.Count
	}
	if stats.Count > 0 {
		stats.Average = float64(sum) / float64(stats.Count)
	}
	return stats, nil
}
