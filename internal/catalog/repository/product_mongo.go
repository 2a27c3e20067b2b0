package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nayher/commerce-backend/internal/catalog/domain"
	"github.com/nayher/commerce-backend/pkg/apperr"
)

type MongoProductRepository struct {
	col *mongo.Collection
}

func NewMongoProductRepository(db *mongo.Database) *MongoProductRepository {
	return &MongoProductRepository{col: db.Collection("products")}
}

// EnsureIndexes creates the unique SKU index.
func (r *MongoProductRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "sku", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *MongoProductRepository) Create(ctx context.Context, product *domain.Product) error {
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now
	res, err := r.col.InsertOne(ctx, product)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.New(apperr.CodeConflict, "SKU already exists")
		}
		return apperr.Wrap(err, apperr.CodeUpstream, "Failed to create product")
	}
	product.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *MongoProductRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Product, error) {
	var product domain.Product
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.New(apperr.CodeNotFound, "Product not found")
	}
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeUpstream, "Failed to load product")
	}
	return &product, nil
}

func (r *MongoProductRepository) List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int64, error) {
	query := bson.M{}
	if !filter.IncludeInactive {
		query["isActive"] = true
	}
	if filter.CategoryID != nil {
		query["category"] = *filter.CategoryID
	}
	if filter.Search != "" {
		pattern := primitive.Regex{Pattern: filter.Search, Options: "i"}
		query["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"description": pattern},
			bson.M{"tags": pattern},
		}
	}
	if filter.MinPrice != nil || filter.MaxPrice != nil {
		price := bson.M{}
		if filter.MinPrice != nil {
			price["$gte"] = *filter.MinPrice
		}
		if filter.MaxPrice != nil {
			price["$lte"] = *filter.MaxPrice
		}
		query["price"] = price
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.FeaturedOnly {
		query["isFeatured"] = true
	}

	total, err := r.col.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, apperr.Wrap(err, apperr.CodeUpstream, "Failed to count products")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 12
	}
	field, descending := domain.NormalizeSort(filter.Sort)
	direction := 1
	if descending {
		direction = -1
	}

	opts := options.Find().
		SetSort(bson.D{{Key: field, Value: direction}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cur, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, apperr.Wrap(err, apperr.CodeUpstream, "Failed to list products")
	}
	defer cur.Close(ctx)

	var products []domain.Product
	if err := cur.All(ctx, &products); err != nil {
		return nil, 0, apperr.Wrap(err, apperr.CodeUpstream, "Failed to decode products")
	}
	return products, total, nil
}

func (r *MongoProductRepository) Update(ctx context.Context, product *domain.Product) error {
	product.UpdatedAt = time.Now()
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": product.ID}, product)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.New(apperr.CodeConflict, "SKU already exists")
		}
		return apperr.Wrap(err, apperr.CodeUpstream, "Failed to update product")
	}
	if res.MatchedCount == 0 {
		return apperr.New(apperr.CodeNotFound, "Product not found")
	}
	return nil
}

func (r *MongoProductRepository) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"isActive": false, "updatedAt": time.Now()},
	})
	if err != nil {
		return apperr.Wrap(err, apperr.CodeUpstream, "Failed to delete product")
	}
	if res.MatchedCount == 0 {
		return apperr.New(apperr.CodeNotFound, "Product not found")
	}
	return nil
}

func (r *MongoProductRepository) CountActiveInCategory(ctx context.Context, categoryID primitive.ObjectID) (int64, error) {
	count, err := r.col.CountDocuments(ctx, bson.M{"category": categoryID, "isActive": true})
	if err != nil {
		return 0, apperr.Wrap(err, apperr.CodeUpstream, "Failed to count products")
	}
	return count, nil
}

func (r *MongoProductRepository) FindOldestActiveInCategory(ctx context.Context, categoryID, exclude primitive.ObjectID) (*domain.Product, error) {
	query := bson.M{
		"category": categoryID,
		"isActive": true,
		"_id":      bson.M{"$ne": exclude},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: 1}})

	var product domain.Product
	err := r.col.FindOne(ctx, query, opts).Decode(&product)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.New(apperr.CodeNotFound, "Product not found")
	}
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeUpstream, "Failed to load product")
	}
	return &product, nil
}

func (r *MongoProductRepository) UpdateRating(ctx context.Context, id primitive.ObjectID, rating domain.Rating) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"rating": rating, "updatedAt": time.Now()},
	})
	if err != nil {
		return apperr.Wrap(err, apperr.CodeUpstream, "Failed to update rating")
	}
	return nil
}
