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

type MongoCategoryRepository struct {
	col *mongo.Collection
}

func NewMongoCategoryRepository(db *mongo.Database) *MongoCategoryRepository {
	return &MongoCategoryRepository{col: db.Collection("categories")}
}

// EnsureIndexes creates the unique name and slug indexes.
func (r *MongoCategoryRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	return err
}

func (r *MongoCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	now := time.Now()
	category.CreatedAt = now
	category.UpdatedAt = now
	res, err := r.col.InsertOne(ctx, category)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.New(apperr.CodeConflict, "Category name already exists")
		}
		return apperr.Wrap(err, apperr.CodeUpstream, "Failed to create category")
	}
	category.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *MongoCategoryRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Category, error) {
	var category domain.Category
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&category)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.New(apperr.CodeNotFound, "Category not found")
	}
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeUpstream, "Failed to load category")
	}
	return &category, nil
}

func (r *MongoCategoryRepository) FindBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	var category domain.Category
	err := r.col.FindOne(ctx, bson.M{"slug": slug}).Decode(&category)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.New(apperr.CodeNotFound, "Category not found")
	}
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeUpstream, "Failed to load category")
	}
	return &category, nil
}

func (r *MongoCategoryRepository) List(ctx context.Context, activeOnly bool) ([]domain.Category, error) {
	query := bson.M{}
	if activeOnly {
		query["isActive"] = true
	}
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})

	cur, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeUpstream, "Failed to list categories")
	}
	defer cur.Close(ctx)

	var categories []domain.Category
	if err := cur.All(ctx, &categories); err != nil {
		return nil, apperr.Wrap(err, apperr.CodeUpstream, "Failed to decode categories")
	}
	return categories, nil
}

func (r *MongoCategoryRepository) Update(ctx context.Context, category *domain.Category) error {
	category.UpdatedAt = time.Now()
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": category.ID}, category)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.New(apperr.CodeConflict, "Category name already exists")
		}
		return apperr.Wrap(err, apperr.CodeUpstream, "Failed to update category")
	}
	if res.MatchedCount == 0 {
		return apperr.New(apperr.CodeNotFound, "Category not found")
	}
	return nil
}

func (r *MongoCategoryRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return apperr.Wrap(err, apperr.CodeUpstream, "Failed to delete category")
	}
	if res.DeletedCount == 0 {
		return apperr.New(apperr.CodeNotFound, "Category not found")
	}
	return nil
}
