package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nayher/commerce-backend/internal/catalog/domain"
)

var tracer = otel.Tracer("catalog-repository")

// TracingProductRepository wraps a ProductRepository with tracing spans.
type TracingProductRepository struct {
	inner domain.ProductRepository
}

func NewTracingProductRepository(inner domain.ProductRepository) *TracingProductRepository {
	return &TracingProductRepository{inner: inner}
}

func (r *TracingProductRepository) Create(ctx context.Context, product *domain.Product) error {
	ctx, span := tracer.Start(ctx, "repository.Create",
		trace.WithAttributes(
			attribute.String("product.name", product.Name),
			attribute.String("product.sku", product.SKU),
			attribute.Float64("product.price", product.Price),
			attribute.Int("product.stock", product.Stock),
		),
	)
	defer span.End()

	if err := r.inner.Create(ctx, product); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetAttributes(attribute.String("product.id", product.ID.Hex()))
	return nil
}

func (r *TracingProductRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Product, error) {
	ctx, span := tracer.Start(ctx, "repository.FindByID",
		trace.WithAttributes(attribute.String("product.id", id.Hex())),
	)
	defer span.End()

	product, err := r.inner.FindByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.String("product.name", product.Name),
		attribute.Bool("product.is_active", product.IsActive),
	)
	return product, nil
}

func (r *TracingProductRepository) List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int64, error) {
	ctx, span := tracer.Start(ctx, "repository.List",
		trace.WithAttributes(
			attribute.Int("query.page", filter.Page),
			attribute.Int("query.limit", filter.Limit),
			attribute.String("query.search", filter.Search),
		),
	)
	defer span.End()

	products, total, err := r.inner.List(ctx, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, 0, err
	}
	span.SetAttributes(
		attribute.Int("result.count", len(products)),
		attribute.Int64("result.total", total),
	)
	return products, total, nil
}

func (r *TracingProductRepository) Update(ctx context.Context, product *domain.Product) error {
	ctx, span := tracer.Start(ctx, "repository.Update",
		trace.WithAttributes(
			attribute.String("product.id", product.ID.Hex()),
			attribute.String("product.name", product.Name),
		),
	)
	defer span.End()

	if err := r.inner.Update(ctx, product); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (r *TracingProductRepository) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	ctx, span := tracer.Start(ctx, "repository.SoftDelete",
		trace.WithAttributes(attribute.String("product.id", id.Hex())),
	)
	defer span.End()

	if err := r.inner.SoftDelete(ctx, id); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (r *TracingProductRepository) CountActiveInCategory(ctx context.Context, categoryID primitive.ObjectID) (int64, error) {
	ctx, span := tracer.Start(ctx, "repository.CountActiveInCategory",
		trace.WithAttributes(attribute.String("category.id", categoryID.Hex())),
	)
	defer span.End()

	count, err := r.inner.CountActiveInCategory(ctx, categoryID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	span.SetAttributes(attribute.Int64("result.count", count))
	return count, nil
}

func (r *TracingProductRepository) FindOldestActiveInCategory(ctx context.Context, categoryID, exclude primitive.ObjectID) (*domain.Product, error) {
	ctx, span := tracer.Start(ctx, "repository.FindOldestActiveInCategory",
		trace.WithAttributes(attribute.String("category.id", categoryID.Hex())),
	)
	defer span.End()

	product, err := r.inner.FindOldestActiveInCategory(ctx, categoryID, exclude)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return product, nil
}

func (r *TracingProductRepository) UpdateRating(ctx context.Context, id primitive.ObjectID, rating domain.Rating) error {
	ctx, span := tracer.Start(ctx, "repository.UpdateRating",
		trace.WithAttributes(
			attribute.String("product.id", id.Hex()),
			attribute.Float64("rating.average", rating.Average),
			attribute.Int64("rating.count", rating.Count),
		),
	)
	defer span.End()

	if err := r.inner.UpdateRating(ctx, id, rating); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}
