package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nayher/commerce-backend/internal/order/domain"
)

var tracer = otel.Tracer("order-repository")

// TracingOrderRepository wraps an OrderRepository with OpenTelemetry spans.
type TracingOrderRepository struct {
	inner domain.OrderRepository
}

func NewTracingOrderRepository(inner domain.OrderRepository) *TracingOrderRepository {
	return &TracingOrderRepository{inner: inner}
}

func (r *TracingOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	ctx, span := tracer.Start(ctx, "OrderRepository.Create",
		trace.WithAttributes(attribute.String("order.number", order.OrderNumber)))
	defer span.End()

	err := r.inner.Create(ctx, order)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetAttributes(attribute.String("order.id", order.ID.Hex()))
	return nil
}

func (r *TracingOrderRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Order, error) {
	ctx, span := tracer.Start(ctx, "OrderRepository.FindByID",
		trace.WithAttributes(attribute.String("order.id", id.Hex())))
	defer span.End()

	order, err := r.inner.FindByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return order, nil
}

func (r *TracingOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	ctx, span := tracer.Start(ctx, "OrderRepository.FindByOrderNumber",
		trace.WithAttributes(attribute.String("order.number", orderNumber)))
	defer span.End()

	order, err := r.inner.FindByOrderNumber(ctx, orderNumber)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return order, nil
}

func (r *TracingOrderRepository) FindByTransactionID(ctx context.Context, transactionID string) (*domain.Order, error) {
	ctx, span := tracer.Start(ctx, "OrderRepository.FindByTransactionID")
	defer span.End()

	order, err := r.inner.FindByTransactionID(ctx, transactionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return order, nil
}

func (r *TracingOrderRepository) List(ctx context.Context, filter domain.OrderFilter) ([]*domain.Order, int64, error) {
	ctx, span := tracer.Start(ctx, "OrderRepository.List")
	defer span.End()

	orders, total, err := r.inner.List(ctx, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, 0, err
	}
	span.SetAttributes(attribute.Int64("orders.total", total))
	return orders, total, nil
}

func (r *TracingOrderRepository) Update(ctx context.Context, order *domain.Order) error {
	ctx, span := tracer.Start(ctx, "OrderRepository.Update",
		trace.WithAttributes(
			attribute.String("order.id", order.ID.Hex()),
			attribute.String("order.status", order.Status),
		))
	defer span.End()

	err := r.inner.Update(ctx, order)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}
