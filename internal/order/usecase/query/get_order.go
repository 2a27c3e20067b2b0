package query

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nayher/commerce-backend/internal/order/domain"
	"github.com/nayher/commerce-backend/pkg/apperr"
)

type GetOrderQuery struct {
	OrderID primitive.ObjectID
	UserID  primitive.ObjectID
	IsAdmin bool
}

type GetOrderHandler struct {
	orders domain.OrderRepository
}

func NewGetOrderHandler(orders domain.OrderRepository) *GetOrderHandler {
	return &GetOrderHandler{orders: orders}
}

// Handle returns one order. Non-admins only see their own orders.
func (h *GetOrderHandler) Handle(ctx context.Context, q GetOrderQuery) (*domain.Order, error) {
	order, err := h.orders.FindByID(ctx, q.OrderID)
	if err != nil {
		return nil, err
	}
	if !q.IsAdmin && order.UserID != q.UserID {
		return nil, apperr.New(apperr.CodeNotFound, "Order not found")
	}
	return order, nil
}
