package command

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nayher/commerce-backend/internal/order/domain"
	"github.com/nayher/commerce-backend/pkg/apperr"
	"github.com/nayher/commerce-backend/pkg/logger"
)

type CancelOrderCommand struct {
	OrderID primitive.ObjectID
	UserID  primitive.ObjectID
	IsAdmin bool
}

type CancelOrderHandler struct {
	orders domain.OrderRepository
}

func NewCancelOrderHandler(orders domain.OrderRepository) *CancelOrderHandler {
	return &CancelOrderHandler{orders: orders}
}

// Handle cancels an order. Only the owner or an admin may cancel. Any
// non-terminal order can be cancelled, shipped ones included, since support
// staff handle intercepts out of band.
func (h *CancelOrderHandler) Handle(ctx context.Context, cmd CancelOrderCommand) (*domain.Order, error) {
	order, err := h.orders.FindByID(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	if !cmd.IsAdmin && order.UserID != cmd.UserID {
		return nil, apperr.New(apperr.CodeForbidden, "Not allowed to cancel this order")
	}
	if domain.IsTerminalStatus(order.Status) {
		return nil, apperr.Newf(apperr.CodeConflict, "Cannot cancel a %s order", order.Status)
	}

	order.Status = domain.StatusCancelled
	if err := h.orders.Update(ctx, order); err != nil {
		return nil, err
	}
	logger.Info(ctx).Str("order_number", order.OrderNumber).Msg("Order cancelled")
	return order, nil
}
