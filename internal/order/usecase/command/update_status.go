package command

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nayher/commerce-backend/internal/order/domain"
	"github.com/nayher/commerce-backend/pkg/apperr"
	"github.com/nayher/commerce-backend/pkg/logger"
)

type UpdateStatusCommand struct {
	OrderID        primitive.ObjectID
	Status         string
	TrackingNumber string
}

type UpdateStatusHandler struct {
	orders domain.OrderRepository
}

func NewUpdateStatusHandler(orders domain.OrderRepository) *UpdateStatusHandler {
	return &UpdateStatusHandler{orders: orders}
}

// Handle moves an order to a new status. Delivered and cancelled orders are
// frozen; delivery stamps deliveredAt; shipping may attach a tracking number.
func (h *UpdateStatusHandler) Handle(ctx context.Context, cmd UpdateStatusCommand) (*domain.Order, error) {
	if !domain.IsValidStatus(cmd.Status) {
		return nil, apperr.Newf(apperr.CodeInvalidArgument, "Invalid order status: %s", cmd.Status)
	}

	order, err := h.orders.FindByID(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	if domain.IsTerminalStatus(order.Status) {
		return nil, apperr.Newf(apperr.CodeConflict, "Cannot update a %s order", order.Status)
	}

	order.Status = cmd.Status
	if cmd.TrackingNumber != "" {
		order.TrackingNumber = cmd.TrackingNumber
	}
	if cmd.Status == domain.StatusDelivered {
		now := time.Now()
		order.DeliveredAt = &now
	}

	if err := h.orders.Update(ctx, order); err != nil {
		return nil, err
	}
	logger.Info(ctx).
		Str("order_number", order.OrderNumber).
		Str("status", order.Status).
		Msg("Order status updated")
	return order, nil
}
