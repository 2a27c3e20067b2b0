package command

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	catalogdomain "github.com/nayher/commerce-backend/internal/catalog/domain"
	"github.com/nayher/commerce-backend/internal/order/domain"
	"github.com/nayher/commerce-backend/pkg/apperr"
	"github.com/nayher/commerce-backend/pkg/logger"
)

type CreateOrderCommand struct {
	UserID          primitive.ObjectID
	Items           []domain.OrderItem
	Subtotal        float64
	ShippingFee     float64
	Tax             float64
	Total           float64
	Status          string
	Payment         domain.PaymentInfo
	ShippingAddress domain.ShippingAddress
	Notes           string
	// ValidateStock checks each line against live catalog stock. Direct
	// cash-on-delivery orders set it; checkout verification does not, since
	// the payment already cleared against the session snapshot.
	ValidateStock bool
}

type CreateOrderHandler struct {
	orders       domain.OrderRepository
	products     catalogdomain.ProductRepository
	numberPrefix string
}

func NewCreateOrderHandler(orders domain.OrderRepository, products catalogdomain.ProductRepository, numberPrefix string) *CreateOrderHandler {
	return &CreateOrderHandler{orders: orders, products: products, numberPrefix: numberPrefix}
}

// Handle persists a new order under a freshly generated order number,
// retrying on the rare number collision.
func (h *CreateOrderHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error) {
	if len(cmd.Items) == 0 {
		return nil, apperr.New(apperr.CodeInvalidArgument, "Order must contain at least one item")
	}
	status := cmd.Status
	if status == "" {
		status = domain.StatusPending
	}
	if !domain.IsValidStatus(status) {
		return nil, apperr.Newf(apperr.CodeInvalidArgument, "Invalid order status: %s", status)
	}
	if cmd.ValidateStock {
		if err := h.checkStock(ctx, cmd.Items); err != nil {
			return nil, err
		}
	}

	order := &domain.Order{
		UserID:          cmd.UserID,
		Items:           cmd.Items,
		Subtotal:        cmd.Subtotal,
		ShippingFee:     cmd.ShippingFee,
		Tax:             cmd.Tax,
		Total:           cmd.Total,
		Status:          status,
		Payment:         cmd.Payment,
		ShippingAddress: cmd.ShippingAddress,
		Notes:           cmd.Notes,
	}

	for attempt := 0; attempt < 3; attempt++ {
		order.OrderNumber = domain.GenerateOrderNumber(h.numberPrefix)
		err := h.orders.Create(ctx, order)
		if err == nil {
			logger.Info(ctx).
				Str("order_number", order.OrderNumber).
				Str("user_id", cmd.UserID.Hex()).
				Float64("total", order.Total).
				Msg("Order created")
			return order, nil
		}
		if !apperr.IsCode(err, apperr.CodeConflict) {
			return nil, err
		}
		logger.Warn(ctx).Str("order_number", order.OrderNumber).Msg("Order number collision, retrying")
	}
	return nil, apperr.New(apperr.CodeUpstream, "Failed to allocate order number")
}

func (h *CreateOrderHandler) checkStock(ctx context.Context, items []domain.OrderItem) error {
	for _, item := range items {
		product, err := h.products.FindByID(ctx, item.ProductID)
		if err != nil {
			return err
		}
		if !product.IsActive {
			return apperr.New(apperr.CodeNotFound, "Product not found")
		}
		if product.Status != catalogdomain.StatusAvailable {
			return apperr.New(apperr.CodeUnavailable, "Product is not available for purchase")
		}
		if item.Quantity > product.Stock {
			return apperr.Newf(apperr.CodeUnavailable, "Only %d items available in stock", product.Stock)
		}
	}
	return nil
}
