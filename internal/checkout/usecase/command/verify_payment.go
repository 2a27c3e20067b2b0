package command

import (
	"context"
	"encoding/json"
	"math"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	cartdomain "github.com/nayher/commerce-backend/internal/cart/domain"
	"github.com/nayher/commerce-backend/internal/checkout/domain"
	orderdomain "github.com/nayher/commerce-backend/internal/order/domain"
	ordercommand "github.com/nayher/commerce-backend/internal/order/usecase/command"
	userdomain "github.com/nayher/commerce-backend/internal/user/domain"
	"github.com/nayher/commerce-backend/kafka"
	"github.com/nayher/commerce-backend/pkg/apperr"
	"github.com/nayher/commerce-backend/pkg/logger"
)

type VerifyPaymentCommand struct {
	SessionID string
	// Email of the authenticated caller, if any. Used only when the gateway
	// reports no payment email: the order must follow the verified payer,
	// not whoever happens to poll the session.
	Email string
}

type VerifyPaymentResult struct {
	Order         *orderdomain.Order `json:"order,omitempty"`
	Created       bool               `json:"created"`
	PaymentStatus string             `json:"paymentStatus"`
}

type VerifyPaymentHandler struct {
	gateway     domain.PaymentGateway
	orders      orderdomain.OrderRepository
	users       userdomain.UserRepository
	carts       cartdomain.CartRepository
	createOrder *ordercommand.CreateOrderHandler
	totals      Totals
	publisher   *kafka.Publisher
}

func NewVerifyPaymentHandler(
	gateway domain.PaymentGateway,
	orders orderdomain.OrderRepository,
	users userdomain.UserRepository,
	carts cartdomain.CartRepository,
	createOrder *ordercommand.CreateOrderHandler,
	totals Totals,
	publisher *kafka.Publisher,
) *VerifyPaymentHandler {
	return &VerifyPaymentHandler{
		gateway:     gateway,
		orders:      orders,
		users:       users,
		carts:       carts,
		createOrder: createOrder,
		totals:      totals,
		publisher:   publisher,
	}
}

// Handle confirms a paid checkout session and materializes its order.
// Verifying the same session again returns the existing order.
func (h *VerifyPaymentHandler) Handle(ctx context.Context, cmd VerifyPaymentCommand) (*VerifyPaymentResult, error) {
	if cmd.SessionID == "" {
		return nil, apperr.New(apperr.CodeInvalidArgument, "Session id is required")
	}

	// Idempotency: a session maps to at most one order.
	if existing, err := h.orders.FindByTransactionID(ctx, cmd.SessionID); err == nil {
		return &VerifyPaymentResult{Order: existing, Created: false, PaymentStatus: domain.PaymentStatusPaid}, nil
	} else if !apperr.IsCode(err, apperr.CodeNotFound) {
		return nil, err
	}

	session, err := h.gateway.RetrieveSession(ctx, cmd.SessionID)
	if err != nil {
		return nil, err
	}
	// An unpaid session is a normal polling outcome, not an error. The
	// caller is expected to verify again later.
	if session.PaymentStatus != domain.PaymentStatusPaid {
		return &VerifyPaymentResult{PaymentStatus: session.PaymentStatus}, nil
	}

	// The verified payment email identifies the buyer. The polling caller's
	// own email is only a last resort before a generated guest address.
	email := session.CustomerEmail
	if email == "" {
		email = session.Metadata[domain.MetadataKeyEmail]
	}
	if email == "" {
		email = cmd.Email
	}
	if email == "" {
		email = "guest-" + uuid.NewString() + "@guest.local"
	}

	account, err := h.resolveAccount(ctx, session, email)
	if err != nil {
		return nil, err
	}

	items, err := itemsFromMetadata(session.Metadata[domain.MetadataKeyCart])
	if err != nil {
		return nil, err
	}

	// Totals are recomputed from the snapshot, never read back from
	// metadata: the stored order must always satisfy
	// total == subtotal + shipping + tax.
	var subtotal float64
	for _, item := range items {
		subtotal += item.Price * float64(item.Quantity)
	}
	shipping := h.totals.ShippingFor(subtotal)
	tax := h.totals.TaxFor(subtotal)
	total := subtotal + shipping + tax
	if session.AmountTotal > 0 && session.AmountTotal != int64(math.Round(total*100)) {
		logger.Warn(ctx).
			Str("session_id", session.ID).
			Int64("amount_total", session.AmountTotal).
			Float64("computed_total", total).
			Msg("Gateway amount does not match computed totals")
	}

	order, err := h.createOrder.Handle(ctx, ordercommand.CreateOrderCommand{
		UserID:      account.ID,
		Items:       items,
		Subtotal:    subtotal,
		ShippingFee: shipping,
		Tax:         tax,
		Total:       total,
		Status:      orderdomain.StatusConfirmed,
		Payment: orderdomain.PaymentInfo{
			Method:        orderdomain.PaymentMethodCard,
			TransactionID: session.ID,
			Status:        domain.PaymentStatusPaid,
		},
		ShippingAddress: orderdomain.ShippingAddress{FullName: account.Name, Line1: "To be updated"},
	})
	if err != nil {
		return nil, err
	}

	h.clearCart(ctx, account.ID)
	h.publishConfirmed(ctx, order, email)

	return &VerifyPaymentResult{Order: order, Created: true, PaymentStatus: domain.PaymentStatusPaid}, nil
}

// resolveAccount prefers the user id stored at session creation; a guest
// reference or a stale id falls back to the verified payment email.
func (h *VerifyPaymentHandler) resolveAccount(ctx context.Context, session *domain.Session, email string) (*userdomain.User, error) {
	if id, err := primitive.ObjectIDFromHex(session.Metadata[domain.MetadataKeyUserID]); err == nil {
		account, err := h.users.FindByID(ctx, id)
		if err == nil {
			return account, nil
		}
		if !apperr.IsCode(err, apperr.CodeNotFound) {
			return nil, err
		}
	}
	return h.users.FindOrCreateGuest(ctx, email)
}

func (h *VerifyPaymentHandler) clearCart(ctx context.Context, userID primitive.ObjectID) {
	cart, err := h.carts.FindByUser(ctx, userID)
	if err != nil {
		if !apperr.IsCode(err, apperr.CodeNotFound) {
			logger.Warn(ctx).Err(err).Msg("Failed to load cart after checkout")
		}
		return
	}
	cart.Items = []cartdomain.CartItem{}
	if err := h.carts.Save(ctx, cart); err != nil {
		logger.Warn(ctx).Err(err).Msg("Failed to clear cart after checkout")
	}
}

func (h *VerifyPaymentHandler) publishConfirmed(ctx context.Context, order *orderdomain.Order, email string) {
	if h.publisher == nil {
		return
	}
	itemCount := 0
	for _, item := range order.Items {
		itemCount += item.Quantity
	}
	err := h.publisher.PublishOrderConfirmed(ctx, kafka.OrderConfirmedEvent{
		OrderID:     order.ID.Hex(),
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID.Hex(),
		Email:       email,
		Total:       order.Total,
		ItemCount:   itemCount,
	})
	if err != nil {
		logger.Warn(ctx).Err(err).Str("order_number", order.OrderNumber).Msg("Failed to publish order confirmed event")
	}
}

func itemsFromMetadata(raw string) ([]orderdomain.OrderItem, error) {
	if raw == "" {
		return nil, apperr.New(apperr.CodeInvalidArgument, "Session has no cart snapshot")
	}
	var lines []domain.LineItem
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInvalidArgument, "Invalid cart snapshot")
	}

	items := make([]orderdomain.OrderItem, 0, len(lines))
	for _, line := range lines {
		productID, err := primitive.ObjectIDFromHex(line.ProductID)
		if err != nil {
			return nil, apperr.Wrap(err, apperr.CodeInvalidArgument, "Invalid cart snapshot")
		}
		items = append(items, orderdomain.OrderItem{
			ProductID: productID,
			Name:      line.Name,
			Price:     line.Price,
			Quantity:  line.Quantity,
			Image:     line.Image,
			Color:     line.Color,
			Size:      line.Size,
		})
	}
	return items, nil
}
