package command

import (
	"context"
	"encoding/json"
	"math"
	"strconv"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	cartdomain "github.com/nayher/commerce-backend/internal/cart/domain"
	catalogdomain "github.com/nayher/commerce-backend/internal/catalog/domain"
	"github.com/nayher/commerce-backend/internal/checkout/domain"
	"github.com/nayher/commerce-backend/pkg/apperr"
	"github.com/nayher/commerce-backend/pkg/logger"
)

// Totals groups the checkout pricing knobs.
type Totals struct {
	FreeShippingThreshold float64
	ShippingFlatFee       float64
	TaxRate               float64
}

// ShippingFor returns the shipping fee for a given subtotal.
func (t Totals) ShippingFor(subtotal float64) float64 {
	if subtotal > t.FreeShippingThreshold {
		return 0
	}
	return t.ShippingFlatFee
}

// TaxFor returns the rounded tax for a given subtotal.
func (t Totals) TaxFor(subtotal float64) float64 {
	return math.Round(t.TaxRate * subtotal)
}

// SessionItem is one client-supplied cart line for guest checkout. It carries
// no price: every line is revalidated and priced against the live catalog.
type SessionItem struct {
	ProductID primitive.ObjectID
	Quantity  int
	Color     string
	Size      string
}

type CreateSessionCommand struct {
	// UserID is zero for guest checkout.
	UserID primitive.ObjectID
	Email  string
	// Items is the guest's cart. Authenticated sessions ignore it and load
	// the server-side cart instead.
	Items []SessionItem
}

type CreateSessionResult struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

type CreateSessionHandler struct {
	carts       cartdomain.CartRepository
	products    catalogdomain.ProductRepository
	gateway     domain.PaymentGateway
	totals      Totals
	frontendURL string
}

func NewCreateSessionHandler(
	carts cartdomain.CartRepository,
	products catalogdomain.ProductRepository,
	gateway domain.PaymentGateway,
	totals Totals,
	frontendURL string,
) *CreateSessionHandler {
	return &CreateSessionHandler{
		carts:       carts,
		products:    products,
		gateway:     gateway,
		totals:      totals,
		frontendURL: frontendURL,
	}
}

// Handle opens a hosted checkout session. Authenticated callers check out
// their server-side cart; guests supply cart lines directly. Either way every
// line is revalidated against current product data and snapshotted into
// session metadata so verification never trusts the client.
func (h *CreateSessionHandler) Handle(ctx context.Context, cmd CreateSessionCommand) (*CreateSessionResult, error) {
	if cmd.Email == "" {
		return nil, apperr.New(apperr.CodeInvalidArgument, "Email is required for checkout")
	}

	entries := cmd.Items
	if !cmd.UserID.IsZero() {
		cart, err := h.carts.FindByUser(ctx, cmd.UserID)
		if err != nil {
			if apperr.IsCode(err, apperr.CodeNotFound) {
				return nil, apperr.New(apperr.CodeInvalidArgument, "Cart is empty")
			}
			return nil, err
		}
		entries = make([]SessionItem, 0, len(cart.Items))
		for _, item := range cart.Items {
			entries = append(entries, SessionItem{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				Color:     item.Color,
				Size:      item.Size,
			})
		}
	}
	if len(entries) == 0 {
		return nil, apperr.New(apperr.CodeInvalidArgument, "Cart is empty")
	}

	var subtotal float64
	lineItems := make([]domain.LineItem, 0, len(entries))
	for _, entry := range entries {
		if entry.Quantity < 1 {
			return nil, apperr.New(apperr.CodeInvalidArgument, "Quantity must be at least 1")
		}
		product, err := h.products.FindByID(ctx, entry.ProductID)
		if err != nil {
			return nil, err
		}
		if !product.IsActive {
			return nil, apperr.Newf(apperr.CodeNotFound, "Product %s is no longer available", entry.ProductID.Hex())
		}
		if product.Status != catalogdomain.StatusAvailable {
			return nil, apperr.Newf(apperr.CodeUnavailable, "%s is not available for purchase", product.Name)
		}
		if entry.Quantity > product.Stock {
			return nil, apperr.Newf(apperr.CodeUnavailable, "Only %d items available in stock", product.Stock)
		}

		subtotal += product.Price * float64(entry.Quantity)
		lineItems = append(lineItems, domain.LineItem{
			ProductID: product.ID.Hex(),
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  entry.Quantity,
			Image:     product.FirstImageURL(),
			Color:     entry.Color,
			Size:      entry.Size,
		})
	}

	shipping := h.totals.ShippingFor(subtotal)
	tax := h.totals.TaxFor(subtotal)

	cartJSON, err := json.Marshal(lineItems)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeUpstream, "Failed to snapshot cart")
	}

	reference := cmd.UserID.Hex()
	if cmd.UserID.IsZero() {
		reference = "guest-" + uuid.NewString()
	}

	session, err := h.gateway.CreateSession(ctx, domain.CreateSessionParams{
		Email:       cmd.Email,
		LineItems:   lineItems,
		ShippingFee: shipping,
		Tax:         tax,
		SuccessURL:  h.frontendURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:   h.frontendURL + "/cart",
		Metadata: map[string]string{
			domain.MetadataKeyUserID:   reference,
			domain.MetadataKeyEmail:    cmd.Email,
			domain.MetadataKeyCart:     string(cartJSON),
			domain.MetadataKeySubtotal: strconv.FormatFloat(subtotal, 'f', 2, 64),
			domain.MetadataKeyShipping: strconv.FormatFloat(shipping, 'f', 2, 64),
			domain.MetadataKeyTax:      strconv.FormatFloat(tax, 'f', 2, 64),
		},
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx).
		Str("session_id", session.ID).
		Str("user_ref", reference).
		Float64("subtotal", subtotal).
		Msg("Checkout session created")
	return &CreateSessionResult{SessionID: session.ID, URL: session.URL}, nil
}
