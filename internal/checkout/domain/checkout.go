package domain

import "context"

// PaymentStatusPaid is the gateway payment status that allows order creation.
const PaymentStatusPaid = "paid"

// Metadata keys attached to gateway sessions. The cart snapshot rides along in
// the session so verification can rebuild the order without trusting the
// client.
const (
	MetadataKeyUserID   = "user_id"
	MetadataKeyEmail    = "customer_email"
	MetadataKeyCart     = "cart_items"
	MetadataKeySubtotal = "subtotal"
	MetadataKeyShipping = "shipping_fee"
	MetadataKeyTax      = "tax"
)

// LineItem is one purchasable line sent to the payment gateway and snapshotted
// into session metadata. Field names are kept short to fit metadata limits.
type LineItem struct {
	ProductID string  `json:"p"`
	Name      string  `json:"n"`
	Price     float64 `json:"pr"`
	Quantity  int     `json:"q"`
	Image     string  `json:"i,omitempty"`
	Color     string  `json:"c,omitempty"`
	Size      string  `json:"s,omitempty"`
}

// CreateSessionParams carries everything the gateway needs to open a hosted
// checkout session.
type CreateSessionParams struct {
	Email       string
	LineItems   []LineItem
	ShippingFee float64
	Tax         float64
	SuccessURL  string
	CancelURL   string
	Metadata    map[string]string
}

// Session is the gateway-neutral view of a checkout session.
type Session struct {
	ID            string
	URL           string
	PaymentStatus string
	AmountTotal   int64
	CustomerEmail string
	Metadata      map[string]string
}

// PaymentGateway abstracts the hosted-checkout provider.
type PaymentGateway interface {
	CreateSession(ctx context.Context, params CreateSessionParams) (*Session, error)
	RetrieveSession(ctx context.Context, sessionID string) (*Session, error)
}
