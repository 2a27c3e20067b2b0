package domain

import (
	"context"
	"math/rand/v2"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order statuses
const (
	StatusPending    = "pending"
	StatusConfirmed  = "confirmed"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
)

// Payment methods
const (
	PaymentMethodCard = "card"
	PaymentMethodCOD  = "cod"
)

var knownStatuses = map[string]bool{
	StatusPending:    true,
	StatusConfirmed:  true,
	StatusProcessing: true,
	StatusShipped:    true,
	StatusDelivered:  true,
	StatusCancelled:  true,
}

// IsValidStatus reports whether s names a known order status.
func IsValidStatus(s string) bool {
	return knownStatuses[s]
}

// IsTerminalStatus reports whether orders in status s can no longer change.
func IsTerminalStatus(s string) bool {
	return s == StatusDelivered || s == StatusCancelled
}

// OrderItem snapshots a purchased line at checkout time. Later product edits
// never change past orders.
type OrderItem struct {
	ProductID primitive.ObjectID `bson:"product" json:"product"`
	Name      string             `bson:"name" json:"name"`
	Price     float64            `bson:"price" json:"price"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Image     string             `bson:"image,omitempty" json:"image,omitempty"`
	Color     string             `bson:"color,omitempty" json:"color,omitempty"`
	Size      string             `bson:"size,omitempty" json:"size,omitempty"`
}

type ShippingAddress struct {
	FullName string `bson:"fullName" json:"fullName"`
	Line1    string `bson:"line1" json:"line1"`
	Line2    string `bson:"line2,omitempty" json:"line2,omitempty"`
	City     string `bson:"city" json:"city"`
	State    string `bson:"state" json:"state"`
	Pincode  string `bson:"pincode" json:"pincode"`
	Phone    string `bson:"phone,omitempty" json:"phone,omitempty"`
}

type PaymentInfo struct {
	Method        string `bson:"method" json:"method"`
	TransactionID string `bson:"transactionId,omitempty" json:"transactionId,omitempty"`
	Status        string `bson:"status" json:"status"`
}

type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderNumber     string             `bson:"orderNumber" json:"orderNumber"`
	UserID          primitive.ObjectID `bson:"user" json:"user"`
	Items           []OrderItem        `bson:"items" json:"items"`
	Subtotal        float64            `bson:"subtotal" json:"subtotal"`
	ShippingFee     float64            `bson:"shippingFee" json:"shippingFee"`
	Tax             float64            `bson:"tax" json:"tax"`
	Total           float64            `bson:"total" json:"total"`
	Status          string             `bson:"status" json:"status"`
	Payment         PaymentInfo        `bson:"payment" json:"payment"`
	ShippingAddress ShippingAddress    `bson:"shippingAddress" json:"shippingAddress"`
	TrackingNumber  string             `bson:"trackingNumber,omitempty" json:"trackingNumber,omitempty"`
	Notes           string             `bson:"notes,omitempty" json:"notes,omitempty"`
	DeliveredAt     *time.Time         `bson:"deliveredAt,omitempty" json:"deliveredAt,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

const orderNumberAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// GenerateOrderNumber builds a human-readable order number:
// prefix, date as yymmdd, then six random base36 characters.
func GenerateOrderNumber(prefix string) string {
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString(time.Now().Format("060102"))
	for i := 0; i < 6; i++ {
		b.WriteByte(orderNumberAlphabet[rand.IntN(len(orderNumberAlphabet))])
	}
	return b.String()
}

// OrderFilter narrows order listings.
type OrderFilter struct {
	UserID *primitive.ObjectID
	Status string
	Page   int
	Limit  int
}

// OrderRepository defines the contract for order data access.
type OrderRepository interface {
	Create(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*Order, error)
	FindByOrderNumber(ctx context.Context, orderNumber string) (*Order, error)
	// FindByTransactionID locates an order by its payment transaction id.
	// Used to make payment verification idempotent.
	FindByTransactionID(ctx context.Context, transactionID string) (*Order, error)
	List(ctx context.Context, filter OrderFilter) ([]*Order, int64, error)
	Update(ctx context.Context, order *Order) error
}
