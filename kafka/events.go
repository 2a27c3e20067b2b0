package kafka

import "time"

// Topics
const (
	TopicOrderConfirmed = "order-confirmed"
)

// OrderConfirmedEvent is published after a payment is verified and its order
// persisted. Downstream consumers (notifications, analytics) key on OrderID.
type OrderConfirmedEvent struct {
	OrderID     string    `json:"orderId"`
	OrderNumber string    `json:"orderNumber"`
	UserID      string    `json:"userId"`
	Email       string    `json:"email"`
	Total       float64   `json:"total"`
	ItemCount   int       `json:"itemCount"`
	ConfirmedAt time.Time `json:"confirmedAt"`
}
