package gateway

import (
	"context"
	"math"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"

	"github.com/nayher/commerce-backend/internal/checkout/domain"
	"github.com/nayher/commerce-backend/pkg/apperr"
	"github.com/nayher/commerce-backend/pkg/logger"
)

const currency = "inr"

// StripeGateway implements domain.PaymentGateway over Stripe hosted checkout.
type StripeGateway struct {
	api *client.API
}

func NewStripeGateway(secretKey string) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeGateway{api: api}
}

func (g *StripeGateway) CreateSession(ctx context.Context, p domain.CreateSessionParams) (*domain.Session, error) {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(p.LineItems)+2)
	for _, item := range p.LineItems {
		productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(item.Name),
		}
		if item.Image != "" {
			productData.Images = stripe.StringSlice([]string{item.Image})
		}
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(currency),
				UnitAmount:  stripe.Int64(toMinorUnits(item.Price)),
				ProductData: productData,
			},
			Quantity: stripe.Int64(int64(item.Quantity)),
		})
	}
	if p.ShippingFee > 0 {
		lineItems = append(lineItems, feeLine("Shipping", p.ShippingFee))
	}
	if p.Tax > 0 {
		lineItems = append(lineItems, feeLine("Tax", p.Tax))
	}

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          lineItems,
		SuccessURL:         stripe.String(p.SuccessURL),
		CancelURL:          stripe.String(p.CancelURL),
	}
	params.Context = ctx
	if p.Email != "" {
		params.CustomerEmail = stripe.String(p.Email)
	}
	for key, value := range p.Metadata {
		params.AddMetadata(key, value)
	}

	sess, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		logger.Error(ctx).Err(err).Msg("Stripe session creation failed")
		return nil, apperr.Wrap(err, apperr.CodeUpstream, "Payment service unavailable")
	}
	return toDomainSession(sess), nil
}

func (g *StripeGateway) RetrieveSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	sess, err := g.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		logger.Error(ctx).Err(err).Str("session_id", sessionID).Msg("Stripe session lookup failed")
		return nil, apperr.Wrap(err, apperr.CodeUpstream, "Payment service unavailable")
	}
	return toDomainSession(sess), nil
}

func feeLine(name string, amount float64) *stripe.CheckoutSessionLineItemParams {
	return &stripe.CheckoutSessionLineItemParams{
		PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
			Currency:   stripe.String(currency),
			UnitAmount: stripe.Int64(toMinorUnits(amount)),
			ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
				Name: stripe.String(name),
			},
		},
		Quantity: stripe.Int64(1),
	}
}

func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func toDomainSession(sess *stripe.CheckoutSession) *domain.Session {
	out := &domain.Session{
		ID:            sess.ID,
		URL:           sess.URL,
		PaymentStatus: string(sess.PaymentStatus),
		AmountTotal:   sess.AmountTotal,
		CustomerEmail: sess.CustomerEmail,
		Metadata:      sess.Metadata,
	}
	if out.CustomerEmail == "" && sess.CustomerDetails != nil {
		out.CustomerEmail = sess.CustomerDetails.Email
	}
	return out
}
