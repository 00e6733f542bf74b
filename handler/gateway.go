package handler

import (
	"fmt"

	"movie_store/config"
	"movie_store/model"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/webhook"
)

var minorUnits = decimal.NewFromInt(100)

// StripeGateway wraps the checkout-session and webhook-verification calls to
// the payment provider.
type StripeGateway struct {
	APIKey        string
	WebhookSecret string
	FrontendURL   string
}

func NewStripeGateway() *StripeGateway {
	return &StripeGateway{
		APIKey:        config.Config("STRIPE_API_KEY"),
		WebhookSecret: config.Config("STRIPE_WEBHOOK_SECRET"),
		FrontendURL:   config.Config("FRONTEND_URL"),
	}
}

// CreateCheckoutSession builds a session with one line item per order item,
// priced from the order-time snapshot in minor currency units.
func (g *StripeGateway) CreateCheckoutSession(order model.Order) (string, error) {
	stripe.Key = g.APIKey

	metadata := map[string]string{
		"order_id": fmt.Sprintf("%d", order.ID),
		"user_id":  fmt.Sprintf("%d", order.UserId),
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(g.FrontendURL + "/payment-success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(g.FrontendURL + "/payment-cancel"),
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: metadata,
		},
	}
	params.PaymentMethodTypes = stripe.StringSlice([]string{"card"})
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	for _, item := range order.Items {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String("usd"),
				UnitAmount: stripe.Int64(item.PriceAtOrder.Mul(minorUnits).IntPart()),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Movie.Name),
				},
			},
		})
	}

	s, err := session.New(params)
	if err != nil {
		return "", err
	}
	return s.URL, nil
}

// VerifyWebhook checks the gateway signature and decodes the event.
func (g *StripeGateway) VerifyWebhook(payload []byte, signature string) (stripe.Event, error) {
	return webhook.ConstructEventWithOptions(payload, signature, g.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
}
