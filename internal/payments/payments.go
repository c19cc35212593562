package payments

import (
	"context"
	"fmt"
	"math"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
)

// Service creates payment intents for card orders. Settlement is out of
// scope here: the intent reference is recorded on the order and the client
// completes the payment.
type Service interface {
	Enabled() bool
	CreateIntent(ctx context.Context, amount float64, orderNumber string) (string, error)
}

type stripeService struct {
	currency string
	enabled  bool
}

func NewStripe(secretKey, currency string) Service {
	if secretKey != "" {
		stripe.Key = secretKey
	}
	if currency == "" {
		currency = "usd"
	}
	return &stripeService{
		currency: currency,
		enabled:  secretKey != "",
	}
}

func (s *stripeService) Enabled() bool {
	return s.enabled
}

func (s *stripeService) CreateIntent(ctx context.Context, amount float64, orderNumber string) (string, error) {
	if !s.enabled {
		return "", fmt.Errorf("stripe not configured")
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(toMinorUnits(amount)),
		Currency: stripe.String(s.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata("order_number", orderNumber)

	pi, err := paymentintent.New(params)
	if err != nil {
		return "", fmt.Errorf("create payment intent: %w", err)
	}
	return pi.ID, nil
}

func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
