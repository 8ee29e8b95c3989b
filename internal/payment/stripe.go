package payment

import (
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"

	"pronto-core/internal/models"
)

// StripeGateway charges card payments through Stripe payment intents.
type StripeGateway struct {
	Timeout  time.Duration
	Currency string
}

// NewStripeGateway sets the global Stripe key and returns the gateway.
func NewStripeGateway(secretKey, currency string, timeout time.Duration) *StripeGateway {
	stripe.Key = secretKey
	if currency == "" {
		currency = "mxn"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &StripeGateway{Timeout: timeout, Currency: currency}
}

func (g *StripeGateway) Charge(session *models.Session, reference string) (string, error) {
	return chargeWithTimeout(g.Timeout, func() (string, error) {
		params := &stripe.PaymentIntentParams{
			Amount:      stripe.Int64(session.Total),
			Currency:    stripe.String(g.Currency),
			Description: stripe.String(fmt.Sprintf("Pronto table %d, check %s", session.TableNumber, session.ID)),
			Confirm:     stripe.Bool(true),
		}
		if reference != "" {
			params.PaymentMethod = stripe.String(reference)
		}
		params.AddMetadata("session_id", session.ID)

		intent, err := paymentintent.New(params)
		if err != nil {
			return "", fmt.Errorf("stripe payment intent: %w", err)
		}
		if intent.Status != stripe.PaymentIntentStatusSucceeded {
			return "", fmt.Errorf("stripe payment intent %s not succeeded: %s", intent.ID, intent.Status)
		}
		return intent.ID, nil
	})
}
