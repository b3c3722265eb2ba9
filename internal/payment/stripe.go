package payment

import (
	"context"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/iliyamo/theater-tickets/internal/apperr"
)

// StripeProcessor implements Processor with Stripe Checkout.
type StripeProcessor struct {
	api      *client.API
	currency string
}

// NewStripeProcessor builds a processor for secretKey.  backends may be
// nil; tests pass backends pointing at a local server.  Network retries
// are disabled so a failed call surfaces immediately.
func NewStripeProcessor(secretKey, currency string, backends *stripe.Backends) *StripeProcessor {
	if backends == nil {
		backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
			MaxNetworkRetries: stripe.Int64(0),
		})
		backends = &stripe.Backends{API: backend, Connect: backend, Uploads: backend}
	}
	api := &client.API{}
	api.Init(secretKey, backends)
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}
	return &StripeProcessor{api: api, currency: currency}
}

// CreateSession opens a payment-mode checkout session with inline prices.
func (p *StripeProcessor) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(req.TicketID),
	}
	for _, it := range req.Items {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(p.currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(it.Name),
				},
				UnitAmount: stripe.Int64(it.UnitAmount),
			},
			Quantity: stripe.Int64(it.Quantity),
		})
	}
	if !req.ExpiresAt.IsZero() {
		params.ExpiresAt = stripe.Int64(req.ExpiresAt.Unix())
	}
	params.AddMetadata("ticket_id", req.TicketID)
	params.Context = ctx

	s, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrDependencyUnavailable, "payment: create session: %v", err)
	}
	return fromStripe(s), nil
}

// GetSession retrieves a session by id.
func (p *StripeProcessor) GetSession(ctx context.Context, id string) (*Session, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	s, err := p.api.CheckoutSessions.Get(id, params)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrDependencyUnavailable, "payment: get session %s: %v", id, err)
	}
	return fromStripe(s), nil
}

func fromStripe(s *stripe.CheckoutSession) *Session {
	return &Session{
		ID:       s.ID,
		URL:      s.URL,
		TicketID: s.ClientReferenceID,
		Complete: s.Status == stripe.CheckoutSessionStatusComplete &&
			s.PaymentStatus != stripe.CheckoutSessionPaymentStatusUnpaid,
	}
}
