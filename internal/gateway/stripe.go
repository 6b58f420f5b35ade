package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

const (
	stripeEventSucceeded = "payment_intent.succeeded"
	stripeEventFailed    = "payment_intent.payment_failed"
)

// Stripe implements Gateway on the Stripe PaymentIntents API.
type Stripe struct {
	api           *client.API
	webhookSecret string
}

// NewStripe creates a Stripe gateway.
func NewStripe(secretKey, webhookSecret string) *Stripe {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &Stripe{api: sc, webhookSecret: webhookSecret}
}

func (s *Stripe) CreateIntent(ctx context.Context, req IntentRequest) (Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.AmountMinor),
		Currency: stripe.String(strings.ToLower(req.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range req.Metadata.Map() {
		params.AddMetadata(k, v)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return Intent{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

func (s *Stripe) CancelIntent(ctx context.Context, intentID string) error {
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx
	if _, err := s.api.PaymentIntents.Cancel(intentID, params); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// ParseEvent verifies the signature header and decodes a payment intent event.
func (s *Stripe) ParseEvent(payload []byte, signature string) (Event, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := Event{ID: ev.ID}
	switch string(ev.Type) {
	case stripeEventSucceeded:
		out.Status = EventSucceeded
	case stripeEventFailed:
		out.Status = EventFailed
	default:
		return out, fmt.Errorf("%w: %s", ErrUnsupportedEvent, ev.Type)
	}

	if ev.Data == nil {
		return out, fmt.Errorf("%w: event %s has no data", ErrMalformedEvent, ev.ID)
	}
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(ev.Data.Raw, &pi); err != nil {
		return out, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if pi.ID == "" {
		return out, fmt.Errorf("%w: event %s has no intent id", ErrMalformedEvent, ev.ID)
	}

	out.IntentID = pi.ID
	out.AmountMinor = pi.Amount
	out.Currency = strings.ToUpper(string(pi.Currency))
	out.Metadata = pi.Metadata
	return out, nil
}
