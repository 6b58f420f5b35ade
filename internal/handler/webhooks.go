package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/tableside/api/internal/gateway"
	"github.com/tableside/api/internal/service"
)

const (
	signatureHeader = "Stripe-Signature"
	maxWebhookBody  = 64 << 10
)

// EventParser verifies and decodes a raw gateway callback.
// Satisfied by *gateway.Stripe.
type EventParser interface {
	ParseEvent(payload []byte, signature string) (gateway.Event, error)
}

// CallbackApplier is satisfied by *service.PaymentCallbackProcessor.
type CallbackApplier interface {
	Apply(ctx context.Context, ev gateway.Event) (service.CallbackOutcome, error)
}

// WebhookHandler receives payment gateway callbacks.
type WebhookHandler struct {
	parser    EventParser
	callbacks CallbackApplier
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(parser EventParser, callbacks CallbackApplier) *WebhookHandler {
	return &WebhookHandler{parser: parser, callbacks: callbacks}
}

// RegisterRoutes registers the callback endpoint.
func (h *WebhookHandler) RegisterRoutes(r chi.Router) {
	r.Post("/webhooks/payments", h.Payments)
}

type webhookResponse struct {
	Outcome service.CallbackOutcome `json:"outcome"`
}

// Payments handles POST /webhooks/payments. Only a bad signature or a
// storage failure produces a non-2xx reply; the gateway retries those.
func (h *WebhookHandler) Payments(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	ev, err := h.parser.ParseEvent(payload, r.Header.Get(signatureHeader))
	if err != nil {
		switch {
		case errors.Is(err, gateway.ErrUnsupportedEvent), errors.Is(err, gateway.ErrMalformedEvent):
			log.Warn().Err(err).Str("event_id", ev.ID).Msg("payment webhook ignored")
			writeJSON(w, http.StatusOK, webhookResponse{Outcome: service.CallbackIgnored})
		default:
			log.Warn().Err(err).Msg("payment webhook rejected")
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid signature"})
		}
		return
	}

	outcome, err := h.callbacks.Apply(r.Context(), ev)
	if err != nil {
		log.Error().Err(err).Str("event_id", ev.ID).Msg("apply payment event")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, webhookResponse{Outcome: outcome})
}
