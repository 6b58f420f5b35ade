// Package gateway is the boundary to the external card payment processor.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Entity kinds carried in intent metadata.
const (
	KindTableOrder         = "table_order"
	KindReservationDeposit = "reservation_deposit"
	KindDeliveryAttempt    = "delivery_attempt"
)

// Metadata keys.
const (
	metaKind      = "kind"
	metaEntityID  = "entity_id"
	metaSessionID = "session_id"
)

var (
	ErrUnavailable      = errors.New("payment gateway unavailable")
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrMalformedEvent   = errors.New("malformed gateway event")
	ErrUnsupportedEvent = errors.New("unsupported gateway event type")
)

// EventStatus is the outcome reported by the gateway.
type EventStatus string

const (
	EventSucceeded EventStatus = "succeeded"
	EventFailed    EventStatus = "failed"
)

// Metadata tags an intent with the application entity it pays for.
type Metadata struct {
	Kind      string
	EntityID  uuid.UUID
	SessionID uuid.NullUUID
}

// Map renders the metadata as gateway key/value pairs.
func (m Metadata) Map() map[string]string {
	out := map[string]string{
		metaKind:     m.Kind,
		metaEntityID: m.EntityID.String(),
	}
	if m.SessionID.Valid {
		out[metaSessionID] = m.SessionID.UUID.String()
	}
	return out
}

// ParseMetadata reads metadata back from an inbound event.
func ParseMetadata(raw map[string]string) (Metadata, error) {
	var m Metadata
	switch raw[metaKind] {
	case KindTableOrder, KindReservationDeposit, KindDeliveryAttempt:
		m.Kind = raw[metaKind]
	case "":
		return m, fmt.Errorf("%w: missing %s", ErrMalformedEvent, metaKind)
	default:
		return m, fmt.Errorf("%w: unknown kind %q", ErrMalformedEvent, raw[metaKind])
	}

	id, err := uuid.Parse(raw[metaEntityID])
	if err != nil {
		return m, fmt.Errorf("%w: %s: %v", ErrMalformedEvent, metaEntityID, err)
	}
	m.EntityID = id

	if s := raw[metaSessionID]; s != "" {
		sid, err := uuid.Parse(s)
		if err != nil {
			return m, fmt.Errorf("%w: %s: %v", ErrMalformedEvent, metaSessionID, err)
		}
		m.SessionID = uuid.NullUUID{UUID: sid, Valid: true}
	}
	return m, nil
}

// IntentRequest asks the gateway to start a charge.
type IntentRequest struct {
	AmountMinor    int64
	Currency       string
	Metadata       Metadata
	IdempotencyKey string
}

// Intent is the gateway's handle for an in-progress charge.
type Intent struct {
	ID           string
	ClientSecret string
}

// Event is a verified inbound payment notification.
type Event struct {
	ID          string
	IntentID    string
	Status      EventStatus
	AmountMinor int64
	Currency    string
	Metadata    map[string]string
}

// Gateway creates and cancels payment intents.
type Gateway interface {
	CreateIntent(ctx context.Context, req IntentRequest) (Intent, error)
	CancelIntent(ctx context.Context, intentID string) error
}

// Disabled is used when no gateway credentials are configured.
// Every call fails with ErrUnavailable.
type Disabled struct{}

func (Disabled) CreateIntent(ctx context.Context, req IntentRequest) (Intent, error) {
	return Intent{}, ErrUnavailable
}

func (Disabled) CancelIntent(ctx context.Context, intentID string) error {
	return ErrUnavailable
}

// ParseEvent rejects every callback; nothing can be verified without a secret.
func (Disabled) ParseEvent(payload []byte, signature string) (Event, error) {
	return Event{}, fmt.Errorf("%w: gateway not configured", ErrInvalidSignature)
}

// zeroDecimal lists ISO currencies charged in whole units.
var zeroDecimal = map[string]bool{
	"BIF": true, "CLP": true, "DJF": true, "GNF": true, "JPY": true, "KMF": true,
	"KRW": true, "MGA": true, "PYG": true, "RWF": true, "UGX": true, "VND": true,
	"VUV": true, "XAF": true, "XOF": true, "XPF": true,
}

// ToMinorUnits converts a decimal amount to the currency's smallest unit.
func ToMinorUnits(amount decimal.Decimal, currency string) int64 {
	if zeroDecimal[strings.ToUpper(currency)] {
		return amount.Round(0).IntPart()
	}
	return amount.Shift(2).Round(0).IntPart()
}

// FromMinorUnits is the inverse of ToMinorUnits.
func FromMinorUnits(minor int64, currency string) decimal.Decimal {
	if zeroDecimal[strings.ToUpper(currency)] {
		return decimal.NewFromInt(minor)
	}
	return decimal.New(minor, -2)
}
