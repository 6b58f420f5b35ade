// Package notify fans out fire-and-forget notices to the live table board and
// to the message broker. Delivery failures are logged and never reach the
// caller.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tableside/api/internal/ws"
)

// Notice types.
const (
	OrderCreated          = "order.created"
	OrderReady            = "order.ready"
	OrderDelivered        = "order.delivered"
	OrderCancelled        = "order.cancelled"
	OrderPaid             = "order.paid"
	ServiceRequestOpened  = "service_request.opened"
	ServiceRequestHandled = "service_request.handled"
	SessionClosed         = "session.closed"
	TableStatusChanged    = "table.status"
	DeliveryConfirmed     = "delivery.confirmed"
)

const publishTimeout = 5 * time.Second

// Notice is one event about a restaurant.
type Notice struct {
	Type         string
	RestaurantID uuid.UUID
	Payload      any
}

// Notifier is informed of domain events. Notify never blocks on delivery
// and never fails.
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// Broadcaster pushes events to connected table boards.
type Broadcaster interface {
	BroadcastToRestaurant(restaurantID uuid.UUID, event ws.Event)
}

// Publisher sends a message to the broker under a routing key.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
}

// Dispatcher is the Notifier used by the server. Either side may be nil.
type Dispatcher struct {
	hub Broadcaster
	pub Publisher
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(hub Broadcaster, pub Publisher) *Dispatcher {
	return &Dispatcher{hub: hub, pub: pub}
}

// brokerMessage is the body published to the broker.
type brokerMessage struct {
	Type         string          `json:"type"`
	RestaurantID uuid.UUID       `json:"restaurant_id"`
	OccurredAt   time.Time       `json:"occurred_at"`
	Payload      json.RawMessage `json:"payload"`
}

func (d *Dispatcher) Notify(ctx context.Context, n Notice) {
	payload, err := json.Marshal(n.Payload)
	if err != nil {
		log.Error().Err(err).Str("type", n.Type).Msg("notify: marshal payload")
		return
	}

	if d.hub != nil {
		d.hub.BroadcastToRestaurant(n.RestaurantID, ws.Event{Type: n.Type, Payload: payload})
	}

	if d.pub == nil {
		return
	}
	body, err := json.Marshal(brokerMessage{
		Type:         n.Type,
		RestaurantID: n.RestaurantID,
		OccurredAt:   time.Now().UTC(),
		Payload:      payload,
	})
	if err != nil {
		log.Error().Err(err).Str("type", n.Type).Msg("notify: marshal message")
		return
	}

	// Detached from the request so a finished response does not cancel it.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	go func() {
		defer cancel()
		if err := d.pub.Publish(pubCtx, n.Type, body); err != nil {
			log.Warn().Err(err).Str("type", n.Type).Str("restaurant_id", n.RestaurantID.String()).Msg("notify: publish failed")
		}
	}()
}

// Discard drops every notice.
type Discard struct{}

func (Discard) Notify(context.Context, Notice) {}
