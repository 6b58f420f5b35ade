package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/tableside/api/internal/ws"
)

var _ Publisher = (*AMQPPublisher)(nil)

type mockBroadcaster struct {
	mu     sync.Mutex
	events map[uuid.UUID][]ws.Event
}

func (m *mockBroadcaster) BroadcastToRestaurant(restaurantID uuid.UUID, event ws.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.events == nil {
		m.events = make(map[uuid.UUID][]ws.Event)
	}
	m.events[restaurantID] = append(m.events[restaurantID], event)
}

type mockPublisher struct {
	publishFn func(ctx context.Context, routingKey string, body []byte) error
	published chan string
}

func (m *mockPublisher) Publish(ctx context.Context, routingKey string, body []byte) error {
	err := m.publishFn(ctx, routingKey, body)
	m.published <- routingKey
	return err
}

func TestDispatcher_FansOut(t *testing.T) {
	hub := &mockBroadcaster{}
	var gotBody []byte
	pub := &mockPublisher{
		published: make(chan string, 1),
		publishFn: func(ctx context.Context, key string, body []byte) error {
			gotBody = body
			return nil
		},
	}
	d := NewDispatcher(hub, pub)

	rid := uuid.New()
	d.Notify(context.Background(), Notice{
		Type:         OrderReady,
		RestaurantID: rid,
		Payload:      map[string]string{"order_id": "o-1"},
	})

	select {
	case key := <-pub.published:
		if key != OrderReady {
			t.Errorf("routing key: got %q", key)
		}
	case <-time.After(time.Second):
		t.Fatal("publisher not called")
	}

	var msg brokerMessage
	if err := json.Unmarshal(gotBody, &msg); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if msg.Type != OrderReady || msg.RestaurantID != rid {
		t.Errorf("message: got %+v", msg)
	}
	if string(msg.Payload) != `{"order_id":"o-1"}` {
		t.Errorf("payload: got %s", msg.Payload)
	}

	hub.mu.Lock()
	defer hub.mu.Unlock()
	if len(hub.events[rid]) != 1 || hub.events[rid][0].Type != OrderReady {
		t.Errorf("hub events: got %+v", hub.events[rid])
	}
}

func TestDispatcher_PublishErrorSwallowed(t *testing.T) {
	pub := &mockPublisher{
		published: make(chan string, 1),
		publishFn: func(ctx context.Context, key string, body []byte) error {
			return errors.New("broker down")
		},
	}
	d := NewDispatcher(nil, pub)

	d.Notify(context.Background(), Notice{Type: TableStatusChanged, RestaurantID: uuid.New(), Payload: struct{}{}})

	select {
	case <-pub.published:
	case <-time.After(time.Second):
		t.Fatal("publisher not called")
	}
}

func TestDispatcher_SurvivesCancelledRequest(t *testing.T) {
	var pubErr error
	pub := &mockPublisher{
		published: make(chan string, 1),
		publishFn: func(ctx context.Context, key string, body []byte) error {
			pubErr = ctx.Err()
			return nil
		},
	}
	d := NewDispatcher(nil, pub)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Notify(ctx, Notice{Type: OrderCreated, RestaurantID: uuid.New(), Payload: struct{}{}})

	select {
	case <-pub.published:
	case <-time.After(time.Second):
		t.Fatal("publisher not called")
	}
	if pubErr != nil {
		t.Errorf("publish context should outlive the request, got: %v", pubErr)
	}
}

func TestDispatcher_UnmarshalablePayload(t *testing.T) {
	hub := &mockBroadcaster{}
	d := NewDispatcher(hub, nil)

	d.Notify(context.Background(), Notice{Type: OrderCreated, RestaurantID: uuid.New(), Payload: make(chan int)})

	hub.mu.Lock()
	defer hub.mu.Unlock()
	if len(hub.events) != 0 {
		t.Errorf("expected no events, got %d", len(hub.events))
	}
}

func TestDispatcher_NoSinks(t *testing.T) {
	d := NewDispatcher(nil, nil)
	d.Notify(context.Background(), Notice{Type: OrderCreated, RestaurantID: uuid.New(), Payload: struct{}{}})
	Discard{}.Notify(context.Background(), Notice{})
}
