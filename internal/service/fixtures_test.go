package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/tableside/api/internal/catalog"
	"github.com/tableside/api/internal/database"
	"github.com/tableside/api/internal/enum"
	"github.com/tableside/api/internal/gateway"
	"github.com/tableside/api/internal/notify"
)

// ── Fakes ──────────────────────────────────────────────────────────────────

type staticMenus struct {
	menu *catalog.Menu
}

func (p staticMenus) Menu(ctx context.Context, restaurantID uuid.UUID) (*catalog.Menu, error) {
	return p.menu, nil
}

type fakeGateway struct {
	mu        sync.Mutex
	createErr error
	created   []gateway.IntentRequest
	cancelled []string
}

func (g *fakeGateway) CreateIntent(ctx context.Context, req gateway.IntentRequest) (gateway.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return gateway.Intent{}, g.createErr
	}
	g.created = append(g.created, req)
	id := fmt.Sprintf("pi_%d", len(g.created))
	return gateway.Intent{ID: id, ClientSecret: id + "_secret"}, nil
}

func (g *fakeGateway) CancelIntent(ctx context.Context, intentID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancelled = append(g.cancelled, intentID)
	return nil
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []notify.Notice
}

func (n *recordingNotifier) Notify(ctx context.Context, notice notify.Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.notices))
	for _, x := range n.notices {
		out = append(out, x.Type)
	}
	return out
}

func (n *recordingNotifier) reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = nil
}

// ── Environment ────────────────────────────────────────────────────────────

type testEnv struct {
	db    *memDB
	gw    *fakeGateway
	notes *recordingNotifier

	restaurantID uuid.UUID
	tableID      uuid.UUID
	otherTableID uuid.UUID
	userID       uuid.UUID

	burgerID uuid.UUID // 50.00, optional extras (max 2)
	extrasID uuid.UUID
	cheeseID uuid.UUID // +10.00
	baconID  uuid.UUID // +5.00
	steakID  uuid.UUID // 80.00, exactly one doneness
	cookID   uuid.UUID
	rareID   uuid.UUID
	wellID   uuid.UUID
	waterID  uuid.UUID // 0.00

	orders    *OrderService
	sessions  *SessionService
	requests  *ServiceRequestService
	callbacks *PaymentCallbackProcessor
	delivery  *DeliveryService
	status    *StatusService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	e := &testEnv{
		db:           newMemDB(),
		gw:           &fakeGateway{},
		notes:        &recordingNotifier{},
		restaurantID: uuid.New(),
		tableID:      uuid.New(),
		otherTableID: uuid.New(),
		userID:       uuid.New(),
		burgerID:     uuid.New(),
		extrasID:     uuid.New(),
		cheeseID:     uuid.New(),
		baconID:      uuid.New(),
		steakID:      uuid.New(),
		cookID:       uuid.New(),
		rareID:       uuid.New(),
		wellID:       uuid.New(),
		waterID:      uuid.New(),
	}

	st := e.db.state
	st.restaurants[e.restaurantID] = database.Restaurant{ID: e.restaurantID, Name: "Bistro", Region: "de"}
	st.tables[e.tableID] = database.DiningTable{ID: e.tableID, RestaurantID: e.restaurantID, Name: "T1", Capacity: 4, IsActive: true, CachedStatus: enum.TableStatusEmpty}
	st.tables[e.otherTableID] = database.DiningTable{ID: e.otherTableID, RestaurantID: e.restaurantID, Name: "T2", Capacity: 2, IsActive: true, CachedStatus: enum.TableStatusEmpty}

	two, one := 2, 1
	menu := &catalog.Menu{
		RestaurantID: e.restaurantID,
		Items: []catalog.Item{
			{
				ID: e.burgerID, Title: "Burger", BasePrice: decimal.RequireFromString("50.00"), IsActive: true, IsAvailable: true,
				Groups: []catalog.Group{{
					ID: e.extrasID, Name: "Extras", MinSelect: 0, MaxSelect: &two, IsActive: true,
					Options: []catalog.Option{
						{ID: e.cheeseID, Name: "Cheese", PriceDelta: decimal.RequireFromString("10.00"), IsActive: true},
						{ID: e.baconID, Name: "Bacon", PriceDelta: decimal.RequireFromString("5.00"), IsActive: true},
					},
				}},
			},
			{
				ID: e.steakID, Title: "Steak", BasePrice: decimal.RequireFromString("80.00"), IsActive: true, IsAvailable: true,
				Groups: []catalog.Group{{
					ID: e.cookID, Name: "Doneness", MinSelect: 1, MaxSelect: &one, IsActive: true,
					Options: []catalog.Option{
						{ID: e.rareID, Name: "Rare", PriceDelta: decimal.Zero, IsActive: true},
						{ID: e.wellID, Name: "Well done", PriceDelta: decimal.Zero, IsActive: true},
					},
				}},
			},
			{ID: e.waterID, Title: "Tap water", BasePrice: decimal.Zero, IsActive: true, IsAvailable: true},
		},
	}

	ledger := NewLedger(map[string]string{"DE": "EUR", "GB": "GBP"}, "EUR")
	menus := staticMenus{menu: menu}
	e.orders = NewOrderService(e.db, e.db.newStore, ledger, menus, e.gw, e.notes, 2*time.Hour)
	e.orders.now = func() time.Time { return e.db.state.clock }
	e.sessions = NewSessionService(e.db, e.db.newStore, ledger, e.gw, e.notes)
	e.requests = NewServiceRequestService(e.db, e.db.newStore, ledger, e.notes)
	e.callbacks = NewPaymentCallbackProcessor(e.db, e.db.newStore, ledger, e.notes)
	e.delivery = NewDeliveryService(e.db, e.db.newStore, ledger, menus, e.gw)
	e.status = NewStatusService(e.db, e.db.newStore)
	return e
}

func (e *testEnv) burger(qty int, options ...uuid.UUID) catalog.ItemSelection {
	sel := catalog.ItemSelection{ItemID: e.burgerID, Quantity: qty}
	if len(options) > 0 {
		sel.Modifiers = catalog.ModifierSelections{{GroupID: e.extrasID, OptionIDs: options}}
	}
	return sel
}

func (e *testEnv) steak(qty int, doneness uuid.UUID) catalog.ItemSelection {
	return catalog.ItemSelection{
		ItemID:    e.steakID,
		Quantity:  qty,
		Modifiers: catalog.ModifierSelections{{GroupID: e.cookID, OptionIDs: []uuid.UUID{doneness}}},
	}
}

func (e *testEnv) orderRequest(method string, items ...catalog.ItemSelection) CreateOrderRequest {
	return CreateOrderRequest{
		RestaurantID:  e.restaurantID,
		TableID:       e.tableID,
		Source:        enum.OrderSourceWalkIn,
		GuestName:     "Ana",
		PaymentMethod: method,
		Items:         items,
	}
}

func (e *testEnv) mustCreateOrder(t *testing.T, req CreateOrderRequest) *CreateOrderResult {
	t.Helper()
	res, err := e.orders.CreateOrder(context.Background(), req)
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	return res
}

func (e *testEnv) openSession(t *testing.T) database.TableSession {
	t.Helper()
	snap := e.db.snapshot()
	for _, s := range snap.sessions {
		if s.TableID == e.tableID && s.Status == enum.SessionStatusOpen {
			return s
		}
	}
	t.Fatal("no open session")
	return database.TableSession{}
}

func (e *testEnv) order(t *testing.T, id uuid.UUID) database.Order {
	t.Helper()
	o, ok := e.db.snapshot().orders[id]
	if !ok {
		t.Fatalf("order %s not found", id)
	}
	return o
}

func (e *testEnv) cachedStatus(tableID uuid.UUID) string {
	return e.db.snapshot().tables[tableID].CachedStatus
}

// orderEvent builds a verified gateway event for a card order.
func (e *testEnv) orderEvent(eventID string, order OrderView, status gateway.EventStatus) gateway.Event {
	return gateway.Event{
		ID:          eventID,
		IntentID:    order.PaymentIntentID,
		Status:      status,
		AmountMinor: gateway.ToMinorUnits(order.Total, order.Currency),
		Currency:    order.Currency,
		Metadata: gateway.Metadata{
			Kind:      gateway.KindTableOrder,
			EntityID:  order.ID,
			SessionID: uuid.NullUUID{UUID: order.SessionID, Valid: true},
		}.Map(),
	}
}

// ── Assertions ─────────────────────────────────────────────────────────────

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, name string, got pgtype.Numeric, want string) {
	t.Helper()
	if g := numericToDecimal(got); !g.Equal(dec(want)) {
		t.Errorf("%s = %s, want %s", name, g.StringFixed(2), want)
	}
}

func assertTotals(t *testing.T, s database.TableSession, card, venue, grand string) {
	t.Helper()
	assertDecimal(t, "card_total", s.CardTotal, card)
	assertDecimal(t, "pay_at_venue_total", s.PayAtVenueTotal, venue)
	assertDecimal(t, "grand_total", s.GrandTotal, grand)
}

// assertLedger checks the grand total equals the sum of counted orders.
func assertLedger(t *testing.T, e *testEnv, sess database.TableSession) {
	t.Helper()
	want := decimal.Zero
	for _, o := range e.db.snapshot().orders {
		if o.SessionID != sess.ID || o.Status == enum.OrderStatusCancelled {
			continue
		}
		if isSettled(o.PaymentStatus) {
			want = want.Add(numericToDecimal(o.Total))
		}
	}
	cur := e.db.snapshot().sessions[sess.ID]
	if got := numericToDecimal(cur.GrandTotal); !got.Equal(want) {
		t.Errorf("grand_total = %s, counted orders sum to %s", got.StringFixed(2), want.StringFixed(2))
	}
	sum := numericToDecimal(cur.CardTotal).Add(numericToDecimal(cur.PayAtVenueTotal))
	if !sum.Equal(numericToDecimal(cur.GrandTotal)) {
		t.Errorf("card + venue = %s, grand = %s", sum.StringFixed(2), numericToDecimal(cur.GrandTotal).StringFixed(2))
	}
}

func assertErrorIs(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("expected %v, got %v", target, err)
	}
}
