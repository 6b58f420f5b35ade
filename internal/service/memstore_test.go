package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/tableside/api/internal/database"
	"github.com/tableside/api/internal/enum"
)

// memState is the content of the in-memory database.
type memState struct {
	restaurants    map[uuid.UUID]database.Restaurant
	tables         map[uuid.UUID]database.DiningTable
	sessions       map[uuid.UUID]database.TableSession
	orders         map[uuid.UUID]database.Order
	requests       map[uuid.UUID]database.ServiceRequest
	reservations   map[uuid.UUID]database.Reservation
	attempts       map[uuid.UUID]database.DeliveryPaymentAttempt
	deliveryOrders map[uuid.UUID]database.DeliveryOrder
	events         map[string]bool
	clock          time.Time
}

func newMemState() *memState {
	return &memState{
		restaurants:    map[uuid.UUID]database.Restaurant{},
		tables:         map[uuid.UUID]database.DiningTable{},
		sessions:       map[uuid.UUID]database.TableSession{},
		orders:         map[uuid.UUID]database.Order{},
		requests:       map[uuid.UUID]database.ServiceRequest{},
		reservations:   map[uuid.UUID]database.Reservation{},
		attempts:       map[uuid.UUID]database.DeliveryPaymentAttempt{},
		deliveryOrders: map[uuid.UUID]database.DeliveryOrder{},
		events:         map[string]bool{},
		clock:          time.Date(2026, 5, 1, 19, 0, 0, 0, time.UTC),
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memState) clone() *memState {
	return &memState{
		restaurants:    cloneMap(s.restaurants),
		tables:         cloneMap(s.tables),
		sessions:       cloneMap(s.sessions),
		orders:         cloneMap(s.orders),
		requests:       cloneMap(s.requests),
		reservations:   cloneMap(s.reservations),
		attempts:       cloneMap(s.attempts),
		deliveryOrders: cloneMap(s.deliveryOrders),
		events:         cloneMap(s.events),
		clock:          s.clock,
	}
}

// tick returns a strictly increasing timestamp.
func (s *memState) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

// memDB is a transactional in-memory database. Transactions are serialized
// by a single lock, which stands in for row locks.
type memDB struct {
	mu        sync.Mutex
	state     *memState
	beginErr  error
	commitErr error
	commits   int
}

func newMemDB() *memDB {
	return &memDB{state: newMemState()}
}

func (db *memDB) Begin(ctx context.Context) (pgx.Tx, error) {
	if db.beginErr != nil {
		return nil, db.beginErr
	}
	db.mu.Lock()
	return &memTx{db: db, store: &memStore{st: db.state.clone()}}, nil
}

// snapshot returns the committed state. Not for use inside a transaction.
func (db *memDB) snapshot() *memState {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.state.clone()
}

func (db *memDB) newStore(d database.DBTX) Store {
	return d.(*memTx).store
}

// memTx implements pgx.Tx. The unused methods panic so we catch accidental calls.
type memTx struct {
	db    *memDB
	store *memStore
	done  bool
}

func (t *memTx) Commit(ctx context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	defer t.db.mu.Unlock()
	if t.db.commitErr != nil {
		return t.db.commitErr
	}
	t.db.state = t.store.st
	t.db.commits++
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.db.mu.Unlock()
	return nil
}

func (t *memTx) Begin(ctx context.Context) (pgx.Tx, error) { panic("not implemented") }
func (t *memTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}
func (t *memTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}
func (t *memTx) LargeObjects() pgx.LargeObjects { panic("not implemented") }
func (t *memTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}
func (t *memTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (t *memTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not implemented")
}
func (t *memTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("not implemented")
}
func (t *memTx) Conn() *pgx.Conn { panic("not implemented") }

// memStore implements Store over a transaction's private copy of the state.
type memStore struct {
	st *memState
}

func (m *memStore) GetRestaurant(ctx context.Context, id uuid.UUID) (database.Restaurant, error) {
	r, ok := m.st.restaurants[id]
	if !ok {
		return database.Restaurant{}, pgx.ErrNoRows
	}
	return r, nil
}

func (m *memStore) GetTable(ctx context.Context, arg database.GetTableParams) (database.DiningTable, error) {
	t, ok := m.st.tables[arg.ID]
	if !ok || t.RestaurantID != arg.RestaurantID {
		return database.DiningTable{}, pgx.ErrNoRows
	}
	return t, nil
}

func (m *memStore) ListTables(ctx context.Context, restaurantID uuid.UUID) ([]database.DiningTable, error) {
	out := []database.DiningTable{}
	for _, t := range m.st.tables {
		if t.RestaurantID == restaurantID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) UpdateTableCachedStatus(ctx context.Context, arg database.UpdateTableCachedStatusParams) error {
	t, ok := m.st.tables[arg.ID]
	if !ok {
		return nil
	}
	t.CachedStatus = arg.CachedStatus
	m.st.tables[arg.ID] = t
	return nil
}

func (m *memStore) GetOpenSessionByTable(ctx context.Context, arg database.GetOpenSessionByTableParams) (database.TableSession, error) {
	for _, s := range m.st.sessions {
		if s.RestaurantID == arg.RestaurantID && s.TableID == arg.TableID && s.Status == enum.SessionStatusOpen {
			return s, nil
		}
	}
	return database.TableSession{}, pgx.ErrNoRows
}

func (m *memStore) CreateSession(ctx context.Context, arg database.CreateSessionParams) (database.TableSession, error) {
	if _, err := m.GetOpenSessionByTable(ctx, database.GetOpenSessionByTableParams{RestaurantID: arg.RestaurantID, TableID: arg.TableID}); err == nil {
		// ON CONFLICT DO NOTHING
		return database.TableSession{}, pgx.ErrNoRows
	}
	s := database.TableSession{
		ID:              uuid.New(),
		RestaurantID:    arg.RestaurantID,
		TableID:         arg.TableID,
		ReservationID:   arg.ReservationID,
		Status:          enum.SessionStatusOpen,
		Currency:        arg.Currency,
		CardTotal:       decimalToNumeric(decimal.Zero),
		PayAtVenueTotal: decimalToNumeric(decimal.Zero),
		GrandTotal:      decimalToNumeric(decimal.Zero),
		OpenedAt:        m.st.tick(),
	}
	m.st.sessions[s.ID] = s
	return s, nil
}

func (m *memStore) AttachSessionReservation(ctx context.Context, arg database.AttachSessionReservationParams) (database.TableSession, error) {
	s, ok := m.st.sessions[arg.ID]
	if !ok || s.ReservationID.Valid {
		return database.TableSession{}, pgx.ErrNoRows
	}
	s.ReservationID = pgtype.UUID{Bytes: arg.ReservationID, Valid: true}
	m.st.sessions[s.ID] = s
	return s, nil
}

func (m *memStore) GetSession(ctx context.Context, arg database.GetSessionParams) (database.TableSession, error) {
	s, ok := m.st.sessions[arg.ID]
	if !ok || s.RestaurantID != arg.RestaurantID {
		return database.TableSession{}, pgx.ErrNoRows
	}
	return s, nil
}

func (m *memStore) GetSessionForUpdate(ctx context.Context, id uuid.UUID) (database.TableSession, error) {
	s, ok := m.st.sessions[id]
	if !ok {
		return database.TableSession{}, pgx.ErrNoRows
	}
	return s, nil
}

func (m *memStore) UpdateSessionTotals(ctx context.Context, arg database.UpdateSessionTotalsParams) (database.TableSession, error) {
	s, ok := m.st.sessions[arg.ID]
	if !ok {
		return database.TableSession{}, pgx.ErrNoRows
	}
	s.CardTotal = arg.CardTotal
	s.PayAtVenueTotal = arg.PayAtVenueTotal
	s.GrandTotal = arg.GrandTotal
	s.LastOrderAt = arg.LastOrderAt
	m.st.sessions[s.ID] = s
	return s, nil
}

func (m *memStore) CloseSession(ctx context.Context, id uuid.UUID) (database.TableSession, error) {
	s, ok := m.st.sessions[id]
	if !ok || s.Status != enum.SessionStatusOpen {
		return database.TableSession{}, pgx.ErrNoRows
	}
	s.Status = enum.SessionStatusClosed
	s.ClosedAt = pgtype.Timestamptz{Time: m.st.tick(), Valid: true}
	m.st.sessions[id] = s
	return s, nil
}

func (m *memStore) ListOpenSessions(ctx context.Context, restaurantID uuid.UUID) ([]database.TableSession, error) {
	out := []database.TableSession{}
	for _, s := range m.st.sessions {
		if s.RestaurantID == restaurantID && s.Status == enum.SessionStatusOpen {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
	now := m.st.tick()
	o := database.Order{
		ID:            arg.ID,
		RestaurantID:  arg.RestaurantID,
		TableID:       arg.TableID,
		SessionID:     arg.SessionID,
		Source:        arg.Source,
		UserID:        arg.UserID,
		GuestName:     arg.GuestName,
		Notes:         arg.Notes,
		Items:         arg.Items,
		Currency:      arg.Currency,
		Total:         arg.Total,
		PaymentMethod: arg.PaymentMethod,
		PaymentStatus: arg.PaymentStatus,
		Status:        enum.OrderStatusNew,
		KitchenStatus: enum.KitchenStatusNew,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	m.st.orders[o.ID] = o
	return o, nil
}

func (m *memStore) GetOrder(ctx context.Context, arg database.GetOrderParams) (database.Order, error) {
	o, ok := m.st.orders[arg.ID]
	if !ok || o.RestaurantID != arg.RestaurantID {
		return database.Order{}, pgx.ErrNoRows
	}
	return o, nil
}

func (m *memStore) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error) {
	o, ok := m.st.orders[id]
	if !ok {
		return database.Order{}, pgx.ErrNoRows
	}
	return o, nil
}

func (m *memStore) ListOrdersBySession(ctx context.Context, sessionID uuid.UUID) ([]database.Order, error) {
	out := []database.Order{}
	for _, o := range m.st.orders {
		if o.SessionID == sessionID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) updateOrder(id uuid.UUID, fn func(*database.Order)) (database.Order, error) {
	o, ok := m.st.orders[id]
	if !ok {
		return database.Order{}, pgx.ErrNoRows
	}
	fn(&o)
	o.UpdatedAt = m.st.tick()
	m.st.orders[id] = o
	return o, nil
}

func (m *memStore) UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error) {
	return m.updateOrder(arg.ID, func(o *database.Order) { o.Status = arg.Status })
}

func (m *memStore) UpdateOrderKitchenStatus(ctx context.Context, arg database.UpdateOrderKitchenStatusParams) (database.Order, error) {
	return m.updateOrder(arg.ID, func(o *database.Order) {
		o.KitchenStatus = arg.KitchenStatus
		o.Status = arg.Status
	})
}

func (m *memStore) UpdateOrderPaymentStatus(ctx context.Context, arg database.UpdateOrderPaymentStatusParams) (database.Order, error) {
	return m.updateOrder(arg.ID, func(o *database.Order) { o.PaymentStatus = arg.PaymentStatus })
}

func (m *memStore) SetOrderPaymentIntent(ctx context.Context, arg database.SetOrderPaymentIntentParams) (database.Order, error) {
	return m.updateOrder(arg.ID, func(o *database.Order) {
		o.PaymentIntentID = pgtype.Text{String: arg.PaymentIntentID, Valid: true}
	})
}

func (m *memStore) GetOrderSessionID(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	o, ok := m.st.orders[id]
	if !ok {
		return uuid.Nil, pgx.ErrNoRows
	}
	return o.SessionID, nil
}

func (m *memStore) DeliverOpenOrdersBySession(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	var n int64
	for id, o := range m.st.orders {
		if o.SessionID == sessionID && o.Status != enum.OrderStatusCancelled && o.KitchenStatus != enum.KitchenStatusDelivered && isSettled(o.PaymentStatus) {
			o.KitchenStatus = enum.KitchenStatusDelivered
			m.st.orders[id] = o
			n++
		}
	}
	return n, nil
}

func (m *memStore) CancelUnpaidOrdersBySession(ctx context.Context, sessionID uuid.UUID) ([]database.Order, error) {
	out := []database.Order{}
	for _, o := range m.st.orders {
		unpaid := o.PaymentStatus == enum.PaymentStatusPending || o.PaymentStatus == enum.PaymentStatusFailed
		if o.SessionID != sessionID || o.Status == enum.OrderStatusCancelled || !unpaid {
			continue
		}
		o, _ = m.updateOrder(o.ID, func(o *database.Order) { o.Status = enum.OrderStatusCancelled })
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) CountReadyOrdersBySession(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	var n int64
	for _, o := range m.st.orders {
		if o.SessionID == sessionID && o.Status != enum.OrderStatusCancelled && o.KitchenStatus == enum.KitchenStatusReady {
			n++
		}
	}
	return n, nil
}

func (m *memStore) CreateServiceRequest(ctx context.Context, arg database.CreateServiceRequestParams) (database.ServiceRequest, error) {
	if _, err := m.GetOpenServiceRequest(ctx, database.GetOpenServiceRequestParams{SessionID: arg.SessionID, Type: arg.Type}); err == nil {
		// ON CONFLICT DO NOTHING
		return database.ServiceRequest{}, pgx.ErrNoRows
	}
	r := database.ServiceRequest{
		ID:           uuid.New(),
		RestaurantID: arg.RestaurantID,
		TableID:      arg.TableID,
		SessionID:    arg.SessionID,
		Type:         arg.Type,
		Status:       enum.ServiceRequestOpen,
		Note:         arg.Note,
		CreatedAt:    m.st.tick(),
	}
	m.st.requests[r.ID] = r
	return r, nil
}

func (m *memStore) GetOpenServiceRequest(ctx context.Context, arg database.GetOpenServiceRequestParams) (database.ServiceRequest, error) {
	for _, r := range m.st.requests {
		if r.SessionID == arg.SessionID && r.Type == arg.Type && r.Status == enum.ServiceRequestOpen {
			return r, nil
		}
	}
	return database.ServiceRequest{}, pgx.ErrNoRows
}

func (m *memStore) GetServiceRequest(ctx context.Context, arg database.GetServiceRequestParams) (database.ServiceRequest, error) {
	r, ok := m.st.requests[arg.ID]
	if !ok || r.RestaurantID != arg.RestaurantID {
		return database.ServiceRequest{}, pgx.ErrNoRows
	}
	return r, nil
}

func (m *memStore) listRequests(keep func(database.ServiceRequest) bool) []database.ServiceRequest {
	out := []database.ServiceRequest{}
	for _, r := range m.st.requests {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (m *memStore) ListOpenServiceRequests(ctx context.Context, restaurantID uuid.UUID) ([]database.ServiceRequest, error) {
	return m.listRequests(func(r database.ServiceRequest) bool {
		return r.RestaurantID == restaurantID && r.Status == enum.ServiceRequestOpen
	}), nil
}

func (m *memStore) ListOpenServiceRequestsBySession(ctx context.Context, sessionID uuid.UUID) ([]database.ServiceRequest, error) {
	return m.listRequests(func(r database.ServiceRequest) bool {
		return r.SessionID == sessionID && r.Status == enum.ServiceRequestOpen
	}), nil
}

func (m *memStore) handle(r database.ServiceRequest, by pgtype.UUID) database.ServiceRequest {
	r.Status = enum.ServiceRequestHandled
	r.HandledAt = pgtype.Timestamptz{Time: m.st.tick(), Valid: true}
	r.HandledBy = by
	m.st.requests[r.ID] = r
	return r
}

func (m *memStore) HandleServiceRequest(ctx context.Context, arg database.HandleServiceRequestParams) (database.ServiceRequest, error) {
	r, ok := m.st.requests[arg.ID]
	if !ok || r.RestaurantID != arg.RestaurantID || r.Status != enum.ServiceRequestOpen {
		return database.ServiceRequest{}, pgx.ErrNoRows
	}
	return m.handle(r, arg.HandledBy), nil
}

func (m *memStore) HandleServiceRequestsByType(ctx context.Context, arg database.HandleServiceRequestsByTypeParams) (int64, error) {
	var n int64
	for _, r := range m.st.requests {
		if r.SessionID == arg.SessionID && r.Type == arg.Type && r.Status == enum.ServiceRequestOpen {
			m.handle(r, pgtype.UUID{})
			n++
		}
	}
	return n, nil
}

func (m *memStore) HandleServiceRequestsBySession(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	var n int64
	for _, r := range m.st.requests {
		if r.SessionID == sessionID && r.Status == enum.ServiceRequestOpen {
			m.handle(r, pgtype.UUID{})
			n++
		}
	}
	return n, nil
}

func (m *memStore) GetReservation(ctx context.Context, arg database.GetReservationParams) (database.Reservation, error) {
	r, ok := m.st.reservations[arg.ID]
	if !ok || r.RestaurantID != arg.RestaurantID {
		return database.Reservation{}, pgx.ErrNoRows
	}
	return r, nil
}

func (m *memStore) GetReservationForUpdate(ctx context.Context, id uuid.UUID) (database.Reservation, error) {
	r, ok := m.st.reservations[id]
	if !ok {
		return database.Reservation{}, pgx.ErrNoRows
	}
	return r, nil
}

func (m *memStore) FindNearestReservation(ctx context.Context, arg database.FindNearestReservationParams) (database.Reservation, error) {
	var (
		best     database.Reservation
		bestDist time.Duration = -1
	)
	for _, r := range m.st.reservations {
		if r.RestaurantID != arg.RestaurantID || !r.UserID.Valid || uuid.UUID(r.UserID.Bytes) != arg.UserID {
			continue
		}
		if !isActiveReservation(r.Status) {
			continue
		}
		if r.ReservedFor.Before(arg.WindowStart) || r.ReservedFor.After(arg.WindowEnd) {
			continue
		}
		d := r.ReservedFor.Sub(arg.At)
		if d < 0 {
			d = -d
		}
		if bestDist < 0 || d < bestDist {
			best, bestDist = r, d
		}
	}
	if bestDist < 0 {
		return database.Reservation{}, pgx.ErrNoRows
	}
	return best, nil
}

func (m *memStore) MarkReservationArrived(ctx context.Context, id uuid.UUID) (database.Reservation, error) {
	r, ok := m.st.reservations[id]
	if !ok || (r.Status != enum.ReservationStatusPending && r.Status != enum.ReservationStatusConfirmed) {
		return database.Reservation{}, pgx.ErrNoRows
	}
	r.Status = enum.ReservationStatusArrived
	m.st.reservations[id] = r
	return r, nil
}

func (m *memStore) UpdateReservationDeposit(ctx context.Context, arg database.UpdateReservationDepositParams) (database.Reservation, error) {
	r, ok := m.st.reservations[arg.ID]
	if !ok {
		return database.Reservation{}, pgx.ErrNoRows
	}
	r.DepositStatus = arg.DepositStatus
	r.Status = arg.Status
	m.st.reservations[arg.ID] = r
	return r, nil
}

func (m *memStore) CreatePaymentAttempt(ctx context.Context, arg database.CreatePaymentAttemptParams) (database.DeliveryPaymentAttempt, error) {
	now := m.st.tick()
	a := database.DeliveryPaymentAttempt{
		ID:              arg.ID,
		RestaurantID:    arg.RestaurantID,
		UserID:          arg.UserID,
		CustomerName:    arg.CustomerName,
		DeliveryAddress: arg.DeliveryAddress,
		Items:           arg.Items,
		Currency:        arg.Currency,
		Total:           arg.Total,
		Status:          enum.AttemptStatusPending,
		PaymentIntentID: arg.PaymentIntentID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	m.st.attempts[a.ID] = a
	return a, nil
}

func (m *memStore) GetPaymentAttemptForUpdate(ctx context.Context, id uuid.UUID) (database.DeliveryPaymentAttempt, error) {
	a, ok := m.st.attempts[id]
	if !ok {
		return database.DeliveryPaymentAttempt{}, pgx.ErrNoRows
	}
	return a, nil
}

func (m *memStore) UpdatePaymentAttemptStatus(ctx context.Context, arg database.UpdatePaymentAttemptStatusParams) (database.DeliveryPaymentAttempt, error) {
	a, ok := m.st.attempts[arg.ID]
	if !ok {
		return database.DeliveryPaymentAttempt{}, pgx.ErrNoRows
	}
	a.Status = arg.Status
	a.UpdatedAt = m.st.tick()
	m.st.attempts[arg.ID] = a
	return a, nil
}

func (m *memStore) LinkPaymentAttemptOrder(ctx context.Context, arg database.LinkPaymentAttemptOrderParams) (database.DeliveryPaymentAttempt, error) {
	a, ok := m.st.attempts[arg.ID]
	if !ok || a.OrderID.Valid {
		return database.DeliveryPaymentAttempt{}, pgx.ErrNoRows
	}
	a.OrderID = pgtype.UUID{Bytes: arg.OrderID, Valid: true}
	a.Status = enum.AttemptStatusPaid
	a.UpdatedAt = m.st.tick()
	m.st.attempts[arg.ID] = a
	return a, nil
}

func (m *memStore) CreateDeliveryOrder(ctx context.Context, arg database.CreateDeliveryOrderParams) (database.DeliveryOrder, error) {
	for _, o := range m.st.deliveryOrders {
		if o.AttemptID == arg.AttemptID {
			return database.DeliveryOrder{}, &pgconn.PgError{Code: "23505", ConstraintName: "delivery_orders_attempt_id_key"}
		}
	}
	o := database.DeliveryOrder{
		ID:              uuid.New(),
		RestaurantID:    arg.RestaurantID,
		AttemptID:       arg.AttemptID,
		UserID:          arg.UserID,
		CustomerName:    arg.CustomerName,
		DeliveryAddress: arg.DeliveryAddress,
		Items:           arg.Items,
		Currency:        arg.Currency,
		Total:           arg.Total,
		Status:          "new",
		CreatedAt:       m.st.tick(),
	}
	m.st.deliveryOrders[o.ID] = o
	return o, nil
}

func (m *memStore) RecordGatewayEvent(ctx context.Context, arg database.RecordGatewayEventParams) (int64, error) {
	if m.st.events[arg.EventID] {
		return 0, nil
	}
	m.st.events[arg.EventID] = true
	return 1, nil
}
