package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/tableside/api/internal/database"
	"github.com/tableside/api/internal/enum"
	"github.com/tableside/api/internal/gateway"
	"github.com/tableside/api/internal/notify"
	"github.com/tableside/api/internal/tablestatus"
)

// Ledger owns session lifecycle and running totals. Every method runs on a
// caller-supplied store that is bound to the caller's transaction.
type Ledger struct {
	currencies      map[string]string
	defaultCurrency string
}

// NewLedger creates a Ledger. currencies maps region codes to ISO currencies.
func NewLedger(currencies map[string]string, defaultCurrency string) *Ledger {
	if defaultCurrency == "" {
		defaultCurrency = "EUR"
	}
	return &Ledger{currencies: currencies, defaultCurrency: defaultCurrency}
}

func (l *Ledger) currencyFor(region string) string {
	if c, ok := l.currencies[strings.ToUpper(region)]; ok {
		return c
	}
	return l.defaultCurrency
}

// openOrReuse returns the table's open session, creating it when none exists.
// Two concurrent callers converge on one session: the partial unique index
// drops the loser's insert and the loser re-reads the winner's row.
func (l *Ledger) openOrReuse(ctx context.Context, store Store, restaurantID, tableID uuid.UUID, reservationID uuid.NullUUID) (database.TableSession, bool, error) {
	table, err := store.GetTable(ctx, database.GetTableParams{ID: tableID, RestaurantID: restaurantID})
	if err != nil {
		return database.TableSession{}, false, fmt.Errorf("get table: %w", notFound(err, ErrTableNotFound))
	}
	if !table.IsActive {
		return database.TableSession{}, false, ErrTableInactive
	}

	key := database.GetOpenSessionByTableParams{RestaurantID: restaurantID, TableID: tableID}
	sess, err := store.GetOpenSessionByTable(ctx, key)
	if err == nil {
		return l.attachReservation(ctx, store, sess, reservationID)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return database.TableSession{}, false, fmt.Errorf("get open session: %w", err)
	}

	restaurant, err := store.GetRestaurant(ctx, restaurantID)
	if err != nil {
		return database.TableSession{}, false, fmt.Errorf("get restaurant: %w", notFound(err, ErrRestaurantNotFound))
	}

	sess, err = store.CreateSession(ctx, database.CreateSessionParams{
		RestaurantID:  restaurantID,
		TableID:       tableID,
		ReservationID: optionalUUID(reservationID),
		Currency:      l.currencyFor(restaurant.Region),
	})
	if err == nil {
		return sess, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return database.TableSession{}, false, fmt.Errorf("create session: %w", err)
	}

	// Lost the race to a concurrent opener.
	sess, err = store.GetOpenSessionByTable(ctx, key)
	if err != nil {
		return database.TableSession{}, false, fmt.Errorf("re-read open session: %w", err)
	}
	return l.attachReservation(ctx, store, sess, reservationID)
}

func (l *Ledger) attachReservation(ctx context.Context, store Store, sess database.TableSession, reservationID uuid.NullUUID) (database.TableSession, bool, error) {
	if !reservationID.Valid || sess.ReservationID.Valid {
		return sess, false, nil
	}
	updated, err := store.AttachSessionReservation(ctx, database.AttachSessionReservationParams{
		ID:            sess.ID,
		ReservationID: reservationID.UUID,
	})
	if errors.Is(err, pgx.ErrNoRows) {
		// attached concurrently
		return sess, false, nil
	}
	if err != nil {
		return database.TableSession{}, false, fmt.Errorf("attach reservation: %w", err)
	}
	return updated, false, nil
}

// addOrderTotal adds amount to the bucket for method and recomputes the grand
// total under the session row lock. A non-zero orderedAt advances lastOrderAt.
func (l *Ledger) addOrderTotal(ctx context.Context, store Store, sessionID uuid.UUID, amount decimal.Decimal, method string, orderedAt time.Time) (database.TableSession, error) {
	sess, err := store.GetSessionForUpdate(ctx, sessionID)
	if err != nil {
		return database.TableSession{}, fmt.Errorf("lock session: %w", notFound(err, ErrSessionNotFound))
	}

	card := numericToDecimal(sess.CardTotal)
	venue := numericToDecimal(sess.PayAtVenueTotal)
	if method == enum.PaymentMethodCard {
		card = card.Add(amount)
	} else {
		venue = venue.Add(amount)
	}

	last := sess.LastOrderAt
	if !orderedAt.IsZero() && (!last.Valid || orderedAt.After(last.Time)) {
		last = pgtype.Timestamptz{Time: orderedAt, Valid: true}
	}

	return store.UpdateSessionTotals(ctx, database.UpdateSessionTotalsParams{
		ID:              sess.ID,
		CardTotal:       decimalToNumeric(card),
		PayAtVenueTotal: decimalToNumeric(venue),
		GrandTotal:      decimalToNumeric(card.Add(venue)),
		LastOrderAt:     last,
	})
}

// removeOrderTotal subtracts amount from the bucket for method, clamped at
// zero, and recomputes lastOrderAt from the remaining non-cancelled orders.
// A clamp means the ledger was already inconsistent and is logged as an
// integrity alarm.
func (l *Ledger) removeOrderTotal(ctx context.Context, store Store, sessionID uuid.UUID, amount decimal.Decimal, method string) (database.TableSession, error) {
	sess, err := store.GetSessionForUpdate(ctx, sessionID)
	if err != nil {
		return database.TableSession{}, fmt.Errorf("lock session: %w", notFound(err, ErrSessionNotFound))
	}

	card := numericToDecimal(sess.CardTotal)
	venue := numericToDecimal(sess.PayAtVenueTotal)
	bucket := &venue
	if method == enum.PaymentMethodCard {
		bucket = &card
	}
	next := bucket.Sub(amount)
	if next.IsNegative() {
		log.Error().
			Str("session_id", sessionID.String()).
			Str("payment_method", method).
			Str("balance", bucket.StringFixed(2)).
			Str("amount", amount.StringFixed(2)).
			Msg("ledger integrity: session total would go negative, clamping at zero")
		next = decimal.Zero
	}
	*bucket = next

	orders, err := store.ListOrdersBySession(ctx, sessionID)
	if err != nil {
		return database.TableSession{}, fmt.Errorf("list session orders: %w", err)
	}
	var last pgtype.Timestamptz
	for _, o := range orders {
		if o.Status == enum.OrderStatusCancelled {
			continue
		}
		if !last.Valid || o.CreatedAt.After(last.Time) {
			last = pgtype.Timestamptz{Time: o.CreatedAt, Valid: true}
		}
	}

	return store.UpdateSessionTotals(ctx, database.UpdateSessionTotalsParams{
		ID:              sess.ID,
		CardTotal:       decimalToNumeric(card),
		PayAtVenueTotal: decimalToNumeric(venue),
		GrandTotal:      decimalToNumeric(card.Add(venue)),
		LastOrderAt:     last,
	})
}

// close settles the session: open service requests are handled, unpaid card
// orders are cancelled, settled orders still in the kitchen are marked
// delivered, and the session is closed. The cancelled orders are returned so
// the caller can void their intents after commit.
func (l *Ledger) close(ctx context.Context, store Store, sessionID uuid.UUID) (database.TableSession, []database.Order, error) {
	sess, err := store.GetSessionForUpdate(ctx, sessionID)
	if err != nil {
		return database.TableSession{}, nil, fmt.Errorf("lock session: %w", notFound(err, ErrSessionNotFound))
	}
	if sess.Status != enum.SessionStatusOpen {
		return database.TableSession{}, nil, ErrSessionClosed
	}

	if _, err := store.HandleServiceRequestsBySession(ctx, sessionID); err != nil {
		return database.TableSession{}, nil, fmt.Errorf("handle service requests: %w", err)
	}
	// unpaid orders were never counted, so the totals stay as they are
	unpaid, err := store.CancelUnpaidOrdersBySession(ctx, sessionID)
	if err != nil {
		return database.TableSession{}, nil, fmt.Errorf("cancel unpaid orders: %w", err)
	}
	if _, err := store.DeliverOpenOrdersBySession(ctx, sessionID); err != nil {
		return database.TableSession{}, nil, fmt.Errorf("deliver orders: %w", err)
	}

	closed, err := store.CloseSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.TableSession{}, nil, ErrSessionClosed
		}
		return database.TableSession{}, nil, fmt.Errorf("close session: %w", err)
	}
	return closed, unpaid, nil
}

// refreshTableStatus derives the table's status from its open session and
// open service requests and stores it in the advisory cache column.
func refreshTableStatus(ctx context.Context, store Store, restaurantID, tableID uuid.UUID) (tablestatus.Status, error) {
	var in tablestatus.Input

	sess, err := store.GetOpenSessionByTable(ctx, database.GetOpenSessionByTableParams{
		RestaurantID: restaurantID,
		TableID:      tableID,
	})
	switch {
	case err == nil:
		in.OpenSession = &tablestatus.Session{GrandTotal: numericToDecimal(sess.GrandTotal)}
		reqs, err := store.ListOpenServiceRequestsBySession(ctx, sess.ID)
		if err != nil {
			return "", fmt.Errorf("list open requests: %w", err)
		}
		for _, r := range reqs {
			in.OpenRequests = append(in.OpenRequests, r.Type)
		}
	case errors.Is(err, pgx.ErrNoRows):
	default:
		return "", fmt.Errorf("get open session: %w", err)
	}

	status := tablestatus.Derive(in)
	if err := store.UpdateTableCachedStatus(ctx, database.UpdateTableCachedStatusParams{
		ID:           tableID,
		CachedStatus: string(status),
	}); err != nil {
		return "", fmt.Errorf("update cached status: %w", err)
	}
	return status, nil
}

// TableStatusNotice is the payload of a notify.TableStatusChanged notice.
type TableStatusNotice struct {
	TableID uuid.UUID          `json:"table_id"`
	Status  tablestatus.Status `json:"status"`
}

func tableStatusNotice(restaurantID, tableID uuid.UUID, status tablestatus.Status) notify.Notice {
	return notify.Notice{
		Type:         notify.TableStatusChanged,
		RestaurantID: restaurantID,
		Payload:      TableStatusNotice{TableID: tableID, Status: status},
	}
}

// SessionService exposes the ledger's session operations.
type SessionService struct {
	pool     TxBeginner
	newStore NewStore
	ledger   *Ledger
	gateway  gateway.Gateway
	notifier notify.Notifier
}

// NewSessionService creates a new SessionService.
func NewSessionService(pool TxBeginner, newStore NewStore, ledger *Ledger, gw gateway.Gateway, notifier notify.Notifier) *SessionService {
	return &SessionService{pool: pool, newStore: newStore, ledger: ledger, gateway: gw, notifier: notifier}
}

// OpenOrReuse returns the table's open session, creating one if needed.
// The bool reports whether a new session was created.
func (s *SessionService) OpenOrReuse(ctx context.Context, restaurantID, tableID uuid.UUID, reservationID uuid.NullUUID) (*SessionView, bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	if reservationID.Valid {
		if _, err := store.GetReservation(ctx, database.GetReservationParams{ID: reservationID.UUID, RestaurantID: restaurantID}); err != nil {
			return nil, false, fmt.Errorf("get reservation: %w", notFound(err, ErrReservationNotFound))
		}
	}

	sess, created, err := s.ledger.openOrReuse(ctx, store, restaurantID, tableID, reservationID)
	if err != nil {
		return nil, false, err
	}
	status, err := refreshTableStatus(ctx, store, restaurantID, tableID)
	if err != nil {
		return nil, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("commit tx: %w", err)
	}

	if created {
		s.notifier.Notify(ctx, tableStatusNotice(restaurantID, tableID, status))
	}
	v := newSessionView(sess)
	return &v, created, nil
}

// Close closes an open session. Intents of card orders cancelled by the
// close are voided after commit.
func (s *SessionService) Close(ctx context.Context, restaurantID, sessionID uuid.UUID) (*SessionView, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	if _, err := store.GetSession(ctx, database.GetSessionParams{ID: sessionID, RestaurantID: restaurantID}); err != nil {
		return nil, fmt.Errorf("get session: %w", notFound(err, ErrSessionNotFound))
	}

	closed, unpaid, err := s.ledger.close(ctx, store, sessionID)
	if err != nil {
		return nil, err
	}
	status, err := refreshTableStatus(ctx, store, restaurantID, closed.TableID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	for _, o := range unpaid {
		if o.PaymentIntentID.Valid {
			cancelIntent(ctx, s.gateway, o.PaymentIntentID.String)
		}
		s.notifier.Notify(ctx, notify.Notice{Type: notify.OrderCancelled, RestaurantID: restaurantID, Payload: newOrderView(o)})
	}

	v := newSessionView(closed)
	s.notifier.Notify(ctx, notify.Notice{Type: notify.SessionClosed, RestaurantID: restaurantID, Payload: v})
	s.notifier.Notify(ctx, tableStatusNotice(restaurantID, closed.TableID, status))
	return &v, nil
}

// SessionDetail is a session with its orders and open service requests.
type SessionDetail struct {
	SessionView
	Orders          []OrderView          `json:"orders"`
	ServiceRequests []ServiceRequestView `json:"open_service_requests"`
}

// Get returns a session with its orders.
func (s *SessionService) Get(ctx context.Context, restaurantID, sessionID uuid.UUID) (*SessionDetail, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	sess, err := store.GetSession(ctx, database.GetSessionParams{ID: sessionID, RestaurantID: restaurantID})
	if err != nil {
		return nil, fmt.Errorf("get session: %w", notFound(err, ErrSessionNotFound))
	}
	orders, err := store.ListOrdersBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	reqs, err := store.ListOpenServiceRequestsBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list service requests: %w", err)
	}

	out := &SessionDetail{
		SessionView:     newSessionView(sess),
		Orders:          make([]OrderView, 0, len(orders)),
		ServiceRequests: make([]ServiceRequestView, 0, len(reqs)),
	}
	for _, o := range orders {
		out.Orders = append(out.Orders, newOrderView(o))
	}
	for _, r := range reqs {
		out.ServiceRequests = append(out.ServiceRequests, newServiceRequestView(r))
	}
	return out, nil
}
