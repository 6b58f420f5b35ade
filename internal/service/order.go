package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/tableside/api/internal/catalog"
	"github.com/tableside/api/internal/database"
	"github.com/tableside/api/internal/enum"
	"github.com/tableside/api/internal/gateway"
	"github.com/tableside/api/internal/notify"
)

// CreateOrderRequest is the validated input for creating a table order.
type CreateOrderRequest struct {
	RestaurantID  uuid.UUID
	TableID       uuid.UUID
	Source        string
	UserID        uuid.NullUUID
	GuestName     string
	Notes         string
	ReservationID uuid.NullUUID
	PaymentMethod string
	Items         []catalog.ItemSelection
}

// CreateOrderResult is the created order and the session it landed in.
// ClientSecret is set for card orders and is handed to the payer's client.
type CreateOrderResult struct {
	Order        OrderView   `json:"order"`
	Session      SessionView `json:"session"`
	ClientSecret string      `json:"client_secret,omitempty"`
}

// OrderService handles table order business logic.
type OrderService struct {
	pool        TxBeginner
	newStore    NewStore
	ledger      *Ledger
	menus       catalog.Provider
	gateway     gateway.Gateway
	notifier    notify.Notifier
	matchWindow time.Duration
	now         func() time.Time
}

// NewOrderService creates a new OrderService. matchWindow bounds how far a
// reservation-linked order may be from the reservation time.
func NewOrderService(pool TxBeginner, newStore NewStore, ledger *Ledger, menus catalog.Provider, gw gateway.Gateway, notifier notify.Notifier, matchWindow time.Duration) *OrderService {
	return &OrderService{
		pool:        pool,
		newStore:    newStore,
		ledger:      ledger,
		menus:       menus,
		gateway:     gw,
		notifier:    notifier,
		matchWindow: matchWindow,
		now:         time.Now,
	}
}

func validateCreateOrder(req CreateOrderRequest) error {
	switch req.Source {
	case enum.OrderSourceWalkIn:
		if req.GuestName == "" && !req.UserID.Valid {
			return ErrGuestRequired
		}
	case enum.OrderSourceQR:
	case enum.OrderSourceReservation:
		if !req.UserID.Valid {
			return ErrUserRequired
		}
	default:
		return ErrInvalidSource
	}
	switch req.PaymentMethod {
	case enum.PaymentMethodCard, enum.PaymentMethodVenue:
	default:
		return ErrInvalidPaymentMethod
	}
	return nil
}

// CreateOrder prices the items, places the order in the table's session and
// updates the ledger. Venue orders count towards the session at once; card
// orders count only when the gateway confirms payment.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	if err := validateCreateOrder(req); err != nil {
		return nil, err
	}

	menu, err := s.menus.Menu(ctx, req.RestaurantID)
	if err != nil {
		return nil, fmt.Errorf("load menu: %w", err)
	}
	snap, err := catalog.Resolve(menu, req.Items)
	if err != nil {
		return nil, err
	}
	items, err := json.Marshal(snap.Items)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	reservationID := uuid.NullUUID{}
	if req.Source == enum.OrderSourceReservation {
		reservationID, err = s.matchReservation(ctx, store, req)
		if err != nil {
			return nil, err
		}
	}

	sess, _, err := s.ledger.openOrReuse(ctx, store, req.RestaurantID, req.TableID, reservationID)
	if err != nil {
		return nil, err
	}

	total := snap.Subtotal
	paymentStatus := enum.PaymentStatusNotRequired
	if req.PaymentMethod == enum.PaymentMethodCard && total.IsPositive() {
		paymentStatus = enum.PaymentStatusPending
	}

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		ID:            uuid.New(),
		RestaurantID:  req.RestaurantID,
		TableID:       req.TableID,
		SessionID:     sess.ID,
		Source:        req.Source,
		UserID:        optionalUUID(req.UserID),
		GuestName:     optionalText(req.GuestName),
		Notes:         optionalText(req.Notes),
		Items:         items,
		Currency:      sess.Currency,
		Total:         decimalToNumeric(total),
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: paymentStatus,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	// The intent is created before the session row is locked.
	var intent gateway.Intent
	if paymentStatus == enum.PaymentStatusPending {
		intent, err = s.gateway.CreateIntent(ctx, gateway.IntentRequest{
			AmountMinor: gateway.ToMinorUnits(total, sess.Currency),
			Currency:    sess.Currency,
			Metadata: gateway.Metadata{
				Kind:      gateway.KindTableOrder,
				EntityID:  order.ID,
				SessionID: uuid.NullUUID{UUID: sess.ID, Valid: true},
			},
			IdempotencyKey: "order-" + order.ID.String(),
		})
		if err != nil {
			log.Warn().Err(err).Str("order_id", order.ID.String()).Msg("create payment intent")
			return nil, ErrGatewayUnavailable
		}
		order, err = store.SetOrderPaymentIntent(ctx, database.SetOrderPaymentIntentParams{
			ID:              order.ID,
			PaymentIntentID: intent.ID,
		})
		if err != nil {
			cancelIntent(ctx, s.gateway, intent.ID)
			return nil, fmt.Errorf("set payment intent: %w", err)
		}
	}

	// Pending card orders are not counted, but still move lastOrderAt.
	counted := total
	if paymentStatus == enum.PaymentStatusPending {
		counted = decimal.Zero
	}
	sess, err = s.ledger.addOrderTotal(ctx, store, sess.ID, counted, req.PaymentMethod, order.CreatedAt)
	if err != nil {
		cancelIntent(ctx, s.gateway, intent.ID)
		return nil, err
	}

	status, err := refreshTableStatus(ctx, store, req.RestaurantID, req.TableID)
	if err != nil {
		cancelIntent(ctx, s.gateway, intent.ID)
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		cancelIntent(ctx, s.gateway, intent.ID)
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	result := &CreateOrderResult{
		Order:        newOrderView(order),
		Session:      newSessionView(sess),
		ClientSecret: intent.ClientSecret,
	}
	s.notifier.Notify(ctx, notify.Notice{Type: notify.OrderCreated, RestaurantID: req.RestaurantID, Payload: result.Order})
	s.notifier.Notify(ctx, tableStatusNotice(req.RestaurantID, req.TableID, status))
	return result, nil
}

// cancelIntent is the compensating action for an intent whose order was not
// persisted. Failure is logged; the gateway expires abandoned intents.
func cancelIntent(ctx context.Context, gw gateway.Gateway, intentID string) {
	if intentID == "" {
		return
	}
	if err := gw.CancelIntent(context.WithoutCancel(ctx), intentID); err != nil {
		log.Warn().Err(err).Str("intent_id", intentID).Msg("cancel orphaned payment intent")
	}
}

func isActiveReservation(status string) bool {
	switch status {
	case enum.ReservationStatusPending, enum.ReservationStatusConfirmed, enum.ReservationStatusArrived:
		return true
	}
	return false
}

// matchReservation links a reservation-channel order to the user's
// reservation. An explicit reservation id is used when it belongs to the user
// and is still active; otherwise the nearest active reservation within the
// match window is used. No match means the order proceeds unlinked.
func (s *OrderService) matchReservation(ctx context.Context, store Store, req CreateOrderRequest) (uuid.NullUUID, error) {
	var (
		res database.Reservation
		err error
	)

	matched := false
	if req.ReservationID.Valid {
		res, err = store.GetReservation(ctx, database.GetReservationParams{ID: req.ReservationID.UUID, RestaurantID: req.RestaurantID})
		switch {
		case err == nil:
			owned := res.UserID.Valid && uuid.UUID(res.UserID.Bytes) == req.UserID.UUID
			matched = owned && isActiveReservation(res.Status)
		case errors.Is(err, pgx.ErrNoRows):
		default:
			return uuid.NullUUID{}, fmt.Errorf("get reservation: %w", err)
		}
	}

	if !matched {
		now := s.now()
		res, err = store.FindNearestReservation(ctx, database.FindNearestReservationParams{
			RestaurantID: req.RestaurantID,
			UserID:       req.UserID.UUID,
			At:           now,
			WindowStart:  now.Add(-s.matchWindow),
			WindowEnd:    now.Add(s.matchWindow),
		})
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.NullUUID{}, nil
		}
		if err != nil {
			return uuid.NullUUID{}, fmt.Errorf("find reservation: %w", err)
		}
	}

	if res.Status == enum.ReservationStatusPending || res.Status == enum.ReservationStatusConfirmed {
		if _, err := store.MarkReservationArrived(ctx, res.ID); err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return uuid.NullUUID{}, fmt.Errorf("mark reservation arrived: %w", err)
		}
	}
	return uuid.NullUUID{UUID: res.ID, Valid: true}, nil
}

// lockSessionThenOrder row-locks an order's session and then the order.
// Every transaction that writes a session's orders takes the session lock
// first, closing included.
func lockSessionThenOrder(ctx context.Context, store Store, orderID uuid.UUID) (database.Order, error) {
	sessionID, err := store.GetOrderSessionID(ctx, orderID)
	if err != nil {
		return database.Order{}, err
	}
	if _, err := store.GetSessionForUpdate(ctx, sessionID); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return database.Order{}, fmt.Errorf("lock session: %w", err)
	}
	return store.GetOrderForUpdate(ctx, orderID)
}

// lockOrder row-locks an order and checks it belongs to the restaurant.
func lockOrder(ctx context.Context, store Store, restaurantID, orderID uuid.UUID) (database.Order, error) {
	order, err := lockSessionThenOrder(ctx, store, orderID)
	if err != nil {
		return database.Order{}, fmt.Errorf("lock order: %w", notFound(err, ErrOrderNotFound))
	}
	if order.RestaurantID != restaurantID {
		return database.Order{}, ErrOrderNotFound
	}
	return order, nil
}

// GetOrder returns one order.
func (s *OrderService) GetOrder(ctx context.Context, restaurantID, orderID uuid.UUID) (*OrderView, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	order, err := s.newStore(tx).GetOrder(ctx, database.GetOrderParams{ID: orderID, RestaurantID: restaurantID})
	if err != nil {
		return nil, fmt.Errorf("get order: %w", notFound(err, ErrOrderNotFound))
	}
	v := newOrderView(order)
	return &v, nil
}

// AcceptOrder moves a new order to accepted.
func (s *OrderService) AcceptOrder(ctx context.Context, restaurantID, orderID uuid.UUID) (*OrderView, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := lockOrder(ctx, store, restaurantID, orderID)
	if err != nil {
		return nil, err
	}
	switch order.Status {
	case enum.OrderStatusCancelled:
		return nil, ErrOrderCancelled
	case enum.OrderStatusNew:
	default:
		return nil, ErrOrderNotNew
	}

	order, err = store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{ID: orderID, Status: enum.OrderStatusAccepted})
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	v := newOrderView(order)
	return &v, nil
}

// nextKitchenStatus is the only status a kitchen status may advance to.
var nextKitchenStatus = map[string]string{
	enum.KitchenStatusNew:       enum.KitchenStatusPreparing,
	enum.KitchenStatusPreparing: enum.KitchenStatusReady,
	enum.KitchenStatusReady:     enum.KitchenStatusDelivered,
}

func isSettled(paymentStatus string) bool {
	return paymentStatus == enum.PaymentStatusPaid || paymentStatus == enum.PaymentStatusNotRequired
}

// AdvanceKitchen moves an order's kitchen status one step forward. Unpaid
// card orders cannot enter the kitchen flow. Reaching ready opens the
// session's order_ready request; delivering the last ready order handles it.
func (s *OrderService) AdvanceKitchen(ctx context.Context, restaurantID, orderID uuid.UUID, target string) (*OrderView, error) {
	switch target {
	case enum.KitchenStatusPreparing, enum.KitchenStatusReady, enum.KitchenStatusDelivered:
	default:
		return nil, ErrInvalidKitchenStatus
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := lockOrder(ctx, store, restaurantID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == enum.OrderStatusCancelled {
		return nil, ErrOrderCancelled
	}
	if !isSettled(order.PaymentStatus) {
		return nil, ErrPaymentRequired
	}
	if nextKitchenStatus[order.KitchenStatus] != target {
		return nil, fmt.Errorf("%w: %s -> %s", ErrKitchenTransition, order.KitchenStatus, target)
	}

	status := order.Status
	if status == enum.OrderStatusNew {
		status = enum.OrderStatusAccepted
	}
	order, err = store.UpdateOrderKitchenStatus(ctx, database.UpdateOrderKitchenStatusParams{
		ID:            orderID,
		KitchenStatus: target,
		Status:        status,
	})
	if err != nil {
		return nil, fmt.Errorf("update kitchen status: %w", err)
	}

	switch target {
	case enum.KitchenStatusReady:
		if _, _, err := openServiceRequest(ctx, store, order.RestaurantID, order.TableID, order.SessionID, enum.ServiceRequestOrderReady, ""); err != nil {
			return nil, err
		}
	case enum.KitchenStatusDelivered:
		if err := closeOrderReadyIfDone(ctx, store, order.SessionID); err != nil {
			return nil, err
		}
	}

	tableStatus, err := refreshTableStatus(ctx, store, restaurantID, order.TableID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	v := newOrderView(order)
	switch target {
	case enum.KitchenStatusReady:
		s.notifier.Notify(ctx, notify.Notice{Type: notify.OrderReady, RestaurantID: restaurantID, Payload: v})
	case enum.KitchenStatusDelivered:
		s.notifier.Notify(ctx, notify.Notice{Type: notify.OrderDelivered, RestaurantID: restaurantID, Payload: v})
	}
	s.notifier.Notify(ctx, tableStatusNotice(restaurantID, order.TableID, tableStatus))
	return &v, nil
}

// closeOrderReadyIfDone handles the session's order_ready request once no
// ready orders remain.
func closeOrderReadyIfDone(ctx context.Context, store Store, sessionID uuid.UUID) error {
	n, err := store.CountReadyOrdersBySession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("count ready orders: %w", err)
	}
	if n > 0 {
		return nil
	}
	if _, err := store.HandleServiceRequestsByType(ctx, database.HandleServiceRequestsByTypeParams{
		SessionID: sessionID,
		Type:      enum.ServiceRequestOrderReady,
	}); err != nil {
		return fmt.Errorf("handle order_ready requests: %w", err)
	}
	return nil
}
