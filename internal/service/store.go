package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/tableside/api/internal/database"
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store defines the DB methods the ledger services need.
// Satisfied by *database.Queries (and its WithTx variant).
type Store interface {
	GetRestaurant(ctx context.Context, id uuid.UUID) (database.Restaurant, error)

	GetTable(ctx context.Context, arg database.GetTableParams) (database.DiningTable, error)
	ListTables(ctx context.Context, restaurantID uuid.UUID) ([]database.DiningTable, error)
	UpdateTableCachedStatus(ctx context.Context, arg database.UpdateTableCachedStatusParams) error

	GetOpenSessionByTable(ctx context.Context, arg database.GetOpenSessionByTableParams) (database.TableSession, error)
	CreateSession(ctx context.Context, arg database.CreateSessionParams) (database.TableSession, error)
	AttachSessionReservation(ctx context.Context, arg database.AttachSessionReservationParams) (database.TableSession, error)
	GetSession(ctx context.Context, arg database.GetSessionParams) (database.TableSession, error)
	GetSessionForUpdate(ctx context.Context, id uuid.UUID) (database.TableSession, error)
	UpdateSessionTotals(ctx context.Context, arg database.UpdateSessionTotalsParams) (database.TableSession, error)
	CloseSession(ctx context.Context, id uuid.UUID) (database.TableSession, error)
	ListOpenSessions(ctx context.Context, restaurantID uuid.UUID) ([]database.TableSession, error)

	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	GetOrder(ctx context.Context, arg database.GetOrderParams) (database.Order, error)
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error)
	GetOrderSessionID(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	ListOrdersBySession(ctx context.Context, sessionID uuid.UUID) ([]database.Order, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	UpdateOrderKitchenStatus(ctx context.Context, arg database.UpdateOrderKitchenStatusParams) (database.Order, error)
	UpdateOrderPaymentStatus(ctx context.Context, arg database.UpdateOrderPaymentStatusParams) (database.Order, error)
	SetOrderPaymentIntent(ctx context.Context, arg database.SetOrderPaymentIntentParams) (database.Order, error)
	DeliverOpenOrdersBySession(ctx context.Context, sessionID uuid.UUID) (int64, error)
	CancelUnpaidOrdersBySession(ctx context.Context, sessionID uuid.UUID) ([]database.Order, error)
	CountReadyOrdersBySession(ctx context.Context, sessionID uuid.UUID) (int64, error)

	CreateServiceRequest(ctx context.Context, arg database.CreateServiceRequestParams) (database.ServiceRequest, error)
	GetOpenServiceRequest(ctx context.Context, arg database.GetOpenServiceRequestParams) (database.ServiceRequest, error)
	GetServiceRequest(ctx context.Context, arg database.GetServiceRequestParams) (database.ServiceRequest, error)
	ListOpenServiceRequests(ctx context.Context, restaurantID uuid.UUID) ([]database.ServiceRequest, error)
	ListOpenServiceRequestsBySession(ctx context.Context, sessionID uuid.UUID) ([]database.ServiceRequest, error)
	HandleServiceRequest(ctx context.Context, arg database.HandleServiceRequestParams) (database.ServiceRequest, error)
	HandleServiceRequestsByType(ctx context.Context, arg database.HandleServiceRequestsByTypeParams) (int64, error)
	HandleServiceRequestsBySession(ctx context.Context, sessionID uuid.UUID) (int64, error)

	GetReservation(ctx context.Context, arg database.GetReservationParams) (database.Reservation, error)
	GetReservationForUpdate(ctx context.Context, id uuid.UUID) (database.Reservation, error)
	FindNearestReservation(ctx context.Context, arg database.FindNearestReservationParams) (database.Reservation, error)
	MarkReservationArrived(ctx context.Context, id uuid.UUID) (database.Reservation, error)
	UpdateReservationDeposit(ctx context.Context, arg database.UpdateReservationDepositParams) (database.Reservation, error)

	CreatePaymentAttempt(ctx context.Context, arg database.CreatePaymentAttemptParams) (database.DeliveryPaymentAttempt, error)
	GetPaymentAttemptForUpdate(ctx context.Context, id uuid.UUID) (database.DeliveryPaymentAttempt, error)
	UpdatePaymentAttemptStatus(ctx context.Context, arg database.UpdatePaymentAttemptStatusParams) (database.DeliveryPaymentAttempt, error)
	LinkPaymentAttemptOrder(ctx context.Context, arg database.LinkPaymentAttemptOrderParams) (database.DeliveryPaymentAttempt, error)
	CreateDeliveryOrder(ctx context.Context, arg database.CreateDeliveryOrderParams) (database.DeliveryOrder, error)
	RecordGatewayEvent(ctx context.Context, arg database.RecordGatewayEventParams) (int64, error)
}

// NewStore creates a Store from a DBTX (pool or tx).
type NewStore func(db database.DBTX) Store

// QueriesStore is the production NewStore.
func QueriesStore(db database.DBTX) Store {
	return database.New(db)
}

// Validation errors.
var (
	ErrInvalidSource        = errors.New("invalid order source")
	ErrInvalidPaymentMethod = errors.New("invalid payment_method")
	ErrGuestRequired        = errors.New("walk-in orders need a guest_name or user_id")
	ErrUserRequired         = errors.New("reservation orders need a user_id")
	ErrInvalidRequestType   = errors.New("invalid service request type")
	ErrInvalidKitchenStatus = errors.New("invalid kitchen_status")
	ErrDeliveryDetails      = errors.New("customer_name and delivery_address are required")
)

// Not-found errors.
var (
	ErrTableNotFound       = errors.New("table not found")
	ErrSessionNotFound     = errors.New("session not found")
	ErrOrderNotFound       = errors.New("order not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrRequestNotFound     = errors.New("service request not found")
	ErrRestaurantNotFound  = errors.New("restaurant not found")
)

// State-conflict errors.
var (
	ErrTableInactive     = errors.New("table is not active")
	ErrNoOpenSession     = errors.New("table has no open session")
	ErrSessionClosed     = errors.New("session is already closed")
	ErrOrderCancelled    = errors.New("order is cancelled")
	ErrOrderDelivered    = errors.New("order already delivered")
	ErrOrderPaid         = errors.New("card payment already settled, refund required")
	ErrOrderNotNew       = errors.New("order is not new")
	ErrPaymentRequired   = errors.New("order payment is not confirmed")
	ErrKitchenTransition = errors.New("kitchen status can only advance one step")
	ErrRequestHandled    = errors.New("service request already handled")
)

// ErrGatewayUnavailable means the payment gateway could not create an intent.
// Nothing was persisted; the caller should retry the whole submission.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable, try again")

func notFound(err, sentinel error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return sentinel
	}
	return err
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}

func optionalText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func optionalUUID(id uuid.NullUUID) pgtype.UUID {
	if !id.Valid {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: id.UUID, Valid: true}
}
