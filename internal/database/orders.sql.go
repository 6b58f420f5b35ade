package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, restaurant_id, table_id, session_id, source, user_id, guest_name, notes, items, currency, total, payment_method, payment_status, status, kitchen_status, payment_intent_id, created_at, updated_at`

func scanOrder(row rowScanner) (Order, error) {
	var i Order
	err := row.Scan(
		&i.ID,
		&i.RestaurantID,
		&i.TableID,
		&i.SessionID,
		&i.Source,
		&i.UserID,
		&i.GuestName,
		&i.Notes,
		&i.Items,
		&i.Currency,
		&i.Total,
		&i.PaymentMethod,
		&i.PaymentStatus,
		&i.Status,
		&i.KitchenStatus,
		&i.PaymentIntentID,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createOrder = `-- name: CreateOrder :one
INSERT INTO orders (
    id, restaurant_id, table_id, session_id, source, user_id, guest_name, notes,
    items, currency, total, payment_method, payment_status
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
RETURNING ` + orderColumns

type CreateOrderParams struct {
	ID            uuid.UUID      `json:"id"`
	RestaurantID  uuid.UUID      `json:"restaurant_id"`
	TableID       uuid.UUID      `json:"table_id"`
	SessionID     uuid.UUID      `json:"session_id"`
	Source        string         `json:"source"`
	UserID        pgtype.UUID    `json:"user_id"`
	GuestName     pgtype.Text    `json:"guest_name"`
	Notes         pgtype.Text    `json:"notes"`
	Items         []byte         `json:"items"`
	Currency      string         `json:"currency"`
	Total         pgtype.Numeric `json:"total"`
	PaymentMethod string         `json:"payment_method"`
	PaymentStatus string         `json:"payment_status"`
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder,
		arg.ID,
		arg.RestaurantID,
		arg.TableID,
		arg.SessionID,
		arg.Source,
		arg.UserID,
		arg.GuestName,
		arg.Notes,
		arg.Items,
		arg.Currency,
		arg.Total,
		arg.PaymentMethod,
		arg.PaymentStatus,
	)
	return scanOrder(row)
}

const getOrder = `-- name: GetOrder :one
SELECT ` + orderColumns + ` FROM orders
WHERE id = $1 AND restaurant_id = $2
`

type GetOrderParams struct {
	ID           uuid.UUID `json:"id"`
	RestaurantID uuid.UUID `json:"restaurant_id"`
}

func (q *Queries) GetOrder(ctx context.Context, arg GetOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, getOrder, arg.ID, arg.RestaurantID)
	return scanOrder(row)
}

const getOrderForUpdate = `-- name: GetOrderForUpdate :one
SELECT ` + orderColumns + ` FROM orders
WHERE id = $1
FOR NO KEY UPDATE
`

func (q *Queries) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, getOrderForUpdate, id)
	return scanOrder(row)
}

const listOrdersBySession = `-- name: ListOrdersBySession :many
SELECT ` + orderColumns + ` FROM orders
WHERE session_id = $1
ORDER BY created_at
`

func (q *Queries) ListOrdersBySession(ctx context.Context, sessionID uuid.UUID) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrdersBySession, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Order{}
	for rows.Next() {
		i, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateOrderStatus = `-- name: UpdateOrderStatus :one
UPDATE orders SET status = $2, updated_at = now()
WHERE id = $1
RETURNING ` + orderColumns

type UpdateOrderStatusParams struct {
	ID     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrderStatus, arg.ID, arg.Status)
	return scanOrder(row)
}

const updateOrderKitchenStatus = `-- name: UpdateOrderKitchenStatus :one
UPDATE orders SET kitchen_status = $2, status = $3, updated_at = now()
WHERE id = $1
RETURNING ` + orderColumns

type UpdateOrderKitchenStatusParams struct {
	ID            uuid.UUID `json:"id"`
	KitchenStatus string    `json:"kitchen_status"`
	Status        string    `json:"status"`
}

func (q *Queries) UpdateOrderKitchenStatus(ctx context.Context, arg UpdateOrderKitchenStatusParams) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrderKitchenStatus, arg.ID, arg.KitchenStatus, arg.Status)
	return scanOrder(row)
}

const updateOrderPaymentStatus = `-- name: UpdateOrderPaymentStatus :one
UPDATE orders SET payment_status = $2, updated_at = now()
WHERE id = $1
RETURNING ` + orderColumns

type UpdateOrderPaymentStatusParams struct {
	ID            uuid.UUID `json:"id"`
	PaymentStatus string    `json:"payment_status"`
}

func (q *Queries) UpdateOrderPaymentStatus(ctx context.Context, arg UpdateOrderPaymentStatusParams) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrderPaymentStatus, arg.ID, arg.PaymentStatus)
	return scanOrder(row)
}

const setOrderPaymentIntent = `-- name: SetOrderPaymentIntent :one
UPDATE orders SET payment_intent_id = $2, updated_at = now()
WHERE id = $1
RETURNING ` + orderColumns

type SetOrderPaymentIntentParams struct {
	ID              uuid.UUID `json:"id"`
	PaymentIntentID string    `json:"payment_intent_id"`
}

func (q *Queries) SetOrderPaymentIntent(ctx context.Context, arg SetOrderPaymentIntentParams) (Order, error) {
	row := q.db.QueryRow(ctx, setOrderPaymentIntent, arg.ID, arg.PaymentIntentID)
	return scanOrder(row)
}

const deliverOpenOrdersBySession = `-- name: DeliverOpenOrdersBySession :execrows
UPDATE orders SET kitchen_status = 'delivered', updated_at = now()
WHERE session_id = $1 AND status <> 'cancelled' AND kitchen_status <> 'delivered'
  AND payment_status IN ('paid', 'not_required')
`

func (q *Queries) DeliverOpenOrdersBySession(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	result, err := q.db.Exec(ctx, deliverOpenOrdersBySession, sessionID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const cancelUnpaidOrdersBySession = `-- name: CancelUnpaidOrdersBySession :many
UPDATE orders SET status = 'cancelled', updated_at = now()
WHERE session_id = $1 AND status <> 'cancelled' AND payment_status IN ('pending', 'failed')
RETURNING ` + orderColumns

func (q *Queries) CancelUnpaidOrdersBySession(ctx context.Context, sessionID uuid.UUID) ([]Order, error) {
	rows, err := q.db.Query(ctx, cancelUnpaidOrdersBySession, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Order{}
	for rows.Next() {
		i, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getOrderSessionID = `-- name: GetOrderSessionID :one
SELECT session_id FROM orders WHERE id = $1
`

func (q *Queries) GetOrderSessionID(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, getOrderSessionID, id)
	var sessionID uuid.UUID
	err := row.Scan(&sessionID)
	return sessionID, err
}

const countReadyOrdersBySession = `-- name: CountReadyOrdersBySession :one
SELECT count(*) FROM orders
WHERE session_id = $1 AND status <> 'cancelled' AND kitchen_status = 'ready'
`

func (q *Queries) CountReadyOrdersBySession(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	row := q.db.QueryRow(ctx, countReadyOrdersBySession, sessionID)
	var count int64
	err := row.Scan(&count)
	return count, err
}
