package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const paymentAttemptColumns = `id, restaurant_id, user_id, customer_name, delivery_address, items, currency, total, status, payment_intent_id, order_id, created_at, updated_at`

func scanPaymentAttempt(row rowScanner) (DeliveryPaymentAttempt, error) {
	var i DeliveryPaymentAttempt
	err := row.Scan(
		&i.ID,
		&i.RestaurantID,
		&i.UserID,
		&i.CustomerName,
		&i.DeliveryAddress,
		&i.Items,
		&i.Currency,
		&i.Total,
		&i.Status,
		&i.PaymentIntentID,
		&i.OrderID,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createPaymentAttempt = `-- name: CreatePaymentAttempt :one
INSERT INTO delivery_payment_attempts (
    id, restaurant_id, user_id, customer_name, delivery_address, items, currency, total, payment_intent_id
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + paymentAttemptColumns

type CreatePaymentAttemptParams struct {
	ID              uuid.UUID      `json:"id"`
	RestaurantID    uuid.UUID      `json:"restaurant_id"`
	UserID          pgtype.UUID    `json:"user_id"`
	CustomerName    string         `json:"customer_name"`
	DeliveryAddress string         `json:"delivery_address"`
	Items           []byte         `json:"items"`
	Currency        string         `json:"currency"`
	Total           pgtype.Numeric `json:"total"`
	PaymentIntentID pgtype.Text    `json:"payment_intent_id"`
}

func (q *Queries) CreatePaymentAttempt(ctx context.Context, arg CreatePaymentAttemptParams) (DeliveryPaymentAttempt, error) {
	row := q.db.QueryRow(ctx, createPaymentAttempt,
		arg.ID,
		arg.RestaurantID,
		arg.UserID,
		arg.CustomerName,
		arg.DeliveryAddress,
		arg.Items,
		arg.Currency,
		arg.Total,
		arg.PaymentIntentID,
	)
	return scanPaymentAttempt(row)
}

const getPaymentAttemptForUpdate = `-- name: GetPaymentAttemptForUpdate :one
SELECT ` + paymentAttemptColumns + ` FROM delivery_payment_attempts
WHERE id = $1
FOR NO KEY UPDATE
`

func (q *Queries) GetPaymentAttemptForUpdate(ctx context.Context, id uuid.UUID) (DeliveryPaymentAttempt, error) {
	row := q.db.QueryRow(ctx, getPaymentAttemptForUpdate, id)
	return scanPaymentAttempt(row)
}

const updatePaymentAttemptStatus = `-- name: UpdatePaymentAttemptStatus :one
UPDATE delivery_payment_attempts SET status = $2, updated_at = now()
WHERE id = $1
RETURNING ` + paymentAttemptColumns

type UpdatePaymentAttemptStatusParams struct {
	ID     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

func (q *Queries) UpdatePaymentAttemptStatus(ctx context.Context, arg UpdatePaymentAttemptStatusParams) (DeliveryPaymentAttempt, error) {
	row := q.db.QueryRow(ctx, updatePaymentAttemptStatus, arg.ID, arg.Status)
	return scanPaymentAttempt(row)
}

const linkPaymentAttemptOrder = `-- name: LinkPaymentAttemptOrder :one
UPDATE delivery_payment_attempts SET order_id = $2, status = 'paid', updated_at = now()
WHERE id = $1 AND order_id IS NULL
RETURNING ` + paymentAttemptColumns

type LinkPaymentAttemptOrderParams struct {
	ID      uuid.UUID `json:"id"`
	OrderID uuid.UUID `json:"order_id"`
}

func (q *Queries) LinkPaymentAttemptOrder(ctx context.Context, arg LinkPaymentAttemptOrderParams) (DeliveryPaymentAttempt, error) {
	row := q.db.QueryRow(ctx, linkPaymentAttemptOrder, arg.ID, arg.OrderID)
	return scanPaymentAttempt(row)
}

const createDeliveryOrder = `-- name: CreateDeliveryOrder :one
INSERT INTO delivery_orders (
    restaurant_id, attempt_id, user_id, customer_name, delivery_address, items, currency, total
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, restaurant_id, attempt_id, user_id, customer_name, delivery_address, items, currency, total, status, created_at
`

type CreateDeliveryOrderParams struct {
	RestaurantID    uuid.UUID      `json:"restaurant_id"`
	AttemptID       uuid.UUID      `json:"attempt_id"`
	UserID          pgtype.UUID    `json:"user_id"`
	CustomerName    string         `json:"customer_name"`
	DeliveryAddress string         `json:"delivery_address"`
	Items           []byte         `json:"items"`
	Currency        string         `json:"currency"`
	Total           pgtype.Numeric `json:"total"`
}

func (q *Queries) CreateDeliveryOrder(ctx context.Context, arg CreateDeliveryOrderParams) (DeliveryOrder, error) {
	row := q.db.QueryRow(ctx, createDeliveryOrder,
		arg.RestaurantID,
		arg.AttemptID,
		arg.UserID,
		arg.CustomerName,
		arg.DeliveryAddress,
		arg.Items,
		arg.Currency,
		arg.Total,
	)
	var i DeliveryOrder
	err := row.Scan(
		&i.ID,
		&i.RestaurantID,
		&i.AttemptID,
		&i.UserID,
		&i.CustomerName,
		&i.DeliveryAddress,
		&i.Items,
		&i.Currency,
		&i.Total,
		&i.Status,
		&i.CreatedAt,
	)
	return i, err
}

const recordGatewayEvent = `-- name: RecordGatewayEvent :execrows
INSERT INTO gateway_events (event_id, intent_id, kind)
VALUES ($1, $2, $3)
ON CONFLICT (event_id) DO NOTHING
`

type RecordGatewayEventParams struct {
	EventID  string `json:"event_id"`
	IntentID string `json:"intent_id"`
	Kind     string `json:"kind"`
}

// RecordGatewayEvent returns 0 when the event id was already recorded.
func (q *Queries) RecordGatewayEvent(ctx context.Context, arg RecordGatewayEventParams) (int64, error) {
	result, err := q.db.Exec(ctx, recordGatewayEvent, arg.EventID, arg.IntentID, arg.Kind)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
