package database

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const reservationColumns = `id, restaurant_id, table_id, user_id, guest_name, party_size, reserved_for, status, deposit_amount, deposit_currency, deposit_status, deposit_intent_id, created_at, updated_at`

func scanReservation(row rowScanner) (Reservation, error) {
	var i Reservation
	err := row.Scan(
		&i.ID,
		&i.RestaurantID,
		&i.TableID,
		&i.UserID,
		&i.GuestName,
		&i.PartySize,
		&i.ReservedFor,
		&i.Status,
		&i.DepositAmount,
		&i.DepositCurrency,
		&i.DepositStatus,
		&i.DepositIntentID,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getReservation = `-- name: GetReservation :one
SELECT ` + reservationColumns + ` FROM reservations
WHERE id = $1 AND restaurant_id = $2
`

type GetReservationParams struct {
	ID           uuid.UUID `json:"id"`
	RestaurantID uuid.UUID `json:"restaurant_id"`
}

func (q *Queries) GetReservation(ctx context.Context, arg GetReservationParams) (Reservation, error) {
	row := q.db.QueryRow(ctx, getReservation, arg.ID, arg.RestaurantID)
	return scanReservation(row)
}

const getReservationForUpdate = `-- name: GetReservationForUpdate :one
SELECT ` + reservationColumns + ` FROM reservations
WHERE id = $1
FOR NO KEY UPDATE
`

func (q *Queries) GetReservationForUpdate(ctx context.Context, id uuid.UUID) (Reservation, error) {
	row := q.db.QueryRow(ctx, getReservationForUpdate, id)
	return scanReservation(row)
}

const findNearestReservation = `-- name: FindNearestReservation :one
SELECT ` + reservationColumns + ` FROM reservations
WHERE restaurant_id = $1
  AND user_id = $2
  AND status IN ('pending', 'confirmed', 'arrived')
  AND reserved_for BETWEEN $4 AND $5
ORDER BY abs(extract(epoch FROM reserved_for - $3::timestamptz))
LIMIT 1
`

type FindNearestReservationParams struct {
	RestaurantID uuid.UUID `json:"restaurant_id"`
	UserID       uuid.UUID `json:"user_id"`
	At           time.Time `json:"at"`
	WindowStart  time.Time `json:"window_start"`
	WindowEnd    time.Time `json:"window_end"`
}

func (q *Queries) FindNearestReservation(ctx context.Context, arg FindNearestReservationParams) (Reservation, error) {
	row := q.db.QueryRow(ctx, findNearestReservation,
		arg.RestaurantID,
		arg.UserID,
		arg.At,
		arg.WindowStart,
		arg.WindowEnd,
	)
	return scanReservation(row)
}

const markReservationArrived = `-- name: MarkReservationArrived :one
UPDATE reservations SET status = 'arrived', updated_at = now()
WHERE id = $1 AND status IN ('pending', 'confirmed')
RETURNING ` + reservationColumns

func (q *Queries) MarkReservationArrived(ctx context.Context, id uuid.UUID) (Reservation, error) {
	row := q.db.QueryRow(ctx, markReservationArrived, id)
	return scanReservation(row)
}

const updateReservationDeposit = `-- name: UpdateReservationDeposit :one
UPDATE reservations SET deposit_status = $2, status = $3, updated_at = now()
WHERE id = $1
RETURNING ` + reservationColumns

type UpdateReservationDepositParams struct {
	ID            uuid.UUID `json:"id"`
	DepositStatus string    `json:"deposit_status"`
	Status        string    `json:"status"`
}

func (q *Queries) UpdateReservationDeposit(ctx context.Context, arg UpdateReservationDepositParams) (Reservation, error) {
	row := q.db.QueryRow(ctx, updateReservationDeposit, arg.ID, arg.DepositStatus, arg.Status)
	return scanReservation(row)
}
