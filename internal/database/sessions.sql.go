package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const tableSessionColumns = `id, restaurant_id, table_id, reservation_id, status, currency, card_total, pay_at_venue_total, grand_total, last_order_at, opened_at, closed_at`

func scanTableSession(row rowScanner) (TableSession, error) {
	var i TableSession
	err := row.Scan(
		&i.ID,
		&i.RestaurantID,
		&i.TableID,
		&i.ReservationID,
		&i.Status,
		&i.Currency,
		&i.CardTotal,
		&i.PayAtVenueTotal,
		&i.GrandTotal,
		&i.LastOrderAt,
		&i.OpenedAt,
		&i.ClosedAt,
	)
	return i, err
}

const getOpenSessionByTable = `-- name: GetOpenSessionByTable :one
SELECT ` + tableSessionColumns + ` FROM table_sessions
WHERE restaurant_id = $1 AND table_id = $2 AND status = 'open'
`

type GetOpenSessionByTableParams struct {
	RestaurantID uuid.UUID `json:"restaurant_id"`
	TableID      uuid.UUID `json:"table_id"`
}

func (q *Queries) GetOpenSessionByTable(ctx context.Context, arg GetOpenSessionByTableParams) (TableSession, error) {
	row := q.db.QueryRow(ctx, getOpenSessionByTable, arg.RestaurantID, arg.TableID)
	return scanTableSession(row)
}

// CreateSession inserts a new open session. When another open session already
// exists for the table the partial unique index swallows the insert and the
// query returns pgx.ErrNoRows.
const createSession = `-- name: CreateSession :one
INSERT INTO table_sessions (restaurant_id, table_id, reservation_id, currency)
VALUES ($1, $2, $3, $4)
ON CONFLICT (restaurant_id, table_id) WHERE status = 'open' DO NOTHING
RETURNING ` + tableSessionColumns

type CreateSessionParams struct {
	RestaurantID  uuid.UUID   `json:"restaurant_id"`
	TableID       uuid.UUID   `json:"table_id"`
	ReservationID pgtype.UUID `json:"reservation_id"`
	Currency      string      `json:"currency"`
}

func (q *Queries) CreateSession(ctx context.Context, arg CreateSessionParams) (TableSession, error) {
	row := q.db.QueryRow(ctx, createSession,
		arg.RestaurantID,
		arg.TableID,
		arg.ReservationID,
		arg.Currency,
	)
	return scanTableSession(row)
}

const attachSessionReservation = `-- name: AttachSessionReservation :one
UPDATE table_sessions SET reservation_id = $2
WHERE id = $1 AND reservation_id IS NULL
RETURNING ` + tableSessionColumns

type AttachSessionReservationParams struct {
	ID            uuid.UUID `json:"id"`
	ReservationID uuid.UUID `json:"reservation_id"`
}

func (q *Queries) AttachSessionReservation(ctx context.Context, arg AttachSessionReservationParams) (TableSession, error) {
	row := q.db.QueryRow(ctx, attachSessionReservation, arg.ID, arg.ReservationID)
	return scanTableSession(row)
}

const getSession = `-- name: GetSession :one
SELECT ` + tableSessionColumns + ` FROM table_sessions
WHERE id = $1 AND restaurant_id = $2
`

type GetSessionParams struct {
	ID           uuid.UUID `json:"id"`
	RestaurantID uuid.UUID `json:"restaurant_id"`
}

func (q *Queries) GetSession(ctx context.Context, arg GetSessionParams) (TableSession, error) {
	row := q.db.QueryRow(ctx, getSession, arg.ID, arg.RestaurantID)
	return scanTableSession(row)
}

const getSessionForUpdate = `-- name: GetSessionForUpdate :one
SELECT ` + tableSessionColumns + ` FROM table_sessions
WHERE id = $1
FOR UPDATE
`

func (q *Queries) GetSessionForUpdate(ctx context.Context, id uuid.UUID) (TableSession, error) {
	row := q.db.QueryRow(ctx, getSessionForUpdate, id)
	return scanTableSession(row)
}

const updateSessionTotals = `-- name: UpdateSessionTotals :one
UPDATE table_sessions
SET card_total = $2,
    pay_at_venue_total = $3,
    grand_total = $4,
    last_order_at = $5
WHERE id = $1
RETURNING ` + tableSessionColumns

type UpdateSessionTotalsParams struct {
	ID              uuid.UUID          `json:"id"`
	CardTotal       pgtype.Numeric     `json:"card_total"`
	PayAtVenueTotal pgtype.Numeric     `json:"pay_at_venue_total"`
	GrandTotal      pgtype.Numeric     `json:"grand_total"`
	LastOrderAt     pgtype.Timestamptz `json:"last_order_at"`
}

func (q *Queries) UpdateSessionTotals(ctx context.Context, arg UpdateSessionTotalsParams) (TableSession, error) {
	row := q.db.QueryRow(ctx, updateSessionTotals,
		arg.ID,
		arg.CardTotal,
		arg.PayAtVenueTotal,
		arg.GrandTotal,
		arg.LastOrderAt,
	)
	return scanTableSession(row)
}

const closeSession = `-- name: CloseSession :one
UPDATE table_sessions SET status = 'closed', closed_at = now()
WHERE id = $1 AND status = 'open'
RETURNING ` + tableSessionColumns

func (q *Queries) CloseSession(ctx context.Context, id uuid.UUID) (TableSession, error) {
	row := q.db.QueryRow(ctx, closeSession, id)
	return scanTableSession(row)
}

const listOpenSessions = `-- name: ListOpenSessions :many
SELECT ` + tableSessionColumns + ` FROM table_sessions
WHERE restaurant_id = $1 AND status = 'open'
`

func (q *Queries) ListOpenSessions(ctx context.Context, restaurantID uuid.UUID) ([]TableSession, error) {
	rows, err := q.db.Query(ctx, listOpenSessions, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []TableSession{}
	for rows.Next() {
		i, err := scanTableSession(rows)
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
