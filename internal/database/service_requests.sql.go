package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const serviceRequestColumns = `id, restaurant_id, table_id, session_id, type, status, note, created_at, handled_at, handled_by`

func scanServiceRequest(row rowScanner) (ServiceRequest, error) {
	var i ServiceRequest
	err := row.Scan(
		&i.ID,
		&i.RestaurantID,
		&i.TableID,
		&i.SessionID,
		&i.Type,
		&i.Status,
		&i.Note,
		&i.CreatedAt,
		&i.HandledAt,
		&i.HandledBy,
	)
	return i, err
}

func collectServiceRequests(rows interface {
	rowScanner
	Next() bool
	Err() error
	Close()
}) ([]ServiceRequest, error) {
	defer rows.Close()
	items := []ServiceRequest{}
	for rows.Next() {
		i, err := scanServiceRequest(rows)
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

const createServiceRequest = `-- name: CreateServiceRequest :one
INSERT INTO service_requests (restaurant_id, table_id, session_id, type, note)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (session_id, type) WHERE status = 'open' DO NOTHING
RETURNING ` + serviceRequestColumns

type CreateServiceRequestParams struct {
	RestaurantID uuid.UUID   `json:"restaurant_id"`
	TableID      uuid.UUID   `json:"table_id"`
	SessionID    uuid.UUID   `json:"session_id"`
	Type         string      `json:"type"`
	Note         pgtype.Text `json:"note"`
}

func (q *Queries) CreateServiceRequest(ctx context.Context, arg CreateServiceRequestParams) (ServiceRequest, error) {
	row := q.db.QueryRow(ctx, createServiceRequest,
		arg.RestaurantID,
		arg.TableID,
		arg.SessionID,
		arg.Type,
		arg.Note,
	)
	return scanServiceRequest(row)
}

const getOpenServiceRequest = `-- name: GetOpenServiceRequest :one
SELECT ` + serviceRequestColumns + ` FROM service_requests
WHERE session_id = $1 AND type = $2 AND status = 'open'
ORDER BY created_at
LIMIT 1
`

type GetOpenServiceRequestParams struct {
	SessionID uuid.UUID `json:"session_id"`
	Type      string    `json:"type"`
}

func (q *Queries) GetOpenServiceRequest(ctx context.Context, arg GetOpenServiceRequestParams) (ServiceRequest, error) {
	row := q.db.QueryRow(ctx, getOpenServiceRequest, arg.SessionID, arg.Type)
	return scanServiceRequest(row)
}

const listOpenServiceRequests = `-- name: ListOpenServiceRequests :many
SELECT ` + serviceRequestColumns + ` FROM service_requests
WHERE restaurant_id = $1 AND status = 'open'
ORDER BY created_at
`

func (q *Queries) ListOpenServiceRequests(ctx context.Context, restaurantID uuid.UUID) ([]ServiceRequest, error) {
	rows, err := q.db.Query(ctx, listOpenServiceRequests, restaurantID)
	if err != nil {
		return nil, err
	}
	return collectServiceRequests(rows)
}

const listOpenServiceRequestsBySession = `-- name: ListOpenServiceRequestsBySession :many
SELECT ` + serviceRequestColumns + ` FROM service_requests
WHERE session_id = $1 AND status = 'open'
ORDER BY created_at
`

func (q *Queries) ListOpenServiceRequestsBySession(ctx context.Context, sessionID uuid.UUID) ([]ServiceRequest, error) {
	rows, err := q.db.Query(ctx, listOpenServiceRequestsBySession, sessionID)
	if err != nil {
		return nil, err
	}
	return collectServiceRequests(rows)
}

const handleServiceRequest = `-- name: HandleServiceRequest :one
UPDATE service_requests SET status = 'handled', handled_at = now(), handled_by = $3
WHERE id = $1 AND restaurant_id = $2 AND status = 'open'
RETURNING ` + serviceRequestColumns

type HandleServiceRequestParams struct {
	ID           uuid.UUID   `json:"id"`
	RestaurantID uuid.UUID   `json:"restaurant_id"`
	HandledBy    pgtype.UUID `json:"handled_by"`
}

func (q *Queries) HandleServiceRequest(ctx context.Context, arg HandleServiceRequestParams) (ServiceRequest, error) {
	row := q.db.QueryRow(ctx, handleServiceRequest, arg.ID, arg.RestaurantID, arg.HandledBy)
	return scanServiceRequest(row)
}

const getServiceRequest = `-- name: GetServiceRequest :one
SELECT ` + serviceRequestColumns + ` FROM service_requests
WHERE id = $1 AND restaurant_id = $2
`

type GetServiceRequestParams struct {
	ID           uuid.UUID `json:"id"`
	RestaurantID uuid.UUID `json:"restaurant_id"`
}

func (q *Queries) GetServiceRequest(ctx context.Context, arg GetServiceRequestParams) (ServiceRequest, error) {
	row := q.db.QueryRow(ctx, getServiceRequest, arg.ID, arg.RestaurantID)
	return scanServiceRequest(row)
}

const handleServiceRequestsByType = `-- name: HandleServiceRequestsByType :execrows
UPDATE service_requests SET status = 'handled', handled_at = now()
WHERE session_id = $1 AND type = $2 AND status = 'open'
`

type HandleServiceRequestsByTypeParams struct {
	SessionID uuid.UUID `json:"session_id"`
	Type      string    `json:"type"`
}

func (q *Queries) HandleServiceRequestsByType(ctx context.Context, arg HandleServiceRequestsByTypeParams) (int64, error) {
	result, err := q.db.Exec(ctx, handleServiceRequestsByType, arg.SessionID, arg.Type)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const handleServiceRequestsBySession = `-- name: HandleServiceRequestsBySession :execrows
UPDATE service_requests SET status = 'handled', handled_at = now()
WHERE session_id = $1 AND status = 'open'
`

func (q *Queries) HandleServiceRequestsBySession(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	result, err := q.db.Exec(ctx, handleServiceRequestsBySession, sessionID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
