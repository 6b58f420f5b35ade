package database

import (
	"context"

	"github.com/google/uuid"
)

const diningTableColumns = `id, restaurant_id, name, capacity, floor, position_x, position_y, is_active, cached_status, created_at`

func scanDiningTable(row rowScanner) (DiningTable, error) {
	var i DiningTable
	err := row.Scan(
		&i.ID,
		&i.RestaurantID,
		&i.Name,
		&i.Capacity,
		&i.Floor,
		&i.PositionX,
		&i.PositionY,
		&i.IsActive,
		&i.CachedStatus,
		&i.CreatedAt,
	)
	return i, err
}

const getTable = `-- name: GetTable :one
SELECT ` + diningTableColumns + ` FROM dining_tables
WHERE id = $1 AND restaurant_id = $2
`

type GetTableParams struct {
	ID           uuid.UUID `json:"id"`
	RestaurantID uuid.UUID `json:"restaurant_id"`
}

func (q *Queries) GetTable(ctx context.Context, arg GetTableParams) (DiningTable, error) {
	row := q.db.QueryRow(ctx, getTable, arg.ID, arg.RestaurantID)
	return scanDiningTable(row)
}

const listTables = `-- name: ListTables :many
SELECT ` + diningTableColumns + ` FROM dining_tables
WHERE restaurant_id = $1 AND is_active = true
ORDER BY floor, name
`

func (q *Queries) ListTables(ctx context.Context, restaurantID uuid.UUID) ([]DiningTable, error) {
	rows, err := q.db.Query(ctx, listTables, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []DiningTable{}
	for rows.Next() {
		i, err := scanDiningTable(rows)
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

const createTable = `-- name: CreateTable :one
INSERT INTO dining_tables (restaurant_id, name, capacity, floor)
VALUES ($1, $2, $3, $4)
RETURNING ` + diningTableColumns

type CreateTableParams struct {
	RestaurantID uuid.UUID `json:"restaurant_id"`
	Name         string    `json:"name"`
	Capacity     int32     `json:"capacity"`
	Floor        string    `json:"floor"`
}

func (q *Queries) CreateTable(ctx context.Context, arg CreateTableParams) (DiningTable, error) {
	row := q.db.QueryRow(ctx, createTable, arg.RestaurantID, arg.Name, arg.Capacity, arg.Floor)
	return scanDiningTable(row)
}

const updateTableCachedStatus = `-- name: UpdateTableCachedStatus :exec
UPDATE dining_tables SET cached_status = $2
WHERE id = $1
`

type UpdateTableCachedStatusParams struct {
	ID           uuid.UUID `json:"id"`
	CachedStatus string    `json:"cached_status"`
}

func (q *Queries) UpdateTableCachedStatus(ctx context.Context, arg UpdateTableCachedStatusParams) error {
	_, err := q.db.Exec(ctx, updateTableCachedStatus, arg.ID, arg.CachedStatus)
	return err
}
