package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const listMenuItems = `-- name: ListMenuItems :many
SELECT id, restaurant_id, title, base_price, is_active, is_available, updated_at FROM menu_items
WHERE restaurant_id = $1
`

func (q *Queries) ListMenuItems(ctx context.Context, restaurantID uuid.UUID) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, listMenuItems, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []MenuItem{}
	for rows.Next() {
		var i MenuItem
		if err := rows.Scan(
			&i.ID,
			&i.RestaurantID,
			&i.Title,
			&i.BasePrice,
			&i.IsActive,
			&i.IsAvailable,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listModifierGroupsByRestaurant = `-- name: ListModifierGroupsByRestaurant :many
SELECT g.id, g.item_id, g.name, g.min_select, g.max_select, g.is_active, g.sort_order
FROM modifier_groups g
JOIN menu_items mi ON mi.id = g.item_id
WHERE mi.restaurant_id = $1
ORDER BY g.item_id, g.sort_order
`

func (q *Queries) ListModifierGroupsByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]ModifierGroup, error) {
	rows, err := q.db.Query(ctx, listModifierGroupsByRestaurant, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ModifierGroup{}
	for rows.Next() {
		var i ModifierGroup
		if err := rows.Scan(
			&i.ID,
			&i.ItemID,
			&i.Name,
			&i.MinSelect,
			&i.MaxSelect,
			&i.IsActive,
			&i.SortOrder,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listModifierOptionsByRestaurant = `-- name: ListModifierOptionsByRestaurant :many
SELECT o.id, o.group_id, o.name, o.price_delta, o.is_active, o.sort_order
FROM modifier_options o
JOIN modifier_groups g ON g.id = o.group_id
JOIN menu_items mi ON mi.id = g.item_id
WHERE mi.restaurant_id = $1
ORDER BY o.group_id, o.sort_order
`

func (q *Queries) ListModifierOptionsByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]ModifierOption, error) {
	rows, err := q.db.Query(ctx, listModifierOptionsByRestaurant, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ModifierOption{}
	for rows.Next() {
		var i ModifierOption
		if err := rows.Scan(
			&i.ID,
			&i.GroupID,
			&i.Name,
			&i.PriceDelta,
			&i.IsActive,
			&i.SortOrder,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createMenuItem = `-- name: CreateMenuItem :one
INSERT INTO menu_items (restaurant_id, title, base_price)
VALUES ($1, $2, $3)
RETURNING id, restaurant_id, title, base_price, is_active, is_available, updated_at
`

type CreateMenuItemParams struct {
	RestaurantID uuid.UUID      `json:"restaurant_id"`
	Title        string         `json:"title"`
	BasePrice    pgtype.Numeric `json:"base_price"`
}

func (q *Queries) CreateMenuItem(ctx context.Context, arg CreateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, createMenuItem, arg.RestaurantID, arg.Title, arg.BasePrice)
	var i MenuItem
	err := row.Scan(
		&i.ID,
		&i.RestaurantID,
		&i.Title,
		&i.BasePrice,
		&i.IsActive,
		&i.IsAvailable,
		&i.UpdatedAt,
	)
	return i, err
}

const createModifierGroup = `-- name: CreateModifierGroup :one
INSERT INTO modifier_groups (item_id, name, min_select, max_select, sort_order)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, item_id, name, min_select, max_select, is_active, sort_order
`

type CreateModifierGroupParams struct {
	ItemID    uuid.UUID   `json:"item_id"`
	Name      string      `json:"name"`
	MinSelect int32       `json:"min_select"`
	MaxSelect pgtype.Int4 `json:"max_select"`
	SortOrder int32       `json:"sort_order"`
}

func (q *Queries) CreateModifierGroup(ctx context.Context, arg CreateModifierGroupParams) (ModifierGroup, error) {
	row := q.db.QueryRow(ctx, createModifierGroup,
		arg.ItemID,
		arg.Name,
		arg.MinSelect,
		arg.MaxSelect,
		arg.SortOrder,
	)
	var i ModifierGroup
	err := row.Scan(
		&i.ID,
		&i.ItemID,
		&i.Name,
		&i.MinSelect,
		&i.MaxSelect,
		&i.IsActive,
		&i.SortOrder,
	)
	return i, err
}

const createModifierOption = `-- name: CreateModifierOption :one
INSERT INTO modifier_options (group_id, name, price_delta, sort_order)
VALUES ($1, $2, $3, $4)
RETURNING id, group_id, name, price_delta, is_active, sort_order
`

type CreateModifierOptionParams struct {
	GroupID    uuid.UUID      `json:"group_id"`
	Name       string         `json:"name"`
	PriceDelta pgtype.Numeric `json:"price_delta"`
	SortOrder  int32          `json:"sort_order"`
}

func (q *Queries) CreateModifierOption(ctx context.Context, arg CreateModifierOptionParams) (ModifierOption, error) {
	row := q.db.QueryRow(ctx, createModifierOption,
		arg.GroupID,
		arg.Name,
		arg.PriceDelta,
		arg.SortOrder,
	)
	var i ModifierOption
	err := row.Scan(
		&i.ID,
		&i.GroupID,
		&i.Name,
		&i.PriceDelta,
		&i.IsActive,
		&i.SortOrder,
	)
	return i, err
}
