package database

import (
	"context"

	"github.com/google/uuid"
)

const getRestaurant = `-- name: GetRestaurant :one
SELECT id, name, region, created_at FROM restaurants
WHERE id = $1
`

func (q *Queries) GetRestaurant(ctx context.Context, id uuid.UUID) (Restaurant, error) {
	row := q.db.QueryRow(ctx, getRestaurant, id)
	var i Restaurant
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Region,
		&i.CreatedAt,
	)
	return i, err
}

const createRestaurant = `-- name: CreateRestaurant :one
INSERT INTO restaurants (name, region)
VALUES ($1, $2)
RETURNING id, name, region, created_at
`

type CreateRestaurantParams struct {
	Name   string `json:"name"`
	Region string `json:"region"`
}

func (q *Queries) CreateRestaurant(ctx context.Context, arg CreateRestaurantParams) (Restaurant, error) {
	row := q.db.QueryRow(ctx, createRestaurant, arg.Name, arg.Region)
	var i Restaurant
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Region,
		&i.CreatedAt,
	)
	return i, err
}

const getStaffUserByEmail = `-- name: GetStaffUserByEmail :one
SELECT id, restaurant_id, email, password_hash, full_name, role, is_active, created_at FROM staff_users
WHERE email = $1 AND is_active = true
`

func (q *Queries) GetStaffUserByEmail(ctx context.Context, email string) (StaffUser, error) {
	row := q.db.QueryRow(ctx, getStaffUserByEmail, email)
	var i StaffUser
	err := row.Scan(
		&i.ID,
		&i.RestaurantID,
		&i.Email,
		&i.PasswordHash,
		&i.FullName,
		&i.Role,
		&i.IsActive,
		&i.CreatedAt,
	)
	return i, err
}

const createStaffUser = `-- name: CreateStaffUser :one
INSERT INTO staff_users (restaurant_id, email, password_hash, full_name, role)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (email) DO UPDATE SET password_hash = EXCLUDED.password_hash
RETURNING id, restaurant_id, email, password_hash, full_name, role, is_active, created_at
`

type CreateStaffUserParams struct {
	RestaurantID uuid.UUID `json:"restaurant_id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	FullName     string    `json:"full_name"`
	Role         string    `json:"role"`
}

func (q *Queries) CreateStaffUser(ctx context.Context, arg CreateStaffUserParams) (StaffUser, error) {
	row := q.db.QueryRow(ctx, createStaffUser,
		arg.RestaurantID,
		arg.Email,
		arg.PasswordHash,
		arg.FullName,
		arg.Role,
	)
	var i StaffUser
	err := row.Scan(
		&i.ID,
		&i.RestaurantID,
		&i.Email,
		&i.PasswordHash,
		&i.FullName,
		&i.Role,
		&i.IsActive,
		&i.CreatedAt,
	)
	return i, err
}

const getStaffUserByID = `-- name: GetStaffUserByID :one
SELECT id, restaurant_id, email, password_hash, full_name, role, is_active, created_at FROM staff_users
WHERE id = $1 AND is_active = true
`

func (q *Queries) GetStaffUserByID(ctx context.Context, id uuid.UUID) (StaffUser, error) {
	row := q.db.QueryRow(ctx, getStaffUserByID, id)
	var i StaffUser
	err := row.Scan(
		&i.ID,
		&i.RestaurantID,
		&i.Email,
		&i.PasswordHash,
		&i.FullName,
		&i.Role,
		&i.IsActive,
		&i.CreatedAt,
	)
	return i, err
}
