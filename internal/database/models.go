package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type Restaurant struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Region    string    `json:"region"`
	CreatedAt time.Time `json:"created_at"`
}

type StaffUser struct {
	ID           uuid.UUID `json:"id"`
	RestaurantID uuid.UUID `json:"restaurant_id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	FullName     string    `json:"full_name"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

type DiningTable struct {
	ID           uuid.UUID `json:"id"`
	RestaurantID uuid.UUID `json:"restaurant_id"`
	Name         string    `json:"name"`
	Capacity     int32     `json:"capacity"`
	Floor        string    `json:"floor"`
	PositionX    int32     `json:"position_x"`
	PositionY    int32     `json:"position_y"`
	IsActive     bool      `json:"is_active"`
	CachedStatus string    `json:"cached_status"`
	CreatedAt    time.Time `json:"created_at"`
}

type Reservation struct {
	ID              uuid.UUID      `json:"id"`
	RestaurantID    uuid.UUID      `json:"restaurant_id"`
	TableID         pgtype.UUID    `json:"table_id"`
	UserID          pgtype.UUID    `json:"user_id"`
	GuestName       string         `json:"guest_name"`
	PartySize       int32          `json:"party_size"`
	ReservedFor     time.Time      `json:"reserved_for"`
	Status          string         `json:"status"`
	DepositAmount   pgtype.Numeric `json:"deposit_amount"`
	DepositCurrency string         `json:"deposit_currency"`
	DepositStatus   string         `json:"deposit_status"`
	DepositIntentID pgtype.Text    `json:"deposit_intent_id"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

type MenuItem struct {
	ID           uuid.UUID      `json:"id"`
	RestaurantID uuid.UUID      `json:"restaurant_id"`
	Title        string         `json:"title"`
	BasePrice    pgtype.Numeric `json:"base_price"`
	IsActive     bool           `json:"is_active"`
	IsAvailable  bool           `json:"is_available"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

type ModifierGroup struct {
	ID        uuid.UUID   `json:"id"`
	ItemID    uuid.UUID   `json:"item_id"`
	Name      string      `json:"name"`
	MinSelect int32       `json:"min_select"`
	MaxSelect pgtype.Int4 `json:"max_select"`
	IsActive  bool        `json:"is_active"`
	SortOrder int32       `json:"sort_order"`
}

type ModifierOption struct {
	ID         uuid.UUID      `json:"id"`
	GroupID    uuid.UUID      `json:"group_id"`
	Name       string         `json:"name"`
	PriceDelta pgtype.Numeric `json:"price_delta"`
	IsActive   bool           `json:"is_active"`
	SortOrder  int32          `json:"sort_order"`
}

type TableSession struct {
	ID              uuid.UUID          `json:"id"`
	RestaurantID    uuid.UUID          `json:"restaurant_id"`
	TableID         uuid.UUID          `json:"table_id"`
	ReservationID   pgtype.UUID        `json:"reservation_id"`
	Status          string             `json:"status"`
	Currency        string             `json:"currency"`
	CardTotal       pgtype.Numeric     `json:"card_total"`
	PayAtVenueTotal pgtype.Numeric     `json:"pay_at_venue_total"`
	GrandTotal      pgtype.Numeric     `json:"grand_total"`
	LastOrderAt     pgtype.Timestamptz `json:"last_order_at"`
	OpenedAt        time.Time          `json:"opened_at"`
	ClosedAt        pgtype.Timestamptz `json:"closed_at"`
}

type Order struct {
	ID              uuid.UUID      `json:"id"`
	RestaurantID    uuid.UUID      `json:"restaurant_id"`
	TableID         uuid.UUID      `json:"table_id"`
	SessionID       uuid.UUID      `json:"session_id"`
	Source          string         `json:"source"`
	UserID          pgtype.UUID    `json:"user_id"`
	GuestName       pgtype.Text    `json:"guest_name"`
	Notes           pgtype.Text    `json:"notes"`
	Items           []byte         `json:"items"`
	Currency        string         `json:"currency"`
	Total           pgtype.Numeric `json:"total"`
	PaymentMethod   string         `json:"payment_method"`
	PaymentStatus   string         `json:"payment_status"`
	Status          string         `json:"status"`
	KitchenStatus   string         `json:"kitchen_status"`
	PaymentIntentID pgtype.Text    `json:"payment_intent_id"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

type ServiceRequest struct {
	ID           uuid.UUID          `json:"id"`
	RestaurantID uuid.UUID          `json:"restaurant_id"`
	TableID      uuid.UUID          `json:"table_id"`
	SessionID    uuid.UUID          `json:"session_id"`
	Type         string             `json:"type"`
	Status       string             `json:"status"`
	Note         pgtype.Text        `json:"note"`
	CreatedAt    time.Time          `json:"created_at"`
	HandledAt    pgtype.Timestamptz `json:"handled_at"`
	HandledBy    pgtype.UUID        `json:"handled_by"`
}

type DeliveryPaymentAttempt struct {
	ID              uuid.UUID      `json:"id"`
	RestaurantID    uuid.UUID      `json:"restaurant_id"`
	UserID          pgtype.UUID    `json:"user_id"`
	CustomerName    string         `json:"customer_name"`
	DeliveryAddress string         `json:"delivery_address"`
	Items           []byte         `json:"items"`
	Currency        string         `json:"currency"`
	Total           pgtype.Numeric `json:"total"`
	Status          string         `json:"status"`
	PaymentIntentID pgtype.Text    `json:"payment_intent_id"`
	OrderID         pgtype.UUID    `json:"order_id"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

type DeliveryOrder struct {
	ID              uuid.UUID      `json:"id"`
	RestaurantID    uuid.UUID      `json:"restaurant_id"`
	AttemptID       uuid.UUID      `json:"attempt_id"`
	UserID          pgtype.UUID    `json:"user_id"`
	CustomerName    string         `json:"customer_name"`
	DeliveryAddress string         `json:"delivery_address"`
	Items           []byte         `json:"items"`
	Currency        string         `json:"currency"`
	Total           pgtype.Numeric `json:"total"`
	Status          string         `json:"status"`
	CreatedAt       time.Time      `json:"created_at"`
}
