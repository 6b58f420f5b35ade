package service

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/tableside/api/internal/catalog"
	"github.com/tableside/api/internal/database"
)

// Totals are a session's running totals.
type Totals struct {
	Card       decimal.Decimal `json:"card_total"`
	PayAtVenue decimal.Decimal `json:"pay_at_venue_total"`
	Grand      decimal.Decimal `json:"grand_total"`
}

type SessionView struct {
	ID            uuid.UUID  `json:"id"`
	RestaurantID  uuid.UUID  `json:"restaurant_id"`
	TableID       uuid.UUID  `json:"table_id"`
	ReservationID *uuid.UUID `json:"reservation_id,omitempty"`
	Status        string     `json:"status"`
	Currency      string     `json:"currency"`
	Totals        Totals     `json:"totals"`
	LastOrderAt   *time.Time `json:"last_order_at,omitempty"`
	OpenedAt      time.Time  `json:"opened_at"`
	ClosedAt      *time.Time `json:"closed_at,omitempty"`
}

func newSessionView(s database.TableSession) SessionView {
	return SessionView{
		ID:            s.ID,
		RestaurantID:  s.RestaurantID,
		TableID:       s.TableID,
		ReservationID: uuidPtr(s.ReservationID),
		Status:        s.Status,
		Currency:      s.Currency,
		Totals:        sessionTotals(s),
		LastOrderAt:   timePtr(s.LastOrderAt),
		OpenedAt:      s.OpenedAt,
		ClosedAt:      timePtr(s.ClosedAt),
	}
}

func sessionTotals(s database.TableSession) Totals {
	return Totals{
		Card:       numericToDecimal(s.CardTotal),
		PayAtVenue: numericToDecimal(s.PayAtVenueTotal),
		Grand:      numericToDecimal(s.GrandTotal),
	}
}

type OrderView struct {
	ID              uuid.UUID          `json:"id"`
	RestaurantID    uuid.UUID          `json:"restaurant_id"`
	TableID         uuid.UUID          `json:"table_id"`
	SessionID       uuid.UUID          `json:"session_id"`
	Source          string             `json:"source"`
	UserID          *uuid.UUID         `json:"user_id,omitempty"`
	GuestName       string             `json:"guest_name,omitempty"`
	Notes           string             `json:"notes,omitempty"`
	Items           []catalog.LineItem `json:"items"`
	Currency        string             `json:"currency"`
	Total           decimal.Decimal    `json:"total"`
	PaymentMethod   string             `json:"payment_method"`
	PaymentStatus   string             `json:"payment_status"`
	Status          string             `json:"status"`
	KitchenStatus   string             `json:"kitchen_status"`
	PaymentIntentID string             `json:"payment_intent_id,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

func newOrderView(o database.Order) OrderView {
	var items []catalog.LineItem
	if err := json.Unmarshal(o.Items, &items); err != nil {
		log.Error().Err(err).Str("order_id", o.ID.String()).Msg("decode order snapshot")
	}
	return OrderView{
		ID:              o.ID,
		RestaurantID:    o.RestaurantID,
		TableID:         o.TableID,
		SessionID:       o.SessionID,
		Source:          o.Source,
		UserID:          uuidPtr(o.UserID),
		GuestName:       o.GuestName.String,
		Notes:           o.Notes.String,
		Items:           items,
		Currency:        o.Currency,
		Total:           numericToDecimal(o.Total),
		PaymentMethod:   o.PaymentMethod,
		PaymentStatus:   o.PaymentStatus,
		Status:          o.Status,
		KitchenStatus:   o.KitchenStatus,
		PaymentIntentID: o.PaymentIntentID.String,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

type ServiceRequestView struct {
	ID           uuid.UUID  `json:"id"`
	RestaurantID uuid.UUID  `json:"restaurant_id"`
	TableID      uuid.UUID  `json:"table_id"`
	SessionID    uuid.UUID  `json:"session_id"`
	Type         string     `json:"type"`
	Status       string     `json:"status"`
	Note         string     `json:"note,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	HandledAt    *time.Time `json:"handled_at,omitempty"`
	HandledBy    *uuid.UUID `json:"handled_by,omitempty"`
}

func newServiceRequestView(r database.ServiceRequest) ServiceRequestView {
	return ServiceRequestView{
		ID:           r.ID,
		RestaurantID: r.RestaurantID,
		TableID:      r.TableID,
		SessionID:    r.SessionID,
		Type:         r.Type,
		Status:       r.Status,
		Note:         r.Note.String,
		CreatedAt:    r.CreatedAt,
		HandledAt:    timePtr(r.HandledAt),
		HandledBy:    uuidPtr(r.HandledBy),
	}
}

func uuidPtr(id pgtype.UUID) *uuid.UUID {
	if !id.Valid {
		return nil
	}
	u := uuid.UUID(id.Bytes)
	return &u
}

func timePtr(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
