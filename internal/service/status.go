package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tableside/api/internal/database"
	"github.com/tableside/api/internal/tablestatus"
)

// TableStatus is the dashboard view of one table. It is derived on every read.
type TableStatus struct {
	TableID                 uuid.UUID          `json:"table_id"`
	Name                    string             `json:"name"`
	Floor                   string             `json:"floor,omitempty"`
	Capacity                int32              `json:"capacity"`
	IsActive                bool               `json:"is_active"`
	Status                  tablestatus.Status `json:"status"`
	HasActiveSession        bool               `json:"has_active_session"`
	SessionID               *uuid.UUID         `json:"session_id,omitempty"`
	Currency                string             `json:"currency,omitempty"`
	Totals                  Totals             `json:"totals"`
	OpenServiceRequestCount int                `json:"open_service_request_count"`
}

// StatusService answers table status reads.
type StatusService struct {
	pool     TxBeginner
	newStore NewStore
}

// NewStatusService creates a new StatusService.
func NewStatusService(pool TxBeginner, newStore NewStore) *StatusService {
	return &StatusService{pool: pool, newStore: newStore}
}

func buildTableStatus(table database.DiningTable, sess *database.TableSession, reqs []database.ServiceRequest) TableStatus {
	out := TableStatus{
		TableID:                 table.ID,
		Name:                    table.Name,
		Floor:                   table.Floor,
		Capacity:                table.Capacity,
		IsActive:                table.IsActive,
		OpenServiceRequestCount: len(reqs),
	}

	in := tablestatus.Input{}
	if sess != nil {
		out.HasActiveSession = true
		id := sess.ID
		out.SessionID = &id
		out.Currency = sess.Currency
		out.Totals = sessionTotals(*sess)
		in.OpenSession = &tablestatus.Session{GrandTotal: out.Totals.Grand}
	}
	for _, r := range reqs {
		in.OpenRequests = append(in.OpenRequests, r.Type)
	}
	out.Status = tablestatus.Derive(in)
	return out
}

// TableStatus returns the derived status of one table.
func (s *StatusService) TableStatus(ctx context.Context, restaurantID, tableID uuid.UUID) (*TableStatus, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	table, err := store.GetTable(ctx, database.GetTableParams{ID: tableID, RestaurantID: restaurantID})
	if err != nil {
		return nil, fmt.Errorf("get table: %w", notFound(err, ErrTableNotFound))
	}

	var (
		sess *database.TableSession
		reqs []database.ServiceRequest
	)
	open, err := store.GetOpenSessionByTable(ctx, database.GetOpenSessionByTableParams{RestaurantID: restaurantID, TableID: tableID})
	switch {
	case err == nil:
		sess = &open
		reqs, err = store.ListOpenServiceRequestsBySession(ctx, open.ID)
		if err != nil {
			return nil, fmt.Errorf("list open requests: %w", err)
		}
	case errors.Is(err, pgx.ErrNoRows):
	default:
		return nil, fmt.Errorf("get open session: %w", err)
	}

	out := buildTableStatus(table, sess, reqs)
	return &out, nil
}

// ListTableStatuses returns the derived status of every table of a restaurant.
func (s *StatusService) ListTableStatuses(ctx context.Context, restaurantID uuid.UUID) ([]TableStatus, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	tables, err := store.ListTables(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	sessions, err := store.ListOpenSessions(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("list open sessions: %w", err)
	}
	reqs, err := store.ListOpenServiceRequests(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("list open requests: %w", err)
	}

	byTable := make(map[uuid.UUID]*database.TableSession, len(sessions))
	for i := range sessions {
		byTable[sessions[i].TableID] = &sessions[i]
	}
	reqsBySession := make(map[uuid.UUID][]database.ServiceRequest)
	for _, r := range reqs {
		reqsBySession[r.SessionID] = append(reqsBySession[r.SessionID], r)
	}

	out := make([]TableStatus, 0, len(tables))
	for _, t := range tables {
		sess := byTable[t.ID]
		var tableReqs []database.ServiceRequest
		if sess != nil {
			tableReqs = reqsBySession[sess.ID]
		}
		out = append(out, buildTableStatus(t, sess, tableReqs))
	}
	return out, nil
}
