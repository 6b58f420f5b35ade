package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/tableside/api/internal/database"
	"github.com/tableside/api/internal/enum"
	"github.com/tableside/api/internal/notify"
)

// openServiceRequest returns the session's open request of the given type,
// creating one when none is open. A concurrent creator that wins the partial
// unique index leaves the insert empty, and its row is returned instead.
func openServiceRequest(ctx context.Context, store Store, restaurantID, tableID, sessionID uuid.UUID, reqType, note string) (database.ServiceRequest, bool, error) {
	key := database.GetOpenServiceRequestParams{SessionID: sessionID, Type: reqType}
	existing, err := store.GetOpenServiceRequest(ctx, key)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return database.ServiceRequest{}, false, fmt.Errorf("get open request: %w", err)
	}

	created, err := store.CreateServiceRequest(ctx, database.CreateServiceRequestParams{
		RestaurantID: restaurantID,
		TableID:      tableID,
		SessionID:    sessionID,
		Type:         reqType,
		Note:         optionalText(note),
	})
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return database.ServiceRequest{}, false, fmt.Errorf("create service request: %w", err)
	}

	existing, err = store.GetOpenServiceRequest(ctx, key)
	if err != nil {
		return database.ServiceRequest{}, false, fmt.Errorf("re-read open request: %w", err)
	}
	return existing, false, nil
}

// CreateServiceRequestRequest is a guest's call for service at a table.
type CreateServiceRequestRequest struct {
	RestaurantID uuid.UUID
	TableID      uuid.UUID
	Type         string
	Note         string
}

// ServiceRequestService tracks waiter and bill calls.
type ServiceRequestService struct {
	pool     TxBeginner
	newStore NewStore
	ledger   *Ledger
	notifier notify.Notifier
}

// NewServiceRequestService creates a new ServiceRequestService.
func NewServiceRequestService(pool TxBeginner, newStore NewStore, ledger *Ledger, notifier notify.Notifier) *ServiceRequestService {
	return &ServiceRequestService{pool: pool, newStore: newStore, ledger: ledger, notifier: notifier}
}

// Create opens a waiter or bill request. A waiter call seats the table if it
// has no session; a bill request needs an open session. A request of the same
// type already open on the session is returned instead of a duplicate.
func (s *ServiceRequestService) Create(ctx context.Context, req CreateServiceRequestRequest) (*ServiceRequestView, bool, error) {
	if req.Type != enum.ServiceRequestWaiter && req.Type != enum.ServiceRequestBill {
		return nil, false, ErrInvalidRequestType
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	var sess database.TableSession
	if req.Type == enum.ServiceRequestWaiter {
		sess, _, err = s.ledger.openOrReuse(ctx, store, req.RestaurantID, req.TableID, uuid.NullUUID{})
		if err != nil {
			return nil, false, err
		}
	} else {
		if _, err := store.GetTable(ctx, database.GetTableParams{ID: req.TableID, RestaurantID: req.RestaurantID}); err != nil {
			return nil, false, fmt.Errorf("get table: %w", notFound(err, ErrTableNotFound))
		}
		sess, err = store.GetOpenSessionByTable(ctx, database.GetOpenSessionByTableParams{
			RestaurantID: req.RestaurantID,
			TableID:      req.TableID,
		})
		if err != nil {
			return nil, false, fmt.Errorf("get open session: %w", notFound(err, ErrNoOpenSession))
		}
	}

	sr, created, err := openServiceRequest(ctx, store, req.RestaurantID, req.TableID, sess.ID, req.Type, req.Note)
	if err != nil {
		return nil, false, err
	}
	status, err := refreshTableStatus(ctx, store, req.RestaurantID, req.TableID)
	if err != nil {
		return nil, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("commit tx: %w", err)
	}

	v := newServiceRequestView(sr)
	if created {
		s.notifier.Notify(ctx, notify.Notice{Type: notify.ServiceRequestOpened, RestaurantID: req.RestaurantID, Payload: v})
		s.notifier.Notify(ctx, tableStatusNotice(req.RestaurantID, req.TableID, status))
	}
	return &v, created, nil
}

// Handle marks an open request handled by a staff member.
func (s *ServiceRequestService) Handle(ctx context.Context, restaurantID, requestID, staffID uuid.UUID) (*ServiceRequestView, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	sr, err := store.GetServiceRequest(ctx, database.GetServiceRequestParams{ID: requestID, RestaurantID: restaurantID})
	if err != nil {
		return nil, fmt.Errorf("get service request: %w", notFound(err, ErrRequestNotFound))
	}
	if sr.Status != enum.ServiceRequestOpen {
		return nil, ErrRequestHandled
	}

	sr, err = store.HandleServiceRequest(ctx, database.HandleServiceRequestParams{
		ID:           requestID,
		RestaurantID: restaurantID,
		HandledBy:    pgtype.UUID{Bytes: staffID, Valid: staffID != uuid.Nil},
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRequestHandled
		}
		return nil, fmt.Errorf("handle service request: %w", err)
	}

	status, err := refreshTableStatus(ctx, store, restaurantID, sr.TableID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	v := newServiceRequestView(sr)
	s.notifier.Notify(ctx, notify.Notice{Type: notify.ServiceRequestHandled, RestaurantID: restaurantID, Payload: v})
	s.notifier.Notify(ctx, tableStatusNotice(restaurantID, sr.TableID, status))
	return &v, nil
}

// ListOpen returns the restaurant's open requests, oldest first.
func (s *ServiceRequestService) ListOpen(ctx context.Context, restaurantID uuid.UUID) ([]ServiceRequestView, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	reqs, err := s.newStore(tx).ListOpenServiceRequests(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("list service requests: %w", err)
	}
	out := make([]ServiceRequestView, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, newServiceRequestView(r))
	}
	return out, nil
}
