package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tableside/api/internal/middleware"
	"github.com/tableside/api/internal/service"
)

// TableStatusReader serves derived table status. Satisfied by *service.StatusService.
type TableStatusReader interface {
	TableStatus(ctx context.Context, restaurantID, tableID uuid.UUID) (*service.TableStatus, error)
	ListTableStatuses(ctx context.Context, restaurantID uuid.UUID) ([]service.TableStatus, error)
}

// SessionServicer defines the session operations exposed over HTTP.
// Satisfied by *service.SessionService.
type SessionServicer interface {
	OpenOrReuse(ctx context.Context, restaurantID, tableID uuid.UUID, reservationID uuid.NullUUID) (*service.SessionView, bool, error)
	Get(ctx context.Context, restaurantID, sessionID uuid.UUID) (*service.SessionDetail, error)
	Close(ctx context.Context, restaurantID, sessionID uuid.UUID) (*service.SessionView, error)
}

// TableHandler handles table status and seating endpoints.
type TableHandler struct {
	status   TableStatusReader
	sessions SessionServicer
}

// NewTableHandler creates a new TableHandler.
func NewTableHandler(status TableStatusReader, sessions SessionServicer) *TableHandler {
	return &TableHandler{status: status, sessions: sessions}
}

// RegisterRoutes registers staff table endpoints under /restaurants/{rid}.
func (h *TableHandler) RegisterRoutes(r chi.Router) {
	r.Get("/tables", h.List)
	r.Get("/tables/{tid}/status", h.Status)
	r.Get("/sessions/{sid}", h.GetSession)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(floorStaff...))
		r.Post("/tables/{tid}/session", h.Seat)
		r.Post("/sessions/{sid}/close", h.CloseSession)
	})
}

// RegisterPublicRoutes registers the guest-facing status read.
func (h *TableHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/tables/{tid}/status", h.Status)
}

type seatRequest struct {
	ReservationID string `json:"reservation_id"`
}

type seatResponse struct {
	Session *service.SessionView `json:"session"`
	Created bool                 `json:"created"`
}

// List handles GET /restaurants/{rid}/tables.
func (h *TableHandler) List(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := pathID(w, r, "rid", "restaurant ID")
	if !ok {
		return
	}

	tables, err := h.status.ListTableStatuses(r.Context(), restaurantID)
	if err != nil {
		writeServiceError(w, err, "list tables")
		return
	}

	writeJSON(w, http.StatusOK, tables)
}

// Status handles GET .../tables/{tid}/status.
func (h *TableHandler) Status(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := pathID(w, r, "rid", "restaurant ID")
	if !ok {
		return
	}
	tableID, ok := pathID(w, r, "tid", "table ID")
	if !ok {
		return
	}

	st, err := h.status.TableStatus(r.Context(), restaurantID, tableID)
	if err != nil {
		writeServiceError(w, err, "table status")
		return
	}

	writeJSON(w, http.StatusOK, st)
}

// Seat handles POST /restaurants/{rid}/tables/{tid}/session. The body is
// optional; an empty body seats the table without a reservation.
func (h *TableHandler) Seat(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := pathID(w, r, "rid", "restaurant ID")
	if !ok {
		return
	}
	tableID, ok := pathID(w, r, "tid", "table ID")
	if !ok {
		return
	}

	var req seatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	reservationID, err := optionalUUID(req.ReservationID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid reservation_id"})
		return
	}

	sess, created, err := h.sessions.OpenOrReuse(r.Context(), restaurantID, tableID, reservationID)
	if err != nil {
		writeServiceError(w, err, "seat table")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, seatResponse{Session: sess, Created: created})
}

// GetSession handles GET /restaurants/{rid}/sessions/{sid}.
func (h *TableHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	restaurantID, sessionID, ok := sessionPath(w, r)
	if !ok {
		return
	}

	detail, err := h.sessions.Get(r.Context(), restaurantID, sessionID)
	if err != nil {
		writeServiceError(w, err, "get session")
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

// CloseSession handles POST /restaurants/{rid}/sessions/{sid}/close.
func (h *TableHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	restaurantID, sessionID, ok := sessionPath(w, r)
	if !ok {
		return
	}

	sess, err := h.sessions.Close(r.Context(), restaurantID, sessionID)
	if err != nil {
		writeServiceError(w, err, "close session")
		return
	}

	writeJSON(w, http.StatusOK, sess)
}

func sessionPath(w http.ResponseWriter, r *http.Request) (restaurantID, sessionID uuid.UUID, ok bool) {
	if restaurantID, ok = pathID(w, r, "rid", "restaurant ID"); !ok {
		return
	}
	sessionID, ok = pathID(w, r, "sid", "session ID")
	return
}
