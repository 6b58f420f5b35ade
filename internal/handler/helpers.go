package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tableside/api/internal/catalog"
	"github.com/tableside/api/internal/enum"
	"github.com/tableside/api/internal/service"
)

// floorStaff are the roles allowed to change table occupancy or void orders.
var floorStaff = []string{enum.UserRoleOwner, enum.UserRoleManager, enum.UserRoleWaiter}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode JSON response")
	}
}

// pathID parses a UUID path parameter, writing a 400 when it is malformed.
func pathID(w http.ResponseWriter, r *http.Request, key, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, key))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid " + label})
		return uuid.Nil, false
	}
	return id, true
}

// decodeBody reads a JSON body. Selection shape errors keep their message,
// anything else is reported as a generic bad body.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		msg := "invalid request body"
		if catalog.IsSelectionError(err) {
			msg = err.Error()
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return false
	}
	return true
}

func optionalUUID(s string) (uuid.NullUUID, error) {
	if s == "" {
		return uuid.NullUUID{}, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.NullUUID{}, err
	}
	return uuid.NullUUID{UUID: id, Valid: true}, nil
}

var serviceErrorStatus = []struct {
	err    error
	status int
}{
	{service.ErrInvalidSource, http.StatusBadRequest},
	{service.ErrInvalidPaymentMethod, http.StatusBadRequest},
	{service.ErrGuestRequired, http.StatusBadRequest},
	{service.ErrUserRequired, http.StatusBadRequest},
	{service.ErrInvalidRequestType, http.StatusBadRequest},
	{service.ErrInvalidKitchenStatus, http.StatusBadRequest},
	{service.ErrDeliveryDetails, http.StatusBadRequest},

	{service.ErrTableNotFound, http.StatusNotFound},
	{service.ErrSessionNotFound, http.StatusNotFound},
	{service.ErrOrderNotFound, http.StatusNotFound},
	{service.ErrReservationNotFound, http.StatusNotFound},
	{service.ErrRequestNotFound, http.StatusNotFound},
	{service.ErrRestaurantNotFound, http.StatusNotFound},

	{service.ErrTableInactive, http.StatusConflict},
	{service.ErrNoOpenSession, http.StatusConflict},
	{service.ErrSessionClosed, http.StatusConflict},
	{service.ErrOrderCancelled, http.StatusConflict},
	{service.ErrOrderDelivered, http.StatusConflict},
	{service.ErrOrderPaid, http.StatusConflict},
	{service.ErrOrderNotNew, http.StatusConflict},
	{service.ErrPaymentRequired, http.StatusConflict},
	{service.ErrKitchenTransition, http.StatusConflict},
	{service.ErrRequestHandled, http.StatusConflict},

	{service.ErrGatewayUnavailable, http.StatusServiceUnavailable},
}

// writeServiceError maps service errors to status codes. Unknown errors are
// logged under op and hidden behind a 500.
func writeServiceError(w http.ResponseWriter, err error, op string) {
	if catalog.IsSelectionError(err) {
		var se *catalog.SelectionError
		if errors.As(err, &se) {
			err = se
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	for _, e := range serviceErrorStatus {
		if errors.Is(err, e.err) {
			writeJSON(w, e.status, map[string]string{"error": e.err.Error()})
			return
		}
	}
	log.Error().Err(err).Str("op", op).Msg("request failed")
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}
