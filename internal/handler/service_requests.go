package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tableside/api/internal/middleware"
	"github.com/tableside/api/internal/service"
)

// ServiceRequestServicer is satisfied by *service.ServiceRequestService.
type ServiceRequestServicer interface {
	Create(ctx context.Context, req service.CreateServiceRequestRequest) (*service.ServiceRequestView, bool, error)
	Handle(ctx context.Context, restaurantID, requestID, staffID uuid.UUID) (*service.ServiceRequestView, error)
	ListOpen(ctx context.Context, restaurantID uuid.UUID) ([]service.ServiceRequestView, error)
}

// ServiceRequestHandler handles waiter and bill calls.
type ServiceRequestHandler struct {
	svc ServiceRequestServicer
}

// NewServiceRequestHandler creates a new ServiceRequestHandler.
func NewServiceRequestHandler(svc ServiceRequestServicer) *ServiceRequestHandler {
	return &ServiceRequestHandler{svc: svc}
}

// RegisterRoutes registers staff endpoints under /restaurants/{rid}.
func (h *ServiceRequestHandler) RegisterRoutes(r chi.Router) {
	r.Get("/service-requests", h.ListOpen)
	r.Post("/service-requests/{id}/handle", h.Handle)
}

// RegisterPublicRoutes registers the guest call button.
func (h *ServiceRequestHandler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/tables/{tid}/service-requests", h.Create)
}

type createServiceRequestRequest struct {
	Type string `json:"type"`
	Note string `json:"note"`
}

type serviceRequestResponse struct {
	*service.ServiceRequestView
	Created bool `json:"created"`
}

// Create handles POST /public/restaurants/{rid}/tables/{tid}/service-requests.
// A repeated call returns the open request with 200 instead of 201.
func (h *ServiceRequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := pathID(w, r, "rid", "restaurant ID")
	if !ok {
		return
	}
	tableID, ok := pathID(w, r, "tid", "table ID")
	if !ok {
		return
	}

	var req createServiceRequestRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Type == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "type is required"})
		return
	}

	v, created, err := h.svc.Create(r.Context(), service.CreateServiceRequestRequest{
		RestaurantID: restaurantID,
		TableID:      tableID,
		Type:         req.Type,
		Note:         req.Note,
	})
	if err != nil {
		writeServiceError(w, err, "create service request")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, serviceRequestResponse{ServiceRequestView: v, Created: created})
}

// ListOpen handles GET /restaurants/{rid}/service-requests.
func (h *ServiceRequestHandler) ListOpen(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := pathID(w, r, "rid", "restaurant ID")
	if !ok {
		return
	}

	reqs, err := h.svc.ListOpen(r.Context(), restaurantID)
	if err != nil {
		writeServiceError(w, err, "list service requests")
		return
	}

	writeJSON(w, http.StatusOK, reqs)
}

// Handle handles POST /restaurants/{rid}/service-requests/{id}/handle.
func (h *ServiceRequestHandler) Handle(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := pathID(w, r, "rid", "restaurant ID")
	if !ok {
		return
	}
	requestID, ok := pathID(w, r, "id", "service request ID")
	if !ok {
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	v, err := h.svc.Handle(r.Context(), restaurantID, requestID, claims.UserID)
	if err != nil {
		writeServiceError(w, err, "handle service request")
		return
	}

	writeJSON(w, http.StatusOK, v)
}
