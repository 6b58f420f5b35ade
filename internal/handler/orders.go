package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tableside/api/internal/catalog"
	"github.com/tableside/api/internal/enum"
	"github.com/tableside/api/internal/middleware"
	"github.com/tableside/api/internal/service"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error)
	GetOrder(ctx context.Context, restaurantID, orderID uuid.UUID) (*service.OrderView, error)
	AcceptOrder(ctx context.Context, restaurantID, orderID uuid.UUID) (*service.OrderView, error)
	AdvanceKitchen(ctx context.Context, restaurantID, orderID uuid.UUID, target string) (*service.OrderView, error)
	CancelOrder(ctx context.Context, restaurantID, orderID uuid.UUID) (*service.OrderView, error)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc OrderServicer
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer) *OrderHandler {
	return &OrderHandler{svc: svc}
}

// RegisterRoutes registers staff order endpoints.
// Expected to be mounted inside a restaurant-scoped subrouter: /restaurants/{rid}/orders
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.CreateWalkIn)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/accept", h.Accept)
	r.Patch("/{id}/kitchen-status", h.AdvanceKitchen)
	r.With(middleware.RequireRole(floorStaff...)).Delete("/{id}", h.Cancel)
}

// RegisterPublicRoutes registers guest ordering on /public/restaurants/{rid}.
func (h *OrderHandler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/tables/{tid}/orders", h.CreateGuest)
}

// --- Request types ---

type walkInOrderRequest struct {
	TableID       string                  `json:"table_id"`
	GuestName     string                  `json:"guest_name"`
	UserID        string                  `json:"user_id"`
	Notes         string                  `json:"notes"`
	PaymentMethod string                  `json:"payment_method"`
	Items         []catalog.ItemSelection `json:"items"`
}

type guestOrderRequest struct {
	Source        string                  `json:"source"`
	UserID        string                  `json:"user_id"`
	GuestName     string                  `json:"guest_name"`
	ReservationID string                  `json:"reservation_id"`
	Notes         string                  `json:"notes"`
	PaymentMethod string                  `json:"payment_method"`
	Items         []catalog.ItemSelection `json:"items"`
}

type kitchenStatusRequest struct {
	KitchenStatus string `json:"kitchen_status"`
}

// --- Handlers ---

// CreateWalkIn handles POST /restaurants/{rid}/orders.
func (h *OrderHandler) CreateWalkIn(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := pathID(w, r, "rid", "restaurant ID")
	if !ok {
		return
	}

	var req walkInOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	tableID, err := uuid.Parse(req.TableID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table_id"})
		return
	}
	userID, err := optionalUUID(req.UserID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user_id"})
		return
	}
	if len(req.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "items are required"})
		return
	}

	result, err := h.svc.CreateOrder(r.Context(), service.CreateOrderRequest{
		RestaurantID:  restaurantID,
		TableID:       tableID,
		Source:        enum.OrderSourceWalkIn,
		UserID:        userID,
		GuestName:     req.GuestName,
		Notes:         req.Notes,
		PaymentMethod: req.PaymentMethod,
		Items:         req.Items,
	})
	if err != nil {
		writeServiceError(w, err, "create walk-in order")
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// CreateGuest handles POST /public/restaurants/{rid}/tables/{tid}/orders for
// QR and reservation orders.
func (h *OrderHandler) CreateGuest(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := pathID(w, r, "rid", "restaurant ID")
	if !ok {
		return
	}
	tableID, ok := pathID(w, r, "tid", "table ID")
	if !ok {
		return
	}

	var req guestOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.Source != enum.OrderSourceQR && req.Source != enum.OrderSourceReservation {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "source must be qr or reservation"})
		return
	}
	userID, err := optionalUUID(req.UserID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user_id"})
		return
	}
	reservationID, err := optionalUUID(req.ReservationID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid reservation_id"})
		return
	}
	if len(req.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "items are required"})
		return
	}

	result, err := h.svc.CreateOrder(r.Context(), service.CreateOrderRequest{
		RestaurantID:  restaurantID,
		TableID:       tableID,
		Source:        req.Source,
		UserID:        userID,
		GuestName:     req.GuestName,
		Notes:         req.Notes,
		ReservationID: reservationID,
		PaymentMethod: req.PaymentMethod,
		Items:         req.Items,
	})
	if err != nil {
		writeServiceError(w, err, "create guest order")
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// Get handles GET /restaurants/{rid}/orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	restaurantID, orderID, ok := orderPath(w, r)
	if !ok {
		return
	}

	order, err := h.svc.GetOrder(r.Context(), restaurantID, orderID)
	if err != nil {
		writeServiceError(w, err, "get order")
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// Accept handles POST /restaurants/{rid}/orders/{id}/accept.
func (h *OrderHandler) Accept(w http.ResponseWriter, r *http.Request) {
	restaurantID, orderID, ok := orderPath(w, r)
	if !ok {
		return
	}

	order, err := h.svc.AcceptOrder(r.Context(), restaurantID, orderID)
	if err != nil {
		writeServiceError(w, err, "accept order")
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// AdvanceKitchen handles PATCH /restaurants/{rid}/orders/{id}/kitchen-status.
func (h *OrderHandler) AdvanceKitchen(w http.ResponseWriter, r *http.Request) {
	restaurantID, orderID, ok := orderPath(w, r)
	if !ok {
		return
	}

	var req kitchenStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.KitchenStatus == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "kitchen_status is required"})
		return
	}

	order, err := h.svc.AdvanceKitchen(r.Context(), restaurantID, orderID, req.KitchenStatus)
	if err != nil {
		writeServiceError(w, err, "advance kitchen status")
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// Cancel handles DELETE /restaurants/{rid}/orders/{id}.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	restaurantID, orderID, ok := orderPath(w, r)
	if !ok {
		return
	}

	order, err := h.svc.CancelOrder(r.Context(), restaurantID, orderID)
	if err != nil {
		writeServiceError(w, err, "cancel order")
		return
	}

	writeJSON(w, http.StatusOK, order)
}

func orderPath(w http.ResponseWriter, r *http.Request) (restaurantID, orderID uuid.UUID, ok bool) {
	if restaurantID, ok = pathID(w, r, "rid", "restaurant ID"); !ok {
		return
	}
	orderID, ok = pathID(w, r, "id", "order ID")
	return
}
