package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tableside/api/internal/catalog"
	"github.com/tableside/api/internal/service"
)

// DeliveryServicer is satisfied by *service.DeliveryService.
type DeliveryServicer interface {
	Checkout(ctx context.Context, req service.DeliveryCheckoutRequest) (*service.DeliveryCheckoutResult, error)
}

// DeliveryHandler starts prepaid delivery checkouts.
type DeliveryHandler struct {
	svc DeliveryServicer
}

// NewDeliveryHandler creates a new DeliveryHandler.
func NewDeliveryHandler(svc DeliveryServicer) *DeliveryHandler {
	return &DeliveryHandler{svc: svc}
}

// RegisterPublicRoutes registers checkout under /public/restaurants/{rid}.
func (h *DeliveryHandler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/delivery/checkout", h.Checkout)
}

type deliveryCheckoutRequest struct {
	UserID          string                  `json:"user_id"`
	CustomerName    string                  `json:"customer_name"`
	DeliveryAddress string                  `json:"delivery_address"`
	Items           []catalog.ItemSelection `json:"items"`
}

// Checkout handles POST /public/restaurants/{rid}/delivery/checkout.
func (h *DeliveryHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := pathID(w, r, "rid", "restaurant ID")
	if !ok {
		return
	}

	var req deliveryCheckoutRequest
	if !decodeBody(w, r, &req) {
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

	result, err := h.svc.Checkout(r.Context(), service.DeliveryCheckoutRequest{
		RestaurantID:    restaurantID,
		UserID:          userID,
		CustomerName:    req.CustomerName,
		DeliveryAddress: req.DeliveryAddress,
		Items:           req.Items,
	})
	if err != nil {
		writeServiceError(w, err, "delivery checkout")
		return
	}

	writeJSON(w, http.StatusCreated, result)
}
