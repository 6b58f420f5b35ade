package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/tableside/api/internal/catalog"
	"github.com/tableside/api/internal/database"
	"github.com/tableside/api/internal/gateway"
)

// DeliveryCheckoutRequest starts a prepaid delivery order.
type DeliveryCheckoutRequest struct {
	RestaurantID    uuid.UUID
	UserID          uuid.NullUUID
	CustomerName    string
	DeliveryAddress string
	Items           []catalog.ItemSelection
}

// DeliveryCheckoutResult is returned to the payer's client, which completes
// the payment with ClientSecret. The order itself is only created when the
// gateway confirms the payment.
type DeliveryCheckoutResult struct {
	AttemptID    uuid.UUID          `json:"attempt_id"`
	Items        []catalog.LineItem `json:"items"`
	Total        decimal.Decimal    `json:"total"`
	Currency     string             `json:"currency"`
	ClientSecret string             `json:"client_secret"`
}

// DeliveryOrderNotice is the payload of a notify.DeliveryConfirmed notice.
type DeliveryOrderNotice struct {
	OrderID   uuid.UUID `json:"order_id"`
	AttemptID uuid.UUID `json:"attempt_id"`
	Total     string    `json:"total"`
	Currency  string    `json:"currency"`
}

// DeliveryService records delivery payment attempts.
type DeliveryService struct {
	pool     TxBeginner
	newStore NewStore
	ledger   *Ledger
	menus    catalog.Provider
	gateway  gateway.Gateway
}

// NewDeliveryService creates a new DeliveryService.
func NewDeliveryService(pool TxBeginner, newStore NewStore, ledger *Ledger, menus catalog.Provider, gw gateway.Gateway) *DeliveryService {
	return &DeliveryService{pool: pool, newStore: newStore, ledger: ledger, menus: menus, gateway: gw}
}

// Checkout prices the basket and creates a pending payment attempt with a
// gateway intent for its total.
func (s *DeliveryService) Checkout(ctx context.Context, req DeliveryCheckoutRequest) (*DeliveryCheckoutResult, error) {
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.DeliveryAddress = strings.TrimSpace(req.DeliveryAddress)
	if req.CustomerName == "" || req.DeliveryAddress == "" {
		return nil, ErrDeliveryDetails
	}

	menu, err := s.menus.Menu(ctx, req.RestaurantID)
	if err != nil {
		return nil, fmt.Errorf("load menu: %w", err)
	}
	snap, err := catalog.Resolve(menu, req.Items)
	if err != nil {
		return nil, err
	}
	items, err := json.Marshal(snap.Items)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	restaurant, err := store.GetRestaurant(ctx, req.RestaurantID)
	if err != nil {
		return nil, fmt.Errorf("get restaurant: %w", notFound(err, ErrRestaurantNotFound))
	}
	currency := s.ledger.currencyFor(restaurant.Region)

	attemptID := uuid.New()
	intent, err := s.gateway.CreateIntent(ctx, gateway.IntentRequest{
		AmountMinor:    gateway.ToMinorUnits(snap.Subtotal, currency),
		Currency:       currency,
		Metadata:       gateway.Metadata{Kind: gateway.KindDeliveryAttempt, EntityID: attemptID},
		IdempotencyKey: "delivery-" + attemptID.String(),
	})
	if err != nil {
		log.Warn().Err(err).Str("attempt_id", attemptID.String()).Msg("create payment intent")
		return nil, ErrGatewayUnavailable
	}

	if _, err := store.CreatePaymentAttempt(ctx, database.CreatePaymentAttemptParams{
		ID:              attemptID,
		RestaurantID:    req.RestaurantID,
		UserID:          optionalUUID(req.UserID),
		CustomerName:    req.CustomerName,
		DeliveryAddress: req.DeliveryAddress,
		Items:           items,
		Currency:        currency,
		Total:           decimalToNumeric(snap.Subtotal),
		PaymentIntentID: pgtype.Text{String: intent.ID, Valid: true},
	}); err != nil {
		cancelIntent(ctx, s.gateway, intent.ID)
		return nil, fmt.Errorf("create payment attempt: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		cancelIntent(ctx, s.gateway, intent.ID)
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &DeliveryCheckoutResult{
		AttemptID:    attemptID,
		Items:        snap.Items,
		Total:        snap.Subtotal,
		Currency:     currency,
		ClientSecret: intent.ClientSecret,
	}, nil
}
