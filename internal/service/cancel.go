package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/tableside/api/internal/database"
	"github.com/tableside/api/internal/enum"
	"github.com/tableside/api/internal/notify"
)

// CancelOrder cancels an order and reverses its contribution to the session
// totals in one transaction. Cancelling an already cancelled order is a no-op.
// Delivered orders and settled card payments cannot be cancelled.
func (s *OrderService) CancelOrder(ctx context.Context, restaurantID, orderID uuid.UUID) (*OrderView, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := lockOrder(ctx, store, restaurantID, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status == enum.OrderStatusCancelled {
		v := newOrderView(order)
		return &v, nil
	}
	if order.KitchenStatus == enum.KitchenStatusDelivered {
		return nil, ErrOrderDelivered
	}
	if order.PaymentMethod == enum.PaymentMethodCard && order.PaymentStatus == enum.PaymentStatusPaid {
		return nil, ErrOrderPaid
	}

	wasReady := order.KitchenStatus == enum.KitchenStatusReady
	counted := isSettled(order.PaymentStatus)

	order, err = store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{ID: orderID, Status: enum.OrderStatusCancelled})
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}

	amount := decimal.Zero
	if counted {
		amount = numericToDecimal(order.Total)
	}
	if _, err := s.ledger.removeOrderTotal(ctx, store, order.SessionID, amount, order.PaymentMethod); err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			return nil, err
		}
		log.Error().
			Str("order_id", orderID.String()).
			Str("session_id", order.SessionID.String()).
			Msg("ledger integrity: cancelled order has no session, totals not adjusted")
	}

	if wasReady {
		if err := closeOrderReadyIfDone(ctx, store, order.SessionID); err != nil {
			return nil, err
		}
	}

	tableStatus, err := refreshTableStatus(ctx, store, restaurantID, order.TableID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	// An unpaid intent must not be charged after the order is gone.
	if order.PaymentStatus == enum.PaymentStatusPending && order.PaymentIntentID.Valid {
		cancelIntent(ctx, s.gateway, order.PaymentIntentID.String)
	}

	v := newOrderView(order)
	s.notifier.Notify(ctx, notify.Notice{Type: notify.OrderCancelled, RestaurantID: restaurantID, Payload: v})
	s.notifier.Notify(ctx, tableStatusNotice(restaurantID, order.TableID, tableStatus))
	return &v, nil
}
