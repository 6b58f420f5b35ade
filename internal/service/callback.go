package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tableside/api/internal/database"
	"github.com/tableside/api/internal/enum"
	"github.com/tableside/api/internal/gateway"
	"github.com/tableside/api/internal/notify"
)

// CallbackOutcome says what Apply did with an event.
type CallbackOutcome string

const (
	CallbackApplied   CallbackOutcome = "applied"
	CallbackDuplicate CallbackOutcome = "duplicate"
	CallbackIgnored   CallbackOutcome = "ignored"
)

// PaymentCallbackProcessor applies gateway payment events. It is idempotent:
// an event id is applied at most once, and each entity's own state guards
// against a second, differently-identified event for the same payment.
type PaymentCallbackProcessor struct {
	pool     TxBeginner
	newStore NewStore
	ledger   *Ledger
	notifier notify.Notifier
}

// NewPaymentCallbackProcessor creates a new PaymentCallbackProcessor.
func NewPaymentCallbackProcessor(pool TxBeginner, newStore NewStore, ledger *Ledger, notifier notify.Notifier) *PaymentCallbackProcessor {
	return &PaymentCallbackProcessor{pool: pool, newStore: newStore, ledger: ledger, notifier: notifier}
}

// Apply processes one verified event. Malformed or unknown events are logged
// and reported as ignored, never as errors; only infrastructure failures
// return an error so the gateway retries.
func (p *PaymentCallbackProcessor) Apply(ctx context.Context, ev gateway.Event) (CallbackOutcome, error) {
	logger := log.With().Str("event_id", ev.ID).Str("intent_id", ev.IntentID).Str("status", string(ev.Status)).Logger()

	meta, err := gateway.ParseMetadata(ev.Metadata)
	if err != nil || ev.ID == "" || ev.IntentID == "" {
		logger.Warn().Err(err).Msg("payment callback: malformed event ignored")
		return CallbackIgnored, nil
	}
	if ev.Status != gateway.EventSucceeded && ev.Status != gateway.EventFailed {
		logger.Warn().Msg("payment callback: unknown status ignored")
		return CallbackIgnored, nil
	}
	logger = logger.With().Str("kind", meta.Kind).Str("entity_id", meta.EntityID.String()).Logger()

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := p.newStore(tx)

	n, err := store.RecordGatewayEvent(ctx, database.RecordGatewayEventParams{
		EventID:  ev.ID,
		IntentID: ev.IntentID,
		Kind:     meta.Kind,
	})
	if err != nil {
		return "", fmt.Errorf("record gateway event: %w", err)
	}
	if n == 0 {
		logger.Info().Msg("payment callback: replayed event absorbed")
		return CallbackDuplicate, nil
	}

	var (
		outcome CallbackOutcome
		notices []notify.Notice
	)
	switch meta.Kind {
	case gateway.KindTableOrder:
		outcome, notices, err = p.applyOrder(ctx, store, logger, meta, ev)
	case gateway.KindReservationDeposit:
		outcome, err = p.applyDeposit(ctx, store, logger, meta, ev)
	case gateway.KindDeliveryAttempt:
		outcome, notices, err = p.applyDelivery(ctx, store, logger, meta, ev)
	}
	if err != nil {
		return "", err
	}

	// The event id is committed even when ignored so replays stay cheap.
	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("commit tx: %w", err)
	}

	for _, n := range notices {
		p.notifier.Notify(ctx, n)
	}
	logger.Info().Str("outcome", string(outcome)).Msg("payment callback processed")
	return outcome, nil
}

func checkAmount(logger zerolog.Logger, ev gateway.Event, expectedMinor int64, currency string) {
	if ev.AmountMinor != expectedMinor || !strings.EqualFold(ev.Currency, currency) {
		logger.Warn().
			Int64("event_amount", ev.AmountMinor).
			Str("event_currency", ev.Currency).
			Int64("expected_amount", expectedMinor).
			Str("expected_currency", currency).
			Msg("payment callback: amount mismatch")
	}
}

func (p *PaymentCallbackProcessor) applyOrder(ctx context.Context, store Store, logger zerolog.Logger, meta gateway.Metadata, ev gateway.Event) (CallbackOutcome, []notify.Notice, error) {
	order, err := lockSessionThenOrder(ctx, store, meta.EntityID)
	if errors.Is(err, pgx.ErrNoRows) {
		logger.Warn().Msg("payment callback: order not found")
		return CallbackIgnored, nil, nil
	}
	if err != nil {
		return "", nil, fmt.Errorf("lock order: %w", err)
	}
	if order.PaymentMethod != enum.PaymentMethodCard || !order.PaymentIntentID.Valid || order.PaymentIntentID.String != ev.IntentID {
		logger.Warn().Str("order_intent_id", order.PaymentIntentID.String).Msg("payment callback: intent does not belong to order")
		return CallbackIgnored, nil, nil
	}

	total := numericToDecimal(order.Total)
	checkAmount(logger, ev, gateway.ToMinorUnits(total, order.Currency), order.Currency)

	if ev.Status == gateway.EventFailed {
		switch order.PaymentStatus {
		case enum.PaymentStatusPaid:
			logger.Warn().Msg("payment callback: failure after success ignored")
			return CallbackIgnored, nil, nil
		case enum.PaymentStatusFailed:
			return CallbackDuplicate, nil, nil
		}
		if _, err := store.UpdateOrderPaymentStatus(ctx, database.UpdateOrderPaymentStatusParams{
			ID:            order.ID,
			PaymentStatus: enum.PaymentStatusFailed,
		}); err != nil {
			return "", nil, fmt.Errorf("mark order failed: %w", err)
		}
		return CallbackApplied, nil, nil
	}

	if order.PaymentStatus == enum.PaymentStatusPaid {
		return CallbackDuplicate, nil, nil
	}
	order, err = store.UpdateOrderPaymentStatus(ctx, database.UpdateOrderPaymentStatusParams{
		ID:            order.ID,
		PaymentStatus: enum.PaymentStatusPaid,
	})
	if err != nil {
		return "", nil, fmt.Errorf("mark order paid: %w", err)
	}

	if order.Status == enum.OrderStatusCancelled {
		logger.Error().
			Str("order_id", order.ID.String()).
			Str("amount", total.StringFixed(2)).
			Str("currency", order.Currency).
			Msg("payment captured for cancelled order, refund required")
		return CallbackApplied, nil, nil
	}

	if _, err := p.ledger.addOrderTotal(ctx, store, order.SessionID, total, enum.PaymentMethodCard, time.Time{}); err != nil {
		return "", nil, err
	}
	status, err := refreshTableStatus(ctx, store, order.RestaurantID, order.TableID)
	if err != nil {
		return "", nil, err
	}

	return CallbackApplied, []notify.Notice{
		{Type: notify.OrderPaid, RestaurantID: order.RestaurantID, Payload: newOrderView(order)},
		tableStatusNotice(order.RestaurantID, order.TableID, status),
	}, nil
}

func (p *PaymentCallbackProcessor) applyDeposit(ctx context.Context, store Store, logger zerolog.Logger, meta gateway.Metadata, ev gateway.Event) (CallbackOutcome, error) {
	res, err := store.GetReservationForUpdate(ctx, meta.EntityID)
	if errors.Is(err, pgx.ErrNoRows) {
		logger.Warn().Msg("payment callback: reservation not found")
		return CallbackIgnored, nil
	}
	if err != nil {
		return "", fmt.Errorf("lock reservation: %w", err)
	}
	if res.DepositIntentID.Valid && res.DepositIntentID.String != ev.IntentID {
		logger.Warn().Str("deposit_intent_id", res.DepositIntentID.String).Msg("payment callback: intent does not belong to reservation")
		return CallbackIgnored, nil
	}

	checkAmount(logger, ev, gateway.ToMinorUnits(numericToDecimal(res.DepositAmount), res.DepositCurrency), res.DepositCurrency)

	if res.DepositStatus == enum.DepositStatusPaid {
		if ev.Status == gateway.EventFailed {
			logger.Warn().Msg("payment callback: deposit failure after success ignored")
			return CallbackIgnored, nil
		}
		return CallbackDuplicate, nil
	}

	params := database.UpdateReservationDepositParams{ID: res.ID, Status: res.Status}
	if ev.Status == gateway.EventSucceeded {
		params.DepositStatus = enum.DepositStatusPaid
		if res.Status == enum.ReservationStatusPending {
			params.Status = enum.ReservationStatusConfirmed
		}
	} else {
		if res.DepositStatus == enum.DepositStatusFailed {
			return CallbackDuplicate, nil
		}
		params.DepositStatus = enum.DepositStatusFailed
	}

	if _, err := store.UpdateReservationDeposit(ctx, params); err != nil {
		return "", fmt.Errorf("update deposit: %w", err)
	}
	return CallbackApplied, nil
}

func (p *PaymentCallbackProcessor) applyDelivery(ctx context.Context, store Store, logger zerolog.Logger, meta gateway.Metadata, ev gateway.Event) (CallbackOutcome, []notify.Notice, error) {
	att, err := store.GetPaymentAttemptForUpdate(ctx, meta.EntityID)
	if errors.Is(err, pgx.ErrNoRows) {
		logger.Warn().Msg("payment callback: delivery attempt not found")
		return CallbackIgnored, nil, nil
	}
	if err != nil {
		return "", nil, fmt.Errorf("lock payment attempt: %w", err)
	}
	if att.PaymentIntentID.Valid && att.PaymentIntentID.String != ev.IntentID {
		logger.Warn().Str("attempt_intent_id", att.PaymentIntentID.String).Msg("payment callback: intent does not belong to attempt")
		return CallbackIgnored, nil, nil
	}

	checkAmount(logger, ev, gateway.ToMinorUnits(numericToDecimal(att.Total), att.Currency), att.Currency)

	if att.OrderID.Valid {
		if ev.Status == gateway.EventFailed {
			logger.Warn().Msg("payment callback: delivery failure after success ignored")
			return CallbackIgnored, nil, nil
		}
		return CallbackDuplicate, nil, nil
	}

	if ev.Status == gateway.EventFailed {
		if att.Status == enum.AttemptStatusFailed {
			return CallbackDuplicate, nil, nil
		}
		if _, err := store.UpdatePaymentAttemptStatus(ctx, database.UpdatePaymentAttemptStatusParams{
			ID:     att.ID,
			Status: enum.AttemptStatusFailed,
		}); err != nil {
			return "", nil, fmt.Errorf("mark attempt failed: %w", err)
		}
		return CallbackApplied, nil, nil
	}

	order, err := store.CreateDeliveryOrder(ctx, database.CreateDeliveryOrderParams{
		RestaurantID:    att.RestaurantID,
		AttemptID:       att.ID,
		UserID:          att.UserID,
		CustomerName:    att.CustomerName,
		DeliveryAddress: att.DeliveryAddress,
		Items:           att.Items,
		Currency:        att.Currency,
		Total:           att.Total,
	})
	if err != nil {
		return "", nil, fmt.Errorf("create delivery order: %w", err)
	}
	if _, err := store.LinkPaymentAttemptOrder(ctx, database.LinkPaymentAttemptOrderParams{
		ID:      att.ID,
		OrderID: order.ID,
	}); err != nil {
		return "", nil, fmt.Errorf("link delivery order: %w", err)
	}

	return CallbackApplied, []notify.Notice{{
		Type:         notify.DeliveryConfirmed,
		RestaurantID: att.RestaurantID,
		Payload: DeliveryOrderNotice{
			OrderID:   order.ID,
			AttemptID: att.ID,
			Total:     numericToDecimal(order.Total).StringFixed(2),
			Currency:  order.Currency,
		},
	}}, nil
}
