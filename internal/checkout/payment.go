package checkout

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"urbangear/internal/broker"
	"urbangear/internal/models"
	"urbangear/internal/store"
	"urbangear/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentProvider simulates the third-party payment widget in test
// mode: a configurable share of transactions succeed after a short
// simulated provider latency.
type PaymentProvider struct {
	store          *store.Store
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
	successRate    float64
}

// NewPaymentProvider creates a mock payment provider
func NewPaymentProvider(store *store.Store, eventPublisher *broker.EventPublisher, successRate float64) *PaymentProvider {
	return &PaymentProvider{
		store:          store,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
		successRate:    successRate,
	}
}

// Process charges an order and publishes the outcome event
func (pp *PaymentProvider) Process(ctx context.Context, orderID int64, sessionID string, amount int64) error {
	ctx, span := util.StartSpan(ctx, "PaymentProvider.Process")
	defer span.End()

	util.PaymentAttemptsTotal.Inc()
	start := time.Now()
	defer func() {
		util.PaymentProcessingLatency.Observe(time.Since(start).Seconds())
	}()

	pp.logger.Info("Processing payment",
		zap.Int64("order_id", orderID),
		zap.Int64("amount", amount))

	payment := &models.Payment{
		OrderID: orderID,
		Status:  models.PaymentStatusPending,
		Amount:  amount,
	}

	if err := pp.store.CreatePayment(ctx, payment); err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}

	time.Sleep(time.Duration(100+rand.Intn(400)) * time.Millisecond)

	success := rand.Float64() < pp.successRate
	providerTxID := fmt.Sprintf("TXN-%s", uuid.New().String()[:8])

	if success {
		pp.logger.Info("Payment succeeded",
			zap.Int64("order_id", orderID),
			zap.String("tx_id", providerTxID))

		if err := pp.store.UpdatePaymentStatus(ctx, payment.ID, models.PaymentStatusSuccess, providerTxID); err != nil {
			return fmt.Errorf("failed to update payment status: %w", err)
		}

		event := &models.PaymentSucceededEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypePaymentSucceeded,
				Timestamp: time.Now(),
			},
			OrderID:   orderID,
			SessionID: sessionID,
			PaymentID: payment.ID,
			Amount:    amount,
			TxID:      providerTxID,
		}

		if err := pp.eventPublisher.PublishPaymentSucceeded(ctx, event); err != nil {
			pp.logger.Error("Failed to publish PaymentSucceeded event", zap.Error(err))
		}

	} else {
		pp.logger.Warn("Payment declined", zap.Int64("order_id", orderID))

		if err := pp.store.UpdatePaymentStatus(ctx, payment.ID, models.PaymentStatusFailed, ""); err != nil {
			return fmt.Errorf("failed to update payment status: %w", err)
		}

		event := &models.PaymentFailedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypePaymentFailed,
				Timestamp: time.Now(),
			},
			OrderID:   orderID,
			SessionID: sessionID,
			PaymentID: payment.ID,
			Reason:    "payment_declined",
		}

		if err := pp.eventPublisher.PublishPaymentFailed(ctx, event); err != nil {
			pp.logger.Error("Failed to publish PaymentFailed event", zap.Error(err))
		}
	}

	return nil
}
