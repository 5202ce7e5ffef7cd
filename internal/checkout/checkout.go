package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"urbangear/internal/broker"
	"urbangear/internal/models"
	"urbangear/internal/session"
	"urbangear/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrEmptyCart is returned when checkout is attempted on an empty cart
var ErrEmptyCart = errors.New("cart is empty")

const claimTTL = 24 * time.Hour

// Store is the order-side persistence the checkout pipeline needs.
// *store.Store satisfies it.
type Store interface {
	GetOrderByIdempotencyKey(ctx context.Context, key string) (*models.Order, error)
	CreateOrder(ctx context.Context, order *models.Order) error
	CreateOrderItem(ctx context.Context, item *models.OrderItem) error
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	GetOrderItemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error)
	GetPaymentByOrderID(ctx context.Context, orderID int64) (*models.Payment, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, status string) error
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
}

// EventClaims is the fast-path event dedupe. *redisclient.Client
// satisfies it; a nil value falls back to the processed_events table
// alone.
type EventClaims interface {
	ClaimEvent(ctx context.Context, eventID string, ttl time.Duration) (bool, error)
	ReleaseClaim(ctx context.Context, eventID string) error
}

// Service turns a session's cart into an order and reacts to payment
// events. The cart is cleared exactly once per successful payment:
// duplicate events are acknowledged without clearing again, and a
// claim whose work fails is released so the redelivered event can
// retry.
type Service struct {
	store          Store
	claims         EventClaims
	eventPublisher *broker.EventPublisher
	sessions       *session.Manager
	logger         *zap.Logger
}

// NewService creates a checkout service
func NewService(
	store Store,
	claims EventClaims,
	eventPublisher *broker.EventPublisher,
	sessions *session.Manager,
) *Service {
	return &Service{
		store:          store,
		claims:         claims,
		eventPublisher: eventPublisher,
		sessions:       sessions,
		logger:         util.GetLogger(),
	}
}

// PlaceOrderResponse is returned to the shopper after checkout
type PlaceOrderResponse struct {
	OrderID int64  `json:"order_id"`
	Status  string `json:"status"`
}

// PlaceOrder snapshots the session's cart into an order, persists it
// and publishes OrderPlaced. The cart stays intact until the payment
// pipeline reports success.
func (s *Service) PlaceOrder(ctx context.Context, userID int64, sess *session.Session, idempotencyKey string) (*PlaceOrderResponse, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.PlaceOrder")
	defer span.End()

	if idempotencyKey == "" {
		idempotencyKey = uuid.New().String()
	}

	existingOrder, err := s.store.GetOrderByIdempotencyKey(ctx, idempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("failed to check idempotency: %w", err)
	}
	if existingOrder != nil {
		s.logger.Info("Duplicate checkout request detected",
			zap.String("idempotency_key", idempotencyKey),
			zap.Int64("order_id", existingOrder.ID))
		return &PlaceOrderResponse{
			OrderID: existingOrder.ID,
			Status:  existingOrder.Status,
		}, nil
	}

	snapshot := sess.Cart()
	if len(snapshot.Items) == 0 {
		util.OrdersFailedTotal.WithLabelValues("empty_cart").Inc()
		return nil, ErrEmptyCart
	}

	order := &models.Order{
		UserID:         userID,
		SessionID:      sess.ID,
		TotalAmount:    snapshot.TotalPrice,
		Status:         models.OrderStatusPlaced,
		IdempotencyKey: idempotencyKey,
	}

	if err := s.store.CreateOrder(ctx, order); err != nil {
		util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	util.OrdersPlacedTotal.Inc()
	s.logger.Info("Order placed",
		zap.Int64("order_id", order.ID),
		zap.String("session_id", sess.ID),
		zap.Int64("total_amount", order.TotalAmount))

	items := make([]models.OrderItemData, 0, len(snapshot.Items))
	for _, line := range snapshot.Items {
		orderItem := &models.OrderItem{
			OrderID:   order.ID,
			ProductID: line.ID,
			Quantity:  line.Quantity,
			UnitPrice: line.Price,
		}

		if err := s.store.CreateOrderItem(ctx, orderItem); err != nil {
			return nil, fmt.Errorf("failed to create order item: %w", err)
		}

		items = append(items, models.OrderItemData{
			ProductID: line.ID,
			Quantity:  line.Quantity,
			UnitPrice: line.Price,
		})
	}

	event := &models.OrderPlacedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderPlaced,
			Timestamp: time.Now(),
		},
		OrderID:     order.ID,
		SessionID:   sess.ID,
		UserID:      userID,
		TotalAmount: order.TotalAmount,
		Items:       items,
	}

	if err := s.eventPublisher.PublishOrderPlaced(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderPlaced event", zap.Error(err))
	}

	return &PlaceOrderResponse{
		OrderID: order.ID,
		Status:  order.Status,
	}, nil
}

// GetOrder retrieves an order, its items and the latest payment
// attempt (nil when the provider has not picked the order up yet).
func (s *Service) GetOrder(ctx context.Context, orderID int64) (*models.Order, []models.OrderItem, *models.Payment, error) {
	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, nil, nil, err
	}

	items, err := s.store.GetOrderItemsByOrderID(ctx, orderID)
	if err != nil {
		return nil, nil, nil, err
	}

	payment, err := s.store.GetPaymentByOrderID(ctx, orderID)
	if err != nil {
		return nil, nil, nil, err
	}

	return order, items, payment, nil
}

// HandlePaymentSucceeded marks the order paid and clears the
// originating session's cart exactly once.
func (s *Service) HandlePaymentSucceeded(ctx context.Context, event *models.PaymentSucceededEvent) error {
	ctx, span := util.StartSpan(ctx, "CheckoutService.HandlePaymentSucceeded")
	defer span.End()

	claimed, err := s.claimEvent(ctx, event.EventID)
	if err != nil {
		return err
	}
	if !claimed {
		s.logger.Info("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	s.logger.Info("Handling payment success",
		zap.Int64("order_id", event.OrderID),
		zap.String("tx_id", event.TxID))

	if err := s.store.UpdateOrderStatus(ctx, event.OrderID, models.OrderStatusPaid); err != nil {
		s.releaseClaim(ctx, event.EventID)
		return fmt.Errorf("failed to update order status: %w", err)
	}

	util.OrdersPaidTotal.Inc()

	if sess, ok := s.sessions.Get(event.SessionID); ok {
		sess.ClearCart()
		sess.Notify("Payment successful! Your order is confirmed.", session.SeveritySuccess)
	} else {
		s.logger.Warn("Session gone before payment completed",
			zap.String("session_id", event.SessionID),
			zap.Int64("order_id", event.OrderID))
	}

	if err := s.store.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		s.logger.Error("Failed to mark event processed", zap.Error(err))
	}

	s.logger.Info("Order confirmed", zap.Int64("order_id", event.OrderID))
	return nil
}

// HandlePaymentFailed marks the order failed; the cart is left
// untouched so the shopper can retry.
func (s *Service) HandlePaymentFailed(ctx context.Context, event *models.PaymentFailedEvent) error {
	ctx, span := util.StartSpan(ctx, "CheckoutService.HandlePaymentFailed")
	defer span.End()

	claimed, err := s.claimEvent(ctx, event.EventID)
	if err != nil {
		return err
	}
	if !claimed {
		s.logger.Info("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	s.logger.Warn("Handling payment failure",
		zap.Int64("order_id", event.OrderID),
		zap.String("reason", event.Reason))

	if err := s.store.UpdateOrderStatus(ctx, event.OrderID, models.OrderStatusFailed); err != nil {
		s.releaseClaim(ctx, event.EventID)
		return fmt.Errorf("failed to update order status: %w", err)
	}

	util.OrdersFailedTotal.WithLabelValues("payment_declined").Inc()

	if sess, ok := s.sessions.Get(event.SessionID); ok {
		sess.Notify("Payment failed. Please try again.", session.SeverityError)
	}

	if err := s.store.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		s.logger.Error("Failed to mark event processed", zap.Error(err))
	}

	return nil
}

// claimEvent dedupes an event across the fast-path claim and the
// durable processed_events table. A claim won here must be released
// via releaseClaim if the caller's work fails, otherwise redelivered
// copies would be dropped until the claim expires.
func (s *Service) claimEvent(ctx context.Context, eventID string) (bool, error) {
	claimWon := false
	if s.claims != nil {
		claimed, err := s.claims.ClaimEvent(ctx, eventID, claimTTL)
		switch {
		case err != nil:
			s.logger.Warn("Event claim failed, falling back to DB check",
				zap.String("event_id", eventID),
				zap.Error(err))
		case !claimed:
			return false, nil
		default:
			claimWon = true
		}
	}

	processed, err := s.store.IsEventProcessed(ctx, eventID)
	if err != nil {
		if claimWon {
			s.releaseClaim(ctx, eventID)
		}
		return false, fmt.Errorf("failed to check event processed: %w", err)
	}
	return !processed, nil
}

// releaseClaim undoes a won claim so a redelivered copy of the event
// gets another attempt.
func (s *Service) releaseClaim(ctx context.Context, eventID string) {
	if s.claims == nil {
		return
	}
	if err := s.claims.ReleaseClaim(ctx, eventID); err != nil {
		s.logger.Warn("Failed to release event claim",
			zap.String("event_id", eventID),
			zap.Error(err))
	}
}
