package worker

import (
	"context"
	"encoding/json"
	"log"

	"urbangear/internal/broker"
	"urbangear/internal/checkout"
	"urbangear/internal/models"

	"github.com/segmentio/kafka-go"
)

// CheckoutWorker reacts to payment outcome events: marking orders
// paid or failed and clearing the originating cart on success.
type CheckoutWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
}

// NewCheckoutWorker creates a new checkout worker
func NewCheckoutWorker(consumer *broker.Consumer, checkoutService *checkout.Service) *CheckoutWorker {
	eventHandler := broker.NewEventHandler()

	eventHandler.OnPaymentSucceeded(checkoutService.HandlePaymentSucceeded)
	eventHandler.OnPaymentFailed(checkoutService.HandlePaymentFailed)

	return &CheckoutWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
	}
}

// Start starts the worker
func (w *CheckoutWorker) Start(ctx context.Context) error {
	log.Println("Starting checkout worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *CheckoutWorker) Stop() error {
	log.Println("Stopping checkout worker...")
	return w.consumer.Close()
}

// PaymentWorker drives the mock payment provider for placed orders
type PaymentWorker struct {
	consumer *broker.Consumer
	provider *checkout.PaymentProvider
}

// NewPaymentWorker creates a new payment worker
func NewPaymentWorker(consumer *broker.Consumer, provider *checkout.PaymentProvider) *PaymentWorker {
	return &PaymentWorker{
		consumer: consumer,
		provider: provider,
	}
}

// Start starts the payment worker
func (pw *PaymentWorker) Start(ctx context.Context) error {
	log.Println("Starting payment worker...")

	return pw.consumer.StartConsuming(ctx, func(ctx context.Context, msg kafka.Message) error {
		var baseEvent models.BaseEvent
		if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
			log.Printf("Failed to unmarshal event: %v", err)
			return err
		}

		if baseEvent.EventType == models.EventTypeOrderPlaced {
			var event models.OrderPlacedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				log.Printf("Failed to unmarshal OrderPlaced event: %v", err)
				return err
			}

			log.Printf("Processing payment for order: %d", event.OrderID)

			return pw.provider.Process(ctx, event.OrderID, event.SessionID, event.TotalAmount)
		}

		return nil
	})
}

// Stop stops the payment worker
func (pw *PaymentWorker) Stop() error {
	log.Println("Stopping payment worker...")
	return pw.consumer.Close()
}
