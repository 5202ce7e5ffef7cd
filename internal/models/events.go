package models

import "time"

// Event types
const (
	EventTypeOrderPlaced      = "ORDER_PLACED"
	EventTypePaymentSucceeded = "PAYMENT_SUCCEEDED"
	EventTypePaymentFailed    = "PAYMENT_FAILED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderPlacedEvent published when a cart is submitted at checkout
type OrderPlacedEvent struct {
	BaseEvent
	OrderID     int64           `json:"order_id"`
	SessionID   string          `json:"session_id"`
	UserID      int64           `json:"user_id"`
	TotalAmount int64           `json:"total_amount"`
	Items       []OrderItemData `json:"items"`
}

// PaymentSucceededEvent published by the payment provider bridge
type PaymentSucceededEvent struct {
	BaseEvent
	OrderID   int64  `json:"order_id"`
	SessionID string `json:"session_id"`
	PaymentID int64  `json:"payment_id"`
	Amount    int64  `json:"amount"`
	TxID      string `json:"tx_id"`
}

// PaymentFailedEvent published by the payment provider bridge
type PaymentFailedEvent struct {
	BaseEvent
	OrderID   int64  `json:"order_id"`
	SessionID string `json:"session_id"`
	PaymentID int64  `json:"payment_id"`
	Reason    string `json:"reason"`
}

// OrderItemData represents item data in events
type OrderItemData struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
	UnitPrice int64 `json:"unit_price"`
}
