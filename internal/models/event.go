package models

import "time"

// Domain event types pushed through the notification bridge.
const (
	EventOrderPlaced       = "order_placed"
	EventStatusChanged     = "status_changed"
	EventCheckoutRequested = "checkout_requested"
	EventTipApplied        = "tip_applied"
	EventPaymentRecorded   = "payment_recorded"
	EventOrderCancelled    = "order_cancelled"
	EventWaiterCalled      = "waiter_called"
)

// DomainEvent is one entry in the append-only notification log. ID is the
// opaque cursor assigned on append; entries are never mutated afterwards.
type DomainEvent struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	SessionID string            `json:"session_id"`
	OrderID   string            `json:"order_id,omitempty"`
	Payload   map[string]string `json:"payload,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}
