package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID             string    `bun:"id,pk" json:"id"`
	SessionID      string    `bun:"session_id,notnull" json:"session_id"`
	WorkflowStatus string    `bun:"workflow_status,notnull" json:"workflow_status"`
	WaiterID       string    `bun:"waiter_id,nullzero" json:"waiter_id,omitempty"`
	Notes          string    `bun:"notes,nullzero" json:"notes,omitempty"`
	CancelReason   string    `bun:"cancel_reason,nullzero" json:"cancel_reason,omitempty"`
	CreatedAt      time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt      time.Time `bun:"updated_at,nullzero" json:"updated_at"`

	Items []*OrderItem `bun:"rel:has-many,join:id=order_id" json:"items"`
}

type OrderItem struct {
	bun.BaseModel `bun:"table:order_items"`

	ID                string     `bun:"id,pk" json:"id"`
	OrderID           string     `bun:"order_id,notnull" json:"order_id"`
	MenuItemID        string     `bun:"menu_item_id,notnull" json:"menu_item_id"`
	Name              string     `bun:"name,notnull" json:"name"`
	Quantity          int        `bun:"quantity,notnull" json:"quantity"`
	DeliveredQuantity int        `bun:"delivered_quantity,notnull,default:0" json:"delivered_quantity"`
	UnitPrice         int64      `bun:"unit_price,notnull" json:"unit_price"`
	Notes             string     `bun:"notes,nullzero" json:"notes,omitempty"`
	DeliveredAt       *time.Time `bun:"delivered_at,nullzero" json:"delivered_at,omitempty"`
	DeliveredBy       string     `bun:"delivered_by,nullzero" json:"delivered_by,omitempty"`
}

// FullyDelivered reports whether every ordered unit has been handed over.
func (i *OrderItem) FullyDelivered() bool {
	return i.Quantity > 0 && i.DeliveredQuantity == i.Quantity
}

// LineTotal is unit price times ordered quantity, in cents.
func (i *OrderItem) LineTotal() int64 {
	return i.UnitPrice * int64(i.Quantity)
}

// OrderStatusHistory records every workflow transition applied to an order.
type OrderStatusHistory struct {
	bun.BaseModel `bun:"table:order_status_history"`

	ID            string    `bun:"id,pk" json:"id"`
	OrderID       string    `bun:"order_id,notnull" json:"order_id"`
	FromStatus    string    `bun:"from_status,notnull" json:"from_status"`
	ToStatus      string    `bun:"to_status,notnull" json:"to_status"`
	Action        string    `bun:"action,notnull" json:"action"`
	ActorID       string    `bun:"actor_id,nullzero" json:"actor_id,omitempty"`
	ActorRole     string    `bun:"actor_role,notnull" json:"actor_role"`
	Justification string    `bun:"justification,nullzero" json:"justification,omitempty"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}
