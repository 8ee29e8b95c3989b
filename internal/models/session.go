package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Session statuses. A session is the running check for one table occupancy.
const (
	SessionOpen            = "open"
	SessionAwaitingTip     = "awaiting_tip"
	SessionAwaitingPayment = "awaiting_payment"
	SessionClosed          = "closed"
)

// Payment methods accepted by the cashier console.
const (
	PaymentCash   = "cash"
	PaymentCard   = "card"
	PaymentStripe = "stripe"
)

type Session struct {
	bun.BaseModel `bun:"table:sessions"`

	ID          string `bun:"id,pk" json:"id"`
	TableNumber int    `bun:"table_number,notnull" json:"table_number"`
	Status      string `bun:"status,notnull" json:"status"`

	// Cached totals, in cents. Authoritative values are recomputed from
	// the constituent orders on every item change.
	Subtotal int64 `bun:"subtotal,notnull,default:0" json:"subtotal"`
	Tax      int64 `bun:"tax,notnull,default:0" json:"tax"`
	Tip      int64 `bun:"tip,notnull,default:0" json:"tip"`
	Total    int64 `bun:"total,notnull,default:0" json:"total"`

	OpenedAt         time.Time  `bun:"opened_at,notnull,default:current_timestamp" json:"opened_at"`
	CheckRequestedAt *time.Time `bun:"check_requested_at,nullzero" json:"check_requested_at,omitempty"`
	TipConfirmedAt   *time.Time `bun:"tip_confirmed_at,nullzero" json:"tip_confirmed_at,omitempty"`
	ClosedAt         *time.Time `bun:"closed_at,nullzero" json:"closed_at,omitempty"`
	PaymentMethod    string     `bun:"payment_method,nullzero" json:"payment_method,omitempty"`
	PaymentReference string     `bun:"payment_reference,nullzero" json:"payment_reference,omitempty"`

	Orders []*Order `bun:"rel:has-many,join:id=session_id" json:"orders"`
}

// Totals is the derived money breakdown for a session, in cents.
type Totals struct {
	Subtotal int64 `json:"subtotal"`
	Tax      int64 `json:"tax"`
	Tip      int64 `json:"tip"`
	Total    int64 `json:"total"`
}
