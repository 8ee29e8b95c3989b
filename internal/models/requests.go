package models

// OpenSessionRequest starts a new check for a table.
type OpenSessionRequest struct {
	TableNumber int `json:"table_number"`
}

type OrderItemRequest struct {
	MenuItemID string `json:"menu_item_id"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	UnitPrice  int64  `json:"unit_price"`
	Notes      string `json:"notes,omitempty"`
}

type PlaceOrderRequest struct {
	Items []OrderItemRequest `json:"items"`
	Notes string             `json:"notes,omitempty"`
}

// TransitionRequest drives one workflow action on an order.
type TransitionRequest struct {
	Action        string `json:"action"`
	Justification string `json:"justification,omitempty"`
}

// TipRequest attaches a tip as a fixed amount in cents or a percentage
// of the session subtotal. Exactly one of the two should be set.
type TipRequest struct {
	Amount     *int64   `json:"amount,omitempty"`
	Percentage *float64 `json:"percentage,omitempty"`
}

type PaymentRequest struct {
	Method    string `json:"method"`
	Reference string `json:"reference,omitempty"`
}
