package view

import (
	"time"

	"pronto-core/internal/models"
	"pronto-core/internal/workflow"
)

// OrderView is an order as one role console sees it: normalized status,
// display labels and the exact actions the actor may run. Because the
// allowed-action list comes from the same capability table the engine
// enforces, a rendered button can never hit a Forbidden edge.
type OrderView struct {
	ID             string                `json:"id"`
	SessionID      string                `json:"session_id"`
	Status         workflow.Status       `json:"status"`
	Labels         workflow.StatusLabels `json:"labels"`
	Items          []*models.OrderItem   `json:"items"`
	Notes          string                `json:"notes,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
	AllowedActions []workflow.Action     `json:"allowed_actions"`
}

// SessionView is a check as one role console sees it.
type SessionView struct {
	ID          string        `json:"id"`
	TableNumber int           `json:"table_number"`
	Status      string        `json:"status"`
	Totals      models.Totals `json:"totals"`
	OpenedAt    time.Time     `json:"opened_at"`
	ClosedAt    *time.Time    `json:"closed_at,omitempty"`
	Orders      []OrderView   `json:"orders"`
}

// orderRelevance lists which order statuses each role's console shows.
// Admin sees everything, so it has no entry here.
var orderRelevance = map[string]map[workflow.Status]bool{
	workflow.RoleChef: {
		workflow.StatusQueued:    true,
		workflow.StatusPreparing: true,
	},
	workflow.RoleWaiter: {
		workflow.StatusNew:       true,
		workflow.StatusQueued:    true,
		workflow.StatusPreparing: true,
		workflow.StatusReady:     true,
		workflow.StatusDelivered: true,
	},
	workflow.RoleCashier: {
		workflow.StatusDelivered:       true,
		workflow.StatusAwaitingPayment: true,
	},
	workflow.RoleClient: {
		workflow.StatusNew:             true,
		workflow.StatusQueued:          true,
		workflow.StatusPreparing:       true,
		workflow.StatusReady:           true,
		workflow.StatusDelivered:       true,
		workflow.StatusAwaitingPayment: true,
		workflow.StatusPaid:            true,
		workflow.StatusCancelled:       true,
	},
}

var sessionRelevance = map[string]map[string]bool{
	workflow.RoleCashier: {
		models.SessionAwaitingTip:     true,
		models.SessionAwaitingPayment: true,
		models.SessionClosed:          true,
	},
	workflow.RoleWaiter: {
		models.SessionOpen:            true,
		models.SessionAwaitingTip:     true,
		models.SessionAwaitingPayment: true,
	},
	workflow.RoleClient: {
		models.SessionOpen:            true,
		models.SessionAwaitingTip:     true,
		models.SessionAwaitingPayment: true,
	},
}

// ProjectOrder builds the actor's view of a single order.
func ProjectOrder(order *models.Order, actor workflow.Actor) OrderView {
	status, _ := workflow.Canonical(order.WorkflowStatus)
	return OrderView{
		ID:             order.ID,
		SessionID:      order.SessionID,
		Status:         status,
		Labels:         workflow.LabelsFor(status),
		Items:          order.Items,
		Notes:          order.Notes,
		CreatedAt:      order.CreatedAt,
		UpdatedAt:      order.UpdatedAt,
		AllowedActions: workflow.AllowedActions(status, actor),
	}
}

// ProjectOrders filters the orders down to what the actor's role cares
// about and attaches per-order allowed actions.
func ProjectOrders(orders []*models.Order, actor workflow.Actor) []OrderView {
	relevant := orderRelevance[actor.Role]

	views := make([]OrderView, 0, len(orders))
	for _, order := range orders {
		status, ok := workflow.Canonical(order.WorkflowStatus)
		if !ok {
			continue
		}
		if relevant != nil && !relevant[status] {
			continue
		}
		views = append(views, ProjectOrder(order, actor))
	}
	return views
}

// ProjectSessions filters sessions the same way, nesting the actor's
// order views inside each.
func ProjectSessions(sessions []*models.Session, actor workflow.Actor) []SessionView {
	relevant := sessionRelevance[actor.Role]

	views := make([]SessionView, 0, len(sessions))
	for _, session := range sessions {
		if relevant != nil && !relevant[session.Status] {
			continue
		}
		views = append(views, SessionView{
			ID:          session.ID,
			TableNumber: session.TableNumber,
			Status:      session.Status,
			Totals: models.Totals{
				Subtotal: session.Subtotal,
				Tax:      session.Tax,
				Tip:      session.Tip,
				Total:    session.Total,
			},
			OpenedAt: session.OpenedAt,
			ClosedAt: session.ClosedAt,
			Orders:   ProjectOrders(session.Orders, actor),
		})
	}
	return views
}
