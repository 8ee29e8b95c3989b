package view_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pronto-core/internal/models"
	"pronto-core/internal/view"
	"pronto-core/internal/workflow"
)

func orderIn(status string) *models.Order {
	return &models.Order{
		ID:             "order-" + status,
		SessionID:      "session-1",
		WorkflowStatus: status,
		Items: []*models.OrderItem{
			{ID: "item-1", Quantity: 1, UnitPrice: 1500},
		},
	}
}

func allStatusesBoard() []*models.Order {
	return []*models.Order{
		orderIn("new"),
		orderIn("queued"),
		orderIn("preparing"),
		orderIn("ready"),
		orderIn("delivered"),
		orderIn("awaiting_payment"),
		orderIn("paid"),
		orderIn("cancelled"),
	}
}

func TestChefBoardShowsKitchenWork(t *testing.T) {
	chef := workflow.Actor{ID: "c1", Role: workflow.RoleChef}

	views := view.ProjectOrders(allStatusesBoard(), chef)
	assert.Len(t, views, 2)
	assert.Equal(t, workflow.StatusQueued, views[0].Status)
	assert.Equal(t, workflow.StatusPreparing, views[1].Status)

	// The queued card offers start, the preparing card offers ready.
	assert.Equal(t, []workflow.Action{workflow.ActionStart}, views[0].AllowedActions)
	assert.Equal(t, []workflow.Action{workflow.ActionReady}, views[1].AllowedActions)
}

func TestCashierBoardShowsPayableWork(t *testing.T) {
	cashier := workflow.Actor{ID: "p1", Role: workflow.RoleCashier}

	views := view.ProjectOrders(allStatusesBoard(), cashier)
	assert.Len(t, views, 2)
	assert.Equal(t, workflow.StatusDelivered, views[0].Status)
	assert.Equal(t, workflow.StatusAwaitingPayment, views[1].Status)
}

func TestAdminSeesEverything(t *testing.T) {
	admin := workflow.Actor{ID: "a1", Role: workflow.RoleAdmin}

	views := view.ProjectOrders(allStatusesBoard(), admin)
	assert.Len(t, views, 8)
}

func TestProjectionNormalizesLegacyStatuses(t *testing.T) {
	chef := workflow.Actor{ID: "c1", Role: workflow.RoleChef}

	// Legacy rows appear on the same board as their canonical siblings.
	views := view.ProjectOrders([]*models.Order{
		orderIn("waiter_accepted"),
		orderIn("kitchen_in_progress"),
	}, chef)
	assert.Len(t, views, 2)
	assert.Equal(t, workflow.StatusQueued, views[0].Status)
	assert.Equal(t, workflow.StatusPreparing, views[1].Status)
}

func TestProjectionSkipsUnknownStatuses(t *testing.T) {
	admin := workflow.Actor{ID: "a1", Role: workflow.RoleAdmin}
	views := view.ProjectOrders([]*models.Order{orderIn("limbo")}, admin)
	assert.Empty(t, views)
}

func TestOfferedActionsAlwaysSucceedInEngine(t *testing.T) {
	// Every button a console renders must survive the engine's checks;
	// the two sides share one capability table and this pins it.
	actors := []workflow.Actor{
		{ID: "a1", Role: workflow.RoleAdmin},
		{ID: "w1", Role: workflow.RoleWaiter},
		{ID: "c1", Role: workflow.RoleChef},
		{ID: "p1", Role: workflow.RoleCashier},
		{ID: "u1", Role: workflow.RoleClient},
	}
	for _, actor := range actors {
		for _, o := range allStatusesBoard() {
			for _, v := range view.ProjectOrders([]*models.Order{o}, actor) {
				for _, action := range v.AllowedActions {
					fresh := orderIn(string(v.Status))
					_, err := workflow.Apply(fresh, workflow.Request{
						Action:        action,
						By:            actor,
						Justification: "cliente se retiró",
					})
					assert.NoError(t, err, "%s offered %s on %s but engine refused", actor.Role, action, v.Status)
				}
			}
		}
	}
}

func TestOrderViewLabels(t *testing.T) {
	client := workflow.Actor{ID: "u1", Role: workflow.RoleClient}

	v := view.ProjectOrder(orderIn("preparing"), client)
	assert.Equal(t, "Preparando tu orden", v.Labels.Client)
	assert.Equal(t, "En cocina", v.Labels.Employee)
	assert.Len(t, v.Items, 1)
}

func TestProjectSessionsFiltersByRole(t *testing.T) {
	sessions := []*models.Session{
		{ID: "s-open", TableNumber: 1, Status: models.SessionOpen, Subtotal: 3000, Tax: 480, Total: 3480},
		{ID: "s-pay", TableNumber: 2, Status: models.SessionAwaitingPayment},
		{ID: "s-closed", TableNumber: 3, Status: models.SessionClosed},
	}

	cashier := view.ProjectSessions(sessions, workflow.Actor{ID: "p1", Role: workflow.RoleCashier})
	assert.Len(t, cashier, 2)
	assert.Equal(t, "s-pay", cashier[0].ID)
	assert.Equal(t, "s-closed", cashier[1].ID)

	waiter := view.ProjectSessions(sessions, workflow.Actor{ID: "w1", Role: workflow.RoleWaiter})
	assert.Len(t, waiter, 2)
	assert.Equal(t, "s-open", waiter[0].ID)
	assert.Equal(t, "s-pay", waiter[1].ID)

	admin := view.ProjectSessions(sessions, workflow.Actor{ID: "a1", Role: workflow.RoleAdmin})
	assert.Len(t, admin, 3)

	// Cached totals land on the view unchanged.
	assert.Equal(t, int64(3480), waiter[0].Totals.Total)
}
