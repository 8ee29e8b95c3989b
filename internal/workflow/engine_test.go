package workflow_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"pronto-core/internal/models"
	"pronto-core/internal/workflow"
)

func newOrder(status workflow.Status) *models.Order {
	return &models.Order{
		ID:             "order-1",
		SessionID:      "session-1",
		WorkflowStatus: string(status),
		Items: []*models.OrderItem{
			{ID: "item-1", OrderID: "order-1", Name: "Tacos al pastor", Quantity: 3, UnitPrice: 500},
			{ID: "item-2", OrderID: "order-1", Name: "Agua de horchata", Quantity: 1, UnitPrice: 300},
		},
	}
}

func TestHappyPathWalk(t *testing.T) {
	order := newOrder(workflow.StatusNew)
	waiter := workflow.Actor{ID: "w1", Role: workflow.RoleWaiter}
	chef := workflow.Actor{ID: "c1", Role: workflow.RoleChef}
	cashier := workflow.Actor{ID: "p1", Role: workflow.RoleCashier}

	steps := []struct {
		action workflow.Action
		by     workflow.Actor
		want   workflow.Status
	}{
		{workflow.ActionAccept, waiter, workflow.StatusQueued},
		{workflow.ActionStart, chef, workflow.StatusPreparing},
		{workflow.ActionReady, chef, workflow.StatusReady},
		{workflow.ActionDeliver, waiter, workflow.StatusDelivered},
		{workflow.ActionRequestPayment, cashier, workflow.StatusAwaitingPayment},
		{workflow.ActionPay, cashier, workflow.StatusPaid},
	}

	for _, step := range steps {
		result, err := workflow.Apply(order, workflow.Request{Action: step.action, By: step.by})
		assert.NoError(t, err, "action %s", step.action)
		assert.True(t, result.Changed)
		assert.Equal(t, step.want, result.To)
		assert.Equal(t, string(step.want), order.WorkflowStatus)
	}
	assert.True(t, workflow.StatusPaid.Terminal())
}

func TestReapplyingActionIsNoOp(t *testing.T) {
	order := newOrder(workflow.StatusQueued)
	waiter := workflow.Actor{ID: "w1", Role: workflow.RoleWaiter}

	// Order already reached the target of accept: double tap resolves
	// without error and without touching the order.
	before := order.UpdatedAt
	result, err := workflow.Apply(order, workflow.Request{Action: workflow.ActionAccept, By: waiter})
	assert.NoError(t, err)
	assert.False(t, result.Changed)
	assert.Equal(t, workflow.StatusQueued, result.From)
	assert.Equal(t, workflow.StatusQueued, result.To)
	assert.Equal(t, before, order.UpdatedAt)
}

func TestForbiddenRegardlessOfStatus(t *testing.T) {
	chef := workflow.Actor{ID: "c1", Role: workflow.RoleChef}

	// A chef can never deliver, whatever state the order is in. Even on
	// an order that is already delivered the answer is Forbidden, not
	// the no-op.
	for _, status := range []workflow.Status{
		workflow.StatusNew, workflow.StatusReady, workflow.StatusDelivered, workflow.StatusPaid,
	} {
		order := newOrder(status)
		_, err := workflow.Apply(order, workflow.Request{Action: workflow.ActionDeliver, By: chef})
		assert.ErrorIs(t, err, workflow.ErrForbidden, "status %s", status)
		assert.Equal(t, string(status), order.WorkflowStatus)
	}
}

func TestInvalidEdge(t *testing.T) {
	waiter := workflow.Actor{ID: "w1", Role: workflow.RoleWaiter}

	// Delivering an order the kitchen has not finished is not an edge.
	order := newOrder(workflow.StatusQueued)
	_, err := workflow.Apply(order, workflow.Request{Action: workflow.ActionDeliver, By: waiter})
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
	assert.Equal(t, string(workflow.StatusQueued), order.WorkflowStatus)
}

func TestClientCancelsOwnEarlyOrderOnly(t *testing.T) {
	client := workflow.Actor{ID: "u1", Role: workflow.RoleClient}

	order := newOrder(workflow.StatusNew)
	result, err := workflow.Apply(order, workflow.Request{Action: workflow.ActionCancel, By: client})
	assert.NoError(t, err)
	assert.Equal(t, workflow.StatusCancelled, result.To)

	// Once the kitchen has it the customer's cancel capability no
	// longer covers the edge.
	order = newOrder(workflow.StatusPreparing)
	_, err = workflow.Apply(order, workflow.Request{Action: workflow.ActionCancel, By: client})
	assert.ErrorIs(t, err, workflow.ErrForbidden)
}

func TestLateCancelNeedsJustification(t *testing.T) {
	waiter := workflow.Actor{ID: "w1", Role: workflow.RoleWaiter}

	for _, status := range []workflow.Status{
		workflow.StatusPreparing, workflow.StatusReady, workflow.StatusDelivered, workflow.StatusAwaitingPayment,
	} {
		order := newOrder(status)
		_, err := workflow.Apply(order, workflow.Request{Action: workflow.ActionCancel, By: waiter})
		assert.ErrorIs(t, err, workflow.ErrJustificationRequired, "status %s", status)

		result, err := workflow.Apply(order, workflow.Request{
			Action:        workflow.ActionCancel,
			By:            waiter,
			Justification: "kitchen ran out of pastor",
		})
		assert.NoError(t, err)
		assert.Equal(t, workflow.StatusCancelled, result.To)
		assert.Equal(t, "kitchen ran out of pastor", order.CancelReason)
	}
}

func TestEarlyCancelNeedsNoJustification(t *testing.T) {
	waiter := workflow.Actor{ID: "w1", Role: workflow.RoleWaiter}

	order := newOrder(workflow.StatusQueued)
	result, err := workflow.Apply(order, workflow.Request{Action: workflow.ActionCancel, By: waiter})
	assert.NoError(t, err)
	assert.Equal(t, workflow.StatusCancelled, result.To)
	assert.Empty(t, order.CancelReason)
}

func TestDeliveryStampsItemsOnce(t *testing.T) {
	waiter := workflow.Actor{ID: "w1", Role: workflow.RoleWaiter}
	firstAt := time.Date(2026, 8, 28, 14, 0, 0, 0, time.UTC)

	order := newOrder(workflow.StatusReady)
	alreadyStamped := time.Date(2026, 8, 28, 13, 55, 0, 0, time.UTC)
	order.Items[0].DeliveredAt = &alreadyStamped
	order.Items[0].DeliveredBy = "w0"

	result, err := workflow.Apply(order, workflow.Request{Action: workflow.ActionDeliver, By: waiter, At: firstAt})
	assert.NoError(t, err)
	assert.Equal(t, workflow.StatusDelivered, result.To)

	for _, item := range order.Items {
		assert.Equal(t, item.Quantity, item.DeliveredQuantity)
		assert.True(t, item.FullyDelivered())
	}
	// The pre-stamped item keeps its original handover record.
	assert.Equal(t, alreadyStamped, *order.Items[0].DeliveredAt)
	assert.Equal(t, "w0", order.Items[0].DeliveredBy)
	assert.Equal(t, firstAt, *order.Items[1].DeliveredAt)
	assert.Equal(t, "w1", order.Items[1].DeliveredBy)
}

func TestLegacyStatusNamesAccepted(t *testing.T) {
	chef := workflow.Actor{ID: "c1", Role: workflow.RoleChef}

	// Rows written before the rename still carry the old status names.
	order := newOrder("waiter_accepted")
	result, err := workflow.Apply(order, workflow.Request{Action: workflow.ActionStart, By: chef})
	assert.NoError(t, err)
	assert.Equal(t, workflow.StatusQueued, result.From)
	assert.Equal(t, workflow.StatusPreparing, result.To)
}

func TestUnknownActionAndStatus(t *testing.T) {
	waiter := workflow.Actor{ID: "w1", Role: workflow.RoleWaiter}

	order := newOrder(workflow.StatusNew)
	_, err := workflow.Apply(order, workflow.Request{Action: "teleport", By: waiter})
	assert.ErrorIs(t, err, workflow.ErrUnknownAction)

	order.WorkflowStatus = "limbo"
	_, err = workflow.Apply(order, workflow.Request{Action: workflow.ActionAccept, By: waiter})
	assert.ErrorIs(t, err, workflow.ErrUnknownStatus)
}

func TestExtraPermissionGrant(t *testing.T) {
	// A custom role with an explicit grant can run the edge its base
	// role could not.
	runner := workflow.Actor{
		ID:    "r1",
		Role:  "runner",
		Extra: workflow.PermissionSet{workflow.OrdersDeliver: true},
	}
	order := newOrder(workflow.StatusReady)
	result, err := workflow.Apply(order, workflow.Request{Action: workflow.ActionDeliver, By: runner})
	assert.NoError(t, err)
	assert.Equal(t, workflow.StatusDelivered, result.To)
}

func TestAllowedActionsMatchesApply(t *testing.T) {
	// Whatever AllowedActions offers must succeed in Apply, and whatever
	// it omits must fail. Button visibility and enforcement share one
	// table; this pins that.
	actors := []workflow.Actor{
		{ID: "a1", Role: workflow.RoleAdmin},
		{ID: "w1", Role: workflow.RoleWaiter},
		{ID: "c1", Role: workflow.RoleChef},
		{ID: "p1", Role: workflow.RoleCashier},
		{ID: "u1", Role: workflow.RoleClient},
	}
	statuses := []workflow.Status{
		workflow.StatusNew, workflow.StatusQueued, workflow.StatusPreparing,
		workflow.StatusReady, workflow.StatusDelivered, workflow.StatusAwaitingPayment,
	}
	allActions := []workflow.Action{
		workflow.ActionAccept, workflow.ActionStart, workflow.ActionReady,
		workflow.ActionDeliver, workflow.ActionRequestPayment, workflow.ActionPay,
		workflow.ActionCancel,
	}

	for _, actor := range actors {
		for _, status := range statuses {
			allowed := make(map[workflow.Action]bool)
			for _, a := range workflow.AllowedActions(status, actor) {
				allowed[a] = true
			}
			for _, action := range allActions {
				order := newOrder(status)
				_, err := workflow.Apply(order, workflow.Request{
					Action:        action,
					By:            actor,
					Justification: "spilled at the pass",
				})
				if allowed[action] {
					assert.NoError(t, err, "%s should %s a %s order", actor.Role, action, status)
				} else if err == nil {
					// The only permitted success outside the offered set is
					// the idempotent re-application of the current status.
					current, _ := workflow.Canonical(order.WorkflowStatus)
					assert.Equal(t, status, current, "%s %s on %s mutated the order", actor.Role, action, status)
				}
			}
		}
	}
}

func TestAdminWalksWholeWorkflow(t *testing.T) {
	admin := workflow.Actor{ID: "a1", Role: workflow.RoleAdmin}
	order := newOrder(workflow.StatusNew)

	for _, action := range []workflow.Action{
		workflow.ActionAccept, workflow.ActionStart, workflow.ActionReady,
		workflow.ActionDeliver, workflow.ActionRequestPayment, workflow.ActionPay,
	} {
		result, err := workflow.Apply(order, workflow.Request{Action: action, By: admin})
		assert.NoError(t, err)
		assert.True(t, result.Changed)
	}
	assert.Equal(t, string(workflow.StatusPaid), order.WorkflowStatus)
}
