package workflow

import (
	"errors"
	"fmt"
	"time"

	"pronto-core/internal/models"
)

// Action is a workflow verb an actor can apply to an order.
type Action string

const (
	ActionAccept         Action = "accept"
	ActionStart          Action = "start"
	ActionReady          Action = "ready"
	ActionDeliver        Action = "deliver"
	ActionRequestPayment Action = "request_payment"
	ActionPay            Action = "pay"
	ActionCancel         Action = "cancel"
)

var (
	ErrInvalidTransition     = errors.New("invalid transition")
	ErrForbidden             = errors.New("forbidden")
	ErrJustificationRequired = errors.New("justification required")
	ErrUnknownStatus         = errors.New("unknown order status")
	ErrUnknownAction         = errors.New("unknown action")
)

type edge struct {
	target Status
	// any one of these permissions allows the edge
	capabilities []Permission
	// late-stage cancels must say why
	requiresJustification bool
}

// transitions is the fixed edge set of the order workflow. Cancelling a
// new or queued order is open to customers; once the kitchen has the
// order, cancellation needs the staff cancel capability plus a reason.
var transitions = map[Status]map[Action]edge{
	StatusNew: {
		ActionAccept: {target: StatusQueued, capabilities: []Permission{OrdersAccept}},
		ActionCancel: {target: StatusCancelled, capabilities: []Permission{OrdersCancel, OrdersCancelOwn}},
	},
	StatusQueued: {
		ActionStart:  {target: StatusPreparing, capabilities: []Permission{KitchenStart}},
		ActionCancel: {target: StatusCancelled, capabilities: []Permission{OrdersCancel, OrdersCancelOwn}},
	},
	StatusPreparing: {
		ActionReady:  {target: StatusReady, capabilities: []Permission{KitchenComplete}},
		ActionCancel: {target: StatusCancelled, capabilities: []Permission{OrdersCancel}, requiresJustification: true},
	},
	StatusReady: {
		ActionDeliver: {target: StatusDelivered, capabilities: []Permission{OrdersDeliver}},
		ActionCancel:  {target: StatusCancelled, capabilities: []Permission{OrdersCancel}, requiresJustification: true},
	},
	StatusDelivered: {
		ActionRequestPayment: {target: StatusAwaitingPayment, capabilities: []Permission{PaymentsProcess}},
		ActionCancel:         {target: StatusCancelled, capabilities: []Permission{OrdersCancel}, requiresJustification: true},
	},
	StatusAwaitingPayment: {
		ActionPay:    {target: StatusPaid, capabilities: []Permission{PaymentsProcess}},
		ActionCancel: {target: StatusCancelled, capabilities: []Permission{OrdersCancel}, requiresJustification: true},
	},
}

// actionTargets maps each action to the status it lands on, used both
// for the idempotent re-application check and the capability gate that
// applies regardless of the order's current status.
var actionTargets = map[Action]Status{
	ActionAccept:         StatusQueued,
	ActionStart:          StatusPreparing,
	ActionReady:          StatusReady,
	ActionDeliver:        StatusDelivered,
	ActionRequestPayment: StatusAwaitingPayment,
	ActionPay:            StatusPaid,
	ActionCancel:         StatusCancelled,
}

var actionCapabilities = map[Action][]Permission{
	ActionAccept:         {OrdersAccept},
	ActionStart:          {KitchenStart},
	ActionReady:          {KitchenComplete},
	ActionDeliver:        {OrdersDeliver},
	ActionRequestPayment: {PaymentsProcess},
	ActionPay:            {PaymentsProcess},
	ActionCancel:         {OrdersCancel, OrdersCancelOwn},
}

// Request carries one transition attempt.
type Request struct {
	Action        Action
	Justification string
	By            Actor
	At            time.Time // zero means now
}

// Result describes what Apply did to the order.
type Result struct {
	Changed bool
	From    Status
	To      Status
}

// Apply validates and executes a workflow transition on the order in
// memory. Either the whole transition (status, timestamps, delivery
// stamps) is applied or the order is left untouched; the caller owns
// persisting the mutation atomically.
//
// Re-applying an action whose target the order already reached returns
// Changed=false with no error: duplicate taps from the UI are expected
// and must not surface as failures.
func Apply(order *models.Order, req Request) (Result, error) {
	target, ok := actionTargets[req.Action]
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownAction, req.Action)
	}

	current, ok := Canonical(order.WorkflowStatus)
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownStatus, order.WorkflowStatus)
	}

	// Capability is checked before anything else: a chef poking at the
	// cashier's buttons gets Forbidden no matter what state the order
	// is in.
	if !req.By.canAny(actionCapabilities[req.Action]) {
		return Result{}, fmt.Errorf("%w: role %q cannot %s", ErrForbidden, req.By.Role, req.Action)
	}

	if current == target {
		return Result{Changed: false, From: current, To: current}, nil
	}

	e, ok := transitions[current][req.Action]
	if !ok {
		return Result{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, req.Action)
	}
	if !req.By.canAny(e.capabilities) {
		return Result{}, fmt.Errorf("%w: role %q cannot %s an order that is %s", ErrForbidden, req.By.Role, req.Action, current)
	}
	if e.requiresJustification && req.Justification == "" {
		return Result{}, fmt.Errorf("%w: cancelling a %s order", ErrJustificationRequired, current)
	}

	now := req.At
	if now.IsZero() {
		now = time.Now().UTC()
	}

	order.WorkflowStatus = string(e.target)
	order.UpdatedAt = now
	if req.Action == ActionCancel {
		order.CancelReason = req.Justification
	}
	if e.target == StatusDelivered {
		stampDelivery(order, req.By.ID, now)
	}

	return Result{Changed: true, From: current, To: e.target}, nil
}

// CanApply reports whether the actor could run the action on an order in
// the given status. The view projector uses this to decide button
// visibility, so visibility and enforcement share one table.
func CanApply(status Status, action Action, actor Actor) bool {
	e, ok := transitions[status][action]
	if !ok {
		return false
	}
	return actor.canAny(e.capabilities)
}

// AllowedActions lists every action the actor could apply to an order in
// the given status, in workflow order.
func AllowedActions(status Status, actor Actor) []Action {
	ordered := []Action{ActionAccept, ActionStart, ActionReady, ActionDeliver, ActionRequestPayment, ActionPay, ActionCancel}
	var allowed []Action
	for _, a := range ordered {
		if CanApply(status, a, actor) {
			allowed = append(allowed, a)
		}
	}
	return allowed
}

// stampDelivery marks every item fully delivered and records who handed
// it over. Items already stamped keep their original timestamp, so a
// repeated delivery never double-stamps.
func stampDelivery(order *models.Order, actorID string, at time.Time) {
	for _, item := range order.Items {
		item.DeliveredQuantity = item.Quantity
		if item.DeliveredAt == nil {
			t := at
			item.DeliveredAt = &t
			item.DeliveredBy = actorID
		}
	}
}
