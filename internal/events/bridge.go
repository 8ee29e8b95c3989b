package events

import (
	"fmt"

	"pronto-core/internal/logger"
	"pronto-core/internal/models"
	"pronto-core/internal/workflow"
)

// defaultAudience maps each event type to the role consoles that care
// about it. Admin sees everything.
var defaultAudience = map[string][]string{
	models.EventOrderPlaced:       {workflow.RoleWaiter, workflow.RoleAdmin},
	models.EventStatusChanged:     {workflow.RoleWaiter, workflow.RoleChef, workflow.RoleClient, workflow.RoleAdmin},
	models.EventCheckoutRequested: {workflow.RoleWaiter, workflow.RoleCashier, workflow.RoleAdmin},
	models.EventTipApplied:        {workflow.RoleCashier, workflow.RoleAdmin},
	models.EventPaymentRecorded:   {workflow.RoleCashier, workflow.RoleWaiter, workflow.RoleAdmin},
	models.EventOrderCancelled:    {workflow.RoleWaiter, workflow.RoleChef, workflow.RoleClient, workflow.RoleAdmin},
	models.EventWaiterCalled:      {workflow.RoleWaiter, workflow.RoleAdmin},
}

// Bridge is the injected notification service: every published event is
// appended to the durable log (the polling side) and then fanned out to
// live SSE subscribers. Publication failures are logged, never fatal;
// the next full-state poll supersedes anything lost.
type Bridge struct {
	Log    *Log
	Hub    *Hub
	Logger *logger.Logger
}

func NewBridge(log *Log, hub *Hub, lg *logger.Logger) *Bridge {
	return &Bridge{Log: log, Hub: hub, Logger: lg}
}

// Publish appends the event and notifies its audience. When no explicit
// roles are given the default audience for the event type applies.
func (b *Bridge) Publish(ev models.DomainEvent, roles ...string) {
	if len(roles) == 0 {
		roles = defaultAudience[ev.Type]
	}

	appended, err := b.Log.Append(ev)
	if err != nil {
		if b.Logger != nil {
			b.Logger.Error("EVENTS", fmt.Sprintf("failed to append %s event: %v", ev.Type, err))
		}
		// still fan out the un-cursored event so live consoles update
		appended = ev
	}

	b.Hub.Emit(appended, roles...)
}
