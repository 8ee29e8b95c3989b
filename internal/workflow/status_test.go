package workflow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pronto-core/internal/workflow"
)

func TestCanonicalAcceptsBothSpellings(t *testing.T) {
	cases := map[string]workflow.Status{
		"new":                 workflow.StatusNew,
		"requested":           workflow.StatusNew,
		"queued":              workflow.StatusQueued,
		"waiter_accepted":     workflow.StatusQueued,
		"preparing":           workflow.StatusPreparing,
		"kitchen_in_progress": workflow.StatusPreparing,
		"ready":               workflow.StatusReady,
		"ready_for_delivery":  workflow.StatusReady,
		"delivered":           workflow.StatusDelivered,
		"awaiting_payment":    workflow.StatusAwaitingPayment,
		"wait_for_payment":    workflow.StatusAwaitingPayment,
		"paid":                workflow.StatusPaid,
		"payed":               workflow.StatusPaid,
		"cancelled":           workflow.StatusCancelled,
	}
	for raw, want := range cases {
		got, ok := workflow.Canonical(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}

	_, ok := workflow.Canonical("limbo")
	assert.False(t, ok)
	_, ok = workflow.Canonical("")
	assert.False(t, ok)
}

func TestStoredFormsCoverLegacyRows(t *testing.T) {
	assert.ElementsMatch(t, []string{"queued", "waiter_accepted"}, workflow.StoredForms(workflow.StatusQueued))
	assert.ElementsMatch(t, []string{"paid", "payed"}, workflow.StoredForms(workflow.StatusPaid))
	// Statuses that never had an alias come back alone.
	assert.Equal(t, []string{"delivered"}, workflow.StoredForms(workflow.StatusDelivered))
	assert.Equal(t, []string{"cancelled"}, workflow.StoredForms(workflow.StatusCancelled))
}

func TestLegacyAliasRoundTrip(t *testing.T) {
	for _, s := range []workflow.Status{
		workflow.StatusNew, workflow.StatusQueued, workflow.StatusPreparing,
		workflow.StatusReady, workflow.StatusAwaitingPayment, workflow.StatusPaid,
	} {
		legacy := workflow.LegacyAlias(s)
		assert.NotEqual(t, s, legacy)
		canonical, ok := workflow.Canonical(string(legacy))
		assert.True(t, ok)
		assert.Equal(t, s, canonical)
	}
	assert.Equal(t, workflow.StatusDelivered, workflow.LegacyAlias(workflow.StatusDelivered))
}

func TestTerminal(t *testing.T) {
	assert.True(t, workflow.StatusPaid.Terminal())
	assert.True(t, workflow.StatusCancelled.Terminal())
	assert.False(t, workflow.StatusNew.Terminal())
	assert.False(t, workflow.StatusAwaitingPayment.Terminal())
}

func TestLabelsAreAudienceSpecific(t *testing.T) {
	labels := workflow.LabelsFor(workflow.StatusPreparing)
	assert.Equal(t, "Preparando tu orden", labels.Client)
	assert.Equal(t, "En cocina", labels.Employee)

	// Unknown statuses fall back to the raw name rather than blank.
	fallback := workflow.LabelsFor("limbo")
	assert.Equal(t, "limbo", fallback.Client)
	assert.Equal(t, "limbo", fallback.Employee)
}

func TestRoleDefaults(t *testing.T) {
	assert.True(t, workflow.Actor{Role: workflow.RoleWaiter}.Can(workflow.OrdersAccept))
	assert.False(t, workflow.Actor{Role: workflow.RoleWaiter}.Can(workflow.KitchenStart))
	assert.True(t, workflow.Actor{Role: workflow.RoleChef}.Can(workflow.KitchenComplete))
	assert.False(t, workflow.Actor{Role: workflow.RoleChef}.Can(workflow.PaymentsProcess))
	assert.True(t, workflow.Actor{Role: workflow.RoleCashier}.Can(workflow.PaymentsProcess))
	assert.True(t, workflow.Actor{Role: workflow.RoleClient}.Can(workflow.OrdersCancelOwn))
	assert.False(t, workflow.Actor{Role: workflow.RoleClient}.Can(workflow.OrdersCancel))
	// Unknown roles start with nothing.
	assert.False(t, workflow.Actor{Role: "runner"}.Can(workflow.OrdersView))
	assert.Nil(t, workflow.RoleDefaults("runner"))
}
