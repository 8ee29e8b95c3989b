package workflow

// Permission is a named capability in the original scope:action format.
// The same table gates server-side enforcement and UI button visibility,
// so a projected view can never offer an action the engine would refuse.
type Permission string

const (
	OrdersView      Permission = "orders:view"
	OrdersAccept    Permission = "orders:accept"
	OrdersDeliver   Permission = "orders:deliver"
	OrdersCancel    Permission = "orders:cancel"
	OrdersCancelOwn Permission = "orders:cancel_own"
	KitchenView     Permission = "kitchen:view"
	KitchenStart    Permission = "kitchen:start"
	KitchenComplete Permission = "kitchen:complete"
	PaymentsView    Permission = "payments:view"
	PaymentsProcess Permission = "payments:process"
	PaymentsTip     Permission = "payments:tip"
)

// Built-in roles. RoleSystem is the internal actor used for implicit
// transitions such as moving delivered orders to awaiting_payment on
// checkout; it never arrives from a request.
const (
	RoleSystem  = "system"
	RoleAdmin   = "admin"
	RoleWaiter  = "waiter"
	RoleChef    = "chef"
	RoleCashier = "cashier"
	RoleClient  = "client"
)

type PermissionSet map[Permission]bool

func newSet(perms ...Permission) PermissionSet {
	set := make(PermissionSet, len(perms))
	for _, p := range perms {
		set[p] = true
	}
	return set
}

var allPermissions = newSet(
	OrdersView, OrdersAccept, OrdersDeliver, OrdersCancel, OrdersCancelOwn,
	KitchenView, KitchenStart, KitchenComplete,
	PaymentsView, PaymentsProcess, PaymentsTip,
)

// rolePermissions is the default capability grant per built-in role.
// Custom roles start empty and carry an explicit set on the actor.
var rolePermissions = map[string]PermissionSet{
	RoleSystem: allPermissions,
	RoleAdmin:  allPermissions,
	RoleWaiter: newSet(
		OrdersView, OrdersAccept, OrdersDeliver, OrdersCancel,
		PaymentsView, PaymentsTip,
	),
	RoleChef: newSet(
		OrdersView, KitchenView, KitchenStart, KitchenComplete,
	),
	RoleCashier: newSet(
		OrdersView, PaymentsView, PaymentsProcess, PaymentsTip,
	),
	RoleClient: newSet(
		OrdersView, OrdersCancelOwn,
	),
}

// Actor is the authenticated party attempting an action. Extra holds
// per-employee grants beyond the role defaults (custom roles).
type Actor struct {
	ID    string
	Role  string
	Extra PermissionSet
}

// SystemActor is used for implicit, server-initiated transitions.
var SystemActor = Actor{ID: "system", Role: RoleSystem}

// Can reports whether the actor holds the given permission, either from
// the role defaults or an explicit grant.
func (a Actor) Can(p Permission) bool {
	if a.Extra[p] {
		return true
	}
	return rolePermissions[a.Role][p]
}

func (a Actor) canAny(perms []Permission) bool {
	for _, p := range perms {
		if a.Can(p) {
			return true
		}
	}
	return false
}

// RoleDefaults exposes the default grant for a role; callers must treat
// the returned set as read-only.
func RoleDefaults(role string) PermissionSet {
	return rolePermissions[role]
}
