package workflow

// Status is the lifecycle stage of a single order, independent of the
// owning session's payment status.
type Status string

const (
	StatusNew             Status = "new"
	StatusQueued          Status = "queued"
	StatusPreparing       Status = "preparing"
	StatusReady           Status = "ready"
	StatusDelivered       Status = "delivered"
	StatusAwaitingPayment Status = "awaiting_payment"
	StatusPaid            Status = "paid"
	StatusCancelled       Status = "cancelled"
)

// legacyAliases maps status names still produced by older clients and
// rows written before the rename to their canonical form. The inverse
// mapping is derived from this table, never maintained by hand.
var legacyAliases = map[Status]Status{
	"requested":           StatusNew,
	"waiter_accepted":     StatusQueued,
	"kitchen_in_progress": StatusPreparing,
	"ready_for_delivery":  StatusReady,
	"wait_for_payment":    StatusAwaitingPayment,
	"payed":               StatusPaid,
}

var canonicalToLegacy = func() map[Status]Status {
	inv := make(map[Status]Status, len(legacyAliases))
	for legacy, canonical := range legacyAliases {
		inv[canonical] = legacy
	}
	return inv
}()

// Canonical normalizes a stored or submitted status, accepting both the
// canonical names and the legacy aliases.
func Canonical(s string) (Status, bool) {
	status := Status(s)
	if canonical, ok := legacyAliases[status]; ok {
		return canonical, true
	}
	if _, ok := statusSet[status]; ok {
		return status, true
	}
	return "", false
}

// LegacyAlias returns the pre-rename name of a canonical status, or the
// status itself when it never had an alias.
func LegacyAlias(s Status) Status {
	if legacy, ok := canonicalToLegacy[s]; ok {
		return legacy
	}
	return s
}

// StoredForms returns every string a status may appear as in the
// database: the canonical name plus its legacy alias when one exists.
func StoredForms(s Status) []string {
	forms := []string{string(s)}
	if legacy, ok := canonicalToLegacy[s]; ok {
		forms = append(forms, string(legacy))
	}
	return forms
}

var statusSet = map[Status]struct{}{
	StatusNew:             {},
	StatusQueued:          {},
	StatusPreparing:       {},
	StatusReady:           {},
	StatusDelivered:       {},
	StatusAwaitingPayment: {},
	StatusPaid:            {},
	StatusCancelled:       {},
}

// Terminal reports whether no further workflow action can apply.
func (s Status) Terminal() bool {
	return s == StatusPaid || s == StatusCancelled
}

// StatusLabels carries the display strings attached to a status for each
// audience. The restaurant UI is Spanish-first.
type StatusLabels struct {
	Client   string `json:"client_label"`
	Employee string `json:"employee_label"`
}

var statusLabels = map[Status]StatusLabels{
	StatusNew:             {Client: "Orden creada", Employee: "Esperando mesero"},
	StatusQueued:          {Client: "En proceso", Employee: "Enviando a cocina"},
	StatusPreparing:       {Client: "Preparando tu orden", Employee: "En cocina"},
	StatusReady:           {Client: "Lista", Employee: "Listo entrega"},
	StatusDelivered:       {Client: "Entregada", Employee: "Entregado"},
	StatusAwaitingPayment: {Client: "Pendiente de pago", Employee: "Esperando pago"},
	StatusPaid:            {Client: "Pagada", Employee: "Pagada"},
	StatusCancelled:       {Client: "Cancelada", Employee: "Cancelada"},
}

// LabelsFor returns the display labels for a status, falling back to the
// raw status name for anything unknown.
func LabelsFor(s Status) StatusLabels {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return StatusLabels{Client: string(s), Employee: string(s)}
}
