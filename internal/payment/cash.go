package payment

import (
	"fmt"

	"github.com/google/uuid"

	"pronto-core/internal/models"
)

// CashGateway settles cash and terminal-card payments: the money changed
// hands at the counter, so the charge is a bookkeeping step that always
// succeeds. A receipt reference is generated when the cashier did not
// supply one.
type CashGateway struct{}

func (CashGateway) Charge(session *models.Session, reference string) (string, error) {
	if reference != "" {
		return reference, nil
	}
	return fmt.Sprintf("cash-%s", uuid.NewString()), nil
}
