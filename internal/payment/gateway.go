package payment

import (
	"errors"
	"fmt"
	"time"

	"pronto-core/internal/models"
)

// ErrExternalTimeout is returned when the payment collaborator does not
// answer within the bounded window. The session stays awaiting_payment;
// the cashier re-presses charge to retry.
var ErrExternalTimeout = errors.New("payment gateway timeout")

// Gateway charges a session's total through an external collaborator and
// returns the provider's payment reference. Implementations must respect
// the bounded-timeout contract: block at most their configured timeout,
// then fail with ErrExternalTimeout.
type Gateway interface {
	Charge(session *models.Session, reference string) (string, error)
}

// Registry resolves the gateway for a payment method.
type Registry struct {
	gateways map[string]Gateway
}

func NewRegistry() *Registry {
	return &Registry{gateways: make(map[string]Gateway)}
}

func (r *Registry) Register(method string, gw Gateway) {
	r.gateways[method] = gw
}

func (r *Registry) For(method string) (Gateway, error) {
	gw, ok := r.gateways[method]
	if !ok {
		return nil, fmt.Errorf("unsupported payment method %q", method)
	}
	return gw, nil
}

// charge runs fn with a hard deadline. The in-flight call is abandoned
// on timeout rather than cancelled; its eventual result is discarded.
func chargeWithTimeout(timeout time.Duration, fn func() (string, error)) (string, error) {
	type outcome struct {
		ref string
		err error
	}
	done := make(chan outcome, 1)

	go func() {
		ref, err := fn()
		done <- outcome{ref: ref, err: err}
	}()

	select {
	case out := <-done:
		return out.ref, out.err
	case <-time.After(timeout):
		return "", ErrExternalTimeout
	}
}
