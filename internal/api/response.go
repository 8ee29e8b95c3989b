package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"pronto-core/internal/order"
	"pronto-core/internal/payment"
	"pronto-core/internal/session"
	"pronto-core/internal/storage"
	"pronto-core/internal/workflow"
)

type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(APIResponse{
		Success:   status < http.StatusBadRequest,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
}

// writeError translates domain errors into HTTP statuses. Every error
// kind here is recoverable at this boundary; nothing is fatal to the
// process.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, workflow.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, session.ErrNotPayable),
		errors.Is(err, session.ErrTableBusy),
		errors.Is(err, session.ErrSessionClosed),
		errors.Is(err, session.ErrConcurrentUpdate),
		errors.Is(err, order.ErrSessionNotOpen):
		status = http.StatusConflict
	case errors.Is(err, workflow.ErrJustificationRequired),
		errors.Is(err, workflow.ErrUnknownAction),
		errors.Is(err, order.ErrEmptyOrder),
		errors.Is(err, order.ErrInvalidItem),
		errors.Is(err, session.ErrInvalidTip):
		status = http.StatusBadRequest
	case errors.Is(err, payment.ErrExternalTimeout):
		status = http.StatusGatewayTimeout
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(APIResponse{
		Success:   false,
		Error:     err.Error(),
		Timestamp: time.Now().UTC(),
	})
}
