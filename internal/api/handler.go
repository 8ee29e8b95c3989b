package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"pronto-core/internal/auth"
	"pronto-core/internal/events"
	"pronto-core/internal/logger"
	"pronto-core/internal/models"
	"pronto-core/internal/order"
	"pronto-core/internal/session"
	"pronto-core/internal/storage"
	"pronto-core/internal/tables"
	"pronto-core/internal/view"
	"pronto-core/internal/workflow"
)

// Handler is the thin route layer over the order/session core. It
// decodes requests, resolves the actor and maps domain errors to HTTP;
// all decisions live in the services underneath.
type Handler struct {
	Orders   *order.Service
	Sessions *session.Service
	Store    *storage.DB
	Bridge   *events.Bridge
	QR       *tables.QRGenerator
	Logger   *logger.Logger
}

func actorOr(r *http.Request, fallback string) workflow.Actor {
	if actor, ok := auth.ActorFromContext(r.Context()); ok {
		return actor
	}
	return workflow.Actor{Role: fallback}
}

// ---------------- SESSIONS ----------------

func (h *Handler) OpenSession(w http.ResponseWriter, r *http.Request) {
	var req models.OpenSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	sess, err := h.Sessions.Open(req.TableNumber)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("OpenSession table %d: %v", req.TableNumber, err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")

	sess, err := h.Sessions.Get(sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *Handler) RequestCheckout(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	h.Logger.Info("API", fmt.Sprintf("RequestCheckout: session=%s", sessionID))

	sess, err := h.Sessions.RequestCheckout(sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *Handler) ApplyTip(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")

	var req models.TipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	sess, err := h.Sessions.ApplyTip(sessionID, req.Amount, req.Percentage, actorOr(r, workflow.RoleClient))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")

	var req models.PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	sess, err := h.Sessions.RecordPayment(sessionID, req.Method, req.Reference, actorOr(r, workflow.RoleClient))
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("RecordPayment session=%s: %v", sessionID, err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// ---------------- ORDERS ----------------

func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")

	var req models.PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	placed, err := h.Orders.Place(sessionID, req, actorOr(r, workflow.RoleClient))
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("PlaceOrder session=%s: %v", sessionID, err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, placed)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	o, err := h.Orders.Get(orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view.ProjectOrder(o, actorOr(r, workflow.RoleClient)))
}

func (h *Handler) TransitionOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	var req models.TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	actor := actorOr(r, workflow.RoleClient)
	o, result, err := h.Orders.Transition(orderID, workflow.Action(req.Action), req.Justification, actor)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("TransitionOrder order=%s action=%s role=%s: %v", orderID, req.Action, actor.Role, err))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Order   view.OrderView `json:"order"`
		Changed bool           `json:"changed"`
	}{view.ProjectOrder(o, actor), result.Changed})
}

func (h *Handler) GetOrderHistory(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	history, err := h.Store.GetOrderHistory(orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

// ---------------- ROLE VIEWS ----------------

var liveOrderStatuses = []workflow.Status{
	workflow.StatusNew, workflow.StatusQueued, workflow.StatusPreparing,
	workflow.StatusReady, workflow.StatusDelivered, workflow.StatusAwaitingPayment,
}

func (h *Handler) OrdersView(w http.ResponseWriter, r *http.Request) {
	actor := actorOr(r, workflow.RoleClient)

	orders, err := h.Store.ListOrdersByStatus(liveOrderStatuses...)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view.ProjectOrders(orders, actor))
}

func (h *Handler) SessionsView(w http.ResponseWriter, r *http.Request) {
	actor := actorOr(r, workflow.RoleClient)

	sessions, err := h.Store.ListSessionsByStatus(
		models.SessionOpen, models.SessionAwaitingTip, models.SessionAwaitingPayment)
	if err != nil {
		writeError(w, err)
		return
	}

	// cashier and admin also see checks settled within the last hour
	if actor.Role == workflow.RoleCashier || actor.Role == workflow.RoleAdmin {
		closed, err := h.Store.ListRecentlyClosedSessions(time.Now().Add(-1 * time.Hour))
		if err != nil {
			writeError(w, err)
			return
		}
		sessions = append(sessions, closed...)
	}

	writeJSON(w, http.StatusOK, view.ProjectSessions(sessions, actor))
}

// ---------------- TABLES ----------------

func (h *Handler) TableQR(w http.ResponseWriter, r *http.Request) {
	tableNumber, err := strconv.Atoi(chi.URLParam(r, "tableNumber"))
	if err != nil {
		http.Error(w, "invalid table number", http.StatusBadRequest)
		return
	}

	png, err := h.QR.GenerateTableQR(tableNumber)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (h *Handler) CallWaiter(w http.ResponseWriter, r *http.Request) {
	tableNumber, err := strconv.Atoi(chi.URLParam(r, "tableNumber"))
	if err != nil {
		http.Error(w, "invalid table number", http.StatusBadRequest)
		return
	}

	ev := models.DomainEvent{
		Type:    models.EventWaiterCalled,
		Payload: map[string]string{"table_number": strconv.Itoa(tableNumber)},
	}
	if sess, err := h.Store.GetOpenSessionByTable(tableNumber); err == nil {
		ev.SessionID = sess.ID
	}
	h.Bridge.Publish(ev)

	writeJSON(w, http.StatusAccepted, map[string]int{"table_number": tableNumber})
}
