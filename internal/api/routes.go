package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes mounts the public surface. The caller wraps the router in the
// auth middleware; table QR codes stay public because they are printed
// and scanned before any credential exists.
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	// --- Public routes ---
	r.Get("/api/tables/{tableNumber}/qr", h.TableQR)
	r.Post("/api/tables/{tableNumber}/call", h.CallWaiter)

	// --- Authenticated routes ---
	r.Group(func(r chi.Router) {
		if authMiddleware != nil {
			r.Use(authMiddleware)
		}

		r.Route("/api/sessions", func(r chi.Router) {
			r.Post("/", h.OpenSession)
			r.Get("/{sessionId}", h.GetSession)
			r.Post("/{sessionId}/orders", h.PlaceOrder)
			r.Post("/{sessionId}/checkout", h.RequestCheckout)
			r.Post("/{sessionId}/tip", h.ApplyTip)
			r.Post("/{sessionId}/payment", h.RecordPayment)
		})

		r.Route("/api/orders", func(r chi.Router) {
			r.Get("/{orderId}", h.GetOrder)
			r.Post("/{orderId}/transition", h.TransitionOrder)
			r.Get("/{orderId}/history", h.GetOrderHistory)
		})

		r.Route("/api/views", func(r chi.Router) {
			r.Get("/orders", h.OrdersView)
			r.Get("/sessions", h.SessionsView)
		})

		r.Get("/api/events", h.PollEvents)
		r.Get("/api/events/stream", h.StreamEvents)
	})

	return r
}
