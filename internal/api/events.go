package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"pronto-core/internal/models"
	"pronto-core/internal/workflow"
)

// PollEvents serves the polling side of the notification bridge:
// everything after the client's cursor, plus the cursor to use next.
// Delivery is at-least-once; consoles dedupe by event id.
func (h *Handler) PollEvents(w http.ResponseWriter, r *http.Request) {
	cursor := r.URL.Query().Get("after_id")
	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)

	evs, next, err := h.Bridge.Log.After(cursor, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Events []models.DomainEvent `json:"events"`
		Cursor string               `json:"cursor"`
	}{Events: evs, Cursor: next})
}

// StreamEvents is the SSE side of the bridge: the client holds the
// connection open and receives its role's events as they happen. The
// event id field carries the log cursor so a reconnecting client can
// resume via PollEvents without a gap.
func (h *Handler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	actor := actorOr(r, workflow.RoleClient)

	w.Header().Set("Content-Type", "text/event-stream;charset=UTF-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	ctx := r.Context()
	eventChan := h.Bridge.Hub.Subscribe(ctx, actor.Role)

	fmt.Fprintf(w, "event: connected\ndata: {\"role\":%q}\n\n", actor.Role)
	flusher.Flush()

	h.Logger.Info("SSE", fmt.Sprintf("client connected as %s", actor.Role))

	for {
		select {
		case ev, ok := <-eventChan:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				h.Logger.Error("SSE", fmt.Sprintf("failed to serialize event %s: %v", ev.ID, err))
				continue
			}
			fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", ev.ID, ev.Type, data)
			flusher.Flush()

		case <-ctx.Done():
			h.Logger.Debug("SSE", fmt.Sprintf("client disconnected (%s)", actor.Role))
			return
		}
	}
}
