package web

import (
	"fmt"
	"net/http"

	"github.com/mjbernaski/word-card/internal/hub"
)

// HandleEvents handles GET /events, a long-lived stream of live-update
// records, one `event:`/`data:` pair per committed change. An initial
// `connected` record carries the connection identity; missed events are not
// replayed, so reconnecting consumers re-fetch the full collection instead.
func (h *Handlers) HandleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sub := h.events.Subscribe()
	defer sub.Close()

	// Unblock Next when the observer goes away.
	go func() {
		<-r.Context().Done()
		sub.Close()
	}()

	writeRecord(w, hub.Event{Name: hub.EventConnected, Data: sub.ID()})
	flusher.Flush()
	h.log.Debug(r.Context(), "observer connected", "conn", sub.ID())

	for {
		ev, ok := sub.Next()
		if !ok {
			return
		}
		writeRecord(w, ev)
		flusher.Flush()
	}
}

func writeRecord(w http.ResponseWriter, ev hub.Event) {
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Name, ev.Data)
}
