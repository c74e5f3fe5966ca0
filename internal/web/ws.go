package web

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/mjbernaski/word-card/internal/hub"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type wsEvent struct {
	Event string `json:"event"`
	Data  string `json:"data,omitempty"`
}

// HandleWebsocket handles GET /ws, the same live-update stream as /events,
// framed as JSON messages for clients that already speak websocket.
func (h *Handlers) HandleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn(r.Context(), "websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sub := h.events.Subscribe()
	defer sub.Close()

	// The read pump only notices disconnects; clients send nothing.
	go func() {
		defer sub.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := conn.WriteJSON(wsEvent{Event: hub.EventConnected, Data: sub.ID()}); err != nil {
		return
	}

	for {
		ev, ok := sub.Next()
		if !ok {
			return
		}
		if err := conn.WriteJSON(wsEvent{Event: ev.Name, Data: ev.Data}); err != nil {
			return
		}
	}
}
