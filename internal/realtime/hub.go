// Package realtime pushes change hints to connected dashboards over a
// websocket so open views know to re-fetch. The hints are cache-refresh
// triggers only; a client that misses one just stays stale until its next
// poll, nothing breaks.
package realtime

import (
	"encoding/json"
	"net/http"
	"sync"

	"balepos/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
	log     *zap.Logger

	upgrader websocket.Upgrader
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]bool),
		log:     log,
		upgrader: websocket.Upgrader{
			// The dashboard may be served from another origin in dev.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Serve upgrades the request and holds the connection until the client
// hangs up. Clients never send anything meaningful; reading just detects
// the close.
func (h *Hub) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Notify implements store.Notifier: fan a change hint out to every
// connected client. A client that errors is dropped on the spot.
func (h *Hub) Notify(change store.Change) {
	data, err := json.Marshal(change)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.log.Debug("websocket client dropped", zap.Error(err))
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

// Close hangs up on every client, used at shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}
