package server

import (
	"net/http"
	"sync"

	"ShelfFM/core/player"
	"ShelfFM/logger"

	"github.com/gorilla/websocket"
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// EventHub fans player snapshots out to connected websocket clients.
type EventHub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]bool
}

// NewEventHub creates an empty hub.
func NewEventHub() *EventHub {
	return &EventHub{conns: make(map[*websocket.Conn]bool)}
}

// Broadcast pushes a snapshot to every client; dead connections are dropped.
func (hub *EventHub) Broadcast(snap player.Snapshot) {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	for conn := range hub.conns {
		if err := conn.WriteJSON(snap); err != nil {
			logger.Debug("dropping event client", logger.ErrorField(err))
			conn.Close()
			delete(hub.conns, conn)
		}
	}
}

// CloseAll disconnects every client; used on shutdown.
func (hub *EventHub) CloseAll() {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	for conn := range hub.conns {
		conn.Close()
		delete(hub.conns, conn)
	}
}

// EventsHandler upgrades the connection and streams player state changes.
// The current snapshot is sent immediately so clients render without waiting
// for the next transition.
func (h *APIHandler) EventsHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", logger.ErrorField(err))
		return
	}

	if err := conn.WriteJSON(h.engine.Snapshot()); err != nil {
		conn.Close()
		return
	}

	h.hub.mu.Lock()
	h.hub.conns[conn] = true
	h.hub.mu.Unlock()

	// Drain client frames so pings are answered; any read error unregisters.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.hub.mu.Lock()
				if h.hub.conns[conn] {
					conn.Close()
					delete(h.hub.conns, conn)
				}
				h.hub.mu.Unlock()
				return
			}
		}
	}()
}
