package server

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"emberfall/server/internal/telemetry"
)

const hubWriteWait = 10 * time.Second

// Hub fans per-tick simulation snapshots out to websocket observers. It is
// a read-only debugging surface; observers never influence the simulation.
type Hub struct {
	mu          sync.Mutex
	subscribers map[uint64]*observer
	nextID      atomic.Uint64
	logger      telemetry.Logger
	upgrader    websocket.Upgrader
}

type observer struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// NewHub builds an empty observer registry.
func NewHub(logger telemetry.Logger) *Hub {
	return &Hub{
		subscribers: make(map[uint64]*observer),
		logger:      logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

type stateFrame struct {
	Type string `json:"type"`
	Snapshot
	ServerTime int64 `json:"serverTime"`
}

// ServeWS upgrades the request and registers the connection as an observer.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		if h.logger != nil {
			h.logger.Printf("websocket upgrade failed: %v", err)
		}
		return
	}
	id := h.nextID.Add(1)
	sub := &observer{conn: conn}
	h.mu.Lock()
	h.subscribers[id] = sub
	h.mu.Unlock()

	// Drain (and discard) client messages so pings keep the connection
	// alive; any read error unregisters the observer.
	go func() {
		defer h.drop(id)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) drop(id uint64) {
	h.mu.Lock()
	sub, ok := h.subscribers[id]
	if ok {
		delete(h.subscribers, id)
	}
	h.mu.Unlock()
	if ok {
		_ = sub.conn.Close()
	}
}

// Broadcast pushes one snapshot frame to every observer. Slow or broken
// connections are dropped rather than stalling the tick loop.
func (h *Hub) Broadcast(snapshot Snapshot) {
	if h == nil {
		return
	}
	frame := stateFrame{Type: "state", Snapshot: snapshot, ServerTime: time.Now().UnixMilli()}

	h.mu.Lock()
	subs := make(map[uint64]*observer, len(h.subscribers))
	for id, sub := range h.subscribers {
		subs[id] = sub
	}
	h.mu.Unlock()

	for id, sub := range subs {
		sub.mu.Lock()
		_ = sub.conn.SetWriteDeadline(time.Now().Add(hubWriteWait))
		err := sub.conn.WriteJSON(frame)
		sub.mu.Unlock()
		if err != nil {
			if h.logger != nil {
				h.logger.Printf("observer %d dropped: %v", id, err)
			}
			h.drop(id)
		}
	}
}

// ObserverCount reports the live subscriber count, for the status endpoint.
func (h *Hub) ObserverCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}
