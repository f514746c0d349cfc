package notify

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Event is one message on the live feed.
type Event struct {
	Type    string `json:"type"`
	OrderID string `json:"orderId,omitempty"`
	Item    string `json:"item,omitempty"`
	Amount  int    `json:"amount,omitempty"`
	Cost    string `json:"cost,omitempty"`
	Message string `json:"message,omitempty"`
}

// Conn wraps a websocket connection with a write lock. gorilla/websocket
// permits at most one concurrent writer per connection, and feed events
// arrive from many goroutines.
type Conn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

// WriteJSON serializes writes to the underlying connection.
func (c *Conn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteJSON(v)
}

func (c *Conn) Close() error { return c.ws.Close() }

// Hub tracks connected players and pushes feed events to them. A player
// may hold several connections; a player with none is offline and targeted
// messages fall back to mail.
type Hub struct {
	Log zerolog.Logger

	mu    sync.RWMutex
	conns map[uuid.UUID]map[*Conn]struct{}
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		Log:   log,
		conns: make(map[uuid.UUID]map[*Conn]struct{}),
	}
}

// Register wraps ws for serialized writes and adds it to the player's
// connection set. All writes after registration must go through the
// returned Conn.
func (h *Hub) Register(player uuid.UUID, ws *websocket.Conn) *Conn {
	conn := &Conn{ws: ws}
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.conns[player]
	if !ok {
		set = make(map[*Conn]struct{})
		h.conns[player] = set
	}
	set[conn] = struct{}{}
	return conn
}

func (h *Hub) Unregister(player uuid.UUID, conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.conns[player]; ok {
		delete(set, conn)
		if len(set) == 0 {
			delete(h.conns, player)
		}
	}
}

// Online reports whether the player has at least one live feed connection.
func (h *Hub) Online(player uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[player]) > 0
}

// OnlinePlayers snapshots the currently connected player ids.
func (h *Hub) OnlinePlayers() []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]uuid.UUID, 0, len(h.conns))
	for player := range h.conns {
		out = append(out, player)
	}
	return out
}

// Send pushes an event to every connection a player holds. Reports whether
// the player was reachable at all. Write failures drop the dead connection.
func (h *Hub) Send(player uuid.UUID, ev Event) bool {
	h.mu.RLock()
	set := h.conns[player]
	conns := make([]*Conn, 0, len(set))
	for conn := range set {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	if len(conns) == 0 {
		return false
	}
	for _, conn := range conns {
		if err := conn.WriteJSON(ev); err != nil {
			h.Log.Debug().Err(err).
				Str("player", player.String()).
				Msg("feed write failed, dropping connection")
			conn.Close()
			h.Unregister(player, conn)
		}
	}
	return true
}
