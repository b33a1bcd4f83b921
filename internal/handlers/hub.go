// internal/handlers/hub.go
package handlers

import (
	"context"
	"sync"

	"github.com/coder/websocket"
	"github.com/jason-s-yu/plagiarist/internal/game"
	"github.com/sirupsen/logrus"
)

const clientQueueSize = 64

// roomClient is one open room socket. Everything written to it goes through out, which
// the connection's write pump drains.
type roomClient struct {
	roomID   string
	playerID string
	conn     *websocket.Conn
	out      chan []byte
	cancel   context.CancelFunc // stops the pumps

	mu        sync.Mutex
	closeCode int
	closeMsg  string
}

// enqueue never blocks: rooms call the hub while holding their lock. A message that
// does not fit is dropped and the client can recover with sync_state.
func (c *roomClient) enqueue(data []byte) bool {
	select {
	case c.out <- data:
		return true
	default:
		return false
	}
}

// shutdown closes the socket with a custom code. The read pump then fails and the
// handler cleans up. Only the first call has an effect.
func (c *roomClient) shutdown(code int, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closeCode != 0 {
		return
	}
	c.closeCode, c.closeMsg = code, msg
	if c.conn != nil {
		go c.conn.Close(websocket.StatusCode(code), msg)
	}
}

func (c *roomClient) closeReason() (int, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeCode, c.closeMsg
}

// Hub routes room events to open sockets. It implements lobby.Broadcaster.
type Hub struct {
	logger *logrus.Logger

	mu    sync.RWMutex
	rooms map[string]map[string]*roomClient // room ID -> player ID -> client
}

func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{logger: logger, rooms: make(map[string]map[string]*roomClient)}
}

// register adds a connection for the player, replacing (and closing) an older one.
func (h *Hub) register(roomID, playerID string, conn *websocket.Conn, cancel context.CancelFunc) *roomClient {
	c := &roomClient{
		roomID:   roomID,
		playerID: playerID,
		conn:     conn,
		out:      make(chan []byte, clientQueueSize),
		cancel:   cancel,
	}

	h.mu.Lock()
	clients, ok := h.rooms[roomID]
	if !ok {
		clients = make(map[string]*roomClient)
		h.rooms[roomID] = clients
	}
	old := clients[playerID]
	clients[playerID] = c
	h.mu.Unlock()

	if old != nil {
		old.shutdown(ReplacedError, "opened in another window")
	}
	return c
}

// unregister removes c and reports whether it was still the player's current connection.
func (h *Hub) unregister(c *roomClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients := h.rooms[c.roomID]
	if clients[c.playerID] != c {
		return false
	}
	delete(clients, c.playerID)
	if len(clients) == 0 {
		delete(h.rooms, c.roomID)
	}
	return true
}

// Broadcast sends ev to every socket in the room.
func (h *Hub) Broadcast(roomID string, ev game.GameEvent) {
	data := game.EventBytes(ev)
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.rooms[roomID] {
		if !c.enqueue(data) {
			h.logger.Warnf("Room %s: dropped %s for slow client %s", roomID, ev.Type, c.playerID)
		}
	}
}

// SendToPlayer sends ev to one player's socket, if it is open.
func (h *Hub) SendToPlayer(roomID, playerID string, ev game.GameEvent) {
	h.sendRaw(roomID, playerID, game.EventBytes(ev))
}

func (h *Hub) sendRaw(roomID, playerID string, data []byte) {
	h.mu.RLock()
	c := h.rooms[roomID][playerID]
	h.mu.RUnlock()
	if c != nil && !c.enqueue(data) {
		h.logger.Warnf("Room %s: dropped message for slow client %s", roomID, playerID)
	}
}

// CloseRoom disconnects every socket in a removed room.
func (h *Hub) CloseRoom(roomID string) {
	h.mu.Lock()
	clients := h.rooms[roomID]
	delete(h.rooms, roomID)
	h.mu.Unlock()

	for _, c := range clients {
		c.shutdown(RoomClosedError, "room closed")
	}
}

// Connections counts the open sockets in a room.
func (h *Hub) Connections(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}
