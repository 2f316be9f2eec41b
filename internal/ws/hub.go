package ws

import (
	"context"
	"encoding/json"
	"sync"

	"commust/internal/applog"
	"commust/internal/events"

	"github.com/gofiber/contrib/websocket"
)

// Conn is the subset of a websocket connection the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type Hub struct {
	Clients    map[Conn]bool
	Register   chan Conn
	Unregister chan Conn
	Broadcast  chan []byte
	mutex      sync.Mutex
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		Clients:    make(map[Conn]bool),
		Register:   make(chan Conn),
		Unregister: make(chan Conn),
		Broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
	}
}

// Join registers conn, or closes it when the hub has already stopped.
func (h *Hub) Join(conn Conn) {
	select {
	case h.Register <- conn:
	case <-h.done:
		conn.Close()
	}
}

// Leave unregisters conn. It never blocks once the hub has stopped.
func (h *Hub) Leave(conn Conn) {
	select {
	case h.Unregister <- conn:
	case <-h.done:
	}
}

// Run serves register, unregister and broadcast requests until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for conn := range h.Clients {
				conn.Close()
				delete(h.Clients, conn)
			}
			h.mutex.Unlock()
			return

		case conn := <-h.Register:
			h.mutex.Lock()
			h.Clients[conn] = true
			h.mutex.Unlock()
			applog.L().Debug().Int("clients", h.Count()).Msg("ws client connected")

		case conn := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.Clients[conn]; ok {
				delete(h.Clients, conn)
				conn.Close()
			}
			h.mutex.Unlock()

		case message := <-h.Broadcast:
			h.mutex.Lock()
			for conn := range h.Clients {
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					conn.Close()
					delete(h.Clients, conn)
				}
			}
			h.mutex.Unlock()
		}
	}
}

func (h *Hub) Count() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.Clients)
}

type catalogMessage struct {
	Type    string       `json:"type"`
	Action  string       `json:"action"`
	Product any          `json:"product"`
	User    events.Actor `json:"user"`
	Message string       `json:"message"`
}

// Publish broadcasts a catalog event to every connected client.
func (h *Hub) Publish(ctx context.Context, ev events.ProductEvent) error {
	msg, err := json.Marshal(catalogMessage{
		Type:    "catalog_update",
		Action:  ev.Type,
		Product: ev.Product,
		User:    ev.Actor,
		Message: ev.Message,
	})
	if err != nil {
		return err
	}
	select {
	case h.Broadcast <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
