// The hub is the central event loop: it owns the client map and the
// connection registry, and is the only goroutine that touches them.
// Handlers talk to it through the register/unregister/deliver channels.
package realtime

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // same-origin enforcement is left to the reverse proxy
	},
}

type envelope struct {
	userID  int64
	payload []byte
}

type Hub struct {
	registry   *Registry
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	deliver    chan envelope
}

func NewHub() *Hub {
	return &Hub{
		registry:   NewRegistry(),
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan envelope),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			// One connection per user: a new register replaces the old one.
			if oldID, ok := h.registry.Lookup(c.userID); ok {
				if old, live := h.clients[oldID]; live {
					close(old.send)
					delete(h.clients, oldID)
				}
			}
			h.clients[c.id] = c
			h.registry.Register(c.userID, c.id)

		case c := <-h.unregister:
			if _, ok := h.clients[c.id]; ok {
				close(c.send)
				delete(h.clients, c.id)
			}
			h.registry.Unregister(c.id)

		case env := <-h.deliver:
			connID, ok := h.registry.Lookup(env.userID)
			if !ok {
				break // receiver not connected, message stays poll-only
			}
			c, ok := h.clients[connID]
			if !ok {
				break
			}
			select {
			case c.send <- env.payload:
			default:
				// Slow consumer: drop the connection rather than block the loop.
				close(c.send)
				delete(h.clients, c.id)
				h.registry.Unregister(c.id)
			}
		}
	}
}

// Push delivers event to userID's connection if one is registered. There is
// no queuing and no acknowledgment: an offline receiver gets nothing here
// and reads the persisted record over REST instead.
func (h *Hub) Push(userID int64, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("[realtime] marshal event: %v", err)
		return
	}
	h.deliver <- envelope{userID: userID, payload: payload}
}

// ServeWS upgrades the request and registers the connection for userID.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID int64) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return // Upgrade already wrote the error response
	}

	client := &Client{
		id:     uuid.NewString(),
		userID: userID,
		hub:    h,
		socket: conn,
		send:   make(chan []byte, 16),
	}
	h.register <- client

	go client.read()
	go client.write()
}
