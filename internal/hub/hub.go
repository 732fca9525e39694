package hub

import (
	"encoding/json"
	"log"
	"sync"
)

// Message is the envelope pushed to connected browsers. Type is
// "fragment" for a widget HTML update or "reload" when the config
// changed and the whole page must re-render.
type Message struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
	HTML string `json:"html,omitempty"`
}

// Hub tracks connected browsers and fans fragment updates out to all
// of them. It is safe for concurrent use.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	mu         sync.RWMutex
}

// NewHub allocates a Hub. Call Run in a goroutine to start the event
// loop.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client, 16),
		unregister: make(chan *Client, 16),
		broadcast:  make(chan []byte, 256),
	}
}

// Run is the hub's main event loop. It must be executed in a dedicated
// goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			log.Printf("[hub] client %s connected", client.ID)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.send)
			}
			h.mu.Unlock()
			log.Printf("[hub] client %s disconnected", client.ID)

		case msg := <-h.broadcast:
			h.mu.RLock()
			for _, client := range h.clients {
				select {
				case client.send <- msg:
				default:
					// Slow consumer: drop the message to avoid blocking.
				}
			}
			h.mu.RUnlock()
		}
	}
}

// BroadcastFragment pushes one widget's new HTML to every client.
func (h *Hub) BroadcastFragment(id, html string) {
	h.send(Message{Type: "fragment", ID: id, HTML: html})
}

// BroadcastReload tells every client to reload the page.
func (h *Hub) BroadcastReload() {
	h.send(Message{Type: "reload"})
}

func (h *Hub) send(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[hub] marshal: %v", err)
		return
	}
	h.broadcast <- data
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Register enqueues a new client for addition to the hub.
func (h *Hub) Register(c *Client) {
	h.register <- c
}

// Unregister enqueues a client for removal from the hub.
func (h *Hub) Unregister(c *Client) {
	h.unregister <- c
}
