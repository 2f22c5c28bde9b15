package app

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

const (
	writeWait      = time.Second
	clientQueueLen = 16
)

type hubClient struct {
	conn *websocket.Conn
	addr string
	send chan []byte
}

// Hub fans JSON messages out to every connected websocket client. Each
// client has its own queue and writer goroutine, so a stalled client never
// blocks Broadcast.
type Hub struct {
	mu      sync.Mutex
	clients map[*hubClient]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*hubClient]struct{})}
}

// ServeHTTP upgrades the request and keeps the client registered until it
// disconnects. Incoming messages are discarded.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("receiver: websocket upgrade error: %v", err)
		return
	}

	c := &hubClient{conn: conn, addr: conn.RemoteAddr().String(), send: make(chan []byte, clientQueueLen)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go c.writeLoop()
	defer h.remove(c)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("receiver: websocket error: %v", err)
			}
			return
		}
	}
}

// writeLoop drains the client queue until remove closes it.
func (c *hubClient) writeLoop() {
	for payload := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("receiver: websocket write to %s failed: %v", c.addr, err)
			// unblocks the read loop in ServeHTTP, which unregisters the client
			c.conn.Close()
			for range c.send {
			}
			return
		}
	}
}

// Broadcast queues an encoded JSON message for every client. A client whose
// queue is full misses the message.
func (h *Hub) Broadcast(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			log.Printf("receiver: websocket client %s is behind, dropping frame", c.addr)
		}
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) remove(c *hubClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		c.conn.Close()
	}
}
