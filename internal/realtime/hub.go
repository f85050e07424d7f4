// Package realtime pushes notifications to connected browsers over websockets.
package realtime

import (
	"encoding/json"
	"net/http"
	"slices"
	"sync"
	"time"

	"fivem_tools/internal/metrics"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 16
)

// Message is the envelope written to sockets
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type client struct {
	id     string
	userID uint
	conn   *websocket.Conn
	send   chan []byte
}

// Hub tracks open sockets per user
type Hub struct {
	mu       sync.RWMutex
	clients  map[uint]map[string]*client
	upgrader websocket.Upgrader
}

// NewHub creates a hub accepting the given browser origins; "*" accepts any
func NewHub(allowedOrigins []string) *Hub {
	h := &Hub{clients: make(map[uint]map[string]*client)}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
		},
	}
	return h
}

// ServeWS upgrades the request and registers the socket for userID
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID uint) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &client{id: uuid.NewString(), userID: userID, conn: conn, send: make(chan []byte, sendBuffer)}
	h.register(c)
	logrus.WithFields(logrus.Fields{"user_id": userID, "client_id": c.id}).Debug("ws: connected")
	hello, _ := json.Marshal(Message{Type: "connected", Data: map[string]string{"client_id": c.id}})
	c.send <- hello
	go h.writePump(c)
	go h.readPump(c)
	return nil
}

// Publish queues msg on every socket of userID and returns how many received it
func (h *Hub) Publish(userID uint, msg Message) int {
	b, err := json.Marshal(msg)
	if err != nil {
		logrus.WithError(err).Error("ws: marshal message")
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := 0
	for _, c := range h.clients[userID] {
		select {
		case c.send <- b:
			delivered++
		default:
			// Slow reader, drop rather than block publishers
			logrus.WithField("client_id", c.id).Warn("ws: send buffer full")
		}
	}
	return delivered
}

// OnlineUsers returns the number of users with at least one open socket
func (h *Hub) OnlineUsers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Connections returns the number of open sockets
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.userID]
	if !ok {
		set = make(map[string]*client)
		h.clients[c.userID] = set
	}
	set[c.id] = c
	metrics.SocketsOpen.Inc()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.clients[c.userID]
	if _, ok := set[c.id]; !ok {
		return
	}
	delete(set, c.id)
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
	close(c.send)
	metrics.SocketsOpen.Dec()
}

// readPump drains client frames so pongs and close frames are processed
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
		logrus.WithFields(logrus.Fields{"user_id": c.userID, "client_id": c.id}).Debug("ws: closed")
	}()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
