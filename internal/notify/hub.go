package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// the storefront UI is served from another origin; the token query param authenticates
		return true
	},
}

// Message is the frame pushed to connected browsers.
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp"`
}

type envelope struct {
	sessionID string
	msg       Message
}

type client struct {
	sessionID string
	conn      *websocket.Conn
	send      chan Message
	hub       *Hub
}

// Hub fans messages out to the sockets of one session.
type Hub struct {
	clients    map[string]map[*client]bool
	broadcast  chan envelope
	register   chan *client
	unregister chan *client
	mutex      sync.RWMutex
	logger     *logrus.Logger
}

func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*client]bool),
		broadcast:  make(chan envelope, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		logger:     logger,
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for sid, set := range h.clients {
				for c := range set {
					close(c.send)
				}
				delete(h.clients, sid)
			}
			h.mutex.Unlock()
			return

		case c := <-h.register:
			h.mutex.Lock()
			if h.clients[c.sessionID] == nil {
				h.clients[c.sessionID] = make(map[*client]bool)
			}
			h.clients[c.sessionID][c] = true
			h.mutex.Unlock()
			h.logger.WithField("session_id", c.sessionID).Debug("notification socket connected")

		case c := <-h.unregister:
			h.remove(c)
			h.logger.WithField("session_id", c.sessionID).Debug("notification socket disconnected")

		case e := <-h.broadcast:
			h.mutex.Lock()
			for c := range h.clients[e.sessionID] {
				select {
				case c.send <- e.msg:
				default:
					delete(h.clients[e.sessionID], c)
					close(c.send)
				}
			}
			h.mutex.Unlock()
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	set := h.clients[c.sessionID]
	if _, ok := set[c]; ok {
		delete(set, c)
		close(c.send)
	}
	if len(set) == 0 {
		delete(h.clients, c.sessionID)
	}
}

// Publish queues a message for every socket of sessionID. Messages are dropped when the queue is full.
func (h *Hub) Publish(sessionID, messageType string, data interface{}) {
	m := Message{Type: messageType, Data: data, Timestamp: time.Now().Format(time.RFC3339)}
	select {
	case h.broadcast <- envelope{sessionID: sessionID, msg: m}:
	default:
		h.logger.WithField("session_id", sessionID).Warn("notification queue full, dropping message")
	}
}

// For returns a Notifier bound to one session.
func (h *Hub) For(sessionID string) Notifier {
	return sessionNotifier{hub: h, sessionID: sessionID}
}

type sessionNotifier struct {
	hub       *Hub
	sessionID string
}

func (s sessionNotifier) Notify(n Notification) {
	s.hub.Publish(s.sessionID, "notification", n)
}

func (h *Hub) ClientCount(sessionID string) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients[sessionID])
}

// ServeWS upgrades the request and attaches the socket to sessionID.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, sessionID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Error("failed to upgrade notification socket")
		return
	}
	c := &client{sessionID: sessionID, conn: conn, send: make(chan Message, 64), hub: h}
	h.register <- c

	go c.writePump()
	go c.readPump()
}

func (c *client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.WithError(err).Warn("notification socket error")
			}
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case m, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			data, err := json.Marshal(m)
			if err != nil {
				c.hub.logger.WithError(err).Error("failed to marshal notification")
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
