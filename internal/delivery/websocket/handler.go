package websocket

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"pillar-backend/internal/domain"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // tokens authenticate the stream, not origins
	},
}

// TokenValidator resolves a session token to its session ID.
type TokenValidator interface {
	ValidateToken(token string) (string, error)
}

// SessionLookup confirms a session still exists.
type SessionLookup interface {
	Get(ctx context.Context, sessionID string) (domain.PivotConfig, error)
}

type client struct {
	conn *websocket.Conn
	send chan domain.Result
}

// Hub streams each session's evaluation results to its connected clients.
type Hub struct {
	tokens   TokenValidator
	sessions SessionLookup
	clients  map[string]map[*client]struct{}
	latest   map[string]domain.Result
	mu       sync.RWMutex
}

func NewHub(tokens TokenValidator, sessions SessionLookup) *Hub {
	return &Hub{
		tokens:   tokens,
		sessions: sessions,
		clients:  make(map[string]map[*client]struct{}),
		latest:   make(map[string]domain.Result),
	}
}

// Publish fans res out to the session's clients. Slow clients miss results
// rather than block the caller.
func (h *Hub) Publish(sessionID string, res domain.Result) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.latest[sessionID] = res
	for c := range h.clients[sessionID] {
		select {
		case c.send <- res:
		default:
			log.Warn().Str("session", sessionID).Msg("websocket client lagging, result dropped")
		}
	}
}

// Clients counts connections for a session.
func (h *Hub) Clients(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}

// Forget drops a session's cached result and disconnects its clients.
func (h *Hub) Forget(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.latest, sessionID)
	for c := range h.clients[sessionID] {
		close(c.send)
	}
	delete(h.clients, sessionID)
}

// register adds c and queues the latest result under the same lock, so a
// concurrent Publish always lands after the replay. c.send is fresh and
// buffered, so the send cannot block.
func (h *Hub) register(sessionID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[sessionID] == nil {
		h.clients[sessionID] = make(map[*client]struct{})
	}
	h.clients[sessionID][c] = struct{}{}
	if res, ok := h.latest[sessionID]; ok {
		c.send <- res
	}
}

func (h *Hub) unregister(sessionID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if set, ok := h.clients[sessionID]; ok {
		if _, ok := set[c]; ok {
			delete(set, c)
			close(c.send)
		}
		if len(set) == 0 {
			delete(h.clients, sessionID)
		}
	}
}

// ServeHTTP upgrades /ws?token=... and streams results until the client leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID, err := h.tokens.ValidateToken(r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
		return
	}
	if _, err := h.sessions.Get(r.Context(), sessionID); err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			http.Error(w, "Session not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("session", sessionID).Msg("websocket session lookup failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &client{conn: conn, send: make(chan domain.Result, sendBuffer)}
	h.register(sessionID, c)
	log.Info().Str("session", sessionID).Msg("websocket client connected")

	go h.readPump(sessionID, c)
	h.writePump(c)

	log.Info().Str("session", sessionID).Msg("websocket client disconnected")
}

// readPump discards client frames and unregisters on close.
func (h *Hub) readPump(sessionID string, c *client) {
	defer h.unregister(sessionID, c)

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
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
		c.conn.Close()
	}()

	for {
		select {
		case res, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(res); err != nil {
				log.Debug().Err(err).Msg("websocket write failed")
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
