// Package live streams a player's game view over a websocket and accepts
// click and buy commands on the same connection.
package live

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/Eoha39/clicker-webapp/internal/catalog"
	"github.com/Eoha39/clicker-webapp/internal/game"
	"github.com/Eoha39/clicker-webapp/internal/session"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// SessionResolver finds the session for an upgrade request.
type SessionResolver func(r *http.Request) (*session.Session, error)

type HandlerConfig struct {
	Logger *log.Logger
	// AllowClick gates click commands per player; nil allows all.
	AllowClick func(playerID string) bool
}

type Handler struct {
	resolve    SessionResolver
	logger     *log.Logger
	allowClick func(string) bool
	upgrader   websocket.Upgrader
}

// clientMessage is a command sent by the browser.
type clientMessage struct {
	Type    string            `json:"type"`
	Upgrade catalog.UpgradeID `json:"upgrade,omitempty"`
}

// serverMessage is pushed to the browser.
type serverMessage struct {
	Type     string               `json:"type"`
	View     *game.View           `json:"view,omitempty"`
	Click    *game.ClickResult    `json:"click,omitempty"`
	Purchase *game.PurchaseResult `json:"purchase,omitempty"`
	Error    string               `json:"error,omitempty"`
}

func NewHandler(resolve SessionResolver, cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	allow := cfg.AllowClick
	if allow == nil {
		allow = func(string) bool { return true }
	}
	return &Handler{
		resolve:    resolve,
		logger:     logger,
		allowClick: allow,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s, err := h.resolve(r)
	if err != nil {
		http.Error(w, "session unavailable", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("[live] upgrade failed for %s: %v", s.ID(), err)
		return
	}

	changes, cancel := s.Subscribe()
	defer cancel()

	replies := make(chan serverMessage, 16)
	done := make(chan struct{})
	go h.readPump(conn, s, replies, done)
	h.writePump(conn, s, changes, replies, done)
}

// readPump owns all reads. It closes done when the peer goes away.
func (h *Handler) readPump(conn *websocket.Conn, s *session.Session, replies chan<- serverMessage, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Printf("[live] read error for %s: %v", s.ID(), err)
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			h.logger.Printf("[live] discarding malformed message from %s: %v", s.ID(), err)
			continue
		}

		reply, ok := h.apply(s, msg)
		if !ok {
			continue
		}
		select {
		case replies <- reply:
		default:
			// writer is behind; the next state push catches the client up
		}
	}
}

func (h *Handler) apply(s *session.Session, msg clientMessage) (serverMessage, bool) {
	switch msg.Type {
	case "click":
		if !h.allowClick(s.ID()) {
			return serverMessage{Type: "error", Error: "rate_limited"}, true
		}
		res := s.Click()
		return serverMessage{Type: "click", Click: &res}, true
	case "buy":
		res := s.Buy(context.Background(), msg.Upgrade)
		return serverMessage{Type: "purchase", Purchase: &res}, true
	case "ping":
		return serverMessage{}, false
	default:
		return serverMessage{Type: "error", Error: "unknown_command"}, true
	}
}

// writePump owns all writes: the initial view, replies, change pushes and
// keepalive pings.
func (h *Handler) writePump(conn *websocket.Conn, s *session.Session, changes <-chan struct{}, replies <-chan serverMessage, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	if !h.writeView(conn, s) {
		return
	}

	for {
		select {
		case <-done:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case reply := <-replies:
			if !h.writeJSON(conn, s, reply) {
				return
			}
		case <-changes:
			if !h.writeView(conn, s) {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Handler) writeView(conn *websocket.Conn, s *session.Session) bool {
	v := s.View()
	return h.writeJSON(conn, s, serverMessage{Type: "state", View: &v})
}

func (h *Handler) writeJSON(conn *websocket.Conn, s *session.Session, msg serverMessage) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Printf("[live] failed to marshal %s message for %s: %v", msg.Type, s.ID(), err)
		return true
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data) == nil
}
