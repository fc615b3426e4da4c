// Package events pushes storage and wizard progress notifications to
// browsers over websocket.
package events

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/wso2/idcard-reissue-api/internal/metrics"
)

// Message types
const (
	TypeStorageChanged = "STORAGE_CHANGED"
	TypeCountdown      = "COUNTDOWN"
	TypeCaptured       = "CAPTURED"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 20 * time.Second
)

// Message is the frame sent to clients
type Message struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

type client struct {
	conn      *websocket.Conn
	sessionID string
}

// Hub holds the connected clients. Storage changes go to every client;
// wizard progress only to clients subscribed to that session.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *logrus.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]*client
}

// NewHub creates a hub. allowedOrigins limits the upgrade Origin header;
// an empty list or "*" accepts any origin.
func NewHub(allowedOrigins []string, logger *logrus.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: originChecker(allowedOrigins)},
		logger:   logger,
		clients:  make(map[*websocket.Conn]*client),
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

// Broadcast sends m to every matching client and returns how many got it
func (h *Hub) Broadcast(m Message) int {
	b, err := json.Marshal(m)
	if err != nil {
		h.logger.WithError(err).Error("Failed to encode event")
		return 0
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for conn, c := range h.clients {
		if m.SessionID != "" && c.sessionID != m.SessionID {
			continue
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
			h.logger.WithError(err).Debug("Event write failed, dropping client")
			_ = conn.Close()
			delete(h.clients, conn)
			continue
		}
		n++
	}
	metrics.SetEventClients(len(h.clients))
	h.logger.WithFields(logrus.Fields{
		"type":    m.Type,
		"clients": n,
	}).Debug("Event broadcast")
	return n
}

// StorageChanged tells every client to reload
func (h *Hub) StorageChanged() {
	h.Broadcast(Message{Type: TypeStorageChanged})
}

// Countdown reports the remaining countdown ticks of a wizard session
func (h *Hub) Countdown(sessionID string, remaining int) {
	h.Broadcast(Message{
		Type:      TypeCountdown,
		SessionID: sessionID,
		Data:      map[string]int{"remaining": remaining},
	})
}

// Captured reports that a wizard session took its photo
func (h *Hub) Captured(sessionID string) {
	h.Broadcast(Message{Type: TypeCaptured, SessionID: sessionID})
}

// Relay turns storage change signals into STORAGE_CHANGED events until
// ctx is done or changes is closed
func (h *Hub) Relay(ctx context.Context, changes <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			h.StorageChanged()
		}
	}
}

// ClientsCount returns the number of connected clients
func (h *Hub) ClientsCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// CloseAll disconnects every client
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		_ = conn.Close()
		delete(h.clients, conn)
	}
	metrics.SetEventClients(0)
}

// ServeHTTP upgrades the connection and keeps it open until the client
// goes away. The optional sessionId query parameter subscribes to one
// wizard session's progress.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	h.mu.Lock()
	h.clients[conn] = &client{conn: conn, sessionID: r.URL.Query().Get("sessionId")}
	total := len(h.clients)
	h.mu.Unlock()
	metrics.SetEventClients(total)
	h.logger.WithField("clients", total).Info("Event client connected")

	// keepalive pings
	done := make(chan struct{})
	go func() {
		t := time.NewTicker(pingPeriod)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				if err := conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeWait)); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	// read loop w/ pong
	conn.SetReadLimit(1024)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	close(done)
	h.mu.Lock()
	delete(h.clients, conn)
	total = len(h.clients)
	h.mu.Unlock()
	_ = conn.Close()
	metrics.SetEventClients(total)
	h.logger.WithField("clients", total).Info("Event client disconnected")
}
