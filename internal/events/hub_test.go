package events

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	hub := NewHub(nil, logger)
	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		hub.CloseAll()
		srv.Close()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.ClientsCount() == n }, 2*time.Second, 10*time.Millisecond)
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var m Message
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestHub_StorageChangedReachesEveryone(t *testing.T) {
	hub, srv := newTestHub(t)
	a := dial(t, srv, "")
	b := dial(t, srv, "?sessionId=s-1")
	waitForClients(t, hub, 2)

	assert.Equal(t, 2, hub.Broadcast(Message{Type: TypeStorageChanged}))

	assert.Equal(t, TypeStorageChanged, readMessage(t, a).Type)
	assert.Equal(t, TypeStorageChanged, readMessage(t, b).Type)
}

func TestHub_SessionEventsAreScoped(t *testing.T) {
	hub, srv := newTestHub(t)
	mine := dial(t, srv, "?sessionId=s-1")
	dial(t, srv, "?sessionId=s-2")
	waitForClients(t, hub, 2)

	hub.Countdown("s-1", 3)

	m := readMessage(t, mine)
	assert.Equal(t, TypeCountdown, m.Type)
	assert.Equal(t, "s-1", m.SessionID)
	assert.Equal(t, map[string]interface{}{"remaining": float64(3)}, m.Data)
	assert.Equal(t, 0, hub.Broadcast(Message{Type: TypeCaptured, SessionID: "s-3"}))
}

func TestHub_RelayForwardsSignals(t *testing.T) {
	hub, srv := newTestHub(t)
	conn := dial(t, srv, "")
	waitForClients(t, hub, 1)

	changes := make(chan struct{}, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = hub.Relay(ctx, changes) }()

	changes <- struct{}{}

	assert.Equal(t, TypeStorageChanged, readMessage(t, conn).Type)
}

func TestHub_ClientDisconnectIsRemoved(t *testing.T) {
	hub, srv := newTestHub(t)
	conn := dial(t, srv, "")
	waitForClients(t, hub, 1)

	require.NoError(t, conn.Close())

	waitForClients(t, hub, 0)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://hr.example.com"})

	req := httptest.NewRequest("GET", "/api/v1/events", nil)
	assert.True(t, check(req), "requests without Origin are allowed")

	req.Header.Set("Origin", "https://hr.example.com")
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, check(req))

	assert.True(t, originChecker([]string{"*"})(req))
}
