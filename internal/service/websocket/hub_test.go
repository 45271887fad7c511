package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicledetect/internal/logger/loggertest"
)

func startHub(t *testing.T) (*HubService, *httptest.Server) {
	hub := NewHubService(loggertest.New(t))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = hub.Run(ctx)
		close(done)
	}()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register(&Client{Session: r.URL.Query().Get("session"), Conn: conn})
	}))

	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-done
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, session string) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?session=" + session
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_PublishReachesOnlyTheSession(t *testing.T) {
	hub, srv := startHub(t)
	mine := dial(t, srv, "s1")
	other := dial(t, srv, "s2")

	require.Eventually(t, func() bool { return hub.GetClientCount() == 2 }, time.Second, 5*time.Millisecond)

	hub.Publish("s1", Event{Type: EventFinished, Filename: "car.jpg", Detections: 3})

	require.NoError(t, mine.SetReadDeadline(time.Now().Add(time.Second)))
	_, msg, err := mine.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"finished","filename":"car.jpg","detections":3}`, string(msg))

	require.NoError(t, other.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err = other.ReadMessage()
	assert.Error(t, err)
}

func TestHub_StoppedHubDoesNotBlock(t *testing.T) {
	hub := NewHubService(loggertest.New(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, hub.Run(ctx))

	// Must not block once the hub has stopped.
	hub.Unregister(&Client{Session: "s"})
	hub.Publish("s", Event{Type: EventStarted})
}
