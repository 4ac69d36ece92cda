package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	dto "memberhub/pkg/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWs))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// keepSending publishes until the client has registered and read an event.
func keepSending(ctx context.Context, publish func()) {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		publish()
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var event map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &event))
	return event
}

func TestHub_Notify(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub(nil)
	go hub.Run(ctx)

	conn := dial(t, hub)
	sendCtx, stop := context.WithCancel(ctx)
	defer stop()
	go keepSending(sendCtx, func() { hub.Notify("warning", "webhook unavailable") })

	event := readEvent(t, conn)
	stop()
	assert.Equal(t, dto.EventNotice, event["type"])
	assert.Equal(t, map[string]interface{}{"level": "warning", "message": "webhook unavailable"}, event["data"])
}

func TestHub_Progress(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub(nil)
	go hub.Run(ctx)

	conn := dial(t, hub)
	sendCtx, stop := context.WithCancel(ctx)
	defer stop()
	go keepSending(sendCtx, func() { hub.Progress(3, 10) })

	event := readEvent(t, conn)
	stop()
	assert.Equal(t, dto.EventImportProgress, event["type"])
	assert.Equal(t, map[string]interface{}{"done": float64(3), "total": float64(10)}, event["data"])
}

func TestHub_PublishWithoutRunDoesNotBlock(t *testing.T) {
	hub := NewHub(nil)
	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			hub.Notify("info", "x")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publishing blocked")
	}
}
