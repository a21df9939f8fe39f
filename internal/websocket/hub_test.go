package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pixil98/go-testutil"
	"github.com/taskfish-server/internal/domain"
)

type staticSource struct {
	state domain.PlayerState
}

func (s staticSource) GetState(context.Context) (domain.PlayerState, error) {
	return s.state, nil
}

func newTestHub(t *testing.T) (*Hub, *websocket.Conn) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := NewHub(logger)
	go hub.Run()
	t.Cleanup(hub.Stop)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWs(hub, logger, w, r)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for hub.GetTotalConnections() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return hub, conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	// queued messages are newline separated; the first is enough here
	first := strings.SplitN(string(data), "\n", 2)[0]

	var msg Message
	if err := json.Unmarshal([]byte(first), &msg); err != nil {
		t.Fatalf("decode %q: %v", first, err)
	}
	return msg
}

func TestBroadcastState(t *testing.T) {
	hub, conn := newTestHub(t)

	hub.BroadcastState(domain.PlayerState{Level: 3})

	msg := readMessage(t, conn)
	testutil.AssertEqual(t, "type", msg.Type, MessageTypeStateUpdate)
	data := msg.Data.(map[string]any)
	testutil.AssertEqual(t, "level", data["level"], any(float64(3)))
}

func TestBroadcastProduction(t *testing.T) {
	hub, conn := newTestHub(t)

	hub.BroadcastProduction(domain.ProductionReport{CurrentPower: 5, AccruedPoints: 120})

	msg := readMessage(t, conn)
	testutil.AssertEqual(t, "type", msg.Type, MessageTypeProductionUpdate)
	data := msg.Data.(map[string]any)
	testutil.AssertEqual(t, "accrued", data["accrued_points"], any(float64(120)))
}

func TestSyncAndPing(t *testing.T) {
	hub, conn := newTestHub(t)
	hub.SetSource(staticSource{state: domain.PlayerState{Points: 42}})

	if err := conn.WriteJSON(ClientMessage{Type: MessageTypeSync}); err != nil {
		t.Fatalf("write: %v", err)
	}
	msg := readMessage(t, conn)
	testutil.AssertEqual(t, "type", msg.Type, MessageTypeStateUpdate)
	testutil.AssertEqual(t, "points", msg.Data.(map[string]any)["points"], any(float64(42)))

	if err := conn.WriteJSON(ClientMessage{Type: MessageTypePing}); err != nil {
		t.Fatalf("write: %v", err)
	}
	testutil.AssertEqual(t, "pong", readMessage(t, conn).Type, MessageTypePong)
}

func TestSyncWithoutSource(t *testing.T) {
	_, conn := newTestHub(t)

	if err := conn.WriteJSON(ClientMessage{Type: MessageTypeSync}); err != nil {
		t.Fatalf("write: %v", err)
	}
	testutil.AssertEqual(t, "type", readMessage(t, conn).Type, MessageTypeError)
}

func TestInvalidClientMessage(t *testing.T) {
	_, conn := newTestHub(t)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	testutil.AssertEqual(t, "type", readMessage(t, conn).Type, MessageTypeError)
}
