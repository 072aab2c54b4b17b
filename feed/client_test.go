package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"go-stepscope/engine"
	"go-stepscope/midi"
)

var upgrader = websocket.Upgrader{}

func wsURL(s *httptest.Server) string {
	return "ws" + strings.TrimPrefix(s.URL, "http")
}

// waitFor polls cond until it holds or the test times out
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestClientPushesDecodedFrames(t *testing.T) {
	requests := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for _, frame := range []string{
			`{"addr":"/matrix","matrix":[1,0,1,0]}`,
			`not json`,
			`{"addr":"/wheel","value":64}`,
			`{"addr":"/tracks","value":2}`,
		} {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
				return
			}
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		requests <- string(data)
		conn.ReadMessage() // hold the connection until the client leaves
	}))
	defer srv.Close()

	q := engine.NewQueue()
	c := NewClient(wsURL(srv), q, WithReconnect(false))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	waitFor(t, "three updates", func() bool { return q.Len() == 3 })
	if c.Received() != 3 || c.Dropped() != 1 {
		t.Fatalf("received=%d dropped=%d", c.Received(), c.Dropped())
	}

	u, _ := q.TryPop()
	if m, ok := u.(engine.MatrixUpdate); !ok || len(m.Matrix) != 4 {
		t.Fatalf("first update %#v", u)
	}
	u, _ = q.TryPop()
	if u != (engine.TempoUpdate{Value: 64}) {
		t.Fatalf("second update %#v", u)
	}
	u, _ = q.TryPop()
	if u != (engine.TrackCountUpdate{Value: 2}) {
		t.Fatalf("third update %#v", u)
	}

	if err := c.RequestMatrix(); err != nil {
		t.Fatalf("RequestMatrix: %v", err)
	}
	select {
	case got := <-requests:
		if got != `{"addr":"/get-matrix"}` {
			t.Fatalf("server got %s", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server never saw the request")
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestClientWithoutReconnectReturnsOnClose(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.Close()
	}))
	defer srv.Close()

	c := NewClient(wsURL(srv), engine.NewQueue(), WithReconnect(false))
	err := c.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "feed closed") {
		t.Fatalf("Run returned %v", err)
	}
	if err := c.RequestMatrix(); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("RequestMatrix after close = %v", err)
	}
}

func TestClientReconnects(t *testing.T) {
	var connections atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		connections.Add(1)
		conn.Close()
	}))
	defer srv.Close()

	c := NewClient(wsURL(srv), engine.NewQueue(), WithBackoff(10*time.Millisecond, 20*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	waitFor(t, "three connections", func() bool { return connections.Load() >= 3 })
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Run returned %v", err)
	}
}

func TestClientDialFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := wsURL(srv)
	srv.Close()

	c := NewClient(url, engine.NewQueue(), WithReconnect(false))
	if err := c.Run(context.Background()); err == nil {
		t.Fatal("expected dial error")
	}

	var sawDisconnect bool
	for len(c.Status()) > 0 {
		if ev := <-c.Status(); ev.Status == Disconnected && ev.Err != nil {
			sawDisconnect = true
		}
	}
	if !sawDisconnect {
		t.Fatal("no disconnected status event")
	}
}

func TestTempoBridge(t *testing.T) {
	q := engine.NewQueue()
	b := NewTempoBridge(1, q)

	if b.Handle(midi.ControlEvent{Controller: 7, Value: 100}) {
		t.Fatal("handled the wrong controller")
	}
	if !b.Handle(midi.ControlEvent{Controller: 1, Value: 80}) {
		t.Fatal("ignored the tempo controller")
	}

	u, ok := q.TryPop()
	if !ok || u != (engine.TempoUpdate{Value: 640}) {
		t.Fatalf("got %#v", u)
	}

	events := make(chan midi.ControlEvent, 2)
	events <- midi.ControlEvent{Controller: 1, Value: 4}
	close(events)
	b.Run(context.Background(), events)
	if u, _ := q.TryPop(); u != (engine.TempoUpdate{Value: 32}) {
		t.Fatalf("Run forwarded %#v", u)
	}
}
