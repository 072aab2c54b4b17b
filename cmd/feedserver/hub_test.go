package main

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"go-stepscope/engine"
	"go-stepscope/feed"
)

func TestWheelSweep(t *testing.T) {
	tests := []struct {
		i    int
		want float64
	}{
		{0, 0},
		{1, 50},
		{2, 100},
		{3, 50},
		{4, 0},
		{5, 50},
	}
	for _, tt := range tests {
		if got := wheelSweep(tt.i, 0, 100, 3); got != tt.want {
			t.Errorf("wheelSweep(%d) = %g, want %g", tt.i, got, tt.want)
		}
	}
	if got := wheelSweep(7, 10, 20, 1); got != 10 {
		t.Errorf("single step sweep = %g, want 10", got)
	}
}

func TestShuffleDensity(t *testing.T) {
	h := newHub(64, 1, 1)
	for i, v := range h.current() {
		if v != 1 {
			t.Fatalf("cell %d = %d with density 1", i, v)
		}
	}
	h.density = 0
	for i, v := range h.shuffle() {
		if v != 0 {
			t.Fatalf("cell %d = %d with density 0", i, v)
		}
	}
}

func TestHubServesMatrix(t *testing.T) {
	h := newHub(16, 0.5, 42)
	srv := httptest.NewServer(h)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	want := h.current()
	read := func() engine.MatrixUpdate {
		t.Helper()
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatal(err)
		}
		u, err := feed.DefaultCodec.Decode(data)
		if err != nil {
			t.Fatal(err)
		}
		m, ok := u.(engine.MatrixUpdate)
		if !ok {
			t.Fatalf("got %T, want matrix", u)
		}
		if len(m.Matrix) != len(want) {
			t.Fatalf("matrix length %d, want %d", len(m.Matrix), len(want))
		}
		for i := range want {
			if m.Matrix[i] != want[i] {
				t.Fatalf("matrix %v, want %v", m.Matrix, want)
			}
		}
		return m
	}

	read()

	if err := conn.WriteMessage(websocket.TextMessage, []byte("hello")); err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, feed.EncodeRequest()); err != nil {
		t.Fatal(err)
	}
	read()
}

func TestHubBroadcast(t *testing.T) {
	h := newHub(8, 0, 1)
	srv := httptest.NewServer(h)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	if _, _, err := conn.ReadMessage(); err != nil {
		t.Fatal(err)
	}

	// the peer is registered before the first matrix is written
	data, _ := feed.EncodeValue(feed.AddrWheel, 640)
	h.broadcast(data)

	_, got, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	u, err := feed.DefaultCodec.Decode(got)
	if err != nil {
		t.Fatal(err)
	}
	if u != (engine.TempoUpdate{Value: 640}) {
		t.Fatalf("got %#v", u)
	}
}
