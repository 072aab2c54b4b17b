package main

import (
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"go-stepscope/feed"
)

// hub serves one matrix to every connected scope
type hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	matrix  []uint8
	clients map[*peer]bool
	rng     *rand.Rand
	density float64
}

// peer serializes writes to one connection
type peer struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (p *peer) send(data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.conn.SetWriteDeadline(time.Now().Add(time.Second))
	return p.conn.WriteMessage(websocket.TextMessage, data)
}

func newHub(length int, density float64, seed uint64) *hub {
	h := &hub{
		matrix:  make([]uint8, length),
		clients: make(map[*peer]bool),
		rng:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		density: density,
	}
	h.upgrader.CheckOrigin = func(r *http.Request) bool { return true }
	h.shuffle()
	return h
}

// shuffle draws a new random matrix
func (h *hub) shuffle() []uint8 {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range h.matrix {
		h.matrix[i] = 0
		if h.rng.Float64() < h.density {
			h.matrix[i] = 1
		}
	}
	return append([]uint8(nil), h.matrix...)
}

func (h *hub) current() []uint8 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]uint8(nil), h.matrix...)
}

func (h *hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logf("upgrade: %v", err)
		return
	}
	p := &peer{conn: conn}

	h.mu.Lock()
	h.clients[p] = true
	h.mu.Unlock()
	logf("client %s connected", conn.RemoteAddr())

	defer func() {
		h.mu.Lock()
		delete(h.clients, p)
		h.mu.Unlock()
		conn.Close()
		logf("client %s gone", conn.RemoteAddr())
	}()

	if err := h.sendMatrix(p, h.current()); err != nil {
		return
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if !feed.IsMatrixRequest(data) {
			logf("ignored %s", data)
			continue
		}
		if err := h.sendMatrix(p, h.current()); err != nil {
			return
		}
	}
}

func (h *hub) sendMatrix(p *peer, m []uint8) error {
	data, err := feed.EncodeMatrix(m)
	if err != nil {
		return errors.Wrap(err, "encode matrix")
	}
	return p.send(data)
}

// broadcast sends data to every client, dropping the ones that fail
func (h *hub) broadcast(data []byte) {
	h.mu.Lock()
	peers := make([]*peer, 0, len(h.clients))
	for p := range h.clients {
		peers = append(peers, p)
	}
	h.mu.Unlock()

	for _, p := range peers {
		if err := p.send(data); err != nil {
			p.conn.Close() // the read loop removes it
		}
	}
}

// wheelSweep returns the i-th value of a triangle wave between lo and hi
func wheelSweep(i int, lo, hi float64, steps int) float64 {
	if steps < 2 {
		return lo
	}
	period := 2 * (steps - 1)
	k := i % period
	if k >= steps {
		k = period - k
	}
	return lo + (hi-lo)*float64(k)/float64(steps-1)
}
