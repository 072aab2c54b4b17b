package feed

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"go-stepscope/debug"
	"go-stepscope/engine"
)

// Pusher receives decoded updates. *engine.Queue satisfies it.
type Pusher interface {
	Push(u engine.Update)
}

// Status is the connection state of a Client
type Status int

const (
	Disconnected Status = iota
	Connecting
	Connected
)

func (s Status) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	}
	return "disconnected"
}

// StatusEvent reports a connection state change
type StatusEvent struct {
	Status Status
	Err    error // why the previous connection ended, if it did
}

var ErrNotConnected = errors.New("feed not connected")

const (
	defaultMinBackoff = time.Second
	defaultMaxBackoff = 60 * time.Second
	writeTimeout      = 250 * time.Millisecond
)

// Client reads the matrix feed and pushes updates to the engine queue
type Client struct {
	url       string
	out       Pusher
	codec     Codec
	dialer    *websocket.Dialer
	reconnect bool

	minBackoff time.Duration
	maxBackoff time.Duration

	mu   sync.Mutex // guards conn and writes to it
	conn *websocket.Conn

	status   chan StatusEvent
	received atomic.Uint64
	dropped  atomic.Uint64
}

// Option configures a Client
type Option func(*Client)

// WithReconnect enables redialing after the connection is lost
func WithReconnect(on bool) Option {
	return func(c *Client) { c.reconnect = on }
}

// WithBackoff sets the first and the largest redial delay
func WithBackoff(first, limit time.Duration) Option {
	return func(c *Client) {
		c.minBackoff = first
		c.maxBackoff = limit
	}
}

// WithCodec replaces the default codec
func WithCodec(codec Codec) Option {
	return func(c *Client) { c.codec = codec }
}

// WithDialer replaces websocket.DefaultDialer
func WithDialer(d *websocket.Dialer) Option {
	return func(c *Client) { c.dialer = d }
}

// NewClient creates a client for url pushing to out
func NewClient(url string, out Pusher, opts ...Option) *Client {
	c := &Client{
		url:        url,
		out:        out,
		codec:      DefaultCodec,
		dialer:     websocket.DefaultDialer,
		reconnect:  true,
		minBackoff: defaultMinBackoff,
		maxBackoff: defaultMaxBackoff,
		status:     make(chan StatusEvent, 8),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Status returns status events. Events are dropped if nobody reads them.
func (c *Client) Status() <-chan StatusEvent {
	return c.status
}

// Received counts frames that decoded into an update
func (c *Client) Received() uint64 {
	return c.received.Load()
}

// Dropped counts frames that were malformed or had an unknown address
func (c *Client) Dropped() uint64 {
	return c.dropped.Load()
}

// Run connects and reads until ctx is done. Without reconnect it returns
// the error that ended the first session; with reconnect it only returns
// ctx.Err().
func (c *Client) Run(ctx context.Context) error {
	backoff := c.minBackoff
	for {
		c.emit(StatusEvent{Status: Connecting})
		debug.Log("feed", "connecting to %s", c.url)

		conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			err = errors.Wrapf(err, "dial %s", c.url)
			c.emit(StatusEvent{Status: Disconnected, Err: err})
			if !c.reconnect {
				return err
			}
			debug.Log("feed", "%v, retrying in %v", err, backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			backoff = min(backoff*2, c.maxBackoff)
			continue
		}
		backoff = c.minBackoff

		err = c.session(ctx, conn)
		if ctx.Err() != nil {
			c.emit(StatusEvent{Status: Disconnected})
			return ctx.Err()
		}
		err = errors.Wrap(err, "feed closed")
		c.emit(StatusEvent{Status: Disconnected, Err: err})
		if !c.reconnect {
			return err
		}
		debug.Log("feed", "%v, reconnecting", err)
		if !sleep(ctx, backoff) {
			return ctx.Err()
		}
	}
}

// session reads frames from conn until it fails
func (c *Client) session(ctx context.Context, conn *websocket.Conn) error {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer func() {
		stop()
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		conn.Close()
	}()

	c.emit(StatusEvent{Status: Connected})
	debug.Log("feed", "connected to %s", c.url)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		u, err := c.codec.Decode(data)
		if err != nil {
			c.dropped.Add(1)
			debug.Log("feed", "dropped frame: %v", err)
			continue
		}
		c.received.Add(1)
		c.out.Push(u)
	}
}

// RequestMatrix asks the server to send its current matrix. It never
// waits longer than the write deadline.
func (c *Client) RequestMatrix() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return ErrNotConnected
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.conn.WriteMessage(websocket.TextMessage, EncodeRequest()); err != nil {
		return errors.Wrap(err, "request matrix")
	}
	return nil
}

func (c *Client) emit(ev StatusEvent) {
	select {
	case c.status <- ev:
	default:
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
