// Package client is the Go SDK for the naxtap realtime gateway. It selects a
// transport once per process, supervises its lifecycle (connect, heartbeat,
// disconnect, scheduled reconnect), and exposes a uniform event-subscription
// API regardless of the transport in use.
package client

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/Araz9999/naxtap-sub005/logger"
)

// Status is the connection state visible to application code. Transitions are
// observed through OnStatus callbacks, never through a thrown error path.
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
)

// Config configures the client once, at Initialize time.
type Config struct {
	URL       string
	Transport TransportKind // socket (default) or websocket

	// AutoReconnect schedules a reconnect after an unexpected close. The
	// policy is uniform across both transports: bounded attempts with
	// exponential backoff and jitter.
	AutoReconnect        bool
	ReconnectBaseDelay   time.Duration // default 1s
	ReconnectMaxDelay    time.Duration // backoff cap, default 30s
	MaxReconnectAttempts int           // default 5
	DialTimeout          time.Duration // per reconnect attempt, default 10s

	HeartbeatInterval time.Duration // default 30s
}

func (c *Config) norm() {
	if c.ReconnectBaseDelay <= 0 {
		c.ReconnectBaseDelay = time.Second
	}
	if c.ReconnectMaxDelay <= 0 {
		c.ReconnectMaxDelay = 30 * time.Second
	}
	if c.MaxReconnectAttempts <= 0 {
		c.MaxReconnectAttempts = 5
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = 10 * time.Second
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = 30 * time.Second
	}
}

// HandlerID identifies one registered handler so Off removes exactly that
// handler and not every handler for the event.
type HandlerID uint64

type EventHandler func(data map[string]any)
type StatusHandler func(Status)

// Client supervises one transport. Zero value is not usable; construct with
// New or the package-level Initialize.
type Client struct {
	cfg Config
	tr  Transport

	mu             sync.Mutex
	status         Status
	attempt        int
	closed         bool          // set by Disconnect; suppresses reconnection
	hbStop         chan struct{} // per-connection heartbeat stop
	reconnectTimer *time.Timer

	hmu            sync.RWMutex
	nextID         HandlerID
	handlers       map[string]map[HandlerID]EventHandler
	statusHandlers map[HandlerID]StatusHandler
}

func New(cfg Config) (*Client, error) {
	cfg.norm()
	tr, err := newTransport(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{
		cfg:            cfg,
		tr:             tr,
		status:         StatusDisconnected,
		handlers:       make(map[string]map[HandlerID]EventHandler),
		statusHandlers: make(map[HandlerID]StatusHandler),
	}, nil
}

// ---- process-wide singleton surface ----

var (
	defaultMu     sync.Mutex
	defaultClient *Client
)

// Initialize configures the process-wide client. The transport choice is
// fixed here for the process lifetime; calling Initialize twice returns the
// existing instance.
func Initialize(cfg Config) (*Client, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultClient != nil {
		return defaultClient, nil
	}
	c, err := New(cfg)
	if err != nil {
		return nil, err
	}
	defaultClient = c
	return c, nil
}

// Default returns the client configured by Initialize, or nil.
func Default() *Client {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultClient
}

// ---- lifecycle ----

// Connect dials the selected transport and starts the read and heartbeat
// loops. Safe to call on an already connecting/connected client (no-op).
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.status != StatusDisconnected {
		c.mu.Unlock()
		return nil
	}
	c.status = StatusConnecting
	c.closed = false
	c.mu.Unlock()
	c.emitStatus(StatusConnecting)

	if err := c.tr.Dial(ctx); err != nil {
		c.mu.Lock()
		closed := c.closed
		c.status = StatusDisconnected
		c.mu.Unlock()
		if !closed {
			c.emitStatus(StatusDisconnected)
			if c.cfg.AutoReconnect {
				c.scheduleReconnect()
			}
		}
		return err
	}

	// Disconnect may have run while the dial was in flight; honor it instead
	// of resurrecting the connection
	c.mu.Lock()
	if c.closed {
		c.status = StatusDisconnected
		c.mu.Unlock()
		_ = c.tr.Close()
		return errors.New("disconnected while connecting")
	}
	c.status = StatusConnected
	c.attempt = 0
	c.hbStop = make(chan struct{})
	stop := c.hbStop
	c.mu.Unlock()
	c.emitStatus(StatusConnected)

	go c.readLoop()
	go c.heartbeatLoop(stop)
	return nil
}

// Disconnect tears the client down intentionally: it cancels any pending
// reconnect, stops the heartbeat, and closes the transport. No reconnection
// follows.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.closed = true
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	c.stopHeartbeatLocked()
	already := c.status == StatusDisconnected
	c.status = StatusDisconnected
	c.mu.Unlock()

	_ = c.tr.Close()
	if !already {
		c.emitStatus(StatusDisconnected)
	}
}

func (c *Client) ConnectionStatus() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Send emits one event over the active transport. Fire-and-forget: a nil
// error means written, not delivered.
func (c *Client) Send(event string, data map[string]any) error {
	c.mu.Lock()
	connected := c.status == StatusConnected
	c.mu.Unlock()
	if !connected {
		return errors.New("not connected")
	}
	return c.tr.WriteEvent(Event{Name: event, Data: data})
}

// ---- event subscription registry ----

// On registers a handler for the named event. Multiple handlers per event are
// supported; the returned id removes this one specifically.
func (c *Client) On(event string, h EventHandler) HandlerID {
	c.hmu.Lock()
	defer c.hmu.Unlock()
	c.nextID++
	id := c.nextID
	m := c.handlers[event]
	if m == nil {
		m = make(map[HandlerID]EventHandler)
		c.handlers[event] = m
	}
	m[id] = h
	return id
}

// Off removes one handler; other handlers for the same event keep firing.
func (c *Client) Off(event string, id HandlerID) {
	c.hmu.Lock()
	defer c.hmu.Unlock()
	if m := c.handlers[event]; m != nil {
		delete(m, id)
		if len(m) == 0 {
			delete(c.handlers, event)
		}
	}
}

// OnStatus registers a connection-state callback.
func (c *Client) OnStatus(h StatusHandler) HandlerID {
	c.hmu.Lock()
	defer c.hmu.Unlock()
	c.nextID++
	id := c.nextID
	c.statusHandlers[id] = h
	return id
}

func (c *Client) OffStatus(id HandlerID) {
	c.hmu.Lock()
	defer c.hmu.Unlock()
	delete(c.statusHandlers, id)
}

// dispatch runs every handler registered for the event. A panicking handler
// is recovered and logged individually so it cannot block the others.
func (c *Client) dispatch(ev Event) {
	c.hmu.RLock()
	hs := make([]EventHandler, 0, len(c.handlers[ev.Name]))
	for _, h := range c.handlers[ev.Name] {
		hs = append(hs, h)
	}
	c.hmu.RUnlock()

	for _, h := range hs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Errorf("[client] handler panic on %s: %v", ev.Name, r)
				}
			}()
			h(ev.Data)
		}()
	}
}

func (c *Client) emitStatus(s Status) {
	c.hmu.RLock()
	hs := make([]StatusHandler, 0, len(c.statusHandlers))
	for _, h := range c.statusHandlers {
		hs = append(hs, h)
	}
	c.hmu.RUnlock()

	for _, h := range hs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Errorf("[client] status handler panic: %v", r)
				}
			}()
			h(s)
		}()
	}
}

// ---- internal loops ----

func (c *Client) readLoop() {
	for {
		ev, err := c.tr.ReadEvent()
		if err != nil {
			c.handleTransportClose(err)
			return
		}
		c.dispatch(ev)
	}
}

// handleTransportClose is the single funnel for unexpected closes: network
// drop, server restart, read error. Intentional Disconnect is recognized via
// the closed flag and does not reconnect.
func (c *Client) handleTransportClose(cause error) {
	c.mu.Lock()
	c.stopHeartbeatLocked()
	wasClosed := c.closed
	already := c.status == StatusDisconnected
	c.status = StatusDisconnected
	c.mu.Unlock()

	_ = c.tr.Close()
	if !already {
		c.emitStatus(StatusDisconnected)
	}
	if wasClosed {
		return
	}
	logger.Infof("[client] transport closed: %v", cause)
	if c.cfg.AutoReconnect {
		c.scheduleReconnect()
	}
}

// scheduleReconnect arms exactly one reconnect timer. The next attempt only
// arms another after this one fails, so there is never more than one pending.
func (c *Client) scheduleReconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.reconnectTimer != nil || c.status != StatusDisconnected {
		return
	}
	if c.attempt >= c.cfg.MaxReconnectAttempts {
		logger.Warnf("[client] giving up after %d reconnect attempts", c.attempt)
		return
	}
	c.attempt++
	delay := c.backoff(c.attempt)
	logger.Infof("[client] reconnect %d/%d in %v", c.attempt, c.cfg.MaxReconnectAttempts, delay)

	c.reconnectTimer = time.AfterFunc(delay, func() {
		c.mu.Lock()
		c.reconnectTimer = nil
		closed := c.closed
		c.mu.Unlock()
		if closed {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.DialTimeout)
		defer cancel()
		// Connect schedules the next attempt itself when the dial fails
		_ = c.Connect(ctx)
	})
}

// backoff doubles the base delay per attempt with up to 50% jitter, capped.
func (c *Client) backoff(attempt int) time.Duration {
	base := float64(c.cfg.ReconnectBaseDelay)
	jitter := rand.Float64() * base * 0.5
	d := base*math.Pow(2, float64(attempt-1)) + jitter
	if max := float64(c.cfg.ReconnectMaxDelay); d > max {
		d = max
	}
	return time.Duration(d)
}

// heartbeatLoop probes liveness while connected. A failed heartbeat write is
// not itself a reconnect trigger; only the transport-level close that follows
// is. The stop channel belongs to one connection generation, so a reconnect
// can never leave two tickers running.
func (c *Client) heartbeatLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(c.cfg.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if c.ConnectionStatus() != StatusConnected {
				return
			}
			if err := c.Send("heartbeat", nil); err != nil {
				logger.Infof("[client] heartbeat write failed: %v", err)
			}
		}
	}
}

// stopHeartbeatLocked closes the current heartbeat generation. Caller holds
// c.mu.
func (c *Client) stopHeartbeatLocked() {
	if c.hbStop != nil {
		close(c.hbStop)
		c.hbStop = nil
	}
}
