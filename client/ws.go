package client

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"
	"nhooyr.io/websocket"
)

const wsWriteTimeout = 10 * time.Second

// wsTransport is the raw persistent-connection implementation: plain JSON
// envelopes over a single websocket, no multiplexing metadata. Built on
// nhooyr.io/websocket.
type wsTransport struct {
	url string

	mu   sync.Mutex
	conn *websocket.Conn
}

func newWSTransport(url string) *wsTransport {
	return &wsTransport{url: url}
}

func (t *wsTransport) Dial(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, t.url, nil)
	if err != nil {
		return errors.Wrap(err, "websocket dial")
	}
	// the gateway enforces flow control per connection; unbounded reads here
	// would hide a slow consumer
	conn.SetReadLimit(1 << 20)
	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()
	return nil
}

func (t *wsTransport) WriteEvent(ev Event) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return errors.New("not connected")
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "encode event")
	}
	ctx, cancel := context.WithTimeout(context.Background(), wsWriteTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, raw)
}

func (t *wsTransport) ReadEvent() (Event, error) {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return Event{}, errors.New("not connected")
	}
	for {
		_, raw, err := conn.Read(context.Background())
		if err != nil {
			return Event{}, err
		}
		var ev Event
		if err := json.Unmarshal(raw, &ev); err != nil || ev.Name == "" {
			continue
		}
		return ev, nil
	}
}

func (t *wsTransport) Close() error {
	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close(websocket.StatusNormalClosure, "client disconnect")
}
