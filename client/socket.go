package client

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

const socketWriteWait = 10 * time.Second

// socketEnvelope is the multiplexed frame: events are tagged with a
// per-connection sequence so several logical streams share one socket and the
// gateway can be debugged frame by frame. Servers that do not know seq ignore
// it.
type socketEnvelope struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data,omitempty"`
	Seq   uint64         `json:"seq,omitempty"`
}

// socketTransport is the multiplexed-socket implementation, built on
// gorilla/websocket.
type socketTransport struct {
	url string

	mu   sync.Mutex // guards conn and writes (gorilla allows one writer)
	conn *websocket.Conn
	seq  atomic.Uint64
}

func newSocketTransport(url string) *socketTransport {
	return &socketTransport{url: url}
}

func (t *socketTransport) Dial(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, t.url, nil)
	if err != nil {
		return errors.Wrap(err, "socket dial")
	}
	t.mu.Lock()
	t.conn = conn
	t.seq.Store(0)
	t.mu.Unlock()
	return nil
}

func (t *socketTransport) WriteEvent(ev Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return errors.New("not connected")
	}
	raw, err := json.Marshal(socketEnvelope{
		Event: ev.Name,
		Data:  ev.Data,
		Seq:   t.seq.Add(1),
	})
	if err != nil {
		return errors.Wrap(err, "encode event")
	}
	_ = t.conn.SetWriteDeadline(time.Now().Add(socketWriteWait))
	return t.conn.WriteMessage(websocket.TextMessage, raw)
}

func (t *socketTransport) ReadEvent() (Event, error) {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return Event{}, errors.New("not connected")
	}
	for {
		mt, raw, err := conn.ReadMessage()
		if err != nil {
			return Event{}, err
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}
		var ev Event
		if err := json.Unmarshal(raw, &ev); err != nil || ev.Name == "" {
			continue // tolerate junk frames
		}
		return ev, nil
	}
}

func (t *socketTransport) Close() error {
	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()
	if conn == nil {
		return nil
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(socketWriteWait))
	return conn.Close()
}
