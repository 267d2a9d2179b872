package client

import (
	"context"
	"fmt"
)

// Event is the client-side wire envelope, mirroring the gateway's frame.
type Event struct {
	Name string         `json:"event"`
	Data map[string]any `json:"data,omitempty"`
}

// TransportKind selects which transport implementation a process uses. The
// choice is made exactly once at Initialize; application code never branches
// on it afterwards.
type TransportKind string

const (
	// TransportSocket is the multiplexed-socket implementation used by the
	// native-app runtime.
	TransportSocket TransportKind = "socket"
	// TransportWebSocket is the raw persistent-connection implementation used
	// by the browser-facing runtime.
	TransportWebSocket TransportKind = "websocket"
)

// Transport is one persistent connection to the gateway. Implementations must
// be re-dialable: after ReadEvent returns an error and Close is called, a new
// Dial starts a fresh connection on the same value.
type Transport interface {
	Dial(ctx context.Context) error
	WriteEvent(ev Event) error
	// ReadEvent blocks until the next inbound event or a transport failure.
	ReadEvent() (Event, error)
	Close() error
}

func newTransport(cfg Config) (Transport, error) {
	switch cfg.Transport {
	case TransportSocket, "":
		return newSocketTransport(cfg.URL), nil
	case TransportWebSocket:
		return newWSTransport(cfg.URL), nil
	default:
		return nil, fmt.Errorf("unknown transport kind %q", cfg.Transport)
	}
}
