package realtime

import (
	"testing"
	"time"
)

// A broadcast snapshots its member set before delivery, so a job can still be
// queued when the close path runs for one of its conns. Delivery after that
// must be harmless, not a panic.
func TestFanoutDeliveryAfterClosePath(t *testing.T) {
	reg := NewRegistry()
	c := newConn("c1")
	reg.Register(c)
	_, _ = reg.Authenticate("c1", "alice")

	f := NewFanout(1, 8)
	t.Cleanup(f.Close)

	// snapshot taken before the close path, as Router.Broadcast does
	conns := []*Conn{c}

	_, _, _, _ = reg.Unregister("c1")
	c.Close()

	payload, err := EncodeFrame(EvtPresence, BuildPresence("alice", PresenceOffline))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	f.Broadcast(conns, payload)

	// the frame lands in the abandoned buffer and dies with the conn
	select {
	case <-c.Send:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("delivery to a closed conn's buffer never happened")
	}
}

func TestFanoutSkipsSlowClient(t *testing.T) {
	slow := &Conn{ID: "slow", Send: make(chan []byte)} // nothing drains it
	healthy := newConn("healthy")

	f := NewFanout(1, 8)
	t.Cleanup(f.Close)

	f.Broadcast([]*Conn{slow, healthy}, []byte(`{"event":"presence"}`))

	select {
	case <-healthy.Send:
	case <-time.After(time.Second):
		t.Fatal("slow client stalled delivery to the healthy one")
	}
}

func TestConnCloseIdempotent(t *testing.T) {
	reg := NewRegistry()
	c := newConn("c1")
	reg.Register(c)

	c.Close()
	c.Close() // second close must not panic

	select {
	case <-c.Done():
	default:
		t.Fatal("Done must be closed after Close")
	}
}
