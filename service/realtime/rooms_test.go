package realtime

import (
	"encoding/json"
	"testing"
	"time"
)

// recvFrame waits for the fanout workers to deliver into the conn's queue.
func recvFrame(t *testing.T, c *Conn) *Frame {
	t.Helper()
	select {
	case raw := <-c.Send:
		f := &Frame{}
		if err := json.Unmarshal(raw, f); err != nil {
			t.Fatalf("bad frame: %v", err)
		}
		return f
	case <-time.After(time.Second):
		t.Fatal("no frame delivered")
		return nil
	}
}

func assertNoFrame(t *testing.T, c *Conn) {
	t.Helper()
	select {
	case raw := <-c.Send:
		t.Fatalf("unexpected frame: %s", raw)
	case <-time.After(50 * time.Millisecond):
	}
}

func newTestRouter(t *testing.T) (*Registry, *Router) {
	t.Helper()
	reg := NewRegistry()
	fanout := NewFanout(2, 64)
	t.Cleanup(fanout.Close)
	return reg, NewRouter(reg, fanout)
}

func join(t *testing.T, reg *Registry, rt *Router, connID, userID, roomID string) *Conn {
	t.Helper()
	c := newConn(connID)
	reg.Register(c)
	if _, err := reg.Authenticate(connID, userID); err != nil {
		t.Fatalf("authenticate %s: %v", connID, err)
	}
	rt.Join(connID, roomID)
	return c
}

func TestJoinNotifiesOtherMembersOnly(t *testing.T) {
	reg, rt := newTestRouter(t)
	first := join(t, reg, rt, "c1", "alice", "conv-1")
	second := join(t, reg, rt, "c2", "bob", "conv-1")

	f := recvFrame(t, first)
	if f.Event != EvtMemberJoined {
		t.Fatalf("event = %s, want %s", f.Event, EvtMemberJoined)
	}
	if f.Data["userId"] != "bob" || f.Data["roomId"] != "conv-1" {
		t.Errorf("member payload = %v", f.Data)
	}
	// the joiner itself hears nothing
	assertNoFrame(t, second)
}

func TestJoinIdempotent(t *testing.T) {
	reg, rt := newTestRouter(t)
	first := join(t, reg, rt, "c1", "alice", "conv-1")
	join(t, reg, rt, "c2", "bob", "conv-1")
	recvFrame(t, first)

	rt.Join("c2", "conv-1")
	if got := rt.MemberCount("conv-1"); got != 2 {
		t.Errorf("member count = %d, want 2", got)
	}
	assertNoFrame(t, first)
}

func TestJoinUnauthenticatedIsNoop(t *testing.T) {
	reg, rt := newTestRouter(t)
	c := newConn("c1")
	reg.Register(c)

	rt.Join("c1", "conv-1")
	if got := rt.MemberCount("conv-1"); got != 0 {
		t.Errorf("member count = %d, want 0", got)
	}
}

func TestLeaveNotifiesRemaining(t *testing.T) {
	reg, rt := newTestRouter(t)
	first := join(t, reg, rt, "c1", "alice", "conv-1")
	join(t, reg, rt, "c2", "bob", "conv-1")
	recvFrame(t, first)

	rt.Leave("c2", "conv-1")
	f := recvFrame(t, first)
	if f.Event != EvtMemberLeft || f.Data["userId"] != "bob" {
		t.Errorf("got %s %v, want member-left for bob", f.Event, f.Data)
	}
	if got := rt.MemberCount("conv-1"); got != 1 {
		t.Errorf("member count = %d, want 1", got)
	}
}

func TestLeaveNeverJoinedIsNoop(t *testing.T) {
	reg, rt := newTestRouter(t)
	first := join(t, reg, rt, "c1", "alice", "conv-1")
	c2 := newConn("c2")
	reg.Register(c2)
	_, _ = reg.Authenticate("c2", "bob")

	rt.Leave("c2", "conv-1")
	assertNoFrame(t, first)
}

func TestEmptyRoomLeavesArena(t *testing.T) {
	reg, rt := newTestRouter(t)
	join(t, reg, rt, "c1", "alice", "conv-1")

	rt.Leave("c1", "conv-1")
	rt.mu.RLock()
	_, exists := rt.rooms["conv-1"]
	rt.mu.RUnlock()
	if exists {
		t.Error("room with no members must be dropped from the arena")
	}
}

func TestBroadcastExclusion(t *testing.T) {
	reg, rt := newTestRouter(t)
	first := join(t, reg, rt, "c1", "alice", "conv-1")
	second := join(t, reg, rt, "c2", "bob", "conv-1")
	recvFrame(t, first) // bob's join

	rt.Broadcast("conv-1", EvtMessageTyping, map[string]any{"conversationId": "conv-1"}, "c1")
	f := recvFrame(t, second)
	if f.Event != EvtMessageTyping {
		t.Errorf("event = %s, want %s", f.Event, EvtMessageTyping)
	}
	assertNoFrame(t, first)
}

func TestBroadcastNoExclusionReachesAll(t *testing.T) {
	reg, rt := newTestRouter(t)
	first := join(t, reg, rt, "c1", "alice", "conv-1")
	second := join(t, reg, rt, "c2", "bob", "conv-1")
	recvFrame(t, first)

	rt.Broadcast("conv-1", EvtMessageNew, map[string]any{"conversationId": "conv-1"}, "")
	for _, c := range []*Conn{first, second} {
		if f := recvFrame(t, c); f.Event != EvtMessageNew {
			t.Errorf("event = %s, want %s", f.Event, EvtMessageNew)
		}
	}
}

func TestLeaveAllOnClosePath(t *testing.T) {
	reg, rt := newTestRouter(t)
	first := join(t, reg, rt, "c1", "alice", "conv-1")
	join(t, reg, rt, "c2", "bob", "conv-1")
	recvFrame(t, first)

	userID, rooms, _, ok := reg.Unregister("c2")
	if !ok {
		t.Fatal("unregister failed")
	}
	rt.LeaveAll("c2", userID, rooms)

	f := recvFrame(t, first)
	if f.Event != EvtMemberLeft || f.Data["userId"] != "bob" {
		t.Errorf("got %s %v, want member-left for bob", f.Event, f.Data)
	}
	if got := rt.MemberCount("conv-1"); got != 1 {
		t.Errorf("member count = %d, want 1", got)
	}
}
