package realtime

import (
	"testing"
)

func newConn(id string) *Conn {
	return &Conn{ID: id, Send: make(chan []byte, 16)}
}

func TestAuthenticateFirstConnection(t *testing.T) {
	reg := NewRegistry()
	c := newConn("c1")
	reg.Register(c)

	first, err := reg.Authenticate("c1", "alice")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if !first {
		t.Error("expected first=true on 0->1 transition")
	}
	if !reg.IsOnline("alice") {
		t.Error("alice should be online")
	}
	if got := reg.ConnectionCount("alice"); got != 1 {
		t.Errorf("connection count = %d, want 1", got)
	}
}

func TestAuthenticateSecondDeviceIsNotFirst(t *testing.T) {
	reg := NewRegistry()
	reg.Register(newConn("c1"))
	reg.Register(newConn("c2"))

	if first, _ := reg.Authenticate("c1", "alice"); !first {
		t.Error("first device should report first=true")
	}
	first, err := reg.Authenticate("c2", "alice")
	if err != nil {
		t.Fatalf("authenticate second device: %v", err)
	}
	if first {
		t.Error("second device must not report a presence transition")
	}
	if got := reg.ConnectionCount("alice"); got != 2 {
		t.Errorf("connection count = %d, want 2", got)
	}
}

func TestAuthenticateIdempotentSameUser(t *testing.T) {
	reg := NewRegistry()
	reg.Register(newConn("c1"))

	if _, err := reg.Authenticate("c1", "alice"); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	first, err := reg.Authenticate("c1", "alice")
	if err != nil {
		t.Fatalf("re-authenticate same user: %v", err)
	}
	if first {
		t.Error("re-authenticate must not report a transition")
	}
	if got := reg.ConnectionCount("alice"); got != 1 {
		t.Errorf("connection count = %d, want 1", got)
	}
}

func TestAuthenticateRejectsRebind(t *testing.T) {
	reg := NewRegistry()
	reg.Register(newConn("c1"))

	if _, err := reg.Authenticate("c1", "alice"); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if _, err := reg.Authenticate("c1", "bob"); err == nil {
		t.Fatal("rebinding a connection to a different user must fail")
	}
	if reg.IsOnline("bob") {
		t.Error("bob must not appear online after rejected rebind")
	}
}

func TestAuthenticateUnknownConn(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.Authenticate("nope", "alice"); err == nil {
		t.Fatal("expected error for unknown connection")
	}
}

func TestUnregisterReportsLastAndRooms(t *testing.T) {
	reg := NewRegistry()
	c1, c2 := newConn("c1"), newConn("c2")
	reg.Register(c1)
	reg.Register(c2)
	_, _ = reg.Authenticate("c1", "alice")
	_, _ = reg.Authenticate("c2", "alice")
	_, _, _ = reg.AddRoom("c1", "room-a")
	_, _, _ = reg.AddRoom("c1", "room-b")

	userID, rooms, last, ok := reg.Unregister("c1")
	if !ok {
		t.Fatal("unregister existing conn should report ok")
	}
	if userID != "alice" {
		t.Errorf("userID = %q, want alice", userID)
	}
	if len(rooms) != 2 {
		t.Errorf("room snapshot = %v, want 2 rooms", rooms)
	}
	if last {
		t.Error("alice still has c2, not last")
	}

	_, _, last, _ = reg.Unregister("c2")
	if !last {
		t.Error("closing the final connection must report last=true")
	}
	if reg.IsOnline("alice") {
		t.Error("alice should be offline")
	}
}

func TestUnregisterUnauthenticated(t *testing.T) {
	reg := NewRegistry()
	reg.Register(newConn("c1"))

	userID, _, last, ok := reg.Unregister("c1")
	if !ok {
		t.Fatal("expected ok")
	}
	if userID != "" || last {
		t.Errorf("unauthenticated close: userID=%q last=%v, want empty/false", userID, last)
	}
}

func TestUnregisterUnknownConn(t *testing.T) {
	reg := NewRegistry()
	if _, _, _, ok := reg.Unregister("ghost"); ok {
		t.Fatal("unknown connection must report ok=false")
	}
}

func TestAddRemoveRoomIdempotent(t *testing.T) {
	reg := NewRegistry()
	reg.Register(newConn("c1"))
	_, _ = reg.Authenticate("c1", "alice")

	added, userID, err := reg.AddRoom("c1", "room-a")
	if err != nil || !added || userID != "alice" {
		t.Fatalf("AddRoom = (%v, %q, %v)", added, userID, err)
	}
	if added, _, _ := reg.AddRoom("c1", "room-a"); added {
		t.Error("second AddRoom must report added=false")
	}

	removed, _, err := reg.RemoveRoom("c1", "room-a")
	if err != nil || !removed {
		t.Fatalf("RemoveRoom = (%v, %v)", removed, err)
	}
	if removed, _, _ := reg.RemoveRoom("c1", "room-a"); removed {
		t.Error("second RemoveRoom must report removed=false")
	}
}

func TestFindConnectionsAndOnlineUserIDs(t *testing.T) {
	reg := NewRegistry()
	for _, tc := range []struct{ conn, user string }{
		{"c1", "alice"}, {"c2", "alice"}, {"c3", "bob"},
	} {
		reg.Register(newConn(tc.conn))
		_, _ = reg.Authenticate(tc.conn, tc.user)
	}

	if got := len(reg.FindConnections("alice")); got != 2 {
		t.Errorf("alice connections = %d, want 2", got)
	}
	if got := reg.FindConnections("carol"); got != nil {
		t.Errorf("offline user connections = %v, want nil", got)
	}
	if got := len(reg.OnlineUserIDs()); got != 2 {
		t.Errorf("online users = %d, want 2", got)
	}
	if got := len(reg.AllConns()); got != 3 {
		t.Errorf("all conns = %d, want 3", got)
	}
}
