package realtime

import (
	"sync"
	"testing"
)

type fakeSink struct {
	mu       sync.Mutex
	online   []string
	offline  []string
	refreshs [][]string
}

func (s *fakeSink) Online(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.online = append(s.online, userID)
	return nil
}

func (s *fakeSink) Offline(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offline = append(s.offline, userID)
	return nil
}

func (s *fakeSink) Refresh(userIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshs = append(s.refreshs, userIDs)
	return nil
}

func (s *fakeSink) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.online), len(s.offline)
}

func newTestPresence(t *testing.T) (*Registry, *PresenceBroadcaster, *fakeSink) {
	t.Helper()
	reg := NewRegistry()
	fanout := NewFanout(2, 64)
	t.Cleanup(fanout.Close)
	sink := &fakeSink{}
	return reg, NewPresenceBroadcaster(reg, fanout, sink), sink
}

func TestPresenceOnlineBroadcastOnFirstConnection(t *testing.T) {
	reg, pb, sink := newTestPresence(t)
	watcher := newConn("w1")
	reg.Register(watcher)

	c := newConn("c1")
	reg.Register(c)
	first, _ := reg.Authenticate("c1", "alice")
	pb.HandleAuthenticated("alice", first)

	f := recvFrame(t, watcher)
	if f.Event != EvtPresence {
		t.Fatalf("event = %s, want %s", f.Event, EvtPresence)
	}
	if f.Data["userId"] != "alice" || f.Data["status"] != PresenceOnline {
		t.Errorf("payload = %v", f.Data)
	}
	if on, _ := sink.counts(); on != 1 {
		t.Errorf("sink online calls = %d, want 1", on)
	}
}

func TestPresenceNoBroadcastOnSecondDevice(t *testing.T) {
	reg, pb, sink := newTestPresence(t)
	watcher := newConn("w1")
	reg.Register(watcher)

	reg.Register(newConn("c1"))
	first, _ := reg.Authenticate("c1", "alice")
	pb.HandleAuthenticated("alice", first)
	recvFrame(t, watcher)

	reg.Register(newConn("c2"))
	first, _ = reg.Authenticate("c2", "alice")
	pb.HandleAuthenticated("alice", first)

	assertNoFrame(t, watcher)
	if on, _ := sink.counts(); on != 1 {
		t.Errorf("sink online calls = %d, want 1", on)
	}
}

func TestPresenceOfflineOnlyOnLastClose(t *testing.T) {
	reg, pb, sink := newTestPresence(t)
	watcher := newConn("w1")
	reg.Register(watcher)

	for _, id := range []string{"c1", "c2"} {
		reg.Register(newConn(id))
		first, _ := reg.Authenticate(id, "alice")
		pb.HandleAuthenticated("alice", first)
	}
	recvFrame(t, watcher) // the single online broadcast

	userID, _, last, _ := reg.Unregister("c1")
	pb.HandleClosed(userID, last)
	assertNoFrame(t, watcher)

	userID, _, last, _ = reg.Unregister("c2")
	pb.HandleClosed(userID, last)
	f := recvFrame(t, watcher)
	if f.Data["status"] != PresenceOffline {
		t.Errorf("status = %v, want offline", f.Data["status"])
	}
	if _, off := sink.counts(); off != 1 {
		t.Errorf("sink offline calls = %d, want 1", off)
	}
}

func TestPresenceUnauthenticatedCloseIsSilent(t *testing.T) {
	reg, pb, sink := newTestPresence(t)
	watcher := newConn("w1")
	reg.Register(watcher)

	reg.Register(newConn("c1"))
	userID, _, last, _ := reg.Unregister("c1")
	pb.HandleClosed(userID, last)

	assertNoFrame(t, watcher)
	if on, off := sink.counts(); on != 0 || off != 0 {
		t.Errorf("sink calls = (%d, %d), want none", on, off)
	}
}

func TestPresenceSnapshotSurface(t *testing.T) {
	reg, pb, _ := newTestPresence(t)
	reg.Register(newConn("c1"))
	_, _ = reg.Authenticate("c1", "alice")

	if !pb.IsUserOnline("alice") {
		t.Error("alice should be online")
	}
	if pb.IsUserOnline("bob") {
		t.Error("bob should be offline")
	}
	if got := pb.UserConnCount("alice"); got != 1 {
		t.Errorf("conn count = %d, want 1", got)
	}
	if got := pb.OnlineUsers(); len(got) != 1 || got[0] != "alice" {
		t.Errorf("online users = %v", got)
	}
}

func TestNilSinkIsSkipped(t *testing.T) {
	reg := NewRegistry()
	fanout := NewFanout(1, 16)
	t.Cleanup(fanout.Close)
	pb := NewPresenceBroadcaster(reg, fanout, nil)

	reg.Register(newConn("c1"))
	first, _ := reg.Authenticate("c1", "alice")
	pb.HandleAuthenticated("alice", first) // must not panic
}
