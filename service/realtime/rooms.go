package realtime

import (
	"sync"

	"github.com/Araz9999/naxtap-sub005/logger"
	"go.uber.org/zap"
)

// room is an arena entry: a broadcast group materialized while it has members.
type room struct {
	id      string
	members map[string]*Conn // conn_id -> conn
}

// Router owns join/leave semantics and room fan-out. Rooms live in an explicit
// arena and are dropped deterministically when their last member leaves, so an
// empty room never lingers as a transient query result.
type Router struct {
	mu    sync.RWMutex
	rooms map[string]*room

	reg    *Registry
	fanout *Fanout
}

func NewRouter(reg *Registry, fanout *Fanout) *Router {
	return &Router{
		rooms:  make(map[string]*room),
		reg:    reg,
		fanout: fanout,
	}
}

// Join adds the connection to roomID and notifies the other members. Joining
// twice is a no-op. An unauthenticated connection cannot join; that is a
// logged warning, not an error, because the client retries after auth.
func (rt *Router) Join(connID, roomID string) {
	c := rt.reg.Get(connID)
	if c == nil {
		logger.Warn("[room] join on unknown conn", zap.String("conn_id", connID), zap.String("room_id", roomID))
		return
	}
	if c.UserID == "" {
		logger.Warn("[room] join from unauthenticated conn", zap.String("conn_id", connID), zap.String("room_id", roomID))
		return
	}
	added, userID, err := rt.reg.AddRoom(connID, roomID)
	if err != nil || !added {
		return
	}

	rt.mu.Lock()
	rm := rt.rooms[roomID]
	if rm == nil {
		rm = &room{id: roomID, members: make(map[string]*Conn)}
		rt.rooms[roomID] = rm
	}
	rm.members[connID] = c
	rt.mu.Unlock()

	rt.Broadcast(roomID, EvtMemberJoined, BuildMember(roomID, userID), connID)
}

// Leave removes the connection from roomID and notifies the remaining
// members. Leaving a room that was never joined is a no-op.
func (rt *Router) Leave(connID, roomID string) {
	removed, userID, err := rt.reg.RemoveRoom(connID, roomID)
	if err != nil || !removed {
		return
	}
	rt.dropMember(connID, roomID)
	rt.Broadcast(roomID, EvtMemberLeft, BuildMember(roomID, userID), connID)
}

// LeaveAll handles the close path: the registry's Unregister captured the
// connection's room set, and each of those rooms gets a member-left
// notification for its remaining members.
func (rt *Router) LeaveAll(connID, userID string, rooms []string) {
	for _, roomID := range rooms {
		rt.dropMember(connID, roomID)
		if userID != "" {
			rt.Broadcast(roomID, EvtMemberLeft, BuildMember(roomID, userID), connID)
		}
	}
}

// Broadcast delivers event to every member of roomID except excludeConnID
// (empty string excludes nobody). The sender-exclusion knob exists so a typing
// indicator is not echoed to its author while a chat message is.
func (rt *Router) Broadcast(roomID string, event EventType, data map[string]any, excludeConnID string) {
	payload, err := EncodeFrame(event, data)
	if err != nil {
		logger.Errorf("[room] encode %s: %v", event, err)
		return
	}

	rt.mu.RLock()
	rm := rt.rooms[roomID]
	var conns []*Conn
	if rm != nil {
		conns = make([]*Conn, 0, len(rm.members))
		for id, c := range rm.members {
			if id == excludeConnID {
				continue
			}
			conns = append(conns, c)
		}
	}
	rt.mu.RUnlock()

	rt.fanout.Broadcast(conns, payload)
}

// MemberCount reports the current size of a room; zero means the room does
// not exist in the arena.
func (rt *Router) MemberCount(roomID string) int {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	rm := rt.rooms[roomID]
	if rm == nil {
		return 0
	}
	return len(rm.members)
}

func (rt *Router) dropMember(connID, roomID string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rm := rt.rooms[roomID]
	if rm == nil {
		return
	}
	delete(rm.members, connID)
	if len(rm.members) == 0 {
		delete(rt.rooms, roomID)
	}
}
