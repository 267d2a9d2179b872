package realtime

import (
	"sync"

	"github.com/Araz9999/naxtap-sub005/tools/errs"
)

// Conn is one live transport connection. UserID is empty until the
// authenticate handshake succeeds on this connection. Send is drained by a
// single write pump owned by the gateway. Send is never closed: a fanout
// worker may hold a snapshot of this conn after the close path has run, so
// teardown is signaled through done instead.
type Conn struct {
	ID     string
	UserID string
	Send   chan []byte

	done      chan struct{}
	closeOnce sync.Once
	rooms     map[string]struct{} // guarded by the owning Registry's mutex
}

// Close signals the write pump to exit. Idempotent.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		if c.done != nil {
			close(c.done)
		}
	})
}

// Done is closed once the close path has run for this connection.
func (c *Conn) Done() <-chan struct{} { return c.done }

// Registry maps open connections to authenticated identities and tracks the
// room set of each connection. It is an explicit struct handed to the router,
// dispatcher and presence broadcaster, never a package-level singleton, so
// tests get fresh state per instance.
type Registry struct {
	mu     sync.RWMutex
	byConn map[string]*Conn            // conn_id -> conn
	byUser map[string]map[string]*Conn // user -> conn_id -> conn
}

func NewRegistry() *Registry {
	return &Registry{
		byConn: make(map[string]*Conn),
		byUser: make(map[string]map[string]*Conn),
	}
}

// Register records a freshly opened, unauthenticated connection.
func (r *Registry) Register(c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.rooms = make(map[string]struct{})
	c.done = make(chan struct{})
	r.byConn[c.ID] = c
}

// Authenticate binds userID to the connection. first reports whether this is
// the user's first live connection (the 0->1 presence transition). Binding is
// idempotent for the same user and rejected for a different one.
func (r *Registry) Authenticate(connID, userID string) (first bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byConn[connID]
	if !ok {
		return false, &errs.ErrConnUnknown
	}
	if c.UserID == userID {
		return false, nil
	}
	if c.UserID != "" {
		return false, errs.ErrBadToken.WithDetail("connection already bound to another user")
	}

	first = len(r.byUser[userID]) == 0
	c.UserID = userID
	m := r.byUser[userID]
	if m == nil {
		m = make(map[string]*Conn)
		r.byUser[userID] = m
	}
	m[connID] = c
	return first, nil
}

// Unregister removes the connection on transport close. It returns the owning
// user id (empty if never authenticated), a snapshot of the rooms the
// connection had joined, and whether this was the user's last connection
// (the 1->0 presence transition). The room snapshot is captured here, at close
// time, because the caller needs it for member-left fan-out after the entry
// is gone.
func (r *Registry) Unregister(connID string) (userID string, rooms []string, last bool, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byConn[connID]
	if !ok {
		return "", nil, false, false
	}
	delete(r.byConn, connID)

	rooms = make([]string, 0, len(c.rooms))
	for id := range c.rooms {
		rooms = append(rooms, id)
	}

	if c.UserID != "" {
		userID = c.UserID
		if m := r.byUser[userID]; m != nil {
			delete(m, connID)
			if len(m) == 0 {
				delete(r.byUser, userID)
				last = true
			}
		}
	}
	return userID, rooms, last, true
}

func (r *Registry) Get(connID string) *Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byConn[connID]
}

// FindConnections returns all live connections bound to userID, used for
// direct-send and presence counting.
func (r *Registry) FindConnections(userID string) []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m := r.byUser[userID]
	if len(m) == 0 {
		return nil
	}
	out := make([]*Conn, 0, len(m))
	for _, c := range m {
		out = append(out, c)
	}
	return out
}

func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[userID]) > 0
}

func (r *Registry) OnlineUserIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byUser))
	for u := range r.byUser {
		out = append(out, u)
	}
	return out
}

func (r *Registry) ConnectionCount(userID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[userID])
}

// AllConns snapshots every live connection; used by the global presence
// broadcast.
func (r *Registry) AllConns() []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Conn, 0, len(r.byConn))
	for _, c := range r.byConn {
		out = append(out, c)
	}
	return out
}

// AddRoom adds roomID to the connection's joined set. added is false when the
// membership already existed, which keeps join idempotent.
func (r *Registry) AddRoom(connID, roomID string) (added bool, userID string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byConn[connID]
	if !ok {
		return false, "", &errs.ErrConnUnknown
	}
	if _, exists := c.rooms[roomID]; exists {
		return false, c.UserID, nil
	}
	c.rooms[roomID] = struct{}{}
	return true, c.UserID, nil
}

// RemoveRoom is the idempotent inverse of AddRoom.
func (r *Registry) RemoveRoom(connID, roomID string) (removed bool, userID string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byConn[connID]
	if !ok {
		return false, "", &errs.ErrConnUnknown
	}
	if _, exists := c.rooms[roomID]; !exists {
		return false, c.UserID, nil
	}
	delete(c.rooms, roomID)
	return true, c.UserID, nil
}
