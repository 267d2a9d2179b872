package realtime

import (
	"context"
	"time"

	"github.com/Araz9999/naxtap-sub005/logger"
	"go.uber.org/zap"
)

const (
	PresenceOnline  = "online"
	PresenceOffline = "offline"
)

// PresenceSink mirrors presence transitions into an external store so other
// subsystems (HTTP API, operator dashboards) can read them without touching
// the in-memory registry. Optional; a nil sink is skipped.
type PresenceSink interface {
	Online(userID string) error
	Offline(userID string) error
	Refresh(userIDs []string) error
}

// PresenceBroadcaster emits online/offline transitions to every connection.
// Transitions are detected by the registry reporting 0->1 on authenticate and
// 1->0 on unregister, so a second device of the same user never causes a
// redundant broadcast.
type PresenceBroadcaster struct {
	reg    *Registry
	fanout *Fanout
	sink   PresenceSink
}

func NewPresenceBroadcaster(reg *Registry, fanout *Fanout, sink PresenceSink) *PresenceBroadcaster {
	return &PresenceBroadcaster{reg: reg, fanout: fanout, sink: sink}
}

// HandleAuthenticated fires after a successful authenticate; first is the
// registry's 0->1 report for that user.
func (p *PresenceBroadcaster) HandleAuthenticated(userID string, first bool) {
	if !first {
		return
	}
	p.transition(userID, PresenceOnline)
}

// HandleClosed fires after unregister; last is the registry's 1->0 report.
func (p *PresenceBroadcaster) HandleClosed(userID string, last bool) {
	if userID == "" || !last {
		return
	}
	p.transition(userID, PresenceOffline)
}

func (p *PresenceBroadcaster) transition(userID, status string) {
	payload, err := EncodeFrame(EvtPresence, BuildPresence(userID, status))
	if err != nil {
		logger.Errorf("[presence] encode: %v", err)
		return
	}
	// global broadcast, not room-scoped
	p.fanout.Broadcast(p.reg.AllConns(), payload)

	if p.sink == nil {
		return
	}
	var serr error
	if status == PresenceOnline {
		serr = p.sink.Online(userID)
	} else {
		serr = p.sink.Offline(userID)
	}
	if serr != nil {
		logger.Warn("[presence] sink update failed",
			zap.String("user_id", userID), zap.String("status", status), zap.Error(serr))
	}
}

// RunSinkRefresh periodically re-asserts every online user in the sink so
// mirrored keys with a TTL survive as long as the user stays connected. No-op
// without a sink; returns when ctx is done.
func (p *PresenceBroadcaster) RunSinkRefresh(ctx context.Context, every time.Duration) {
	if p.sink == nil {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := p.sink.Refresh(p.reg.OnlineUserIDs()); err != nil {
				logger.Warn("[presence] sink refresh failed", zap.Error(err))
			}
		}
	}
}

// ---- read-only snapshot surface for other subsystems ----

func (p *PresenceBroadcaster) OnlineUsers() []string           { return p.reg.OnlineUserIDs() }
func (p *PresenceBroadcaster) IsUserOnline(userID string) bool { return p.reg.IsOnline(userID) }
func (p *PresenceBroadcaster) UserConnCount(userID string) int { return p.reg.ConnectionCount(userID) }
