// Package notify bridges server-initiated pushes into the realtime gateway.
// Non-realtime services (the HTTP API that just persisted a message, the call
// service, the live-chat backend) publish to NATS subjects; the bridge
// forwards each payload to the gateway's push surface. Delivery stays
// best-effort end to end; the bridge adds no queueing or replay.
package notify

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Araz9999/naxtap-sub005/logger"
	"github.com/Araz9999/naxtap-sub005/tools/safe"
)

const (
	subjMessage  = "naxtap.notify.message.*"  // naxtap.notify.message.<userID>
	subjCall     = "naxtap.notify.call.*"     // naxtap.notify.call.<userID>
	subjLiveChat = "naxtap.notify.livechat.*" // naxtap.notify.livechat.<roomID>
)

// Pusher is the slice of the gateway the bridge is allowed to drive.
type Pusher interface {
	SendMessageNotification(userID string, payload map[string]any)
	SendCallNotification(userID string, payload map[string]any)
	SendLiveChatNotification(roomID string, payload map[string]any)
}

type Config struct {
	Servers       string // comma-separated
	Name          string
	ReconnectWait time.Duration
	Timeout       time.Duration
}

func (c *Config) norm() {
	if c.Name == "" {
		c.Name = "naxtap-gateway"
	}
	if c.ReconnectWait <= 0 {
		c.ReconnectWait = 500 * time.Millisecond
	}
	if c.Timeout <= 0 {
		c.Timeout = 3 * time.Second
	}
}

type Bridge struct {
	nc   *nats.Conn
	gw   Pusher
	subs []*nats.Subscription
}

func NewBridge(cfg Config, gw Pusher) (*Bridge, error) {
	cfg.norm()
	if cfg.Servers == "" {
		return nil, errors.New("nats servers missing")
	}
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.ReconnectJitter(100*time.Millisecond, 500*time.Millisecond),
		nats.Timeout(cfg.Timeout),
	}
	nc, err := nats.Connect(cfg.Servers, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "nats connect")
	}
	return &Bridge{nc: nc, gw: gw}, nil
}

// Start subscribes the three notify subjects. Subjects carry the target id as
// their last token; the body is the opaque event payload as JSON.
func (b *Bridge) Start() error {
	for _, s := range []struct {
		subject string
		forward func(id string, payload map[string]any)
	}{
		{subjMessage, b.gw.SendMessageNotification},
		{subjCall, b.gw.SendCallNotification},
		{subjLiveChat, b.gw.SendLiveChatNotification},
	} {
		forward := s.forward
		sub, err := b.nc.Subscribe(s.subject, func(m *nats.Msg) {
			id := subjectTail(m.Subject)
			if id == "" {
				logger.Warn("[notify] subject has no target", zap.String("subject", m.Subject))
				return
			}
			var payload map[string]any
			if err := json.Unmarshal(m.Data, &payload); err != nil {
				logger.Warn("[notify] bad payload",
					zap.String("subject", m.Subject), zap.Error(err))
				return
			}
			// a panicking push path must not take down the subscription
			safe.Call(func() { forward(id, payload) })
		})
		if err != nil {
			b.Close()
			return errors.Wrapf(err, "subscribe %s", s.subject)
		}
		b.subs = append(b.subs, sub)
	}
	logger.Info("[notify] bridge started")
	return nil
}

func (b *Bridge) Close() {
	for _, sub := range b.subs {
		_ = sub.Unsubscribe()
	}
	b.subs = nil
	if b.nc != nil {
		b.nc.Close()
	}
}

func subjectTail(subject string) string {
	i := strings.LastIndexByte(subject, '.')
	if i < 0 || i == len(subject)-1 {
		return ""
	}
	return subject[i+1:]
}
