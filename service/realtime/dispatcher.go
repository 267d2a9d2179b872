package realtime

import (
	"github.com/Araz9999/naxtap-sub005/tools/errs"
)

// TokenVerifier is the authentication collaborator: it validates a signed
// token and resolves the owning user id. The registry itself never sees a
// token.
type TokenVerifier interface {
	Verify(token string) (userID string, err error)
}

// Handler processes one inbound event type.
type Handler interface {
	Type() EventType
	Handle(ctx *Context, conn *Conn, data map[string]any) error
}

// Context hands handlers the gateway surface they are allowed to touch.
type Context struct {
	S *Gateway
}

// Dispatcher routes inbound frames to the handler registered for their event
// type. The event set is closed: every type in the catalogue has exactly one
// handler registered at gateway construction, so an unregistered name is a
// client error, not a gap.
type Dispatcher struct {
	handlers map[EventType]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[EventType]Handler)}
}

func (d *Dispatcher) Register(h Handler) { d.handlers[h.Type()] = h }

func (d *Dispatcher) Dispatch(ctx *Context, conn *Conn, f *Frame) error {
	h, ok := d.handlers[f.Event]
	if !ok {
		return errs.ErrUnknownEvent.WithDetail(string(f.Event))
	}
	return h.Handle(ctx, conn, f.Data)
}
