package handlers

import (
	"github.com/Araz9999/naxtap-sub005/service/realtime"
	"github.com/Araz9999/naxtap-sub005/tools/decode"
	"github.com/Araz9999/naxtap-sub005/tools/errs"
)

// CallHandler routes one call-signaling event type to the counterpart
// identity's connections. All four call events share the same shape: decode
// the receiver, stamp the authenticated caller, direct-send. A receiver with
// no live connection means the call silently fails to ring: at-most-once,
// best-effort, no error back to the caller.
type CallHandler struct {
	in  realtime.EventType
	out realtime.EventType
}

func NewCallHandler(in, out realtime.EventType) realtime.Handler {
	return &CallHandler{in: in, out: out}
}

func (h *CallHandler) Type() realtime.EventType { return h.in }

func (h *CallHandler) Handle(ctx *realtime.Context, conn *realtime.Conn, data map[string]any) error {
	if err := requireAuth(conn); err != nil {
		return err
	}
	p, err := decode.Payload[realtime.CallPayload](data)
	if err != nil || p.ReceiverID == "" {
		return errs.ErrBadPayload.WithDetail("receiverId required")
	}
	out := withSender(data, conn.UserID)
	ctx.S.DirectSend(p.ReceiverID, h.out, out)
	return nil
}
