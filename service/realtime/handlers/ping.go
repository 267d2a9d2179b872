package handlers

import (
	"github.com/Araz9999/naxtap-sub005/service/realtime"
)

// HeartbeatHandler acks the client's liveness probe with the server
// timestamp. Allowed before authenticate (it is neither room-scoped nor a
// direct send) and it never touches presence state.
type HeartbeatHandler struct{}

func NewHeartbeatHandler() realtime.Handler { return &HeartbeatHandler{} }

func (h *HeartbeatHandler) Type() realtime.EventType { return realtime.EvtHeartbeat }

func (h *HeartbeatHandler) Handle(ctx *realtime.Context, conn *realtime.Conn, _ map[string]any) error {
	ctx.S.Ack(conn, realtime.EvtHeartbeat, realtime.BuildHeartbeatAck())
	return nil
}
