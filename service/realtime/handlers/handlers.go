// Package handlers implements one handler per inbound event family of the
// realtime gateway. Handlers validate routing fields only; message bodies
// stay opaque and business validation belongs to the callers that persisted
// the data.
package handlers

import (
	"github.com/Araz9999/naxtap-sub005/service/realtime"
	"github.com/Araz9999/naxtap-sub005/tools/errs"
)

// All returns the complete closed handler set for registration at gateway
// construction. Every inbound event in the catalogue appears exactly once.
func All() []realtime.Handler {
	return []realtime.Handler{
		NewAuthHandler(),
		NewRoomJoinHandler(),
		NewRoomLeaveHandler(),
		NewMessageSendHandler(),
		NewTypingHandler(),
		NewReadHandler(),
		NewCallHandler(realtime.EvtCallInitiate, realtime.EvtCallIncoming),
		NewCallHandler(realtime.EvtCallAnswer, realtime.EvtCallAnswered),
		NewCallHandler(realtime.EvtCallDecline, realtime.EvtCallDeclined),
		NewCallHandler(realtime.EvtCallEnd, realtime.EvtCallEnded),
		NewLiveChatHandler(realtime.EvtLiveChatMessage),
		NewLiveChatHandler(realtime.EvtLiveChatAssigned),
		NewLiveChatHandler(realtime.EvtLiveChatClosed),
		NewHeartbeatHandler(),
	}
}

// requireAuth gates room-scoped and direct-send events: before authenticate
// succeeds they are rejected with a local error event, never propagated.
func requireAuth(conn *realtime.Conn) error {
	if conn.UserID == "" {
		return &errs.ErrUnauthenticated
	}
	return nil
}
