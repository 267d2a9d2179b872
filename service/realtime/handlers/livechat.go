package handlers

import (
	"github.com/Araz9999/naxtap-sub005/service/realtime"
)

// LiveChatHandler rebroadcasts operator-chat events (message/assigned/closed)
// to the conversation room. Same broadcast path as ordinary messaging, kept as
// a distinct event namespace; the event name passes through unchanged and the
// sender is included like message:send.
type LiveChatHandler struct {
	evt realtime.EventType
}

func NewLiveChatHandler(evt realtime.EventType) realtime.Handler {
	return &LiveChatHandler{evt: evt}
}

func (h *LiveChatHandler) Type() realtime.EventType { return h.evt }

func (h *LiveChatHandler) Handle(ctx *realtime.Context, conn *realtime.Conn, data map[string]any) error {
	if err := requireAuth(conn); err != nil {
		return err
	}
	roomID, err := conversationRoom(data)
	if err != nil {
		return err
	}
	out := withSender(data, conn.UserID)
	ctx.S.Rooms().Broadcast(roomID, h.evt, out, "")
	return nil
}
