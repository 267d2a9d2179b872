package handlers

import (
	"github.com/Araz9999/naxtap-sub005/service/realtime"
	"github.com/Araz9999/naxtap-sub005/tools/decode"
	"github.com/Araz9999/naxtap-sub005/tools/errs"
)

// conversationRoom resolves the broadcast room for a messaging event. Rooms
// are keyed by conversation id on this gateway.
func conversationRoom(data map[string]any) (string, error) {
	p, err := decode.Payload[realtime.ConversationPayload](data)
	if err != nil || p.ConversationID == "" {
		return "", errs.ErrBadPayload.WithDetail("conversationId required")
	}
	return p.ConversationID, nil
}

type MessageSendHandler struct{}

func NewMessageSendHandler() realtime.Handler { return &MessageSendHandler{} }

func (h *MessageSendHandler) Type() realtime.EventType { return realtime.EvtMessageSend }

// Handle rebroadcasts the payload to the conversation room as message:new.
// The sender is NOT excluded: it receives its own message back as local
// confirmation. The payload body passes through untouched; durability is the
// message store's job before this event was ever sent.
func (h *MessageSendHandler) Handle(ctx *realtime.Context, conn *realtime.Conn, data map[string]any) error {
	if err := requireAuth(conn); err != nil {
		return err
	}
	roomID, err := conversationRoom(data)
	if err != nil {
		return err
	}
	out := withSender(data, conn.UserID)
	ctx.S.Rooms().Broadcast(roomID, realtime.EvtMessageNew, out, "")
	return nil
}

type TypingHandler struct{}

func NewTypingHandler() realtime.Handler { return &TypingHandler{} }

func (h *TypingHandler) Type() realtime.EventType { return realtime.EvtMessageTyping }

// Handle rebroadcasts the typing flag to the room, excluding the sender: a
// client must never see its own typing indicator come back.
func (h *TypingHandler) Handle(ctx *realtime.Context, conn *realtime.Conn, data map[string]any) error {
	if err := requireAuth(conn); err != nil {
		return err
	}
	roomID, err := conversationRoom(data)
	if err != nil {
		return err
	}
	out := withSender(data, conn.UserID)
	ctx.S.Rooms().Broadcast(roomID, realtime.EvtMessageTyping, out, conn.ID)
	return nil
}

type ReadHandler struct{}

func NewReadHandler() realtime.Handler { return &ReadHandler{} }

func (h *ReadHandler) Type() realtime.EventType { return realtime.EvtMessageRead }

// Handle rebroadcasts read receipts (message id list plus reader identity) to
// the room, excluding the reader itself.
func (h *ReadHandler) Handle(ctx *realtime.Context, conn *realtime.Conn, data map[string]any) error {
	if err := requireAuth(conn); err != nil {
		return err
	}
	roomID, err := conversationRoom(data)
	if err != nil {
		return err
	}
	out := withSender(data, conn.UserID)
	ctx.S.Rooms().Broadcast(roomID, realtime.EvtMessageRead, out, conn.ID)
	return nil
}

// withSender copies the payload and stamps the authenticated sender identity,
// so receivers never trust a client-supplied sender field.
func withSender(data map[string]any, userID string) map[string]any {
	out := make(map[string]any, len(data)+1)
	for k, v := range data {
		out[k] = v
	}
	out["senderId"] = userID
	return out
}
