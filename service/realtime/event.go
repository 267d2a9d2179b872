package realtime

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType is the closed set of wire event names. Inbound events are routed
// by the dispatcher's handler table; outbound events are built by the Build*
// helpers so payload shapes stay in one place.
type EventType string

// Client -> server.
const (
	EvtAuthenticate     EventType = "authenticate"
	EvtRoomJoin         EventType = "room:join"
	EvtRoomLeave        EventType = "room:leave"
	EvtMessageSend      EventType = "message:send"
	EvtMessageTyping    EventType = "message:typing"
	EvtMessageRead      EventType = "message:read"
	EvtCallInitiate     EventType = "call:initiate"
	EvtCallAnswer       EventType = "call:answer"
	EvtCallDecline      EventType = "call:decline"
	EvtCallEnd          EventType = "call:end"
	EvtLiveChatMessage  EventType = "liveChat:message"
	EvtLiveChatAssigned EventType = "liveChat:assigned"
	EvtLiveChatClosed   EventType = "liveChat:closed"
	EvtHeartbeat        EventType = "heartbeat"
)

// Server -> client.
const (
	EvtAuthenticated EventType = "authenticated"
	EvtError         EventType = "error"
	EvtPresence      EventType = "presence"
	EvtMemberJoined  EventType = "room:member-joined"
	EvtMemberLeft    EventType = "room:member-left"
	EvtMessageNew    EventType = "message:new"
	EvtCallIncoming  EventType = "call:incoming"
	EvtCallAnswered  EventType = "call:answered"
	EvtCallDeclined  EventType = "call:declined"
	EvtCallEnded     EventType = "call:ended"
)

// Frame is the wire envelope: one JSON object per websocket text message.
type Frame struct {
	Event EventType      `json:"event"`
	Data  map[string]any `json:"data,omitempty"`
}

func ParseFrame(raw []byte) (*Frame, error) {
	f := &Frame{}
	if err := json.Unmarshal(raw, f); err != nil {
		return nil, fmt.Errorf("unmarshal frame: %w", err)
	}
	if f.Event == "" {
		return nil, fmt.Errorf("frame has no event name")
	}
	return f, nil
}

// EncodeFrame marshals an outbound envelope once so fan-out paths share a
// single serialization.
func EncodeFrame(event EventType, data map[string]any) ([]byte, error) {
	return json.Marshal(Frame{Event: event, Data: data})
}

// ---- inbound payload shapes (routing fields only; message bodies stay opaque) ----

type AuthPayload struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

type RoomPayload struct {
	RoomID string `json:"roomId"`
}

type ConversationPayload struct {
	ConversationID string `json:"conversationId"`
}

type CallPayload struct {
	CallID     string `json:"callId"`
	ReceiverID string `json:"receiverId"`
	Type       string `json:"type"` // voice | video
}

// ---- outbound builders ----

func BuildAuthAck(userID, connID string) map[string]any {
	return map[string]any{
		"userId":     userID,
		"connId":     connID,
		"serverTime": time.Now().UnixMilli(),
	}
}

func BuildError(code int, msg string) map[string]any {
	return map[string]any{"code": code, "message": msg}
}

func BuildPresence(userID, status string) map[string]any {
	return map[string]any{
		"userId":    userID,
		"status":    status,
		"timestamp": time.Now().UnixMilli(),
	}
}

func BuildMember(roomID, userID string) map[string]any {
	return map[string]any{"roomId": roomID, "userId": userID}
}

func BuildHeartbeatAck() map[string]any {
	return map[string]any{"serverTime": time.Now().UnixMilli()}
}
