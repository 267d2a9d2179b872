package client

// Typed wrappers over Send for the gateway's inbound event set. They build the
// payloads the gateway handlers decode; nothing here waits for the ack, the
// caller subscribes with On for that.

// Authenticate binds this connection to a user. The gateway replies with an
// "authenticated" event on success or an "error" event with a code on failure.
func (c *Client) Authenticate(token, userID string) error {
	return c.Send("authenticate", map[string]any{
		"token":  token,
		"userId": userID,
	})
}

func (c *Client) JoinRoom(roomID string) error {
	return c.Send("room:join", map[string]any{"roomId": roomID})
}

func (c *Client) LeaveRoom(roomID string) error {
	return c.Send("room:leave", map[string]any{"roomId": roomID})
}

// SendMessage publishes into a conversation. The sender receives its own
// "message:new" back as the delivery confirmation.
func (c *Client) SendMessage(conversationID string, message map[string]any) error {
	data := map[string]any{"conversationId": conversationID}
	for k, v := range message {
		if k == "conversationId" {
			continue
		}
		data[k] = v
	}
	return c.Send("message:send", data)
}

func (c *Client) SendTyping(conversationID string, isTyping bool) error {
	return c.Send("message:typing", map[string]any{
		"conversationId": conversationID,
		"isTyping":       isTyping,
	})
}

func (c *Client) MarkRead(conversationID string, messageIDs []string) error {
	return c.Send("message:read", map[string]any{
		"conversationId": conversationID,
		"messageIds":     messageIDs,
	})
}

func (c *Client) InitiateCall(callID, receiverID, callType string) error {
	return c.sendCall("call:initiate", callID, receiverID, callType)
}

func (c *Client) AnswerCall(callID, receiverID string) error {
	return c.sendCall("call:answer", callID, receiverID, "")
}

func (c *Client) DeclineCall(callID, receiverID string) error {
	return c.sendCall("call:decline", callID, receiverID, "")
}

func (c *Client) EndCall(callID, receiverID string) error {
	return c.sendCall("call:end", callID, receiverID, "")
}

func (c *Client) sendCall(event, callID, receiverID, callType string) error {
	data := map[string]any{
		"callId":     callID,
		"receiverId": receiverID,
	}
	if callType != "" {
		data["type"] = callType
	}
	return c.Send(event, data)
}
