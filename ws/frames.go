package ws

import (
	"chat-relay/domain/event"
	"encoding/json"
	"fmt"
)

// Wire event names. Inbound carries the text to relay; the other three are
// outbound only.
const (
	EventSendChatMessage  = "send-chat-message"
	EventChatMessage      = "chat-message"
	EventUserConnected    = "user-connected"
	EventUserDisconnected = "user-disconnected"
)

// Frame is the envelope for every websocket text message, in both
// directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ChatPayload is the data of a chat-message frame.
type ChatPayload struct {
	Username string `json:"username"`
	Message  string `json:"message"`
}

func DecodeFrame(raw []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return Frame{}, fmt.Errorf("malformed frame: %w", err)
	}
	return f, nil
}

// EncodeEvent turns a domain event into its outbound wire frame.
func EncodeEvent(e event.DomainEvent) ([]byte, error) {
	var data any
	switch ev := e.(type) {
	case event.MessageRelayed:
		data = ChatPayload{Username: ev.Username, Message: ev.Text}
	case event.UserJoined:
		data = ev.Username
	case event.UserLeft:
		data = ev.Username
	default:
		return nil, fmt.Errorf("unknown event %q", e.EventName())
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Event: e.EventName(), Data: raw})
}
