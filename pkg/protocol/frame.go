package protocol

import "time"

// ProtocolVersion is the wire protocol version reported by /health and
// exchanged on WebSocket connect.
const ProtocolVersion = 1

// EventFrame is the envelope every server-to-client WebSocket push uses,
// whether it carries one of the chat/agent event names in events.go or
// one of the canvas S2C frame types.
type EventFrame struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
	At      time.Time   `json:"at"`
}

// NewEvent builds an EventFrame stamped with the current time.
func NewEvent(eventType string, payload interface{}) *EventFrame {
	return &EventFrame{Type: eventType, Payload: payload, At: time.Now()}
}
