// Package hub fans status and action events out to websocket clients
// using a channel-based register/unregister/broadcast loop.
package hub

import (
	"encoding/json"
	"time"
)

// Event types broadcast to clients.
const (
	EventStatus  = "status"
	EventAction  = "action"
	EventPause   = "pause"
	EventFailure = "failure"
)

// Event is the JSON envelope sent to every client.
type Event struct {
	Type string    `json:"type"`
	At   time.Time `json:"at"`
	Data any       `json:"data,omitempty"`
}

// Message is one pre-encoded text frame.
type Message struct {
	Data []byte
}

// NewEvent creates an event stamped with the current time.
func NewEvent(typ string, data any) Event {
	return Event{Type: typ, At: time.Now(), Data: data}
}

// Encode marshals an event into a message.
func Encode(ev Event) (Message, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return Message{}, err
	}
	return Message{Data: data}, nil
}
