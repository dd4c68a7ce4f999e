// Package wsserver provides a localhost WebSocket event stream for UI
// observers running outside the WebView.
//
// # Frame protocol
//
// Every server-to-client frame is a JSON envelope:
//
//	{"seq": 42, "name": "surface:title-changed", "at": "...", "payload": {...}}
//
//   - seq is a per-hub monotonically increasing sequence number; a gap tells
//     the client that frames were dropped on reconnect.
//   - name is the event name as published on the event bus.
//   - at is the encode timestamp (RFC 3339, UTC).
//   - payload is the event value, marshaled as-is.
//
// Clients send JSON text messages to manage their subscription set:
//
//	{"action": "subscribe", "events": ["config:reloaded", "app:quit"]}
//
// The wildcard name "*" subscribes to every event.
package wsserver

import (
	"encoding/json"
	"fmt"
	"time"
)

// SubscribeAll is the wildcard event name matching every event.
const SubscribeAll = "*"

// Envelope is the server-to-client frame.
type Envelope struct {
	Seq     uint64          `json:"seq"`
	Name    string          `json:"name"`
	At      time.Time       `json:"at"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// EncodeEnvelope builds the wire form of one event frame.
func EncodeEnvelope(seq uint64, name string, at time.Time, payload any) ([]byte, error) {
	if name == "" {
		return nil, fmt.Errorf("wsserver: encode envelope: event name must not be empty")
	}
	var raw json.RawMessage
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("wsserver: encode envelope payload for %q: %w", name, err)
		}
		raw = encoded
	}
	frame, err := json.Marshal(Envelope{Seq: seq, Name: name, At: at.UTC(), Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("wsserver: encode envelope for %q: %w", name, err)
	}
	return frame, nil
}

// DecodeEnvelope parses a frame produced by EncodeEnvelope.
func DecodeEnvelope(frame []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Envelope{}, fmt.Errorf("wsserver: decode envelope: %w", err)
	}
	if env.Name == "" {
		return Envelope{}, fmt.Errorf("wsserver: decode envelope: missing event name")
	}
	return env, nil
}
