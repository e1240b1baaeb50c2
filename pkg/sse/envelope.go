package sse

import (
	"encoding/json"
	"time"

	// Packages
	"github.com/mutablelogic/go-server/pkg/types"
)

///////////////////////////////////////////////////////////////////////////////
// CONSTANTS

// DefaultEvent is the event name assigned to frames that carry no explicit
// event field.
const DefaultEvent = "message"

// typeFields are the payload fields probed, in order, for a payload-declared
// event kind. A declared kind wins over the frame-level event name, so several
// event kinds can be multiplexed over one named channel.
var typeFields = []string{"type", "event_type", "event"}

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Envelope is the normalized representation of one received stream event,
// independent of transport framing.
type Envelope struct {
	// Id is the server-assigned event id, or the payload-declared id when
	// the frame carries none. Empty when neither is present.
	Id string `json:"id,omitempty"`

	// Event is the event type name. Defaults to DefaultEvent when the frame
	// carries no explicit name.
	Event string `json:"event"`

	// Data is the decoded JSON payload, or the raw frame body string when
	// the body does not parse as JSON.
	Data any `json:"data,omitempty"`

	// Raw is the original unparsed frame body, always preserved.
	Raw string `json:"-"`

	// ReceivedAt is the client receive time.
	ReceivedAt time.Time `json:"received_at"`
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewEnvelope normalizes one raw frame into an Envelope. The frame body is
// JSON-decoded when possible; a payload-declared type field overrides the
// frame-level event name, and a payload-declared string id is adopted when
// the frame itself carries no id.
func NewEnvelope(id, event, raw string, receivedAt time.Time) Envelope {
	envelope := Envelope{
		Id:         id,
		Event:      event,
		Raw:        raw,
		ReceivedAt: receivedAt,
	}
	if envelope.Event == "" {
		envelope.Event = DefaultEvent
	}

	var data any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		// Not JSON, fall back to the raw string
		envelope.Data = raw
		return envelope
	}
	envelope.Data = data

	if body, ok := data.(map[string]any); ok {
		for _, field := range typeFields {
			if kind, ok := body[field].(string); ok && kind != "" {
				envelope.Event = kind
				break
			}
		}
		if envelope.Id == "" {
			if id, ok := body["id"].(string); ok {
				envelope.Id = id
			}
		}
	}

	return envelope
}

///////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (e Envelope) String() string {
	return types.Stringify(e)
}
