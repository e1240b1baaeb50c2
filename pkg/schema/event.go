package schema

import (
	// Packages
	"github.com/mutablelogic/go-server/pkg/types"
)

////////////////////////////////////////////////////////////////////////////////
// CONSTANTS

const (
	// Event names carried on the transcription event stream. The server
	// multiplexes several event kinds over one connection; clients should
	// switch on these names. Payloads may also declare their kind in a
	// "type" field, which wins over the frame-level name.

	// MessageEvent is the unnamed default event type.
	MessageEvent = "message"

	// TranscriptionChunkEvent carries one transcribed segment of a video.
	// Payload: TranscriptionChunk
	TranscriptionChunkEvent = "transcription_chunk"

	// TranscriptionStatusEvent signals a lifecycle change of the
	// transcription job (queued, processing, completed, failed).
	// Payload: TranscriptionStatus
	TranscriptionStatusEvent = "transcription_status"

	// NotificationEvent carries user-facing notices unrelated to any
	// particular transcription. Payload: arbitrary JSON.
	NotificationEvent = "notification"

	// PingEvent is a keep-alive with no payload.
	PingEvent = "ping"
)

// StreamEvents is the fixed allow-list of named event types a transcription
// stream consumer listens for, in addition to the default MessageEvent.
var StreamEvents = []string{
	TranscriptionChunkEvent,
	TranscriptionStatusEvent,
	NotificationEvent,
	PingEvent,
}

////////////////////////////////////////////////////////////////////////////////
// TYPES

// TranscriptionChunk is the payload of a TranscriptionChunkEvent: one
// transcribed segment of the source video. ChunkIndex is unique per
// transcription and is the deduplication key when the server replays
// events after a reconnect.
type TranscriptionChunk struct {
	Type            string  `json:"type,omitempty"`
	TranscriptionId string  `json:"interviewTranscriptionId"`
	VideoId         string  `json:"videoId"`
	ChunkIndex      int64   `json:"chunkIndex"`
	Text            string  `json:"text"`
	StartTimeSec    float64 `json:"startTimeSec"`
	EndTimeSec      float64 `json:"endTimeSec"`
	SpeakerLabel    string  `json:"speakerLabel,omitempty"`
}

// TranscriptionStatus is the payload of a TranscriptionStatusEvent.
type TranscriptionStatus struct {
	Type            string `json:"type,omitempty"`
	TranscriptionId string `json:"interviewTranscriptionId"`
	Status          string `json:"status"`
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (c TranscriptionChunk) String() string {
	return types.Stringify(c)
}
