package transcript

import (
	"encoding/json"
	"sort"

	// Packages
	schema "github.com/mutablelogic/go-lms/pkg/schema"
	sse "github.com/mutablelogic/go-lms/pkg/sse"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// chunkPayload mirrors schema.TranscriptionChunk with pointer fields so that
// absent fields can be told apart from zero values during validation.
type chunkPayload struct {
	TranscriptionId *string  `json:"interviewTranscriptionId"`
	VideoId         *string  `json:"videoId"`
	ChunkIndex      *int64   `json:"chunkIndex"`
	Text            *string  `json:"text"`
	StartTimeSec    *float64 `json:"startTimeSec"`
	EndTimeSec      *float64 `json:"endTimeSec"`
	SpeakerLabel    *string  `json:"speakerLabel"`
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Project derives transcription-chunk messages from a newest-first envelope
// snapshot. Envelopes whose event name is not the chunk event are skipped;
// payloads that fail validation are dropped without affecting other events.
// Duplicate chunk indexes keep the first occurrence encountered, which in a
// newest-first snapshot is the most recently received one. The result is
// sorted ascending by chunk index, so consumers see at most one message per
// index in transcript order regardless of replay or reconnect duplication.
func Project(envelopes []sse.Envelope) []schema.TranscriptionChunk {
	seen := make(map[int64]bool, len(envelopes))
	result := make([]schema.TranscriptionChunk, 0, len(envelopes))
	for _, envelope := range envelopes {
		if envelope.Event != schema.TranscriptionChunkEvent {
			continue
		}
		chunk, ok := decodeChunk(envelope.Raw)
		if !ok {
			continue
		}
		if seen[chunk.ChunkIndex] {
			continue
		}
		seen[chunk.ChunkIndex] = true
		result = append(result, chunk)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ChunkIndex < result[j].ChunkIndex
	})
	return result
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// decodeChunk validates a raw frame body against the chunk payload schema.
// Required fields must be present, the chunk index must not be negative, and
// the end time must not precede the start time.
func decodeChunk(raw string) (schema.TranscriptionChunk, bool) {
	var payload chunkPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return schema.TranscriptionChunk{}, false
	}
	if payload.TranscriptionId == nil || payload.VideoId == nil || payload.Text == nil {
		return schema.TranscriptionChunk{}, false
	}
	if payload.ChunkIndex == nil || *payload.ChunkIndex < 0 {
		return schema.TranscriptionChunk{}, false
	}
	if payload.StartTimeSec == nil || payload.EndTimeSec == nil || *payload.EndTimeSec < *payload.StartTimeSec {
		return schema.TranscriptionChunk{}, false
	}

	chunk := schema.TranscriptionChunk{
		TranscriptionId: *payload.TranscriptionId,
		VideoId:         *payload.VideoId,
		ChunkIndex:      *payload.ChunkIndex,
		Text:            *payload.Text,
		StartTimeSec:    *payload.StartTimeSec,
		EndTimeSec:      *payload.EndTimeSec,
	}
	if payload.SpeakerLabel != nil {
		chunk.SpeakerLabel = *payload.SpeakerLabel
	}
	return chunk, true
}
