package schema

import (
	"time"

	// Packages
	"github.com/mutablelogic/go-server/pkg/types"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Video is the finalized video resource returned by the server once all
// chunks of an upload have been assembled.
type Video struct {
	Id              string    `json:"id"`
	Title           string    `json:"title,omitempty"`
	ContentType     string    `json:"content_type,omitempty"`
	Size            int64     `json:"size"`
	Url             string    `json:"url,omitempty"`
	TranscriptionId string    `json:"transcription_id,omitempty"`
	CreatedAt       time.Time `json:"created_at,omitzero"`
}

// Transcription is the finalized transcript for a video, available after the
// live stream has completed.
type Transcription struct {
	Id      string               `json:"id"`
	VideoId string               `json:"video_id"`
	Status  string               `json:"status"`
	Chunks  []TranscriptionChunk `json:"chunks,omitempty"`
}

// Token is the response body for auth login and refresh requests.
type Token struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

///////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (v Video) String() string {
	return types.Stringify(v)
}

func (t Transcription) String() string {
	return types.Stringify(t)
}
