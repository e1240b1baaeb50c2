package lms

import (
	"context"
	"io"

	// Packages
	httpclient "github.com/mutablelogic/go-lms/pkg/httpclient"
	schema "github.com/mutablelogic/go-lms/pkg/schema"
	sse "github.com/mutablelogic/go-lms/pkg/sse"
	transcript "github.com/mutablelogic/go-lms/pkg/transcript"
)

////////////////////////////////////////////////////////////////////////////////
// INTERFACES

// Uploader transfers video files as resumable chunked uploads.
type Uploader interface {
	// Upload a file of the given size, returning the finalized resource
	UploadVideo(context.Context, io.ReaderAt, int64, ...httpclient.UploadOpt) (*schema.Video, error)

	// Upload one byte range of a file
	UploadChunk(context.Context, httpclient.ChunkRequest) (*httpclient.ChunkResult, error)
}

// VideoManager is the interface for video and transcript metadata.
type VideoManager interface {
	GetVideo(context.Context, string) (*schema.Video, error)
	GetVideos(context.Context, []string) ([]*schema.Video, error)
	DeleteVideo(context.Context, string) (*schema.Video, error)
	GetTranscription(context.Context, string) (*schema.Transcription, error)
}

// TranscriptionSource is a live, ordered, deduplicated view over a
// transcription event stream.
type TranscriptionSource interface {
	// Messages returns the projected chunk messages in transcript order
	Messages() []schema.TranscriptionChunk

	// State returns the connection state
	State() sse.State

	// Reconnect forces a full restart of the connection
	Reconnect()

	// Close tears the connection down
	Close() error
}

////////////////////////////////////////////////////////////////////////////////
// CHECKS

var (
	_ Uploader            = (*httpclient.Client)(nil)
	_ VideoManager        = (*httpclient.Client)(nil)
	_ TranscriptionSource = (*transcript.Stream)(nil)
)
