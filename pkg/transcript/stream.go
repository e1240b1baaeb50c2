package transcript

import (
	"context"
	"sync"

	// Packages
	schema "github.com/mutablelogic/go-lms/pkg/schema"
	sse "github.com/mutablelogic/go-lms/pkg/sse"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Stream is the live transcription view: it owns one event-stream connection
// and a bounded envelope buffer, and projects the buffer into deduplicated,
// ordered transcription-chunk messages on each read. Messages are never
// stored separately, so a read always reflects the current buffer contents.
type Stream struct {
	conn   *sse.Conn
	buffer *sse.Buffer

	cancel context.CancelFunc
	wg     sync.WaitGroup
	err    error
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewStream creates a live transcription stream for the given event-stream
// endpoint. Additional options are passed through to the connection; the
// stream installs its own envelope handler and event allow-list.
func NewStream(url string, opt ...sse.Opt) (*Stream, error) {
	stream := new(Stream)
	stream.buffer = sse.NewBuffer(sse.DefaultCapacity)

	conn, err := sse.New(url, append(opt,
		sse.WithEvents(schema.StreamEvents...),
		sse.WithHandler(stream.buffer.Push),
	)...)
	if err != nil {
		return nil, err
	}
	stream.conn = conn

	return stream, nil
}

// Start opens the connection in the background. The connection reconnects
// with backoff until Close is called.
func (stream *Stream) Start(ctx context.Context) {
	ctx, stream.cancel = context.WithCancel(ctx)
	stream.wg.Add(1)
	go func() {
		defer stream.wg.Done()
		stream.err = stream.conn.Run(ctx)
	}()
}

// Close tears down the connection and waits for the background goroutine to
// exit. It returns ErrStreamUnsupported when the endpoint turned out not to
// support streaming.
func (stream *Stream) Close() error {
	if stream.cancel != nil {
		stream.cancel()
	}
	stream.wg.Wait()
	return stream.err
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Messages recomputes the projected transcription-chunk messages from the
// current buffer contents: filtered, validated, deduplicated by chunk index
// and sorted in transcript order.
func (stream *Stream) Messages() []schema.TranscriptionChunk {
	return Project(stream.buffer.Snapshot())
}

// Envelopes returns a snapshot of the raw envelope buffer, newest first.
func (stream *Stream) Envelopes() []sse.Envelope {
	return stream.buffer.Snapshot()
}

// State returns the connection state.
func (stream *Stream) State() sse.State {
	return stream.conn.State()
}

// Reconnect forces a full restart of the connection, bypassing any pending
// backoff delay.
func (stream *Stream) Reconnect() {
	stream.conn.Reconnect()
}
