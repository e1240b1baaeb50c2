package httpclient

import (
	"context"
	"fmt"
	"io"

	// Packages
	uuid "github.com/google/uuid"
	otel "github.com/mutablelogic/go-client/pkg/otel"
	schema "github.com/mutablelogic/go-lms/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// UploadOpt is a functional option for UploadVideo.
type UploadOpt func(*uploadOpts) error

type uploadOpts struct {
	chunkSize  int64
	progress   []func(Progress)
	checkpoint []func(schema.UploadCheckpoint)
	resume     schema.UploadCheckpoint
	title      string
}

func (o *uploadOpts) emitProgress(p Progress) {
	for _, fn := range o.progress {
		fn(p)
	}
}

func (o *uploadOpts) emitCheckpoint(cp schema.UploadCheckpoint) {
	for _, fn := range o.checkpoint {
		fn(cp)
	}
}

// Progress is an immutable snapshot of cumulative upload progress. Pct is
// clamped to [0, 100] and Sent never exceeds Total.
type Progress struct {
	Sent  int64
	Total int64
	Pct   float64
}

///////////////////////////////////////////////////////////////////////////////
// OPTIONS

// WithChunkSize sets the upload chunk size in bytes. The default is
// schema.DefaultChunkSize (5 MiB).
func WithChunkSize(size int64) UploadOpt {
	return func(o *uploadOpts) error {
		if size <= 0 {
			return fmt.Errorf("invalid chunk size: %d", size)
		}
		o.chunkSize = size
		return nil
	}
}

// WithProgress registers an observer invoked with cumulative progress
// snapshots as bytes are transferred. May be given more than once.
func WithProgress(fn func(Progress)) UploadOpt {
	return func(o *uploadOpts) error {
		o.progress = append(o.progress, fn)
		return nil
	}
}

// WithCheckpoint registers an observer invoked after every accepted chunk
// with the current resume coordinates. Persist the checkpoint to continue
// the upload after an interruption. May be given more than once.
func WithCheckpoint(fn func(schema.UploadCheckpoint)) UploadOpt {
	return func(o *uploadOpts) error {
		o.checkpoint = append(o.checkpoint, fn)
		return nil
	}
}

// WithResume seeds the upload with a previously issued checkpoint, so the
// transfer continues from the recorded offset instead of restarting.
func WithResume(checkpoint schema.UploadCheckpoint) UploadOpt {
	return func(o *uploadOpts) error {
		if checkpoint.Offset < 0 {
			return fmt.Errorf("invalid resume offset: %d", checkpoint.Offset)
		}
		o.resume = checkpoint
		return nil
	}
}

// WithTitle sets the title stored with the finalized video.
func WithTitle(title string) UploadOpt {
	return func(o *uploadOpts) error {
		o.title = title
		return nil
	}
}

func applyUploadOpts(opt []UploadOpt) (*uploadOpts, error) {
	o := &uploadOpts{chunkSize: schema.DefaultChunkSize}
	for _, fn := range opt {
		if err := fn(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// UploadVideo transfers a file of the given size as a sequence of byte-range
// chunks and returns the finalized video resource. Chunks are issued
// strictly one at a time; the server session is stateful and offsets advance
// monotonically, so chunk N+1 is never sent before chunk N's outcome is
// known. Cancel the context to abort the in-flight chunk; the context error
// is propagated so callers can tell cancellation apart from transport
// failures. No chunk-level retry is performed here — retry is a
// resume-driven, caller-level policy.
func (c *Client) UploadVideo(ctx context.Context, src io.ReaderAt, size int64, opt ...UploadOpt) (*schema.Video, error) {
	o, err := applyUploadOpts(opt)
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		return nil, fmt.Errorf("invalid upload size: %d", size)
	}

	var result error
	child, endFunc := otel.StartSpan(c.tracer, ctx, "lms.UploadVideo")
	defer func() { endFunc(result) }()

	// One correlation id for all chunks of this session
	requestId := uuid.NewString()

	sessionId := o.resume.SessionId
	next := o.resume.Offset
	sent := next // high-water mark of bytes acknowledged or in flight

	emit := func(bytes int64) {
		if len(o.progress) == 0 {
			return
		}
		if bytes > sent {
			sent = bytes
		}
		if sent > size {
			sent = size
		}
		pct := float64(sent) / float64(size) * 100
		if pct < 0 {
			pct = 0
		} else if pct > 100 {
			pct = 100
		}
		o.emitProgress(Progress{Sent: sent, Total: size, Pct: pct})
	}

	for next < size {
		end := next + o.chunkSize
		if end > size {
			end = size
		}

		start := next
		chunk, err := c.UploadChunk(child, ChunkRequest{
			Src:       src,
			Start:     start,
			End:       end - 1,
			Size:      size,
			SessionId: sessionId,
			RequestId: requestId,
			Title:     o.title,
			Progress: func(written, _ int64) {
				emit(start + written)
			},
		})
		if err != nil {
			result = err
			return nil, err
		}

		if chunk.Completed {
			next = size
			emit(size)
			return chunk.Video, nil
		}

		// Partial: record the session and advance the offset, never
		// regressing past what has already been recorded
		sessionId = chunk.SessionId
		if chunk.Offset > next {
			next = chunk.Offset
		}
		emit(next)
		o.emitCheckpoint(schema.UploadCheckpoint{SessionId: sessionId, Offset: next})
	}

	// Reachable only if the server reported a partial response with an
	// offset equal to the total size, which the protocol does not allow
	result = fmt.Errorf("%w: upload loop ended without a completed response", ErrProtocolViolation)
	return nil, result
}
