package httpclient

import (
	"context"
	"errors"
	"io"
	"sync"

	// Packages
	schema "github.com/mutablelogic/go-lms/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Status is the lifecycle state of an upload controller.
type Status int

const (
	StatusIdle Status = iota
	StatusUploading
	StatusPaused
	StatusCompleted
	StatusCanceled
	StatusErrored
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusUploading:
		return "uploading"
	case StatusPaused:
		return "paused"
	case StatusCompleted:
		return "completed"
	case StatusCanceled:
		return "canceled"
	case StatusErrored:
		return "error"
	}
	return "unknown"
}

// Controller drives at most one resumable upload at a time and exposes its
// live status and progress. Pausing aborts the in-flight chunk while
// preserving the resume coordinates, so a subsequent Resume continues
// rather than restarts. Starting or resuming while a transfer is active
// aborts the existing one first (last call wins).
type Controller struct {
	client *Client

	mu         sync.Mutex
	status     Status
	sent       int64
	total      int64
	checkpoint schema.UploadCheckpoint
	cancel     context.CancelCauseFunc
	generation uint64
	lastErr    error
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

// Cancellation causes, used to tell a pause apart from a cancel and both
// apart from a transport failure.
var (
	errPauseRequested  = errors.New("upload paused")
	errCancelRequested = errors.New("upload canceled")
	errSuperseded      = errors.New("upload superseded")
)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewController creates an upload controller for the given client.
func NewController(client *Client) *Controller {
	return &Controller{
		client: client,
		status: StatusIdle,
	}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Start begins a fresh upload, discarding any previous resume coordinates.
// It blocks until the transfer completes, fails, or is paused or canceled
// from another goroutine.
func (u *Controller) Start(ctx context.Context, src io.ReaderAt, size int64, opt ...UploadOpt) (*schema.Video, error) {
	return u.run(ctx, src, size, schema.UploadCheckpoint{}, opt...)
}

// Resume continues an upload from the stored resume coordinates. When no
// checkpoint is held the transfer starts from the beginning.
func (u *Controller) Resume(ctx context.Context, src io.ReaderAt, size int64, opt ...UploadOpt) (*schema.Video, error) {
	u.mu.Lock()
	checkpoint := u.checkpoint
	u.mu.Unlock()
	return u.run(ctx, src, size, checkpoint, opt...)
}

// Pause aborts the in-flight transfer while preserving the last known
// resume coordinates. It is a no-op unless a transfer is active.
func (u *Controller) Pause() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.status == StatusUploading && u.cancel != nil {
		u.cancel(errPauseRequested)
	}
}

// Cancel aborts any in-flight transfer and clears the resume coordinates.
func (u *Controller) Cancel() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.checkpoint = schema.UploadCheckpoint{}
	if u.status == StatusUploading && u.cancel != nil {
		u.cancel(errCancelRequested)
	} else {
		u.status = StatusCanceled
	}
}

// SetResumePoint seeds resume coordinates before a Resume call, e.g. from
// state persisted across a process restart.
func (u *Controller) SetResumePoint(checkpoint schema.UploadCheckpoint) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.checkpoint = checkpoint
}

// Status returns the current controller status.
func (u *Controller) Status() Status {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.status
}

// Progress returns the current progress snapshot.
func (u *Controller) Progress() Progress {
	u.mu.Lock()
	defer u.mu.Unlock()
	var pct float64
	if u.total > 0 {
		pct = float64(u.sent) / float64(u.total) * 100
	}
	return Progress{Sent: u.sent, Total: u.total, Pct: pct}
}

// Err returns the error that moved the controller into StatusErrored, or
// nil.
func (u *Controller) Err() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.lastErr
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (u *Controller) run(ctx context.Context, src io.ReaderAt, size int64, resume schema.UploadCheckpoint, opt ...UploadOpt) (*schema.Video, error) {
	u.mu.Lock()

	// Abort any transfer already in flight: at most one active transfer per
	// controller, last call wins
	if u.cancel != nil {
		u.cancel(errSuperseded)
	}
	ctx, cancel := context.WithCancelCause(ctx)
	u.cancel = cancel
	u.generation++
	gen := u.generation
	u.status = StatusUploading
	u.sent = resume.Offset
	u.total = size
	u.checkpoint = resume
	u.lastErr = nil

	// Controller callbacks are appended last so they cannot be displaced by
	// caller options
	opts := append(append([]UploadOpt{}, opt...),
		WithProgress(func(p Progress) { u.observeProgress(gen, p) }),
		WithCheckpoint(func(cp schema.UploadCheckpoint) { u.observeCheckpoint(gen, cp) }),
	)
	if !resume.IsZero() {
		opts = append(opts, WithResume(resume))
	}
	u.mu.Unlock()

	video, err := u.client.UploadVideo(ctx, src, size, opts...)

	u.mu.Lock()
	defer u.mu.Unlock()

	// A superseding Start/Resume owns the status now
	if u.generation != gen {
		return video, err
	}
	u.cancel = nil
	cancel(nil)

	switch cause := context.Cause(ctx); {
	case err == nil:
		u.status = StatusCompleted
		u.checkpoint = schema.UploadCheckpoint{}
		return video, nil
	case errors.Is(cause, errPauseRequested):
		u.status = StatusPaused
		return nil, err
	case errors.Is(cause, errCancelRequested) || errors.Is(err, context.Canceled):
		u.status = StatusCanceled
		u.checkpoint = schema.UploadCheckpoint{}
		return nil, err
	default:
		u.status = StatusErrored
		u.lastErr = err
		return nil, err
	}
}

func (u *Controller) observeProgress(gen uint64, p Progress) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.generation == gen {
		u.sent = p.Sent
		u.total = p.Total
	}
}

func (u *Controller) observeCheckpoint(gen uint64, cp schema.UploadCheckpoint) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.generation == gen {
		u.checkpoint = cp
	}
}
