package sse

import (
	"bufio"
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	// Packages
	backoff "github.com/cenkalti/backoff/v4"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// State is the lifecycle state of a Conn.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateBackoff
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateBackoff:
		return "backoff"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Opt is a functional option for a Conn.
type Opt func(*opts) error

type opts struct {
	client  *http.Client
	header  http.Header
	events  []string
	handler func(Envelope)
	statefn func(State, error)
	policy  backoff.BackOff
}

// Conn owns exactly one live event-stream connection. A lost connection is
// reopened after an exponential backoff delay; the delay resets once a
// connection opens successfully. All mutation happens on the goroutine
// running Run, so event handlers are never invoked concurrently.
type Conn struct {
	opts
	url string

	mu      sync.Mutex
	state   State
	attempt context.CancelFunc
	kick    chan struct{}
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

var (
	// ErrStreamUnsupported is returned when the endpoint does not answer
	// with an event stream. It is surfaced once at connection setup and is
	// not retried.
	ErrStreamUnsupported = errors.New("endpoint does not support event streaming")

	// ErrConnectionLost indicates the server closed an open stream. It is
	// handled internally by the reconnect loop and only observable through
	// the state callback.
	ErrConnectionLost = errors.New("event stream connection lost")
)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New creates a connection to the given event-stream endpoint. The
// connection does not open until Run is called.
func New(url string, opt ...Opt) (*Conn, error) {
	o, err := applyOpts(opt)
	if err != nil {
		return nil, err
	}
	return &Conn{
		opts:  o,
		url:   url,
		state: StateIdle,
		kick:  make(chan struct{}, 1),
	}, nil
}

///////////////////////////////////////////////////////////////////////////////
// OPTIONS

// WithClient sets the HTTP client used for the stream connection. Cookies
// and transport settings on this client are used as-is, so a client carrying
// session credentials should be passed here.
func WithClient(client *http.Client) Opt {
	return func(o *opts) error {
		o.client = client
		return nil
	}
}

// WithHeader adds a request header to the stream request (e.g., an
// Authorization bearer token).
func WithHeader(key, value string) Opt {
	return func(o *opts) error {
		if o.header == nil {
			o.header = make(http.Header)
		}
		o.header.Set(key, value)
		return nil
	}
}

// WithEvents sets the allow-list of named event types to listen for, in
// addition to the unnamed default event. Frames with other names are ignored.
func WithEvents(names ...string) Opt {
	return func(o *opts) error {
		o.events = append(o.events, names...)
		return nil
	}
}

// WithHandler sets the function invoked with each received envelope, in
// receive order across named and default events.
func WithHandler(fn func(Envelope)) Opt {
	return func(o *opts) error {
		o.handler = fn
		return nil
	}
}

// WithStateFunc sets a callback invoked on every state transition. The error
// argument is non-nil when entering StateBackoff and carries the reason the
// connection was lost.
func WithStateFunc(fn func(State, error)) Opt {
	return func(o *opts) error {
		o.statefn = fn
		return nil
	}
}

// WithBackOff overrides the reconnect delay policy.
func WithBackOff(policy backoff.BackOff) Opt {
	return func(o *opts) error {
		o.policy = policy
		return nil
	}
}

func applyOpts(opt []Opt) (opts, error) {
	o := opts{
		client: http.DefaultClient,
		policy: NewStreamBackOff(),
	}
	for _, fn := range opt {
		if err := fn(&o); err != nil {
			return opts{}, err
		}
	}
	return o, nil
}

// NewStreamBackOff returns the default reconnect policy: a one second delay
// doubling on each consecutive failure, capped at thirty seconds, with no
// jitter and no attempt limit.
func NewStreamBackOff() *backoff.ExponentialBackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Second
	policy.RandomizationFactor = 0
	policy.Multiplier = 2
	policy.MaxInterval = 30 * time.Second
	policy.MaxElapsedTime = 0
	policy.Reset()
	return policy
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Run opens the stream and blocks, reconnecting with backoff whenever the
// connection is lost, until ctx is canceled. It returns nil on teardown via
// ctx, or ErrStreamUnsupported when the endpoint cannot stream at all.
func (conn *Conn) Run(ctx context.Context) error {
	defer conn.setState(StateClosed, nil)

	for {
		conn.setState(StateConnecting, nil)
		err := conn.stream(ctx)

		switch {
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, ErrStreamUnsupported):
			// Not transient, reconnecting cannot help
			return err
		}

		// Only one delay timer is ever pending: it is created here and
		// stopped before the loop continues.
		delay := conn.policy.NextBackOff()
		if delay == backoff.Stop {
			return err
		}
		conn.setState(StateBackoff, err)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-conn.kick:
			timer.Stop()
			conn.policy.Reset()
		case <-timer.C:
		}
	}
}

// Reconnect forces a full restart of the connection, bypassing any pending
// backoff delay. The current connection (or backoff timer) is torn down
// before a new connection is opened.
func (conn *Conn) Reconnect() {
	conn.mu.Lock()
	cancel := conn.attempt
	conn.mu.Unlock()

	select {
	case conn.kick <- struct{}{}:
	default:
	}
	if cancel != nil {
		cancel()
	}
}

// State returns the current connection state.
func (conn *Conn) State() State {
	conn.mu.Lock()
	defer conn.mu.Unlock()
	return conn.state
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// stream performs one connection attempt: open, validate, then read frames
// until the connection is lost or the attempt is canceled.
func (conn *Conn) stream(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	conn.setAttempt(cancel)
	defer conn.setAttempt(nil)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, conn.url, nil)
	if err != nil {
		return err
	}
	for key, values := range conn.header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := conn.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return httpresponse.Err(resp.StatusCode).With(string(body))
	}
	if mediatype, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err != nil || mediatype != "text/event-stream" {
		return ErrStreamUnsupported
	}

	// The stream is open: reset the retry delay
	conn.policy.Reset()
	conn.setState(StateOpen, nil)

	return conn.readFrames(resp.Body)
}

// readFrames parses the raw event-stream framing (event, data, id fields
// terminated by a blank line) and funnels accepted frames through the
// handler in receive order.
func (conn *Conn) readFrames(body io.Reader) error {
	var id, event string
	var data []string

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			conn.dispatch(id, event, strings.Join(data, "\n"))
			id, event, data = "", "", nil
		case strings.HasPrefix(line, ":"):
			// Comment line, ignored
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimPrefix(strings.TrimPrefix(line, "event:"), " ")
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		case strings.HasPrefix(line, "id:"):
			id = strings.TrimPrefix(strings.TrimPrefix(line, "id:"), " ")
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	// Server closed an open stream
	return ErrConnectionLost
}

// dispatch normalizes one frame into an envelope and hands it to the
// handler, provided the frame's event name is the default or on the
// allow-list.
func (conn *Conn) dispatch(id, event, data string) {
	if data == "" {
		return
	}
	if event != "" && event != DefaultEvent && !slices.Contains(conn.events, event) {
		return
	}
	if conn.handler != nil {
		conn.handler(NewEnvelope(id, event, data, time.Now()))
	}
}

func (conn *Conn) setState(state State, err error) {
	conn.mu.Lock()
	conn.state = state
	fn := conn.statefn
	conn.mu.Unlock()
	if fn != nil {
		fn(state, err)
	}
}

func (conn *Conn) setAttempt(cancel context.CancelFunc) {
	conn.mu.Lock()
	conn.attempt = cancel
	conn.mu.Unlock()
}
