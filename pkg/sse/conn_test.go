package sse

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	// Packages
	backoff "github.com/cenkalti/backoff/v4"
	assert "github.com/stretchr/testify/assert"
)

////////////////////////////////////////////////////////////////////////////////
// TEST HELPERS

// collector gathers envelopes and state transitions from a Conn under test.
type collector struct {
	mu        sync.Mutex
	envelopes []Envelope
	states    []State
	errs      []error
}

func (c *collector) handle(envelope Envelope) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.envelopes = append(c.envelopes, envelope)
}

func (c *collector) state(state State, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states = append(c.states, state)
	c.errs = append(c.errs, err)
}

func (c *collector) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.envelopes)
}

func (c *collector) envelope(i int) Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.envelopes[i]
}

func (c *collector) sawState(state State) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range c.states {
		if s == state {
			return true
		}
	}
	return false
}

func (c *collector) backoffErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, s := range c.states {
		if s == StateBackoff {
			return c.errs[i]
		}
	}
	return nil
}

// streamFrames writes raw event-stream frames and flushes them to the client.
func streamFrames(w http.ResponseWriter, frames ...string) {
	for _, frame := range frames {
		io.WriteString(w, frame)
	}
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}

////////////////////////////////////////////////////////////////////////////////
// BACKOFF POLICY TESTS

func Test_StreamBackOff(t *testing.T) {
	assert := assert.New(t)

	// The reconnect delay doubles on each consecutive failure with no
	// jitter, so the schedule is exact
	policy := NewStreamBackOff()
	assert.Equal(time.Second, policy.NextBackOff())
	assert.Equal(2*time.Second, policy.NextBackOff())
	assert.Equal(4*time.Second, policy.NextBackOff())
	assert.Equal(8*time.Second, policy.NextBackOff())

	// A successful connection resets the schedule
	policy.Reset()
	assert.Equal(time.Second, policy.NextBackOff())
}

func Test_StreamBackOff_Cap(t *testing.T) {
	assert := assert.New(t)

	policy := NewStreamBackOff()
	var delay time.Duration
	for i := 0; i < 20; i++ {
		delay = policy.NextBackOff()
		assert.NotEqual(backoff.Stop, delay)
	}
	assert.Equal(30*time.Second, delay)
}

////////////////////////////////////////////////////////////////////////////////
// CONNECTION TESTS

func Test_Conn_Receive(t *testing.T) {
	assert := assert.New(t)

	var mu sync.Mutex
	var header string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		header = r.Header.Get("Authorization")
		mu.Unlock()
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		streamFrames(w,
			": heartbeat comment\n\n",
			"event: transcription_chunk\nid: 1\ndata: {\"chunkIndex\":0}\n\n",
			"data: plain\n\n",
			"event: unknown_event\ndata: {}\n\n",
		)
		<-r.Context().Done()
	}))
	defer server.Close()

	collect := new(collector)
	conn, err := New(server.URL,
		WithEvents("transcription_chunk"),
		WithHandler(collect.handle),
		WithHeader("Authorization", "Bearer tok-1"),
	)
	assert.NoError(err)
	assert.Equal(StateIdle, conn.State())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- conn.Run(ctx) }()

	// Named and default events are delivered in receive order; the unknown
	// named event is filtered out
	assert.Eventually(func() bool { return collect.len() >= 2 }, 5*time.Second, 10*time.Millisecond)
	first := collect.envelope(0)
	assert.Equal("transcription_chunk", first.Event)
	assert.Equal("1", first.Id)
	second := collect.envelope(1)
	assert.Equal(DefaultEvent, second.Event)
	assert.Equal("plain", second.Data)
	assert.Equal(2, collect.len())

	// Request headers ride along on the stream request
	mu.Lock()
	assert.Equal("Bearer tok-1", header)
	mu.Unlock()

	// Teardown via context returns nil
	cancel()
	select {
	case err := <-done:
		assert.NoError(err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(StateClosed, conn.State())
}

func Test_Conn_Unsupported(t *testing.T) {
	assert := assert.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		io.WriteString(w, "this endpoint does not stream")
	}))
	defer server.Close()

	conn, err := New(server.URL)
	assert.NoError(err)

	// A non-stream response is terminal: no reconnect attempts are made
	err = conn.Run(context.Background())
	assert.ErrorIs(err, ErrStreamUnsupported)
	assert.Equal(StateClosed, conn.State())
}

func Test_Conn_ReconnectAfterLoss(t *testing.T) {
	assert := assert.New(t)

	// The first attempt streams one event and then closes; the second
	// streams another and stays open
	var mu sync.Mutex
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		attempts++
		attempt := attempts
		mu.Unlock()

		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		if attempt == 1 {
			streamFrames(w, "data: {\"seq\":1}\n\n")
			return
		}
		streamFrames(w, "data: {\"seq\":2}\n\n")
		<-r.Context().Done()
	}))
	defer server.Close()

	collect := new(collector)
	conn, err := New(server.URL,
		WithHandler(collect.handle),
		WithStateFunc(collect.state),
		WithBackOff(backoff.NewConstantBackOff(10*time.Millisecond)),
	)
	assert.NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- conn.Run(ctx) }()

	// Both events arrive: the connection was reopened after the loss
	assert.Eventually(func() bool { return collect.len() >= 2 }, 5*time.Second, 10*time.Millisecond)
	assert.True(collect.sawState(StateBackoff))
	assert.ErrorIs(collect.backoffErr(), ErrConnectionLost)

	cancel()
	select {
	case err := <-done:
		assert.NoError(err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func Test_Conn_ForcedReconnect(t *testing.T) {
	assert := assert.New(t)

	var mu sync.Mutex
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		attempts++
		attempt := attempts
		mu.Unlock()

		if attempt == 1 {
			http.Error(w, "temporarily unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		streamFrames(w, "data: {\"seq\":1}\n\n")
		<-r.Context().Done()
	}))
	defer server.Close()

	// The pending delay is effectively infinite, so only a forced reconnect
	// can reopen the connection
	collect := new(collector)
	conn, err := New(server.URL,
		WithHandler(collect.handle),
		WithBackOff(backoff.NewConstantBackOff(time.Hour)),
	)
	assert.NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- conn.Run(ctx) }()

	assert.Eventually(func() bool { return conn.State() == StateBackoff }, 5*time.Second, 10*time.Millisecond)
	conn.Reconnect()

	// The reconnect bypasses the pending delay
	assert.Eventually(func() bool { return collect.len() >= 1 }, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func Test_Conn_StateString(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("idle", StateIdle.String())
	assert.Equal("connecting", StateConnecting.String())
	assert.Equal("open", StateOpen.String())
	assert.Equal("backoff", StateBackoff.String())
	assert.Equal("closed", StateClosed.String())
}
