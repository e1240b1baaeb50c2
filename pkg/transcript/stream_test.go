package transcript

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	// Packages
	sse "github.com/mutablelogic/go-lms/pkg/sse"
	assert "github.com/stretchr/testify/assert"
)

////////////////////////////////////////////////////////////////////////////////
// LIVE STREAM TESTS

func Test_Stream(t *testing.T) {
	assert := assert.New(t)

	// The server replays chunk 0 and interleaves a status event and one
	// malformed chunk payload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		frames := []string{
			"event: transcription_chunk\ndata: {\"interviewTranscriptionId\":\"t-1\",\"videoId\":\"v-1\",\"chunkIndex\":0,\"text\":\"hello\",\"startTimeSec\":0,\"endTimeSec\":1}\n\n",
			"event: transcription_status\ndata: {\"interviewTranscriptionId\":\"t-1\",\"status\":\"processing\"}\n\n",
			"event: transcription_chunk\ndata: {\"interviewTranscriptionId\":\"t-1\",\"videoId\":\"v-1\",\"chunkIndex\":1,\"text\":\"world\",\"startTimeSec\":1,\"endTimeSec\":2}\n\n",
			"event: transcription_chunk\ndata: {\"chunkIndex\":2}\n\n",
			"event: transcription_chunk\ndata: {\"interviewTranscriptionId\":\"t-1\",\"videoId\":\"v-1\",\"chunkIndex\":0,\"text\":\"hello again\",\"startTimeSec\":0,\"endTimeSec\":1}\n\n",
		}
		for _, frame := range frames {
			io.WriteString(w, frame)
		}
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}
		<-r.Context().Done()
	}))
	defer server.Close()

	stream, err := NewStream(server.URL)
	assert.NoError(err)
	stream.Start(context.Background())

	// All five envelopes land in the buffer, the malformed one included
	assert.Eventually(func() bool { return len(stream.Envelopes()) >= 5 }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(sse.StateOpen, stream.State())

	// The projection deduplicates the replayed index, drops the malformed
	// payload and filters the status event, in transcript order
	messages := stream.Messages()
	if assert.Len(messages, 2) {
		assert.Equal(int64(0), messages[0].ChunkIndex)
		assert.Equal("hello again", messages[0].Text)
		assert.Equal(int64(1), messages[1].ChunkIndex)
		assert.Equal("world", messages[1].Text)
	}

	assert.NoError(stream.Close())
	assert.Equal(sse.StateClosed, stream.State())
}

func Test_Stream_Unsupported(t *testing.T) {
	assert := assert.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		io.WriteString(w, "no stream here")
	}))
	defer server.Close()

	stream, err := NewStream(server.URL)
	assert.NoError(err)
	stream.Start(context.Background())

	// The failure surfaces on Close rather than being retried forever
	assert.Eventually(func() bool { return stream.State() == sse.StateClosed }, 5*time.Second, 10*time.Millisecond)
	assert.ErrorIs(stream.Close(), sse.ErrStreamUnsupported)
}
