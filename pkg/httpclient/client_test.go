package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	// Packages
	schema "github.com/mutablelogic/go-lms/pkg/schema"
	assert "github.com/stretchr/testify/assert"
)

////////////////////////////////////////////////////////////////////////////////
// TEST SERVER

// chunkRecord captures one received upload request for later assertions.
type chunkRecord struct {
	Range     string // Content-Range header
	SessionId string // X-Upload-Session header
	RequestId string // X-Request-Id header
	Title     string // multipart title field, first chunk only
	Body      []byte // multipart chunk field contents
	Filename  string
}

// uploadServer implements the resumable chunk upload protocol: 204 with
// resume headers for an accepted partial chunk, 200 with the finalized video
// once the last byte has been received.
type uploadServer struct {
	mu       sync.Mutex
	records  []chunkRecord
	sessions int

	// staleOffsetOnce makes exactly one partial response report an offset
	// behind what was actually accepted
	staleOffsetOnce bool

	// alwaysPartial keeps answering 204 even when the object is complete
	alwaysPartial bool

	// dropSession omits the session header from partial responses
	dropSession bool

	// blockFirst, when non-nil, parks the first request until the channel
	// is closed
	blockFirst chan struct{}
}

func (s *uploadServer) handler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/video/upload" || r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var start, end, total int64
	if _, err := fmt.Sscanf(r.Header.Get(schema.ContentRangeHeader), "bytes %d-%d/%d", &start, &end, &total); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile(schema.UploadFieldName)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()
	body := make([]byte, end-start+1)
	if _, err := io.ReadFull(file, body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	session := r.Header.Get(schema.UploadSessionHeader)
	if session == "" {
		s.sessions++
		session = "sess-" + strconv.Itoa(s.sessions)
	}
	s.records = append(s.records, chunkRecord{
		Range:     r.Header.Get(schema.ContentRangeHeader),
		SessionId: r.Header.Get(schema.UploadSessionHeader),
		RequestId: r.Header.Get(schema.RequestIdHeader),
		Title:     r.FormValue("title"),
		Body:      body,
		Filename:  header.Filename,
	})
	first := len(s.records) == 1
	stale := s.staleOffsetOnce && len(s.records) == 2
	if stale {
		s.staleOffsetOnce = false
	}
	block := s.blockFirst
	s.mu.Unlock()

	if first && block != nil {
		<-block
	}

	offset := end + 1
	switch {
	case offset >= total && !s.alwaysPartial:
		w.Header().Set(schema.UploadOffsetHeader, strconv.FormatInt(total, 10))
		w.Header().Set(schema.UploadLengthHeader, strconv.FormatInt(total, 10))
		w.Header().Set("Location", "/video/v-1")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(schema.Video{Id: "v-1", Size: total})
	case stale:
		w.Header().Set(schema.UploadOffsetHeader, strconv.FormatInt(start/2, 10))
		w.Header().Set(schema.UploadSessionHeader, session)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.Header().Set(schema.UploadOffsetHeader, strconv.FormatInt(offset, 10))
		if !s.dropSession {
			w.Header().Set(schema.UploadSessionHeader, session)
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ranges returns the Content-Range header of every received request, in
// receive order.
func (s *uploadServer) ranges() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]string, 0, len(s.records))
	for _, record := range s.records {
		result = append(result, record.Range)
	}
	return result
}

func (s *uploadServer) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func (s *uploadServer) record(i int) chunkRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[i]
}

// newUploadServer starts an httptest server speaking the upload protocol and
// returns a client pointed at it.
func newUploadServer(t *testing.T) (*uploadServer, *Client) {
	t.Helper()
	upload := new(uploadServer)
	server := httptest.NewServer(http.HandlerFunc(upload.handler))
	t.Cleanup(server.Close)

	client, err := New(server.URL)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return upload, client
}

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE TESTS

func Test_Client_New(t *testing.T) {
	assert := assert.New(t)

	client, err := New("http://localhost:8080/api/lms/")
	assert.NoError(err)
	assert.NotNil(client)

	// Trailing slash is stripped from the retained endpoint
	assert.Equal("http://localhost:8080/api/lms", client.endpoint)
	assert.Equal("http://localhost:8080/api/lms/transcription/t-1/stream", client.StreamURL("t-1"))
}

func Test_Client_Token(t *testing.T) {
	assert := assert.New(t)

	client, err := New("http://localhost:8080/api/lms")
	assert.NoError(err)

	assert.Equal("", client.Token())
	assert.Nil(client.authOpts())

	client.SetToken("tok-1")
	assert.Equal("tok-1", client.Token())
	assert.Len(client.authOpts(), 1)
}
