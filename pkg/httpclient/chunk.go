package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"

	// Packages
	schema "github.com/mutablelogic/go-lms/pkg/schema"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	types "github.com/mutablelogic/go-server/pkg/types"
)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

var (
	// ErrMissingResumeMetadata is returned when a chunk response lacks the
	// headers required to continue or finalize the upload. The chunk attempt
	// is a hard failure and is not retried automatically.
	ErrMissingResumeMetadata = errors.New("missing resume metadata")

	// ErrProtocolViolation indicates the upload loop broke an internal
	// invariant. It is a programming-level fatal condition.
	ErrProtocolViolation = errors.New("upload protocol violation")
)

///////////////////////////////////////////////////////////////////////////////
// CONSTANTS

// uploadPath is the fixed upload endpoint, relative to the API base URL.
const uploadPath = "/video/upload"

// progressChunk is the number of bytes transferred between successive
// progress callback invocations while a chunk body is being sent.
const progressChunk int64 = 64 * 1024

///////////////////////////////////////////////////////////////////////////////
// TYPES

// ChunkRequest describes one byte range of a source file to transfer.
// Start and End are inclusive offsets in original-file coordinates and Size
// is the total size of the original file.
type ChunkRequest struct {
	Src       io.ReaderAt
	Start     int64
	End       int64
	Size      int64
	SessionId string // server-issued, empty until the first partial response
	RequestId string // client-generated correlation id, optional
	Title     string // stored with the finalized video, sent on the first chunk only
	Progress  func(sent, total int64)
}

// ChunkResult is the decoded outcome of one chunk transfer. When Completed
// is false the server has accepted the slice but the object is incomplete:
// Offset and SessionId carry the resume coordinates. When Completed is true
// the object is finalized: Offset and Length describe the assembled object,
// Video is the finalized resource and Location, if present, its address.
type ChunkResult struct {
	Completed bool
	Offset    int64
	Length    int64
	SessionId string
	Location  string
	Video     *schema.Video
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// UploadChunk transfers exactly the byte range [req.Start, req.End] of the
// source as one multipart POST and decodes the server's partial or complete
// response. Transport failures are propagated unchanged; HTTP application
// errors are returned as typed status errors.
func (c *Client) UploadChunk(ctx context.Context, req ChunkRequest) (*ChunkResult, error) {
	if req.Start < 0 || req.End < req.Start || req.End >= req.Size {
		return nil, fmt.Errorf("%w: invalid byte range %d-%d/%d", ErrProtocolViolation, req.Start, req.End, req.Size)
	}
	chunkLen := req.End - req.Start + 1

	// Encode the byte slice as a single multipart file part
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if req.Title != "" && req.SessionId == "" {
		if err := writer.WriteField("title", req.Title); err != nil {
			return nil, err
		}
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, schema.UploadFieldName, "blob"))
	header.Set("Content-Type", types.ContentTypeBinary)
	header.Set(types.ContentLengthHeader, strconv.FormatInt(chunkLen, 10))
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, io.NewSectionReader(req.Src, req.Start, chunkLen)); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	var body io.Reader = &buf
	if req.Progress != nil {
		body = newProgressReader(&buf, chunkLen, req.Progress)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+uploadPath, body)
	if err != nil {
		return nil, err
	}
	request.Header.Set("Content-Type", writer.FormDataContentType())
	request.Header.Set(schema.ContentRangeHeader, fmt.Sprintf("bytes %d-%d/%d", req.Start, req.End, req.Size))
	request.Header.Set(schema.UploadContentLengthHeader, strconv.FormatInt(chunkLen, 10))
	if req.SessionId != "" {
		request.Header.Set(schema.UploadSessionHeader, req.SessionId)
	}
	if req.RequestId != "" {
		request.Header.Set(schema.RequestIdHeader, req.RequestId)
	}
	if token := c.Token(); token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	response, err := c.Client.Client.Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	// End-of-chunk progress is guaranteed even if the body was consumed in
	// fewer reads than the emission granularity
	if req.Progress != nil {
		req.Progress(chunkLen, chunkLen)
	}

	return decodeChunkResponse(response)
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// decodeChunkResponse interprets the response status: 204 means the server
// accepted the slice but the object is incomplete, any other 2xx means the
// object is finalized. Everything else is an application error.
func decodeChunkResponse(response *http.Response) (*ChunkResult, error) {
	switch {
	case response.StatusCode == http.StatusNoContent:
		offset, ok, err := numericHeader(response.Header, schema.UploadOffsetHeader)
		if err != nil {
			return nil, err
		}
		session := response.Header.Get(schema.UploadSessionHeader)
		if !ok || session == "" {
			return nil, fmt.Errorf("%w: partial response lacks %s or %s",
				ErrMissingResumeMetadata, schema.UploadOffsetHeader, schema.UploadSessionHeader)
		}
		return &ChunkResult{
			Offset:    offset,
			SessionId: session,
		}, nil

	case response.StatusCode >= 200 && response.StatusCode < 300:
		offset, okOffset, err := numericHeader(response.Header, schema.UploadOffsetHeader)
		if err != nil {
			return nil, err
		}
		length, okLength, err := numericHeader(response.Header, schema.UploadLengthHeader)
		if err != nil {
			return nil, err
		}
		if !okOffset || !okLength {
			return nil, fmt.Errorf("%w: final response lacks %s or %s",
				ErrMissingResumeMetadata, schema.UploadOffsetHeader, schema.UploadLengthHeader)
		}
		var video schema.Video
		if err := json.NewDecoder(response.Body).Decode(&video); err != nil {
			return nil, err
		}
		return &ChunkResult{
			Completed: true,
			Offset:    offset,
			Length:    length,
			Location:  response.Header.Get("Location"),
			Video:     &video,
		}, nil

	default:
		body, _ := io.ReadAll(io.LimitReader(response.Body, 1024))
		return nil, httpresponse.Err(response.StatusCode).With(string(body))
	}
}

// numericHeader reads a header with an exhaustive numeric-or-absent
// contract: (value, true, nil) when present and a non-negative integer,
// (0, false, nil) when absent, and an error when present but malformed.
func numericHeader(header http.Header, key string) (int64, bool, error) {
	value := header.Get(key)
	if value == "" {
		return 0, false, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil || n < 0 {
		return 0, false, fmt.Errorf("%w: header %s is not a non-negative integer: %q", ErrMissingResumeMetadata, key, value)
	}
	return n, true, nil
}

///////////////////////////////////////////////////////////////////////////////
// PROGRESS READER

// progressReader wraps a reader and calls emit after every progressChunk
// bytes have been read from it.
type progressReader struct {
	r       io.Reader
	total   int64
	written int64
	emitted int64
	emit    func(written, total int64)
}

func newProgressReader(r io.Reader, total int64, emit func(written, total int64)) *progressReader {
	return &progressReader{r: r, total: total, emit: emit}
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	if n > 0 {
		p.written += int64(n)
		for p.written-p.emitted >= progressChunk {
			p.emitted += progressChunk
			p.emit(p.emitted, p.total)
		}
	}
	return n, err
}
