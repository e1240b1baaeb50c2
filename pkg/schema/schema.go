package schema

///////////////////////////////////////////////////////////////////////////////
// CONSTANTS

const (
	// APIPrefix is the default path prefix for the LMS API.
	APIPrefix = "/api/lms"

	// SchemaName is used to identify this API schema.
	SchemaName = "lms"
)

const (
	// ContentRangeHeader declares the byte range of a chunk in original-file
	// coordinates, as "bytes {start}-{end}/{total}".
	ContentRangeHeader = "Content-Range"

	// UploadContentLengthHeader declares the exact byte length of the chunk
	// carried by one upload request.
	UploadContentLengthHeader = "X-Upload-Content-Length"

	// UploadSessionHeader carries the server-issued session id correlating
	// chunks that belong to the same in-progress upload.
	UploadSessionHeader = "X-Upload-Session"

	// UploadOffsetHeader is the server-reported count of bytes of the
	// original file durably accepted so far.
	UploadOffsetHeader = "X-Upload-Offset"

	// UploadLengthHeader is the server-reported total length of the
	// assembled object, present on the final response only.
	UploadLengthHeader = "X-Upload-Length"

	// RequestIdHeader carries a client-generated correlation id, one per
	// upload session.
	RequestIdHeader = "X-Request-Id"
)

// UploadFieldName is the fixed multipart form field under which the byte
// slice of each chunk is transferred.
const UploadFieldName = "chunk"

// DefaultChunkSize is the default upload chunk size in bytes.
const DefaultChunkSize int64 = 5 << 20 // 5 MiB

///////////////////////////////////////////////////////////////////////////////
// TYPES

// UploadCheckpoint is the resume coordinate pair for a partially-transferred
// upload. It is issued after every accepted chunk and can be persisted across
// process restarts to continue an upload rather than restart it.
type UploadCheckpoint struct {
	// SessionId is the server-issued upload session token.
	SessionId string `json:"session_id"`

	// Offset is the next byte of the original file to send.
	Offset int64 `json:"offset"`
}

// IsZero returns true when the checkpoint carries no resume state.
func (c UploadCheckpoint) IsZero() bool {
	return c.SessionId == "" && c.Offset == 0
}
