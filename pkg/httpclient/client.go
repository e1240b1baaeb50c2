package httpclient

import (
	"strings"
	"sync"

	// Packages
	client "github.com/mutablelogic/go-client"
	trace "go.opentelemetry.io/otel/trace"
	singleflight "golang.org/x/sync/singleflight"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Client is an LMS HTTP client that wraps the base HTTP client and provides
// typed methods for interacting with the LMS API: authentication, video
// management and the resumable upload protocol.
type Client struct {
	*client.Client

	// endpoint is the API base URL, retained for requests that are issued
	// on the embedded transport directly (chunk uploads, event streams).
	endpoint string

	tracer trace.Tracer

	mu      sync.RWMutex
	token   string
	refresh singleflight.Group
}

///////////////////////////////////////////////////////////////////////////////
// CONSTANTS

// parallelHeads is the maximum number of concurrent metadata requests issued
// by GetVideos.
const parallelHeads = 10

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New creates a new LMS HTTP client with the given base URL and options.
// The url parameter should point to the LMS API endpoint, e.g.
// "http://localhost:8080/api/lms".
func New(url string, opts ...client.ClientOpt) (*Client, error) {
	c := new(Client)
	cl, err := client.New(append(opts, client.OptEndpoint(url))...)
	if err != nil {
		return nil, err
	}
	c.Client = cl
	c.endpoint = strings.TrimSuffix(url, "/")
	return c, nil
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// SetTracer sets the tracer used for spans around upload operations.
func (c *Client) SetTracer(tracer trace.Tracer) {
	c.tracer = tracer
}

// SetToken sets the bearer token attached to subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Token returns the current bearer token, or the empty string when no
// session has been established.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}
