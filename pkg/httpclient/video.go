package httpclient

import (
	"context"
	"net/http"

	// Packages
	client "github.com/mutablelogic/go-client"
	schema "github.com/mutablelogic/go-lms/pkg/schema"
	errgroup "golang.org/x/sync/errgroup"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// GetVideo returns the metadata for a single video.
func (c *Client) GetVideo(ctx context.Context, id string) (*schema.Video, error) {
	opts := append([]client.RequestOpt{client.OptPath("video", id)}, c.authOpts()...)

	var response schema.Video
	if err := c.DoWithContext(ctx, client.NewRequest(), &response, opts...); err != nil {
		return nil, err
	}
	return &response, nil
}

// GetVideos fetches metadata for several videos in parallel, bounded by
// parallelHeads concurrent requests. The result preserves the order of ids;
// the first error aborts the remaining fetches.
func (c *Client) GetVideos(ctx context.Context, ids []string) ([]*schema.Video, error) {
	result := make([]*schema.Video, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelHeads)
	for i, id := range ids {
		g.Go(func() error {
			video, err := c.GetVideo(ctx, id)
			if err != nil {
				return err
			}
			result[i] = video
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteVideo deletes a video and returns its last known metadata.
func (c *Client) DeleteVideo(ctx context.Context, id string) (*schema.Video, error) {
	opts := append([]client.RequestOpt{client.OptPath("video", id)}, c.authOpts()...)

	var response schema.Video
	if err := c.DoWithContext(ctx, client.NewRequestEx(http.MethodDelete, "application/json"), &response, opts...); err != nil {
		return nil, err
	}
	return &response, nil
}

// GetTranscription returns the finalized transcript for a transcription id,
// available once the live stream has completed.
func (c *Client) GetTranscription(ctx context.Context, id string) (*schema.Transcription, error) {
	opts := append([]client.RequestOpt{client.OptPath("transcription", id)}, c.authOpts()...)

	var response schema.Transcription
	if err := c.DoWithContext(ctx, client.NewRequest(), &response, opts...); err != nil {
		return nil, err
	}
	return &response, nil
}

// StreamURL returns the absolute URL of the live transcription event stream
// for a transcription id, for use with the sse and transcript packages.
func (c *Client) StreamURL(id string) string {
	return c.endpoint + "/transcription/" + id + "/stream"
}
