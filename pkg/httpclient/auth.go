package httpclient

import (
	"context"

	// Packages
	client "github.com/mutablelogic/go-client"
	schema "github.com/mutablelogic/go-lms/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// loginRequest is the body for the login operation.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Login establishes a session with the API. The returned bearer token is
// retained by the client and attached to subsequent requests.
func (c *Client) Login(ctx context.Context, email, password string) (*schema.Token, error) {
	payload, err := newJSONPayload("", loginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	var response schema.Token
	if err := c.DoWithContext(ctx, payload, &response, client.OptPath("auth", "login")); err != nil {
		return nil, err
	}
	c.SetToken(response.Token)
	return &response, nil
}

// RefreshToken exchanges the current token for a fresh one. Concurrent calls
// are coalesced into a single in-flight request; every caller receives the
// outcome of that one request.
func (c *Client) RefreshToken(ctx context.Context) (string, error) {
	token, err, _ := c.refresh.Do("refresh", func() (any, error) {
		payload, err := newJSONPayload("", struct{}{})
		if err != nil {
			return nil, err
		}
		opts := append([]client.RequestOpt{client.OptPath("auth", "refresh")}, c.authOpts()...)
		var response schema.Token
		if err := c.DoWithContext(ctx, payload, &response, opts...); err != nil {
			return nil, err
		}
		c.SetToken(response.Token)
		return response.Token, nil
	})
	if err != nil {
		return "", err
	}
	return token.(string), nil
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// authOpts returns the request options that attach the bearer token, or an
// empty slice when no session has been established.
func (c *Client) authOpts() []client.RequestOpt {
	if token := c.Token(); token != "" {
		return []client.RequestOpt{client.OptReqHeader("Authorization", "Bearer "+token)}
	}
	return nil
}
