package main

import (
	"os"

	// Packages
	client "github.com/mutablelogic/go-client"
	httpclient "github.com/mutablelogic/go-lms/pkg/httpclient"
)

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// newClient builds an LMS HTTP client from the global flags.
func newClient(app App) (*httpclient.Client, error) {
	opts := []client.ClientOpt{}
	if app.GetDebug() {
		opts = append(opts, client.OptTrace(os.Stderr, false))
	}
	if timeout := app.GetTimeout(); timeout > 0 {
		opts = append(opts, client.OptTimeout(timeout))
	}
	c, err := httpclient.New(app.GetEndpoint(), opts...)
	if err != nil {
		return nil, err
	}
	if token := app.GetToken(); token != "" {
		c.SetToken(token)
	}
	return c, nil
}
