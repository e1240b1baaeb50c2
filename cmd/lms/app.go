package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type Globals struct {
	Endpoint string        `env:"LMS_ENDPOINT" default:"http://localhost:8080/api/lms" help:"Service endpoint"`
	Token    string        `env:"LMS_TOKEN" help:"Bearer token for authentication"`
	Timeout  time.Duration `default:"30s" help:"HTTP request timeout"`
	Debug    bool          `help:"Enable debug output"`

	ctx    context.Context
	cancel context.CancelFunc
}

type App interface {
	Context() context.Context
	GetEndpoint() string
	GetToken() string
	GetDebug() bool
	GetTimeout() time.Duration
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func NewApp(app Globals) *Globals {
	// Create the context
	// This context is cancelled when the process receives a SIGINT or SIGTERM
	app.ctx, app.cancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	// Return the app
	return &app
}

func (app *Globals) Close() error {
	app.cancel()
	return nil
}

///////////////////////////////////////////////////////////////////////////////
// METHODS

func (app *Globals) Context() context.Context {
	return app.ctx
}

func (app *Globals) GetEndpoint() string {
	return app.Endpoint
}

func (app *Globals) GetToken() string {
	return app.Token
}

func (app *Globals) GetDebug() bool {
	return app.Debug
}

func (app *Globals) GetTimeout() time.Duration {
	return app.Timeout
}
