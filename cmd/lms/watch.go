package main

import (
	"fmt"
	"time"

	// Packages
	schema "github.com/mutablelogic/go-lms/pkg/schema"
	sse "github.com/mutablelogic/go-lms/pkg/sse"
	transcript "github.com/mutablelogic/go-lms/pkg/transcript"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type WatchCommands struct {
	Watch WatchCommand `cmd:"" group:"TRANSCRIPTION" help:"Follow a live transcription stream"`
}

type WatchCommand struct {
	Id       string        `arg:"" help:"Transcription id"`
	Interval time.Duration `default:"500ms" help:"Poll interval for new chunks"`
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (cmd *WatchCommand) Run(app App) error {
	c, err := newClient(app)
	if err != nil {
		return err
	}

	opts := []sse.Opt{
		sse.WithStateFunc(func(state sse.State, err error) {
			if app.GetDebug() && err != nil {
				fmt.Printf("-- %v: %v\n", state, err)
			}
		}),
	}
	if token := app.GetToken(); token != "" {
		opts = append(opts, sse.WithHeader("Authorization", "Bearer "+token))
	}

	stream, err := transcript.NewStream(c.StreamURL(cmd.Id), opts...)
	if err != nil {
		return err
	}
	stream.Start(app.Context())
	defer stream.Close()

	// Print chunks in transcript order as they arrive. The projected view
	// is recomputed on each poll so replayed or duplicated events never
	// print twice.
	printed := make(map[int64]bool)
	ticker := time.NewTicker(cmd.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-app.Context().Done():
			return nil
		case <-ticker.C:
			for _, chunk := range stream.Messages() {
				if printed[chunk.ChunkIndex] {
					continue
				}
				printed[chunk.ChunkIndex] = true
				printChunk(chunk)
			}
		}
	}
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func printChunk(chunk schema.TranscriptionChunk) {
	if chunk.SpeakerLabel != "" {
		fmt.Printf("[%8.2fs] %v: %v\n", chunk.StartTimeSec, chunk.SpeakerLabel, chunk.Text)
	} else {
		fmt.Printf("[%8.2fs] %v\n", chunk.StartTimeSec, chunk.Text)
	}
}
