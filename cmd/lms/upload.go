package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	// Packages
	httpclient "github.com/mutablelogic/go-lms/pkg/httpclient"
	schema "github.com/mutablelogic/go-lms/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type UploadCommands struct {
	Upload UploadCommand `cmd:"" group:"VIDEO" help:"Upload a video file as a resumable chunked upload"`
}

type UploadCommand struct {
	Path      string `arg:"" type:"existingfile" help:"Video file to upload"`
	Title     string `help:"Title for the video"`
	ChunkSize int64  `default:"5242880" help:"Chunk size in bytes"`
	State     string `help:"Resume-state sidecar file (defaults to <path>.upload)"`
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (cmd *UploadCommand) Run(app App) error {
	c, err := newClient(app)
	if err != nil {
		return err
	}

	f, err := os.Open(cmd.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}

	statePath := cmd.State
	if statePath == "" {
		statePath = cmd.Path + ".upload"
	}

	controller := httpclient.NewController(c)

	// Continue a previous transfer when a sidecar checkpoint exists
	checkpoint, err := readCheckpoint(statePath)
	if err != nil {
		return err
	}
	if !checkpoint.IsZero() {
		fmt.Printf("Resuming from byte %v\n", checkpoint.Offset)
		controller.SetResumePoint(checkpoint)
	}

	now := time.Now()
	opts := []httpclient.UploadOpt{
		httpclient.WithChunkSize(cmd.ChunkSize),
		httpclient.WithProgress(func(p httpclient.Progress) {
			if time.Since(now) > time.Second {
				fmt.Printf("Uploaded %v/%v bytes (%.1f%%)\r", p.Sent, p.Total, p.Pct)
				now = time.Now()
			}
		}),
		httpclient.WithCheckpoint(func(cp schema.UploadCheckpoint) {
			// Best-effort: an unwritable sidecar only loses resumability
			_ = writeCheckpoint(statePath, cp)
		}),
	}
	if cmd.Title != "" {
		opts = append(opts, httpclient.WithTitle(cmd.Title))
	}

	video, err := controller.Resume(app.Context(), f, info.Size(), opts...)
	switch controller.Status() {
	case httpclient.StatusCompleted:
		_ = os.Remove(statePath)
		fmt.Println(video)
		return nil
	case httpclient.StatusCanceled:
		fmt.Printf("\nUpload interrupted, resume with the same command (state in %v)\n", statePath)
		return nil
	default:
		return err
	}
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func readCheckpoint(path string) (schema.UploadCheckpoint, error) {
	var checkpoint schema.UploadCheckpoint
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return checkpoint, nil
	} else if err != nil {
		return checkpoint, err
	}
	if err := json.Unmarshal(data, &checkpoint); err != nil {
		return schema.UploadCheckpoint{}, err
	}
	return checkpoint, nil
}

func writeCheckpoint(path string, checkpoint schema.UploadCheckpoint) error {
	data, err := json.Marshal(checkpoint)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
