package main

import (
	"fmt"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type VideoCommands struct {
	Video         GetVideoCommand         `cmd:"" group:"VIDEO" help:"Get video metadata"`
	DeleteVideo   DeleteVideoCommand      `cmd:"" group:"VIDEO" help:"Delete a video"`
	Transcription GetTranscriptionCommand `cmd:"" group:"TRANSCRIPTION" help:"Get a finalized transcript"`
}

type GetVideoCommand struct {
	Id []string `arg:"" help:"Video id"`
}

type DeleteVideoCommand struct {
	Id string `arg:"" help:"Video id"`
}

type GetTranscriptionCommand struct {
	Id string `arg:"" help:"Transcription id"`
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (cmd *GetVideoCommand) Run(app App) error {
	c, err := newClient(app)
	if err != nil {
		return err
	}
	videos, err := c.GetVideos(app.Context(), cmd.Id)
	if err != nil {
		return err
	}
	for _, video := range videos {
		fmt.Println(video)
	}
	return nil
}

func (cmd *DeleteVideoCommand) Run(app App) error {
	c, err := newClient(app)
	if err != nil {
		return err
	}
	video, err := c.DeleteVideo(app.Context(), cmd.Id)
	if err != nil {
		return err
	}
	fmt.Println(video)
	return nil
}

func (cmd *GetTranscriptionCommand) Run(app App) error {
	c, err := newClient(app)
	if err != nil {
		return err
	}
	transcription, err := c.GetTranscription(app.Context(), cmd.Id)
	if err != nil {
		return err
	}
	fmt.Println(transcription)
	return nil
}
