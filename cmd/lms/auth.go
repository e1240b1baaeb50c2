package main

import (
	"fmt"

	// Packages
	"golang.org/x/term"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type AuthCommands struct {
	Login LoginCommand `cmd:"" group:"AUTH" help:"Log in and print a bearer token"`
}

type LoginCommand struct {
	Email    string `arg:"" help:"Account email"`
	Password string `help:"Account password (prompted when omitted)"`
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (cmd *LoginCommand) Run(app App) error {
	c, err := newClient(app)
	if err != nil {
		return err
	}

	password := cmd.Password
	if password == "" {
		fmt.Print("Password: ")
		data, err := term.ReadPassword(0)
		fmt.Println()
		if err != nil {
			return err
		}
		password = string(data)
	}

	token, err := c.Login(app.Context(), cmd.Email, password)
	if err != nil {
		return err
	}
	fmt.Println(token.Token)
	return nil
}
