package main

import (
	"errors"
	"etape/training-hub/internal/client"
	"etape/training-hub/internal/domain"
	"fmt"

	"github.com/urfave/cli/v2"
)

func authCommands(e *env) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "login",
			Usage: "sign in and remember the token",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "email", Aliases: []string{"e"}},
				&cli.StringFlag{Name: "password", EnvVars: []string{"ETAPE_PASSWORD"}},
			},
			Action: func(c *cli.Context) error {
				email, password := c.String("email"), c.String("password")
				var err error
				if email == "" {
					if email, err = e.prompt("Email"); err != nil {
						return err
					}
				}
				if password == "" {
					if password, err = e.prompt("Password"); err != nil {
						return err
					}
				}
				if email == "" || password == "" {
					return errors.New("email and password are required")
				}
				u, err := e.session.Login(c.Context, email, password)
				if err != nil {
					return err
				}
				fmt.Fprintf(e.out, "Signed in as %s (%s)\n", u.FullName, u.Role)
				return nil
			},
		},
		{
			Name:  "logout",
			Usage: "forget the stored token",
			Action: func(c *cli.Context) error {
				if err := e.session.Logout(); err != nil {
					return err
				}
				fmt.Fprintln(e.out, "Signed out")
				return nil
			},
		},
		{
			Name:  "whoami",
			Usage: "show the signed-in user and what the role allows",
			Action: func(c *cli.Context) error {
				u, err := e.user(c)
				if err != nil {
					return err
				}
				fmt.Fprintf(e.out, "%s <%s>\nrole: %s\nid: %s\n", u.FullName, u.Email, u.Role, u.ID.Hex())
				for _, capability := range u.Capabilities {
					fmt.Fprintf(e.out, "  can %s\n", capability)
				}
				return nil
			},
		},
		{
			Name:  "register",
			Usage: "create an account, optionally from an invite",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "email", Required: true},
				&cli.StringFlag{Name: "name", Required: true, Usage: "full name"},
				&cli.StringFlag{Name: "password", EnvVars: []string{"ETAPE_PASSWORD"}},
				&cli.StringFlag{Name: "role", Value: string(domain.RoleAthlete), Usage: "athlete or trainer; ignored with an invite"},
				&cli.StringFlag{Name: "invite", Usage: "invite token"},
			},
			Action: func(c *cli.Context) error {
				password := c.String("password")
				if password == "" {
					var err error
					if password, err = e.prompt("Password"); err != nil {
						return err
					}
				}
				if token := c.String("invite"); token != "" {
					info, err := e.api.InviteInfo(c.Context, token)
					if err != nil {
						return err
					}
					if !info.IsValid {
						return errors.New("this invite is no longer valid")
					}
				}
				u, err := e.api.Register(c.Context, client.RegisterInput{
					Email:       c.String("email"),
					Password:    password,
					FullName:    c.String("name"),
					Role:        domain.Role(c.String("role")),
					InviteToken: c.String("invite"),
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(e.out, "Registered %s as %s. Run `etape login` to sign in.\n", u.Email, u.Role)
				return nil
			},
		},
	}
}
