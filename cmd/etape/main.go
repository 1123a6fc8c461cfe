// Command etape is a terminal client for the Etape Training Hub API.
package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
)

func main() {
	log.SetFlags(0)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdin, os.Stdout).RunContext(ctx, os.Args); err != nil {
		log.Printf("ERROR: %v", err)
		os.Exit(1)
	}
}

func newApp(stdin io.Reader, stdout io.Writer) *cli.App {
	e := newEnv(stdin, stdout)

	var commands []*cli.Command
	commands = append(commands, authCommands(e)...)
	commands = append(commands, relationshipCommands(e)...)
	commands = append(commands, planCommands(e)...)
	commands = append(commands, activityCommands(e)...)
	commands = append(commands, messageCommands(e)...)
	commands = append(commands, integrationCommands(e)...)
	commands = append(commands, adminCommands(e)...)

	return &cli.App{
		Name:  "etape",
		Usage: "training logs, plans and coaching from the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api-url",
				Usage:   "API base URL",
				EnvVars: []string{"ETAPE_API_URL"},
			},
			&cli.PathFlag{
				Name:    "token-file",
				Usage:   "where the access token is kept (default $HOME/.etape/token)",
				EnvVars: []string{"ETAPE_TOKEN_FILE"},
			},
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "skip confirmation prompts for destructive actions",
			},
		},
		Before:   e.setup,
		Commands: commands,
	}
}
