package main

import (
	"errors"
	"etape/training-hub/internal/domain"
	"etape/training-hub/internal/messaging"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"
)

func messageCommands(e *env) []*cli.Command {
	inbox := func(c *cli.Context) (*messaging.Inbox, error) {
		u, err := e.require(c, domain.CapMessage)
		if err != nil {
			return nil, err
		}
		in := messaging.NewInbox(e.api, u.User)
		return in, in.Refresh(c.Context)
	}

	return []*cli.Command{
		{
			Name:    "messages",
			Aliases: []string{"msg"},
			Usage:   "conversations and people you can message",
			Action: func(c *cli.Context) error {
				in, err := inbox(c)
				if err != nil {
					return err
				}
				t := e.table("USER", "NAME", "ROLE", "UNREAD", "LAST")
				for _, ct := range in.Contacts() {
					last := "(new)"
					if ct.Started {
						last = ct.LastMessageAt.Local().Format("2006-01-02 15:04") + "  " + ct.LastMessage
					}
					fmt.Fprintf(t, "%s\t%s\t%s\t%d\t%s\n", ct.UserID.Hex(), ct.UserName, ct.UserRole, ct.UnreadCount, last)
				}
				return t.Flush()
			},
			Subcommands: []*cli.Command{
				{
					Name:      "read",
					Usage:     "show the thread with a user",
					ArgsUsage: "<user-id>",
					Flags:     pageFlags(),
					Action: func(c *cli.Context) error {
						in, err := inbox(c)
						if err != nil {
							return err
						}
						peer, err := objectIDArg(c, 0, "user id")
						if err != nil {
							return err
						}
						msgs, err := in.Thread(c.Context, peer, page(c))
						if err != nil {
							return err
						}
						for _, m := range msgs {
							who := "them"
							if m.SenderID != peer {
								who = "you"
							}
							fmt.Fprintf(e.out, "[%s] %s: %s\n", m.CreatedAt.Local().Format("2006-01-02 15:04"), who, m.Content)
						}
						return nil
					},
				},
				{
					Name:      "send",
					ArgsUsage: "<user-id> <text...>",
					Action: func(c *cli.Context) error {
						in, err := inbox(c)
						if err != nil {
							return err
						}
						peer, err := objectIDArg(c, 0, "user id")
						if err != nil {
							return err
						}
						text := strings.Join(c.Args().Tail(), " ")
						if _, err := in.Send(c.Context, peer, text); err != nil {
							if errors.Is(err, messaging.ErrEmptyMessage) {
								return errors.New("nothing to send")
							}
							return err
						}
						fmt.Fprintln(e.out, "Sent")
						return nil
					},
				},
				{
					Name:  "unread",
					Usage: "count unread messages",
					Action: func(c *cli.Context) error {
						if _, err := e.require(c, domain.CapMessage); err != nil {
							return err
						}
						n, err := e.api.UnreadCount(c.Context)
						if err != nil {
							return err
						}
						fmt.Fprintln(e.out, n)
						return nil
					},
				},
			},
		},
	}
}
