package main

import (
	"errors"
	"etape/training-hub/internal/client"
	"etape/training-hub/internal/domain"
	"fmt"

	"github.com/urfave/cli/v2"
)

const defaultProvider = "strava"

func integrationCommands(e *env) []*cli.Command {
	provider := func(c *cli.Context) string {
		if p := c.Args().First(); p != "" {
			return p
		}
		return defaultProvider
	}

	return []*cli.Command{
		{
			Name:  "integrations",
			Usage: "connected fitness services",
			Action: func(c *cli.Context) error {
				if _, err := e.require(c, domain.CapSyncIntegrations); err != nil {
					return err
				}
				list, err := e.api.IntegrationStatus(c.Context)
				if err != nil {
					return err
				}
				t := e.table("PROVIDER", "CONNECTED", "SINCE", "LAST SYNC")
				for _, s := range list {
					fmt.Fprintf(t, "%s\t%t\t%s\t%s\n", s.Provider, s.Connected, dayPtr(s.ConnectedAt), dayPtr(s.LastSync))
				}
				return t.Flush()
			},
			Subcommands: []*cli.Command{
				{
					Name:      "connect",
					Usage:     "print the authorization link for a provider",
					ArgsUsage: "[provider]",
					Action: func(c *cli.Context) error {
						if _, err := e.require(c, domain.CapSyncIntegrations); err != nil {
							return err
						}
						res, err := e.api.Connect(c.Context, provider(c))
						if err != nil {
							return err
						}
						fmt.Fprintf(e.out, "Open this link to authorize access:\n%s\n", res.AuthURL)
						return nil
					},
				},
				{
					Name:      "sync",
					Usage:     "import recent activities",
					ArgsUsage: "[provider]",
					Flags:     []cli.Flag{&cli.IntFlag{Name: "days", Value: 30, Usage: "how far back to look"}},
					Action: func(c *cli.Context) error {
						if _, err := e.require(c, domain.CapSyncIntegrations); err != nil {
							return err
						}
						res, err := e.api.Sync(c.Context, provider(c), c.Int("days"))
						if err != nil {
							return err
						}
						fmt.Fprintf(e.out, "Imported %d activities, skipped %d already present\n", res.Imported, res.Skipped)
						return nil
					},
				},
				{
					Name:      "disconnect",
					ArgsUsage: "[provider]",
					Action: func(c *cli.Context) error {
						if _, err := e.require(c, domain.CapSyncIntegrations); err != nil {
							return err
						}
						p := provider(c)
						if err := e.confirm(fmt.Sprintf("Disconnect %s? Imported activities are kept.", p)); err != nil {
							return err
						}
						return e.api.Disconnect(c.Context, p)
					},
				},
				{
					Name:  "activities",
					Usage: "imported activities",
					Flags: append(pageFlags(),
						&cli.StringFlag{Name: "type", Usage: "ride, run, swim..."},
						&cli.StringFlag{Name: "from", Usage: "first day, YYYY-MM-DD"},
						&cli.StringFlag{Name: "to", Usage: "last day, inclusive"},
					),
					Action: func(c *cli.Context) error {
						if _, err := e.require(c, domain.CapSyncIntegrations); err != nil {
							return err
						}
						q := client.ActivityQuery{ActivityType: c.String("type"), Page: page(c)}
						var err error
						if raw := c.String("from"); raw != "" {
							if q.Start, err = parseDate(raw); err != nil {
								return err
							}
						}
						if raw := c.String("to"); raw != "" {
							if q.End, err = parseDate(raw); err != nil {
								return err
							}
						}
						if !q.Start.IsZero() && !q.End.IsZero() && q.End.Before(q.Start) {
							return errors.New("--to is before --from")
						}
						list, err := e.api.Activities(c.Context, q)
						if err != nil {
							return err
						}
						t := e.table("DATE", "TYPE", "NAME", "KM", "MIN")
						for _, a := range list {
							fmt.Fprintf(t, "%s\t%s\t%s\t%s\t%s\n", day(a.ActivityDate), a.ActivityType, a.Name, optFloat(a.DistanceKm), optFloat(a.DurationMinutes))
						}
						return t.Flush()
					},
				},
			},
		},
	}
}

func optFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *v)
}
