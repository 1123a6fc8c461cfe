package main

import (
	"etape/training-hub/internal/domain"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"
)

func activityCommands(e *env) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "rides",
			Usage: "your ride log",
			Flags: pageFlags(),
			Action: func(c *cli.Context) error {
				if _, err := e.require(c, domain.CapLogActivity); err != nil {
					return err
				}
				rides, err := e.api.Rides().List(c.Context, nil, page(c))
				if err != nil {
					return err
				}
				t := e.table("ID", "DATE", "TITLE", "KM", "MIN", "TYPE")
				for _, r := range rides {
					fmt.Fprintf(t, "%s\t%s\t%s\t%.1f\t%d\t%s\n", r.ID.Hex(), day(r.RideDate), r.Title, r.DistanceKm, r.DurationMinutes, r.RideType)
				}
				return t.Flush()
			},
			Subcommands: []*cli.Command{
				{
					Name:  "add",
					Usage: "log a ride",
					Flags: []cli.Flag{
						&cli.StringFlag{Name: "title", Required: true},
						&cli.Float64Flag{Name: "km", Required: true, Usage: "distance in kilometres"},
						&cli.IntFlag{Name: "minutes", Required: true},
						&cli.StringFlag{Name: "date", Usage: "YYYY-MM-DD, default today"},
						&cli.StringFlag{Name: "type", Usage: "training, recovery, race..."},
						&cli.Float64Flag{Name: "elevation", Usage: "elevation gain in metres"},
						&cli.IntFlag{Name: "power", Usage: "average power in watts"},
						&cli.IntFlag{Name: "hr", Usage: "average heart rate"},
						&cli.StringFlag{Name: "notes"},
					},
					Action: func(c *cli.Context) error {
						if _, err := e.require(c, domain.CapLogActivity); err != nil {
							return err
						}
						when, err := dateOrToday(c.String("date"))
						if err != nil {
							return err
						}
						ride := &domain.Ride{
							Title:           c.String("title"),
							Description:     c.String("notes"),
							DistanceKm:      c.Float64("km"),
							DurationMinutes: c.Int("minutes"),
							RideDate:        when,
							RideType:        c.String("type"),
						}
						if c.IsSet("elevation") {
							v := c.Float64("elevation")
							ride.ElevationGainM = &v
						}
						if c.IsSet("power") {
							v := c.Int("power")
							ride.AvgPowerWatts = &v
						}
						if c.IsSet("hr") {
							v := c.Int("hr")
							ride.AvgHeartRate = &v
						}
						created, err := e.api.Rides().Create(c.Context, ride)
						if err != nil {
							return err
						}
						fmt.Fprintf(e.out, "Logged ride %s\n", created.ID.Hex())
						return nil
					},
				},
				{
					Name:      "delete",
					ArgsUsage: "<ride-id>",
					Action: func(c *cli.Context) error {
						if _, err := e.require(c, domain.CapLogActivity); err != nil {
							return err
						}
						id, err := objectIDArg(c, 0, "ride id")
						if err != nil {
							return err
						}
						if err := e.confirm("Delete this ride?"); err != nil {
							return err
						}
						return e.api.Rides().Delete(c.Context, id)
					},
				},
			},
		},
		{
			Name:  "workouts",
			Usage: "your workout log",
			Flags: pageFlags(),
			Action: func(c *cli.Context) error {
				if _, err := e.require(c, domain.CapLogActivity); err != nil {
					return err
				}
				list, err := e.api.Workouts().List(c.Context, nil, page(c))
				if err != nil {
					return err
				}
				t := e.table("ID", "DATE", "TITLE", "TYPE", "MIN", "INTENSITY")
				for _, w := range list {
					fmt.Fprintf(t, "%s\t%s\t%s\t%s\t%d\t%s\n", w.ID.Hex(), day(w.WorkoutDate), w.Title, w.WorkoutType, w.DurationMinutes, w.Intensity)
				}
				return t.Flush()
			},
			Subcommands: []*cli.Command{
				{
					Name:  "add",
					Usage: "log a workout",
					Flags: []cli.Flag{
						&cli.StringFlag{Name: "title", Required: true},
						&cli.StringFlag{Name: "type", Required: true, Usage: "strength, endurance, interval..."},
						&cli.IntFlag{Name: "minutes", Required: true},
						&cli.StringFlag{Name: "intensity"},
						&cli.StringFlag{Name: "date", Usage: "YYYY-MM-DD, default today"},
						&cli.StringFlag{Name: "notes"},
					},
					Action: func(c *cli.Context) error {
						if _, err := e.require(c, domain.CapLogActivity); err != nil {
							return err
						}
						when, err := dateOrToday(c.String("date"))
						if err != nil {
							return err
						}
						created, err := e.api.Workouts().Create(c.Context, &domain.Workout{
							Title:           c.String("title"),
							WorkoutType:     c.String("type"),
							DurationMinutes: c.Int("minutes"),
							Intensity:       c.String("intensity"),
							Notes:           c.String("notes"),
							WorkoutDate:     when,
						})
						if err != nil {
							return err
						}
						fmt.Fprintf(e.out, "Logged workout %s\n", created.ID.Hex())
						return nil
					},
				},
			},
		},
		{
			Name:  "goals",
			Usage: "your goals",
			Flags: pageFlags(),
			Action: func(c *cli.Context) error {
				if _, err := e.require(c, domain.CapLogActivity); err != nil {
					return err
				}
				list, err := e.api.Goals().List(c.Context, nil, page(c))
				if err != nil {
					return err
				}
				t := e.table("ID", "TITLE", "TYPE", "TARGET", "DUE", "DONE")
				for _, g := range list {
					target := "-"
					if g.TargetValue != nil {
						target = fmt.Sprintf("%g %s", *g.TargetValue, g.Unit)
					}
					fmt.Fprintf(t, "%s\t%s\t%s\t%s\t%s\t%t\n", g.ID.Hex(), g.Title, g.GoalType, target, dayPtr(g.TargetDate), g.IsCompleted)
				}
				return t.Flush()
			},
			Subcommands: []*cli.Command{
				{
					Name:      "complete",
					Usage:     "mark a goal as reached",
					ArgsUsage: "<goal-id>",
					Action: func(c *cli.Context) error {
						if _, err := e.require(c, domain.CapLogActivity); err != nil {
							return err
						}
						id, err := objectIDArg(c, 0, "goal id")
						if err != nil {
							return err
						}
						now := time.Now().UTC()
						if _, err := e.api.Goals().Update(c.Context, id, map[string]any{"isCompleted": true, "completedDate": now}); err != nil {
							return err
						}
						fmt.Fprintln(e.out, "Goal completed")
						return nil
					},
				},
			},
		},
	}
}

func dateOrToday(raw string) (time.Time, error) {
	if raw == "" {
		y, m, d := time.Now().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	return parseDate(raw)
}
