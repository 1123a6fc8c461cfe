package main

import (
	"etape/training-hub/internal/domain"
	"etape/training-hub/internal/relationship"
	"fmt"

	"github.com/urfave/cli/v2"
)

func relationshipCommands(e *env) []*cli.Command {
	// workflow is loaded fresh per invocation so the local guards see server state.
	workflow := func(c *cli.Context) (*relationship.Workflow, error) {
		w := relationship.NewWorkflow(e.api)
		return w, w.Refresh(c.Context)
	}

	return []*cli.Command{
		{
			Name:  "trainers",
			Usage: "find trainers and ask one to coach you",
			Subcommands: []*cli.Command{
				{
					Name:      "search",
					Usage:     "search trainers by name or email",
					ArgsUsage: "[query]",
					Flags:     pageFlags(),
					Action: func(c *cli.Context) error {
						if _, err := e.require(c, domain.CapSendTrainerRequest); err != nil {
							return err
						}
						w, err := workflow(c)
						if err != nil {
							return err
						}
						found, err := w.SearchTrainers(c.Context, c.Args().First(), page(c))
						if err != nil {
							return err
						}
						if len(found) == 0 {
							fmt.Fprintln(e.out, "No trainers found")
							return nil
						}
						t := e.table("ID", "NAME", "EMAIL", "STATUS")
						for _, cand := range found {
							fmt.Fprintf(t, "%s\t%s\t%s\t%s\n", cand.ID.Hex(), cand.FullName, cand.Email, cand.Status)
						}
						return t.Flush()
					},
				},
				{
					Name:      "request",
					Usage:     "ask a trainer to coach you",
					ArgsUsage: "<trainer-id>",
					Flags:     []cli.Flag{&cli.StringFlag{Name: "message", Aliases: []string{"m"}}},
					Action: func(c *cli.Context) error {
						if _, err := e.require(c, domain.CapSendTrainerRequest); err != nil {
							return err
						}
						trainerID, err := objectIDArg(c, 0, "trainer id")
						if err != nil {
							return err
						}
						w, err := workflow(c)
						if err != nil {
							return err
						}
						req, err := w.SendRequest(c.Context, trainerID, c.String("message"))
						if err != nil {
							return err
						}
						fmt.Fprintf(e.out, "Request %s sent, status %s\n", req.ID.Hex(), req.Status)
						return nil
					},
				},
			},
		},
		{
			Name:  "requests",
			Usage: "trainer requests you sent or received",
			Action: func(c *cli.Context) error {
				if _, err := e.user(c); err != nil {
					return err
				}
				reqs, err := e.api.TrainerRequests(c.Context)
				if err != nil {
					return err
				}
				t := e.table("ID", "ATHLETE", "TRAINER", "STATUS", "SENT", "MESSAGE")
				for _, r := range reqs {
					fmt.Fprintf(t, "%s\t%s\t%s\t%s\t%s\t%s\n", r.ID.Hex(), userName(r.Athlete), userName(r.Trainer), r.Status, day(r.CreatedAt), r.Message)
				}
				return t.Flush()
			},
			Subcommands: []*cli.Command{
				respondCommand(e, "approve", true),
				respondCommand(e, "reject", false),
			},
		},
		{
			Name:  "assignments",
			Usage: "trainer-athlete assignments you are part of",
			Action: func(c *cli.Context) error {
				if _, err := e.user(c); err != nil {
					return err
				}
				list, err := e.api.Assignments(c.Context)
				if err != nil {
					return err
				}
				printAssignments(e, list)
				return nil
			},
			Subcommands: []*cli.Command{
				{
					Name:      "end",
					Usage:     "end an assignment",
					ArgsUsage: "<assignment-id>",
					Action: func(c *cli.Context) error {
						if _, err := e.user(c); err != nil {
							return err
						}
						id, err := objectIDArg(c, 0, "assignment id")
						if err != nil {
							return err
						}
						if err := e.confirm("End this coaching relationship?"); err != nil {
							return err
						}
						w, err := workflow(c)
						if err != nil {
							return err
						}
						if err := w.DeleteAssignment(c.Context, id); err != nil {
							return err
						}
						fmt.Fprintln(e.out, "Assignment ended")
						return nil
					},
				},
			},
		},
		{
			Name:  "athletes",
			Usage: "athletes you coach",
			Action: func(c *cli.Context) error {
				if _, err := e.require(c, domain.CapManageAthletes); err != nil {
					return err
				}
				athletes, err := e.api.MyAthletes(c.Context)
				if err != nil {
					return err
				}
				t := e.table("ID", "NAME", "EMAIL")
				for _, a := range athletes {
					fmt.Fprintf(t, "%s\t%s\t%s\n", a.ID.Hex(), a.FullName, a.Email)
				}
				return t.Flush()
			},
		},
	}
}

func respondCommand(e *env, name string, approve bool) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     name + " a pending request",
		ArgsUsage: "<request-id>",
		Action: func(c *cli.Context) error {
			if _, err := e.require(c, domain.CapManageAthletes); err != nil {
				return err
			}
			id, err := objectIDArg(c, 0, "request id")
			if err != nil {
				return err
			}
			w := relationship.NewWorkflow(e.api)
			req, err := w.Respond(c.Context, id, approve)
			if err != nil {
				return err
			}
			fmt.Fprintf(e.out, "Request %s is now %s\n", req.ID.Hex(), req.Status)
			return nil
		},
	}
}

func printAssignments(e *env, list []domain.TrainerAssignment) {
	t := e.table("ID", "TRAINER", "ATHLETE", "ACTIVE", "SINCE")
	for _, a := range list {
		fmt.Fprintf(t, "%s\t%s\t%s\t%t\t%s\n", a.ID.Hex(), userName(a.Trainer), userName(a.Athlete), a.IsActive, day(a.AssignedAt))
	}
	t.Flush()
}

func userName(u *domain.User) string {
	if u == nil {
		return "-"
	}
	return u.FullName
}
