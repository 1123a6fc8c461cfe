package main

import (
	"etape/training-hub/internal/client"
	"etape/training-hub/internal/domain"
	"fmt"

	"github.com/urfave/cli/v2"
)

func adminCommands(e *env) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "admin",
			Usage: "user, assignment and invite administration",
			Subcommands: []*cli.Command{
				{
					Name:  "users",
					Usage: "list users",
					Flags: append(pageFlags(), &cli.StringFlag{Name: "role", Usage: "athlete, trainer or admin"}),
					Action: func(c *cli.Context) error {
						if _, err := e.require(c, domain.CapAdminUsers); err != nil {
							return err
						}
						users, err := e.api.Users(c.Context, domain.Role(c.String("role")), page(c))
						if err != nil {
							return err
						}
						t := e.table("ID", "NAME", "EMAIL", "ROLE", "ACTIVE", "LOCKED")
						for _, u := range users {
							fmt.Fprintf(t, "%s\t%s\t%s\t%s\t%t\t%t\n", u.ID.Hex(), u.FullName, u.Email, u.Role, u.IsActive, u.IsLocked)
						}
						return t.Flush()
					},
				},
				lockCommand(e, "lock", true),
				lockCommand(e, "unlock", false),
				{
					Name:      "role",
					Usage:     "change a user's role",
					ArgsUsage: "<user-id> <athlete|trainer|admin>",
					Action: func(c *cli.Context) error {
						if _, err := e.require(c, domain.CapAdminUsers); err != nil {
							return err
						}
						id, err := objectIDArg(c, 0, "user id")
						if err != nil {
							return err
						}
						role := domain.Role(c.Args().Get(1))
						if !role.Valid() {
							return fmt.Errorf("unknown role %q", role)
						}
						u, err := e.api.ChangeRole(c.Context, id, role)
						if err != nil {
							return err
						}
						fmt.Fprintf(e.out, "%s is now %s\n", u.Email, u.Role)
						return nil
					},
				},
				{
					Name:      "delete-user",
					Usage:     "delete a user and their data",
					ArgsUsage: "<user-id>",
					Action: func(c *cli.Context) error {
						if _, err := e.require(c, domain.CapAdminUsers); err != nil {
							return err
						}
						id, err := objectIDArg(c, 0, "user id")
						if err != nil {
							return err
						}
						u, err := e.api.User(c.Context, id)
						if err != nil {
							return err
						}
						if err := e.confirm(fmt.Sprintf("Delete %s <%s>? This cannot be undone.", u.FullName, u.Email)); err != nil {
							return err
						}
						if err := e.api.DeleteUser(c.Context, id); err != nil {
							return err
						}
						fmt.Fprintln(e.out, "User deleted")
						return nil
					},
				},
				{
					Name:  "stats",
					Usage: "platform totals",
					Action: func(c *cli.Context) error {
						if _, err := e.require(c, domain.CapViewStats); err != nil {
							return err
						}
						s, err := e.api.Stats(c.Context)
						if err != nil {
							return err
						}
						printStats(e, s)
						return nil
					},
				},
				{
					Name:  "assignments",
					Usage: "all trainer-athlete assignments",
					Flags: []cli.Flag{&cli.BoolFlag{Name: "active", Usage: "only active assignments"}},
					Action: func(c *cli.Context) error {
						if _, err := e.require(c, domain.CapAdminAssignments); err != nil {
							return err
						}
						list, err := e.api.AdminAssignments(c.Context, c.Bool("active"))
						if err != nil {
							return err
						}
						printAssignments(e, list)
						return nil
					},
					Subcommands: []*cli.Command{
						{
							Name:      "create",
							ArgsUsage: "<trainer-id> <athlete-id>",
							Flags:     []cli.Flag{&cli.StringFlag{Name: "notes"}},
							Action: func(c *cli.Context) error {
								if _, err := e.require(c, domain.CapAdminAssignments); err != nil {
									return err
								}
								trainerID, err := objectIDArg(c, 0, "trainer id")
								if err != nil {
									return err
								}
								athleteID, err := objectIDArg(c, 1, "athlete id")
								if err != nil {
									return err
								}
								a, err := e.api.CreateAssignment(c.Context, trainerID, athleteID, c.String("notes"))
								if err != nil {
									return err
								}
								fmt.Fprintf(e.out, "Assignment %s created\n", a.ID.Hex())
								return nil
							},
						},
						{
							Name:      "deactivate",
							ArgsUsage: "<assignment-id>",
							Action: func(c *cli.Context) error {
								if _, err := e.require(c, domain.CapAdminAssignments); err != nil {
									return err
								}
								id, err := objectIDArg(c, 0, "assignment id")
								if err != nil {
									return err
								}
								if err := e.confirm("Deactivate this assignment?"); err != nil {
									return err
								}
								return e.api.DeactivateAssignment(c.Context, id)
							},
						},
					},
				},
				{
					Name:  "invites",
					Usage: "invitation links",
					Action: func(c *cli.Context) error {
						if _, err := e.require(c, domain.CapAdminInvites); err != nil {
							return err
						}
						list, err := e.api.Invites(c.Context)
						if err != nil {
							return err
						}
						t := e.table("ID", "EMAIL", "ROLE", "EXPIRES", "USED", "ACTIVE")
						for _, inv := range list {
							fmt.Fprintf(t, "%s\t%s\t%s\t%s\t%s\t%t\n", inv.ID.Hex(), inv.Email, inv.Role, day(inv.ExpiresAt), dayPtr(inv.UsedAt), inv.IsActive)
						}
						return t.Flush()
					},
					Subcommands: []*cli.Command{
						{
							Name:  "create",
							Usage: "create an invite and email it when an address is given",
							Flags: []cli.Flag{
								&cli.StringFlag{Name: "email"},
								&cli.StringFlag{Name: "role", Value: string(domain.RoleAthlete)},
								&cli.IntFlag{Name: "days", Value: 7, Usage: "days until the invite expires"},
							},
							Action: func(c *cli.Context) error {
								if _, err := e.require(c, domain.CapAdminInvites); err != nil {
									return err
								}
								inv, err := e.api.CreateInvite(c.Context, client.InviteInput{
									Email:         c.String("email"),
									Role:          domain.Role(c.String("role")),
									ExpiresInDays: c.Int("days"),
								})
								if err != nil {
									return err
								}
								fmt.Fprintf(e.out, "Invite %s for %s, token %s, expires %s\n", inv.ID.Hex(), inv.Role, inv.Token, day(inv.ExpiresAt))
								return nil
							},
						},
						{
							Name:      "deactivate",
							ArgsUsage: "<invite-id>",
							Action: func(c *cli.Context) error {
								if _, err := e.require(c, domain.CapAdminInvites); err != nil {
									return err
								}
								id, err := objectIDArg(c, 0, "invite id")
								if err != nil {
									return err
								}
								return e.api.DeactivateInvite(c.Context, id)
							},
						},
					},
				},
			},
		},
	}
}

func lockCommand(e *env, name string, locked bool) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     name + " a user account",
		ArgsUsage: "<user-id>",
		Action: func(c *cli.Context) error {
			if _, err := e.require(c, domain.CapAdminUsers); err != nil {
				return err
			}
			id, err := objectIDArg(c, 0, "user id")
			if err != nil {
				return err
			}
			u, err := e.api.SetLocked(c.Context, id, locked)
			if err != nil {
				return err
			}
			fmt.Fprintf(e.out, "%s locked: %t\n", u.Email, u.IsLocked)
			return nil
		},
	}
}

func printStats(e *env, s *client.Stats) {
	t := e.table("METRIC", "COUNT")
	rows := []struct {
		name string
		n    int64
	}{
		{"users", s.TotalUsers},
		{"athletes", s.Athletes},
		{"trainers", s.Trainers},
		{"admins", s.Admins},
		{"active assignments", s.ActiveAssignments},
		{"training plans", s.TrainingPlans},
		{"rides", s.Rides},
		{"workouts", s.Workouts},
		{"goals", s.Goals},
	}
	for _, r := range rows {
		fmt.Fprintf(t, "%s\t%d\n", r.name, r.n)
	}
	t.Flush()
}
