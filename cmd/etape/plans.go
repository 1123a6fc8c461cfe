package main

import (
	"encoding/json"
	"errors"
	"etape/training-hub/internal/client"
	"etape/training-hub/internal/domain"
	"etape/training-hub/internal/planbuilder"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// templateFile is the JSON layout accepted by `plans create`.
type templateFile struct {
	Title           string                          `json:"title"`
	Description     string                          `json:"description"`
	StartDate       string                          `json:"startDate"`
	DurationWeeks   int                             `json:"durationWeeks"`
	WeeklyStructure [7]string                       `json:"weeklyStructure"`
	Workouts        []planbuilder.WorkoutTemplate   `json:"workouts"`
	Nutrition       []planbuilder.NutritionTemplate `json:"nutrition"`
	AthleteIDs      []string                        `json:"athleteIds"`
}

// loadTemplate reads a template file. Athletes given on the command line replace the file's list.
func loadTemplate(r io.Reader, athletes []string) (*planbuilder.Template, error) {
	var f templateFile
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("reading template: %w", err)
	}
	if len(athletes) > 0 {
		f.AthleteIDs = athletes
	}
	ids, err := objectIDs(f.AthleteIDs)
	if err != nil {
		return nil, err
	}
	t := &planbuilder.Template{
		Title:           f.Title,
		Description:     f.Description,
		DurationWeeks:   f.DurationWeeks,
		WeeklyStructure: f.WeeklyStructure,
		Workouts:        f.Workouts,
		Nutrition:       f.Nutrition,
		AthleteIDs:      ids,
	}
	if f.StartDate != "" {
		if t.StartDate, err = parseDate(f.StartDate); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func planCommands(e *env) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "plans",
			Usage: "training plans",
			Flags: []cli.Flag{&cli.StringFlag{Name: "athlete", Usage: "only plans for this athlete id"}},
			Action: func(c *cli.Context) error {
				if _, err := e.user(c); err != nil {
					return err
				}
				var athleteID primitive.ObjectID
				if raw := c.String("athlete"); raw != "" {
					id, err := primitive.ObjectIDFromHex(raw)
					if err != nil {
						return fmt.Errorf("invalid athlete id %q", raw)
					}
					athleteID = id
				}
				plans, err := e.api.Plans(c.Context, athleteID)
				if err != nil {
					return err
				}
				t := e.table("ID", "TITLE", "ATHLETE", "START", "END", "ACTIVE")
				for _, p := range plans {
					fmt.Fprintf(t, "%s\t%s\t%s\t%s\t%s\t%t\n", p.ID.Hex(), p.Title, p.AthleteID.Hex(), dayPtr(p.StartDate), dayPtr(p.EndDate), p.IsActive)
				}
				return t.Flush()
			},
			Subcommands: []*cli.Command{
				{
					Name:      "show",
					Usage:     "a plan with its workouts, goals and nutrition",
					ArgsUsage: "<plan-id>",
					Action: func(c *cli.Context) error {
						if _, err := e.user(c); err != nil {
							return err
						}
						id, err := objectIDArg(c, 0, "plan id")
						if err != nil {
							return err
						}
						b, err := e.api.Plan(c.Context, id)
						if err != nil {
							return err
						}
						printBundle(e, b)
						return nil
					},
				},
				{
					Name:      "create",
					Usage:     "create plans from a weekly template for one or more athletes",
					ArgsUsage: "<template.json>",
					Flags: []cli.Flag{
						&cli.StringSliceFlag{Name: "athlete", Usage: "athlete id, repeatable; overrides the template's athleteIds"},
					},
					Action: func(c *cli.Context) error {
						if _, err := e.require(c, domain.CapManagePlans); err != nil {
							return err
						}
						if c.NArg() != 1 {
							return errors.New("expected one template file")
						}
						f, err := os.Open(c.Args().First())
						if err != nil {
							return err
						}
						defer f.Close()
						tmpl, err := loadTemplate(f, c.StringSlice("athlete"))
						if err != nil {
							return err
						}
						return submitTemplate(c, e, tmpl)
					},
				},
				{
					Name:      "delete",
					Usage:     "delete a plan and everything in it",
					ArgsUsage: "<plan-id>",
					Action: func(c *cli.Context) error {
						if _, err := e.require(c, domain.CapManagePlans); err != nil {
							return err
						}
						id, err := objectIDArg(c, 0, "plan id")
						if err != nil {
							return err
						}
						if err := e.confirm("Delete this training plan with its workouts, goals, nutrition and documents?"); err != nil {
							return err
						}
						if err := e.api.DeletePlan(c.Context, id); err != nil {
							return err
						}
						fmt.Fprintln(e.out, "Plan deleted")
						return nil
					},
				},
				{
					Name:      "parse",
					Usage:     "extract a structured plan from a PDF or text file",
					ArgsUsage: "<file>",
					Flags:     []cli.Flag{&cli.PathFlag{Name: "out", Aliases: []string{"o"}, Usage: "write the parsed plan here instead of stdout"}},
					Action: func(c *cli.Context) error {
						if _, err := e.require(c, domain.CapUsePlanBuilder); err != nil {
							return err
						}
						path := c.Args().First()
						if path == "" {
							return errors.New("expected a file to parse")
						}
						f, err := os.Open(path)
						if err != nil {
							return err
						}
						defer f.Close()
						parsed, err := e.api.ParsePlanDocument(c.Context, filepath.Base(path), f)
						if err != nil {
							return err
						}
						out := e.out
						if dest := c.Path("out"); dest != "" {
							file, err := os.Create(dest)
							if err != nil {
								return err
							}
							defer file.Close()
							out = file
						}
						enc := json.NewEncoder(out)
						enc.SetIndent("", "  ")
						return enc.Encode(parsed)
					},
				},
				{
					Name:      "from-parsed",
					Usage:     "create plans from a parsed plan, after review",
					ArgsUsage: "<parsed.json>",
					Flags: []cli.Flag{
						&cli.StringSliceFlag{Name: "athlete", Required: true, Usage: "athlete id, repeatable"},
						&cli.StringFlag{Name: "start", Required: true, Usage: "start date YYYY-MM-DD"},
					},
					Action: func(c *cli.Context) error {
						if _, err := e.require(c, domain.CapUsePlanBuilder); err != nil {
							return err
						}
						raw, err := os.ReadFile(c.Args().First())
						if err != nil {
							return err
						}
						var parsed domain.ParsedPlan
						if err := json.Unmarshal(raw, &parsed); err != nil {
							return fmt.Errorf("reading parsed plan: %w", err)
						}
						athletes, err := objectIDs(c.StringSlice("athlete"))
						if err != nil {
							return err
						}
						start, err := parseDate(c.String("start"))
						if err != nil {
							return err
						}
						plans, err := e.api.CreateFromParsed(c.Context, athletes, start, parsed)
						if err != nil {
							return err
						}
						for _, p := range plans {
							fmt.Fprintf(e.out, "Created plan %s for athlete %s\n", p.ID.Hex(), p.AthleteID.Hex())
						}
						return nil
					},
				},
				{
					Name:      "chat",
					Usage:     "ask the plan assistant a question",
					ArgsUsage: "<message>",
					Action: func(c *cli.Context) error {
						if _, err := e.require(c, domain.CapUsePlanBuilder); err != nil {
							return err
						}
						msg := strings.Join(c.Args().Slice(), " ")
						if strings.TrimSpace(msg) == "" {
							return errors.New("expected a message")
						}
						reply, err := e.api.Chat(c.Context, msg, nil)
						if err != nil {
							return err
						}
						fmt.Fprintln(e.out, reply)
						return nil
					},
				},
				documentCommand(e),
			},
		},
	}
}

func submitTemplate(c *cli.Context, e *env, tmpl *planbuilder.Template) error {
	res, err := planbuilder.Submit(c.Context, planbuilder.ClientAPI{Client: e.api}, tmpl)
	var serr *planbuilder.SubmitError
	if errors.As(err, &serr) {
		for _, id := range serr.Completed {
			fmt.Fprintf(e.out, "Created plan for athlete %s\n", id.Hex())
		}
		if !serr.RolledBack {
			fmt.Fprintf(e.out, "A partial plan for athlete %s could not be removed; delete it by hand.\n", serr.AthleteID.Hex())
		}
		return err
	}
	if err != nil {
		return err
	}
	for i, id := range res.Created {
		fmt.Fprintf(e.out, "Created plan %s for athlete %s\n", res.PlanIDs[i].Hex(), id.Hex())
	}
	return nil
}

func printBundle(e *env, b *client.PlanBundle) {
	p := b.Plan
	fmt.Fprintf(e.out, "%s\n%s to %s\n", p.Title, dayPtr(p.StartDate), dayPtr(p.EndDate))
	if p.Description != "" {
		fmt.Fprintf(e.out, "\n%s\n", p.Description)
	}
	if len(b.Workouts) > 0 {
		fmt.Fprintln(e.out, "\nWorkouts")
		t := e.table("DATE", "TITLE", "TYPE", "INTENSITY", "DONE")
		for _, w := range b.Workouts {
			fmt.Fprintf(t, "%s\t%s\t%s\t%s\t%t\n", day(w.ScheduledDate), w.Title, w.WorkoutType, w.Intensity, w.IsCompleted)
		}
		t.Flush()
	}
	if len(b.Goals) > 0 {
		fmt.Fprintln(e.out, "\nGoals")
		for _, g := range b.Goals {
			fmt.Fprintf(e.out, "  - %s\n", g.Title)
		}
	}
	if len(b.Nutrition) > 0 {
		fmt.Fprintln(e.out, "\nNutrition")
		for _, n := range b.Nutrition {
			fmt.Fprintf(e.out, "  %s %s: %s\n", n.DayOfWeek, n.MealType, n.Description)
		}
	}
}

func documentCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:      "docs",
		Usage:     "documents attached to a plan",
		ArgsUsage: "<plan-id>",
		Action: func(c *cli.Context) error {
			if _, err := e.user(c); err != nil {
				return err
			}
			planID, err := objectIDArg(c, 0, "plan id")
			if err != nil {
				return err
			}
			docs, err := e.api.Documents(c.Context, planID)
			if err != nil {
				return err
			}
			t := e.table("ID", "FILE", "TYPE", "SIZE", "UPLOADED")
			for _, d := range docs {
				fmt.Fprintf(t, "%s\t%s\t%s\t%d\t%s\n", d.ID.Hex(), d.Filename, d.FileType, d.Size, day(d.UploadedAt))
			}
			return t.Flush()
		},
		Subcommands: []*cli.Command{
			{
				Name:      "upload",
				ArgsUsage: "<plan-id> <file>",
				Flags:     []cli.Flag{&cli.StringFlag{Name: "description", Aliases: []string{"d"}}},
				Action: func(c *cli.Context) error {
					if _, err := e.require(c, domain.CapManagePlans); err != nil {
						return err
					}
					planID, err := objectIDArg(c, 0, "plan id")
					if err != nil {
						return err
					}
					path := c.Args().Get(1)
					if path == "" {
						return errors.New("expected a file to upload")
					}
					f, err := os.Open(path)
					if err != nil {
						return err
					}
					defer f.Close()
					doc, err := e.api.UploadDocument(c.Context, planID, filepath.Base(path), f, c.String("description"))
					if err != nil {
						return err
					}
					fmt.Fprintf(e.out, "Uploaded %s as %s\n", doc.Filename, doc.ID.Hex())
					return nil
				},
			},
			{
				Name:      "download",
				ArgsUsage: "<plan-id> <document-id>",
				Flags:     []cli.Flag{&cli.PathFlag{Name: "dir", Value: ".", Usage: "directory to save into"}},
				Action: func(c *cli.Context) error {
					if _, err := e.user(c); err != nil {
						return err
					}
					planID, err := objectIDArg(c, 0, "plan id")
					if err != nil {
						return err
					}
					docID, err := objectIDArg(c, 1, "document id")
					if err != nil {
						return err
					}
					dl, err := e.api.DownloadDocument(c.Context, planID, docID)
					if err != nil {
						return err
					}
					defer dl.Body.Close()
					dest := filepath.Join(c.Path("dir"), filepath.Base(dl.Filename))
					f, err := os.Create(dest)
					if err != nil {
						return err
					}
					if _, err := io.Copy(f, dl.Body); err != nil {
						f.Close()
						return err
					}
					if err := f.Close(); err != nil {
						return err
					}
					fmt.Fprintf(e.out, "Saved %s\n", dest)
					return nil
				},
			},
			{
				Name:      "delete",
				ArgsUsage: "<plan-id> <document-id>",
				Action: func(c *cli.Context) error {
					if _, err := e.require(c, domain.CapManagePlans); err != nil {
						return err
					}
					planID, err := objectIDArg(c, 0, "plan id")
					if err != nil {
						return err
					}
					docID, err := objectIDArg(c, 1, "document id")
					if err != nil {
						return err
					}
					if err := e.confirm("Delete this document?"); err != nil {
						return err
					}
					if err := e.api.DeleteDocument(c.Context, planID, docID); err != nil {
						return err
					}
					fmt.Fprintln(e.out, "Document deleted")
					return nil
				},
			},
		},
	}
}
