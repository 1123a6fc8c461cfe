package main

import (
	"bufio"
	"errors"
	"etape/training-hub/internal/client"
	"etape/training-hub/internal/domain"
	"etape/training-hub/internal/session"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// env is shared by every command. setup fills it before any action runs.
type env struct {
	in  *bufio.Reader
	out io.Writer

	api     *client.Client
	store   session.TokenStore
	session *session.Session
	yes     bool
}

func newEnv(in io.Reader, out io.Writer) *env {
	return &env{in: bufio.NewReader(in), out: out}
}

func (e *env) setup(c *cli.Context) error {
	path := c.Path("token-file")
	if path == "" {
		p, err := session.DefaultTokenPath()
		if err != nil {
			return err
		}
		path = p
	}
	e.store = session.NewFileStore(path)
	e.api = client.New(c.String("api-url"), client.WithTokenSource(e.store))
	e.session = session.New(e.api, e.store)
	e.yes = c.Bool("yes")
	return nil
}

// user restores the session from the stored token.
func (e *env) user(c *cli.Context) (*client.User, error) {
	if err := e.session.Init(c.Context); err != nil {
		return nil, fmt.Errorf("%w (%v); run `etape login`", session.ErrNotAuthenticated, err)
	}
	u, err := e.session.RequireUser()
	if err != nil {
		return nil, fmt.Errorf("%w; run `etape login`", err)
	}
	return u, nil
}

// require is user plus a role check, so a forbidden action fails before any request.
func (e *env) require(c *cli.Context, capability domain.Capability) (*client.User, error) {
	u, err := e.user(c)
	if err != nil {
		return nil, err
	}
	if !u.Role.Can(capability) {
		return nil, fmt.Errorf("your %s account cannot do this", u.Role)
	}
	return u, nil
}

var errCancelled = errors.New("cancelled")

// confirm asks before destructive actions unless --yes was given.
func (e *env) confirm(prompt string) error {
	if e.yes {
		return nil
	}
	fmt.Fprintf(e.out, "%s [y/N]: ", prompt)
	answer, err := e.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return nil
	}
	return errCancelled
}

func (e *env) prompt(label string) (string, error) {
	fmt.Fprintf(e.out, "%s: ", label)
	line, err := e.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (e *env) table(header ...string) *tabwriter.Writer {
	w := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(header, "\t"))
	return w
}

// --- Argument helpers ---

func objectIDArg(c *cli.Context, i int, name string) (primitive.ObjectID, error) {
	raw := c.Args().Get(i)
	if raw == "" {
		return primitive.NilObjectID, fmt.Errorf("missing %s argument", name)
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}

func objectIDs(raw []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(raw))
	for _, r := range raw {
		for _, part := range strings.Split(r, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := primitive.ObjectIDFromHex(part)
			if err != nil {
				return nil, fmt.Errorf("invalid id %q", part)
			}
			out = append(out, id)
		}
	}
	return out, nil
}

func parseDate(raw string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", raw)
	}
	return t, nil
}

func pageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.Int64Flag{Name: "skip", Usage: "records to skip"},
		&cli.Int64Flag{Name: "limit", Value: 50, Usage: "records to return (server caps at 500)"},
	}
}

func page(c *cli.Context) client.Page {
	return client.Page{Skip: c.Int64("skip"), Limit: c.Int64("limit")}
}

func day(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.DateOnly)
}

func dayPtr(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return day(*t)
}
