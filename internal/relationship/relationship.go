// Package relationship derives how the signed-in athlete stands with each trainer
// and drives the request workflow from the client side.
package relationship

import (
	"context"
	"errors"
	"etape/training-hub/internal/client"
	"etape/training-hub/internal/domain"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

// Status is the athlete's standing with one trainer.
type Status string

const (
	StatusNone      Status = "none"
	StatusPending   Status = "pending"
	StatusConnected Status = "connected"
)

var (
	ErrAlreadyPending   = errors.New("a request to this trainer is already pending")
	ErrAlreadyConnected = errors.New("already connected to this trainer")
)

// StatusFor derives the standing from lists already loaded. An active
// assignment wins over a pending request.
func StatusFor(trainerID primitive.ObjectID, requests []domain.TrainerRequest, assignments []domain.TrainerAssignment) Status {
	if IsAssigned(trainerID, assignments) {
		return StatusConnected
	}
	for i := range requests {
		if requests[i].TrainerID == trainerID && requests[i].IsPending() {
			return StatusPending
		}
	}
	return StatusNone
}

// IsAssigned reports whether an active assignment with trainerID exists.
func IsAssigned(trainerID primitive.ObjectID, assignments []domain.TrainerAssignment) bool {
	for i := range assignments {
		if assignments[i].TrainerID == trainerID && assignments[i].IsActive {
			return true
		}
	}
	return false
}

// API is the part of the REST client the workflow uses.
type API interface {
	SearchTrainers(ctx context.Context, query string, page client.Page) ([]client.User, error)
	SendTrainerRequest(ctx context.Context, trainerID primitive.ObjectID, message string) (*domain.TrainerRequest, error)
	TrainerRequests(ctx context.Context) ([]domain.TrainerRequest, error)
	RespondToRequest(ctx context.Context, requestID primitive.ObjectID, approve bool) (*domain.TrainerRequest, error)
	Assignments(ctx context.Context) ([]domain.TrainerAssignment, error)
	DeleteAssignment(ctx context.Context, assignmentID primitive.ObjectID) error
}

// Candidate is a search result with the caller's standing towards it.
type Candidate struct {
	client.User
	Status Status
}

// Workflow keeps the caller's requests and assignments and refetches them after every change.
type Workflow struct {
	api API

	mu          sync.RWMutex
	requests    []domain.TrainerRequest
	assignments []domain.TrainerAssignment
}

func NewWorkflow(api API) *Workflow {
	return &Workflow{api: api}
}

// Refresh loads requests and assignments in parallel.
func (w *Workflow) Refresh(ctx context.Context) error {
	var (
		requests    []domain.TrainerRequest
		assignments []domain.TrainerAssignment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		requests, err = w.api.TrainerRequests(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		assignments, err = w.api.Assignments(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.requests, w.assignments = requests, assignments
	return nil
}

func (w *Workflow) Requests() []domain.TrainerRequest {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]domain.TrainerRequest(nil), w.requests...)
}

func (w *Workflow) Assignments() []domain.TrainerAssignment {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]domain.TrainerAssignment(nil), w.assignments...)
}

func (w *Workflow) Status(trainerID primitive.ObjectID) Status {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return StatusFor(trainerID, w.requests, w.assignments)
}

func (w *Workflow) IsAssigned(trainerID primitive.ObjectID) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return IsAssigned(trainerID, w.assignments)
}

// SearchTrainers returns candidates annotated with the caller's standing.
// No match is an empty slice and a nil error.
func (w *Workflow) SearchTrainers(ctx context.Context, query string, page client.Page) ([]Candidate, error) {
	trainers, err := w.api.SearchTrainers(ctx, query, page)
	if err != nil {
		return nil, err
	}
	out := make([]Candidate, 0, len(trainers))
	for _, t := range trainers {
		out = append(out, Candidate{User: t, Status: w.Status(t.ID)})
	}
	return out, nil
}

// SendRequest refuses locally, without a network call, when the trainer is
// already pending or connected according to the last Refresh.
func (w *Workflow) SendRequest(ctx context.Context, trainerID primitive.ObjectID, message string) (*domain.TrainerRequest, error) {
	switch w.Status(trainerID) {
	case StatusPending:
		return nil, ErrAlreadyPending
	case StatusConnected:
		return nil, ErrAlreadyConnected
	}
	req, err := w.api.SendTrainerRequest(ctx, trainerID, message)
	if err != nil {
		return nil, err
	}
	return req, w.Refresh(ctx)
}

// Respond approves or rejects a received request. Answering a resolved request fails on the server.
func (w *Workflow) Respond(ctx context.Context, requestID primitive.ObjectID, approve bool) (*domain.TrainerRequest, error) {
	req, err := w.api.RespondToRequest(ctx, requestID, approve)
	if err != nil {
		return nil, err
	}
	return req, w.Refresh(ctx)
}

// DeleteAssignment ends a relationship. Existing plans stay; new ones are blocked.
func (w *Workflow) DeleteAssignment(ctx context.Context, assignmentID primitive.ObjectID) error {
	if err := w.api.DeleteAssignment(ctx, assignmentID); err != nil {
		return err
	}
	return w.Refresh(ctx)
}
