package client

import (
	"context"
	"etape/training-hub/internal/domain"
	"net/http"
	"net/url"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SearchTrainers returns matching trainers. No match is an empty slice, not an error.
func (c *Client) SearchTrainers(ctx context.Context, query string, page Page) ([]User, error) {
	q := url.Values{}
	if query != "" {
		q.Set("q", query)
	}
	var out []User
	if err := c.do(ctx, http.MethodGet, "/trainer-requests/trainers/search", page.apply(q), nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []User{}
	}
	return out, nil
}

func (c *Client) SendTrainerRequest(ctx context.Context, trainerID primitive.ObjectID, message string) (*domain.TrainerRequest, error) {
	in := map[string]string{"trainerId": trainerID.Hex(), "message": message}
	var out domain.TrainerRequest
	if err := c.do(ctx, http.MethodPost, "/trainer-requests", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TrainerRequests lists requests received (trainers) or sent (athletes).
func (c *Client) TrainerRequests(ctx context.Context) ([]domain.TrainerRequest, error) {
	var out []domain.TrainerRequest
	if err := c.do(ctx, http.MethodGet, "/trainer-requests", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) RespondToRequest(ctx context.Context, requestID primitive.ObjectID, approve bool) (*domain.TrainerRequest, error) {
	var out domain.TrainerRequest
	path := idPath("/trainer-requests/%s/respond", requestID)
	if err := c.do(ctx, http.MethodPut, path, nil, map[string]bool{"approve": approve}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Assignments(ctx context.Context) ([]domain.TrainerAssignment, error) {
	var out []domain.TrainerAssignment
	if err := c.do(ctx, http.MethodGet, "/trainer-requests/assignments", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MyAthletes lists the athletes actively assigned to the calling trainer.
func (c *Client) MyAthletes(ctx context.Context) ([]User, error) {
	var out []User
	if err := c.do(ctx, http.MethodGet, "/trainer-requests/my-athletes", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeleteAssignment(ctx context.Context, assignmentID primitive.ObjectID) error {
	return c.do(ctx, http.MethodDelete, idPath("/trainer-requests/assignments/%s", assignmentID), nil, nil, nil)
}
