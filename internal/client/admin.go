package client

import (
	"context"
	"etape/training-hub/internal/domain"
	"net/http"
	"net/url"
	"strconv"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Stats struct {
	TotalUsers        int64 `json:"totalUsers"`
	Athletes          int64 `json:"athletes"`
	Trainers          int64 `json:"trainers"`
	Admins            int64 `json:"admins"`
	ActiveAssignments int64 `json:"activeAssignments"`
	TrainingPlans     int64 `json:"trainingPlans"`
	Rides             int64 `json:"rides"`
	Workouts          int64 `json:"workouts"`
	Goals             int64 `json:"goals"`
}

type InviteInput struct {
	Email         string      `json:"email,omitempty"`
	Role          domain.Role `json:"role,omitempty"`
	ExpiresInDays int         `json:"expiresInDays,omitempty"`
}

// Users lists users, optionally only those with role.
func (c *Client) Users(ctx context.Context, role domain.Role, page Page) ([]User, error) {
	q := url.Values{}
	if role != "" {
		q.Set("role", string(role))
	}
	var out []User
	if err := c.do(ctx, http.MethodGet, "/admin/users", page.apply(q), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) User(ctx context.Context, userID primitive.ObjectID) (*User, error) {
	var out User
	if err := c.do(ctx, http.MethodGet, idPath("/admin/users/%s", userID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ChangeRole(ctx context.Context, userID primitive.ObjectID, role domain.Role) (*User, error) {
	var out User
	if err := c.do(ctx, http.MethodPut, idPath("/admin/users/%s/role", userID), nil, map[string]domain.Role{"role": role}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetLocked locks or unlocks an account. Repeating the same value is harmless.
func (c *Client) SetLocked(ctx context.Context, userID primitive.ObjectID, locked bool) (*User, error) {
	var out User
	if err := c.do(ctx, http.MethodPut, idPath("/admin/users/%s/lock", userID), nil, map[string]bool{"locked": locked}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteUser(ctx context.Context, userID primitive.ObjectID) error {
	return c.do(ctx, http.MethodDelete, idPath("/admin/users/%s", userID), nil, nil, nil)
}

func (c *Client) AdminAssignments(ctx context.Context, activeOnly bool) ([]domain.TrainerAssignment, error) {
	q := url.Values{"activeOnly": {strconv.FormatBool(activeOnly)}}
	var out []domain.TrainerAssignment
	if err := c.do(ctx, http.MethodGet, "/admin/assignments", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateAssignment(ctx context.Context, trainerID, athleteID primitive.ObjectID, notes string) (*domain.TrainerAssignment, error) {
	in := map[string]string{"trainerId": trainerID.Hex(), "athleteId": athleteID.Hex(), "notes": notes}
	var out domain.TrainerAssignment
	if err := c.do(ctx, http.MethodPost, "/admin/assignments", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeactivateAssignment(ctx context.Context, assignmentID primitive.ObjectID) error {
	return c.do(ctx, http.MethodDelete, idPath("/admin/assignments/%s", assignmentID), nil, nil, nil)
}

func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var out Stats
	if err := c.do(ctx, http.MethodGet, "/admin/stats", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateInvite(ctx context.Context, in InviteInput) (*domain.InviteToken, error) {
	var out domain.InviteToken
	if err := c.do(ctx, http.MethodPost, "/admin/invites", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Invites(ctx context.Context) ([]domain.InviteToken, error) {
	var out []domain.InviteToken
	if err := c.do(ctx, http.MethodGet, "/admin/invites", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeactivateInvite(ctx context.Context, inviteID primitive.ObjectID) error {
	return c.do(ctx, http.MethodDelete, idPath("/admin/invites/%s", inviteID), nil, nil, nil)
}
