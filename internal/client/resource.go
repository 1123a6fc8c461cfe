package client

import (
	"context"
	"etape/training-hub/internal/domain"
	"net/http"
	"net/url"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Resource is CRUD over one collection endpoint such as /rides or /training-plans/{id}/workouts.
type Resource[T any] struct {
	c    *Client
	path string
}

// List returns the records visible to the caller. Query adds filters such as userId.
func (r Resource[T]) List(ctx context.Context, query url.Values, page Page) ([]T, error) {
	var out []T
	if err := r.c.do(ctx, http.MethodGet, r.path, page.apply(query), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r Resource[T]) Get(ctx context.Context, id primitive.ObjectID) (*T, error) {
	var out T
	if err := r.c.do(ctx, http.MethodGet, r.path+"/"+id.Hex(), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r Resource[T]) Create(ctx context.Context, doc *T) (*T, error) {
	var out T
	if err := r.c.do(ctx, http.MethodPost, r.path, nil, doc, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update sends only the given fields.
func (r Resource[T]) Update(ctx context.Context, id primitive.ObjectID, fields map[string]any) (*T, error) {
	var out T
	if err := r.c.do(ctx, http.MethodPut, r.path+"/"+id.Hex(), nil, fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r Resource[T]) Delete(ctx context.Context, id primitive.ObjectID) error {
	return r.c.do(ctx, http.MethodDelete, r.path+"/"+id.Hex(), nil, nil, nil)
}

// --- Activity logs ---

func (c *Client) Rides() Resource[domain.Ride] {
	return Resource[domain.Ride]{c, "/rides"}
}

func (c *Client) Workouts() Resource[domain.Workout] {
	return Resource[domain.Workout]{c, "/workouts"}
}

func (c *Client) Goals() Resource[domain.Goal] {
	return Resource[domain.Goal]{c, "/goals"}
}

func (c *Client) Nutrition() Resource[domain.NutritionLog] {
	return Resource[domain.NutritionLog]{c, "/nutrition"}
}

// --- Plan children ---

func (c *Client) PlanWorkouts(planID primitive.ObjectID) Resource[domain.PlannedWorkout] {
	return Resource[domain.PlannedWorkout]{c, idPath("/training-plans/%s/workouts", planID)}
}

func (c *Client) PlanGoals(planID primitive.ObjectID) Resource[domain.PlannedGoal] {
	return Resource[domain.PlannedGoal]{c, idPath("/training-plans/%s/goals", planID)}
}

func (c *Client) PlanNutrition(planID primitive.ObjectID) Resource[domain.NutritionPlan] {
	return Resource[domain.NutritionPlan]{c, idPath("/training-plans/%s/nutrition", planID)}
}
