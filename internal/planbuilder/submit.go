package planbuilder

import (
	"context"
	"etape/training-hub/internal/client"
	"etape/training-hub/internal/domain"
	"fmt"
	"log"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// API is what Submit needs from the server.
type API interface {
	CreatePlan(ctx context.Context, in client.PlanInput) (*client.Plan, error)
	DeletePlan(ctx context.Context, planID primitive.ObjectID) error
	AddWorkout(ctx context.Context, planID primitive.ObjectID, w *domain.PlannedWorkout) error
	AddNutrition(ctx context.Context, planID primitive.ObjectID, n *domain.NutritionPlan) error
}

// ClientAPI adapts the REST client to API.
type ClientAPI struct {
	*client.Client
}

func (a ClientAPI) AddWorkout(ctx context.Context, planID primitive.ObjectID, w *domain.PlannedWorkout) error {
	_, err := a.PlanWorkouts(planID).Create(ctx, w)
	return err
}

func (a ClientAPI) AddNutrition(ctx context.Context, planID primitive.ObjectID, n *domain.NutritionPlan) error {
	_, err := a.PlanNutrition(planID).Create(ctx, n)
	return err
}

// Result lists the athletes whose plan was fully created, in submission order.
type Result struct {
	Created []primitive.ObjectID
	PlanIDs []primitive.ObjectID
}

// SubmitError reports the athlete where submission stopped. Athletes after it were not attempted.
type SubmitError struct {
	AthleteID primitive.ObjectID
	Completed []primitive.ObjectID
	// RolledBack is false when the partial plan could not be deleted and still exists.
	RolledBack bool
	Err        error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("creating plan for athlete %s (after %d completed): %v", e.AthleteID.Hex(), len(e.Completed), e.Err)
}

func (e *SubmitError) Unwrap() error { return e.Err }

// Submit validates the template, then creates each athlete's plan in order.
// The first failure stops the loop; that athlete's partial plan is deleted.
func Submit(ctx context.Context, api API, t *Template) (*Result, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	res := &Result{}
	for _, athleteID := range t.AthleteIDs {
		planID, rolledBack, err := createOne(ctx, api, t.Expand(athleteID))
		if err != nil {
			return res, &SubmitError{
				AthleteID:  athleteID,
				Completed:  append([]primitive.ObjectID(nil), res.Created...),
				RolledBack: rolledBack,
				Err:        err,
			}
		}
		res.Created = append(res.Created, athleteID)
		res.PlanIDs = append(res.PlanIDs, planID)
	}
	return res, nil
}

// createOne creates a plan and its children. On a child failure it deletes the plan.
func createOne(ctx context.Context, api API, e Expansion) (planID primitive.ObjectID, rolledBack bool, err error) {
	plan, err := api.CreatePlan(ctx, e.Plan)
	if err != nil {
		return primitive.NilObjectID, true, err
	}

	fail := func(err error) (primitive.ObjectID, bool, error) {
		// The caller's context may be what failed; the cleanup still needs to run.
		if delErr := api.DeletePlan(context.WithoutCancel(ctx), plan.ID); delErr != nil {
			log.Printf("ERROR: Could not remove partial plan %s: %v", plan.ID.Hex(), delErr)
			return plan.ID, false, err
		}
		return plan.ID, true, err
	}

	for i := range e.Workouts {
		if err := api.AddWorkout(ctx, plan.ID, &e.Workouts[i]); err != nil {
			return fail(fmt.Errorf("workout %d of %d: %w", i+1, len(e.Workouts), err))
		}
	}
	for i := range e.Nutrition {
		if err := api.AddNutrition(ctx, plan.ID, &e.Nutrition[i]); err != nil {
			return fail(fmt.Errorf("nutrition %d of %d: %w", i+1, len(e.Nutrition), err))
		}
	}
	return plan.ID, false, nil
}
