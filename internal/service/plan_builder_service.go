package service

import (
	"context"
	"errors"
	"etape/training-hub/internal/ai"
	"etape/training-hub/internal/domain"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FromParsedInput assigns a parsed plan to athletes starting on StartDate.
type FromParsedInput struct {
	AthleteIDs []primitive.ObjectID
	StartDate  time.Time
	Plan       domain.ParsedPlan
}

// FromParsedResult lists the plans created, in athlete order.
type FromParsedResult struct {
	Plans []domain.TrainingPlan `json:"plans"`
}

// PartialCreateError reports how far a multi-athlete creation got before failing.
type PartialCreateError struct {
	Created   []primitive.ObjectID // athletes whose plan was created
	AthleteID primitive.ObjectID   // athlete whose plan failed
	Err       error
}

func (e *PartialCreateError) Error() string {
	return fmt.Sprintf("plan creation stopped at athlete %s after %d created: %v", e.AthleteID.Hex(), len(e.Created), e.Err)
}

func (e *PartialCreateError) Unwrap() error { return e.Err }

type PlanBuilderService interface {
	ParseDocument(ctx context.Context, filename string, data []byte) (*domain.ParsedPlan, error)
	CreateFromParsed(ctx context.Context, actor Actor, in FromParsedInput) (*FromParsedResult, error)
}

type planBuilderService struct {
	parser *ai.PlanParser
	plans  TrainingPlanService
}

func NewPlanBuilderService(parser *ai.PlanParser, plans TrainingPlanService) PlanBuilderService {
	return &planBuilderService{parser: parser, plans: plans}
}

func (s *planBuilderService) ParseDocument(ctx context.Context, filename string, data []byte) (*domain.ParsedPlan, error) {
	plan, err := s.parser.Parse(ctx, filename, data)
	switch {
	case errors.Is(err, ai.ErrUnsupportedDocument), errors.Is(err, ai.ErrInsufficientText):
		return nil, InputError(err.Error())
	case err != nil:
		return nil, err
	}
	return plan, nil
}

// CreateFromParsed creates one plan per athlete, in order, stopping at the first failure.
// Each plan goes through CreateBundle, so a failed athlete leaves nothing behind.
func (s *planBuilderService) CreateFromParsed(ctx context.Context, actor Actor, in FromParsedInput) (*FromParsedResult, error) {
	if len(in.AthleteIDs) == 0 {
		return nil, invalid("select at least one athlete")
	}
	if in.StartDate.IsZero() {
		return nil, invalid("startDate is required")
	}
	if strings.TrimSpace(in.Plan.Title) == "" {
		return nil, invalid("plan title is required")
	}
	if err := validateParsedWorkouts(in.Plan.Workouts); err != nil {
		return nil, err
	}

	result := &FromParsedResult{}
	var created []primitive.ObjectID
	for _, athleteID := range in.AthleteIDs {
		bundle := ExpandParsed(in.Plan, athleteID, in.StartDate)
		out, err := s.plans.CreateBundle(ctx, actor, &bundle)
		if err != nil {
			if len(created) == 0 {
				return nil, err
			}
			return result, &PartialCreateError{Created: created, AthleteID: athleteID, Err: err}
		}
		created = append(created, athleteID)
		result.Plans = append(result.Plans, out.Plan)
	}
	return result, nil
}

// maxParsedWeek bounds workout positions in an edited parsed plan.
const maxParsedWeek = 104

// validateParsedWorkouts checks positions the client may have edited after parsing.
func validateParsedWorkouts(workouts []domain.ParsedWorkout) error {
	for i, w := range workouts {
		if w.DayOfWeek < 0 || w.DayOfWeek > 6 {
			return invalid("workout %d: dayOfWeek must be between 0 and 6", i)
		}
		if w.Week < 1 || w.Week > maxParsedWeek {
			return invalid("workout %d: week must be between 1 and %d", i, maxParsedWeek)
		}
	}
	return nil
}

// ExpandParsed turns a parsed plan into a concrete bundle for one athlete.
// Workouts land on start + (week-1)*7 + dayOfWeek; guidance becomes nutrition entries.
// The plan is stretched to the latest workout week when durationWeeks is short.
func ExpandParsed(p domain.ParsedPlan, athleteID primitive.ObjectID, start time.Time) domain.PlanBundle {
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	weeks := p.DurationWeeks
	if weeks < 1 {
		weeks = 1
	}
	for _, w := range p.Workouts {
		if w.Week > weeks {
			weeks = w.Week
		}
	}
	end := start.AddDate(0, 0, weeks*7-1)

	bundle := domain.PlanBundle{
		Plan: domain.TrainingPlan{
			AthleteID:   athleteID,
			Title:       p.Title,
			Description: p.Description,
			StartDate:   &start,
			EndDate:     &end,
		},
	}
	for _, w := range p.Workouts {
		week := w.Week
		if week < 1 {
			week = 1
		}
		bundle.Workouts = append(bundle.Workouts, domain.PlannedWorkout{
			Title:           w.Title,
			WorkoutType:     w.WorkoutType,
			ScheduledDate:   domain.ScheduledDate(start, week, w.DayOfWeek),
			DurationMinutes: w.DurationMinutes,
			Description:     w.Description,
			Intensity:       w.Intensity,
			Exercises:       w.Exercises,
		})
	}
	for _, g := range p.Goals {
		goalType := g.GoalType
		if goalType == "" {
			goalType = "other"
		}
		bundle.Goals = append(bundle.Goals, domain.PlannedGoal{
			Title:       g.Title,
			GoalType:    goalType,
			TargetValue: g.TargetValue,
			Unit:        g.Unit,
			TargetDate:  &end,
		})
	}
	for _, n := range p.NutritionGuidance {
		desc := n.Recommendation
		if desc == "" {
			desc = n.Details
		}
		category := n.Category
		if category == "" {
			category = "general"
		}
		bundle.Nutrition = append(bundle.Nutrition, domain.NutritionPlan{
			MealType:    category,
			Description: desc,
			Notes:       n.Details,
		})
	}
	return bundle
}
