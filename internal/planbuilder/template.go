// Package planbuilder turns a weekly plan template into concrete plans for one or more athletes.
package planbuilder

import (
	"errors"
	"etape/training-hub/internal/client"
	"etape/training-hub/internal/domain"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrTitleRequired     = errors.New("plan title is required")
	ErrNoAthletes        = errors.New("select at least one athlete")
	ErrStartDateRequired = errors.New("start date is required")
	ErrInvalidDuration   = errors.New("duration must be at least one week")
	ErrInvalidWeekday    = errors.New("day of week must be between 0 (Monday) and 6 (Sunday)")
	ErrWorkoutType       = errors.New("workout type is required")
	ErrNutritionFields   = errors.New("meal type and recommendation are required")
)

// WorkoutTemplate repeats every week on DayOfWeek (0 is Monday).
type WorkoutTemplate struct {
	DayOfWeek       int    `json:"dayOfWeek"`
	WorkoutType     string `json:"workoutType"`
	DurationMinutes int    `json:"durationMinutes,omitempty"`
	Intensity       string `json:"intensity,omitempty"`
	Title           string `json:"title,omitempty"`
	Description     string `json:"description,omitempty"`
}

// NutritionTemplate is attached once per plan, on its weekday.
type NutritionTemplate struct {
	DayOfWeek      int    `json:"dayOfWeek"`
	MealType       string `json:"mealType"`
	Recommendation string `json:"recommendation"`
}

type Template struct {
	Title         string
	Description   string
	StartDate     time.Time
	DurationWeeks int
	// WeeklyStructure tags each weekday with a focus for display only.
	WeeklyStructure [7]string
	Workouts        []WorkoutTemplate
	Nutrition       []NutritionTemplate
	AthleteIDs      []primitive.ObjectID
}

// Validate checks the template before anything is sent.
func (t *Template) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrTitleRequired
	}
	if len(t.AthleteIDs) == 0 {
		return ErrNoAthletes
	}
	if t.StartDate.IsZero() {
		return ErrStartDateRequired
	}
	if t.DurationWeeks < 1 {
		return ErrInvalidDuration
	}
	for i, w := range t.Workouts {
		if !validWeekday(w.DayOfWeek) {
			return fmt.Errorf("workout %d: %w", i+1, ErrInvalidWeekday)
		}
		if strings.TrimSpace(w.WorkoutType) == "" {
			return fmt.Errorf("workout %d: %w", i+1, ErrWorkoutType)
		}
	}
	for i, n := range t.Nutrition {
		if !validWeekday(n.DayOfWeek) {
			return fmt.Errorf("nutrition %d: %w", i+1, ErrInvalidWeekday)
		}
		if strings.TrimSpace(n.MealType) == "" || strings.TrimSpace(n.Recommendation) == "" {
			return fmt.Errorf("nutrition %d: %w", i+1, ErrNutritionFields)
		}
	}
	return nil
}

func validWeekday(d int) bool { return d >= 0 && d <= 6 }

// Expansion is everything created for one athlete.
type Expansion struct {
	Plan      client.PlanInput
	Workouts  []domain.PlannedWorkout
	Nutrition []domain.NutritionPlan
}

// Expand lays the template out for one athlete. Workouts repeat every week on
// start + (week-1)*7 + dayOfWeek; nutrition entries appear once. It has no side effects.
func (t *Template) Expand(athleteID primitive.ObjectID) Expansion {
	start := midnightUTC(t.StartDate)
	end := start.AddDate(0, 0, t.DurationWeeks*7-1)

	e := Expansion{
		Plan: client.PlanInput{
			AthleteID:   athleteID,
			Title:       t.Title,
			Description: t.Description,
			StartDate:   &start,
			EndDate:     &end,
		},
		Workouts:  make([]domain.PlannedWorkout, 0, t.DurationWeeks*len(t.Workouts)),
		Nutrition: make([]domain.NutritionPlan, 0, len(t.Nutrition)),
	}
	for week := 1; week <= t.DurationWeeks; week++ {
		for _, w := range t.Workouts {
			pw := domain.PlannedWorkout{
				Title:         workoutTitle(w, week),
				WorkoutType:   w.WorkoutType,
				ScheduledDate: domain.ScheduledDate(start, week, w.DayOfWeek),
				Description:   w.Description,
				Intensity:     w.Intensity,
			}
			if w.DurationMinutes > 0 {
				d := w.DurationMinutes
				pw.DurationMinutes = &d
			}
			e.Workouts = append(e.Workouts, pw)
		}
	}
	for _, n := range t.Nutrition {
		e.Nutrition = append(e.Nutrition, domain.NutritionPlan{
			DayOfWeek:   domain.Weekdays[n.DayOfWeek],
			MealType:    n.MealType,
			Description: n.Recommendation,
		})
	}
	return e
}

func workoutTitle(w WorkoutTemplate, week int) string {
	if w.Title != "" {
		return w.Title
	}
	kind := w.WorkoutType
	if kind != "" {
		kind = strings.ToUpper(kind[:1]) + kind[1:]
	}
	return fmt.Sprintf("%s - week %d", kind, week)
}

func midnightUTC(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
