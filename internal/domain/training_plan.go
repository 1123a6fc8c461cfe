package domain

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TrainingPlan is authored by a trainer for exactly one athlete.
type TrainingPlan struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TrainerID   primitive.ObjectID `bson:"trainerId" json:"trainerId"` // Who created the plan
	AthleteID   primitive.ObjectID `bson:"athleteId" json:"athleteId"` // Who the plan is for
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	StartDate   *time.Time         `bson:"startDate,omitempty" json:"startDate,omitempty"`
	EndDate     *time.Time         `bson:"endDate,omitempty" json:"endDate,omitempty"`
	IsActive    bool               `bson:"isActive" json:"isActive"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// PlannedWorkout is a scheduled session inside a plan.
type PlannedWorkout struct {
	PlanItem        `bson:",inline"`
	Title           string     `bson:"title" json:"title"`
	WorkoutType     string     `bson:"workoutType" json:"workoutType"`
	ScheduledDate   time.Time  `bson:"scheduledDate" json:"scheduledDate"`
	DurationMinutes *int       `bson:"durationMinutes,omitempty" json:"durationMinutes,omitempty"`
	Description     string     `bson:"description,omitempty" json:"description,omitempty"`
	Intensity       string     `bson:"intensity,omitempty" json:"intensity,omitempty"`
	Exercises       []Exercise `bson:"exercises,omitempty" json:"exercises,omitempty"`
	IsCompleted     bool       `bson:"isCompleted" json:"isCompleted"`
	CompletedAt     *time.Time `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
}

// Exercise is one movement prescribed inside a planned workout.
type Exercise struct {
	Name            string `bson:"name" json:"name"`
	Sets            *int   `bson:"sets,omitempty" json:"sets,omitempty"`
	Reps            string `bson:"reps,omitempty" json:"reps,omitempty"`
	DurationMinutes *int   `bson:"durationMinutes,omitempty" json:"durationMinutes,omitempty"`
	Notes           string `bson:"notes,omitempty" json:"notes,omitempty"`
}

func (w *PlannedWorkout) Validate() error {
	if w.Title == "" || w.WorkoutType == "" {
		return errors.New("workout title and type are required")
	}
	if w.ScheduledDate.IsZero() {
		return errors.New("workout scheduled date is required")
	}
	return nil
}

// SetCompleted toggles completion and keeps CompletedAt consistent with it.
func (w *PlannedWorkout) SetCompleted(done bool, at time.Time) {
	w.IsCompleted = done
	if done {
		w.CompletedAt = &at
	} else {
		w.CompletedAt = nil
	}
}

// PlannedGoal is a target the trainer sets inside a plan.
type PlannedGoal struct {
	PlanItem     `bson:",inline"`
	Title        string     `bson:"title" json:"title"`
	GoalType     string     `bson:"goalType" json:"goalType"`
	Description  string     `bson:"description,omitempty" json:"description,omitempty"`
	TargetValue  *float64   `bson:"targetValue,omitempty" json:"targetValue,omitempty"`
	CurrentValue *float64   `bson:"currentValue,omitempty" json:"currentValue,omitempty"`
	Unit         string     `bson:"unit,omitempty" json:"unit,omitempty"`
	TargetDate   *time.Time `bson:"targetDate,omitempty" json:"targetDate,omitempty"`
	IsAchieved   bool       `bson:"isAchieved" json:"isAchieved"`
}

func (g *PlannedGoal) Validate() error {
	if g.Title == "" || g.GoalType == "" {
		return errors.New("goal title and type are required")
	}
	return nil
}

// NutritionPlan is a guideline attached to a plan for one weekday.
type NutritionPlan struct {
	PlanItem    `bson:",inline"`
	DayOfWeek   string   `bson:"dayOfWeek,omitempty" json:"dayOfWeek,omitempty"`
	MealType    string   `bson:"mealType" json:"mealType"`
	Description string   `bson:"description" json:"description"`
	Calories    *int     `bson:"calories,omitempty" json:"calories,omitempty"`
	ProteinG    *float64 `bson:"proteinG,omitempty" json:"proteinG,omitempty"`
	CarbsG      *float64 `bson:"carbsG,omitempty" json:"carbsG,omitempty"`
	FatG        *float64 `bson:"fatG,omitempty" json:"fatG,omitempty"`
	Notes       string   `bson:"notes,omitempty" json:"notes,omitempty"`
}

func (n *NutritionPlan) Validate() error {
	if n.MealType == "" || n.Description == "" {
		return errors.New("nutrition meal type and description are required")
	}
	return nil
}

// TrainingDocument stores metadata about a file attached to a plan.
// The file itself lives in object storage.
type TrainingDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PlanID      primitive.ObjectID `bson:"planId" json:"planId"`
	UploadedBy  primitive.ObjectID `bson:"uploadedBy" json:"uploadedBy"`
	Filename    string             `bson:"filename" json:"filename"`
	ObjectKey   string             `bson:"objectKey" json:"-"`
	FileType    string             `bson:"fileType" json:"fileType"`
	ContentType string             `bson:"contentType" json:"contentType"`
	Size        int64              `bson:"size" json:"size"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	UploadedAt  time.Time          `bson:"uploadedAt" json:"uploadedAt"`
}

// PlanBundle is a plan together with its children, created in one call.
type PlanBundle struct {
	Plan      TrainingPlan     `json:"plan"`
	Workouts  []PlannedWorkout `json:"workouts"`
	Goals     []PlannedGoal    `json:"goals"`
	Nutrition []NutritionPlan  `json:"nutrition"`
}

// Weekdays indexes day names from Monday, matching dayOfWeek 0..6.
var Weekdays = [7]string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// ScheduledDate places a template workout: week is 1-based, day counts from Monday (0).
func ScheduledDate(start time.Time, week, day int) time.Time {
	return start.AddDate(0, 0, (week-1)*7+day)
}
