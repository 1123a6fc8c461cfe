package domain

import (
	"errors"
	"time"
)

// Ride is a logged cycling session.
type Ride struct {
	LogEntry        `bson:",inline"`
	Title           string    `bson:"title" json:"title"`
	Description     string    `bson:"description,omitempty" json:"description,omitempty"`
	DistanceKm      float64   `bson:"distanceKm" json:"distanceKm"`
	DurationMinutes int       `bson:"durationMinutes" json:"durationMinutes"`
	ElevationGainM  *float64  `bson:"elevationGainM,omitempty" json:"elevationGainM,omitempty"`
	AvgSpeedKmh     *float64  `bson:"avgSpeedKmh,omitempty" json:"avgSpeedKmh,omitempty"`
	MaxSpeedKmh     *float64  `bson:"maxSpeedKmh,omitempty" json:"maxSpeedKmh,omitempty"`
	AvgPowerWatts   *int      `bson:"avgPowerWatts,omitempty" json:"avgPowerWatts,omitempty"`
	AvgHeartRate    *int      `bson:"avgHeartRate,omitempty" json:"avgHeartRate,omitempty"`
	MaxHeartRate    *int      `bson:"maxHeartRate,omitempty" json:"maxHeartRate,omitempty"`
	AvgCadence      *int      `bson:"avgCadence,omitempty" json:"avgCadence,omitempty"`
	RideDate        time.Time `bson:"rideDate" json:"rideDate"`
	RouteName       string    `bson:"routeName,omitempty" json:"routeName,omitempty"`
	RideType        string    `bson:"rideType,omitempty" json:"rideType,omitempty"` // training, recovery, race...
}

func (r *Ride) Validate() error {
	if r.Title == "" {
		return errors.New("ride title is required")
	}
	if r.DistanceKm < 0 || r.DurationMinutes <= 0 {
		return errors.New("ride distance must be non-negative and duration positive")
	}
	if r.RideDate.IsZero() {
		return errors.New("ride date is required")
	}
	return nil
}

// Workout is a logged non-cycling session (strength, yoga...).
type Workout struct {
	LogEntry        `bson:",inline"`
	Title           string    `bson:"title" json:"title"`
	Description     string    `bson:"description,omitempty" json:"description,omitempty"`
	WorkoutType     string    `bson:"workoutType" json:"workoutType"`
	DurationMinutes int       `bson:"durationMinutes" json:"durationMinutes"`
	Intensity       string    `bson:"intensity,omitempty" json:"intensity,omitempty"`
	Notes           string    `bson:"notes,omitempty" json:"notes,omitempty"`
	WorkoutDate     time.Time `bson:"workoutDate" json:"workoutDate"`
}

func (w *Workout) Validate() error {
	if w.Title == "" || w.WorkoutType == "" {
		return errors.New("workout title and type are required")
	}
	if w.DurationMinutes <= 0 {
		return errors.New("workout duration must be positive")
	}
	if w.WorkoutDate.IsZero() {
		return errors.New("workout date is required")
	}
	return nil
}

// Goal is a personal target an athlete tracks.
type Goal struct {
	LogEntry      `bson:",inline"`
	Title         string     `bson:"title" json:"title"`
	Description   string     `bson:"description,omitempty" json:"description,omitempty"`
	GoalType      string     `bson:"goalType" json:"goalType"` // distance, time, event, power, weight
	TargetValue   *float64   `bson:"targetValue,omitempty" json:"targetValue,omitempty"`
	CurrentValue  *float64   `bson:"currentValue,omitempty" json:"currentValue,omitempty"`
	Unit          string     `bson:"unit,omitempty" json:"unit,omitempty"`
	TargetDate    *time.Time `bson:"targetDate,omitempty" json:"targetDate,omitempty"`
	IsCompleted   bool       `bson:"isCompleted" json:"isCompleted"`
	CompletedDate *time.Time `bson:"completedDate,omitempty" json:"completedDate,omitempty"`
}

func (g *Goal) Validate() error {
	if g.Title == "" || g.GoalType == "" {
		return errors.New("goal title and type are required")
	}
	return nil
}

// NutritionLog is one logged meal or intake entry.
type NutritionLog struct {
	LogEntry    `bson:",inline"`
	MealType    string    `bson:"mealType,omitempty" json:"mealType,omitempty"` // breakfast, lunch, dinner, snack
	Calories    *int      `bson:"calories,omitempty" json:"calories,omitempty"`
	ProteinG    *float64  `bson:"proteinG,omitempty" json:"proteinG,omitempty"`
	CarbsG      *float64  `bson:"carbsG,omitempty" json:"carbsG,omitempty"`
	FatG        *float64  `bson:"fatG,omitempty" json:"fatG,omitempty"`
	WaterMl     *int      `bson:"waterMl,omitempty" json:"waterMl,omitempty"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	Notes       string    `bson:"notes,omitempty" json:"notes,omitempty"`
	LogDate     time.Time `bson:"logDate" json:"logDate"`
}

func (n *NutritionLog) Validate() error {
	if n.LogDate.IsZero() {
		return errors.New("nutrition log date is required")
	}
	return nil
}
