package domain

// ParsedPlan is the structure the AI plan parser extracts from a document.
// Week is 1-based and DayOfWeek counts from Monday (0) to Sunday (6).
type ParsedPlan struct {
	Title             string            `json:"title"`
	Description       string            `json:"description"`
	DurationWeeks     int               `json:"durationWeeks"`
	WeeklyStructure   []ParsedWeek      `json:"weeklyStructure"`
	Workouts          []ParsedWorkout   `json:"workouts"`
	NutritionGuidance []ParsedNutrition `json:"nutritionGuidance"`
	Goals             []ParsedGoal      `json:"goals"`
}

type ParsedWeek struct {
	Week  int    `json:"week"`
	Theme string `json:"theme"`
	Focus string `json:"focus"`
}

type ParsedWorkout struct {
	Title           string     `json:"title"`
	WorkoutType     string     `json:"workoutType"`
	DayOfWeek       int        `json:"dayOfWeek"`
	Week            int        `json:"week"`
	DurationMinutes *int       `json:"durationMinutes,omitempty"`
	Intensity       string     `json:"intensity"`
	Description     string     `json:"description"`
	Exercises       []Exercise `json:"exercises,omitempty"`
}

type ParsedNutrition struct {
	Category       string `json:"category"`
	Recommendation string `json:"recommendation"`
	Details        string `json:"details"`
}

type ParsedGoal struct {
	Title       string   `json:"title"`
	GoalType    string   `json:"goalType"`
	TargetValue *float64 `json:"targetValue,omitempty"`
	Unit        string   `json:"unit"`
}
