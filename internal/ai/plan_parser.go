package ai

import (
	"context"
	"encoding/json"
	"etape/training-hub/internal/domain"
	"fmt"
	"strings"
)

// maxPromptText bounds the document text sent to the model.
const maxPromptText = 60000

const planParserSystem = `You are an expert endurance and strength coach. You convert training plan documents into structured JSON.
Return JSON only, no markdown, no comments.`

const planSchema = `{
  "title": "string",
  "description": "string",
  "durationWeeks": 4,
  "weeklyStructure": [{"week": 1, "theme": "string", "focus": "string"}],
  "workouts": [{
    "title": "string",
    "workoutType": "cycling|running|strength|swimming|yoga|rest|other",
    "dayOfWeek": 0,
    "week": 1,
    "durationMinutes": 60,
    "intensity": "low|medium|high",
    "description": "string",
    "exercises": [{"name": "string", "sets": 3, "reps": "10", "durationMinutes": 5, "notes": "string"}]
  }],
  "nutritionGuidance": [{"category": "string", "recommendation": "string", "details": "string"}],
  "goals": [{"title": "string", "goalType": "string", "targetValue": 0, "unit": "string"}]
}`

// PlanParser turns a training plan document into a ParsedPlan.
type PlanParser struct {
	model Model
}

func NewPlanParser(model Model) *PlanParser {
	return &PlanParser{model: model}
}

// Parse extracts the document's text and asks the model to structure it.
func (p *PlanParser) Parse(ctx context.Context, filename string, data []byte) (*domain.ParsedPlan, error) {
	if !Enabled(p.model) {
		return nil, ErrNotConfigured
	}
	text, err := ExtractText(filename, data)
	if err != nil {
		return nil, err
	}
	return p.ParseText(ctx, text)
}

// ParseText structures already extracted text.
func (p *PlanParser) ParseText(ctx context.Context, text string) (*domain.ParsedPlan, error) {
	if r := []rune(text); len(r) > maxPromptText {
		text = string(r[:maxPromptText])
	}
	prompt := fmt.Sprintf(`Analyze this training plan and return JSON matching exactly this schema:
%s

Rules:
- dayOfWeek is 0 for Monday through 6 for Sunday.
- week is 1-based; list every workout of every week explicitly.
- Use null for unknown numeric values.

Training plan:
%s`, planSchema, text)

	reply, err := p.model.Complete(ctx, Prompt{
		System:    planParserSystem,
		Turns:     []Turn{{Role: "user", Content: prompt}},
		JSON:      true,
		MaxTokens: 8000,
	})
	if err != nil {
		return nil, err
	}

	raw, err := ExtractJSON(reply)
	if err != nil {
		return nil, err
	}
	var plan domain.ParsedPlan
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		return nil, fmt.Errorf("model returned malformed plan JSON: %w", err)
	}
	normalizePlan(&plan)
	return &plan, nil
}

// normalizePlan clamps weekdays and weeks into range and makes DurationWeeks
// cover every listed workout.
func normalizePlan(plan *domain.ParsedPlan) {
	plan.Title = strings.TrimSpace(plan.Title)
	if plan.Title == "" {
		plan.Title = "Imported training plan"
	}
	maxWeek := 1
	for i := range plan.Workouts {
		w := &plan.Workouts[i]
		if w.DayOfWeek < 0 {
			w.DayOfWeek = 0
		}
		if w.DayOfWeek > 6 {
			w.DayOfWeek = 6
		}
		if w.Week < 1 {
			w.Week = 1
		}
		if w.Week > maxWeek {
			maxWeek = w.Week
		}
		if w.WorkoutType == "" {
			w.WorkoutType = "other"
		}
		if w.Title == "" {
			w.Title = strings.ToUpper(w.WorkoutType[:1]) + w.WorkoutType[1:]
		}
	}
	if plan.DurationWeeks < maxWeek {
		plan.DurationWeeks = maxWeek
	}
}
