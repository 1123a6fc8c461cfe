package ai

import (
	"context"
	"errors"
	"etape/training-hub/internal/config"
	"strings"
	"testing"
)

type fakeModel struct {
	reply  string
	err    error
	prompt Prompt
}

func (f *fakeModel) Complete(_ context.Context, p Prompt) (string, error) {
	f.prompt = p
	return f.reply, f.err
}

func (f *fakeModel) Name() string { return "fake" }

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  string
		err   bool
	}{
		{"bare", `{"title":"A"}`, `{"title":"A"}`, false},
		{"fenced", "Here you go:\n```json\n{\"title\":\"B\"}\n```\nEnjoy", `{"title":"B"}`, false},
		{"embedded", `Sure! {"title":"C","goals":[]} Let me know.`, `{"title":"C","goals":[]}`, false},
		{"none", "I cannot read this document.", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.reply)
			if (err != nil) != tt.err {
				t.Fatalf("err = %v, want error %v", err, tt.err)
			}
			if got != tt.want {
				t.Errorf("ExtractJSON = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractTextRejectsShortAndUnknown(t *testing.T) {
	if _, err := ExtractText("plan.txt", []byte("too short")); !errors.Is(err, ErrInsufficientText) {
		t.Errorf("short text err = %v", err)
	}
	if _, err := ExtractText("plan.docx", []byte(strings.Repeat("x", 100))); !errors.Is(err, ErrUnsupportedDocument) {
		t.Errorf("docx err = %v", err)
	}
	if _, err := ExtractText("plan.pdf", []byte("not really a pdf")); !errors.Is(err, ErrInsufficientText) {
		t.Errorf("broken pdf err = %v", err)
	}
	text, err := ExtractText("plan.txt", []byte("  "+strings.Repeat("Ride 2h endurance. ", 5)))
	if err != nil || strings.HasPrefix(text, " ") {
		t.Errorf("ExtractText = %q, %v", text, err)
	}
}

func TestPlanParserParse(t *testing.T) {
	model := &fakeModel{reply: "```json\n" + `{
		"title": "Base Block",
		"durationWeeks": 1,
		"workouts": [
			{"title": "Endurance", "workoutType": "cycling", "dayOfWeek": 1, "week": 1, "durationMinutes": 90},
			{"workoutType": "strength", "dayOfWeek": 9, "week": 3}
		],
		"goals": [{"title": "FTP 250", "goalType": "power", "targetValue": 250, "unit": "W"}]
	}` + "\n```"}
	p := NewPlanParser(model)

	doc := []byte(strings.Repeat("Week 1: ride easy on Tuesday for ninety minutes. ", 3))
	plan, err := p.Parse(context.Background(), "block.txt", doc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !model.prompt.JSON || !strings.Contains(model.prompt.Turns[0].Content, "ride easy on Tuesday") {
		t.Errorf("prompt did not carry the document text in JSON mode")
	}
	if plan.Title != "Base Block" || len(plan.Workouts) != 2 {
		t.Fatalf("plan = %+v", plan)
	}
	w := plan.Workouts[1]
	if w.DayOfWeek != 6 || w.Title != "Strength" {
		t.Errorf("second workout not normalized: %+v", w)
	}
	if plan.DurationWeeks != 3 {
		t.Errorf("DurationWeeks = %d, want 3 to cover week 3", plan.DurationWeeks)
	}
}

func TestPlanParserDisabled(t *testing.T) {
	p := NewPlanParser(disabledModel{})
	if _, err := p.Parse(context.Background(), "a.txt", []byte(strings.Repeat("a", 80))); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}
}

func TestNewModelWithoutProvider(t *testing.T) {
	m, err := NewModel(context.Background(), config.AIConfig{})
	if err != nil || Enabled(m) {
		t.Errorf("NewModel(empty) = %v, %v", m, err)
	}
}
