package planbuilder

import (
	"context"
	"errors"
	"etape/training-hub/internal/client"
	"etape/training-hub/internal/domain"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeAPI records calls and fails where told to.
type fakeAPI struct {
	plans         []client.PlanInput
	deleted       []primitive.ObjectID
	workouts      map[primitive.ObjectID]int
	nutrition     map[primitive.ObjectID]int
	failWorkoutOf primitive.ObjectID // athlete whose second workout fails
	failPlanOf    primitive.ObjectID

	planOwner map[primitive.ObjectID]primitive.ObjectID
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		workouts:  map[primitive.ObjectID]int{},
		nutrition: map[primitive.ObjectID]int{},
		planOwner: map[primitive.ObjectID]primitive.ObjectID{},
	}
}

func (f *fakeAPI) calls() int {
	n := len(f.plans) + len(f.deleted)
	for _, c := range f.workouts {
		n += c
	}
	for _, c := range f.nutrition {
		n += c
	}
	return n
}

func (f *fakeAPI) CreatePlan(_ context.Context, in client.PlanInput) (*client.Plan, error) {
	f.plans = append(f.plans, in)
	if !f.failPlanOf.IsZero() && in.AthleteID == f.failPlanOf {
		return nil, errors.New("server unavailable")
	}
	p := &client.Plan{}
	p.ID = primitive.NewObjectID()
	f.planOwner[p.ID] = in.AthleteID
	return p, nil
}

func (f *fakeAPI) DeletePlan(_ context.Context, planID primitive.ObjectID) error {
	f.deleted = append(f.deleted, planID)
	return nil
}

func (f *fakeAPI) AddWorkout(_ context.Context, planID primitive.ObjectID, _ *domain.PlannedWorkout) error {
	if f.planOwner[planID] == f.failWorkoutOf && f.workouts[planID] == 1 {
		return errors.New("validation failed")
	}
	f.workouts[planID]++
	return nil
}

func (f *fakeAPI) AddNutrition(_ context.Context, planID primitive.ObjectID, _ *domain.NutritionPlan) error {
	f.nutrition[planID]++
	return nil
}

func twoWeekTemplate(athletes ...primitive.ObjectID) *Template {
	return &Template{
		Title:         "Base block",
		StartDate:     time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
		DurationWeeks: 2,
		Workouts: []WorkoutTemplate{
			{DayOfWeek: 0, WorkoutType: "endurance", DurationMinutes: 90},
			{DayOfWeek: 3, WorkoutType: "interval", Title: "VO2 repeats"},
		},
		Nutrition:  []NutritionTemplate{{DayOfWeek: 6, MealType: "breakfast", Recommendation: "oats before the long ride"}},
		AthleteIDs: athletes,
	}
}

func TestValidate(t *testing.T) {
	athlete := primitive.NewObjectID()
	tests := []struct {
		name   string
		modify func(*Template)
		want   error
	}{
		{"valid", func(*Template) {}, nil},
		{"blank title", func(tp *Template) { tp.Title = "  " }, ErrTitleRequired},
		{"no athletes", func(tp *Template) { tp.AthleteIDs = nil }, ErrNoAthletes},
		{"no start", func(tp *Template) { tp.StartDate = time.Time{} }, ErrStartDateRequired},
		{"zero weeks", func(tp *Template) { tp.DurationWeeks = 0 }, ErrInvalidDuration},
		{"sunday is 6", func(tp *Template) { tp.Workouts[0].DayOfWeek = 7 }, ErrInvalidWeekday},
		{"negative day", func(tp *Template) { tp.Nutrition[0].DayOfWeek = -1 }, ErrInvalidWeekday},
		{"missing type", func(tp *Template) { tp.Workouts[1].WorkoutType = "" }, ErrWorkoutType},
		{"missing meal", func(tp *Template) { tp.Nutrition[0].MealType = "" }, ErrNutritionFields},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tp := twoWeekTemplate(athlete)
			tt.modify(tp)
			if err := tp.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestExpand(t *testing.T) {
	athlete := primitive.NewObjectID()
	e := twoWeekTemplate(athlete).Expand(athlete)

	if e.Plan.AthleteID != athlete || e.Plan.Title != "Base block" {
		t.Errorf("plan = %+v", e.Plan)
	}
	if got := e.Plan.EndDate.Format("2006-01-02"); got != "2025-01-19" {
		t.Errorf("end date = %s, want 2025-01-19", got)
	}

	want := []struct {
		date  string
		title string
	}{
		{"2025-01-06", "Endurance - week 1"},
		{"2025-01-09", "VO2 repeats"},
		{"2025-01-13", "Endurance - week 2"},
		{"2025-01-16", "VO2 repeats"},
	}
	if len(e.Workouts) != len(want) {
		t.Fatalf("got %d workouts, want %d", len(e.Workouts), len(want))
	}
	for i, w := range want {
		got := e.Workouts[i]
		if d := got.ScheduledDate.Format("2006-01-02"); d != w.date || got.Title != w.title {
			t.Errorf("workout %d = %s %q, want %s %q", i, d, got.Title, w.date, w.title)
		}
	}
	if e.Workouts[0].DurationMinutes == nil || *e.Workouts[0].DurationMinutes != 90 {
		t.Error("duration not carried over")
	}
	if e.Workouts[1].DurationMinutes != nil {
		t.Error("zero duration should stay unset")
	}

	if len(e.Nutrition) != 1 || e.Nutrition[0].DayOfWeek != "sunday" {
		t.Errorf("nutrition = %+v, want one sunday entry", e.Nutrition)
	}
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()
	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	api := newFakeAPI()

	res, err := Submit(ctx, api, twoWeekTemplate(a, b))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Created) != 2 || res.Created[0] != a || res.Created[1] != b {
		t.Errorf("created = %v", res.Created)
	}
	for _, id := range res.PlanIDs {
		if api.workouts[id] != 4 || api.nutrition[id] != 1 {
			t.Errorf("plan %s got %d workouts, %d nutrition", id.Hex(), api.workouts[id], api.nutrition[id])
		}
	}
	if len(api.deleted) != 0 {
		t.Errorf("unexpected deletes: %v", api.deleted)
	}
}

func TestSubmitInvalidMakesNoCalls(t *testing.T) {
	api := newFakeAPI()
	_, err := Submit(context.Background(), api, twoWeekTemplate())
	if !errors.Is(err, ErrNoAthletes) {
		t.Fatalf("err = %v, want ErrNoAthletes", err)
	}
	if api.calls() != 0 {
		t.Errorf("made %d calls", api.calls())
	}
}

func TestSubmitStopsAtFirstFailure(t *testing.T) {
	ctx := context.Background()
	a, b, c := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()

	t.Run("child failure deletes the partial plan", func(t *testing.T) {
		api := newFakeAPI()
		api.failWorkoutOf = b

		res, err := Submit(ctx, api, twoWeekTemplate(a, b, c))
		var serr *SubmitError
		if !errors.As(err, &serr) {
			t.Fatalf("err = %v, want *SubmitError", err)
		}
		if serr.AthleteID != b || len(serr.Completed) != 1 || serr.Completed[0] != a || !serr.RolledBack {
			t.Errorf("submit error = %+v", serr)
		}
		if len(res.Created) != 1 {
			t.Errorf("result created = %v", res.Created)
		}
		if len(api.plans) != 2 {
			t.Errorf("athlete after the failure was attempted: %d plans", len(api.plans))
		}
		if len(api.deleted) != 1 || api.planOwner[api.deleted[0]] != b {
			t.Errorf("deleted = %v, want b's plan only", api.deleted)
		}
	})

	t.Run("plan failure has nothing to delete", func(t *testing.T) {
		api := newFakeAPI()
		api.failPlanOf = a

		_, err := Submit(ctx, api, twoWeekTemplate(a, b))
		var serr *SubmitError
		if !errors.As(err, &serr) || serr.AthleteID != a || len(serr.Completed) != 0 {
			t.Fatalf("err = %v", err)
		}
		if len(api.plans) != 1 || len(api.deleted) != 0 {
			t.Errorf("plans %d, deletes %d", len(api.plans), len(api.deleted))
		}
	})
}
