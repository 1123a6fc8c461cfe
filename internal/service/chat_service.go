package service

import (
	"context"
	"errors"
	"etape/training-hub/internal/ai"
	"etape/training-hub/internal/repository"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	chatHistoryTurns = 10
	chatLookback     = 7 * 24 * time.Hour
	upcomingWorkouts = 3
)

const chatSystemPrompt = `You are Etape's training assistant, an experienced cycling and endurance coach.
Answer questions about training, recovery and nutrition. Be concise and practical.
Use the athlete context below when it is relevant. Do not invent data that is not in it.`

type ChatService interface {
	Chat(ctx context.Context, actor Actor, message string, history []ai.Turn) (string, error)
}

type chatService struct {
	model       ai.Model
	rideRepo    repository.RideRepository
	workoutRepo repository.WorkoutLogRepository
	goalRepo    repository.GoalRepository
	planRepo    repository.TrainingPlanRepository
	plannedRepo repository.PlannedWorkoutRepository
	now         func() time.Time
}

func NewChatService(
	model ai.Model,
	rideRepo repository.RideRepository,
	workoutRepo repository.WorkoutLogRepository,
	goalRepo repository.GoalRepository,
	planRepo repository.TrainingPlanRepository,
	plannedRepo repository.PlannedWorkoutRepository,
) ChatService {
	return &chatService{
		model:       model,
		rideRepo:    rideRepo,
		workoutRepo: workoutRepo,
		goalRepo:    goalRepo,
		planRepo:    planRepo,
		plannedRepo: plannedRepo,
		now:         time.Now,
	}
}

func (s *chatService) Chat(ctx context.Context, actor Actor, message string, history []ai.Turn) (string, error) {
	if !ai.Enabled(s.model) {
		return "", ai.ErrNotConfigured
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return "", invalid("message is required")
	}
	if len(history) > chatHistoryTurns {
		history = history[len(history)-chatHistoryTurns:]
	}

	athleteContext, err := s.athleteContext(ctx, actor.ID)
	if err != nil {
		return "", err
	}
	turns := append(append([]ai.Turn{}, history...), ai.Turn{Role: "user", Content: message})
	return s.model.Complete(ctx, ai.Prompt{
		System:    chatSystemPrompt + "\n\n" + athleteContext,
		Turns:     turns,
		MaxTokens: 1000,
	})
}

// athleteContext summarizes the last week of activity, open goals and the active plan.
func (s *chatService) athleteContext(ctx context.Context, userID primitive.ObjectID) (string, error) {
	now := s.now().UTC()
	since := now.Add(-chatLookback)
	var b strings.Builder

	rides, err := s.rideRepo.ListByOwnerBetween(ctx, userID, since, now)
	if err != nil {
		return "", err
	}
	b.WriteString("Rides in the last 7 days:\n")
	if len(rides) == 0 {
		b.WriteString("- none\n")
	}
	for _, r := range rides {
		fmt.Fprintf(&b, "- %s: %s, %.1f km in %d min\n", r.RideDate.Format("Mon 2 Jan"), r.Title, r.DistanceKm, r.DurationMinutes)
	}

	workouts, err := s.workoutRepo.ListByOwnerBetween(ctx, userID, since, now)
	if err != nil {
		return "", err
	}
	b.WriteString("Workouts in the last 7 days:\n")
	if len(workouts) == 0 {
		b.WriteString("- none\n")
	}
	for _, w := range workouts {
		fmt.Fprintf(&b, "- %s: %s (%s), %d min\n", w.WorkoutDate.Format("Mon 2 Jan"), w.Title, w.WorkoutType, w.DurationMinutes)
	}

	goals, err := s.goalRepo.ListByOwners(ctx, []primitive.ObjectID{userID}, repository.Page{Limit: 20})
	if err != nil {
		return "", err
	}
	b.WriteString("Active goals:\n")
	open := 0
	for _, g := range goals {
		if g.IsCompleted {
			continue
		}
		open++
		line := "- " + g.Title
		if g.TargetValue != nil {
			line += fmt.Sprintf(" (target %g %s)", *g.TargetValue, g.Unit)
		}
		if g.TargetDate != nil {
			line += " by " + g.TargetDate.Format("2 Jan 2006")
		}
		b.WriteString(line + "\n")
	}
	if open == 0 {
		b.WriteString("- none\n")
	}

	plan, err := s.planRepo.FindActiveForAthlete(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		b.WriteString("No active training plan.\n")
		return b.String(), nil
	}
	if err != nil {
		return "", err
	}
	fmt.Fprintf(&b, "Active training plan: %s\n", plan.Title)
	planned, err := s.plannedRepo.ListByOwnerBetween(ctx, plan.ID, now, farFuture)
	if err != nil {
		return "", err
	}
	shown := 0
	for _, w := range planned {
		if w.IsCompleted || shown == upcomingWorkouts {
			continue
		}
		shown++
		fmt.Fprintf(&b, "- upcoming %s: %s (%s)\n", w.ScheduledDate.Format("Mon 2 Jan"), w.Title, w.WorkoutType)
	}
	return b.String(), nil
}
