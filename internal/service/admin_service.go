package service

import (
	"context"
	"errors"
	"etape/training-hub/internal/domain"
	"etape/training-hub/internal/repository"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrSelfLock        = errors.New("you cannot lock your own account")
	ErrSelfDelete      = errors.New("you cannot delete your own account")
	ErrLastAdmin       = errors.New("at least one active administrator must remain")
	ErrDuplicateActive = errors.New("an active assignment already exists for this trainer and athlete")
)

// Stats summarizes the platform for the admin dashboard.
type Stats struct {
	TotalUsers        int64 `json:"totalUsers"`
	Athletes          int64 `json:"athletes"`
	Trainers          int64 `json:"trainers"`
	Admins            int64 `json:"admins"`
	ActiveAssignments int64 `json:"activeAssignments"`
	TrainingPlans     int64 `json:"trainingPlans"`
	Rides             int64 `json:"rides"`
	Workouts          int64 `json:"workouts"`
	Goals             int64 `json:"goals"`
}

type AdminService interface {
	ListUsers(ctx context.Context, filter repository.UserFilter) ([]domain.User, error)
	GetUser(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	ChangeRole(ctx context.Context, actor Actor, id primitive.ObjectID, role domain.Role) (*domain.User, error)
	SetLocked(ctx context.Context, actor Actor, id primitive.ObjectID, locked bool) (*domain.User, error)
	DeleteUser(ctx context.Context, actor Actor, id primitive.ObjectID) error
	ListAssignments(ctx context.Context, activeOnly bool) ([]domain.TrainerAssignment, error)
	CreateAssignment(ctx context.Context, trainerID, athleteID primitive.ObjectID, notes string) (*domain.TrainerAssignment, error)
	DeactivateAssignment(ctx context.Context, id primitive.ObjectID) error
	Stats(ctx context.Context) (*Stats, error)
}

type adminService struct {
	userRepo       repository.UserRepository
	assignmentRepo repository.AssignmentRepository
	planRepo       repository.TrainingPlanRepository
	rideRepo       repository.RideRepository
	workoutRepo    repository.WorkoutLogRepository
	goalRepo       repository.GoalRepository
}

func NewAdminService(
	userRepo repository.UserRepository,
	assignmentRepo repository.AssignmentRepository,
	planRepo repository.TrainingPlanRepository,
	rideRepo repository.RideRepository,
	workoutRepo repository.WorkoutLogRepository,
	goalRepo repository.GoalRepository,
) AdminService {
	return &adminService{
		userRepo:       userRepo,
		assignmentRepo: assignmentRepo,
		planRepo:       planRepo,
		rideRepo:       rideRepo,
		workoutRepo:    workoutRepo,
		goalRepo:       goalRepo,
	}
}

func (s *adminService) ListUsers(ctx context.Context, filter repository.UserFilter) ([]domain.User, error) {
	filter.Page = pageOrDefault(filter.Page, 100, 500)
	users, err := s.userRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

func (s *adminService) GetUser(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

// ChangeRole updates a user's role. Demoting the only remaining admin is refused.
func (s *adminService) ChangeRole(ctx context.Context, actor Actor, id primitive.ObjectID, role domain.Role) (*domain.User, error) {
	if !role.Valid() {
		return nil, invalid("invalid role: %s", role)
	}
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Role == role {
		return user, nil
	}
	if user.IsAdmin() && id == actor.ID {
		if err := s.ensureOtherAdmin(ctx, id); err != nil {
			return nil, err
		}
	}
	if err := s.userRepo.UpdateRole(ctx, id, role); err != nil {
		return nil, err
	}
	log.Printf("INFO: Admin %s changed role of %s from %s to %s", actor.ID.Hex(), id.Hex(), user.Role, role)
	user.Role = role
	return user, nil
}

// SetLocked locks or unlocks an account. Setting the current state again is a no-op.
func (s *adminService) SetLocked(ctx context.Context, actor Actor, id primitive.ObjectID, locked bool) (*domain.User, error) {
	if locked && id == actor.ID {
		return nil, ErrSelfLock
	}
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.IsLocked == locked {
		return user, nil
	}
	if err := s.userRepo.SetLocked(ctx, id, locked); err != nil {
		return nil, err
	}
	user.IsLocked = locked
	return user, nil
}

// DeleteUser removes an account and deactivates its relationships.
func (s *adminService) DeleteUser(ctx context.Context, actor Actor, id primitive.ObjectID) error {
	if id == actor.ID {
		return ErrSelfDelete
	}
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if user.IsAdmin() {
		if err := s.ensureOtherAdmin(ctx, id); err != nil {
			return err
		}
	}
	if err := s.assignmentRepo.DeactivateForUser(ctx, id); err != nil {
		return err
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	log.Printf("INFO: Admin %s deleted user %s (%s)", actor.ID.Hex(), id.Hex(), user.Email)
	return nil
}

func (s *adminService) ensureOtherAdmin(ctx context.Context, exclude primitive.ObjectID) error {
	n, err := s.userRepo.CountSignInAdmins(ctx, exclude)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrLastAdmin
	}
	return nil
}

func (s *adminService) ListAssignments(ctx context.Context, activeOnly bool) ([]domain.TrainerAssignment, error) {
	list, err := s.assignmentRepo.List(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	return attachUsers(ctx, s.userRepo, list)
}

// CreateAssignment links a trainer and an athlete directly, skipping the request step.
func (s *adminService) CreateAssignment(ctx context.Context, trainerID, athleteID primitive.ObjectID, notes string) (*domain.TrainerAssignment, error) {
	if trainerID == athleteID {
		return nil, invalid("trainer and athlete must be different users")
	}
	trainer, err := s.GetUser(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	if !trainer.CanCoach() {
		return nil, invalid("user %s is not a trainer", trainer.Email)
	}
	athlete, err := s.GetUser(ctx, athleteID)
	if err != nil {
		return nil, err
	}

	assigned, err := isAssigned(ctx, s.assignmentRepo, trainerID, athleteID)
	if err != nil {
		return nil, err
	}
	if assigned {
		return nil, ErrDuplicateActive
	}
	a := &domain.TrainerAssignment{
		TrainerID:  trainerID,
		AthleteID:  athleteID,
		IsActive:   true,
		AssignedAt: time.Now().UTC(),
		Notes:      strings.TrimSpace(notes),
	}
	if _, err := s.assignmentRepo.Create(ctx, a); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateActive
		}
		return nil, err
	}
	a.Trainer = trainer
	a.Athlete = athlete
	return a, nil
}

func (s *adminService) DeactivateAssignment(ctx context.Context, id primitive.ObjectID) error {
	err := s.assignmentRepo.Deactivate(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrAssignmentNotFound
	}
	return err
}

func (s *adminService) Stats(ctx context.Context) (*Stats, error) {
	var st Stats
	counters := []struct {
		dst   *int64
		count func(context.Context) (int64, error)
	}{
		{&st.TotalUsers, func(ctx context.Context) (int64, error) { return s.userRepo.CountByRole(ctx, "") }},
		{&st.Athletes, func(ctx context.Context) (int64, error) { return s.userRepo.CountByRole(ctx, domain.RoleAthlete) }},
		{&st.Trainers, func(ctx context.Context) (int64, error) { return s.userRepo.CountByRole(ctx, domain.RoleTrainer) }},
		{&st.Admins, func(ctx context.Context) (int64, error) { return s.userRepo.CountByRole(ctx, domain.RoleAdmin) }},
		{&st.ActiveAssignments, s.assignmentRepo.CountActive},
		{&st.TrainingPlans, s.planRepo.Count},
		{&st.Rides, s.rideRepo.Count},
		{&st.Workouts, s.workoutRepo.Count},
		{&st.Goals, s.goalRepo.Count},
	}
	for _, c := range counters {
		n, err := c.count(ctx)
		if err != nil {
			return nil, err
		}
		*c.dst = n
	}
	return &st, nil
}
