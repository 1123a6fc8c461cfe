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

// --- Error Definitions ---
var (
	ErrNotACoach             = errors.New("requests can only be sent to trainers")
	ErrSelfRequest           = errors.New("you cannot send a request to yourself")
	ErrRequestAlreadyPending = errors.New("a request to this trainer is already pending")
	ErrAlreadyAssigned       = errors.New("you are already connected with this trainer")
	ErrRequestNotFound       = errors.New("request not found")
	ErrAssignmentNotFound    = errors.New("assignment not found")
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

// RelationshipService runs the athlete -> trainer request workflow and the
// assignments it produces.
type RelationshipService interface {
	SearchTrainers(ctx context.Context, query string, page repository.Page) ([]domain.User, error)
	SendRequest(ctx context.Context, actor Actor, trainerID primitive.ObjectID, message string) (*domain.TrainerRequest, error)
	ListRequests(ctx context.Context, actor Actor) ([]domain.TrainerRequest, error)
	Respond(ctx context.Context, actor Actor, requestID primitive.ObjectID, approve bool) (*domain.TrainerRequest, error)
	ListAssignments(ctx context.Context, actor Actor) ([]domain.TrainerAssignment, error)
	MyAthletes(ctx context.Context, actor Actor) ([]domain.User, error)
	DeleteAssignment(ctx context.Context, actor Actor, assignmentID primitive.ObjectID) error
}

type relationshipService struct {
	userRepo       repository.UserRepository
	requestRepo    repository.TrainerRequestRepository
	assignmentRepo repository.AssignmentRepository
	now            func() time.Time
}

func NewRelationshipService(
	userRepo repository.UserRepository,
	requestRepo repository.TrainerRequestRepository,
	assignmentRepo repository.AssignmentRepository,
) RelationshipService {
	return &relationshipService{
		userRepo:       userRepo,
		requestRepo:    requestRepo,
		assignmentRepo: assignmentRepo,
		now:            time.Now,
	}
}

// SearchTrainers finds coaches by name or email. No match is an empty, non-nil slice.
func (s *relationshipService) SearchTrainers(ctx context.Context, query string, page repository.Page) ([]domain.User, error) {
	page = pageOrDefault(page, defaultSearchLimit, maxSearchLimit)
	users, err := s.userRepo.SearchCoaches(ctx, strings.TrimSpace(query), page)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

func (s *relationshipService) SendRequest(ctx context.Context, actor Actor, trainerID primitive.ObjectID, message string) (*domain.TrainerRequest, error) {
	if trainerID == actor.ID {
		return nil, ErrSelfRequest
	}
	trainer, err := s.userRepo.GetByID(ctx, trainerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !trainer.CanCoach() {
		return nil, ErrNotACoach
	}

	if _, err := s.requestRepo.FindPending(ctx, actor.ID, trainerID); err == nil {
		return nil, ErrRequestAlreadyPending
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	assigned, err := isAssigned(ctx, s.assignmentRepo, trainerID, actor.ID)
	if err != nil {
		return nil, err
	}
	if assigned {
		return nil, ErrAlreadyAssigned
	}

	req := &domain.TrainerRequest{
		AthleteID: actor.ID,
		TrainerID: trainerID,
		Status:    domain.RequestPending,
		Message:   strings.TrimSpace(message),
		CreatedAt: s.now().UTC(),
	}
	if _, err := s.requestRepo.Create(ctx, req); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrRequestAlreadyPending
		}
		return nil, err
	}
	req.Trainer = trainer
	return req, nil
}

// ListRequests returns received requests for coaches and sent requests for athletes,
// with the other party attached.
func (s *relationshipService) ListRequests(ctx context.Context, actor Actor) ([]domain.TrainerRequest, error) {
	var (
		reqs []domain.TrainerRequest
		err  error
	)
	if actor.CanCoach() {
		reqs, err = s.requestRepo.ListByTrainer(ctx, actor.ID)
	} else {
		reqs, err = s.requestRepo.ListByAthlete(ctx, actor.ID)
	}
	if err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.AthleteID, r.TrainerID)
	}
	users, err := usersByID(ctx, s.userRepo, ids)
	if err != nil {
		return nil, err
	}
	for i := range reqs {
		reqs[i].Athlete = users[reqs[i].AthleteID]
		reqs[i].Trainer = users[reqs[i].TrainerID]
	}
	return reqs, nil
}

// Respond resolves a pending request addressed to the actor. Approval creates an assignment.
func (s *relationshipService) Respond(ctx context.Context, actor Actor, requestID primitive.ObjectID, approve bool) (*domain.TrainerRequest, error) {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	// Requests addressed to someone else are invisible to the caller.
	if req.TrainerID != actor.ID {
		return nil, ErrRequestNotFound
	}

	now := s.now().UTC()
	if err := req.Resolve(approve, now); err != nil {
		return nil, err
	}
	if err := s.requestRepo.Resolve(ctx, req); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrRequestResolved
		}
		return nil, err
	}
	if !approve {
		return req, nil
	}

	assigned, err := isAssigned(ctx, s.assignmentRepo, req.TrainerID, req.AthleteID)
	if err != nil {
		return nil, err
	}
	if !assigned {
		a := &domain.TrainerAssignment{
			TrainerID:  req.TrainerID,
			AthleteID:  req.AthleteID,
			IsActive:   true,
			AssignedAt: now,
		}
		if _, err := s.assignmentRepo.Create(ctx, a); err != nil && !errors.Is(err, repository.ErrDuplicate) {
			log.Printf("ERROR: Request %s approved but assignment creation failed: %v", req.ID.Hex(), err)
			return nil, err
		}
	}
	return req, nil
}

func (s *relationshipService) ListAssignments(ctx context.Context, actor Actor) ([]domain.TrainerAssignment, error) {
	var (
		list []domain.TrainerAssignment
		err  error
	)
	if actor.CanCoach() {
		list, err = s.assignmentRepo.ListActiveByTrainer(ctx, actor.ID)
	} else {
		list, err = s.assignmentRepo.ListActiveByAthlete(ctx, actor.ID)
	}
	if err != nil {
		return nil, err
	}
	return attachUsers(ctx, s.userRepo, list)
}

func (s *relationshipService) MyAthletes(ctx context.Context, actor Actor) ([]domain.User, error) {
	list, err := s.assignmentRepo.ListActiveByTrainer(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(list))
	for _, a := range list {
		ids = append(ids, a.AthleteID)
	}
	users, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

// DeleteAssignment severs the relationship. Plans created under it are kept.
func (s *relationshipService) DeleteAssignment(ctx context.Context, actor Actor, assignmentID primitive.ObjectID) error {
	a, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAssignmentNotFound
		}
		return err
	}
	if !a.Involves(actor.ID) && !actor.IsAdmin() {
		return ErrForbidden
	}
	return s.assignmentRepo.Deactivate(ctx, assignmentID)
}

// usersByID loads users in one query, without password hashes.
func usersByID(ctx context.Context, repo repository.UserRepository, ids []primitive.ObjectID) (map[primitive.ObjectID]*domain.User, error) {
	users, err := repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[primitive.ObjectID]*domain.User, len(users))
	for i := range users {
		users[i].PasswordHash = ""
		out[users[i].ID] = &users[i]
	}
	return out, nil
}

func attachUsers(ctx context.Context, repo repository.UserRepository, list []domain.TrainerAssignment) ([]domain.TrainerAssignment, error) {
	ids := make([]primitive.ObjectID, 0, 2*len(list))
	for _, a := range list {
		ids = append(ids, a.TrainerID, a.AthleteID)
	}
	users, err := usersByID(ctx, repo, ids)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].Trainer = users[list[i].TrainerID]
		list[i].Athlete = users[list[i].AthleteID]
	}
	return list, nil
}
