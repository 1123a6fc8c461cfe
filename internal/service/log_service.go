package service

import (
	"context"
	"errors"
	"etape/training-hub/internal/domain"
	"etape/training-hub/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrRecordNotFound = errors.New("record not found")

// LogService is the per-user CRUD shared by rides, workouts, goals and nutrition logs.
type LogService[T any] interface {
	// List returns records of the users the actor can see, or only userID's when given.
	List(ctx context.Context, actor Actor, userID *primitive.ObjectID, page repository.Page) ([]T, error)
	Get(ctx context.Context, actor Actor, id primitive.ObjectID) (*T, error)
	Create(ctx context.Context, actor Actor, doc *T) (*T, error)
	Update(ctx context.Context, actor Actor, id primitive.ObjectID, patch Patch) (*T, error)
	Delete(ctx context.Context, actor Actor, id primitive.ObjectID) error
}

type logRecordPtr[T any] interface {
	*T
	domain.Record
}

type logService[T any, PT logRecordPtr[T]] struct {
	repo           repository.OwnedRepository[T]
	assignmentRepo repository.AssignmentRepository
}

func NewLogService[T any, PT logRecordPtr[T]](repo repository.OwnedRepository[T], assignmentRepo repository.AssignmentRepository) LogService[T] {
	return &logService[T, PT]{repo: repo, assignmentRepo: assignmentRepo}
}

func (s *logService[T, PT]) List(ctx context.Context, actor Actor, userID *primitive.ObjectID, page repository.Page) ([]T, error) {
	owners, err := accessibleUserIDs(ctx, s.assignmentRepo, actor)
	if err != nil {
		return nil, err
	}
	if userID != nil {
		if owners != nil && !containsID(owners, *userID) {
			return nil, ErrForbidden
		}
		owners = []primitive.ObjectID{*userID}
	}
	return s.repo.ListByOwners(ctx, owners, pageOrDefault(page, 100, 500))
}

func (s *logService[T, PT]) Get(ctx context.Context, actor Actor, id primitive.ObjectID) (*T, error) {
	doc, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := canRead(ctx, s.assignmentRepo, actor, PT(doc).Owner())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}
	return doc, nil
}

func (s *logService[T, PT]) Create(ctx context.Context, actor Actor, doc *T) (*T, error) {
	PT(doc).SetOwner(actor.ID)
	if err := PT(doc).Validate(); err != nil {
		return nil, InputError(err.Error())
	}
	if _, err := s.repo.Create(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Update applies a partial update. Only the owner may change a record.
func (s *logService[T, PT]) Update(ctx context.Context, actor Actor, id primitive.ObjectID, patch Patch) (*T, error) {
	doc, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := applyPatch(doc, patch); err != nil {
		return nil, err
	}
	PT(doc).SetOwner(actor.ID)
	if err := PT(doc).Validate(); err != nil {
		return nil, InputError(err.Error())
	}
	if err := s.repo.Replace(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *logService[T, PT]) Delete(ctx context.Context, actor Actor, id primitive.ObjectID) error {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *logService[T, PT]) owned(ctx context.Context, actor Actor, id primitive.ObjectID) (*T, error) {
	doc, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if PT(doc).Owner() != actor.ID {
		return nil, ErrForbidden
	}
	return doc, nil
}

func (s *logService[T, PT]) get(ctx context.Context, id primitive.ObjectID) (*T, error) {
	doc, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrRecordNotFound
	}
	return doc, err
}
