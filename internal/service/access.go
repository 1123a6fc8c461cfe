package service

import (
	"context"
	"encoding/json"
	"errors"
	"etape/training-hub/internal/domain"
	"etape/training-hub/internal/repository"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrForbidden    = errors.New("you do not have permission to perform this action")
	ErrUserNotFound = errors.New("user not found")
)

// InputError reports a request the caller can fix. Its message is safe to return to clients.
type InputError string

func (e InputError) Error() string {
	return string(e)
}

func invalid(format string, args ...any) error {
	return InputError(fmt.Sprintf(format, args...))
}

// Actor is the authenticated caller with the role currently stored for the account.
type Actor struct {
	ID   primitive.ObjectID
	Role domain.Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == domain.RoleAdmin
}

func (a Actor) CanCoach() bool {
	return a.Role == domain.RoleTrainer || a.Role == domain.RoleAdmin
}

// accessibleUserIDs lists whose records the actor may read. A nil slice means everyone.
func accessibleUserIDs(ctx context.Context, assignments repository.AssignmentRepository, actor Actor) ([]primitive.ObjectID, error) {
	if actor.IsAdmin() {
		return nil, nil
	}
	ids := []primitive.ObjectID{actor.ID}
	if actor.Role != domain.RoleTrainer {
		return ids, nil
	}
	active, err := assignments.ListActiveByTrainer(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	for _, a := range active {
		ids = append(ids, a.AthleteID)
	}
	return ids, nil
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

// canRead reports whether owner's records are visible to the actor.
func canRead(ctx context.Context, assignments repository.AssignmentRepository, actor Actor, owner primitive.ObjectID) (bool, error) {
	ids, err := accessibleUserIDs(ctx, assignments, actor)
	if err != nil {
		return false, err
	}
	return ids == nil || containsID(ids, owner), nil
}

// isAssigned reports whether an active trainer/athlete relationship exists.
func isAssigned(ctx context.Context, assignments repository.AssignmentRepository, trainerID, athleteID primitive.ObjectID) (bool, error) {
	_, err := assignments.FindActive(ctx, trainerID, athleteID)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func pageOrDefault(p repository.Page, def, max int64) repository.Page {
	if p.Skip < 0 {
		p.Skip = 0
	}
	if p.Limit <= 0 {
		p.Limit = def
	}
	if p.Limit > max {
		p.Limit = max
	}
	return p
}

// Patch is a partial update: only the JSON fields present are applied.
type Patch map[string]json.RawMessage

// onlyTouches reports whether every key in the patch is one of allowed.
func (p Patch) onlyTouches(allowed ...string) bool {
	for k := range p {
		found := false
		for _, a := range allowed {
			if k == a {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

var identityFields = []string{"id", "userId", "planId", "createdAt", "updatedAt"}

// applyPatch decodes the patch onto doc, ignoring identity fields.
func applyPatch(doc any, p Patch) error {
	clean := make(Patch, len(p))
	for k, v := range p {
		clean[k] = v
	}
	for _, k := range identityFields {
		delete(clean, k)
	}
	raw, err := json.Marshal(clean)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, doc); err != nil {
		return invalid("invalid update: %v", err)
	}
	return nil
}
