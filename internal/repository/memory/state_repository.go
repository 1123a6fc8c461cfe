package memory

import (
	"context"
	"etape/training-hub/internal/repository"
	"sync"
	"time"
)

type stateEntry struct {
	userID    string
	expiresAt time.Time
}

// StateRepository is an in-process OAuth state store for single-instance deployments.
type StateRepository struct {
	mu   sync.Mutex
	data map[string]stateEntry
	now  func() time.Time
}

func NewStateRepository() *StateRepository {
	return &StateRepository{
		data: make(map[string]stateEntry),
		now:  time.Now,
	}
}

func (s *StateRepository) Save(_ context.Context, state, userID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	s.data[state] = stateEntry{userID: userID, expiresAt: s.now().Add(ttl)}
	return nil
}

// Consume returns the bound user and removes the state (single-use).
func (s *StateRepository) Consume(_ context.Context, state string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.data[state]
	if !ok {
		return "", repository.ErrNotFound
	}
	delete(s.data, state)
	if s.now().After(e.expiresAt) {
		return "", repository.ErrNotFound
	}
	return e.userID, nil
}

// sweep drops expired entries; callers hold mu.
func (s *StateRepository) sweep() {
	now := s.now()
	for k, e := range s.data {
		if now.After(e.expiresAt) {
			delete(s.data, k)
		}
	}
}

var _ repository.OAuthStateRepository = (*StateRepository)(nil)
