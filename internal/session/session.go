// Package session holds who is signed in on the client side and what their role allows.
package session

import (
	"context"
	"errors"
	"etape/training-hub/internal/client"
	"etape/training-hub/internal/domain"
	"fmt"
	"log"
	"sync"
)

var ErrNotAuthenticated = errors.New("not signed in")

// API is the part of the REST client a session needs.
type API interface {
	Login(ctx context.Context, email, password string) (*client.LoginResult, error)
	Me(ctx context.Context) (*client.User, error)
}

// Session is created once per process and passed to whatever needs the current user.
// The API client must read its bearer token from the same store.
type Session struct {
	api   API
	store TokenStore

	mu   sync.RWMutex
	user *client.User
}

func New(api API, store TokenStore) *Session {
	return &Session{api: api, store: store}
}

// Init validates a stored token by loading the profile. Any failure clears
// the token and leaves the session signed out; the error is returned for logging.
func (s *Session) Init(ctx context.Context) error {
	if s.store.Token() == "" {
		return nil
	}
	user, err := s.api.Me(ctx)
	if err != nil {
		if clearErr := s.store.Clear(); clearErr != nil {
			log.Printf("WARN: Could not clear stale token: %v", clearErr)
		}
		s.setUser(nil)
		return fmt.Errorf("stored token rejected: %w", err)
	}
	s.setUser(user)
	return nil
}

// Login exchanges credentials for a token, stores it, then loads the profile.
// Nothing is stored when the credentials are rejected.
func (s *Session) Login(ctx context.Context, email, password string) (*client.User, error) {
	res, err := s.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(res.AccessToken); err != nil {
		return nil, err
	}
	user, err := s.api.Me(ctx)
	if err != nil {
		if clearErr := s.store.Clear(); clearErr != nil {
			log.Printf("WARN: Could not clear token after failed profile load: %v", clearErr)
		}
		return nil, fmt.Errorf("loading profile after login: %w", err)
	}
	s.setUser(user)
	return user, nil
}

// Logout forgets the token and user locally. The server is not called.
func (s *Session) Logout() error {
	s.setUser(nil)
	return s.store.Clear()
}

// User returns the signed-in user, or nil.
func (s *Session) User() *client.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// RequireUser is User for callers that cannot continue signed out.
func (s *Session) RequireUser() (*client.User, error) {
	if u := s.User(); u != nil {
		return u, nil
	}
	return nil, ErrNotAuthenticated
}

func (s *Session) IsAuthenticated() bool { return s.User() != nil }

func (s *Session) IsAthlete() bool { return s.hasRole(domain.RoleAthlete) }
func (s *Session) IsTrainer() bool { return s.hasRole(domain.RoleTrainer) }
func (s *Session) IsAdmin() bool { return s.hasRole(domain.RoleAdmin) }

// Can applies the same role policy the server enforces. Signed out can do nothing.
func (s *Session) Can(c domain.Capability) bool {
	u := s.User()
	return u != nil && u.Role.Can(c)
}

func (s *Session) hasRole(r domain.Role) bool {
	u := s.User()
	return u != nil && u.Role == r
}

func (s *Session) setUser(u *client.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = u
}
