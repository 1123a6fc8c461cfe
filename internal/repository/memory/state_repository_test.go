package memory

import (
	"context"
	"errors"
	"etape/training-hub/internal/repository"
	"testing"
	"time"
)

func TestStateRepositorySingleUse(t *testing.T) {
	ctx := context.Background()
	s := NewStateRepository()

	if err := s.Save(ctx, "abc", "user-1", time.Minute); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Consume(ctx, "abc")
	if err != nil || got != "user-1" {
		t.Fatalf("Consume = %q, %v", got, err)
	}
	if _, err := s.Consume(ctx, "abc"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("second Consume = %v, want ErrNotFound", err)
	}
}

func TestStateRepositoryExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewStateRepository()
	s.now = func() time.Time { return now }

	_ = s.Save(ctx, "old", "user-1", 10*time.Minute)
	now = now.Add(11 * time.Minute)

	if _, err := s.Consume(ctx, "old"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expired Consume = %v, want ErrNotFound", err)
	}
	if _, err := s.Consume(ctx, "never-saved"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("unknown Consume = %v, want ErrNotFound", err)
	}
}
