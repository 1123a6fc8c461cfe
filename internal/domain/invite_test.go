package domain

import (
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestInviteCheck(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	used := now.Add(-time.Hour)
	by := primitive.NewObjectID()

	tests := []struct {
		name   string
		invite InviteToken
		want   error
	}{
		{"valid", InviteToken{IsActive: true, ExpiresAt: now.Add(time.Hour)}, nil},
		{"expired", InviteToken{IsActive: true, ExpiresAt: now.Add(-time.Second)}, ErrInviteExpired},
		{"expires exactly now", InviteToken{IsActive: true, ExpiresAt: now}, ErrInviteExpired},
		{"used", InviteToken{IsActive: true, ExpiresAt: now.Add(time.Hour), UsedAt: &used, UsedBy: &by}, ErrInviteUsed},
		{"used wins over expired", InviteToken{IsActive: true, ExpiresAt: now.Add(-time.Hour), UsedAt: &used}, ErrInviteUsed},
		{"deactivated", InviteToken{IsActive: false, ExpiresAt: now.Add(time.Hour)}, ErrInviteInactive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.invite.Check(now)
			if !errors.Is(err, tt.want) {
				t.Errorf("Check() = %v, want %v", err, tt.want)
			}
			if tt.invite.IsValid(now) != (tt.want == nil) {
				t.Errorf("IsValid() disagrees with Check()")
			}
		})
	}
}

func TestInviteCheckEmail(t *testing.T) {
	open := InviteToken{}
	if err := open.CheckEmail("anyone@example.com"); err != nil {
		t.Errorf("unscoped invite rejected email: %v", err)
	}
	scoped := InviteToken{Email: "Coach@Example.com"}
	if err := scoped.CheckEmail("coach@example.com"); err != nil {
		t.Errorf("case-insensitive match rejected: %v", err)
	}
	if err := scoped.CheckEmail("other@example.com"); !errors.Is(err, ErrInviteEmailScoped) {
		t.Errorf("mismatch = %v, want ErrInviteEmailScoped", err)
	}
}
