package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"etape/training-hub/internal/domain"
	"etape/training-hub/internal/email"
	"etape/training-hub/internal/repository"
	"log"
	"net/mail"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	inviteTokenBytes  = 32
	maxInviteDays     = 90
	defaultInviteDays = int(domain.DefaultInviteExpiry / (24 * time.Hour))
)

// CreateInviteInput describes a new invite. Zero values take defaults.
type CreateInviteInput struct {
	Email         string
	Role          domain.Role
	ExpiresInDays int
}

type InviteService interface {
	Create(ctx context.Context, actor Actor, in CreateInviteInput) (*domain.InviteToken, error)
	List(ctx context.Context) ([]domain.InviteToken, error)
	Deactivate(ctx context.Context, id primitive.ObjectID) error
}

type inviteService struct {
	inviteRepo repository.InviteRepository
	sender     email.Sender
	appBaseURL string
	now        func() time.Time
}

func NewInviteService(inviteRepo repository.InviteRepository, sender email.Sender, appBaseURL string) InviteService {
	return &inviteService{
		inviteRepo: inviteRepo,
		sender:     sender,
		appBaseURL: appBaseURL,
		now:        time.Now,
	}
}

// Create issues an invite and, when it is scoped to an address, emails the link.
// Delivery failures are logged; the invite stays valid and can be shared by hand.
func (s *inviteService) Create(ctx context.Context, actor Actor, in CreateInviteInput) (*domain.InviteToken, error) {
	role := in.Role
	if role == "" {
		role = domain.RoleAthlete
	}
	if !role.Valid() {
		return nil, invalid("invalid role: %s", role)
	}
	days := in.ExpiresInDays
	if days == 0 {
		days = defaultInviteDays
	}
	if days < 1 || days > maxInviteDays {
		return nil, invalid("expiresInDays must be between 1 and %d", maxInviteDays)
	}
	addr := strings.TrimSpace(in.Email)
	if addr != "" {
		if _, err := mail.ParseAddress(addr); err != nil {
			return nil, invalid("invalid email address")
		}
	}

	token, err := newToken(inviteTokenBytes)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	invite := &domain.InviteToken{
		Token:     token,
		Email:     addr,
		Role:      role,
		CreatedBy: actor.ID,
		CreatedAt: now,
		ExpiresAt: now.AddDate(0, 0, days),
		IsActive:  true,
	}
	if _, err := s.inviteRepo.Create(ctx, invite); err != nil {
		return nil, err
	}

	if addr != "" {
		msg := email.InviteEmail(addr, string(role), s.appBaseURL, token, invite.ExpiresAt)
		if _, err := s.sender.Send(ctx, msg); err != nil {
			log.Printf("WARN: Failed to send invite email to %s: %v", addr, err)
		}
	}
	return invite, nil
}

func (s *inviteService) List(ctx context.Context) ([]domain.InviteToken, error) {
	return s.inviteRepo.List(ctx)
}

func (s *inviteService) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	err := s.inviteRepo.Deactivate(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrInviteNotFound
	}
	return err
}

// newToken returns n random bytes, base64url encoded without padding.
func newToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
