package domain

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultInviteExpiry applies when an admin does not pick a lifetime.
const DefaultInviteExpiry = 7 * 24 * time.Hour

// InviteToken pre-authorizes one registration, optionally for a given email and role.
type InviteToken struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Token     string              `bson:"token" json:"token"`
	Email     string              `bson:"email,omitempty" json:"email,omitempty"`
	Role      Role                `bson:"role" json:"role"`
	CreatedBy primitive.ObjectID  `bson:"createdBy" json:"createdBy"`
	CreatedAt time.Time           `bson:"createdAt" json:"createdAt"`
	ExpiresAt time.Time           `bson:"expiresAt" json:"expiresAt"`
	UsedAt    *time.Time          `bson:"usedAt,omitempty" json:"usedAt,omitempty"`
	UsedBy    *primitive.ObjectID `bson:"usedBy,omitempty" json:"usedBy,omitempty"`
	IsActive  bool                `bson:"isActive" json:"isActive"`
}

// Check returns nil when the invite can be redeemed at now, or the reason it cannot.
func (t *InviteToken) Check(now time.Time) error {
	switch {
	case t.UsedAt != nil:
		return ErrInviteUsed
	case !now.Before(t.ExpiresAt):
		return ErrInviteExpired
	case !t.IsActive:
		return ErrInviteInactive
	}
	return nil
}

// IsValid is Check without the reason.
func (t *InviteToken) IsValid(now time.Time) bool {
	return t.Check(now) == nil
}

// CheckEmail rejects redemption under an address other than the scoped one.
func (t *InviteToken) CheckEmail(email string) error {
	if t.Email != "" && !strings.EqualFold(t.Email, email) {
		return ErrInviteEmailScoped
	}
	return nil
}
