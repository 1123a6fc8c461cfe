package domain

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between user roles
type Role string

const (
	RoleAthlete Role = "athlete"
	RoleTrainer Role = "trainer"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAthlete, RoleTrainer, RoleAdmin:
		return true
	}
	return false
}

// ParseRole normalizes a role string; unknown values return false.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

// User represents an account of any role.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string             `bson:"email" json:"email"`    // unique
	PasswordHash string             `bson:"passwordHash" json:"-"` // Never expose this via JSON
	FullName     string             `bson:"fullName" json:"fullName"`
	Role         Role               `bson:"role" json:"role"`
	IsActive     bool               `bson:"isActive" json:"isActive"`
	IsLocked     bool               `bson:"isLocked" json:"isLocked"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (u *User) IsAthlete() bool {
	return u.Role == RoleAthlete
}

func (u *User) IsTrainer() bool {
	return u.Role == RoleTrainer
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanCoach reports whether the user may act as a trainer. Admins coach too.
func (u *User) CanCoach() bool {
	return u.Role == RoleTrainer || u.Role == RoleAdmin
}

// CanSignIn is false for locked or deactivated accounts.
func (u *User) CanSignIn() bool {
	return u.IsActive && !u.IsLocked
}

// Can checks the user's role against the capability table.
func (u *User) Can(c Capability) bool {
	return u.Role.Can(c)
}
