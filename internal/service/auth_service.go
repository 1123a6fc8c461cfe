package service

import (
	"context"
	"errors"
	"etape/training-hub/internal/domain"
	"etape/training-hub/internal/repository"
	"log"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength applies to self-registration and admin-created accounts.
const MinPasswordLength = 8

// --- Error Definitions ---
var (
	ErrUserAlreadyExists    = errors.New("user with this email already exists")
	ErrAuthenticationFailed = errors.New("incorrect email or password")
	ErrAccountLocked        = errors.New("account is locked")
	ErrAccountInactive      = errors.New("account is inactive")
	ErrHashingFailed        = errors.New("failed to hash password")
	ErrTokenGeneration      = errors.New("failed to generate authentication token")
	ErrInvalidInvite        = errors.New("invalid invite token")
	ErrInviteNotFound       = errors.New("invite not found")
)

// RegisterInput is a self-registration, optionally redeeming an invite.
type RegisterInput struct {
	Email       string
	Password    string
	FullName    string
	Role        domain.Role
	InviteToken string
}

// InviteInfo is the public view of an invite, shown on the registration page.
type InviteInfo struct {
	Email     string      `json:"email,omitempty"`
	Role      domain.Role `json:"role"`
	ExpiresAt time.Time   `json:"expiresAt"`
	IsValid   bool        `json:"isValid"`
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (token string, user *domain.User, err error)
	Me(ctx context.Context, userID primitive.ObjectID) (*domain.User, error)
	InviteInfo(ctx context.Context, token string) (*InviteInfo, error)
	GetJWTSecret() string
}

// authService implements the AuthService interface.
type authService struct {
	userRepo      repository.UserRepository
	inviteRepo    repository.InviteRepository
	jwtSecret     string
	jwtExpiration time.Duration
	now           func() time.Time
}

// NewAuthService creates a new instance of authService.
func NewAuthService(userRepo repository.UserRepository, inviteRepo repository.InviteRepository, jwtSecret string, jwtExpiration time.Duration) AuthService {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty") // Critical configuration
	}
	if jwtExpiration <= 0 {
		jwtExpiration = 8 * 24 * time.Hour
	}
	return &authService{
		userRepo:      userRepo,
		inviteRepo:    inviteRepo,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
		now:           time.Now,
	}
}

// Register handles new user registration.
func (s *authService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	email := strings.TrimSpace(in.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, invalid("a valid email address is required")
	}
	if len(in.Password) < MinPasswordLength {
		return nil, invalid("password must be at least %d characters", MinPasswordLength)
	}
	if strings.TrimSpace(in.FullName) == "" {
		return nil, invalid("full name is required")
	}

	role := in.Role
	if role == "" {
		role = domain.RoleAthlete
	}
	var invite *domain.InviteToken
	if in.InviteToken != "" {
		var err error
		invite, err = s.redeemable(ctx, in.InviteToken, email)
		if err != nil {
			return nil, err
		}
		role = invite.Role // the invite decides the role
	} else if role == domain.RoleAdmin {
		return nil, invalid("admin accounts can only be created from an invite")
	} else if !role.Valid() {
		return nil, invalid("invalid role: %s", role)
	}

	_, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil, ErrUserAlreadyExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrHashingFailed
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: string(hashedPassword),
		FullName:     strings.TrimSpace(in.FullName),
		Role:         role,
		IsActive:     true,
	}
	userID, err := s.userRepo.Create(ctx, user)
	if err != nil {
		// unique index on email catches a concurrent registration
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}
	user.ID = userID

	if invite != nil {
		if err := s.inviteRepo.MarkUsed(ctx, invite.ID, userID, s.now().UTC()); err != nil {
			// Someone else redeemed it first. Undo the account we just made.
			if delErr := s.userRepo.Delete(ctx, userID); delErr != nil {
				log.Printf("ERROR: Failed to remove user %s after invite race: %v", userID.Hex(), delErr)
			}
			if errors.Is(err, repository.ErrNotFound) {
				return nil, domain.ErrInviteUsed
			}
			return nil, err
		}
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *authService) redeemable(ctx context.Context, token, email string) (*domain.InviteToken, error) {
	invite, err := s.inviteRepo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidInvite
		}
		return nil, err
	}
	if err := invite.Check(s.now()); err != nil {
		return nil, err
	}
	if err := invite.CheckEmail(email); err != nil {
		return nil, err
	}
	return invite, nil
}

// Login handles user authentication and JWT generation.
func (s *authService) Login(ctx context.Context, email, password string) (token string, user *domain.User, err error) {
	if email == "" || password == "" {
		err = invalid("email and password cannot be empty")
		return
	}

	user, err = s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			err = ErrAuthenticationFailed // User not found maps to auth failure
		}
		user = nil
		return
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrAuthenticationFailed
	}
	if user.IsLocked {
		return "", nil, ErrAccountLocked
	}
	if !user.IsActive {
		return "", nil, ErrAccountInactive
	}

	token, err = s.generateJWT(user)
	if err != nil {
		return "", nil, ErrTokenGeneration
	}

	user.PasswordHash = ""
	return token, user, nil
}

// Me returns the account behind a validated token.
func (s *authService) Me(ctx context.Context, userID primitive.ObjectID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *authService) InviteInfo(ctx context.Context, token string) (*InviteInfo, error) {
	invite, err := s.inviteRepo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, err
	}
	return &InviteInfo{
		Email:     invite.Email,
		Role:      invite.Role,
		ExpiresAt: invite.ExpiresAt,
		IsValid:   invite.IsValid(s.now()),
	}, nil
}

// --- JWT Helper ---

// jwtClaims defines the structure of the JWT payload.
type jwtClaims struct {
	UserID string      `json:"uid"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// generateJWT creates a new JWT token for the given user.
func (s *authService) generateJWT(user *domain.User) (string, error) {
	now := s.now()
	claims := &jwtClaims{
		UserID: user.ID.Hex(),
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.Hex(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtExpiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "etape",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// GetJWTSecret returns the JWT secret for middleware authentication
func (s *authService) GetJWTSecret() string {
	return s.jwtSecret
}
