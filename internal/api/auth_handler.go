package api

import (
	"errors"
	"etape/training-hub/internal/domain"
	"etape/training-hub/internal/service"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// AuthHandler holds the authentication service dependency.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// --- Request/Response Structs ---

type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	FullName    string `json:"fullName" binding:"required"`
	Role        string `json:"role" binding:"omitempty,oneof=athlete trainer admin"`
	InviteToken string `json:"inviteToken"`
}

// UserResponse excludes sensitive info like password hash
type UserResponse struct {
	ID           string              `json:"id"`
	Email        string              `json:"email"`
	FullName     string              `json:"fullName"`
	Role         domain.Role         `json:"role"`
	IsActive     bool                `json:"isActive"`
	IsLocked     bool                `json:"isLocked"`
	CreatedAt    time.Time           `json:"createdAt"`
	Capabilities []domain.Capability `json:"capabilities"`
}

// LoginRequest is form-encoded, OAuth2 password-flow style.
type LoginRequest struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

type LoginResponse struct {
	AccessToken string       `json:"accessToken"`
	TokenType   string       `json:"tokenType"`
	User        UserResponse `json:"user"`
}

// --- Handler Methods ---

// Register godoc
// @Summary Register a new user
// @Description Self-registration as athlete or trainer; an invite token forces its role.
// @Tags Auth
// @Accept json
// @Produce json
// @Param user body RegisterRequest true "Registration details"
// @Success 201 {object} UserResponse "User created successfully"
// @Failure 400 {object} gin.H "Invalid input or invite"
// @Failure 409 {object} gin.H "Conflict (email already exists)"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	user, err := h.authService.Register(c.Request.Context(), service.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		FullName:    req.FullName,
		Role:        domain.Role(req.Role),
		InviteToken: req.InviteToken,
	})
	if err != nil {
		if errors.Is(err, service.ErrHashingFailed) {
			abortWithError(c, http.StatusInternalServerError, "Could not process registration")
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, MapUserToResponse(user))
}

// Login godoc
// @Summary Log in a user
// @Description Authenticates with form fields username (the email) and password and returns a bearer token.
// @Tags Auth
// @Accept x-www-form-urlencoded
// @Produce json
// @Success 200 {object} LoginResponse "Login successful"
// @Failure 401 {object} gin.H "Incorrect email or password"
// @Failure 403 {object} gin.H "Account locked or inactive"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	token, user, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrTokenGeneration) {
			abortWithError(c, http.StatusInternalServerError, "Could not process login")
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        MapUserToResponse(user),
	})
}

// Me godoc
// @Summary Current user
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserResponse
// @Failure 401 {object} gin.H "Token user no longer exists"
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	user, err := h.authService.Me(c.Request.Context(), actor.ID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			abortWithError(c, http.StatusUnauthorized, "User no longer exists")
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(user))
}

// InviteInfo godoc
// @Summary Validate an invite token
// @Tags Auth
// @Produce json
// @Param token path string true "Invite token"
// @Success 200 {object} service.InviteInfo
// @Failure 404 {object} gin.H "Unknown token"
// @Router /auth/invite/{token} [get]
func (h *AuthHandler) InviteInfo(c *gin.Context) {
	info, err := h.authService.InviteInfo(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// MapUserToResponse converts a domain User to a UserResponse DTO.
// Crucially excludes PasswordHash.
func MapUserToResponse(user *domain.User) UserResponse {
	if user == nil {
		return UserResponse{}
	}
	caps := domain.CapabilitiesFor(user.Role)
	if caps == nil {
		caps = []domain.Capability{}
	}
	return UserResponse{
		ID:           user.ID.Hex(),
		Email:        user.Email,
		FullName:     user.FullName,
		Role:         user.Role,
		IsActive:     user.IsActive,
		IsLocked:     user.IsLocked,
		CreatedAt:    user.CreatedAt,
		Capabilities: caps,
	}
}

// MapUsersToResponse maps a list, never returning nil.
func MapUsersToResponse(users []domain.User) []UserResponse {
	out := make([]UserResponse, len(users))
	for i := range users {
		out[i] = MapUserToResponse(&users[i])
	}
	return out
}
