package api

import (
	"etape/training-hub/internal/domain"
	"etape/training-hub/internal/repository"
	"etape/training-hub/internal/service"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AdminHandler serves user, assignment and invite administration.
type AdminHandler struct {
	admin   service.AdminService
	invites service.InviteService
}

func NewAdminHandler(admin service.AdminService, invites service.InviteService) *AdminHandler {
	return &AdminHandler{admin: admin, invites: invites}
}

type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=athlete trainer admin"`
}

type LockRequest struct {
	Locked *bool `json:"locked" binding:"required"`
}

type CreateAssignmentRequest struct {
	TrainerID string `json:"trainerId" binding:"required"`
	AthleteID string `json:"athleteId" binding:"required"`
	Notes     string `json:"notes"`
}

type CreateInviteRequest struct {
	Email         string `json:"email" binding:"omitempty,email"`
	Role          string `json:"role" binding:"omitempty,oneof=athlete trainer admin"`
	ExpiresInDays int    `json:"expiresInDays" binding:"omitempty,min=1,max=90"`
}

// --- Users ---

// ListUsers godoc
// @Summary List users
// @Tags Admin
// @Produce json
// @Param role query string false "athlete, trainer or admin"
// @Success 200 {array} UserResponse
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, ok := parsePage(c, 100, 500)
	if !ok {
		return
	}
	filter := repository.UserFilter{Page: page}
	if s := c.Query("role"); s != "" {
		role, valid := domain.ParseRole(s)
		if !valid {
			abortWithError(c, http.StatusBadRequest, "Invalid role filter")
			return
		}
		filter.Role = role
	}
	users, err := h.admin.ListUsers(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapUsersToResponse(users))
}

func (h *AdminHandler) GetUser(c *gin.Context) {
	userID, ok := parseIDParam(c, "userId")
	if !ok {
		return
	}
	user, err := h.admin.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(user))
}

// ChangeRole godoc
// @Summary Change a user's role
// @Tags Admin
// @Accept json
// @Produce json
// @Param userId path string true "User ID"
// @Param role body ChangeRoleRequest true "New role"
// @Success 200 {object} UserResponse
// @Failure 400 {object} gin.H "Would leave no active admin"
// @Router /admin/users/{userId}/role [put]
func (h *AdminHandler) ChangeRole(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	userID, ok := parseIDParam(c, "userId")
	if !ok {
		return
	}
	var req ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	user, err := h.admin.ChangeRole(c.Request.Context(), actor, userID, domain.Role(req.Role))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(user))
}

// SetLocked godoc
// @Summary Lock or unlock an account
// @Description Idempotent. Admins cannot lock themselves.
// @Tags Admin
// @Accept json
// @Produce json
// @Param userId path string true "User ID"
// @Param lock body LockRequest true "Desired state"
// @Success 200 {object} UserResponse
// @Router /admin/users/{userId}/lock [put]
func (h *AdminHandler) SetLocked(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	userID, ok := parseIDParam(c, "userId")
	if !ok {
		return
	}
	var req LockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	user, err := h.admin.SetLocked(c.Request.Context(), actor, userID, *req.Locked)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(user))
}

// DeleteUser godoc
// @Summary Delete an account
// @Tags Admin
// @Param userId path string true "User ID"
// @Success 204
// @Failure 400 {object} gin.H "Self or last admin"
// @Router /admin/users/{userId} [delete]
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	userID, ok := parseIDParam(c, "userId")
	if !ok {
		return
	}
	if err := h.admin.DeleteUser(c.Request.Context(), actor, userID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Assignments ---

// ListAssignments godoc
// @Summary List assignments
// @Tags Admin
// @Produce json
// @Param activeOnly query bool false "Defaults to true"
// @Success 200 {array} AssignmentResponse
// @Router /admin/assignments [get]
func (h *AdminHandler) ListAssignments(c *gin.Context) {
	activeOnly := true
	if s := c.Query("activeOnly"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "activeOnly must be true or false")
			return
		}
		activeOnly = v
	}
	assignments, err := h.admin.ListAssignments(c.Request.Context(), activeOnly)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapAssignmentsToResponse(assignments))
}

func (h *AdminHandler) CreateAssignment(c *gin.Context) {
	var req CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	trainerID, err := primitive.ObjectIDFromHex(req.TrainerID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid trainerId format")
		return
	}
	athleteID, err := primitive.ObjectIDFromHex(req.AthleteID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid athleteId format")
		return
	}
	assignment, err := h.admin.CreateAssignment(c.Request.Context(), trainerID, athleteID, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapAssignmentToResponse(assignment))
}

func (h *AdminHandler) DeactivateAssignment(c *gin.Context) {
	assignmentID, ok := parseIDParam(c, "assignmentId")
	if !ok {
		return
	}
	if err := h.admin.DeactivateAssignment(c.Request.Context(), assignmentID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Stats godoc
// @Summary Platform totals
// @Tags Admin
// @Produce json
// @Success 200 {object} service.Stats
// @Router /admin/stats [get]
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.admin.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// --- Invites ---

// CreateInvite godoc
// @Summary Issue an invite token
// @Description When an email is given the invite is also mailed; a failed delivery does not fail the request.
// @Tags Admin
// @Accept json
// @Produce json
// @Param invite body CreateInviteRequest true "Invite"
// @Success 201 {object} domain.InviteToken
// @Router /admin/invites [post]
func (h *AdminHandler) CreateInvite(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	var req CreateInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	invite, err := h.invites.Create(c.Request.Context(), actor, service.CreateInviteInput{
		Email:         req.Email,
		Role:          domain.Role(req.Role),
		ExpiresInDays: req.ExpiresInDays,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, invite)
}

func (h *AdminHandler) ListInvites(c *gin.Context) {
	invites, err := h.invites.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if invites == nil {
		invites = []domain.InviteToken{}
	}
	c.JSON(http.StatusOK, invites)
}

func (h *AdminHandler) DeactivateInvite(c *gin.Context) {
	inviteID, ok := parseIDParam(c, "inviteId")
	if !ok {
		return
	}
	if err := h.invites.Deactivate(c.Request.Context(), inviteID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
