package api

import (
	"etape/training-hub/internal/domain"
	"etape/training-hub/internal/service"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RelationshipHandler serves trainer requests and the assignments they produce.
type RelationshipHandler struct {
	relationships service.RelationshipService
}

func NewRelationshipHandler(relationships service.RelationshipService) *RelationshipHandler {
	return &RelationshipHandler{relationships: relationships}
}

type SendRequestRequest struct {
	TrainerID string `json:"trainerId" binding:"required"`
	Message   string `json:"message" binding:"max=1000"`
}

type RespondRequest struct {
	Approve *bool `json:"approve" binding:"required"`
}

type TrainerRequestResponse struct {
	ID          string               `json:"id"`
	AthleteID   string               `json:"athleteId"`
	TrainerID   string               `json:"trainerId"`
	Status      domain.RequestStatus `json:"status"`
	Message     string               `json:"message,omitempty"`
	CreatedAt   time.Time            `json:"createdAt"`
	RespondedAt *time.Time           `json:"respondedAt,omitempty"`
	Athlete     *UserResponse        `json:"athlete,omitempty"`
	Trainer     *UserResponse        `json:"trainer,omitempty"`
}

type AssignmentResponse struct {
	ID         string        `json:"id"`
	TrainerID  string        `json:"trainerId"`
	AthleteID  string        `json:"athleteId"`
	IsActive   bool          `json:"isActive"`
	AssignedAt time.Time     `json:"assignedAt"`
	Notes      string        `json:"notes,omitempty"`
	Athlete    *UserResponse `json:"athlete,omitempty"`
	Trainer    *UserResponse `json:"trainer,omitempty"`
}

// SearchTrainers godoc
// @Summary Search coaches by name or email
// @Tags TrainerRequests
// @Produce json
// @Param q query string false "Search text"
// @Success 200 {array} UserResponse
// @Router /trainer-requests/trainers/search [get]
func (h *RelationshipHandler) SearchTrainers(c *gin.Context) {
	page, ok := parsePage(c, 20, 100)
	if !ok {
		return
	}
	query := c.Query("q")
	if query == "" {
		query = c.Query("query")
	}
	users, err := h.relationships.SearchTrainers(c.Request.Context(), strings.TrimSpace(query), page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapUsersToResponse(users))
}

// SendRequest godoc
// @Summary Ask a trainer for coaching
// @Tags TrainerRequests
// @Accept json
// @Produce json
// @Param request body SendRequestRequest true "Target trainer"
// @Success 201 {object} TrainerRequestResponse
// @Failure 400 {object} gin.H "Not a trainer, self, pending or already connected"
// @Failure 404 {object} gin.H "Unknown trainer"
// @Router /trainer-requests [post]
func (h *RelationshipHandler) SendRequest(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	var req SendRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	trainerID, err := primitive.ObjectIDFromHex(req.TrainerID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid trainerId format")
		return
	}

	created, err := h.relationships.SendRequest(c.Request.Context(), actor, trainerID, strings.TrimSpace(req.Message))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapRequestToResponse(created))
}

// ListRequests godoc
// @Summary Requests received (coaches) or sent (athletes)
// @Tags TrainerRequests
// @Produce json
// @Success 200 {array} TrainerRequestResponse
// @Router /trainer-requests [get]
func (h *RelationshipHandler) ListRequests(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	requests, err := h.relationships.ListRequests(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]TrainerRequestResponse, len(requests))
	for i := range requests {
		out[i] = MapRequestToResponse(&requests[i])
	}
	c.JSON(http.StatusOK, out)
}

// Respond godoc
// @Summary Approve or reject a pending request
// @Tags TrainerRequests
// @Accept json
// @Produce json
// @Param requestId path string true "Request ID"
// @Param answer body RespondRequest true "Decision"
// @Success 200 {object} TrainerRequestResponse
// @Failure 400 {object} gin.H "Already responded"
// @Failure 404 {object} gin.H "Not found or not addressed to the caller"
// @Router /trainer-requests/{requestId}/respond [put]
func (h *RelationshipHandler) Respond(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	requestID, ok := parseIDParam(c, "requestId")
	if !ok {
		return
	}
	var req RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	resolved, err := h.relationships.Respond(c.Request.Context(), actor, requestID, *req.Approve)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapRequestToResponse(resolved))
}

// ListAssignments godoc
// @Summary Active assignments involving the caller
// @Tags TrainerRequests
// @Produce json
// @Success 200 {array} AssignmentResponse
// @Router /trainer-requests/assignments [get]
func (h *RelationshipHandler) ListAssignments(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	assignments, err := h.relationships.ListAssignments(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapAssignmentsToResponse(assignments))
}

// MyAthletes godoc
// @Summary Athletes actively coached by the caller
// @Tags TrainerRequests
// @Produce json
// @Success 200 {array} UserResponse
// @Router /trainer-requests/my-athletes [get]
func (h *RelationshipHandler) MyAthletes(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	athletes, err := h.relationships.MyAthletes(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapUsersToResponse(athletes))
}

// DeleteAssignment godoc
// @Summary End a coaching relationship
// @Tags TrainerRequests
// @Param assignmentId path string true "Assignment ID"
// @Success 204
// @Failure 403 {object} gin.H "Caller is not part of the assignment"
// @Router /trainer-requests/assignments/{assignmentId} [delete]
func (h *RelationshipHandler) DeleteAssignment(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	assignmentID, ok := parseIDParam(c, "assignmentId")
	if !ok {
		return
	}
	if err := h.relationships.DeleteAssignment(c.Request.Context(), actor, assignmentID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func mapOptionalUser(u *domain.User) *UserResponse {
	if u == nil {
		return nil
	}
	resp := MapUserToResponse(u)
	return &resp
}

func MapRequestToResponse(r *domain.TrainerRequest) TrainerRequestResponse {
	return TrainerRequestResponse{
		ID:          r.ID.Hex(),
		AthleteID:   r.AthleteID.Hex(),
		TrainerID:   r.TrainerID.Hex(),
		Status:      r.Status,
		Message:     r.Message,
		CreatedAt:   r.CreatedAt,
		RespondedAt: r.RespondedAt,
		Athlete:     mapOptionalUser(r.Athlete),
		Trainer:     mapOptionalUser(r.Trainer),
	}
}

func MapAssignmentToResponse(a *domain.TrainerAssignment) AssignmentResponse {
	return AssignmentResponse{
		ID:         a.ID.Hex(),
		TrainerID:  a.TrainerID.Hex(),
		AthleteID:  a.AthleteID.Hex(),
		IsActive:   a.IsActive,
		AssignedAt: a.AssignedAt,
		Notes:      a.Notes,
		Athlete:    mapOptionalUser(a.Athlete),
		Trainer:    mapOptionalUser(a.Trainer),
	}
}

func MapAssignmentsToResponse(assignments []domain.TrainerAssignment) []AssignmentResponse {
	out := make([]AssignmentResponse, len(assignments))
	for i := range assignments {
		out[i] = MapAssignmentToResponse(&assignments[i])
	}
	return out
}
