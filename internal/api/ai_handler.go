package api

import (
	"etape/training-hub/internal/ai"
	"etape/training-hub/internal/domain"
	"etape/training-hub/internal/service"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AIHandler serves the plan builder and the coaching chat.
type AIHandler struct {
	builder service.PlanBuilderService
	chat    service.ChatService
}

func NewAIHandler(builder service.PlanBuilderService, chat service.ChatService) *AIHandler {
	return &AIHandler{builder: builder, chat: chat}
}

type FromParsedRequest struct {
	AthleteIDs []string          `json:"athleteIds" binding:"required,min=1"`
	StartDate  string            `json:"startDate" binding:"required"`
	Plan       domain.ParsedPlan `json:"plan"`
}

type ChatTurn struct {
	Role    string `json:"role" binding:"required,oneof=user assistant"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Message string     `json:"message" binding:"required"`
	History []ChatTurn `json:"history" binding:"dive"`
}

type ChatResponse struct {
	Reply string `json:"reply"`
}

// ParsePlanDocument godoc
// @Summary Extract a plan template from a PDF or text file
// @Tags TrainingPlans
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Plan document"
// @Success 200 {object} domain.ParsedPlan
// @Failure 400 {object} gin.H "Unsupported file or too little text"
// @Failure 503 {object} gin.H "No AI provider configured"
// @Router /training-plans/parse-pdf [post]
func (h *AIHandler) ParsePlanDocument(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, service.MaxDocumentSize+1<<20)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: file is required (%v)", err))
		return
	}
	if fileHeader.Size > service.MaxDocumentSize {
		respondError(c, service.ErrDocumentTooLarge)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Could not read uploaded file")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Could not read uploaded file")
		return
	}

	plan, err := h.builder.ParseDocument(c.Request.Context(), fileHeader.Filename, data)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// CreateFromParsed godoc
// @Summary Create one plan per athlete from a parsed template
// @Description Athletes are processed in order; the first failure stops the run and is reported with the athletes already done.
// @Tags TrainingPlans
// @Accept json
// @Produce json
// @Param request body FromParsedRequest true "Template, start date (YYYY-MM-DD) and athletes"
// @Success 201 {object} service.FromParsedResult
// @Router /training-plans/from-parsed [post]
func (h *AIHandler) CreateFromParsed(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	var req FromParsedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "startDate must be YYYY-MM-DD")
		return
	}
	athleteIDs := make([]primitive.ObjectID, 0, len(req.AthleteIDs))
	for _, s := range req.AthleteIDs {
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid athleteIds format")
			return
		}
		athleteIDs = append(athleteIDs, id)
	}

	result, err := h.builder.CreateFromParsed(c.Request.Context(), actor, service.FromParsedInput{
		AthleteIDs: athleteIDs,
		StartDate:  start,
		Plan:       req.Plan,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"plans": mapPlansToResponse(result.Plans)})
}

// Chat godoc
// @Summary Ask the coaching assistant
// @Tags Chat
// @Accept json
// @Produce json
// @Param request body ChatRequest true "Message and prior turns"
// @Success 200 {object} ChatResponse
// @Failure 503 {object} gin.H "No AI provider configured"
// @Router /chat [post]
func (h *AIHandler) Chat(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		abortWithError(c, http.StatusBadRequest, "Validation error: message is required")
		return
	}
	history := make([]ai.Turn, len(req.History))
	for i, t := range req.History {
		history[i] = ai.Turn{Role: t.Role, Content: t.Content}
	}

	reply, err := h.chat.Chat(c.Request.Context(), actor, req.Message, history)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ChatResponse{Reply: reply})
}

// parseDate accepts a calendar date or a full RFC 3339 timestamp and returns midnight UTC.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

func mapPlansToResponse(plans []domain.TrainingPlan) []PlanResponse {
	out := make([]PlanResponse, len(plans))
	for i := range plans {
		out[i] = MapPlanToResponse(&plans[i])
	}
	return out
}
