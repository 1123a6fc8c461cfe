package api

import (
	"errors"
	"etape/training-hub/internal/domain"
	"etape/training-hub/internal/service"
	"fmt"
	"mime"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TrainingPlanHandler serves plans, their nested records and documents.
type TrainingPlanHandler struct {
	plans service.TrainingPlanService
}

func NewTrainingPlanHandler(plans service.TrainingPlanService) *TrainingPlanHandler {
	return &TrainingPlanHandler{plans: plans}
}

var errInvalidAthleteID = errors.New("Invalid athleteId format")

// --- Request/Response Structs ---

type CreatePlanRequest struct {
	AthleteID   string     `json:"athleteId" binding:"required"`
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
}

// BatchPlanRequest creates a plan and all its children in one call.
type BatchPlanRequest struct {
	Plan      CreatePlanRequest       `json:"plan" binding:"required"`
	Workouts  []domain.PlannedWorkout `json:"workouts"`
	Goals     []domain.PlannedGoal    `json:"goals"`
	Nutrition []domain.NutritionPlan  `json:"nutrition"`
}

// PlanResponse adds the rendered Markdown description to a plan.
type PlanResponse struct {
	domain.TrainingPlan
	DescriptionHTML string `json:"descriptionHtml,omitempty"`
}

type PlanBundleResponse struct {
	Plan      PlanResponse            `json:"plan"`
	Workouts  []domain.PlannedWorkout `json:"workouts"`
	Goals     []domain.PlannedGoal    `json:"goals"`
	Nutrition []domain.NutritionPlan  `json:"nutrition"`
}

func (r CreatePlanRequest) toDomain() (*domain.TrainingPlan, error) {
	athleteID, err := primitive.ObjectIDFromHex(r.AthleteID)
	if err != nil {
		return nil, errInvalidAthleteID
	}
	return &domain.TrainingPlan{
		AthleteID:   athleteID,
		Title:       r.Title,
		Description: r.Description,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
	}, nil
}

// --- Plans ---

// ListPlans godoc
// @Summary Plans visible to the caller
// @Tags TrainingPlans
// @Produce json
// @Param athleteId query string false "Narrow to one athlete"
// @Success 200 {array} PlanResponse
// @Router /training-plans [get]
func (h *TrainingPlanHandler) ListPlans(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	var athleteID *primitive.ObjectID
	if s := c.Query("athleteId"); s != "" {
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid athleteId format")
			return
		}
		athleteID = &id
	}
	plans, err := h.plans.List(c.Request.Context(), actor, athleteID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapPlansToResponse(plans))
}

// GetPlan godoc
// @Summary A plan with its workouts, goals and nutrition
// @Tags TrainingPlans
// @Produce json
// @Param planId path string true "Plan ID"
// @Success 200 {object} PlanBundleResponse
// @Failure 403 {object} gin.H "Not the plan's trainer or athlete"
// @Failure 404 {object} gin.H "Plan not found"
// @Router /training-plans/{planId} [get]
func (h *TrainingPlanHandler) GetPlan(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	planID, ok := parseIDParam(c, "planId")
	if !ok {
		return
	}
	bundle, err := h.plans.GetBundle(c.Request.Context(), actor, planID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapBundleToResponse(bundle))
}

// CreatePlan godoc
// @Summary Create a plan for an assigned athlete
// @Tags TrainingPlans
// @Accept json
// @Produce json
// @Param plan body CreatePlanRequest true "Plan"
// @Success 201 {object} PlanResponse
// @Failure 403 {object} gin.H "Athlete not assigned to the caller"
// @Router /training-plans [post]
func (h *TrainingPlanHandler) CreatePlan(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	plan, err := req.toDomain()
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	created, err := h.plans.Create(c.Request.Context(), actor, plan)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapPlanToResponse(created))
}

// CreatePlanBatch godoc
// @Summary Create a plan with all its children
// @Description Either everything is stored or nothing is: a failed child write removes the plan again.
// @Tags TrainingPlans
// @Accept json
// @Produce json
// @Param bundle body BatchPlanRequest true "Plan and children"
// @Success 201 {object} PlanBundleResponse
// @Router /training-plans/batch [post]
func (h *TrainingPlanHandler) CreatePlanBatch(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	var req BatchPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	plan, err := req.Plan.toDomain()
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	bundle := &domain.PlanBundle{Plan: *plan, Workouts: req.Workouts, Goals: req.Goals, Nutrition: req.Nutrition}
	for i := range bundle.Workouts {
		bundle.Workouts[i].PlanItem = domain.PlanItem{}
		bundle.Workouts[i].CompletedAt = nil
	}
	for i := range bundle.Goals {
		bundle.Goals[i].PlanItem = domain.PlanItem{}
	}
	for i := range bundle.Nutrition {
		bundle.Nutrition[i].PlanItem = domain.PlanItem{}
	}

	created, err := h.plans.CreateBundle(c.Request.Context(), actor, bundle)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapBundleToResponse(created))
}

// UpdatePlan godoc
// @Summary Change plan fields
// @Description Only the fields present in the body change. Trainer and athlete cannot be reassigned.
// @Tags TrainingPlans
// @Accept json
// @Produce json
// @Param planId path string true "Plan ID"
// @Success 200 {object} PlanResponse
// @Router /training-plans/{planId} [put]
func (h *TrainingPlanHandler) UpdatePlan(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	planID, ok := parseIDParam(c, "planId")
	if !ok {
		return
	}
	patch, ok := bindPatch(c)
	if !ok {
		return
	}
	updated, err := h.plans.Update(c.Request.Context(), actor, planID, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapPlanToResponse(updated))
}

// DeletePlan godoc
// @Summary Delete a plan, its children and its documents
// @Tags TrainingPlans
// @Param planId path string true "Plan ID"
// @Success 204
// @Router /training-plans/{planId} [delete]
func (h *TrainingPlanHandler) DeletePlan(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	planID, ok := parseIDParam(c, "planId")
	if !ok {
		return
	}
	if err := h.plans.Delete(c.Request.Context(), actor, planID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Documents ---

// UploadDocument godoc
// @Summary Attach a file to a plan
// @Tags TrainingPlans
// @Accept multipart/form-data
// @Produce json
// @Param planId path string true "Plan ID"
// @Param file formData file true ".pdf, .txt, .doc or .docx, at most 10 MB"
// @Param description formData string false "Description"
// @Success 201 {object} domain.TrainingDocument
// @Router /training-plans/{planId}/documents [post]
func (h *TrainingPlanHandler) UploadDocument(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	planID, ok := parseIDParam(c, "planId")
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, service.MaxDocumentSize+1<<20)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: file is required (%v)", err))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Could not read uploaded file")
		return
	}
	defer file.Close()

	doc, err := h.plans.UploadDocument(c.Request.Context(), actor, planID, service.DocumentUpload{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Body:        file,
		Description: c.PostForm("description"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

// ListDocuments godoc
// @Summary Documents attached to a plan
// @Tags TrainingPlans
// @Produce json
// @Param planId path string true "Plan ID"
// @Success 200 {array} domain.TrainingDocument
// @Router /training-plans/{planId}/documents [get]
func (h *TrainingPlanHandler) ListDocuments(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	planID, ok := parseIDParam(c, "planId")
	if !ok {
		return
	}
	docs, err := h.plans.ListDocuments(c.Request.Context(), actor, planID)
	if err != nil {
		respondError(c, err)
		return
	}
	if docs == nil {
		docs = []domain.TrainingDocument{}
	}
	c.JSON(http.StatusOK, docs)
}

// DownloadDocument godoc
// @Summary Stream a plan document
// @Tags TrainingPlans
// @Produce octet-stream
// @Param planId path string true "Plan ID"
// @Param docId path string true "Document ID"
// @Success 200 {file} binary
// @Router /training-plans/{planId}/documents/{docId}/download [get]
func (h *TrainingPlanHandler) DownloadDocument(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	planID, ok := parseIDParam(c, "planId")
	if !ok {
		return
	}
	docID, ok := parseIDParam(c, "docId")
	if !ok {
		return
	}
	doc, obj, err := h.plans.OpenDocument(c.Request.Context(), actor, planID, docID)
	if err != nil {
		respondError(c, err)
		return
	}
	defer obj.Body.Close()

	contentType := obj.ContentType
	if contentType == "" {
		contentType = doc.ContentType
	}
	size := obj.Size
	if size <= 0 {
		size = doc.Size
	}
	headers := map[string]string{
		"Content-Disposition": mime.FormatMediaType("attachment", map[string]string{"filename": doc.Filename}),
	}
	c.DataFromReader(http.StatusOK, size, contentType, obj.Body, headers)
}

// DeleteDocument godoc
// @Summary Remove a document and its stored file
// @Tags TrainingPlans
// @Param planId path string true "Plan ID"
// @Param docId path string true "Document ID"
// @Success 204
// @Router /training-plans/{planId}/documents/{docId} [delete]
func (h *TrainingPlanHandler) DeleteDocument(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	planID, ok := parseIDParam(c, "planId")
	if !ok {
		return
	}
	docID, ok := parseIDParam(c, "docId")
	if !ok {
		return
	}
	if err := h.plans.DeleteDocument(c.Request.Context(), actor, planID, docID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MapPlanToResponse renders the plan's Markdown description alongside it.
func MapPlanToResponse(plan *domain.TrainingPlan) PlanResponse {
	return PlanResponse{TrainingPlan: *plan, DescriptionHTML: renderMarkdown(plan.Description)}
}

func MapBundleToResponse(b *domain.PlanBundle) PlanBundleResponse {
	resp := PlanBundleResponse{
		Plan:      MapPlanToResponse(&b.Plan),
		Workouts:  b.Workouts,
		Goals:     b.Goals,
		Nutrition: b.Nutrition,
	}
	if resp.Workouts == nil {
		resp.Workouts = []domain.PlannedWorkout{}
	}
	if resp.Goals == nil {
		resp.Goals = []domain.PlannedGoal{}
	}
	if resp.Nutrition == nil {
		resp.Nutrition = []domain.NutritionPlan{}
	}
	return resp
}

// PlanChildHandler serves one kind of record nested under /training-plans/:planId.
type PlanChildHandler[T any] struct {
	items service.PlanChildService[T]
}

func NewPlanChildHandler[T any](items service.PlanChildService[T]) *PlanChildHandler[T] {
	return &PlanChildHandler[T]{items: items}
}

func (h *PlanChildHandler[T]) List(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	planID, ok := parseIDParam(c, "planId")
	if !ok {
		return
	}
	items, err := h.items.List(c.Request.Context(), actor, planID)
	if err != nil {
		respondError(c, err)
		return
	}
	if items == nil {
		items = []T{}
	}
	c.JSON(http.StatusOK, items)
}

func (h *PlanChildHandler[T]) Add(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	planID, ok := parseIDParam(c, "planId")
	if !ok {
		return
	}
	doc, ok := bindRecord[T](c)
	if !ok {
		return
	}
	created, err := h.items.Add(c.Request.Context(), actor, planID, doc)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// Update applies a partial update. The plan's athlete may only send progress fields.
func (h *PlanChildHandler[T]) Update(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	planID, ok := parseIDParam(c, "planId")
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "itemId")
	if !ok {
		return
	}
	patch, ok := bindPatch(c)
	if !ok {
		return
	}
	updated, err := h.items.Update(c.Request.Context(), actor, planID, itemID, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *PlanChildHandler[T]) Delete(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	planID, ok := parseIDParam(c, "planId")
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "itemId")
	if !ok {
		return
	}
	if err := h.items.Delete(c.Request.Context(), actor, planID, itemID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
