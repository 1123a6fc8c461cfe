package api

import (
	"etape/training-hub/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LogHandler serves per-user CRUD for one activity log (rides, workouts, goals, nutrition).
type LogHandler[T any] struct {
	logs service.LogService[T]
}

func NewLogHandler[T any](logs service.LogService[T]) *LogHandler[T] {
	return &LogHandler[T]{logs: logs}
}

// Register mounts the CRUD routes on group.
func (h *LogHandler[T]) Register(group *gin.RouterGroup) {
	group.GET("", h.List)
	group.POST("", h.Create)
	group.GET("/:id", h.Get)
	group.PUT("/:id", h.Update)
	group.DELETE("/:id", h.Delete)
}

// List returns the caller's records plus those of athletes they coach, or one user's with ?userId.
func (h *LogHandler[T]) List(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	page, ok := parsePage(c, 100, 500)
	if !ok {
		return
	}
	var userID *primitive.ObjectID
	if s := c.Query("userId"); s != "" {
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid userId format")
			return
		}
		userID = &id
	}
	records, err := h.logs.List(c.Request.Context(), actor, userID, page)
	if err != nil {
		respondError(c, err)
		return
	}
	if records == nil {
		records = []T{}
	}
	c.JSON(http.StatusOK, records)
}

func (h *LogHandler[T]) Get(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	record, err := h.logs.Get(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *LogHandler[T]) Create(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	doc, ok := bindRecord[T](c)
	if !ok {
		return
	}
	created, err := h.logs.Create(c.Request.Context(), actor, doc)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// Update changes only the fields present in the body. Owner only.
func (h *LogHandler[T]) Update(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	patch, ok := bindPatch(c)
	if !ok {
		return
	}
	updated, err := h.logs.Update(c.Request.Context(), actor, id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *LogHandler[T]) Delete(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.logs.Delete(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
