package api

import (
	"encoding/json"
	"etape/training-hub/internal/service"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// serverFields are set by the server and dropped from create and update bodies.
var serverFields = []string{"id", "userId", "planId", "createdAt", "updatedAt", "completedAt"}

// bindPatch reads a partial update body.
func bindPatch(c *gin.Context) (service.Patch, bool) {
	var patch service.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return nil, false
	}
	for _, k := range serverFields {
		delete(patch, k)
	}
	if len(patch) == 0 {
		abortWithError(c, http.StatusBadRequest, "Validation error: no fields to update")
		return nil, false
	}
	return patch, true
}

// bindRecord decodes a new record of type T, ignoring any server-controlled fields in the body.
func bindRecord[T any](c *gin.Context) (*T, bool) {
	var body map[string]json.RawMessage
	if err := c.ShouldBindJSON(&body); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return nil, false
	}
	for _, k := range serverFields {
		delete(body, k)
	}
	raw, err := json.Marshal(body)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return nil, false
	}
	doc := new(T)
	if err := json.Unmarshal(raw, doc); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return nil, false
	}
	return doc, true
}
