package api

import (
	"errors"
	"etape/training-hub/internal/ai"
	"etape/training-hub/internal/domain"
	"etape/training-hub/internal/repository"
	"etape/training-hub/internal/service"
	"etape/training-hub/internal/strava"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// errorStatuses maps service sentinels to HTTP statuses. Their messages are client-safe.
var errorStatuses = []struct {
	err    error
	status int
}{
	{domain.ErrRequestResolved, http.StatusBadRequest},
	{domain.ErrInviteUsed, http.StatusBadRequest},
	{domain.ErrInviteExpired, http.StatusBadRequest},
	{domain.ErrInviteInactive, http.StatusBadRequest},
	{domain.ErrInviteEmailScoped, http.StatusBadRequest},
	{service.ErrInvalidInvite, http.StatusBadRequest},
	{service.ErrNotACoach, http.StatusBadRequest},
	{service.ErrSelfRequest, http.StatusBadRequest},
	{service.ErrRequestAlreadyPending, http.StatusBadRequest},
	{service.ErrAlreadyAssigned, http.StatusBadRequest},
	{service.ErrDuplicateActive, http.StatusBadRequest},
	{service.ErrSelfLock, http.StatusBadRequest},
	{service.ErrSelfDelete, http.StatusBadRequest},
	{service.ErrLastAdmin, http.StatusBadRequest},
	{service.ErrDocumentType, http.StatusBadRequest},
	{service.ErrDocumentTooLarge, http.StatusBadRequest},
	{service.ErrInvalidState, http.StatusBadRequest},
	{ai.ErrUnsupportedDocument, http.StatusBadRequest},
	{ai.ErrInsufficientText, http.StatusBadRequest},

	{service.ErrAuthenticationFailed, http.StatusUnauthorized},

	{service.ErrForbidden, http.StatusForbidden},
	{service.ErrNotAssigned, http.StatusForbidden},
	{service.ErrNotConnected, http.StatusForbidden},
	{service.ErrAccountLocked, http.StatusForbidden},
	{service.ErrAccountInactive, http.StatusForbidden},

	{service.ErrUserNotFound, http.StatusNotFound},
	{service.ErrInviteNotFound, http.StatusNotFound},
	{service.ErrRequestNotFound, http.StatusNotFound},
	{service.ErrAssignmentNotFound, http.StatusNotFound},
	{service.ErrPlanNotFound, http.StatusNotFound},
	{service.ErrPlanItemNotFound, http.StatusNotFound},
	{service.ErrDocumentNotFound, http.StatusNotFound},
	{service.ErrMessageNotFound, http.StatusNotFound},
	{service.ErrRecordNotFound, http.StatusNotFound},
	{service.ErrUnknownProvider, http.StatusNotFound},
	{service.ErrNotConnectedTo, http.StatusNotFound},
	{repository.ErrNotFound, http.StatusNotFound},

	{service.ErrUserAlreadyExists, http.StatusConflict},

	{ai.ErrNotConfigured, http.StatusServiceUnavailable},
	{strava.ErrNotConfigured, http.StatusServiceUnavailable},
	{service.ErrIntegrationsOff, http.StatusServiceUnavailable},
}

// statusFor returns the HTTP status for err, or 500 when it is not a known outcome.
func statusFor(err error) int {
	var inputErr service.InputError
	if errors.As(err, &inputErr) {
		return http.StatusBadRequest
	}
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// respondError aborts with the status and message err maps to.
// Unexpected errors are logged and hidden behind a generic message.
func respondError(c *gin.Context, err error) {
	var partial *service.PartialCreateError
	if errors.As(err, &partial) {
		respondPartial(c, partial)
		return
	}

	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("ERROR: %s %s [%s]: %v", c.Request.Method, c.FullPath(), c.GetString(ContextTraceIDKey), err)
		abortWithError(c, status, "An unexpected error occurred")
		return
	}
	abortWithError(c, status, rootMessage(err))
}

// rootMessage prefers the sentinel's own text over any wrapping context.
func rootMessage(err error) string {
	var inputErr service.InputError
	if errors.As(err, &inputErr) {
		return inputErr.Error()
	}
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.err.Error()
		}
	}
	return err.Error()
}

// respondPartial reports a multi-athlete creation that stopped part way.
func respondPartial(c *gin.Context, partial *service.PartialCreateError) {
	status := statusFor(partial.Err)
	message := "An unexpected error occurred"
	if status == http.StatusInternalServerError {
		log.Printf("ERROR: plan creation stopped at athlete %s [%s]: %v", partial.AthleteID.Hex(), c.GetString(ContextTraceIDKey), partial.Err)
	} else {
		message = rootMessage(partial.Err)
	}
	created := make([]string, len(partial.Created))
	for i, id := range partial.Created {
		created[i] = id.Hex()
	}
	c.AbortWithStatusJSON(status, gin.H{
		"error":           message,
		"failedAthleteId": partial.AthleteID.Hex(),
		"createdFor":      created,
	})
}

// parseIDParam reads an ObjectID path parameter, answering 400 when malformed.
func parseIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid "+name+" format")
		return primitive.NilObjectID, false
	}
	return id, true
}

// parsePage reads skip/limit query parameters. Limit defaults to def and is capped at max.
func parsePage(c *gin.Context, def, max int64) (repository.Page, bool) {
	page := repository.Page{Limit: def}
	if s := c.Query("skip"); s != "" {
		skip, err := strconv.ParseInt(s, 10, 64)
		if err != nil || skip < 0 {
			abortWithError(c, http.StatusBadRequest, "skip must be a non-negative integer")
			return page, false
		}
		page.Skip = skip
	}
	if s := c.Query("limit"); s != "" {
		limit, err := strconv.ParseInt(s, 10, 64)
		if err != nil || limit < 1 {
			abortWithError(c, http.StatusBadRequest, "limit must be a positive integer")
			return page, false
		}
		page.Limit = limit
	}
	if page.Limit > max {
		page.Limit = max
	}
	return page, true
}
