package api

import (
	"etape/training-hub/internal/domain"
	"etape/training-hub/internal/service"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// IntegrationHandler serves the external provider connections (Strava).
type IntegrationHandler struct {
	integrations service.IntegrationService

	// appBaseURL is where the OAuth callback sends the browser back to.
	// Empty answers the callback with JSON instead.
	appBaseURL string
}

func NewIntegrationHandler(integrations service.IntegrationService, appBaseURL string) *IntegrationHandler {
	return &IntegrationHandler{integrations: integrations, appBaseURL: strings.TrimRight(appBaseURL, "/")}
}

type ConnectResponse struct {
	AuthURL string `json:"authUrl"`
	State   string `json:"state"`
}

func (h *IntegrationHandler) Status(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	status, err := h.integrations.Status(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// Connect godoc
// @Summary Start the provider's OAuth flow
// @Tags Integrations
// @Produce json
// @Param provider path string true "strava"
// @Success 200 {object} ConnectResponse
// @Failure 503 {object} gin.H "Provider not configured"
// @Router /integrations/connect/{provider} [get]
func (h *IntegrationHandler) Connect(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	authURL, state, err := h.integrations.Connect(c.Request.Context(), actor, c.Param("provider"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ConnectResponse{AuthURL: authURL, State: state})
}

// Callback godoc
// @Summary OAuth redirect target
// @Description Public: the user is identified by the single-use state issued by Connect.
// @Tags Integrations
// @Param provider path string true "strava"
// @Param code query string true "Authorization code"
// @Param state query string true "State from Connect"
// @Success 200 {object} domain.IntegrationStatus
// @Success 302
// @Router /integrations/callback/{provider} [get]
func (h *IntegrationHandler) Callback(c *gin.Context) {
	provider := c.Param("provider")
	if reason := c.Query("error"); reason != "" {
		h.finishCallback(c, provider, nil, service.InputError("authorization was declined: "+reason))
		return
	}
	in, err := h.integrations.Callback(c.Request.Context(), provider, c.Query("code"), c.Query("state"))
	h.finishCallback(c, provider, in, err)
}

func (h *IntegrationHandler) finishCallback(c *gin.Context, provider string, in *domain.Integration, err error) {
	if h.appBaseURL == "" {
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, domain.IntegrationStatus{
			Provider:    in.Provider,
			Connected:   true,
			ConnectedAt: &in.ConnectedAt,
			ExternalID:  in.ExternalID,
		})
		return
	}

	q := url.Values{}
	if err != nil {
		reason := rootMessage(err)
		if statusFor(err) == http.StatusInternalServerError {
			log.Printf("ERROR: %s callback [%s]: %v", provider, c.GetString(ContextTraceIDKey), err)
			reason = "An unexpected error occurred"
		}
		q.Set(provider, "error")
		q.Set("reason", reason)
	} else {
		q.Set(provider, "connected")
	}
	c.Redirect(http.StatusFound, h.appBaseURL+"/integrations?"+q.Encode())
}

// Sync godoc
// @Summary Import recent activities
// @Tags Integrations
// @Produce json
// @Param provider path string true "strava"
// @Param days query int false "Look-back window, 1..90 (default 30)"
// @Success 200 {object} service.SyncResult
// @Router /integrations/sync/{provider} [post]
func (h *IntegrationHandler) Sync(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	days := 30
	if s := c.Query("days"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			respondError(c, service.ErrInvalidSyncWindow)
			return
		}
		days = n
	}
	result, err := h.integrations.Sync(c.Request.Context(), actor, c.Param("provider"), days)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *IntegrationHandler) Disconnect(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	if err := h.integrations.Disconnect(c.Request.Context(), actor, c.Param("provider")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Activities godoc
// @Summary Imported activities
// @Tags Integrations
// @Produce json
// @Param activityType query string false "cycling, running..."
// @Param startDate query string false "YYYY-MM-DD"
// @Param endDate query string false "YYYY-MM-DD, inclusive"
// @Success 200 {array} domain.Activity
// @Router /integrations/activities [get]
func (h *IntegrationHandler) Activities(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	page, ok := parsePage(c, 100, 500)
	if !ok {
		return
	}
	filter := domain.ActivityFilter{
		ActivityType: strings.ToLower(c.Query("activityType")),
		Skip:         page.Skip,
		Limit:        page.Limit,
	}
	if s := c.Query("startDate"); s != "" {
		start, err := parseDate(s)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "startDate must be YYYY-MM-DD")
			return
		}
		filter.Start = &start
	}
	if s := c.Query("endDate"); s != "" {
		end, err := parseDate(s)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "endDate must be YYYY-MM-DD")
			return
		}
		end = end.AddDate(0, 0, 1).Add(-time.Millisecond)
		filter.End = &end
	}
	activities, err := h.integrations.Activities(c.Request.Context(), actor, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	if activities == nil {
		activities = []domain.Activity{}
	}
	c.JSON(http.StatusOK, activities)
}
