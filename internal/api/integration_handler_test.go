package api

import (
	"context"
	"etape/training-hub/internal/domain"
	"etape/training-hub/internal/service"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type stubIntegrations struct {
	service.IntegrationService
	filter domain.ActivityFilter
	days   int
}

func (s *stubIntegrations) Callback(_ context.Context, provider, code, state string) (*domain.Integration, error) {
	switch {
	case state != "good-state":
		return nil, service.ErrInvalidState
	case code == "broken":
		return nil, context.DeadlineExceeded
	}
	return &domain.Integration{Provider: provider, ExternalID: "12345", ConnectedAt: time.Now()}, nil
}

func (s *stubIntegrations) Sync(_ context.Context, _ service.Actor, _ string, days int) (*service.SyncResult, error) {
	s.days = days
	return &service.SyncResult{}, nil
}

func (s *stubIntegrations) Activities(_ context.Context, _ service.Actor, filter domain.ActivityFilter) ([]domain.Activity, error) {
	s.filter = filter
	return nil, nil
}

func integrationRouter(in service.IntegrationService, appBaseURL string) *gin.Engine {
	h := NewIntegrationHandler(in, appBaseURL)
	r := gin.New()
	r.GET("/integrations/callback/:provider", h.Callback)
	rider := service.Actor{ID: primitive.NewObjectID(), Role: domain.RoleAthlete}
	g := r.Group("/integrations", withActor(rider))
	g.POST("/sync/:provider", h.Sync)
	g.GET("/activities", h.Activities)
	return r
}

func TestCallbackWithoutAppAnswersJSON(t *testing.T) {
	r := integrationRouter(&stubIntegrations{}, "")

	w := serve(r, httptest.NewRequest(http.MethodGet, "/integrations/callback/strava?code=abc&state=good-state", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"connected":true`) || !strings.Contains(w.Body.String(), `"externalId":"12345"`) {
		t.Errorf("callback = %d %s", w.Code, w.Body.String())
	}
	if w := serve(r, httptest.NewRequest(http.MethodGet, "/integrations/callback/strava?code=abc&state=replayed", nil)); w.Code != http.StatusBadRequest {
		t.Errorf("bad state = %d, want 400", w.Code)
	}
}

func TestCallbackRedirectsToApp(t *testing.T) {
	r := integrationRouter(&stubIntegrations{}, "https://app.example/")

	tests := []struct {
		name       string
		query      string
		wantStatus string
		wantReason string
	}{
		{"connected", "code=abc&state=good-state", "connected", ""},
		{"declined", "error=access_denied&state=good-state", "error", "authorization was declined: access_denied"},
		{"bad state", "code=abc&state=other", "error", service.ErrInvalidState.Error()},
		{"internal failure", "code=broken&state=good-state", "error", "An unexpected error occurred"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(r, httptest.NewRequest(http.MethodGet, "/integrations/callback/strava?"+tt.query, nil))
			if w.Code != http.StatusFound {
				t.Fatalf("status = %d, want 302", w.Code)
			}
			loc, err := url.Parse(w.Header().Get("Location"))
			if err != nil {
				t.Fatal(err)
			}
			if loc.Host != "app.example" || loc.Path != "/integrations" {
				t.Errorf("redirected to %s", loc)
			}
			if got := loc.Query().Get("strava"); got != tt.wantStatus {
				t.Errorf("strava = %q, want %q", got, tt.wantStatus)
			}
			if got := loc.Query().Get("reason"); got != tt.wantReason {
				t.Errorf("reason = %q, want %q", got, tt.wantReason)
			}
		})
	}
}

func TestSyncDays(t *testing.T) {
	in := &stubIntegrations{}
	r := integrationRouter(in, "")

	if w := serve(r, httptest.NewRequest(http.MethodPost, "/integrations/sync/strava", nil)); w.Code != http.StatusOK || in.days != 30 {
		t.Errorf("default sync = %d days %d", w.Code, in.days)
	}
	if w := serve(r, httptest.NewRequest(http.MethodPost, "/integrations/sync/strava?days=7", nil)); w.Code != http.StatusOK || in.days != 7 {
		t.Errorf("7 day sync = %d days %d", w.Code, in.days)
	}
	if w := serve(r, httptest.NewRequest(http.MethodPost, "/integrations/sync/strava?days=week", nil)); w.Code != http.StatusBadRequest {
		t.Errorf("non-numeric days = %d, want 400", w.Code)
	}
}

func TestActivitiesEndDateIsInclusive(t *testing.T) {
	in := &stubIntegrations{}
	r := integrationRouter(in, "")

	w := serve(r, httptest.NewRequest(http.MethodGet, "/integrations/activities?activityType=Cycling&startDate=2025-05-01&endDate=2025-05-31", nil))
	if w.Code != http.StatusOK || w.Body.String() != "[]" {
		t.Fatalf("activities = %d %s", w.Code, w.Body.String())
	}
	f := in.filter
	if f.ActivityType != "cycling" {
		t.Errorf("activityType = %q", f.ActivityType)
	}
	if !f.Start.Equal(time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start = %v", f.Start)
	}
	if f.End.Before(time.Date(2025, 5, 31, 23, 59, 59, 0, time.UTC)) || !f.End.Before(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("end = %v, want the last moment of May 31", f.End)
	}

	if w := serve(r, httptest.NewRequest(http.MethodGet, "/integrations/activities?startDate=May", nil)); w.Code != http.StatusBadRequest {
		t.Errorf("bad startDate = %d, want 400", w.Code)
	}
}
