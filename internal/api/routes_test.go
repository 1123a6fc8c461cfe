package api

import (
	"etape/training-hub/internal/domain"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestSetupRoutes(t *testing.T) {
	auth := newStubAuth()
	coach := &domain.User{ID: primitive.NewObjectID(), Email: "coach@example.com", Role: domain.RoleTrainer, IsActive: true}
	auth.users[coach.Email] = coach
	r := gin.New()
	SetupRoutes(r, testSecret, "", Services{Auth: auth, Plans: &stubPlans{}})

	athlete := "Bearer " + signToken(t, testSecret, auth.users["rider@example.com"].ID.Hex(), domain.RoleAthlete, time.Hour)
	trainer := "Bearer " + signToken(t, testSecret, coach.ID.Hex(), domain.RoleTrainer, time.Hour)
	// Claims say admin; the stored account is an athlete.
	staleAdmin := "Bearer " + signToken(t, testSecret, auth.users["rider@example.com"].ID.Hex(), domain.RoleAdmin, time.Hour)
	lockedUser := "Bearer " + signToken(t, testSecret, auth.users["locked@example.com"].ID.Hex(), domain.RoleTrainer, time.Hour)
	unknown := "Bearer " + signToken(t, testSecret, primitive.NewObjectID().Hex(), domain.RoleAdmin, time.Hour)
	planBody := `{"athleteId":"` + primitive.NewObjectID().Hex() + `","title":"Base"}`

	tests := []struct {
		name     string
		method   string
		path     string
		body     string
		token    string
		wantCode int
	}{
		{"ping", http.MethodGet, "/ping", "", "", http.StatusOK},
		{"public invite lookup", http.MethodGet, "/api/v1/auth/invite/tok", "", "", http.StatusOK},
		{"me needs a token", http.MethodGet, "/api/v1/auth/me", "", "", http.StatusUnauthorized},
		{"logs need a token", http.MethodGet, "/api/v1/rides", "", "", http.StatusUnauthorized},
		{"athlete cannot create plans", http.MethodPost, "/api/v1/training-plans", planBody, athlete, http.StatusForbidden},
		{"athlete cannot parse documents", http.MethodPost, "/api/v1/training-plans/parse-pdf", "", athlete, http.StatusForbidden},
		{"athlete cannot see stats", http.MethodGet, "/api/v1/admin/stats", "", athlete, http.StatusForbidden},
		{"trainer cannot manage users", http.MethodGet, "/api/v1/admin/users", "", trainer, http.StatusForbidden},
		{"stale admin claim", http.MethodGet, "/api/v1/admin/users", "", staleAdmin, http.StatusForbidden},
		{"locked account", http.MethodGet, "/api/v1/rides", "", lockedUser, http.StatusForbidden},
		{"token for a missing user", http.MethodGet, "/api/v1/admin/stats", "", unknown, http.StatusUnauthorized},
		{"trainer creates a plan", http.MethodPost, "/api/v1/training-plans", planBody, trainer, http.StatusCreated},
		{"unknown route", http.MethodGet, "/api/v1/exercises", "", trainer, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := jsonRequest(tt.method, tt.path, tt.body)
			if tt.token != "" {
				req.Header.Set("Authorization", tt.token)
			}
			if w := serve(r, req); w.Code != tt.wantCode {
				t.Errorf("%s %s = %d, want %d (%s)", tt.method, tt.path, w.Code, tt.wantCode, w.Body.String())
			}
		})
	}
}

func TestSetupRoutesPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware([]string{"http://localhost:5173"}))
	SetupRoutes(r, testSecret, "", Services{Auth: newStubAuth(), Plans: &stubPlans{}})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/training-plans", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	if w := serve(r, req); w.Code != http.StatusNoContent {
		t.Errorf("preflight = %d, want 204", w.Code)
	}
}
