package api

import (
	"context"
	"errors"
	"etape/training-hub/internal/domain"
	"etape/training-hub/internal/service"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func signToken(t *testing.T, secret, uid string, role domain.Role, expiresIn time.Duration) string {
	t.Helper()
	claims := jwtClaims{
		UserID: uid,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return signed
}

// withActor stands in for AuthMiddleware in handler tests.
func withActor(actor service.Actor) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextUserIDKey, actor.ID)
		c.Set(ContextUserRoleKey, actor.Role)
		c.Next()
	}
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// accounts is an in-memory AccountLookup.
type accounts map[primitive.ObjectID]*domain.User

func (a accounts) Me(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	if id.IsZero() {
		return nil, errors.New("connection refused")
	}
	u, ok := a[id]
	if !ok {
		return nil, service.ErrUserNotFound
	}
	return u, nil
}

func (a accounts) add(role domain.Role) *domain.User {
	u := &domain.User{ID: primitive.NewObjectID(), Role: role, IsActive: true}
	a[u.ID] = u
	return u
}

func TestAuthMiddleware(t *testing.T) {
	users := accounts{}
	trainer := users.add(domain.RoleTrainer)
	locked := users.add(domain.RoleAthlete)
	locked.IsLocked = true
	inactive := users.add(domain.RoleAthlete)
	inactive.IsActive = false
	demoted := users.add(domain.RoleAthlete)
	deleted := primitive.NewObjectID()
	uid := trainer.ID

	r := gin.New()
	r.GET("/whoami", AuthMiddleware(testSecret, users), func(c *gin.Context) {
		actor, ok := getActor(c)
		if !ok {
			return
		}
		c.String(http.StatusOK, actor.ID.Hex()+" "+string(actor.Role))
	})

	tests := []struct {
		name     string
		header   string
		wantCode int
		wantBody string
	}{
		{"missing header", "", http.StatusUnauthorized, "Authorization header is missing"},
		{"not bearer", "Basic abc", http.StatusUnauthorized, "must be Bearer"},
		{"wrong secret", "Bearer " + signToken(t, "other", uid.Hex(), domain.RoleAthlete, time.Hour), http.StatusUnauthorized, "Invalid token"},
		{"expired", "Bearer " + signToken(t, testSecret, uid.Hex(), domain.RoleAthlete, -time.Minute), http.StatusUnauthorized, "Token has expired"},
		{"unknown role", "Bearer " + signToken(t, testSecret, uid.Hex(), "coach", time.Hour), http.StatusUnauthorized, "missing claims"},
		{"bad user id", "Bearer " + signToken(t, testSecret, "nope", domain.RoleAthlete, time.Hour), http.StatusUnauthorized, "missing claims"},
		{"valid", "bearer " + signToken(t, testSecret, uid.Hex(), domain.RoleTrainer, time.Hour), http.StatusOK, uid.Hex() + " trainer"},
		{"deleted user", "Bearer " + signToken(t, testSecret, deleted.Hex(), domain.RoleAdmin, time.Hour), http.StatusUnauthorized, "User not found"},
		{"locked after issue", "Bearer " + signToken(t, testSecret, locked.ID.Hex(), domain.RoleAthlete, time.Hour), http.StatusForbidden, "Account is locked"},
		{"deactivated after issue", "Bearer " + signToken(t, testSecret, inactive.ID.Hex(), domain.RoleAthlete, time.Hour), http.StatusForbidden, "Account is inactive"},
		{"role comes from the account", "Bearer " + signToken(t, testSecret, demoted.ID.Hex(), domain.RoleAdmin, time.Hour), http.StatusOK, demoted.ID.Hex() + " athlete"},
		{"lookup failure", "Bearer " + signToken(t, testSecret, primitive.NilObjectID.Hex(), domain.RoleAthlete, time.Hour), http.StatusInternalServerError, "Failed to load user"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := serve(r, req)
			if w.Code != tt.wantCode || !strings.Contains(w.Body.String(), tt.wantBody) {
				t.Errorf("got %d %s, want %d containing %q", w.Code, w.Body.String(), tt.wantCode, tt.wantBody)
			}
		})
	}
}

func TestAuthMiddlewareSeesAdminChanges(t *testing.T) {
	users := accounts{}
	admin := users.add(domain.RoleAdmin)
	token := "Bearer " + signToken(t, testSecret, admin.ID.Hex(), domain.RoleAdmin, time.Hour)

	r := gin.New()
	r.GET("/admin/users", AuthMiddleware(testSecret, users), RequireCapability(domain.CapAdminUsers), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	get := func() int {
		req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
		req.Header.Set("Authorization", token)
		return serve(r, req).Code
	}

	if code := get(); code != http.StatusOK {
		t.Fatalf("admin = %d, want 200", code)
	}
	admin.Role = domain.RoleTrainer
	if code := get(); code != http.StatusForbidden {
		t.Errorf("demoted admin = %d, want 403", code)
	}
	admin.Role = domain.RoleAdmin
	admin.IsLocked = true
	if code := get(); code != http.StatusForbidden {
		t.Errorf("locked admin = %d, want 403", code)
	}
	delete(users, admin.ID)
	if code := get(); code != http.StatusUnauthorized {
		t.Errorf("deleted admin = %d, want 401", code)
	}
}

func TestRequireCapability(t *testing.T) {
	tests := []struct {
		role     domain.Role
		wantCode int
	}{
		{domain.RoleAthlete, http.StatusForbidden},
		{domain.RoleTrainer, http.StatusOK},
		{domain.RoleAdmin, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			r := gin.New()
			actor := service.Actor{ID: primitive.NewObjectID(), Role: tt.role}
			r.POST("/plans", withActor(actor), RequireCapability(domain.CapManagePlans), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})
			w := serve(r, httptest.NewRequest(http.MethodPost, "/plans", nil))
			if w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", w.Code, tt.wantCode)
			}
		})
	}
}

func TestRequireCapabilityWithoutAuth(t *testing.T) {
	r := gin.New()
	r.GET("/stats", RequireCapability(domain.CapViewStats), func(c *gin.Context) { c.Status(http.StatusOK) })
	if w := serve(r, httptest.NewRequest(http.MethodGet, "/stats", nil)); w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500 when AuthMiddleware did not run", w.Code)
	}
}

func TestTraceMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(TraceMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ContextTraceIDKey)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(TraceHeader, "abc-123")
	if w := serve(r, req); w.Header().Get(TraceHeader) != "abc-123" || w.Body.String() != "abc-123" {
		t.Errorf("caller trace id not reused: header %q body %q", w.Header().Get(TraceHeader), w.Body.String())
	}

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	if _, err := uuid.Parse(w.Header().Get(TraceHeader)); err != nil {
		t.Errorf("generated trace id %q is not a UUID", w.Header().Get(TraceHeader))
	}
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware([]string{"http://localhost:5173/"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := serve(r, req)
	if w.Code != http.StatusNoContent || w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Errorf("preflight = %d, allow-origin %q", w.Code, w.Header().Get("Access-Control-Allow-Origin"))
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	if w := serve(r, req); w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("unknown origin allowed")
	}
}
