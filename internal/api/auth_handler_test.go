package api

import (
	"context"
	"encoding/json"
	"etape/training-hub/internal/domain"
	"etape/training-hub/internal/service"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// stubAuth implements the calls the auth handler makes; anything else panics.
type stubAuth struct {
	service.AuthService
	users      map[string]*domain.User
	registered service.RegisterInput
}

func newStubAuth() *stubAuth {
	return &stubAuth{users: map[string]*domain.User{
		"rider@example.com":  {ID: primitive.NewObjectID(), Email: "rider@example.com", FullName: "Rider", Role: domain.RoleAthlete, IsActive: true},
		"locked@example.com": {ID: primitive.NewObjectID(), Email: "locked@example.com", Role: domain.RoleTrainer, IsActive: true, IsLocked: true},
	}}
}

func (s *stubAuth) Login(_ context.Context, email, password string) (string, *domain.User, error) {
	u, ok := s.users[email]
	if !ok || password != "correct-horse" {
		return "", nil, service.ErrAuthenticationFailed
	}
	if u.IsLocked {
		return "", nil, service.ErrAccountLocked
	}
	return "signed.jwt.token", u, nil
}

func (s *stubAuth) Register(_ context.Context, in service.RegisterInput) (*domain.User, error) {
	s.registered = in
	if _, taken := s.users[in.Email]; taken {
		return nil, service.ErrUserAlreadyExists
	}
	return &domain.User{ID: primitive.NewObjectID(), Email: in.Email, FullName: in.FullName, Role: domain.RoleTrainer, IsActive: true}, nil
}

func (s *stubAuth) Me(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, service.ErrUserNotFound
}

func (s *stubAuth) InviteInfo(_ context.Context, token string) (*service.InviteInfo, error) {
	if token != "tok" {
		return nil, service.ErrInviteNotFound
	}
	return &service.InviteInfo{Role: domain.RoleAdmin, IsValid: true}, nil
}

func authRouter(auth service.AuthService, actor *service.Actor) *gin.Engine {
	h := NewAuthHandler(auth)
	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.POST("/auth/register", h.Register)
	r.GET("/auth/invite/:token", h.InviteInfo)
	if actor != nil {
		r.GET("/auth/me", withActor(*actor), h.Me)
	}
	return r
}

func loginRequest(username, password string) *http.Request {
	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestLoginHandler(t *testing.T) {
	r := authRouter(newStubAuth(), nil)

	w := serve(r, loginRequest("rider@example.com", "correct-horse"))
	if w.Code != http.StatusOK {
		t.Fatalf("login = %d %s", w.Code, w.Body.String())
	}
	var resp LoginResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.AccessToken != "signed.jwt.token" || resp.TokenType != "bearer" || resp.User.Email != "rider@example.com" {
		t.Errorf("response = %+v", resp)
	}
	if len(resp.User.Capabilities) != 4 {
		t.Errorf("athlete capabilities = %v", resp.User.Capabilities)
	}
	if strings.Contains(w.Body.String(), "password") {
		t.Error("response mentions password")
	}

	tests := []struct {
		name     string
		req      *http.Request
		wantCode int
	}{
		{"wrong password", loginRequest("rider@example.com", "nope"), http.StatusUnauthorized},
		{"locked", loginRequest("locked@example.com", "correct-horse"), http.StatusForbidden},
		{"missing username", loginRequest("", "correct-horse"), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := serve(r, tt.req); w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d (%s)", w.Code, tt.wantCode, w.Body.String())
			}
		})
	}
}

func TestRegisterHandler(t *testing.T) {
	auth := newStubAuth()
	r := authRouter(auth, nil)
	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		return serve(r, req)
	}

	w := post(`{"email":"coach@example.com","password":"longenough","fullName":"Coach","role":"trainer","inviteToken":"tok"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("register = %d %s", w.Code, w.Body.String())
	}
	if auth.registered.InviteToken != "tok" || auth.registered.Role != domain.RoleTrainer {
		t.Errorf("service got %+v", auth.registered)
	}

	if w := post(`{"email":"rider@example.com","password":"longenough","fullName":"Dup"}`); w.Code != http.StatusConflict {
		t.Errorf("duplicate = %d, want 409", w.Code)
	}
	if w := post(`{"email":"new@example.com","password":"short","fullName":"New"}`); w.Code != http.StatusBadRequest {
		t.Errorf("short password = %d, want 400", w.Code)
	}
	if w := post(`{"email":"new@example.com","password":"longenough","fullName":"New","role":"owner"}`); w.Code != http.StatusBadRequest {
		t.Errorf("unknown role = %d, want 400", w.Code)
	}
}

func TestMeHandler(t *testing.T) {
	auth := newStubAuth()
	rider := auth.users["rider@example.com"]

	w := serve(authRouter(auth, &service.Actor{ID: rider.ID, Role: rider.Role}), httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), rider.ID.Hex()) {
		t.Errorf("me = %d %s", w.Code, w.Body.String())
	}

	gone := &service.Actor{ID: primitive.NewObjectID(), Role: domain.RoleAthlete}
	if w := serve(authRouter(auth, gone), httptest.NewRequest(http.MethodGet, "/auth/me", nil)); w.Code != http.StatusUnauthorized {
		t.Errorf("deleted user = %d, want 401", w.Code)
	}
}

func TestInviteInfoHandler(t *testing.T) {
	r := authRouter(newStubAuth(), nil)
	if w := serve(r, httptest.NewRequest(http.MethodGet, "/auth/invite/tok", nil)); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"isValid":true`) {
		t.Errorf("known invite = %d %s", w.Code, w.Body.String())
	}
	if w := serve(r, httptest.NewRequest(http.MethodGet, "/auth/invite/unknown", nil)); w.Code != http.StatusNotFound {
		t.Errorf("unknown invite = %d, want 404", w.Code)
	}
}
