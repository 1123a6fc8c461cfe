package client

import (
	"context"
	"encoding/json"
	"errors"
	"etape/training-hub/internal/domain"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/api/v1", opts...)
}

func TestBaseURLFromEnv(t *testing.T) {
	t.Setenv(BaseURLEnv, "")
	if got := BaseURLFromEnv(); got != DefaultBaseURL {
		t.Errorf("default = %q", got)
	}
	t.Setenv(BaseURLEnv, "https://api.example/api/v1/")
	if got := New("").BaseURL(); got != "https://api.example/api/v1" {
		t.Errorf("from env = %q", got)
	}
}

func TestLoginSendsForm(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/auth/login" || r.Method != http.MethodPost {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("Content-Type = %q", ct)
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("login sent a bearer token")
		}
		r.ParseForm()
		if r.PostForm.Get("username") != "rider@example.com" || r.PostForm.Get("password") != "pw" {
			t.Errorf("form = %v", r.PostForm)
		}
		w.Write([]byte(`{"accessToken":"tok","tokenType":"bearer","user":{"id":"64b7f0c2a1b2c3d4e5f60718","email":"rider@example.com","role":"athlete","capabilities":["log_activity"]}}`))
	})

	res, err := c.Login(context.Background(), "rider@example.com", "pw")
	if err != nil {
		t.Fatal(err)
	}
	if res.AccessToken != "tok" || res.User.Role != domain.RoleAthlete || res.User.ID.Hex() != "64b7f0c2a1b2c3d4e5f60718" {
		t.Errorf("result = %+v", res)
	}
	if len(res.User.Capabilities) != 1 || res.User.Capabilities[0] != domain.CapLogActivity {
		t.Errorf("capabilities = %v", res.User.Capabilities)
	}
}

func TestAPIErrorCarriesServerMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/auth/me" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"Token has expired"}`))
			return
		}
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>bad gateway</html>"))
	})

	_, err := c.Me(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized || apiErr.Message != "Token has expired" {
		t.Errorf("Me error = %v", err)
	}

	_, err = c.Stats(context.Background())
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadGateway || apiErr.Message != "Bad Gateway" {
		t.Errorf("non-JSON error = %v", err)
	}
}

func TestBearerTokenFromSource(t *testing.T) {
	var got string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}, WithTokenSource(StaticToken("abc")))

	if err := c.DeleteAssignment(context.Background(), primitive.NewObjectID()); err != nil {
		t.Fatal(err)
	}
	if got != "Bearer abc" {
		t.Errorf("Authorization = %q", got)
	}
}

func TestSearchTrainersEmptyIsNotNil(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if q := r.URL.Query(); q.Get("q") != "zz" || q.Get("limit") != "5" {
			t.Errorf("query = %v", q)
		}
		w.Write([]byte(`[]`))
	})

	trainers, err := c.SearchTrainers(context.Background(), "zz", Page{Limit: 5})
	if err != nil {
		t.Fatal(err)
	}
	if trainers == nil || len(trainers) != 0 {
		t.Errorf("trainers = %#v, want empty non-nil slice", trainers)
	}
}

func TestResourceCreateAndUpdate(t *testing.T) {
	planID := primitive.NewObjectID()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		switch r.Method {
		case http.MethodPost:
			if r.URL.Path != "/api/v1/training-plans/"+planID.Hex()+"/workouts" || body["title"] != "Tempo" {
				t.Errorf("create = %s %v", r.URL.Path, body)
			}
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id":"64b7f0c2a1b2c3d4e5f60718","title":"Tempo"}`))
		case http.MethodPut:
			if len(body) != 1 || body["isCompleted"] != true {
				t.Errorf("update body = %v", body)
			}
			w.Write([]byte(`{"title":"Tempo","isCompleted":true}`))
		}
	})

	items := c.PlanWorkouts(planID)
	created, err := items.Create(context.Background(), &domain.PlannedWorkout{Title: "Tempo"})
	if err != nil || created.ID.IsZero() {
		t.Fatalf("create = %+v, %v", created, err)
	}
	updated, err := items.Update(context.Background(), created.ID, map[string]any{"isCompleted": true})
	if err != nil || !updated.IsCompleted {
		t.Errorf("update = %+v, %v", updated, err)
	}
}

func TestDownloadDocument(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="base week.pdf"`)
		w.Write([]byte("%PDF-1.4"))
	})

	d, err := c.DownloadDocument(context.Background(), primitive.NewObjectID(), primitive.NewObjectID())
	if err != nil {
		t.Fatal(err)
	}
	defer d.Body.Close()
	body, _ := io.ReadAll(d.Body)
	if d.Filename != "base week.pdf" || d.ContentType != "application/pdf" || string(body) != "%PDF-1.4" {
		t.Errorf("download = %q %q %q", d.Filename, d.ContentType, body)
	}
}

func TestUploadDocumentIsMultipart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		f, h, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		content, _ := io.ReadAll(f)
		if h.Filename != "plan.txt" || string(content) != "week 1" || r.FormValue("description") != "notes" {
			t.Errorf("upload = %q %q %q", h.Filename, content, r.FormValue("description"))
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"filename":"plan.txt"}`))
	})

	doc, err := c.UploadDocument(context.Background(), primitive.NewObjectID(), "plan.txt", strings.NewReader("week 1"), "notes")
	if err != nil || doc.Filename != "plan.txt" {
		t.Errorf("upload = %+v, %v", doc, err)
	}
}
