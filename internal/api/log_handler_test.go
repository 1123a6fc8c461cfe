package api

import (
	"context"
	"encoding/json"
	"etape/training-hub/internal/domain"
	"etape/training-hub/internal/repository"
	"etape/training-hub/internal/service"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type stubRides struct {
	service.LogService[domain.Ride]
	created  *domain.Ride
	listedBy *primitive.ObjectID
	page     repository.Page
}

func (s *stubRides) List(_ context.Context, _ service.Actor, userID *primitive.ObjectID, page repository.Page) ([]domain.Ride, error) {
	s.listedBy, s.page = userID, page
	return nil, nil
}

func (s *stubRides) Create(_ context.Context, actor service.Actor, ride *domain.Ride) (*domain.Ride, error) {
	s.created = ride
	out := *ride
	out.ID = primitive.NewObjectID()
	out.UserID = actor.ID
	return &out, nil
}

func (s *stubRides) Get(context.Context, service.Actor, primitive.ObjectID) (*domain.Ride, error) {
	return nil, service.ErrRecordNotFound
}

func logRouter(rides service.LogService[domain.Ride], actor service.Actor) *gin.Engine {
	r := gin.New()
	NewLogHandler(rides).Register(r.Group("/rides", withActor(actor)))
	return r
}

func TestLogHandlerCreateIgnoresOwnerFields(t *testing.T) {
	rides := &stubRides{}
	rider := service.Actor{ID: primitive.NewObjectID(), Role: domain.RoleAthlete}
	r := logRouter(rides, rider)
	someoneElse := primitive.NewObjectID().Hex()

	body := `{"userId":"` + someoneElse + `","id":"` + someoneElse + `","title":"Hill repeats","distanceKm":42.5,"durationMinutes":95,"rideDate":"2025-05-10T08:00:00Z"}`
	w := serve(r, jsonRequest(http.MethodPost, "/rides", body))
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", w.Code, w.Body.String())
	}
	if !rides.created.UserID.IsZero() || !rides.created.ID.IsZero() {
		t.Errorf("client-supplied identity reached the service: %+v", rides.created.LogEntry)
	}
	var got domain.Ride
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.UserID != rider.ID || got.DistanceKm != 42.5 {
		t.Errorf("ride = %+v", got)
	}

	if w := serve(r, jsonRequest(http.MethodPost, "/rides", `{"distanceKm":"far"}`)); w.Code != http.StatusBadRequest {
		t.Errorf("bad body = %d, want 400", w.Code)
	}
}

func TestLogHandlerList(t *testing.T) {
	rides := &stubRides{}
	r := logRouter(rides, service.Actor{ID: primitive.NewObjectID(), Role: domain.RoleTrainer})
	athlete := primitive.NewObjectID()

	w := serve(r, httptest.NewRequest(http.MethodGet, "/rides?userId="+athlete.Hex()+"&limit=900", nil))
	if w.Code != http.StatusOK || w.Body.String() != "[]" {
		t.Fatalf("list = %d %s", w.Code, w.Body.String())
	}
	if rides.listedBy == nil || *rides.listedBy != athlete || rides.page.Limit != 500 {
		t.Errorf("service got userID %v page %+v", rides.listedBy, rides.page)
	}

	if w := serve(r, httptest.NewRequest(http.MethodGet, "/rides?userId=me", nil)); w.Code != http.StatusBadRequest {
		t.Errorf("bad userId = %d, want 400", w.Code)
	}
}

func TestLogHandlerErrors(t *testing.T) {
	r := logRouter(&stubRides{}, service.Actor{ID: primitive.NewObjectID(), Role: domain.RoleAthlete})
	id := primitive.NewObjectID().Hex()

	tests := []struct {
		name     string
		req      *http.Request
		wantCode int
	}{
		{"missing record", httptest.NewRequest(http.MethodGet, "/rides/"+id, nil), http.StatusNotFound},
		{"bad id", httptest.NewRequest(http.MethodGet, "/rides/xyz", nil), http.StatusBadRequest},
		{"empty update", jsonRequest(http.MethodPut, "/rides/"+id, `{}`), http.StatusBadRequest},
		{"update of server fields only", jsonRequest(http.MethodPut, "/rides/"+id, `{"userId":"`+id+`"}`), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := serve(r, tt.req); w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d (%s)", w.Code, tt.wantCode, w.Body.String())
			}
		})
	}
}
