package strava

import (
	"context"
	"encoding/json"
	"errors"
	"etape/training-hub/internal/config"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/oauth2"
)

func testClient(srv *httptest.Server) *Client {
	return &Client{
		oauth: &oauth2.Config{
			ClientID:     "id",
			ClientSecret: "secret",
			Scopes:       []string{Scope},
			Endpoint: oauth2.Endpoint{
				AuthURL:   srv.URL + "/oauth/authorize",
				TokenURL:  srv.URL + "/oauth/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		apiBase: srv.URL,
		enabled: true,
	}
}

func TestDisabledClient(t *testing.T) {
	c := NewClient(config.StravaConfig{})
	if _, err := c.AuthCodeURL("s"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("AuthCodeURL err = %v", err)
	}
	if _, err := c.ListActivities(context.Background(), "t", primitive.NewObjectID(), time.Now()); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("ListActivities err = %v", err)
	}
}

func TestAuthCodeURLCarriesScopeAndState(t *testing.T) {
	c := NewClient(config.StravaConfig{ClientID: "42", ClientSecret: "s", RedirectURL: "http://localhost/cb"})
	u, err := c.AuthCodeURL("xyz")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"state=xyz", "client_id=42", "scope=read%2Cactivity%3Aread_all", "approval_prompt=auto"} {
		if !strings.Contains(u, want) {
			t.Errorf("auth url %q missing %q", u, want)
		}
	}
}

func TestExchangeReadsAthleteID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/oauth/token" {
			http.NotFound(w, r)
			return
		}
		_ = r.ParseForm()
		if r.Form.Get("code") != "abc" || r.Form.Get("client_secret") != "secret" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"at","refresh_token":"rt","expires_in":21600,"token_type":"Bearer","athlete":{"id":98765}}`)
	}))
	defer srv.Close()

	tok, err := testClient(srv).Exchange(context.Background(), "abc")
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if tok.AccessToken != "at" || tok.RefreshToken != "rt" || tok.AthleteID != "98765" {
		t.Errorf("token = %+v", tok)
	}
	if tok.Expiry.Before(time.Now().Add(5 * time.Hour)) {
		t.Errorf("expiry = %v", tok.Expiry)
	}
}

func TestListActivitiesConvertsUnits(t *testing.T) {
	var gotAuth, gotAfter string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAfter = r.URL.Query().Get("after")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]map[string]any{{
			"id":                   int64(1234),
			"name":                 "Morning Ride",
			"type":                 "Ride",
			"sport_type":           "VirtualRide",
			"start_date":           "2025-01-06T07:00:00Z",
			"moving_time":          5400,
			"distance":             45000.0,
			"total_elevation_gain": 320.5,
			"average_speed":        8.0,
			"average_heartrate":    141.6,
			"average_watts":        205.2,
		}})
	}))
	defer srv.Close()

	user := primitive.NewObjectID()
	after := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	acts, err := testClient(srv).ListActivities(context.Background(), "token-1", user, after)
	if err != nil {
		t.Fatalf("ListActivities: %v", err)
	}
	if gotAuth != "Bearer token-1" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotAfter != fmt.Sprint(after.Unix()) {
		t.Errorf("after = %q", gotAfter)
	}
	if len(acts) != 1 {
		t.Fatalf("got %d activities", len(acts))
	}
	a := acts[0]
	if a.UserID != user || a.ExternalID != "1234" || a.Source != "strava" || a.ActivityType != "cycling" {
		t.Errorf("identity fields = %+v", a)
	}
	if *a.DurationMinutes != 90 || *a.DistanceKm != 45 || *a.SpeedAvgKmh != 28.8 {
		t.Errorf("units: duration=%v distance=%v speed=%v", *a.DurationMinutes, *a.DistanceKm, *a.SpeedAvgKmh)
	}
	if *a.HeartRateAvg != 142 || *a.PowerAvg != 205 || a.HeartRateMax != nil {
		t.Errorf("sensor fields = %+v", a)
	}
	if a.Raw["name"] != "Morning Ride" {
		t.Errorf("raw payload not kept")
	}
}

func TestListActivitiesSurfacesAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Authorization Error"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := testClient(srv).ListActivities(context.Background(), "bad", primitive.NewObjectID(), time.Now())
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Errorf("err = %v", err)
	}
}
