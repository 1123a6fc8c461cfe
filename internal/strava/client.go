// Package strava talks to the Strava OAuth and activity APIs.
package strava

import (
	"context"
	"encoding/json"
	"errors"
	"etape/training-hub/internal/config"
	"etape/training-hub/internal/domain"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/oauth2"
)

const (
	authURL    = "https://www.strava.com/oauth/authorize"
	tokenURL   = "https://www.strava.com/oauth/token"
	apiBaseURL = "https://www.strava.com/api/v3"

	// Scope is sent as a single comma separated value, which is what Strava expects.
	Scope = "read,activity:read_all"

	perPage  = 100
	maxPages = 10
)

var ErrNotConfigured = errors.New("Strava integration is not configured")

// Token is the result of a code exchange or a refresh.
type Token struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
	AthleteID    string // only present on the initial exchange
}

// Client wraps the Strava OAuth2 configuration and REST API.
type Client struct {
	oauth   *oauth2.Config
	apiBase string
	enabled bool
}

// NewClient builds a client from configuration. Without credentials every
// call returns ErrNotConfigured.
func NewClient(cfg config.StravaConfig) *Client {
	return &Client{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{Scope},
			Endpoint: oauth2.Endpoint{
				AuthURL:   authURL,
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		apiBase: apiBaseURL,
		enabled: cfg.Enabled(),
	}
}

func (c *Client) Enabled() bool { return c.enabled }

// AuthCodeURL is the page the user is sent to in order to grant access.
func (c *Client) AuthCodeURL(state string) (string, error) {
	if !c.enabled {
		return "", ErrNotConfigured
	}
	return c.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("approval_prompt", "auto")), nil
}

// Exchange trades an authorization code for tokens.
func (c *Client) Exchange(ctx context.Context, code string) (*Token, error) {
	if !c.enabled {
		return nil, ErrNotConfigured
	}
	tok, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("strava code exchange failed: %w", err)
	}
	out := fromOAuth(tok)
	if athlete, ok := tok.Extra("athlete").(map[string]interface{}); ok {
		if id, ok := athlete["id"].(float64); ok {
			out.AthleteID = strconv.FormatInt(int64(id), 10)
		}
	}
	return out, nil
}

// Refresh obtains a new access token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	if !c.enabled {
		return nil, ErrNotConfigured
	}
	// An expiry in the past forces the token source to hit the token endpoint.
	src := c.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken, Expiry: time.Unix(1, 0)})
	tok, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("strava token refresh failed: %w", err)
	}
	return fromOAuth(tok), nil
}

func fromOAuth(tok *oauth2.Token) *Token {
	return &Token{AccessToken: tok.AccessToken, RefreshToken: tok.RefreshToken, Expiry: tok.Expiry}
}

// summaryActivity is the subset of Strava's SummaryActivity we import.
type summaryActivity struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"name"`
	Type               string    `json:"type"`
	SportType          string    `json:"sport_type"`
	StartDate          time.Time `json:"start_date"`
	MovingTime         float64   `json:"moving_time"`
	Distance           float64   `json:"distance"`
	TotalElevationGain float64   `json:"total_elevation_gain"`
	AverageSpeed       float64   `json:"average_speed"`
	MaxSpeed           float64   `json:"max_speed"`
	AverageHeartrate   float64   `json:"average_heartrate"`
	MaxHeartrate       float64   `json:"max_heartrate"`
	AverageWatts       float64   `json:"average_watts"`
	MaxWatts           float64   `json:"max_watts"`
	AverageCadence     float64   `json:"average_cadence"`
	Kilojoules         float64   `json:"kilojoules"`
}

// ListActivities fetches the athlete's activities started after the given time,
// converted for userID.
func (c *Client) ListActivities(ctx context.Context, accessToken string, userID primitive.ObjectID, after time.Time) ([]domain.Activity, error) {
	if !c.enabled {
		return nil, ErrNotConfigured
	}
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))

	var activities []domain.Activity
	for page := 1; page <= maxPages; page++ {
		batch, err := c.fetchPage(ctx, httpClient, after, page)
		if err != nil {
			return nil, err
		}
		for _, raw := range batch {
			a, err := convert(raw, userID)
			if err != nil {
				return nil, err
			}
			activities = append(activities, a)
		}
		if len(batch) < perPage {
			break
		}
	}
	return activities, nil
}

func (c *Client) fetchPage(ctx context.Context, httpClient *http.Client, after time.Time, page int) ([]json.RawMessage, error) {
	q := url.Values{}
	q.Set("after", strconv.FormatInt(after.Unix(), 10))
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("page", strconv.Itoa(page))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase+"/athlete/activities?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("strava activities request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("strava activities request returned %d: %s", resp.StatusCode, body)
	}
	var batch []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&batch); err != nil {
		return nil, fmt.Errorf("decoding strava activities: %w", err)
	}
	return batch, nil
}

func convert(raw json.RawMessage, userID primitive.ObjectID) (domain.Activity, error) {
	var s summaryActivity
	if err := json.Unmarshal(raw, &s); err != nil {
		return domain.Activity{}, fmt.Errorf("decoding strava activity: %w", err)
	}
	var rawMap map[string]any
	_ = json.Unmarshal(raw, &rawMap)

	sport := s.SportType
	if sport == "" {
		sport = s.Type
	}
	a := domain.Activity{
		UserID:       userID,
		Source:       domain.ProviderStrava,
		ExternalID:   strconv.FormatInt(s.ID, 10),
		ActivityType: domain.NormalizeActivityType(sport),
		Name:         s.Name,
		ActivityDate: s.StartDate,
		Raw:          rawMap,
	}
	if s.MovingTime > 0 {
		a.DurationMinutes = floatPtr(s.MovingTime / 60)
	}
	if s.Distance > 0 {
		a.DistanceKm = floatPtr(s.Distance / 1000)
	}
	if s.TotalElevationGain > 0 {
		a.ElevationM = floatPtr(s.TotalElevationGain)
	}
	if s.AverageSpeed > 0 {
		a.SpeedAvgKmh = floatPtr(s.AverageSpeed * 3.6)
	}
	if s.MaxSpeed > 0 {
		a.SpeedMaxKmh = floatPtr(s.MaxSpeed * 3.6)
	}
	a.HeartRateAvg = intPtr(s.AverageHeartrate)
	a.HeartRateMax = intPtr(s.MaxHeartrate)
	a.PowerAvg = intPtr(s.AverageWatts)
	a.PowerMax = intPtr(s.MaxWatts)
	a.CadenceAvg = intPtr(s.AverageCadence)
	// Strava reports mechanical work; kJ is close enough to kcal for cycling.
	a.Calories = intPtr(s.Kilojoules)
	return a, nil
}

func floatPtr(v float64) *float64 {
	r := math.Round(v*100) / 100
	return &r
}

func intPtr(v float64) *int {
	if v <= 0 {
		return nil
	}
	i := int(math.Round(v))
	return &i
}
