package client

import (
	"context"
	"etape/training-hub/internal/domain"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

type ConnectResult struct {
	AuthURL string `json:"authUrl"`
	State   string `json:"state"`
}

type SyncResult struct {
	Provider string    `json:"provider"`
	Imported int       `json:"imported"`
	Skipped  int       `json:"skipped"`
	SyncedAt time.Time `json:"syncedAt"`
}

// ActivityQuery filters imported activities. Dates are whole days; End is inclusive.
type ActivityQuery struct {
	ActivityType string
	Start        time.Time
	End          time.Time
	Page         Page
}

func (c *Client) IntegrationStatus(ctx context.Context) ([]domain.IntegrationStatus, error) {
	var out []domain.IntegrationStatus
	if err := c.do(ctx, http.MethodGet, "/integrations/status", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Connect returns the provider page the user must open to grant access.
func (c *Client) Connect(ctx context.Context, provider string) (*ConnectResult, error) {
	var out ConnectResult
	if err := c.do(ctx, http.MethodGet, "/integrations/connect/"+url.PathEscape(provider), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Sync imports the last days of activities. Zero uses the server default.
func (c *Client) Sync(ctx context.Context, provider string, days int) (*SyncResult, error) {
	q := url.Values{}
	if days > 0 {
		q.Set("days", strconv.Itoa(days))
	}
	var out SyncResult
	if err := c.do(ctx, http.MethodPost, "/integrations/sync/"+url.PathEscape(provider), q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Disconnect(ctx context.Context, provider string) error {
	return c.do(ctx, http.MethodDelete, "/integrations/disconnect/"+url.PathEscape(provider), nil, nil, nil)
}

func (c *Client) Activities(ctx context.Context, query ActivityQuery) ([]domain.Activity, error) {
	q := url.Values{}
	if query.ActivityType != "" {
		q.Set("activityType", query.ActivityType)
	}
	if !query.Start.IsZero() {
		q.Set("startDate", query.Start.Format(time.DateOnly))
	}
	if !query.End.IsZero() {
		q.Set("endDate", query.End.Format(time.DateOnly))
	}
	var out []domain.Activity
	if err := c.do(ctx, http.MethodGet, "/integrations/activities", query.Page.apply(q), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
