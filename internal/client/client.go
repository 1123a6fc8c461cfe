// Package client is a typed HTTP client for the /api/v1 REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// BaseURLEnv overrides the API base URL.
	BaseURLEnv     = "ETAPE_API_URL"
	DefaultBaseURL = "http://localhost:8080/api/v1"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// TokenSource supplies the bearer token for each request. An empty token sends no header.
type TokenSource interface {
	Token() string
}

// StaticToken is a fixed bearer token.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

// Client is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// New creates a client for baseURL. An empty baseURL falls back to BaseURLFromEnv.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = BaseURLFromEnv()
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		tokens:  StaticToken(""),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURLFromEnv returns ETAPE_API_URL or the local default.
func BaseURLFromEnv() string {
	if u := os.Getenv(BaseURLEnv); u != "" {
		return u
	}
	return DefaultBaseURL
}

func (c *Client) BaseURL() string { return c.baseURL }

// Page selects a window of a list endpoint. Zero values use the server defaults.
type Page struct {
	Skip  int64
	Limit int64
}

func (p Page) apply(q url.Values) url.Values {
	if q == nil {
		q = url.Values{}
	}
	if p.Skip > 0 {
		q.Set("skip", strconv.FormatInt(p.Skip, 10))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.FormatInt(p.Limit, 10))
	}
	return q
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) (*http.Request, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// do sends a JSON request and decodes a JSON answer into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(raw)
		contentType = "application/json"
	}
	req, err := c.newRequest(ctx, method, path, query, body, contentType)
	if err != nil {
		return err
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkResponse(resp); err != nil {
		return err
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

// checkResponse turns a non-2xx response into an *APIError carrying the body's error message.
func checkResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body struct {
		Error string `json:"error"`
	}
	message := http.StatusText(resp.StatusCode)
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		message = body.Error
	}
	return &APIError{StatusCode: resp.StatusCode, Message: message}
}

func idPath(format string, ids ...primitive.ObjectID) string {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id.Hex()
	}
	return fmt.Sprintf(format, args...)
}
