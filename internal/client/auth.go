package client

import (
	"context"
	"etape/training-hub/internal/domain"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// User is a user as the API returns it, with the capabilities of its role.
type User struct {
	domain.User
	Capabilities []domain.Capability `json:"capabilities"`
}

type LoginResult struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	User        User   `json:"user"`
}

type RegisterInput struct {
	Email       string      `json:"email"`
	Password    string      `json:"password"`
	FullName    string      `json:"fullName"`
	Role        domain.Role `json:"role,omitempty"`
	InviteToken string      `json:"inviteToken,omitempty"`
}

type InviteInfo struct {
	Email     string      `json:"email,omitempty"`
	Role      domain.Role `json:"role"`
	ExpiresAt time.Time   `json:"expiresAt"`
	IsValid   bool        `json:"isValid"`
}

// Login exchanges credentials for a token. The server expects a form body.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	form := url.Values{"username": {email}, "password": {password}}
	req, err := c.newRequest(ctx, http.MethodPost, "/auth/login", nil, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return nil, err
	}
	var out LoginResult
	if err := c.send(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, in RegisterInput) (*User, error) {
	var out User
	if err := c.do(ctx, http.MethodPost, "/auth/register", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the user the current token belongs to.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var out User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) InviteInfo(ctx context.Context, token string) (*InviteInfo, error) {
	var out InviteInfo
	if err := c.do(ctx, http.MethodGet, "/auth/invite/"+url.PathEscape(token), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
