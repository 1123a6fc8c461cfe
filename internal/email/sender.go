package email

import (
	"context"
	"etape/training-hub/internal/config"
	"fmt"
	"html"
	"log"
	"strings"
	"time"
)

// SendRequest is one outgoing email.
type SendRequest struct {
	From    string
	To      []string
	Subject string
	HTML    string
	ReplyTo string
}

// SendResult identifies a delivered (or queued) email.
type SendResult struct {
	MessageID string
	SentAt    time.Time
}

// Sender delivers emails.
type Sender interface {
	Send(ctx context.Context, req SendRequest) (SendResult, error)
}

// NewSender picks the configured provider, falling back to the no-op sender.
func NewSender(cfg config.EmailConfig) Sender {
	switch strings.ToLower(cfg.Provider) {
	case "resend":
		if cfg.APIKey == "" {
			log.Println("WARN: email.provider is resend but email.api_key is empty; invites will not be emailed")
			return NewNoopSender()
		}
		return NewResendSender(cfg.APIKey, cfg.From)
	default:
		return NewNoopSender()
	}
}

// InviteEmail builds the invitation message for a registration link.
func InviteEmail(to, role, appBaseURL, token string, expiresAt time.Time) SendRequest {
	link := fmt.Sprintf("%s/register?invite=%s", strings.TrimRight(appBaseURL, "/"), token)
	body := fmt.Sprintf(
		`<p>You have been invited to join Etape Training Hub as <strong>%s</strong>.</p>`+
			`<p><a href="%s">Create your account</a></p>`+
			`<p>This invitation expires on %s.</p>`,
		html.EscapeString(role), html.EscapeString(link), expiresAt.UTC().Format("2 January 2006"))
	return SendRequest{
		To:      []string{to},
		Subject: "Your Etape Training Hub invitation",
		HTML:    body,
	}
}
