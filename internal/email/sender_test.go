package email

import (
	"context"
	"etape/training-hub/internal/config"
	"strings"
	"testing"
	"time"
)

func TestNewSenderFallsBackToNoop(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.EmailConfig
	}{
		{"default", config.EmailConfig{}},
		{"resend without key", config.EmailConfig{Provider: "resend"}},
		{"unknown provider", config.EmailConfig{Provider: "smtp", APIKey: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := NewSender(tt.cfg).(*NoopSender); !ok {
				t.Errorf("NewSender(%+v) is not a NoopSender", tt.cfg)
			}
		})
	}
	if _, ok := NewSender(config.EmailConfig{Provider: "Resend", APIKey: "re_123"}).(*ResendSender); !ok {
		t.Error("resend with key should build a ResendSender")
	}
}

func TestInviteEmail(t *testing.T) {
	exp := time.Date(2025, 2, 14, 10, 0, 0, 0, time.UTC)
	req := InviteEmail("coach@example.com", "trainer", "https://etape.app/", "tok_abc", exp)

	if len(req.To) != 1 || req.To[0] != "coach@example.com" {
		t.Errorf("To = %v", req.To)
	}
	if !strings.Contains(req.HTML, "https://etape.app/register?invite=tok_abc") {
		t.Errorf("link missing from body: %s", req.HTML)
	}
	if !strings.Contains(req.HTML, "14 February 2025") {
		t.Errorf("expiry missing from body: %s", req.HTML)
	}
}

func TestNoopSenderSend(t *testing.T) {
	res, err := NewNoopSender().Send(context.Background(), SendRequest{To: []string{"a@b.c"}, Subject: "hi"})
	if err != nil || !strings.HasPrefix(res.MessageID, "noop-") {
		t.Errorf("Send = %+v, %v", res, err)
	}
}
