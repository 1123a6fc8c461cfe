package email

import (
	"context"
	"fmt"
	"log"
	"time"
)

// NoopSender logs sends but does not deliver them. Used in development and tests.
type NoopSender struct{}

func NewNoopSender() *NoopSender {
	return &NoopSender{}
}

func (s *NoopSender) Send(_ context.Context, req SendRequest) (SendResult, error) {
	log.Printf("INFO: noop email to %v: %s", req.To, req.Subject)
	return SendResult{
		MessageID: fmt.Sprintf("noop-%d", time.Now().UnixNano()),
		SentAt:    time.Now(),
	}, nil
}
