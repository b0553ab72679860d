package interfaces

import (
	"context"
	"time"

	"disasterguardian/models"
)

// SMSSender delivers a single text message and returns the provider id.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) (string, error)
	Name() string
}

type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// SMSDispatcher queues messages for asynchronous delivery.
type SMSDispatcher interface {
	Enqueue(job models.SMSJob) error
}

// OTPStore keeps short-lived one-time-password secrets.
type OTPStore interface {
	Save(ctx context.Context, key, secret string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
	// IncrementAttempts counts failed verifications for key.
	IncrementAttempts(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// RevocationStore remembers logged-out access tokens until they expire.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
