package service

import (
	"context"
	"time"
)

// AuthEventType names what happened to an identity.
type AuthEventType string

const (
	AuthEventLogin       AuthEventType = "login"
	AuthEventOAuthLogin  AuthEventType = "oauth_login"
	AuthEventUserCreated AuthEventType = "user_created"
	AuthEventLogoutAll   AuthEventType = "logout_all"
)

// AuthEvent is published after an authentication flow succeeds.
type AuthEvent struct {
	RequestID  string        `json:"request_id,omitempty"` // For distributed tracing
	Type       AuthEventType `json:"type"`
	UserID     int64         `json:"user_id"`
	Email      string        `json:"email"`
	Provider   string        `json:"provider,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// EventPublisher defines the interface for publishing events to a message queue
type EventPublisher interface {
	// PublishAuthEvent publishes an authentication event for downstream consumers
	PublishAuthEvent(ctx context.Context, event *AuthEvent) error

	// Close releases any resources held by the publisher
	Close() error
}
