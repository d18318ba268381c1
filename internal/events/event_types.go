package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventLoginSucceeded EventType = "login_succeeded"
	EventLoginRejected  EventType = "login_rejected"
)

// LoginEventTypes lists every event a login attempt can produce.
var LoginEventTypes = []EventType{EventLoginSucceeded, EventLoginRejected}

// Event represents an auth event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Subject   string    `json:"subject"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLoginEvent builds a login event. reason is empty for successful logins.
func NewLoginEvent(subject, reason string, at time.Time) Event {
	eventType := EventLoginSucceeded
	if reason != "" {
		eventType = EventLoginRejected
	}
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Subject:   subject,
		Reason:    reason,
		Timestamp: at,
	}
}
