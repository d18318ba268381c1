package domain

import "time"

// UserActivityLog records an action performed by or on behalf of a user.
type UserActivityLog struct {
	ID          int64
	UserID      int64
	OccurredAt  time.Time
	Description string
}

// UserLoginLog records a login attempt against a known account.
type UserLoginLog struct {
	ID          int64
	UserID      int64
	OccurredAt  time.Time
	Description string
}
