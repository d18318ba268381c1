package domain

import "time"

// CredentialRecord is the read-only view of an account the auth core checks passwords
// and liveness against. User carries the profile when the store has one.
type CredentialRecord struct {
	Subject      string
	PasswordHash string
	Active       bool
	User         *User
}

// ClaimSet is the payload carried inside a bearer token. It is never persisted.
type ClaimSet struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// AuthenticatedSubject is the outcome of a successful password check.
type AuthenticatedSubject struct {
	Subject string
}

// CurrentUser is the identity attached to a request after its bearer token resolved.
type CurrentUser struct {
	ID         int64
	Username   string
	FirstName  string
	LastName   string
	Email      *string
	FacilityID string
	Enabled    bool
}

// NewCurrentUser assembles the request identity from a store record.
func NewCurrentUser(record *CredentialRecord) *CurrentUser {
	current := &CurrentUser{Username: record.Subject, Enabled: record.Active}
	if u := record.User; u != nil {
		current.ID = u.ID
		current.FirstName = u.FirstName
		current.LastName = u.LastName
		current.Email = u.Email
		current.FacilityID = u.FacilityID
	}
	return current
}
