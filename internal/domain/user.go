package domain

import "time"

// User is the domain model for anyone holding an account: patients and facility staff alike.
type User struct {
	ID            int64
	Username      string
	FirstName     string
	MiddleInitial *string
	LastName      string
	DateOfBirth   time.Time
	Email         *string
	FacilityID    string
	Enabled       bool
	PasswordHash  string
	StreetAddress *string
	City          *string
	State         *string
	Country       *string
	PhoneNumber   *string
	CreatedAt     time.Time
}
