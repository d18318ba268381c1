package dto

import (
	"time"

	"github.com/spec-kit/emr-service/internal/domain"
)

// DateLayout is the wire format of date_of_birth.
const DateLayout = "2006-01-02"

// UserCreateRequest payload for new users.
type UserCreateRequest struct {
	Username      string  `json:"username"`
	Password      string  `json:"password"`
	FirstName     string  `json:"first_name"`
	MiddleInitial *string `json:"middle_initial"`
	LastName      string  `json:"last_name"`
	DateOfBirth   string  `json:"date_of_birth"`
	Email         *string `json:"email"`
	FacilityID    string  `json:"facility_id"`
	StreetAddress *string `json:"street_address"`
	City          *string `json:"city"`
	State         *string `json:"state"`
	Country       *string `json:"country"`
	PhoneNumber   *string `json:"phone_number"`
}

// UserEnabledRequest toggles an account.
type UserEnabledRequest struct {
	Enabled *bool `json:"enabled"`
}

// UserResponse never carries the password hash.
type UserResponse struct {
	ID            int64     `json:"id"`
	Username      string    `json:"username"`
	FirstName     string    `json:"first_name"`
	MiddleInitial *string   `json:"middle_initial,omitempty"`
	LastName      string    `json:"last_name"`
	DateOfBirth   string    `json:"date_of_birth"`
	Email         *string   `json:"email,omitempty"`
	FacilityID    string    `json:"facility_id"`
	Enabled       bool      `json:"user_enabled"`
	StreetAddress *string   `json:"street_address,omitempty"`
	City          *string   `json:"city,omitempty"`
	State         *string   `json:"state,omitempty"`
	Country       *string   `json:"country,omitempty"`
	PhoneNumber   *string   `json:"phone_number,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// CurrentUserResponse is the identity resolved from a bearer token.
type CurrentUserResponse struct {
	ID         int64   `json:"id"`
	Username   string  `json:"username"`
	FirstName  string  `json:"first_name"`
	LastName   string  `json:"last_name"`
	Email      *string `json:"email,omitempty"`
	FacilityID string  `json:"facility_id"`
	Enabled    bool    `json:"user_enabled"`
}

func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:            u.ID,
		Username:      u.Username,
		FirstName:     u.FirstName,
		MiddleInitial: u.MiddleInitial,
		LastName:      u.LastName,
		DateOfBirth:   u.DateOfBirth.Format(DateLayout),
		Email:         u.Email,
		FacilityID:    u.FacilityID,
		Enabled:       u.Enabled,
		StreetAddress: u.StreetAddress,
		City:          u.City,
		State:         u.State,
		Country:       u.Country,
		PhoneNumber:   u.PhoneNumber,
		CreatedAt:     u.CreatedAt,
	}
}

func NewUserResponses(users []domain.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, NewUserResponse(&users[i]))
	}
	return out
}

func NewCurrentUserResponse(u *domain.CurrentUser) CurrentUserResponse {
	return CurrentUserResponse{
		ID:         u.ID,
		Username:   u.Username,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Email:      u.Email,
		FacilityID: u.FacilityID,
		Enabled:    u.Enabled,
	}
}
