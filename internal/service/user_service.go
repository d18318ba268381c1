package service

import (
	"context"
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/jackc/pgx/v5"
	"github.com/nyaruka/phonenumbers"

	"github.com/spec-kit/emr-service/internal/auth"
	"github.com/spec-kit/emr-service/internal/domain"
	"github.com/spec-kit/emr-service/internal/repository"
)

const (
	defaultPageLimit = 100
	maxPageLimit     = 100

	defaultPhoneRegion = "US"
)

var errInvalidPhoneNumber = errors.New("must be a valid phone number")

// CreateUserInput carries the fields required to open an account. The json names
// key validation failures.
type CreateUserInput struct {
	Username      string    `json:"username"`
	Password      string    `json:"password"`
	FirstName     string    `json:"first_name"`
	MiddleInitial *string   `json:"middle_initial"`
	LastName      string    `json:"last_name"`
	DateOfBirth   time.Time `json:"date_of_birth"`
	Email         *string   `json:"email"`
	FacilityID    string    `json:"facility_id"`
	StreetAddress *string   `json:"street_address"`
	City          *string   `json:"city"`
	State         *string   `json:"state"`
	Country       *string   `json:"country"`
	PhoneNumber   *string   `json:"phone_number"`
}

// UserService manages user accounts.
type UserService struct {
	users  repository.UserRepository
	hasher auth.PasswordHasher
}

// NewUserService builds the service.
func NewUserService(users repository.UserRepository, hasher auth.PasswordHasher) *UserService {
	return &UserService{users: users, hasher: hasher}
}

// Create validates input, hashes the password and stores an enabled account.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*domain.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.FacilityID = strings.TrimSpace(in.FacilityID)
	if err := validateCreateUser(in); err != nil {
		return nil, err
	}
	if in.PhoneNumber != nil && *in.PhoneNumber != "" {
		normalized, err := normalizePhoneNumber(*in.PhoneNumber)
		if err != nil {
			return nil, invalid("phone_number", err.Error())
		}
		in.PhoneNumber = &normalized
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, invalid("password", err.Error())
	}

	user := &domain.User{
		Username:      in.Username,
		FirstName:     in.FirstName,
		MiddleInitial: in.MiddleInitial,
		LastName:      in.LastName,
		DateOfBirth:   in.DateOfBirth,
		Email:         in.Email,
		FacilityID:    in.FacilityID,
		Enabled:       true,
		PasswordHash:  hash,
		StreetAddress: in.StreetAddress,
		City:          in.City,
		State:         in.State,
		Country:       in.Country,
		PhoneNumber:   in.PhoneNumber,
	}
	if err := s.users.Create(ctx, user); err != nil {
		var dup *repository.DuplicateError
		switch {
		case errors.As(err, &dup) && dup.Constraint == repository.UserEmailConstraint:
			return nil, ErrEmailTaken
		case errors.Is(err, repository.ErrDuplicate):
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	return user, nil
}

// Get returns a user by id.
func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	return getUser(ctx, s.users, id)
}

func getUser(ctx context.Context, users repository.UserRepository, id int64) (*domain.User, error) {
	user, err := users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// List pages through users ordered by id.
func (s *UserService) List(ctx context.Context, skip, limit int) ([]domain.User, error) {
	skip, limit = normalizePage(skip, limit)
	return s.users.List(ctx, skip, limit)
}

// SetEnabled enables or disables an account. Disabling takes effect on the next
// request made with any outstanding token.
func (s *UserService) SetEnabled(ctx context.Context, id int64, enabled bool) (*domain.User, error) {
	if err := s.users.SetEnabled(ctx, id, enabled); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return s.Get(ctx, id)
}

func validateCreateUser(in CreateUserInput) error {
	return fromValidation(validation.ValidateStruct(&in,
		validation.Field(&in.Username, validation.Required, validation.Length(1, 75)),
		validation.Field(&in.Password, validation.Required),
		validation.Field(&in.FirstName, validation.Required, validation.Length(1, 35)),
		validation.Field(&in.MiddleInitial, validation.Length(1, 1)),
		validation.Field(&in.LastName, validation.Required, validation.Length(1, 50)),
		validation.Field(&in.DateOfBirth, validation.Required),
		validation.Field(&in.Email, validation.Length(0, 254), is.Email),
		validation.Field(&in.FacilityID, validation.Required, validation.Length(1, 75)),
		validation.Field(&in.PhoneNumber, validation.By(phoneNumberRule)),
	))
}

func phoneNumberRule(value interface{}) error {
	raw, _ := value.(*string)
	if raw == nil || *raw == "" {
		return nil
	}
	_, err := normalizePhoneNumber(*raw)
	return err
}

// normalizePhoneNumber parses raw, assuming a US number when no country code is
// given, and formats it as E.164.
func normalizePhoneNumber(raw string) (string, error) {
	num, err := phonenumbers.Parse(raw, defaultPhoneRegion)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return "", errInvalidPhoneNumber
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

func normalizePage(skip, limit int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return skip, limit
}
