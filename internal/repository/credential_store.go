package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/emr-service/internal/auth"
	"github.com/spec-kit/emr-service/internal/domain"
)

// CredentialStore adapts the user repository to the auth core's read seam.
type CredentialStore struct {
	users UserRepository
}

var _ auth.CredentialStore = (*CredentialStore)(nil)

// NewCredentialStore wraps users.
func NewCredentialStore(users UserRepository) *CredentialStore {
	return &CredentialStore{users: users}
}

// FindBySubject looks a username up and reports ErrSubjectNotFound for missing rows.
func (s *CredentialStore) FindBySubject(ctx context.Context, subject string) (*domain.CredentialRecord, error) {
	user, err := s.users.GetByUsername(ctx, subject)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrSubjectNotFound
		}
		return nil, err
	}
	return &domain.CredentialRecord{
		Subject:      user.Username,
		PasswordHash: user.PasswordHash,
		Active:       user.Enabled,
		User:         user,
	}, nil
}
