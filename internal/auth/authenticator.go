package auth

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/emr-service/internal/domain"
)

// Authenticator checks username/password pairs against the credential store.
type Authenticator struct {
	store  CredentialStore
	hasher PasswordHasher
	logger *zap.Logger
}

// NewAuthenticator constructs an authenticator.
func NewAuthenticator(store CredentialStore, hasher PasswordHasher, logger *zap.Logger) *Authenticator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authenticator{store: store, hasher: hasher, logger: logger}
}

// Authenticate returns the subject when password matches an active account.
// Unknown, disabled and mismatched accounts all fail with ErrInvalidCredentials.
func (a *Authenticator) Authenticate(ctx context.Context, subject, password string) (domain.AuthenticatedSubject, error) {
	record, err := a.store.FindBySubject(ctx, subject)
	if err != nil {
		if errors.Is(err, ErrSubjectNotFound) {
			return domain.AuthenticatedSubject{}, a.rejected(subject, ReasonUnknownSubject)
		}
		a.logger.Error("credential lookup failed", zap.String("subject", subject), zap.Error(err))
		return domain.AuthenticatedSubject{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	if !record.Active {
		return domain.AuthenticatedSubject{}, a.rejected(subject, ReasonDisabledAccount)
	}
	if !a.hasher.Verify(password, record.PasswordHash) {
		return domain.AuthenticatedSubject{}, a.rejected(subject, ReasonBadCredential)
	}

	return domain.AuthenticatedSubject{Subject: record.Subject}, nil
}

func (a *Authenticator) rejected(subject string, reason Reason) error {
	a.logger.Warn("authentication rejected", zap.String("subject", subject), zap.String("reason", string(reason)))
	return reject(ErrInvalidCredentials, reason)
}
