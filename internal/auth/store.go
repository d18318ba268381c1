package auth

import (
	"context"

	"github.com/spec-kit/emr-service/internal/domain"
)

// CredentialStore resolves a subject to its stored credential record.
// Implementations return ErrSubjectNotFound when the subject does not exist;
// any other error is treated as a store fault.
type CredentialStore interface {
	FindBySubject(ctx context.Context, subject string) (*domain.CredentialRecord, error)
}
