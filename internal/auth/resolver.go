package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/emr-service/internal/domain"
)

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", reject(ErrUnauthenticated, ReasonMalformedToken)
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", reject(ErrUnauthenticated, ReasonMalformedToken)
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", reject(ErrUnauthenticated, ReasonMalformedToken)
	}
	return token, nil
}

// Resolve turns a bearer token into the current user. The token only contributes its
// subject: liveness and profile always come from the store, since a token can outlive
// the account it names.
func Resolve(ctx context.Context, verifier TokenVerifier, store CredentialStore, token string) (*domain.CurrentUser, error) {
	claims, err := verifier.Verify(token)
	if err != nil {
		reason, ok := RejectionReason(err)
		if !ok {
			reason = ReasonMalformedToken
		}
		return nil, reject(ErrUnauthenticated, reason)
	}

	record, err := store.FindBySubject(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrSubjectNotFound) {
			return nil, reject(ErrUnauthenticated, ReasonUnknownSubject)
		}
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	if !record.Active {
		return nil, reject(ErrUnauthenticated, ReasonDisabledAccount)
	}

	return domain.NewCurrentUser(record), nil
}

// Resolver binds Resolve to a verifier and store and logs rejection reasons.
type Resolver struct {
	verifier TokenVerifier
	store    CredentialStore
	logger   *zap.Logger
}

// NewResolver constructs a resolver.
func NewResolver(verifier TokenVerifier, store CredentialStore, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{verifier: verifier, store: store, logger: logger}
}

// Resolve resolves the token carried by an Authorization header value.
func (r *Resolver) Resolve(ctx context.Context, authorization string) (*domain.CurrentUser, error) {
	token, err := BearerToken(authorization)
	if err != nil {
		r.logFailure(err)
		return nil, err
	}
	user, err := Resolve(ctx, r.verifier, r.store, token)
	if err != nil {
		r.logFailure(err)
		return nil, err
	}
	return user, nil
}

func (r *Resolver) logFailure(err error) {
	if reason, ok := RejectionReason(err); ok {
		r.logger.Warn("bearer token rejected", zap.String("reason", string(reason)))
		return
	}
	r.logger.Error("identity resolution failed", zap.Error(err))
}
