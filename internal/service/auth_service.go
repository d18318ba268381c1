package service

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/spec-kit/emr-service/internal/auth"
	"github.com/spec-kit/emr-service/internal/config"
	"github.com/spec-kit/emr-service/internal/events"
	"github.com/spec-kit/emr-service/internal/repository"
)

// TokenTypeBearer is the OAuth2 token type returned by Login.
const TokenTypeBearer = "bearer"

// LoginResult is a freshly issued access token.
type LoginResult struct {
	Subject     string
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

// AuthService coordinates the login flow.
type AuthService struct {
	hasher        auth.PasswordHasher
	codec         *auth.TokenCodec
	authenticator *auth.Authenticator
	attempts      repository.LoginAttemptRepository
	dispatcher    events.Dispatcher
	recorder      auth.OutcomeRecorder
	logger        *zap.Logger
	tracer        trace.Tracer
	tokenTTL      time.Duration
	maxAttempts   int
	now           func() time.Time
}

// AuthDependencies encapsulates collaborators for the auth service.
// Attempts, Dispatcher, Recorder and Tracer are optional.
type AuthDependencies struct {
	Store      auth.CredentialStore
	Attempts   repository.LoginAttemptRepository
	Dispatcher events.Dispatcher
	Recorder   auth.OutcomeRecorder
	Logger     *zap.Logger
	Tracer     trace.Tracer
	Clock      func() time.Time
}

// NewAuthService builds the service and the token codec it issues with.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) (*AuthService, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	tracer := deps.Tracer
	if tracer == nil {
		tracer = otel.Tracer("emr-service/auth")
	}

	codec, err := auth.NewTokenCodec([]byte(cfg.JWTSecret), auth.WithClock(now))
	if err != nil {
		return nil, fmt.Errorf("token codec: %w", err)
	}
	hasher := auth.NewBcryptHasher(cfg.BcryptCost)

	return &AuthService{
		hasher:        hasher,
		codec:         codec,
		authenticator: auth.NewAuthenticator(deps.Store, hasher, logger),
		attempts:      deps.Attempts,
		dispatcher:    deps.Dispatcher,
		recorder:      deps.Recorder,
		logger:        logger,
		tracer:        tracer,
		tokenTTL:      cfg.AccessTokenTTL(),
		maxAttempts:   cfg.MaxLoginAttempts,
		now:           now,
	}, nil
}

// Login authenticates username/password and issues an access token.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.Login")
	defer span.End()

	if s.throttled(ctx, username) {
		s.record(span, "throttled")
		return nil, ErrTooManyAttempts
	}

	subject, err := s.authenticator.Authenticate(ctx, username, password)
	if err != nil {
		outcome := auth.Outcome(err)
		s.record(span, outcome)
		if reason, ok := auth.RejectionReason(err); ok {
			s.recordFailure(ctx, username)
			s.publish(ctx, events.NewLoginEvent(username, string(reason), s.now()))
		} else {
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		}
		return nil, err
	}

	token, claims, err := s.codec.Issue(subject.Subject, s.tokenTTL)
	if err != nil {
		s.record(span, "error")
		span.RecordError(err)
		span.SetStatus(codes.Error, "issue token")
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.resetFailures(ctx, username)
	s.publish(ctx, events.NewLoginEvent(subject.Subject, "", claims.IssuedAt))
	s.record(span, "success")

	return &LoginResult{
		Subject:     subject.Subject,
		AccessToken: token,
		TokenType:   TokenTypeBearer,
		ExpiresAt:   claims.ExpiresAt,
	}, nil
}

// TokenCodec exposes the codec for the request identity resolver.
func (s *AuthService) TokenCodec() *auth.TokenCodec {
	return s.codec
}

// Hasher exposes the password hasher used for new accounts.
func (s *AuthService) Hasher() auth.PasswordHasher {
	return s.hasher
}

// throttled reports whether username reached the failure limit. Counter faults fail open.
func (s *AuthService) throttled(ctx context.Context, username string) bool {
	if s.attempts == nil || s.maxAttempts <= 0 {
		return false
	}
	failures, err := s.attempts.Failures(ctx, username)
	if err != nil {
		s.logger.Warn("login attempt counter unavailable", zap.Error(err))
		return false
	}
	return failures >= int64(s.maxAttempts)
}

func (s *AuthService) recordFailure(ctx context.Context, username string) {
	if s.attempts == nil {
		return
	}
	if _, err := s.attempts.RecordFailure(ctx, username); err != nil {
		s.logger.Warn("record failed login attempt", zap.Error(err))
	}
}

func (s *AuthService) resetFailures(ctx context.Context, username string) {
	if s.attempts == nil {
		return
	}
	if err := s.attempts.Reset(ctx, username); err != nil {
		s.logger.Warn("reset login attempts", zap.Error(err))
	}
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func (s *AuthService) record(span trace.Span, outcome string) {
	span.SetAttributes(attribute.String("auth.outcome", outcome))
	if s.recorder == nil {
		return
	}
	s.recorder.RecordAuthOutcome("login", outcome)
}
