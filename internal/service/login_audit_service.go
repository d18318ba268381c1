package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/emr-service/internal/domain"
	"github.com/spec-kit/emr-service/internal/events"
	"github.com/spec-kit/emr-service/internal/repository"
)

// LoginAuditService writes login events for known accounts to user_login_logs.
type LoginAuditService struct {
	dispatcher events.Dispatcher
	users      repository.UserRepository
	logs       repository.ActivityLogRepository
	logger     *zap.Logger
}

// NewLoginAuditService creates the service.
func NewLoginAuditService(dispatcher events.Dispatcher, users repository.UserRepository, logs repository.ActivityLogRepository, logger *zap.Logger) *LoginAuditService {
	return &LoginAuditService{
		dispatcher: dispatcher,
		users:      users,
		logs:       logs,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (s *LoginAuditService) RegisterHandlers() {
	if s.dispatcher == nil {
		return
	}
	events.SubscribeAll(s.dispatcher, s.handleLogin, events.LoginEventTypes...)
}

func (s *LoginAuditService) handleLogin(ctx context.Context, event events.Event) error {
	user, err := s.users.GetByUsername(ctx, event.Subject)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Debug("login audit skipped for unknown subject", zap.String("event_id", event.ID))
			return nil
		}
		return fmt.Errorf("lookup user for login audit: %w", err)
	}

	entry := &domain.UserLoginLog{
		UserID:      user.ID,
		OccurredAt:  event.Timestamp,
		Description: loginDescription(event),
	}
	if err := s.logs.CreateLogin(ctx, entry); err != nil {
		return fmt.Errorf("write login log: %w", err)
	}
	return nil
}

func loginDescription(event events.Event) string {
	if event.Type == events.EventLoginSucceeded {
		return "login succeeded"
	}
	return "login rejected: " + event.Reason
}
