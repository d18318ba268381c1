package service

import (
	"context"
	"strings"
	"time"

	"github.com/spec-kit/emr-service/internal/domain"
	"github.com/spec-kit/emr-service/internal/repository"
)

// ActivityService records and lists user activity logs.
type ActivityService struct {
	users repository.UserRepository
	logs  repository.ActivityLogRepository
	now   func() time.Time
}

// NewActivityService builds the service.
func NewActivityService(users repository.UserRepository, logs repository.ActivityLogRepository) *ActivityService {
	return &ActivityService{users: users, logs: logs, now: time.Now}
}

// Create appends an activity log entry for an existing user. A zero occurredAt means now.
func (s *ActivityService) Create(ctx context.Context, userID int64, description string, occurredAt time.Time) (*domain.UserActivityLog, error) {
	if strings.TrimSpace(description) == "" {
		return nil, invalid("activity_description", "required")
	}
	if _, err := getUser(ctx, s.users, userID); err != nil {
		return nil, err
	}
	if occurredAt.IsZero() {
		occurredAt = s.now()
	}

	entry := &domain.UserActivityLog{
		UserID:      userID,
		OccurredAt:  occurredAt,
		Description: description,
	}
	if err := s.logs.CreateActivity(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// List pages through activity logs.
func (s *ActivityService) List(ctx context.Context, skip, limit int) ([]domain.UserActivityLog, error) {
	skip, limit = normalizePage(skip, limit)
	return s.logs.ListActivity(ctx, skip, limit)
}
