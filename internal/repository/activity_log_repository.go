package repository

import (
	"context"

	"github.com/spec-kit/emr-service/internal/domain"
)

// ActivityLogRepository persists user activity and login logs.
type ActivityLogRepository interface {
	CreateActivity(ctx context.Context, entry *domain.UserActivityLog) error
	ListActivity(ctx context.Context, offset, limit int) ([]domain.UserActivityLog, error)
	CreateLogin(ctx context.Context, entry *domain.UserLoginLog) error
}

type activityLogRepository struct {
	db DBTX
}

// NewActivityLogRepository constructs repository.
func NewActivityLogRepository(db DBTX) ActivityLogRepository {
	return &activityLogRepository{db: db}
}

func (r *activityLogRepository) CreateActivity(ctx context.Context, entry *domain.UserActivityLog) error {
	const query = `
        INSERT INTO user_activity_logs (user_id, user_date_time_of_activity, activity_description)
        VALUES ($1, $2, $3)
        RETURNING user_activity_log_id`
	return r.db.QueryRow(ctx, query, entry.UserID, entry.OccurredAt, entry.Description).Scan(&entry.ID)
}

func (r *activityLogRepository) ListActivity(ctx context.Context, offset, limit int) ([]domain.UserActivityLog, error) {
	const query = `
        SELECT user_activity_log_id, user_id, user_date_time_of_activity, activity_description
        FROM user_activity_logs ORDER BY user_activity_log_id OFFSET $1 LIMIT $2`

	rows, err := r.db.Query(ctx, query, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.UserActivityLog, 0)
	for rows.Next() {
		var entry domain.UserActivityLog
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.OccurredAt, &entry.Description); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *activityLogRepository) CreateLogin(ctx context.Context, entry *domain.UserLoginLog) error {
	const query = `
        INSERT INTO user_login_logs (user_id, user_date_time_of_activity, activity_description)
        VALUES ($1, $2, $3)
        RETURNING user_login_log_id`
	return r.db.QueryRow(ctx, query, entry.UserID, entry.OccurredAt, entry.Description).Scan(&entry.ID)
}
