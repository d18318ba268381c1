package dto

import (
	"time"

	"github.com/spec-kit/emr-service/internal/domain"
)

// ActivityLogCreateRequest appends an activity entry; activity_date defaults to now.
type ActivityLogCreateRequest struct {
	ActivityDate        *time.Time `json:"activity_date"`
	ActivityDescription string     `json:"activity_description"`
}

// ActivityLogResponse mirrors a stored activity entry.
type ActivityLogResponse struct {
	ID                  int64     `json:"id"`
	UserID              int64     `json:"user_id"`
	ActivityDate        time.Time `json:"activity_date"`
	ActivityDescription string    `json:"activity_description"`
}

func NewActivityLogResponse(e *domain.UserActivityLog) ActivityLogResponse {
	return ActivityLogResponse{
		ID:                  e.ID,
		UserID:              e.UserID,
		ActivityDate:        e.OccurredAt,
		ActivityDescription: e.Description,
	}
}

func NewActivityLogResponses(entries []domain.UserActivityLog) []ActivityLogResponse {
	out := make([]ActivityLogResponse, 0, len(entries))
	for i := range entries {
		out = append(out, NewActivityLogResponse(&entries[i]))
	}
	return out
}
