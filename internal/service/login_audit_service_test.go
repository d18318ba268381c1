package service

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/spec-kit/emr-service/internal/domain"
	"github.com/spec-kit/emr-service/internal/events"
)

func TestLoginAuditServiceWritesKnownUsers(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)
	logs := new(MockActivityLogRepository)
	dispatcher := events.NewInMemoryDispatcher(zaptest.NewLogger(t))
	NewLoginAuditService(dispatcher, users, logs, zaptest.NewLogger(t)).RegisterHandlers()

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	users.On("GetByUsername", ctx, "alice").Return(&domain.User{ID: 5, Username: "alice"}, nil)
	users.On("GetByUsername", ctx, "ghost").Return(nil, pgx.ErrNoRows)
	logs.On("CreateLogin", ctx, mock.MatchedBy(func(e *domain.UserLoginLog) bool {
		return e.UserID == 5 && e.Description == "login succeeded" && e.OccurredAt.Equal(at)
	})).Return(nil).Once()
	logs.On("CreateLogin", ctx, mock.MatchedBy(func(e *domain.UserLoginLog) bool {
		return e.UserID == 5 && e.Description == "login rejected: bad_credential"
	})).Return(nil).Once()

	require.NoError(t, dispatcher.Publish(ctx, events.NewLoginEvent("alice", "", at)))
	require.NoError(t, dispatcher.Publish(ctx, events.NewLoginEvent("alice", "bad_credential", at)))
	require.NoError(t, dispatcher.Publish(ctx, events.NewLoginEvent("ghost", "unknown_subject", at)))

	logs.AssertExpectations(t)
	logs.AssertNumberOfCalls(t, "CreateLogin", 2)
}
