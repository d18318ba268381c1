package service

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/spec-kit/emr-service/internal/auth"
	"github.com/spec-kit/emr-service/internal/domain"
	"github.com/spec-kit/emr-service/internal/events"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) SetEnabled(ctx context.Context, id int64, enabled bool) error {
	return m.Called(ctx, id, enabled).Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, offset, limit int) ([]domain.User, error) {
	args := m.Called(ctx, offset, limit)
	users, _ := args.Get(0).([]domain.User)
	return users, args.Error(1)
}

type MockActivityLogRepository struct {
	mock.Mock
}

func (m *MockActivityLogRepository) CreateActivity(ctx context.Context, entry *domain.UserActivityLog) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *MockActivityLogRepository) ListActivity(ctx context.Context, offset, limit int) ([]domain.UserActivityLog, error) {
	args := m.Called(ctx, offset, limit)
	entries, _ := args.Get(0).([]domain.UserActivityLog)
	return entries, args.Error(1)
}

func (m *MockActivityLogRepository) CreateLogin(ctx context.Context, entry *domain.UserLoginLog) error {
	return m.Called(ctx, entry).Error(0)
}

type MockLoginAttemptRepository struct {
	mock.Mock
}

func (m *MockLoginAttemptRepository) Failures(ctx context.Context, username string) (int64, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLoginAttemptRepository) RecordFailure(ctx context.Context, username string) (int64, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLoginAttemptRepository) Reset(ctx context.Context, username string) error {
	return m.Called(ctx, username).Error(0)
}

// fakeCredentialStore is an in-memory credential store for tests only.
type fakeCredentialStore struct {
	records map[string]domain.CredentialRecord
	err     error
	lookups int
}

func (s *fakeCredentialStore) FindBySubject(_ context.Context, subject string) (*domain.CredentialRecord, error) {
	s.lookups++
	if s.err != nil {
		return nil, s.err
	}
	record, ok := s.records[subject]
	if !ok {
		return nil, auth.ErrSubjectNotFound
	}
	return &record, nil
}

type capturingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *capturingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *capturingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

type outcomeCounter map[string]int

func (c outcomeCounter) RecordAuthOutcome(operation, outcome string) {
	c[operation+":"+outcome]++
}
