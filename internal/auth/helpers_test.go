package auth_test

import (
	"context"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/emr-service/internal/auth"
	"github.com/spec-kit/emr-service/internal/domain"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// memoryStore is an in-process credential store for tests only.
type memoryStore struct {
	mu      sync.RWMutex
	records map[string]domain.CredentialRecord
	err     error
	lookups int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{records: map[string]domain.CredentialRecord{}}
}

func (s *memoryStore) put(subject, hash string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[subject] = domain.CredentialRecord{
		Subject:      subject,
		PasswordHash: hash,
		Active:       active,
		User:         &domain.User{ID: int64(len(s.records) + 1), Username: subject, FirstName: "First", LastName: "Last", Enabled: active},
	}
}

func (s *memoryStore) setActive(subject string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record := s.records[subject]
	record.Active = active
	s.records[subject] = record
}

func (s *memoryStore) FindBySubject(_ context.Context, subject string) (*domain.CredentialRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
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

// countingHasher records how often Verify runs.
type countingHasher struct {
	auth.PasswordHasher
	mu       sync.Mutex
	verifies int
}

func (h *countingHasher) Verify(plaintext, hash string) bool {
	h.mu.Lock()
	h.verifies++
	h.mu.Unlock()
	return h.PasswordHasher.Verify(plaintext, hash)
}

func newTestHasher() auth.PasswordHasher {
	return auth.NewBcryptHasher(bcrypt.MinCost)
}

func mustHash(h auth.PasswordHasher, plaintext string) string {
	hash, err := h.Hash(plaintext)
	if err != nil {
		panic(err)
	}
	return hash
}
