package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginAttemptRepository counts failed logins per username inside a rolling window.
type LoginAttemptRepository interface {
	Failures(ctx context.Context, username string) (int64, error)
	RecordFailure(ctx context.Context, username string) (int64, error)
	Reset(ctx context.Context, username string) error
}

// AttemptClient is the subset of the go-redis client used for counters.
type AttemptClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type loginAttemptRepository struct {
	client AttemptClient
	window time.Duration
}

// NewLoginAttemptRepository returns a Redis-backed counter. The window starts at the
// first failure and is not extended by later ones. A counter left without a TTL, for
// instance after a failed EXPIRE, is re-armed on the next read or write.
func NewLoginAttemptRepository(client AttemptClient, window time.Duration) LoginAttemptRepository {
	return &loginAttemptRepository{client: client, window: window}
}

// attemptKey uses the username verbatim: usernames are unique case-sensitively.
func attemptKey(username string) string {
	return fmt.Sprintf("auth:login_failures:%s", username)
}

func (r *loginAttemptRepository) Failures(ctx context.Context, username string) (int64, error) {
	key := attemptKey(username)
	n, err := r.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if err := r.ensureExpiry(ctx, key); err != nil {
		return n, err
	}
	return n, nil
}

func (r *loginAttemptRepository) RecordFailure(ctx context.Context, username string) (int64, error) {
	key := attemptKey(username)
	n, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		return n, r.client.Expire(ctx, key, r.window).Err()
	}
	return n, r.ensureExpiry(ctx, key)
}

// ensureExpiry sets the window on a counter that has none. TTL reports -1 for a key
// without expiry and -2 for a missing key; only the former needs fixing.
func (r *loginAttemptRepository) ensureExpiry(ctx context.Context, key string) error {
	ttl, err := r.client.TTL(ctx, key).Result()
	if err != nil {
		return err
	}
	if ttl != -1 {
		return nil
	}
	return r.client.Expire(ctx, key, r.window).Err()
}

func (r *loginAttemptRepository) Reset(ctx context.Context, username string) error {
	return r.client.Del(ctx, attemptKey(username)).Err()
}
