package auth_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/spec-kit/emr-service/internal/auth"
)

type recordedOutcome struct {
	operation string
	outcome   string
}

type outcomeRecorder struct {
	outcomes []recordedOutcome
}

func (r *outcomeRecorder) RecordAuthOutcome(operation, outcome string) {
	r.outcomes = append(r.outcomes, recordedOutcome{operation: operation, outcome: outcome})
}

func newMiddlewareApp(t *testing.T, codec *auth.TokenCodec, store *memoryStore, recorder *outcomeRecorder) *fiber.App {
	t.Helper()
	middleware := auth.NewAuthMiddleware(auth.NewResolver(codec, store, zaptest.NewLogger(t)), recorder)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if errors.Is(err, auth.ErrUnauthenticated) {
				return c.SendStatus(http.StatusUnauthorized)
			}
			return c.SendStatus(http.StatusInternalServerError)
		},
	})
	app.Get("/me", middleware.Handle, func(c *fiber.Ctx) error {
		user, ok := auth.CurrentUserFromContext(c)
		if !ok {
			return c.SendStatus(http.StatusTeapot)
		}
		return c.SendString(user.Username)
	})
	return app
}

func TestAuthMiddleware(t *testing.T) {
	clock := newFakeClock()
	codec := newTestCodec(t, clock)
	store := newMemoryStore()
	store.put("alice", "hash", true)
	recorder := &outcomeRecorder{}
	app := newMiddlewareApp(t, codec, store, recorder)

	token, _, err := codec.Issue("alice", time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	store.err = errors.New("db down")
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	assert.Equal(t, []recordedOutcome{
		{operation: "resolve", outcome: "success"},
		{operation: "resolve", outcome: string(auth.ReasonMalformedToken)},
		{operation: "resolve", outcome: "store_unavailable"},
	}, recorder.outcomes)
}

func TestCurrentUserFromContextMissing(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		_, ok := auth.CurrentUserFromContext(c)
		assert.False(t, ok)
		return c.SendStatus(http.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
