package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/emr-service/internal/domain"
)

const currentUserKey = "auth_current_user"

// OutcomeRecorder receives one observation per authentication decision.
type OutcomeRecorder interface {
	RecordAuthOutcome(operation, outcome string)
}

// AuthMiddleware resolves bearer tokens into the current user.
type AuthMiddleware struct {
	resolver *Resolver
	recorder OutcomeRecorder
}

// NewAuthMiddleware constructs middleware. recorder may be nil.
func NewAuthMiddleware(resolver *Resolver, recorder OutcomeRecorder) *AuthMiddleware {
	return &AuthMiddleware{resolver: resolver, recorder: recorder}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	user, err := m.resolver.Resolve(c.UserContext(), c.Get(fiber.HeaderAuthorization))
	m.record(err)
	if err != nil {
		return err
	}

	c.Locals(currentUserKey, user)
	return c.Next()
}

func (m *AuthMiddleware) record(err error) {
	if m.recorder == nil {
		return
	}
	m.recorder.RecordAuthOutcome("resolve", Outcome(err))
}

// Outcome labels an authentication result for metrics.
func Outcome(err error) string {
	if err == nil {
		return "success"
	}
	if reason, ok := RejectionReason(err); ok {
		return string(reason)
	}
	if errors.Is(err, ErrStoreUnavailable) {
		return "store_unavailable"
	}
	return "error"
}

// CurrentUserFromContext retrieves the authenticated user.
func CurrentUserFromContext(c *fiber.Ctx) (*domain.CurrentUser, bool) {
	val := c.Locals(currentUserKey)
	if val == nil {
		return nil, false
	}
	user, ok := val.(*domain.CurrentUser)
	return user, ok
}
