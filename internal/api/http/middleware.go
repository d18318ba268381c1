package http

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/emr-service/internal/auth"
	"github.com/spec-kit/emr-service/internal/observability"
	"github.com/spec-kit/emr-service/internal/service"
	apperrors "github.com/spec-kit/emr-service/pkg/util/errorutil"
)

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(observability.RequestLogger(logger, metrics))
	app.Use(errorHandlingMiddleware(logger, metrics))
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				domainErr := toDomainError(err)
				metrics.RecordError(routePath(c), c.Method(), domainErr.Code)
				response := fiber.Map{"error": fiber.Map{
					"code":    domainErr.Code,
					"message": domainErr.Message,
				}}
				if len(domainErr.Details) > 0 {
					response["error"].(fiber.Map)["details"] = domainErr.Details
				}
				if domainErr.HTTPStatus >= 500 {
					logger.Error("request failed", zap.String("code", domainErr.Code), zap.Error(domainErr))
				}
				if domainErr.HTTPStatus == http.StatusUnauthorized {
					c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
				}
				c.Status(domainErr.HTTPStatus)
				_ = c.JSON(response)
				err = nil
			}
		}()
		return c.Next()
	}
}

func routePath(c *fiber.Ctx) string {
	if r := c.Route(); r != nil && r.Path != "" {
		return r.Path
	}
	return c.Path()
}

// toDomainError maps auth, service and fiber errors onto the HTTP error envelope.
// Auth rejections keep one fixed message per kind so callers cannot tell reasons apart.
func toDomainError(err error) *apperrors.DomainError {
	var (
		domainErr  *apperrors.DomainError
		validation *service.ValidationError
		fiberErr   *fiber.Error
	)
	switch {
	case errors.As(err, &domainErr):
		return domainErr
	case errors.Is(err, auth.ErrInvalidCredentials):
		return unauthorized("INVALID_CREDENTIALS", "Incorrect username or password")
	case errors.Is(err, auth.ErrUnauthenticated):
		return unauthorized("UNAUTHENTICATED", "Could not validate credentials")
	case errors.Is(err, auth.ErrStoreUnavailable):
		return apperrors.NewServiceUnavailable("STORE_UNAVAILABLE", err).(*apperrors.DomainError)
	case errors.Is(err, service.ErrTooManyAttempts):
		return apperrors.NewTooManyRequests("too many failed login attempts, try again later").(*apperrors.DomainError)
	case errors.Is(err, service.ErrUsernameTaken):
		return apperrors.NewConflict("username already exists", nil).(*apperrors.DomainError)
	case errors.Is(err, service.ErrEmailTaken):
		return apperrors.NewConflict("email already exists", nil).(*apperrors.DomainError)
	case errors.Is(err, service.ErrUserNotFound):
		return apperrors.NewNotFound("user", nil).(*apperrors.DomainError)
	case errors.As(err, &validation):
		return apperrors.NewValidationError("invalid request", validation.Details()).(*apperrors.DomainError)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewDomainError("REQUEST_TIMEOUT", "request timed out", http.StatusGatewayTimeout, nil)
	case errors.As(err, &fiberErr):
		return apperrors.NewDomainError(fiberCode(fiberErr.Code), fiberErr.Message, fiberErr.Code, nil)
	}
	return apperrors.ToDomainError(err)
}

func unauthorized(code, message string) *apperrors.DomainError {
	return apperrors.NewUnauthorized(code, message).(*apperrors.DomainError)
}

func fiberCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusNotFound:
		return "ROUTE_NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusUnprocessableEntity:
		return "UNPROCESSABLE_ENTITY"
	}
	if status >= 500 {
		return "INTERNAL_ERROR"
	}
	return "REQUEST_FAILED"
}
