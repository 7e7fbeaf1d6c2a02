package http

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/access-gateway/internal/auth"
	"github.com/spec-kit/access-gateway/internal/guard"
	"github.com/spec-kit/access-gateway/internal/observability"
	apperrors "github.com/spec-kit/access-gateway/pkg/util"
)

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	app.Use(observability.RequestID())
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(observability.RequestLogger(logger, metrics))
	app.Use(errorHandlingMiddleware(logger, metrics))
}

// GuardMiddleware runs the access guard for paths covered by matcher. A
// redirect short-circuits the chain; a forward continues it untouched.
// Decisions are taken on the canonical path so that encoded, dotted or
// doubled-slash spellings of a protected path are guarded like the path itself.
func GuardMiddleware(g *guard.Guard, matcher *guard.Matcher, cookieName string, logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path, err := guard.CanonicalPath(c.Path())
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "malformed request path")
		}
		if !matcher.Match(path) {
			return c.Next()
		}

		decision := g.Evaluate(c.UserContext(), guard.Request{
			Path:        path,
			RawQuery:    string(c.Request().URI().QueryString()),
			Credentials: auth.CredentialsFromRequest(c, cookieName),
		})
		metrics.RecordDecision(decision.Rule.Class.String(), decision.Outcome.String(), string(decision.Reason))

		if decision.Outcome == guard.OutcomeRedirect {
			logger.Debug("access redirected",
				zap.String("path", path),
				zap.String("class", decision.Rule.Class.String()),
				zap.String("reason", string(decision.Reason)),
			)
			return c.Redirect(decision.Location, fiber.StatusTemporaryRedirect)
		}
		return c.Next()
	}
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
				domainErr := apperrors.ToDomainError(err)
				metrics.RecordError(c.Route().Path, c.Method(), domainErr.Code)
				response := fiber.Map{"error": fiber.Map{
					"code":    domainErr.Code,
					"message": domainErr.Message,
				}}
				if len(domainErr.Details) > 0 {
					response["error"].(fiber.Map)["details"] = domainErr.Details
				}
				if domainErr.HTTPStatus >= 500 {
					logger.Error("request failed", zap.Error(domainErr))
				}
				c.Status(domainErr.HTTPStatus)
				_ = c.JSON(response)
				err = nil
			}
		}()
		return c.Next()
	}
}
