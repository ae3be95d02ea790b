package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/healthbridge/portal/internal/platform/auth"
)

// Logger emits one structured line per request. Authenticated calls carry
// the caller's id and role, so portal access is auditable per user rather
// than per address.
func Logger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			method := c.Request().Method
			path := c.Request().URL.Path

			err := next(c)

			evt := logger.Info()
			if err != nil {
				evt = logger.Error().Err(err)
			}
			if rid, ok := c.Get("request_id").(string); ok {
				evt.Str("request_id", rid)
			}
			// Auth runs inside this middleware, so the identity is read
			// from the request after the chain returns.
			if ident, ok := auth.IdentityFromContext(c.Request().Context()); ok {
				evt.Str("user_id", ident.UserID.String()).Str("role", ident.Role)
			}
			evt.
				Str("method", method).
				Str("path", path).
				Int("status", c.Response().Status).
				Dur("latency", time.Since(start)).
				Str("remote_ip", c.RealIP()).
				Msg("request")

			return err
		}
	}
}
