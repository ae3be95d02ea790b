package middleware

import (
	"net/http"
	"runtime"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/healthbridge/portal/internal/platform/auth"
)

// Recovery converts a handler panic into a plain 500 and logs the stack
// with enough request context to reproduce it.
func Recovery(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					stack := make([]byte, 4096)
					n := runtime.Stack(stack, false)

					evt := logger.Error().
						Str("method", c.Request().Method).
						Str("path", c.Request().URL.Path).
						Interface("panic", r).
						Bytes("stack", stack[:n])
					if rid, ok := c.Get("request_id").(string); ok {
						evt.Str("request_id", rid)
					}
					if uid := auth.UserIDFromContext(c.Request().Context()); uid != "" {
						evt.Str("user_id", uid)
					}
					evt.Msg("panic recovered")

					err = echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
				}
			}()
			return next(c)
		}
	}
}
