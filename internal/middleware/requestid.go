package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/tabledadrian/adrian-backend/internal/genctx"
)

// RequestID copies the X-Request-ID header into the request context so
// upstream call logs share the id echo's logger prints. Run it after
// echo's RequestID middleware.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid := c.Response().Header().Get(echo.HeaderXRequestID)
			if rid == "" {
				rid = c.Request().Header.Get(echo.HeaderXRequestID)
			}
			req := c.Request()
			ctx := req.Context()
			if rid != "" {
				ctx = genctx.WithRID(ctx, rid)
			} else {
				ctx = genctx.EnsureRID(ctx)
			}
			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	}
}
