package echoapi

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/KushalGupta-07/Smart-Admission-System/core"
)

func adminMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsAdmin && contextHasAnyRole(ctx, roles) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// rateLimitMiddleware allows limit calls per window to each caller of the
// routes named name. Callers are the signed in user, or the client IP.
func rateLimitMiddleware(limiter core.RateLimiter, name string, limit int, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			caller := "ip:" + ctx.RealIP()
			if claims, err := getContextClaims(ctx); err == nil {
				caller = "user:" + claims.Subject
			}
			if !limiter.Allow(ctx.Request().Context(), name+":"+caller, limit, window) {
				return core.ErrRateLimited
			}
			return next(ctx)
		}
	}
}
