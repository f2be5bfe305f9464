package middleware

import (
	"crypto/subtle"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// AdminKeyHeader carries the back-office API key
const AdminKeyHeader = "X-Admin-Key"

// AdminAuth guards back-office routes with a shared API key, accepted either in
// X-Admin-Key or as a bearer token
func AdminAuth(apiKey string) echo.MiddlewareFunc {
	expected := []byte(apiKey)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			provided := c.Request().Header.Get(AdminKeyHeader)
			if provided == "" {
				provided, _ = bearerToken(c)
			}
			if provided == "" {
				return unauthorizedError(c, "missing admin key")
			}

			if len(expected) == 0 || subtle.ConstantTimeCompare([]byte(provided), expected) != 1 {
				log.Warn().
					Str("path", c.Request().URL.Path).
					Str("remote_ip", c.RealIP()).
					Msg("Rejected admin request with invalid key")
				return unauthorizedError(c, "invalid admin key")
			}

			return next(c)
		}
	}
}
