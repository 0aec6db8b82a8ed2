package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireAuthority rejects anonymous requests with 401 and principals that
// hold none of the given authorities with 403.
func RequireAuthority(authorities ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFrom(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			for _, a := range authorities {
				if p.HasAuthority(a) {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "access forbidden")
		}
	}
}
