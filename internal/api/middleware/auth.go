package middleware

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/crediya/iam-service/internal/core/domain"
	"github.com/crediya/iam-service/internal/core/ports"
)

const (
	principalKey    = "principal"
	accessTokenKey  = "access_token"
	bearerPrefixLen = len("bearer ")
)

// Auth verifies the bearer token, if any, and stores the principal in the
// context. Requests without a valid token continue anonymously; access rules
// are enforced by RequireAuthority.
func Auth(verifier ports.TokenVerifier, now func() time.Time) echo.MiddlewareFunc {
	if now == nil {
		now = time.Now
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := bearerToken(c)
			if token == "" {
				return next(c)
			}
			if p, ok := verifier.Verify(token, now()); ok {
				c.Set(principalKey, p)
			}
			return next(c)
		}
	}
}

// bearerToken reads the Authorization header and falls back to the
// access_token query parameter when the header is absent.
func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return strings.TrimSpace(c.QueryParam(accessTokenKey))
	}
	if len(header) <= bearerPrefixLen || !strings.EqualFold(header[:bearerPrefixLen], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[bearerPrefixLen:])
}

// PrincipalFrom returns the principal set by Auth.
func PrincipalFrom(c echo.Context) (domain.Principal, bool) {
	p, ok := c.Get(principalKey).(domain.Principal)
	return p, ok
}
