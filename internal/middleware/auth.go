package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/language-tutor/internal/service"
)

// identityKey is the echo.Context key holding the caller's service.Identity.
const identityKey = "identity"

// Authenticator turns a raw bearer token into an identity.
type Authenticator interface {
	Authenticate(raw string) (service.Identity, error)
}

// RequireAuth rejects requests without a valid bearer token.  The failure
// is returned as an error so the central error handler renders it.
func RequireAuth(a Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, err := a.Authenticate(bearerToken(c))
			if err != nil {
				return err
			}
			c.Set(identityKey, id)
			return next(c)
		}
	}
}

// OptionalAuth attaches the identity when a valid token is present and
// otherwise lets the request through anonymously.
func OptionalAuth(a Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if raw := bearerToken(c); raw != "" {
				if id, err := a.Authenticate(raw); err == nil {
					c.Set(identityKey, id)
				}
			}
			return next(c)
		}
	}
}

// IdentityFrom returns the identity stored by RequireAuth or OptionalAuth.
func IdentityFrom(c echo.Context) (service.Identity, bool) {
	id, ok := c.Get(identityKey).(service.Identity)
	return id, ok
}

func bearerToken(c echo.Context) string {
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

// callerKey identifies the caller for rate limiting: the token subject
// when known, "anon" otherwise.
func callerKey(c echo.Context) string {
	if id, ok := IdentityFrom(c); ok && id.UserID != "" {
		return id.UserID
	}
	return "anon"
}
