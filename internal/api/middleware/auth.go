package middleware

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/searchblog/blog-auth/internal/core/domain"
	"github.com/searchblog/blog-auth/internal/core/ports"
	"github.com/searchblog/blog-auth/internal/infrastructure/metrics"
)

// PrincipalKey is the echo.Context key holding the authenticated *domain.Principal.
const PrincipalKey = "principal"

var errRevoked = errors.New("token revoked")

// PrincipalFrom returns the principal set by Auth, or nil.
func PrincipalFrom(c echo.Context) *domain.Principal {
	p, _ := c.Get(PrincipalKey).(*domain.Principal)
	return p
}

// Auth verifies the bearer token and injects the principal into context.
// A nil denylist disables revocation checks.
func Auth(tokens ports.TokenAuthenticator, denylist ports.TokenDenylist, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return domain.ErrUnauthenticated
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return &domain.TokenError{Kind: domain.TokenMalformed, Err: errors.New("invalid authorization header")}
			}

			principal, err := tokens.Authenticate(strings.TrimSpace(parts[1]))
			if err != nil {
				return err
			}

			if denylist != nil && principal.TokenID != "" {
				revoked, err := denylist.IsRevoked(c.Request().Context(), principal.TokenID)
				switch {
				case err != nil:
					log.Warn().Err(err).Str("jti", principal.TokenID).Msg("denylist check failed, accepting token")
				case revoked:
					metrics.TokenVerificationsTotal.WithLabelValues("revoked").Inc()
					return &domain.TokenError{Kind: domain.TokenInvalid, Err: errRevoked}
				}
			}

			c.Set(PrincipalKey, principal)
			return next(c)
		}
	}
}
