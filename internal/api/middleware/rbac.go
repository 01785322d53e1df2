package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/searchblog/blog-auth/internal/core/domain"
)

// RequireAuthority lets the request through when the principal holds at
// least one of authorities. Must run after Auth.
func RequireAuthority(authorities ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := PrincipalFrom(c)
			if p == nil {
				return domain.ErrUnauthenticated
			}
			if !p.HasAnyAuthority(authorities...) {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}
