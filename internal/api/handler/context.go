package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/searchblog/blog-auth/internal/api/middleware"
	"github.com/searchblog/blog-auth/internal/core/domain"
)

// ctxPrincipal returns the principal injected by the Auth middleware. Its
// absence means the route was registered without Auth; treat as unauthenticated.
func ctxPrincipal(c echo.Context) (*domain.Principal, error) {
	p := middleware.PrincipalFrom(c)
	if p == nil || p.Subject == "" {
		return nil, domain.ErrUnauthenticated
	}
	return p, nil
}
