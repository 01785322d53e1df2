package middleware

import (
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/searchblog/blog-auth/internal/core/domain"
)

func TestRequireAuthority_Allows(t *testing.T) {
	c, rec := newCtx("")
	c.Set(PrincipalKey, &domain.Principal{Subject: "1", Authorities: []string{"ROLE_ADMIN"}})

	called := false
	handler := RequireAuthority("ROLE_USER", "ROLE_ADMIN")(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next handler not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRequireAuthority_Forbids(t *testing.T) {
	c, _ := newCtx("")
	c.Set(PrincipalKey, &domain.Principal{Subject: "1", Authorities: []string{"ROLE_USER"}})

	handler := RequireAuthority("ROLE_ADMIN")(func(c echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})

	if err := handler(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestRequireAuthority_NoPrincipal(t *testing.T) {
	c, _ := newCtx("")

	handler := RequireAuthority("ROLE_USER")(func(c echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})

	if err := handler(c); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}
