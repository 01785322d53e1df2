package ports

import (
	"context"

	"github.com/searchblog/blog-auth/internal/core/domain"
)

// SignupInput is the DTO passed from the transport layer to UserService.SignUp.
// Fields are validated at the boundary before reaching the service.
type SignupInput struct {
	Email    string
	Password string
	Name     string
}

// UserService covers registration and user lookups.
type UserService interface {
	SignUp(ctx context.Context, in SignupInput) (*domain.User, error)
	GetUserWithAuthorities(ctx context.Context, email string) (*domain.User, error)
	GetMyUserWithAuthorities(ctx context.Context, principal *domain.Principal) (*domain.User, error)
}

// AuthService covers credential exchange and token revocation.
type AuthService interface {
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	Logout(ctx context.Context, principal *domain.Principal) error
}
