package ports

import (
	"context"

	"github.com/searchblog/blog-auth/internal/core/domain"
)

// UserRepository defines user persistence. Lookups return *domain.NotFoundError
// on a miss; Save returns *domain.DuplicateEmailError when the unique email
// index rejects the insert.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// Save inserts a new user and returns it with ID populated.
	Save(ctx context.Context, user *domain.User) (*domain.User, error)
}
