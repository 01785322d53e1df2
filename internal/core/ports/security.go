package ports

import (
	"context"
	"time"

	"github.com/searchblog/blog-auth/internal/core/domain"
)

// PasswordHasher performs one-way password hashing.
type PasswordHasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
	// Compare returns nil when plaintext matches hash.
	Compare(ctx context.Context, hash, plaintext string) error
}

// TokenIssuer signs bearer tokens for a user.
type TokenIssuer interface {
	Issue(user *domain.User) (string, error)
}

// TokenAuthenticator verifies a bearer token and extracts its principal.
type TokenAuthenticator interface {
	Authenticate(token string) (*domain.Principal, error)
}

// TokenDenylist records revoked token IDs until they would have expired anyway.
type TokenDenylist interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
