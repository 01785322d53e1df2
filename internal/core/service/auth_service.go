package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/searchblog/blog-auth/internal/core/domain"
	"github.com/searchblog/blog-auth/internal/core/ports"
	"github.com/searchblog/blog-auth/internal/infrastructure/metrics"
)

// AuthService exchanges credentials for bearer tokens and revokes them.
type AuthService struct {
	repo     ports.UserRepository
	hasher   ports.PasswordHasher
	issuer   ports.TokenIssuer
	denylist ports.TokenDenylist
	timeout  time.Duration
	log      zerolog.Logger

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService returns an AuthService. denylist may be nil, in which case
// Logout is a no-op and tokens stay valid until they expire.
func NewAuthService(
	repo ports.UserRepository,
	hasher ports.PasswordHasher,
	issuer ports.TokenIssuer,
	denylist ports.TokenDenylist,
	timeout time.Duration,
	log zerolog.Logger,
) *AuthService {
	if timeout <= 0 {
		timeout = defaultOpTimeout
	}
	return &AuthService{
		repo:     repo,
		hasher:   hasher,
		issuer:   issuer,
		denylist: denylist,
		timeout:  timeout,
		log:      log,
	}
}

// Login verifies email and password and issues a token. Unknown emails,
// wrong passwords and deactivated accounts all yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	findCtx, cancel := context.WithTimeout(ctx, s.timeout)
	user, err := s.repo.FindByEmail(findCtx, email)
	cancel()
	if err != nil {
		if isNotFound(err) {
			s.compareDummy(ctx, password)
			metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
			return "", nil, domain.ErrInvalidCredentials
		}
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return "", nil, fmt.Errorf("login: lookup email: %w", err)
	}
	if !user.Activated {
		s.compareDummy(ctx, password)
		metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		return "", nil, domain.ErrInvalidCredentials
	}

	cmpCtx, cancel := context.WithTimeout(ctx, s.timeout)
	err = s.hasher.Compare(cmpCtx, user.PasswordHash, password)
	cancel()
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
			return "", nil, domain.ErrInvalidCredentials
		}
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return "", nil, fmt.Errorf("login: %w", err)
	}

	token, err := s.issuer.Issue(user)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return "", nil, fmt.Errorf("login: %w", err)
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.log.Info().Str("user_id", user.ID).Msg("user logged in")
	return token, user, nil
}

// compareDummy spends one hash comparison so that unknown and deactivated
// accounts take as long to reject as a wrong password.
func (s *AuthService) compareDummy(ctx context.Context, password string) {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash(ctx, "dummy-password-for-timing")
		if err != nil {
			s.log.Warn().Err(err).Msg("dummy hash unavailable")
			return
		}
		s.dummyHash = hash
	})
	if s.dummyHash == "" {
		return
	}
	cmpCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	_ = s.hasher.Compare(cmpCtx, s.dummyHash, password)
}

// Logout revokes the principal's token until it expires.
func (s *AuthService) Logout(ctx context.Context, principal *domain.Principal) error {
	if principal == nil {
		return domain.ErrUnauthenticated
	}
	if s.denylist == nil || principal.TokenID == "" {
		s.log.Debug().Str("user_id", principal.Subject).Msg("logout without denylist, token stays valid until expiry")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.denylist.Revoke(ctx, principal.TokenID, principal.ExpiresAt); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	s.log.Info().Str("user_id", principal.Subject).Msg("token revoked")
	return nil
}
