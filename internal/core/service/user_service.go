package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/searchblog/blog-auth/internal/core/domain"
	"github.com/searchblog/blog-auth/internal/core/ports"
	"github.com/searchblog/blog-auth/internal/infrastructure/metrics"
)

const defaultOpTimeout = 5 * time.Second

// UserService implements signup and user lookups.
type UserService struct {
	repo    ports.UserRepository
	hasher  ports.PasswordHasher
	timeout time.Duration
	now     func() time.Time
	log     zerolog.Logger
}

// NewUserService returns a UserService. timeout bounds each store and hashing call.
func NewUserService(repo ports.UserRepository, hasher ports.PasswordHasher, timeout time.Duration, log zerolog.Logger) *UserService {
	if timeout <= 0 {
		timeout = defaultOpTimeout
	}
	return &UserService{repo: repo, hasher: hasher, timeout: timeout, now: time.Now, log: log}
}

// SignUp registers a new user with the default role set. An email that is
// already taken yields *domain.DuplicateEmailError without hashing or writing.
func (s *UserService) SignUp(ctx context.Context, in ports.SignupInput) (*domain.User, error) {
	// 1. Uniqueness check.
	existing, err := s.findByEmail(ctx, in.Email)
	switch {
	case err == nil && existing != nil:
		metrics.SignupsTotal.WithLabelValues("duplicate").Inc()
		return nil, &domain.DuplicateEmailError{Email: in.Email}
	case err != nil && !isNotFound(err):
		metrics.SignupsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("signup: lookup email: %w", err)
	}

	// 2. Hash.
	hashCtx, cancel := context.WithTimeout(ctx, s.timeout)
	hash, err := s.hasher.Hash(hashCtx, in.Password)
	cancel()
	if err != nil {
		metrics.SignupsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("signup: %w", err)
	}

	// 3. Persist. The unique index still catches a concurrent signup.
	saveCtx, cancel := context.WithTimeout(ctx, s.timeout)
	created, err := s.repo.Save(saveCtx, domain.NewUser(in.Email, in.Name, hash, s.now()))
	cancel()
	if err != nil {
		var dup *domain.DuplicateEmailError
		if errors.As(err, &dup) {
			metrics.SignupsTotal.WithLabelValues("duplicate").Inc()
			return nil, err
		}
		metrics.SignupsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("signup: save user: %w", err)
	}

	metrics.SignupsTotal.WithLabelValues("created").Inc()
	s.log.Info().Str("user_id", created.ID).Msg("user registered")
	return created, nil
}

// GetUserWithAuthorities looks a user up by email.
func (s *UserService) GetUserWithAuthorities(ctx context.Context, email string) (*domain.User, error) {
	return s.findByEmail(ctx, email)
}

// GetMyUserWithAuthorities returns the user the principal's token was issued to.
func (s *UserService) GetMyUserWithAuthorities(ctx context.Context, principal *domain.Principal) (*domain.User, error) {
	if principal == nil || principal.Subject == "" {
		return nil, domain.ErrUnauthenticated
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.repo.FindByID(ctx, principal.Subject)
}

func (s *UserService) findByEmail(ctx context.Context, email string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.repo.FindByEmail(ctx, email)
}

func isNotFound(err error) bool {
	var nf *domain.NotFoundError
	return errors.As(err, &nf)
}
