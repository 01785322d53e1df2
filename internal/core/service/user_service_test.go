package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/searchblog/blog-auth/internal/core/domain"
	"github.com/searchblog/blog-auth/internal/core/ports"
)

func newUserService(repo *stubUserRepo, hasher *stubHasher) *UserService {
	return NewUserService(repo, hasher, time.Second, zerolog.Nop())
}

func TestUserService_SignUp_Success(t *testing.T) {
	repo := newStubUserRepo()
	hasher := &stubHasher{}
	svc := newUserService(repo, hasher)
	fixed := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	user, err := svc.SignUp(context.Background(), ports.SignupInput{Email: "a@b.com", Password: "pw12345", Name: "Alice"})
	if err != nil {
		t.Fatalf("SignUp returned error: %v", err)
	}
	if user.ID == "" {
		t.Fatalf("expected id to be assigned by the store")
	}

	stored, err := repo.FindByEmail(context.Background(), "a@b.com")
	if err != nil {
		t.Fatalf("lookup after signup failed: %v", err)
	}
	if len(stored.Roles) != 1 || stored.Roles[0] != domain.RoleUser {
		t.Fatalf("expected roles {USER}, got %v", stored.Roles)
	}
	if !stored.Activated {
		t.Fatalf("expected user to be activated")
	}
	if stored.PasswordHash == "pw12345" {
		t.Fatalf("password stored in plaintext")
	}
	if stored.Name != "Alice" {
		t.Fatalf("unexpected name: %s", stored.Name)
	}
	if !stored.CreatedAt.Equal(fixed) {
		t.Fatalf("expected created_at %s, got %s", fixed, stored.CreatedAt)
	}
}

func TestUserService_SignUp_DuplicateEmail(t *testing.T) {
	repo := newStubUserRepo()
	hasher := &stubHasher{}
	svc := newUserService(repo, hasher)
	in := ports.SignupInput{Email: "bob@b.com", Password: "secret1", Name: "Bob"}

	if _, err := svc.SignUp(context.Background(), in); err != nil {
		t.Fatalf("first signup failed: %v", err)
	}
	savesBefore, hashesBefore := repo.saveCount(), hasher.hashCount()

	_, err := svc.SignUp(context.Background(), in)
	var dup *domain.DuplicateEmailError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateEmailError, got %v", err)
	}
	if dup.Email != "bob@b.com" {
		t.Fatalf("unexpected email in error: %s", dup.Email)
	}
	if repo.saveCount() != savesBefore {
		t.Fatalf("duplicate signup performed a persistence write")
	}
	if hasher.hashCount() != hashesBefore {
		t.Fatalf("duplicate signup hashed the password")
	}
}

func TestUserService_SignUp_ConcurrentDuplicateFromStore(t *testing.T) {
	repo := newStubUserRepo()
	repo.saveErr = &domain.DuplicateEmailError{Email: "race@b.com"}
	svc := newUserService(repo, &stubHasher{})

	_, err := svc.SignUp(context.Background(), ports.SignupInput{Email: "race@b.com", Password: "secret1", Name: "Racer"})
	var dup *domain.DuplicateEmailError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateEmailError from store, got %v", err)
	}
}

func TestUserService_SignUp_LookupFailure(t *testing.T) {
	repo := newStubUserRepo()
	repo.findErr = errors.New("connection reset")
	hasher := &stubHasher{}
	svc := newUserService(repo, hasher)

	_, err := svc.SignUp(context.Background(), ports.SignupInput{Email: "c@b.com", Password: "secret1", Name: "Carol"})
	if err == nil {
		t.Fatalf("expected error")
	}
	var dup *domain.DuplicateEmailError
	if errors.As(err, &dup) {
		t.Fatalf("lookup failure must not be reported as duplicate")
	}
	if hasher.hashCount() != 0 || repo.saveCount() != 0 {
		t.Fatalf("no hashing or write expected after a failed lookup")
	}
}

func TestUserService_SignUp_HashFailure(t *testing.T) {
	repo := newStubUserRepo()
	svc := newUserService(repo, &stubHasher{err: context.DeadlineExceeded})

	_, err := svc.SignUp(context.Background(), ports.SignupInput{Email: "d@b.com", Password: "secret1", Name: "Dan"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if repo.saveCount() != 0 {
		t.Fatalf("no write expected after hashing failed")
	}
}

func TestUserService_GetUserWithAuthorities(t *testing.T) {
	repo := newStubUserRepo()
	svc := newUserService(repo, &stubHasher{})
	_, _ = svc.SignUp(context.Background(), ports.SignupInput{Email: "e@b.com", Password: "secret1", Name: "Eve"})

	user, err := svc.GetUserWithAuthorities(context.Background(), "e@b.com")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if user.Name != "Eve" {
		t.Fatalf("unexpected user: %+v", user)
	}

	_, err = svc.GetUserWithAuthorities(context.Background(), "ghost@b.com")
	var nf *domain.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestUserService_GetMyUserWithAuthorities(t *testing.T) {
	repo := newStubUserRepo()
	svc := newUserService(repo, &stubHasher{})
	created, _ := svc.SignUp(context.Background(), ports.SignupInput{Email: "f@b.com", Password: "secret1", Name: "Fay"})

	user, err := svc.GetMyUserWithAuthorities(context.Background(), &domain.Principal{Subject: created.ID})
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if user.Email != "f@b.com" {
		t.Fatalf("unexpected user: %+v", user)
	}

	if _, err := svc.GetMyUserWithAuthorities(context.Background(), nil); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}
