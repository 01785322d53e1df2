package service

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/searchblog/blog-auth/internal/core/domain"
)

// ---------------------------------------------------------------------------
// In-memory stubs
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	mu      sync.Mutex
	byEmail map[string]*domain.User
	nextID  int
	saves   int
	findErr error // if set, FindByEmail returns this error
	saveErr error // if set, Save returns this error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byEmail: make(map[string]*domain.User), nextID: 1}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.Roles = append([]domain.Role(nil), u.Roles...)
	return &clone
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	u, ok := r.byEmail[email]
	if !ok {
		return nil, &domain.NotFoundError{Resource: "user", Key: email}
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byEmail {
		if u.ID == id {
			return cloneUser(u), nil
		}
	}
	return nil, &domain.NotFoundError{Resource: "user", Key: id}
}

func (r *stubUserRepo) Save(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	if r.saveErr != nil {
		return nil, r.saveErr
	}
	if _, exists := r.byEmail[user.Email]; exists {
		return nil, &domain.DuplicateEmailError{Email: user.Email}
	}
	saved := cloneUser(user)
	saved.ID = strconv.Itoa(r.nextID)
	r.nextID++
	r.byEmail[saved.Email] = cloneUser(saved)
	return saved, nil
}

func (r *stubUserRepo) saveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}

// stubHasher prefixes instead of hashing and counts calls.
type stubHasher struct {
	mu       sync.Mutex
	hashes   int
	compares int
	err      error
}

func (h *stubHasher) Hash(_ context.Context, plaintext string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hashes++
	if h.err != nil {
		return "", h.err
	}
	return "hashed:" + plaintext, nil
}

func (h *stubHasher) Compare(_ context.Context, hash, plaintext string) error {
	h.mu.Lock()
	h.compares++
	h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	if strings.TrimPrefix(hash, "hashed:") != plaintext {
		return domain.ErrInvalidCredentials
	}
	return nil
}

func (h *stubHasher) hashCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hashes
}

func (h *stubHasher) compareCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.compares
}

type stubIssuer struct{}

func (stubIssuer) Issue(user *domain.User) (string, error) {
	return "token-for-" + user.ID, nil
}

type stubDenylist struct {
	revoked map[string]time.Time
}

func (d *stubDenylist) Revoke(_ context.Context, tokenID string, until time.Time) error {
	if d.revoked == nil {
		d.revoked = make(map[string]time.Time)
	}
	d.revoked[tokenID] = until
	return nil
}

func (d *stubDenylist) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	_, ok := d.revoked[tokenID]
	return ok, nil
}
