package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Role is a coarse-grained permission group assigned to a user.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// AuthorityPrefix is prepended to a role name to form its authority string.
const AuthorityPrefix = "ROLE_"

// Authority renders the role as used in access checks, e.g. "ROLE_USER".
func (r Role) Authority() string {
	return AuthorityPrefix + string(r)
}

// ParseRole accepts either a bare role name ("USER") or its authority form ("ROLE_USER").
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), AuthorityPrefix)); r {
	case RoleAdmin, RoleUser:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// DefaultRoles is the role set granted on signup.
func DefaultRoles() []Role {
	return []Role{RoleUser}
}

// Authorities maps roles to their authority strings, sorted and de-duplicated.
func Authorities(roles []Role) []string {
	seen := make(map[string]struct{}, len(roles))
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		a := r.Authority()
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// User is a registered account. Users are created once on signup and are not
// mutated afterwards.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	Roles        []Role    `json:"roles"`
	Activated    bool      `json:"activated"`
}

// NewUser builds a freshly signed-up user. ID is left empty for the store to assign.
func NewUser(email, name, passwordHash string, now time.Time) *User {
	return &User{
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		CreatedAt:    now.UTC(),
		Roles:        DefaultRoles(),
		Activated:    true,
	}
}

// HasRole reports whether the user holds role r.
func (u *User) HasRole(r Role) bool {
	for _, have := range u.Roles {
		if have == r {
			return true
		}
	}
	return false
}
