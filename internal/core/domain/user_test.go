package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestParseRole(t *testing.T) {
	cases := map[string]Role{
		"USER":       RoleUser,
		"ROLE_ADMIN": RoleAdmin,
		" role_user": RoleUser,
	}
	for in, want := range cases {
		got, err := ParseRole(in)
		if err != nil {
			t.Fatalf("ParseRole(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseRole(%q) = %s, want %s", in, got, want)
		}
	}
	if _, err := ParseRole("ROLE_ROOT"); err == nil {
		t.Fatalf("expected error for unknown role")
	}
}

func TestAuthorities_SortedAndUnique(t *testing.T) {
	got := Authorities([]Role{RoleUser, RoleAdmin, RoleUser})
	if strings.Join(got, ",") != "ROLE_ADMIN,ROLE_USER" {
		t.Fatalf("unexpected authorities: %v", got)
	}
	if len(Authorities(nil)) != 0 {
		t.Fatalf("expected no authorities for no roles")
	}
}

func TestNewUser_Defaults(t *testing.T) {
	loc := time.FixedZone("UTC-3", -3*3600)
	u := NewUser("a@b.com", "Alice", "hash", time.Date(2026, 5, 1, 10, 0, 0, 0, loc))

	if u.ID != "" {
		t.Fatalf("id must be left for the store, got %q", u.ID)
	}
	if !u.Activated {
		t.Fatalf("new users must be activated")
	}
	if !u.HasRole(RoleUser) || u.HasRole(RoleAdmin) {
		t.Fatalf("unexpected roles: %v", u.Roles)
	}
	if u.CreatedAt.Location() != time.UTC {
		t.Fatalf("created_at must be UTC, got %s", u.CreatedAt.Location())
	}
}

func TestUser_JSONOmitsPasswordHash(t *testing.T) {
	b, err := json.Marshal(NewUser("a@b.com", "Alice", "$2a$10$secret", time.Now()))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(b), "secret") {
		t.Fatalf("password hash leaked: %s", b)
	}
}

func TestPrincipal_HasAnyAuthority(t *testing.T) {
	p := &Principal{Subject: "1", Authorities: []string{"ROLE_USER"}}
	if !p.HasAnyAuthority("ROLE_ADMIN", "ROLE_USER") {
		t.Fatalf("expected ROLE_USER to match")
	}
	if p.HasAnyAuthority("ROLE_ADMIN") {
		t.Fatalf("ROLE_ADMIN must not match")
	}
}

func TestTokenError_Kinds(t *testing.T) {
	cause := errors.New("signature is invalid")
	err := fmt.Errorf("verify: %w", &TokenError{Kind: TokenBadSignature, Err: cause})

	if !IsTokenError(err, TokenBadSignature) {
		t.Fatalf("expected bad signature kind")
	}
	if IsTokenError(err, TokenExpired) {
		t.Fatalf("bad signature must not report as expired")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("TokenError must unwrap to its cause")
	}
	if IsTokenError(errors.New("plain"), TokenInvalid) {
		t.Fatalf("plain errors are not token errors")
	}
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Fields: []FieldError{
		{Field: "email", Reason: "size must be at least 3"},
		{Field: "name", Reason: "must not be empty"},
	}}
	if !err.HasField("name") || err.HasField("password") {
		t.Fatalf("HasField mismatch: %+v", err.Fields)
	}
	want := "validation failed: email: size must be at least 3; name: must not be empty"
	if err.Error() != want {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
