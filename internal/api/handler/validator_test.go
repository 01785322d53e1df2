package handler

import (
	"errors"
	"strings"
	"testing"

	"github.com/searchblog/blog-auth/internal/core/domain"
)

func TestValidator_CollectsEveryField(t *testing.T) {
	v := NewValidator()

	err := v.Validate(&signupRequest{Email: "ab", Password: "", Name: "Al"})

	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	want := map[string]string{
		"email":    "size must be at least 3",
		"password": "must not be empty",
		"name":     "size must be at least 3",
	}
	if len(ve.Fields) != len(want) {
		t.Fatalf("expected %d field errors, got %+v", len(want), ve.Fields)
	}
	for _, f := range ve.Fields {
		if want[f.Field] != f.Reason {
			t.Fatalf("field %s: expected reason %q, got %q", f.Field, want[f.Field], f.Reason)
		}
	}
}

func TestValidator_EchoesRejectedValue(t *testing.T) {
	v := NewValidator()

	err := v.Validate(&signupRequest{Email: "ab", Password: "secret", Name: "Alice"})

	var ve *domain.ValidationError
	if !errors.As(err, &ve) || len(ve.Fields) != 1 {
		t.Fatalf("expected one field error, got %v", err)
	}
	if ve.Fields[0].Value != "ab" {
		t.Fatalf("expected rejected value ab, got %q", ve.Fields[0].Value)
	}
}

func TestValidator_PasswordByteLimit(t *testing.T) {
	v := NewValidator()

	// 40 runes pass max=50 but encode to 80 bytes.
	err := v.Validate(&signupRequest{Email: "abc", Password: strings.Repeat("é", 40), Name: "abc"})

	var ve *domain.ValidationError
	if !errors.As(err, &ve) || len(ve.Fields) != 1 {
		t.Fatalf("expected one field error, got %v", err)
	}
	f := ve.Fields[0]
	if f.Field != "password" || f.Reason != "size must be at most 72 bytes" || f.Value != redactedValue {
		t.Fatalf("unexpected field error: %+v", f)
	}

	if err := v.Validate(&signupRequest{Email: "abc", Password: strings.Repeat("é", 36), Name: "abc"}); err != nil {
		t.Fatalf("72-byte password must pass, got %v", err)
	}
}

func TestValidator_Valid(t *testing.T) {
	v := NewValidator()
	if err := v.Validate(&signupRequest{Email: "abc", Password: "abc", Name: "abc"}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}
