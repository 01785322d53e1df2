package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrForbidden          = errors.New("access forbidden")
)

// DuplicateEmailError is returned when signing up with an email that is
// already registered.
type DuplicateEmailError struct {
	Email string
}

func (e *DuplicateEmailError) Error() string {
	return fmt.Sprintf("email %q is already registered", e.Email)
}

// NotFoundError reports a lookup miss.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.Key)
}

// FieldError describes one rejected input field.
type FieldError struct {
	Field  string `json:"field"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

// ValidationError carries every field that failed validation for a request.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Field+": "+f.Reason)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// HasField reports whether field is among the rejected ones.
func (e *ValidationError) HasField(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// TokenErrorKind classifies why a bearer token was rejected.
type TokenErrorKind int

const (
	TokenInvalid TokenErrorKind = iota
	TokenBadSignature
	TokenMalformed
	TokenExpired
	TokenUnsupported
)

func (k TokenErrorKind) String() string {
	switch k {
	case TokenBadSignature:
		return "bad_signature"
	case TokenMalformed:
		return "malformed"
	case TokenExpired:
		return "expired"
	case TokenUnsupported:
		return "unsupported"
	default:
		return "invalid"
	}
}

// TokenError is returned by token verification. Err holds the library cause.
type TokenError struct {
	Kind TokenErrorKind
	Err  error
}

func (e *TokenError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("token %s: %v", e.Kind, e.Err)
	}
	return "token " + e.Kind.String()
}

func (e *TokenError) Unwrap() error { return e.Err }

// IsTokenError reports whether err is a TokenError of the given kind.
func IsTokenError(err error, kind TokenErrorKind) bool {
	var te *TokenError
	return errors.As(err, &te) && te.Kind == kind
}
