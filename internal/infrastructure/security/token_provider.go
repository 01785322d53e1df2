// Package security issues and verifies the service's HS512 bearer tokens.
package security

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/searchblog/blog-auth/internal/core/domain"
	"github.com/searchblog/blog-auth/internal/infrastructure/metrics"
)

// MinKeyBytes is the smallest accepted HS512 key.
const MinKeyBytes = 64

// Claims is the token payload. Authorities is the comma-joined authority list.
type Claims struct {
	Authorities string `json:"auth"`
	jwt.RegisteredClaims
}

// AuthorityList splits the authorities claim.
func (c *Claims) AuthorityList() []string {
	if c.Authorities == "" {
		return nil
	}
	parts := strings.Split(c.Authorities, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Option customises a TokenProvider.
type Option func(*TokenProvider)

// WithClock replaces time.Now for issuing and validating tokens.
func WithClock(now func() time.Time) Option {
	return func(p *TokenProvider) { p.now = now }
}

// TokenProvider signs and verifies bearer tokens with a single symmetric key.
// It is immutable after construction and safe for concurrent use.
type TokenProvider struct {
	key      []byte
	validity time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

// NewTokenProvider decodes the base64 secret into the signing key.
func NewTokenProvider(secret string, validity time.Duration, log zerolog.Logger, opts ...Option) (*TokenProvider, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(secret))
	if err != nil {
		return nil, fmt.Errorf("jwt: decode secret: %w", err)
	}
	if len(key) < MinKeyBytes {
		return nil, fmt.Errorf("jwt: secret must decode to at least %d bytes, got %d", MinKeyBytes, len(key))
	}
	if validity <= 0 {
		return nil, errors.New("jwt: token validity must be positive")
	}

	p := &TokenProvider{key: key, validity: validity, now: time.Now, log: log}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Issue signs a token for user: subject is the user ID, "auth" the joined authorities.
func (p *TokenProvider) Issue(user *domain.User) (string, error) {
	now := p.now()
	claims := &Claims{
		Authorities: strings.Join(domain.Authorities(user.Roles), ","),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.validity)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(p.key)
	if err != nil {
		return "", fmt.Errorf("jwt: sign token: %w", err)
	}
	metrics.TokensIssuedTotal.Inc()
	return signed, nil
}

// Verify checks signature and expiry. Failures are *domain.TokenError.
func (p *TokenProvider) Verify(token string) (*Claims, error) {
	claims, err := p.verify(token)
	result := "valid"
	if err != nil {
		var te *domain.TokenError
		if errors.As(err, &te) {
			result = te.Kind.String()
		}
	}
	metrics.TokenVerificationsTotal.WithLabelValues(result).Inc()
	return claims, err
}

func (p *TokenProvider) verify(token string) (*Claims, error) {
	if strings.TrimSpace(token) == "" {
		return nil, &domain.TokenError{Kind: domain.TokenInvalid, Err: errors.New("empty token")}
	}

	if err := p.checkSignature(token); err != nil {
		return nil, err
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, p.keyFunc,
		jwt.WithTimeFunc(p.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, &domain.TokenError{Kind: classify(err), Err: err}
	}
	if !parsed.Valid {
		return nil, &domain.TokenError{Kind: domain.TokenInvalid}
	}
	if claims.Subject == "" {
		return nil, &domain.TokenError{Kind: domain.TokenInvalid, Err: errors.New("missing subject")}
	}
	return claims, nil
}

// Validate is the collapsed form of Verify. The rejection reason is logged.
func (p *TokenProvider) Validate(token string) bool {
	if _, err := p.Verify(token); err != nil {
		p.log.Info().Str("reason", reason(err)).Msg("bearer token rejected")
		return false
	}
	return true
}

// Authenticate verifies token and, only if it is valid, returns its principal.
func (p *TokenProvider) Authenticate(token string) (*domain.Principal, error) {
	claims, err := p.Verify(token)
	if err != nil {
		return nil, err
	}
	principal := &domain.Principal{
		Subject:     claims.Subject,
		Authorities: claims.AuthorityList(),
		TokenID:     claims.ID,
	}
	if claims.ExpiresAt != nil {
		principal.ExpiresAt = claims.ExpiresAt.Time
	}
	return principal, nil
}

// checkSignature verifies the HMAC over the raw header.payload bytes so that a
// tampered payload is reported as a bad signature even when it no longer
// decodes. Tokens that are not three segments with an HS512 header are left
// to the parser to classify.
func (p *TokenProvider) checkSignature(token string) error {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil
	}
	rawHeader, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil
	}
	var header struct {
		Alg string `json:"alg"`
	}
	if err := json.Unmarshal(rawHeader, &header); err != nil || header.Alg != jwt.SigningMethodHS512.Alg() {
		return nil
	}
	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return nil
	}
	if err := jwt.SigningMethodHS512.Verify(parts[0]+"."+parts[1], sig, p.key); err != nil {
		return &domain.TokenError{Kind: domain.TokenBadSignature, Err: err}
	}
	return nil
}

func (p *TokenProvider) keyFunc(t *jwt.Token) (any, error) {
	if t.Method.Alg() != jwt.SigningMethodHS512.Alg() {
		return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
	}
	return p.key, nil
}

// classify maps golang-jwt errors onto the token failure taxonomy.
func classify(err error) domain.TokenErrorKind {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return domain.TokenMalformed
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return domain.TokenUnsupported
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return domain.TokenBadSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return domain.TokenExpired
	default:
		return domain.TokenInvalid
	}
}

func reason(err error) string {
	var te *domain.TokenError
	if errors.As(err, &te) {
		return te.Kind.String()
	}
	return domain.TokenInvalid.String()
}
