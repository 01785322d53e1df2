package domain

import "time"

// Principal is the identity attached to a request after its bearer token
// has been verified.
type Principal struct {
	Subject     string
	Authorities []string
	TokenID     string
	ExpiresAt   time.Time
}

// HasAuthority reports whether the principal was granted authority a.
func (p *Principal) HasAuthority(a string) bool {
	for _, have := range p.Authorities {
		if have == a {
			return true
		}
	}
	return false
}

// HasAnyAuthority reports whether at least one of authorities was granted.
func (p *Principal) HasAnyAuthority(authorities ...string) bool {
	for _, a := range authorities {
		if p.HasAuthority(a) {
			return true
		}
	}
	return false
}
