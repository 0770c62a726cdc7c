package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is the claim set carried by every token this service issues:
// the subject identity id plus the ordered scope list.
type TokenClaims struct {
	jwt.RegisteredClaims
	UID   string   `json:"uid,omitempty"`
	Scope []string `json:"scope"`
}

// UserID returns the subject identity id.
func (c *TokenClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.RegisteredClaims.Subject
}

// ScopeSet returns the token's scopes as a set.
func (c *TokenClaims) ScopeSet() ScopeSet {
	return ScopeSetFromStrings(c.Scope)
}

// HasScope checks if the token grants a specific scope
func (c *TokenClaims) HasScope(s Scope) bool {
	return c.ScopeSet().Contains(s)
}

// Expires returns the expiration time
func (c *TokenClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *TokenClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
