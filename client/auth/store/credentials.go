package store

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/golang-jwt/jwt/v5"
)

// Credentials represents persisted authentication state
type Credentials struct {
	Access  string `json:"access,omitempty"`
	Refresh string `json:"refresh,omitempty"`
	Role    string `json:"role,omitempty"`
}

// Claims represents access token claims issued by the API
type Claims struct {
	jwt.RegisteredClaims
	TokenType string `json:"token_type,omitempty"`
	UserID    int    `json:"user_id,omitempty"`
}

// Clone returns a copy
func (c *Credentials) Clone() *Credentials {
	if c == nil {
		return nil
	}
	ret := *c
	return &ret
}

// IsEmpty returns true if neither token is set
func (c *Credentials) IsEmpty() bool {
	return c == nil || (c.Access == "" && c.Refresh == "")
}

// Claims decodes access token claims without verifying the signature; the server is the verifier
func (c *Credentials) Claims() (*Claims, error) {
	if c == nil || c.Access == "" {
		return nil, errors.New("access token is empty")
	}
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(c.Access, claims); err != nil {
		return nil, errors.Wrap(err, "failed to decode access token")
	}
	return claims, nil
}

// Expiry returns access token expiry, zero time if unknown
func (c *Credentials) Expiry() time.Time {
	claims, err := c.Claims()
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
