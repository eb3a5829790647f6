package session

import (
	"maps"
	"time"

	"github.com/MrEthical07/goConsole/jwt"
)

// Session is the authenticated session derived from an access token. It is
// built by [FromClaims] and treated as immutable afterwards.
type Session struct {
	Token     string
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time

	// User is the profile echoed by the login endpoint. It is nil for
	// sessions restored from a stored token.
	User map[string]any
}

// FromClaims builds a Session for token from its decoded claims.
func FromClaims(token string, claims *jwt.Claims, user map[string]any) *Session {
	if claims == nil {
		return nil
	}
	return &Session{
		Token:     token,
		Subject:   claims.Subject,
		IssuedAt:  claims.IssuedAt,
		ExpiresAt: claims.ExpiresAt,
		User:      maps.Clone(user),
	}
}

// Remaining returns the time left until expiry, clamped at zero.
func (s *Session) Remaining(now time.Time) time.Duration {
	if s == nil {
		return 0
	}
	d := s.ExpiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Clone returns a copy safe to hand to callers.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.User = maps.Clone(s.User)
	return &out
}
