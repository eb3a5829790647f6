package jwt

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenMalformed is returned for any token whose claims cannot be decoded
// into a usable expiry window. Callers treat it as an expired token.
var ErrTokenMalformed = errors.New("token malformed")

// DefaultTTL is used to derive IssuedAt when a token carries no iat claim.
const DefaultTTL = 24 * time.Hour

// Config controls claim decoding.
type Config struct {
	// DefaultTTL is subtracted from exp when iat is absent. Zero means
	// DefaultTTL.
	DefaultTTL time.Duration
}

// Claims is the subset of token claims the console relies on.
type Claims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Raw       jwt.MapClaims
}

// Decoder parses access tokens without verifying signatures. It is safe for
// concurrent use.
type Decoder struct {
	defaultTTL time.Duration
	parser     *jwt.Parser
}

// NewDecoder builds a Decoder.
func NewDecoder(cfg Config) (*Decoder, error) {
	if cfg.DefaultTTL < 0 {
		return nil, errors.New("invalid default TTL configuration")
	}
	if cfg.DefaultTTL == 0 {
		cfg.DefaultTTL = DefaultTTL
	}
	return &Decoder{
		defaultTTL: cfg.DefaultTTL,
		parser:     jwt.NewParser(),
	}, nil
}

// Decode extracts subject and validity window from token. Only the claims
// segment is read; the header and signature stay opaque. exp is required;
// iat falls back to exp minus the configured default TTL.
func (d *Decoder) Decode(token string) (*Claims, error) {
	if strings.Count(token, ".") != 2 {
		return nil, fmt.Errorf("%w: token must have three segments", ErrTokenMalformed)
	}

	payload, err := d.parser.DecodeSegment(strings.Split(token, ".")[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
	claims := jwt.MapClaims{}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
	if claims == nil {
		return nil, fmt.Errorf("%w: claims are not an object", ErrTokenMalformed)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
	if exp == nil {
		return nil, fmt.Errorf("%w: missing exp claim", ErrTokenMalformed)
	}

	iat, err := claims.GetIssuedAt()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}

	out := &Claims{
		ExpiresAt: exp.Time,
		Subject:   subject(claims),
		Raw:       claims,
	}
	if iat != nil {
		out.IssuedAt = iat.Time
	} else {
		out.IssuedAt = exp.Time.Add(-d.defaultTTL)
	}

	if !out.ExpiresAt.After(out.IssuedAt) {
		return nil, fmt.Errorf("%w: exp is not after iat", ErrTokenMalformed)
	}

	return out, nil
}

// ExpiresAt returns the exp claim of token, or false when the token cannot
// be decoded.
func (d *Decoder) ExpiresAt(token string) (time.Time, bool) {
	c, err := d.Decode(token)
	if err != nil {
		return time.Time{}, false
	}
	return c.ExpiresAt, true
}

// subject prefers sub, then the login identifiers the admin API has used.
func subject(claims jwt.MapClaims) string {
	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		return sub
	}
	for _, key := range []string{"login", "username"} {
		if v, ok := claims[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
