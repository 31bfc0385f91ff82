// Package token issues and verifies the signed bearer tokens that carry a
// subject identity between the Roost API and its clients.
//
// Tokens are not revocable: there is no server-side blacklist, and logout is
// purely a client-side session wipe. Invalidating outstanding tokens requires
// rotating the signing secret.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const defaultIssuer = "roost"

// DefaultTTL is the fixed token lifetime measured from issuance.
const DefaultTTL = 30 * 24 * time.Hour

var (
	// ErrMissing indicates no token was presented at all.
	ErrMissing = errors.New("token: missing token")
	// ErrExpired indicates a well-formed token whose lifetime has passed.
	ErrExpired = errors.New("token: token expired")
	// ErrMalformed indicates a decode failure or signature mismatch.
	ErrMalformed = errors.New("token: malformed token")
)

// Identity is the verified subject carried by a token.
type Identity struct {
	SubjectID string
	Email     string
	Role      string
}

// IsAdmin reports whether the identity carries the admin role tag.
func (id Identity) IsAdmin() bool { return id.Role == "admin" }

type claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	// UID is a legacy identity claim accepted on verification only.
	// New tokens always key the subject under the registered "sub" claim.
	UID string `json:"uid,omitempty"`
	jwt.RegisteredClaims
}

// Codec signs and verifies bearer tokens with a process-wide HS256 secret.
type Codec struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// Option configures Codec behavior.
type Option func(*Codec)

// WithTTL overrides the token lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(c *Codec) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithIssuer overrides the issuer claim.
func WithIssuer(issuer string) Option {
	return func(c *Codec) {
		if strings.TrimSpace(issuer) != "" {
			c.issuer = strings.TrimSpace(issuer)
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(c *Codec) {
		if fn != nil {
			c.now = fn
		}
	}
}

// New constructs a Codec. The secret must be non-empty; callers decide what
// to do about insecure defaults before handing the secret over.
func New(secret string, opts ...Option) (*Codec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("token: signing secret is required")
	}
	c := &Codec{
		secret: []byte(secret),
		issuer: defaultIssuer,
		ttl:    DefaultTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Issue mints a signed token for the subject. The expiry is a fixed offset
// from issuance.
func (c *Codec) Issue(subjectID, email, role string) (string, time.Time, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return "", time.Time{}, errors.New("token: subject id is required")
	}
	now := c.now().UTC()
	expiresAt := now.Add(c.ttl)
	cl := claims{
		Email: strings.TrimSpace(strings.ToLower(email)),
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, cl).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks the signature and registered claims and returns the subject
// identity. Failures map to exactly one of ErrMissing, ErrExpired or
// ErrMalformed.
func (c *Codec) Verify(raw string) (Identity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Identity{}, ErrMissing
	}
	parsed, err := jwt.ParseWithClaims(raw, &claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrMalformed
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(c.now), jwt.WithIssuer(c.issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrExpired
		}
		return Identity{}, ErrMalformed
	}
	cl, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid {
		return Identity{}, ErrMalformed
	}
	subject := strings.TrimSpace(cl.Subject)
	if subject == "" {
		// Compatibility shim for tokens minted before the subject moved to
		// the registered "sub" claim.
		subject = strings.TrimSpace(cl.UID)
	}
	if subject == "" {
		return Identity{}, ErrMalformed
	}
	if cl.ExpiresAt == nil || cl.IssuedAt == nil {
		return Identity{}, ErrMalformed
	}
	if cl.ExpiresAt.Time.Before(cl.IssuedAt.Time) {
		return Identity{}, ErrMalformed
	}
	return Identity{
		SubjectID: subject,
		Email:     strings.TrimSpace(strings.ToLower(cl.Email)),
		Role:      cl.Role,
	}, nil
}
