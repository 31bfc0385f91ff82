package account

import (
	"context"
	"fmt"
	"strings"
	"time"

	"roosthq.org/internal/ids"
	"roosthq.org/internal/token"
)

// Session is the result of a successful registration or login.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
}

// Service implements registration, login and profile management on top of a
// Store and the token codec.
type Service struct {
	store Store
	codec *token.Codec
	now   func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs a Service.
func NewService(store Store, codec *token.Codec, opts ...ServiceOption) *Service {
	s := &Service{store: store, codec: codec, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates an account and mints a session token.
func (s *Service) Register(ctx context.Context, name, email, password string) (Session, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Session{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return Session{}, err
	}
	if len(password) < MinPasswordLength {
		return Session{}, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, MinPasswordLength)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return Session{}, err
	}
	now := s.now().UTC()
	user := &User{
		ID:           ids.New(),
		Name:         name,
		Email:        normalized,
		PasswordHash: hash,
		Role:         RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Create(ctx, user); err != nil {
		return Session{}, err
	}
	return s.mintSession(*user)
}

// Login verifies credentials and mints a session token. Every failure is the
// same generic ErrUnauthorized so callers cannot tell which field was wrong.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return Session{}, ErrUnauthorized
	}
	user, err := s.store.FindByEmail(ctx, normalized)
	if err != nil {
		return Session{}, ErrUnauthorized
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return Session{}, ErrUnauthorized
	}
	return s.mintSession(*user)
}

// ChangePassword swaps the credential hash after verifying the old password.
func (s *Service) ChangePassword(ctx context.Context, subjectID, oldPassword, newPassword string) error {
	user, err := s.store.Find(ctx, subjectID)
	if err != nil {
		return err
	}
	if err := VerifyPassword(user.PasswordHash, oldPassword); err != nil {
		return ErrUnauthorized
	}
	if len(newPassword) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, MinPasswordLength)
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.store.UpdatePassword(ctx, user.ID, hash)
}

// Get returns the user record for a subject.
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.store.Find(ctx, id)
}

// UpdateProfile mutates the profile fields of a subject.
func (s *Service) UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (*User, error) {
	if update.Name != nil && strings.TrimSpace(*update.Name) == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
	}
	return s.store.UpdateProfile(ctx, id, update)
}

// Delete removes the account. The caller enforces that only the owning
// subject may do this.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

func (s *Service) mintSession(user User) (Session, error) {
	signed, expiresAt, err := s.codec.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		return Session{}, err
	}
	user.PasswordHash = ""
	return Session{Token: signed, ExpiresAt: expiresAt, User: user}, nil
}

// NormalizeEmail trims and lower-cases an email address and validates its
// shape: exactly one "@" with non-empty local and domain parts.
func NormalizeEmail(email string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	at := strings.Count(normalized, "@")
	if at != 1 {
		return "", fmt.Errorf("%w: malformed email", ErrInvalidInput)
	}
	local, domain, _ := strings.Cut(normalized, "@")
	if local == "" || domain == "" {
		return "", fmt.Errorf("%w: malformed email", ErrInvalidInput)
	}
	return normalized, nil
}
