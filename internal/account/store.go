package account

import "context"

// Store describes persistence operations required by the account service.
type Store interface {
	// Create inserts a new user. Returns ErrAlreadyExists when the
	// normalized email is already taken.
	Create(ctx context.Context, u *User) error
	Find(ctx context.Context, id string) (*User, error)
	// FindByEmail looks up by normalized email.
	FindByEmail(ctx context.Context, email string) (*User, error)
	UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (*User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	Delete(ctx context.Context, id string) error
}
