package account

import "time"

// Role tags understood by the API. The tag travels inside the bearer token
// so the session middleware never touches the store.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is a registered account. Email is stored normalized (lower-cased,
// trimmed) and is unique across the store.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Phone        string    `json:"phone,omitempty"`
	PhotoURL     string    `json:"photo_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ProfileUpdate carries the mutable profile fields. Nil pointers leave the
// current value untouched.
type ProfileUpdate struct {
	Name     *string
	Phone    *string
	PhotoURL *string
}
