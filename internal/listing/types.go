package listing

import (
	"errors"
	"time"
)

// Listing is a PG/hostel property record. Rent is in minor units (e.g.
// paise); no floats.
type Listing struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Address     string    `json:"address,omitempty"`
	City        string    `json:"city"`
	RentAmount  int64     `json:"rent_amount"`
	Amenities   []string  `json:"amenities,omitempty"`
	PhotoURL    string    `json:"photo_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Update carries mutable listing fields. Nil pointers leave the current
// value untouched.
type Update struct {
	Title       *string
	Description *string
	Address     *string
	City        *string
	RentAmount  *int64
	Amenities   *[]string
	PhotoURL    *string
}

// Filter narrows List results.
type Filter struct {
	City  string
	Limit int
}

var (
	ErrNotFound     = errors.New("listing: not found")
	ErrInvalidInput = errors.New("listing: invalid input")
)
