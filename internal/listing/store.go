package listing

import "context"

// Store describes persistence operations for listings.
type Store interface {
	Create(ctx context.Context, l *Listing) error
	Find(ctx context.Context, id string) (*Listing, error)
	List(ctx context.Context, filter Filter) ([]*Listing, error)
	Update(ctx context.Context, id string, update Update) (*Listing, error)
	Delete(ctx context.Context, id string) error
}
