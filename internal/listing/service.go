package listing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"roosthq.org/internal/ids"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Service implements listing CRUD on top of a Store.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService constructs a Service.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Create validates and stores a new listing owned by the given subject.
func (s *Service) Create(ctx context.Context, ownerID string, l Listing) (*Listing, error) {
	l.Title = strings.TrimSpace(l.Title)
	l.City = strings.TrimSpace(l.City)
	if l.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if l.City == "" {
		return nil, fmt.Errorf("%w: city is required", ErrInvalidInput)
	}
	if l.RentAmount < 0 {
		return nil, fmt.Errorf("%w: rent_amount must be >= 0", ErrInvalidInput)
	}
	now := s.now().UTC()
	l.ID = ids.New()
	l.OwnerID = ownerID
	l.CreatedAt = now
	l.UpdatedAt = now
	if err := s.store.Create(ctx, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// Get returns one listing.
func (s *Service) Get(ctx context.Context, id string) (*Listing, error) {
	return s.store.Find(ctx, id)
}

// List returns listings, optionally filtered by city.
func (s *Service) List(ctx context.Context, filter Filter) ([]*Listing, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	filter.City = strings.TrimSpace(filter.City)
	return s.store.List(ctx, filter)
}

// Update mutates a listing.
func (s *Service) Update(ctx context.Context, id string, update Update) (*Listing, error) {
	if update.Title != nil && strings.TrimSpace(*update.Title) == "" {
		return nil, fmt.Errorf("%w: title cannot be empty", ErrInvalidInput)
	}
	if update.RentAmount != nil && *update.RentAmount < 0 {
		return nil, fmt.Errorf("%w: rent_amount must be >= 0", ErrInvalidInput)
	}
	return s.store.Update(ctx, id, update)
}

// Delete removes a listing.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}
