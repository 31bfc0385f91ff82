// Package wishlist maintains each subject's saved set of listing references.
//
// Membership is an ordered set: Add is idempotent (a second add of the same
// listing is a successful no-op) and Remove of a non-member reports not
// found. Convergence under races is carried by the store's atomic set
// primitives, not by this service: concurrent adds of the same listing end
// with exactly one membership, and a concurrent add and remove end as
// whichever commits last, with no duplicates or ghost entries.
package wishlist

import (
	"context"
	"errors"

	"roosthq.org/internal/listing"
)

var (
	// ErrListingNotFound means the listing reference does not resolve.
	ErrListingNotFound = errors.New("wishlist: listing not found")
	// ErrNotMember means the (subject, listing) pair is not in the wishlist.
	ErrNotMember = errors.New("wishlist: entry not found")
)

// Store describes the persistence operations for wishlist membership.
type Store interface {
	// Add appends the listing for the subject. Reports false when the pair
	// was already a member. Must be atomic with respect to concurrent adds
	// and removes of the same pair.
	Add(ctx context.Context, subjectID, listingID string) (added bool, err error)
	// Remove deletes the pair. Reports false when it was not a member.
	Remove(ctx context.Context, subjectID, listingID string) (removed bool, err error)
	// ListingIDs returns the subject's listing references in insertion order.
	ListingIDs(ctx context.Context, subjectID string) ([]string, error)
}

// Resolver expands listing references into snapshots at read time.
type Resolver interface {
	Get(ctx context.Context, id string) (*listing.Listing, error)
}

// Service implements the wishlist operations for a resolved subject.
type Service struct {
	store    Store
	listings Resolver
}

// NewService constructs a Service.
func NewService(store Store, listings Resolver) *Service {
	return &Service{store: store, listings: listings}
}

// Get returns the subject's wishlist as listing snapshots in insertion
// order. References whose listing has since disappeared are skipped.
func (s *Service) Get(ctx context.Context, subjectID string) ([]*listing.Listing, error) {
	ids, err := s.store.ListingIDs(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	out := make([]*listing.Listing, 0, len(ids))
	for _, id := range ids {
		l, err := s.listings.Get(ctx, id)
		if err != nil {
			if errors.Is(err, listing.ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

// Add appends a listing to the subject's wishlist and returns the updated
// sequence. Adding a current member is a successful no-op.
func (s *Service) Add(ctx context.Context, subjectID, listingID string) ([]*listing.Listing, error) {
	if _, err := s.listings.Get(ctx, listingID); err != nil {
		if errors.Is(err, listing.ErrNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	if _, err := s.store.Add(ctx, subjectID, listingID); err != nil {
		return nil, err
	}
	return s.Get(ctx, subjectID)
}

// Remove deletes a listing from the subject's wishlist and returns the
// updated sequence. Removing a non-member fails with ErrNotMember.
func (s *Service) Remove(ctx context.Context, subjectID, listingID string) ([]*listing.Listing, error) {
	removed, err := s.store.Remove(ctx, subjectID, listingID)
	if err != nil {
		return nil, err
	}
	if !removed {
		return nil, ErrNotMember
	}
	return s.Get(ctx, subjectID)
}
