package wishlist

import (
	"context"
	"slices"
	"sync"
)

// InMemory implements Store with a single mutex guarding all membership
// state, which makes add/remove of the same pair serializable.
type InMemory struct {
	mu      sync.RWMutex
	entries map[string][]string // subjectID -> listingIDs, insertion order
}

var _ Store = (*InMemory)(nil)

// NewInMemory creates an empty store.
func NewInMemory() *InMemory {
	return &InMemory{entries: make(map[string][]string)}
}

func (s *InMemory) Add(ctx context.Context, subjectID, listingID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := s.entries[subjectID]
	if slices.Contains(current, listingID) {
		return false, nil
	}
	s.entries[subjectID] = append(current, listingID)
	return true, nil
}

func (s *InMemory) Remove(ctx context.Context, subjectID, listingID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := s.entries[subjectID]
	idx := slices.Index(current, listingID)
	if idx < 0 {
		return false, nil
	}
	s.entries[subjectID] = append(current[:idx:idx], current[idx+1:]...)
	return true, nil
}

func (s *InMemory) ListingIDs(ctx context.Context, subjectID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.entries[subjectID]), nil
}
