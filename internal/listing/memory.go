package listing

import (
	"context"
	"strings"
	"sync"
	"time"
)

// InMemory implements Store with in-process concurrency safety. Used by
// tests and by the server when no Postgres DSN is configured.
type InMemory struct {
	mu    sync.RWMutex
	items map[string]*Listing
	order []string // creation order for stable listing
}

var _ Store = (*InMemory)(nil)

// NewInMemory creates an empty store.
func NewInMemory() *InMemory {
	return &InMemory{items: make(map[string]*Listing)}
}

func (s *InMemory) Create(ctx context.Context, l *Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := cloneListing(l)
	s.items[l.ID] = cp
	s.order = append(s.order, l.ID)
	return nil
}

func (s *InMemory) Find(ctx context.Context, id string) (*Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneListing(l), nil
}

func (s *InMemory) List(ctx context.Context, filter Filter) ([]*Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Listing, 0, len(s.order))
	for _, id := range s.order {
		l, ok := s.items[id]
		if !ok {
			continue
		}
		if filter.City != "" && !strings.EqualFold(l.City, filter.City) {
			continue
		}
		out = append(out, cloneListing(l))
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

func (s *InMemory) Update(ctx context.Context, id string, update Update) (*Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	if update.Title != nil {
		l.Title = *update.Title
	}
	if update.Description != nil {
		l.Description = *update.Description
	}
	if update.Address != nil {
		l.Address = *update.Address
	}
	if update.City != nil {
		l.City = *update.City
	}
	if update.RentAmount != nil {
		l.RentAmount = *update.RentAmount
	}
	if update.Amenities != nil {
		l.Amenities = append([]string(nil), (*update.Amenities)...)
	}
	if update.PhotoURL != nil {
		l.PhotoURL = *update.PhotoURL
	}
	l.UpdatedAt = time.Now().UTC()
	return cloneListing(l), nil
}

func (s *InMemory) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func cloneListing(l *Listing) *Listing {
	cp := *l
	cp.Amenities = append([]string(nil), l.Amenities...)
	return &cp
}
