package store

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"sdi-resolver/pkg/requestcontext"
)

// InMemoryStore keeps entries in process memory. A zero TTL never expires.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[Key]Entry
	ttl     time.Duration
}

func NewInMemoryStore(ttl time.Duration) *InMemoryStore {
	return &InMemoryStore{
		entries: make(map[Key]Entry),
		ttl:     ttl,
	}
}

// Find returns a copy of the active entry for key.
func (s *InMemoryStore) Find(ctx context.Context, key Key) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[key]
	if !ok || !entry.Active {
		return nil, ErrNotFound
	}
	if s.ttl > 0 && requestcontext.Now(ctx).Sub(entry.UpdatedAt) >= s.ttl {
		return nil, ErrNotFound
	}
	entry.Document = slices.Clone(entry.Document)
	return &entry, nil
}

// Upsert stores entry as the active one for its key, keeping the original
// creation time of a replaced entry.
func (s *InMemoryStore) Upsert(ctx context.Context, entry *Entry) error {
	if entry == nil {
		return errors.New("entry is required")
	}
	now := requestcontext.Now(ctx)
	stored := *entry
	stored.Active = true
	stored.Document = slices.Clone(entry.Document)
	stored.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.entries[stored.Key()]; ok && existing.Active {
		stored.CreatedAt = existing.CreatedAt
	} else {
		stored.CreatedAt = now
	}
	s.entries[stored.Key()] = stored
	return nil
}
