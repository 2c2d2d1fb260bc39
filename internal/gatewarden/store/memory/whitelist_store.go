package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ashvale/gatewarden/internal/gatewarden/types"
)

// WhitelistStore keeps the registry in a mutex-guarded map. This is the
// default backend: registry lifetime equals process lifetime.
//
// A side slice preserves insertion order for ListAll; an overwrite keeps
// the entry's original position.
type WhitelistStore struct {
	mu      sync.RWMutex
	entries map[int64]types.WhitelistEntry
	order   []int64
}

// New returns an empty store, optionally pre-admitting seed ids. Seeded
// entries are attributed to the API actor with a placeholder name.
func New(seedUserIDs []int64) *WhitelistStore {
	s := &WhitelistStore{
		entries: make(map[int64]types.WhitelistEntry, len(seedUserIDs)),
	}
	now := time.Now().UTC()
	for _, id := range seedUserIDs {
		if id <= 0 {
			continue
		}
		if _, ok := s.entries[id]; ok {
			continue
		}
		s.entries[id] = types.WhitelistEntry{
			UserID:   id,
			Username: types.PlaceholderName(id),
			AddedBy:  types.ActorAPI,
			AddedAt:  now,
			Source:   types.SourceAPI,
		}
		s.order = append(s.order, id)
	}
	return s
}

func (s *WhitelistStore) Exists(_ context.Context, userID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[userID]
	return ok, nil
}

func (s *WhitelistStore) Get(_ context.Context, userID int64) (types.WhitelistEntry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[userID]
	return e, ok, nil
}

func (s *WhitelistStore) Put(_ context.Context, entry types.WhitelistEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[entry.UserID]; !ok {
		s.order = append(s.order, entry.UserID)
	}
	s.entries[entry.UserID] = entry
	return nil
}

func (s *WhitelistStore) Remove(_ context.Context, userID int64) (types.WhitelistEntry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[userID]
	if !ok {
		return types.WhitelistEntry{}, false, nil
	}
	delete(s.entries, userID)
	for i, id := range s.order {
		if id == userID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return e, true, nil
}

func (s *WhitelistStore) ListAll(_ context.Context) ([]types.WhitelistEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.WhitelistEntry, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.entries[id])
	}
	return out, nil
}
