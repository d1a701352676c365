package history

import (
	"context"
	"sync"
)

// MemoryStore is a process-local Store, used for dry runs and tests.
type MemoryStore struct {
	mu    sync.Mutex
	sites map[string]Set
	// Appends counts Append calls that carried at least one ID.
	Appends int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sites: map[string]Set{}}
}

func (s *MemoryStore) Load(ctx context.Context, site string) (Set, error) {
	key, err := siteKey(site)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := Set{}
	for id := range s.sites[key] {
		out[id] = struct{}{}
	}
	return out, nil
}

func (s *MemoryStore) Append(ctx context.Context, site string, ids []string) error {
	key, err := siteKey(site)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	ids = cleanIDs(ids)
	if len(ids) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.sites[key]
	if !ok {
		set = Set{}
		s.sites[key] = set
	}
	for _, id := range ids {
		set[id] = struct{}{}
	}
	s.Appends++
	return nil
}

// Len returns the size of site's history.
func (s *MemoryStore) Len(site string) int {
	key, _ := siteKey(site)
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sites[key])
}

func (s *MemoryStore) Close() error {
	return nil
}
