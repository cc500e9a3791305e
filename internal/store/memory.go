package store

import (
	"context"
	"slices"
	"sync"

	"careermatch/internal/types"
)

// MemoryStore keeps profiles in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles []types.Profile
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) LoadAll(ctx context.Context) ([]types.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.profiles), nil
}

func (s *MemoryStore) Append(ctx context.Context, profile types.Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := prepare(profile)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := findIn(s.profiles, p.Name); err == nil {
		return duplicateError(p.Name)
	}
	s.profiles = append(s.profiles, p)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
