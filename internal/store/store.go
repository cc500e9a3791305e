// Package store persists user profiles. The scoring engine never sees it:
// callers load a profile here and hand the value to the engine.
package store

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"careermatch/internal/errors"
	"careermatch/internal/types"
)

// Driver names accepted by Open.
const (
	DriverFile     = "file"
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

var (
	// ErrNotFound is returned when no profile matches a name.
	ErrNotFound = errors.NewNotFoundError(errors.ErrCodeProfileNotFound, "profile not found", nil)
	// ErrDuplicate is returned when appending a profile whose name is taken.
	ErrDuplicate = errors.NewConflictError(errors.ErrCodeDuplicateProfile, "profile already exists", nil)
)

// ProfileStore loads and appends profiles. Implementations must be safe for
// concurrent use.
type ProfileStore interface {
	// LoadAll returns every stored profile in insertion order.
	LoadAll(ctx context.Context) ([]types.Profile, error)
	// Append validates and stores a new profile. Names are unique
	// case-insensitively.
	Append(ctx context.Context, profile types.Profile) error
	Close() error
}

// finder is implemented by stores that can look a profile up without
// loading all of them.
type finder interface {
	Find(ctx context.Context, name string) (types.Profile, error)
}

// Find returns the first profile whose name matches case-insensitively.
func Find(ctx context.Context, s ProfileStore, name string) (types.Profile, error) {
	if f, ok := s.(finder); ok {
		return f.Find(ctx, name)
	}

	profiles, err := s.LoadAll(ctx)
	if err != nil {
		return types.Profile{}, err
	}
	return findIn(profiles, name)
}

// Names returns stored profile names in insertion order.
func Names(ctx context.Context, s ProfileStore) ([]string, error) {
	profiles, err := s.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(profiles))
	for i, p := range profiles {
		names[i] = p.Name
	}
	return names, nil
}

func findIn(profiles []types.Profile, name string) (types.Profile, error) {
	key := types.NameKey(name)
	idx := slices.IndexFunc(profiles, func(p types.Profile) bool { return p.Key() == key })
	if idx < 0 {
		return types.Profile{}, fmt.Errorf("%w: %q", ErrNotFound, strings.TrimSpace(name))
	}
	return profiles[idx], nil
}

// prepare validates p and returns a copy with a trimmed name and owned maps.
func prepare(p types.Profile) (types.Profile, error) {
	if err := p.Validate(); err != nil {
		return types.Profile{}, err
	}
	p.Name = strings.TrimSpace(p.Name)
	p.Technical = cloneSkills(p.Technical)
	p.Behavioral = cloneSkills(p.Behavioral)
	return p, nil
}

func cloneSkills(skills map[string]int) map[string]int {
	out := make(map[string]int, len(skills))
	for k, v := range skills {
		out[k] = v
	}
	return out
}

func duplicateError(name string) error {
	return fmt.Errorf("%w: %q", ErrDuplicate, name)
}
