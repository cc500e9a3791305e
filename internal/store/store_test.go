package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	apperrors "careermatch/internal/errors"
	"careermatch/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storeFactories() map[string]func(t *testing.T) ProfileStore {
	return map[string]func(t *testing.T) ProfileStore{
		"memory": func(t *testing.T) ProfileStore { return NewMemoryStore() },
		"file": func(t *testing.T) ProfileStore {
			return NewFileStore(filepath.Join(t.TempDir(), "data", "profiles.json"))
		},
	}
}

func TestProfileStoreBehavior(t *testing.T) {
	ctx := context.Background()

	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			defer s.Close()

			profiles, err := s.LoadAll(ctx)
			require.NoError(t, err)
			assert.Empty(t, profiles)

			require.NoError(t, s.Append(ctx, types.Profile{
				Name:      "  Ana Souza ",
				Technical: map[string]int{"Python": 4},
				Notes:     "gosta de dados",
			}))
			require.NoError(t, s.Append(ctx, types.Profile{
				Name:       "Bruno",
				Behavioral: map[string]int{"Comunicação": 3},
			}))

			names, err := Names(ctx, s)
			require.NoError(t, err)
			assert.Equal(t, []string{"Ana Souza", "Bruno"}, names)

			found, err := Find(ctx, s, "ana souza")
			require.NoError(t, err)
			assert.Equal(t, 4, found.Technical["Python"])
			assert.Equal(t, "gosta de dados", found.Notes)

			_, err = Find(ctx, s, "Carla")
			assert.ErrorIs(t, err, ErrNotFound)
			assert.Equal(t, apperrors.ErrorTypeNotFound, apperrors.TypeOf(err))

			err = s.Append(ctx, types.Profile{Name: "BRUNO"})
			assert.ErrorIs(t, err, ErrDuplicate)

			err = s.Append(ctx, types.Profile{Name: "Carla", Technical: map[string]int{"Go": 9}})
			require.Error(t, err)
			assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.TypeOf(err))

			profiles, err = s.LoadAll(ctx)
			require.NoError(t, err)
			assert.Len(t, profiles, 2)
		})
	}
}

func TestProfileStoreDoesNotAliasCallerMaps(t *testing.T) {
	ctx := context.Background()

	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			skills := map[string]int{"Python": 2}
			require.NoError(t, s.Append(ctx, types.Profile{Name: "Ana", Technical: skills}))

			skills["Python"] = 5

			p, err := Find(ctx, s, "Ana")
			require.NoError(t, err)
			assert.Equal(t, 2, p.Technical["Python"])
		})
	}
}

func TestProfileStoreConcurrentAppend(t *testing.T) {
	ctx := context.Background()

	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			names := []string{"a", "b", "c", "d", "e", "f", "g", "h"}

			var wg sync.WaitGroup
			for _, n := range names {
				wg.Add(1)
				go func() {
					defer wg.Done()
					assert.NoError(t, s.Append(ctx, types.Profile{Name: n}))
				}()
			}
			wg.Wait()

			got, err := Names(ctx, s)
			require.NoError(t, err)
			assert.ElementsMatch(t, names, got)
		})
	}
}

func TestProfileStoreCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			_, err := s.LoadAll(ctx)
			assert.ErrorIs(t, err, context.Canceled)
			assert.ErrorIs(t, s.Append(ctx, types.Profile{Name: "Ana"}), context.Canceled)
		})
	}
}

func TestFileStoreFormat(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "profiles.json")
	s := NewFileStore(path)

	require.NoError(t, s.Append(ctx, types.Profile{
		Name:       "João",
		Technical:  map[string]int{"C": 3},
		Behavioral: map[string]int{"Atenção a Detalhes": 4},
		Notes:      "R&D",
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	assert.True(t, strings.HasPrefix(content, "[\n  {\n    \"name\": \"João\""))
	assert.Contains(t, content, `"technical_skills": {`)
	assert.Contains(t, content, `"Atenção a Detalhes": 4`)
	assert.Contains(t, content, `"notes": "R&D"`)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reopened := NewFileStore(path)
	profiles, err := reopened.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, 4, profiles[0].Behavioral["Atenção a Detalhes"])
}

func TestFileStoreReadErrors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	emptyPath := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(emptyPath, []byte("  \n"), 0o600))
	profiles, err := NewFileStore(emptyPath).LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, profiles)

	corruptPath := filepath.Join(dir, "corrupt.json")
	require.NoError(t, os.WriteFile(corruptPath, []byte(`{"name":"Ana"}`), 0o600))
	_, err = NewFileStore(corruptPath).LoadAll(ctx)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeStorage, apperrors.TypeOf(err))

	err = NewFileStore(corruptPath).Append(ctx, types.Profile{Name: "Bia"})
	require.Error(t, err)
	var appErr *apperrors.AppError
	assert.True(t, errors.As(err, &appErr))
}

func TestFileStoreReadsLegacyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.json")
	legacy := `[
  {
    "name": "Maria",
    "technical_skills": {"Python": 5, "Estatística": 4},
    "behavioral_skills": {"Curiosidade": 5},
    "notes": ""
  }
]`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o600))

	p, err := Find(context.Background(), NewFileStore(path), "MARIA")
	require.NoError(t, err)
	assert.Equal(t, 5, p.TechnicalLevel("Python"))
	assert.Equal(t, 0, p.TechnicalLevel("C"))
}
