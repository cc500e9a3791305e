package store

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"careermatch/internal/errors"
	"careermatch/internal/types"
)

// FileStore keeps all profiles in one JSON array file. Every append rewrites
// the whole file through a temporary file and a rename.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) LoadAll(ctx context.Context) ([]types.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *FileStore) Append(ctx context.Context, profile types.Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := prepare(profile)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	profiles, err := s.read()
	if err != nil {
		return err
	}
	if _, err := findIn(profiles, p.Name); err == nil {
		return duplicateError(p.Name)
	}
	return s.write(append(profiles, p))
}

func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) read() ([]types.Profile, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return []types.Profile{}, nil
	}
	if err != nil {
		return nil, errors.NewStorageError(errors.ErrCodeStoreFailed, "failed to read profile file", err).
			WithContext("path", s.path)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []types.Profile{}, nil
	}

	var profiles []types.Profile
	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, errors.NewStorageError(errors.ErrCodeStoreFailed, "profile file is not a JSON array of profiles", err).
			WithContext("path", s.path)
	}
	return profiles, nil
}

func (s *FileStore) write(profiles []types.Profile) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(profiles); err != nil {
		return errors.NewInternalError(errors.ErrCodeStoreFailed, "failed to encode profiles", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return errors.NewStorageError(errors.ErrCodeStoreFailed, "failed to create profile directory", err).
			WithContext("path", dir)
	}

	tmp, err := os.CreateTemp(dir, ".profiles-*.json")
	if err != nil {
		return errors.NewStorageError(errors.ErrCodeStoreFailed, "failed to create temporary profile file", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return errors.NewStorageError(errors.ErrCodeStoreFailed, "failed to write profiles", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.NewStorageError(errors.ErrCodeStoreFailed, "failed to sync profiles", err)
	}
	if err := tmp.Close(); err != nil {
		return errors.NewStorageError(errors.ErrCodeStoreFailed, "failed to close temporary profile file", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return errors.NewStorageError(errors.ErrCodeStoreFailed, "failed to replace profile file", err).
			WithContext("path", s.path)
	}
	return nil
}
