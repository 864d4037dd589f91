package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/okian/loanguard/internal/domain/model"
)

const fileBackend = "file"

// FileStore keeps all fixtures in one JSON object keyed by name.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore returns a store backed by path. The file is created on the
// first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Save implements Store.
func (s *FileStore) Save(ctx context.Context, name string, rec model.BorrowerRecord) (err error) {
	defer func(start time.Time) { observe(fileBackend, "save", start, err) }(time.Now())
	if err := checkName(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read()
	if err != nil {
		return err
	}
	all[name] = rec
	return s.write(all)
}

// Load implements Store.
func (s *FileStore) Load(ctx context.Context, name string) (rec model.BorrowerRecord, err error) {
	defer func(start time.Time) { observe(fileBackend, "load", start, err) }(time.Now())
	if err := ctx.Err(); err != nil {
		return model.BorrowerRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read()
	if err != nil {
		return model.BorrowerRecord{}, err
	}
	rec, ok := all[name]
	if !ok {
		return model.BorrowerRecord{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return rec, nil
}

// List implements Store.
func (s *FileStore) List(ctx context.Context) (names []string, err error) {
	defer func(start time.Time) { observe(fileBackend, "list", start, err) }(time.Now())
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read()
	if err != nil {
		return nil, err
	}
	names = make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Close implements Store.
func (s *FileStore) Close() error { return nil }

func (s *FileStore) read() (map[string]model.BorrowerRecord, error) {
	all := make(map[string]model.BorrowerRecord)
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return all, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrUnavailable, s.path, err)
	}
	if len(data) == 0 {
		return all, nil
	}
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrUnavailable, s.path, err)
	}
	return all, nil
}

// write replaces the file through a temp file in the same directory.
func (s *FileStore) write(all map[string]model.BorrowerRecord) error {
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("encode fixtures: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	tmp, err := os.CreateTemp(dir, ".fixtures-*.json")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}
