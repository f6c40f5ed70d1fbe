// Package filestore keeps whole JSON documents on disk and serializes
// read-modify-write cycles per file path.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var ErrInvalidName = errors.New("invalid file name")

type Store struct {
	dir   string
	mu    sync.Mutex
	locks map[string]*pathLock
}

// pathLock is dropped from Store.locks once no caller holds or waits on it.
type pathLock struct {
	sem  chan struct{}
	refs int
}

func New(dir string) *Store {
	return &Store{
		dir:   dir,
		locks: make(map[string]*pathLock),
	}
}

func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) Path(elem ...string) string {
	return filepath.Join(append([]string{s.dir}, elem...)...)
}

// Lock blocks until the caller owns path or ctx is done. The returned
// function releases the lock and must be called exactly once.
func (s *Store) Lock(ctx context.Context, path string) (func(), error) {
	key := filepath.Clean(path)
	l := s.acquire(key)

	select {
	case l.sem <- struct{}{}:
		return func() {
			<-l.sem
			s.release(key, l)
		}, nil
	case <-ctx.Done():
		s.release(key, l)
		return nil, fmt.Errorf("lock %s: %w", filepath.Base(path), ctx.Err())
	}
}

func (s *Store) acquire(key string) *pathLock {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[key]
	if !ok {
		l = &pathLock{sem: make(chan struct{}, 1)}
		s.locks[key] = l
	}
	l.refs++
	return l
}

func (s *Store) release(key string, l *pathLock) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l.refs--
	if l.refs == 0 {
		delete(s.locks, key)
	}
}

// ReadJSON decodes the document at path into v. A missing file is reported
// as found=false with a nil error.
func ReadJSON(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("read %s: %w", path, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return true, fmt.Errorf("decode %s: %w", path, err)
	}
	return true, nil
}

// WriteJSON replaces the document at path. The new content goes to a temp
// file in the same directory first, so readers never see a partial write.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", path, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// EnsureJSON creates path holding empty unless it already exists.
func EnsureJSON(path string, empty any) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	return WriteJSON(path, empty)
}

func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", path, err)
	}
	return nil
}

// ValidName reports whether id is safe to use as a single path element.
func ValidName(id string) error {
	if id == "" || id == "." || id == ".." ||
		strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidName, id)
	}
	return nil
}
