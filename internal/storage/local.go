package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// TempStore holds uploaded audio on local disk until its request finishes
type TempStore struct {
	dir string
}

// NewTempStore creates the store, making dir if needed
func NewTempStore(dir string) (*TempStore, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	return &TempStore{dir: dir}, nil
}

// Dir returns the directory files are written to
func (ts *TempStore) Dir() string {
	return ts.dir
}

// Handle is an opaque reference to one stored upload. It is owned by a
// single request and removes its file exactly once.
type Handle struct {
	ID       string
	Filename string
	Path     string
	Size     int64

	once       sync.Once
	releaseErr error
}

// Save copies r into a new request-scoped file. filename is only used for
// its extension; the stored name is a fresh UUID so concurrent uploads of
// the same name never collide.
func (ts *TempStore) Save(filename string, r io.Reader) (*Handle, error) {
	id := uuid.New().String()
	path := filepath.Join(ts.dir, id+safeExt(filename))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}

	size, copyErr := io.Copy(f, r)
	closeErr := f.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to save upload: %w", err)
	}

	return &Handle{
		ID:       id,
		Filename: filename,
		Path:     path,
		Size:     size,
	}, nil
}

// Release deletes the stored file. Calls after the first return the first
// call's result.
func (h *Handle) Release() error {
	h.once.Do(func() {
		if err := os.Remove(h.Path); err != nil && !os.IsNotExist(err) {
			h.releaseErr = fmt.Errorf("failed to remove temp file %s: %w", h.Path, err)
		}
	})
	return h.releaseErr
}

// safeExt returns a short, path-free extension of name, or "" if it has none
func safeExt(name string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(name)))
	if len(ext) > 10 || strings.ContainsAny(ext, `/\:*?"<>|`) {
		return ""
	}
	return ext
}
