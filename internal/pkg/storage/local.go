package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrStorageWrite = errors.New("storage write failed")
	ErrStorageRead  = errors.New("storage read failed")
	ErrBlobNotFound = errors.New("blob not found")
)

const tmpDirName = ".tmp"

// LocalStore keeps derivative blobs on the local filesystem under a fixed root.
type LocalStore struct {
	root string
}

// NewLocalStore prepares root (and its temp area) and returns a store bound to it.
func NewLocalStore(root string) (*LocalStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("storage root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Join(abs, tmpDirName), 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, err
	}
	return &LocalStore{root: resolved}, nil
}

// Root returns the absolute storage root.
func (s *LocalStore) Root() string { return s.root }

// Write places data at key. When a blob already exists there the call is a no-op and
// written is false; digest-derived names make identical content safe to skip.
// Bytes go to a temp file first and are renamed into place, so a partial write is never
// visible at the final path.
func (s *LocalStore) Write(ctx context.Context, key string, data []byte) (written bool, err error) {
	dst, err := s.PhysicalPath(key)
	if err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	if _, err := os.Stat(dst); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("%w: stat %s: %v", ErrStorageWrite, key, err)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return false, fmt.Errorf("%w: mkdir for %s: %v", ErrStorageWrite, key, err)
	}

	tmp, err := os.CreateTemp(filepath.Join(s.root, tmpDirName), "put-*")
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}
	tmpPath := tmp.Name()
	placed := false
	defer func() {
		_ = tmp.Close()
		if !placed {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return false, fmt.Errorf("%w: write %s: %v", ErrStorageWrite, key, err)
	}
	if err := tmp.Sync(); err != nil {
		return false, fmt.Errorf("%w: sync %s: %v", ErrStorageWrite, key, err)
	}
	if err := tmp.Close(); err != nil {
		return false, fmt.Errorf("%w: close %s: %v", ErrStorageWrite, key, err)
	}

	if err := os.Rename(tmpPath, dst); err != nil {
		if _, statErr := os.Stat(dst); statErr == nil {
			// lost a race against a writer of the same content
			return false, nil
		}
		return false, fmt.Errorf("%w: rename %s: %v", ErrStorageWrite, key, err)
	}
	placed = true
	return true, nil
}

// Exists reports whether a blob is present at key.
func (s *LocalStore) Exists(ctx context.Context, key string) (bool, error) {
	p, err := s.PhysicalPath(key)
	if err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	info, err := os.Stat(p)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: stat %s: %v", ErrStorageRead, key, err)
	}
	return info.Mode().IsRegular(), nil
}

// Open returns a reader over the blob at key together with its size.
// The caller must close the reader.
func (s *LocalStore) Open(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	p, err := s.PhysicalPath(key)
	if err != nil {
		return nil, 0, err
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	f, err := os.Open(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, 0, fmt.Errorf("%w: %s", ErrBlobNotFound, key)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("%w: open %s: %v", ErrStorageRead, key, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, fmt.Errorf("%w: stat %s: %v", ErrStorageRead, key, err)
	}
	if !info.Mode().IsRegular() {
		_ = f.Close()
		return nil, 0, fmt.Errorf("%w: %s", ErrBlobNotFound, key)
	}
	return f, info.Size(), nil
}
