// Package storage keeps attachment blobs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrFileTooLarge = errors.New("file exceeds the upload size limit")
	ErrInvalidKey   = errors.New("invalid file key")
	ErrNotFound     = errors.New("file not found")
)

// FileStorage saves, opens, and removes blobs addressed by an opaque key.
type FileStorage interface {
	Save(ctx context.Context, originalName string, r io.Reader) (key string, size int64, err error)
	Open(ctx context.Context, key string) (io.ReadSeekCloser, error)
	Delete(ctx context.Context, key string) error
}

// LocalStorage writes blobs under a directory on the local disk. Blobs are
// never served straight from disk; callers go through Open after an access
// check.
type LocalStorage struct {
	root     string
	maxBytes int64
}

// NewLocalStorage creates root if needed. maxBytes <= 0 disables the size limit.
func NewLocalStorage(root string, maxBytes int64) (*LocalStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create media root: %w", err)
	}
	return &LocalStorage{root: root, maxBytes: maxBytes}, nil
}

// Save streams r to a new file named after a random id, keeping the
// original extension.
func (s *LocalStorage) Save(ctx context.Context, originalName string, r io.Reader) (string, int64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	key := path.Join("attachments", uuid.NewString()+cleanExt(originalName))
	full, err := s.path(key)
	if err != nil {
		return "", 0, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", 0, fmt.Errorf("create attachment dir: %w", err)
	}

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", 0, fmt.Errorf("create %s: %w", key, err)
	}

	src := r
	if s.maxBytes > 0 {
		src = io.LimitReader(r, s.maxBytes+1)
	}
	size, copyErr := io.Copy(f, src)
	closeErr := f.Close()

	switch {
	case copyErr != nil:
		os.Remove(full)
		return "", 0, fmt.Errorf("write %s: %w", key, copyErr)
	case closeErr != nil:
		os.Remove(full)
		return "", 0, fmt.Errorf("close %s: %w", key, closeErr)
	case s.maxBytes > 0 && size > s.maxBytes:
		os.Remove(full)
		return "", 0, ErrFileTooLarge
	}
	return key, size, nil
}

// Delete removes the blob. A missing blob is not an error.
func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

// Open returns the blob for reading. A missing blob reports ErrNotFound.
func (s *LocalStorage) Open(ctx context.Context, key string) (io.ReadSeekCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := s.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open %s: %w", key, err)
	}
	return f, nil
}

func (s *LocalStorage) path(key string) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" || strings.Contains(key, "..") {
		return "", ErrInvalidKey
	}
	return filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

func cleanExt(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if len(ext) > 10 {
		return ""
	}
	for _, r := range ext[min(1, len(ext)):] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
