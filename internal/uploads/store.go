package uploads

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrBadType  = errors.New("invalid file type")
	ErrTooLarge = errors.New("file too large")
)

// Store saves uploaded files into a single directory, enforcing an
// extension allow-list and a size cap before anything touches disk.
type Store struct {
	dir         string
	allowedExts map[string]bool
	maxSize     int64
}

// New creates a Store rooted at dir, creating the directory if needed.
func New(dir string, allowedExts []string, maxSize int64) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create upload directory: %w", err)
	}
	exts := make(map[string]bool, len(allowedExts))
	for _, e := range allowedExts {
		exts[strings.ToLower(strings.TrimPrefix(e, "."))] = true
	}
	return &Store{dir: dir, allowedExts: exts, maxSize: maxSize}, nil
}

// Save validates the upload and writes it under a freshly generated unique
// name, returning the saved file's name relative to the store directory.
// Validation happens before any filesystem write.
func (s *Store) Save(filename string, size int64, r io.Reader) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "" || !s.allowedExts[ext] {
		return "", ErrBadType
	}
	if size > s.maxSize {
		return "", ErrTooLarge
	}

	name := uuid.NewString() + "." + ext
	target := filepath.Join(s.dir, name)

	f, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("could not create file: %w", err)
	}
	defer f.Close()

	// The declared size is checked above; LimitReader guards against a
	// body that lies about its length.
	written, err := io.Copy(f, io.LimitReader(r, s.maxSize+1))
	if err != nil {
		os.Remove(target)
		return "", fmt.Errorf("could not write file: %w", err)
	}
	if written > s.maxSize {
		os.Remove(target)
		return "", ErrTooLarge
	}

	return name, nil
}

// Remove deletes a previously saved file by its relative name. A missing
// file is not an error.
func (s *Store) Remove(name string) error {
	if name == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, filepath.Base(name)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Path returns the absolute path of a saved file.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, filepath.Base(name))
}
