package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ImageStore persists uploaded photo bytes and hands back an opaque
// reference stored on the photo row.
type ImageStore interface {
	Store(data []byte, ext string) (string, error)
	Fetch(ref string) ([]byte, error)
	Delete(ref string) bool
}

// LocalImageStore keeps images as files under a single upload
// directory, named by fresh uuids so uploads never collide.
type LocalImageStore struct {
	dir string
}

// NewLocalImageStore creates the upload directory if needed.
func NewLocalImageStore(dir string) (*LocalImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &LocalImageStore{dir: dir}, nil
}

// Store writes the image and returns its reference (the file name,
// not the full path, so the directory can move between deployments).
func (s *LocalImageStore) Store(data []byte, ext string) (string, error) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ext == "" {
		ext = "jpg"
	}

	name := uuid.New().String() + "." + ext
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to store image: %w", err)
	}

	return name, nil
}

// Fetch reads the image bytes back.
func (s *LocalImageStore) Fetch(ref string) ([]byte, error) {
	// Refs are uuid-based file names we minted ourselves; reject
	// anything that tries to walk out of the directory.
	if ref != filepath.Base(ref) {
		return nil, fmt.Errorf("invalid image ref %q", ref)
	}

	data, err := os.ReadFile(filepath.Join(s.dir, ref))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return data, nil
}

// Delete removes the image file. Returns false when it was already
// gone; callers treat deletion as best-effort.
func (s *LocalImageStore) Delete(ref string) bool {
	if ref != filepath.Base(ref) {
		return false
	}
	return os.Remove(filepath.Join(s.dir, ref)) == nil
}
