// Package blob stores rendition bytes in a content-addressed layout on the
// local filesystem: one file per fingerprint under its collection directory.
// Writes go through a temp file and rename so a crash never leaves a partial
// rendition at a final path, and re-uploading an existing fingerprint is a
// no-op since the content is the same by construction.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"photo-ingest/internal/filesystem"
	"photo-ingest/internal/logging"
)

// Store is a filesystem-backed blob store rooted at a single directory.
type Store struct {
	root string
}

// NewStore creates a Store rooted at dir. The directory must already exist;
// startup validates it before the pipeline runs.
func NewStore(dir string) (*Store, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("blob root %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("blob root %s is not a directory", dir)
	}
	return &Store{root: dir}, nil
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

// Path returns the final path a rendition lands at, relative joins only.
// The fingerprint is hex so the path needs no escaping.
func (s *Store) Path(collectionID, fingerprint, ext string) string {
	return filepath.Join(s.root, collectionID, fingerprint+"."+ext)
}

// RelPath returns the path relative to the store root, the form persisted
// in catalog rows so the root can move without rewriting them.
func (s *Store) RelPath(collectionID, fingerprint, ext string) string {
	return filepath.Join(collectionID, fingerprint+"."+ext)
}

// Exists reports whether a rendition is already stored.
func (s *Store) Exists(collectionID, fingerprint, ext string) (bool, error) {
	_, err := filesystem.StatWithRetry(s.Path(collectionID, fingerprint, ext), filesystem.DefaultRetryConfig())
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Put writes data to the rendition's content address. An already-present
// fingerprint returns nil without touching the existing file.
func (s *Store) Put(ctx context.Context, collectionID, fingerprint, ext string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	final := s.Path(collectionID, fingerprint, ext)

	if _, err := os.Stat(final); err == nil {
		logging.Debug("Blob %s already present, skipping write", fingerprint)
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to stat blob %s: %w", final, err)
	}

	dir := filepath.Dir(final)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create blob directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+fingerprint+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write blob %s: %w", fingerprint, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync blob %s: %w", fingerprint, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close blob %s: %w", fingerprint, err)
	}

	if err := os.Rename(tmpName, final); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to finalize blob %s: %w", fingerprint, err)
	}

	logging.Debug("Stored blob %s (%d bytes)", final, len(data))
	return nil
}

// Remove deletes a stored rendition. Removing a missing blob is not an
// error.
func (s *Store) Remove(collectionID, fingerprint, ext string) error {
	err := os.Remove(s.Path(collectionID, fingerprint, ext))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove blob %s: %w", fingerprint, err)
	}
	return nil
}

// Get reads a stored rendition back. Used by tests and the quotactl show
// path, not by the pipeline itself.
func (s *Store) Get(collectionID, fingerprint, ext string) ([]byte, error) {
	data, err := filesystem.ReadFileWithRetry(s.Path(collectionID, fingerprint, ext), filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", fingerprint, err)
	}
	return data, nil
}
