package enumerate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"photo-ingest/internal/filesystem"
	"photo-ingest/internal/logging"
	"photo-ingest/internal/mediatypes"
)

// ErrEnumeration indicates that directory traversal was denied or
// interrupted by the platform. It aborts the whole run: nothing was ingested.
var ErrEnumeration = errors.New("enumeration failed")

// Candidate is one file selected for ingestion.
type Candidate struct {
	Path    string // absolute path on the local filesystem
	RelPath string // path relative to the chosen root, forward slashes
	Size    int64  // original byte size
	ModTime time.Time
}

// Ext returns the candidate's lowercase file extension, including the dot.
func (c Candidate) Ext() string {
	return strings.ToLower(filepath.Ext(c.Path))
}

// Enumerate recursively lists image files under root and returns them in
// lexical walk order, which is deterministic for a given directory snapshot.
//
// Hidden entries, junk files, and anything outside the supported raster-image
// set are silently excluded. An empty root means the user cancelled the
// directory selection: that is not an error and yields an empty slice.
// Traversal failures are wrapped in ErrEnumeration.
func Enumerate(ctx context.Context, root string) ([]Candidate, error) {
	if root == "" {
		logging.Debug("Enumerate: no directory selected, nothing to do")
		return nil, nil
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: resolving %s: %v", ErrEnumeration, root, err)
	}

	var candidates []Candidate

	walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			return err
		}

		name := d.Name()
		if strings.HasPrefix(name, ".") && path != absRoot {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		lower := strings.ToLower(name)
		if mediatypes.IsJunk(lower) {
			return nil
		}
		if !mediatypes.IsImage(strings.ToLower(filepath.Ext(name))) {
			return nil
		}

		info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			return err
		}

		candidates = append(candidates, Candidate{
			Path:    path,
			RelPath: filepath.ToSlash(rel),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	})

	if walkErr != nil {
		if errors.Is(walkErr, context.Canceled) || errors.Is(walkErr, context.DeadlineExceeded) {
			return nil, walkErr
		}
		return nil, fmt.Errorf("%w: %v", ErrEnumeration, walkErr)
	}

	logging.Info("Enumerated %d candidate files under %s", len(candidates), absRoot)
	return candidates, nil
}

// TotalBytes sums the original byte sizes of a candidate set.
func TotalBytes(candidates []Candidate) int64 {
	var total int64
	for _, c := range candidates {
		total += c.Size
	}
	return total
}
