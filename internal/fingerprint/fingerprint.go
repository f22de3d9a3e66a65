// Package fingerprint derives content identities for ingest candidates.
//
// A fingerprint is the lowercase hex SHA-256 of the file's bytes. It is a
// pure function of content: the same pixels at two different paths, or under
// two different names, produce the same fingerprint, which is the basis for
// catalog deduplication.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"photo-ingest/internal/filesystem"
)

// HexLength is the length of a fingerprint string (256 bits as hex).
const HexLength = sha256.Size * 2

// File computes the content fingerprint of the file at path, streaming the
// bytes so arbitrarily large originals never load fully into memory.
// The only failure mode is I/O: unreadable bytes, never unexpected content.
func File(path string) (string, error) {
	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return Reader(f)
}

// Reader computes the content fingerprint of everything readable from r.
func Reader(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("hashing content: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
