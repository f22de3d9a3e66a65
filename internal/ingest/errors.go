package ingest

import "fmt"

// Kind classifies item failures for the summary and the failure counters.
type Kind string

const (
	KindHash    Kind = "hash"    // reading or fingerprinting the source
	KindDecode  Kind = "decode"  // source bytes not decodable as an image
	KindEncode  Kind = "encode"  // JPEG encode of the rendition
	KindQuota   Kind = "quota"   // reservation rejected, budget full
	KindUpload  Kind = "upload"  // blob store write
	KindCatalog Kind = "catalog" // catalog query or insert
)

// ItemError is a classified per-item failure. It wraps the underlying cause
// so callers can still reach sentinel errors with errors.Is.
type ItemError struct {
	Kind Kind
	Path string
	Err  error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("%s: %s error: %v", e.Path, e.Kind, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

func itemErr(kind Kind, path string, err error) *ItemError {
	return &ItemError{Kind: kind, Path: path, Err: err}
}
