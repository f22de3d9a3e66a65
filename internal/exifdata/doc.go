// Package exifdata extracts best-effort capture metadata from image bytes.
//
// Capture timestamps come from embedded EXIF tags and are strictly optional:
// absence is a normal value, not an error. Pixel dimensions are decoded from
// the image container itself and are required, since an image whose
// dimensions cannot be decoded cannot be rendered downstream either.
package exifdata
