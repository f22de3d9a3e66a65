// Package enumerate lists candidate image files under a user-chosen
// directory.
//
// The result is a finite, ordered snapshot: callers receive the full
// candidate list up front so progress totals (files seen, bytes seen) are
// known before the first item starts. Filtering is silent; a directory full
// of videos and sidecar files simply yields fewer candidates, never errors.
// Only a traversal failure (permission denied, I/O error) aborts enumeration,
// and a cancelled directory selection yields an empty set.
package enumerate
