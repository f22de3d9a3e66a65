// Package mediatypes provides shared type definitions and utilities for
// classifying candidate files during ingestion.
//
// This package exists as a dependency-free foundation that can be imported by
// other packages without creating import cycles. It contains the supported
// raster-image extension set, MIME lookup, and junk-file detection.
//
// Use IsImage to decide whether a file participates in the pipeline:
//
//	ext := strings.ToLower(filepath.Ext(filename))
//	if mediatypes.IsImage(ext) {
//	    // enqueue for ingestion
//	}
package mediatypes
