// Package workers calculates worker pool sizes for the ingest pipeline.
//
// Each ingest item mixes CPU-bound work (decoding and re-encoding a
// rendition) with I/O-bound work (reading source bytes, database and blob
// writes), so pool sizing matters: too few workers leave CPUs idle during
// I/O waits, too many multiply peak memory since each in-flight item holds a
// decoded bitmap.
//
// Count respects container CPU limits via GOMAXPROCS and can be overridden
// with the PIPELINE_WORKERS environment variable. A limit of 1 restores the
// strictly sequential per-session design, which also guarantees that items
// reach their terminal state in enumeration order.
package workers
