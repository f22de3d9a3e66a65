// Package ingest orchestrates the commit sequence: hash, dedup check,
// metadata, render, quota reservation, upload, catalog commit. Items are
// isolated from each other, so one failure never stops the run, and every
// post-reservation failure path releases the bytes it reserved.
//
// The catalog and blob dependencies enter through small interfaces so tests
// can inject failures at any stage without touching a real store.
package ingest
