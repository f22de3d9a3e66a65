// Package catalog is the relational store behind ingestion: collections,
// committed items, and per-owner quota accounts, all in one SQLite database.
//
// Two of its decisions carry the pipeline's correctness guarantees. Dedup is
// settled by the UNIQUE(collection_id, fingerprint) constraint, so the
// HasFingerprint pre-check can stay cheap and racy. Quota reservation is a
// single conditional UPDATE, so concurrent sessions can never overshoot a
// budget no matter how they interleave.
package catalog
