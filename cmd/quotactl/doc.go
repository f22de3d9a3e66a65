// Command quotactl provides a CLI utility for managing quota accounts in
// the photo ingest catalog.
//
// Usage:
//
//	quotactl -owner <owner> [-db <dir>] [-show] [-limit <bytes>] [-reset-used]
//
// Flags:
//
//	-show        Display the account's current usage and limit. This is
//	             also the default when no other action flag is given.
//
//	-limit       Set the account's limit in bytes, creating the account
//	             if it does not exist. Lowering the limit below current
//	             usage is rejected.
//
//	-reset-used  Zero the usage counter. Intended for rebuilding the
//	             accounting after a catalog restore; when stdin is a
//	             terminal a confirmation prompt is shown first.
//
// Environment:
//
//	DATABASE_DIR - Path to database directory (default: /database),
//	               overridden by the -db flag.
package main
