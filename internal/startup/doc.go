// Package startup handles agent initialization, configuration loading, and
// lifecycle logging.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig];
// a .env file in the working directory is merged in first when present.
// The following environment variables are supported:
//
//   - SOURCE_DIR: Directory to ingest photos from (default: /photos)
//   - BLOB_DIR: Root of the rendition blob store (default: /blobs)
//   - DATABASE_DIR: Directory holding the catalog database (default: /database)
//   - COLLECTION: Title of the target collection, created on first run (default: default)
//   - OWNER: Owning principal for items and quota (required)
//   - QUOTA_LIMIT_BYTES: Limit applied when the owner's quota account is
//     first created (default: 10 GiB)
//   - MAX_SIDE: Longer-side bound for renditions in pixels (default: 1440)
//   - JPEG_QUALITY: Rendition JPEG quality (default: 80)
//   - PIPELINE_WORKERS: Concurrent pipeline workers; "auto" sizes the pool
//     from available CPUs (default: 1)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable the metrics server (default: true)
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//
// # Directory Setup
//
// The source directory must exist and is never created. The blob and
// database directories are created on demand and must be writable.
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via
// [GetBuildInfo]: Version, Commit, BuildTime, GoVersion.
package startup
