package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"photo-ingest/internal/logging"
	"photo-ingest/internal/workers"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// DefaultQuotaLimitBytes is applied when an owner's account is first
// created. 10 GiB.
const DefaultQuotaLimitBytes = int64(10) << 30

// Config holds all agent configuration
type Config struct {
	SourceDir   string
	BlobDir     string
	DatabaseDir string

	Collection string
	Owner      string

	QuotaLimitBytes int64
	MaxSide         int
	JPEGQuality     int
	Workers         int

	MetricsPort    string
	MetricsEnabled bool

	// Derived paths
	DatabasePath string
}

// LoadConfig loads and validates configuration from environment variables.
// A .env file in the working directory is merged in first when present;
// real environment variables win.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err == nil {
		logging.Debug("Loaded .env file")
	}

	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	sourceDir := getEnv("SOURCE_DIR", "/photos")
	blobDir := getEnv("BLOB_DIR", "/blobs")
	databaseDir := getEnv("DATABASE_DIR", "/database")
	collection := getEnv("COLLECTION", "default")
	owner := getEnv("OWNER", "")
	quotaLimit := getEnvInt64("QUOTA_LIMIT_BYTES", DefaultQuotaLimitBytes)
	maxSide := getEnvInt("MAX_SIDE", 1440)
	jpegQuality := getEnvInt("JPEG_QUALITY", 80)
	workersCount := pipelineWorkers()
	metricsPort := getEnv("METRICS_PORT", "9090")
	metricsEnabled := getEnvBool("METRICS_ENABLED", true)

	logging.Info("  SOURCE_DIR:          %s", sourceDir)
	logging.Info("  BLOB_DIR:            %s", blobDir)
	logging.Info("  DATABASE_DIR:        %s", databaseDir)
	logging.Info("  COLLECTION:          %s", collection)
	logging.Info("  OWNER:               %s", owner)
	logging.Info("  QUOTA_LIMIT_BYTES:   %d", quotaLimit)
	logging.Info("  MAX_SIDE:            %d", maxSide)
	logging.Info("  JPEG_QUALITY:        %d", jpegQuality)
	logging.Info("  PIPELINE_WORKERS:    %d", workersCount)
	logging.Info("  METRICS_PORT:        %s", metricsPort)
	logging.Info("  METRICS_ENABLED:     %v", metricsEnabled)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	if owner == "" {
		return nil, fmt.Errorf("OWNER must be set")
	}
	if quotaLimit <= 0 {
		return nil, fmt.Errorf("QUOTA_LIMIT_BYTES must be positive, got %d", quotaLimit)
	}

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	var err error
	sourceDir, err = filepath.Abs(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve source directory path: %w", err)
	}
	logging.Info("  Source directory (absolute): %s", sourceDir)

	blobDir, err = filepath.Abs(blobDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve blob directory path: %w", err)
	}
	logging.Info("  Blob directory (absolute): %s", blobDir)

	databaseDir, err = filepath.Abs(databaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database directory path: %w", err)
	}
	logging.Info("  Database directory (absolute): %s", databaseDir)

	// The source must exist; the agent never creates it.
	info, err := os.Stat(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("source directory error: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source path %s is not a directory", sourceDir)
	}
	logging.Info("  [OK] Source directory exists")

	// Blob and database directories are created on demand and must be
	// writable.
	if err := ensureDirectory(blobDir, "blob"); err != nil {
		return nil, fmt.Errorf("blob directory error: %w", err)
	}
	if err := testWriteAccess(blobDir); err != nil {
		return nil, fmt.Errorf("blob directory is not writable: %w", err)
	}
	logging.Info("  [OK] Blob directory is writable")

	if err := ensureDirectory(databaseDir, "database"); err != nil {
		return nil, fmt.Errorf("database directory error: %w", err)
	}
	if err := testWriteAccess(databaseDir); err != nil {
		return nil, fmt.Errorf("database directory is not writable: %w", err)
	}
	logging.Info("  [OK] Database directory is writable")

	config := &Config{
		SourceDir:       sourceDir,
		BlobDir:         blobDir,
		DatabaseDir:     databaseDir,
		Collection:      collection,
		Owner:           owner,
		QuotaLimitBytes: quotaLimit,
		MaxSide:         maxSide,
		JPEGQuality:     jpegQuality,
		Workers:         workersCount,
		MetricsPort:     metricsPort,
		MetricsEnabled:  metricsEnabled,
		DatabasePath:    filepath.Join(databaseDir, "ingest.db"),
	}

	return config, nil
}

// LogRunStarted logs the start of an ingestion run
func LogRunStarted(candidates int, totalBytes int64) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("INGESTION RUN")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Candidates:  %d", candidates)
	logging.Info("  Total bytes: %d", totalBytes)
}

// LogRunComplete logs the end of an ingestion run
func LogRunComplete(cataloged, skipped, failed int, duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("RUN COMPLETE in %v", duration)
	logging.Info("------------------------------------------------------------")
	logging.Info("  Cataloged: %d", cataloged)
	logging.Info("  Skipped:   %d", skipped)
	logging.Info("  Failed:    %d", failed)
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// maxPipelineWorkers caps auto-sized pools; each worker holds a decoded
// image in memory.
const maxPipelineWorkers = 8

// pipelineWorkers resolves PIPELINE_WORKERS. The default is sequential;
// "auto" sizes the pool for mixed CPU and I/O work.
func pipelineWorkers() int {
	value := os.Getenv("PIPELINE_WORKERS")
	switch value {
	case "":
		return 1
	case "auto":
		return workers.ForMixed(maxPipelineWorkers)
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 1 {
		logging.Warn("Invalid PIPELINE_WORKERS value %q, using 1", value)
		return 1
	}
	return parsed
}

// Helper functions

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Version:         %s", Version)
	logging.Info("  Commit:          %s", Commit)
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))
	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
		// Don't return error since write access was confirmed
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt64(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
