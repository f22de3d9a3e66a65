package startup

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()

	if info.Version == "" {
		t.Error("Expected Version to be set")
	}
	if info.GoVersion == "" {
		t.Error("Expected GoVersion to be set")
	}
	if info.OS == "" {
		t.Error("Expected OS to be set")
	}
	if info.Arch == "" {
		t.Error("Expected Arch to be set")
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_SET_VAR", "custom")

	if got := getEnv("TEST_SET_VAR", "default"); got != "custom" {
		t.Errorf("getEnv() = %q, want custom", got)
	}
	if got := getEnv("TEST_UNSET_VAR", "default"); got != "default" {
		t.Errorf("getEnv() for unset var = %q, want default", got)
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		defaultValue bool
		want         bool
	}{
		{"true", "true", false, true},
		{"false", "false", true, false},
		{"one", "1", false, true},
		{"invalid falls back to default", "notabool", true, true},
		{"empty falls back to default", "", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv("TEST_BOOL_VAR", tt.value)
			}
			if got := getEnvBool("TEST_BOOL_VAR", tt.defaultValue); got != tt.want {
				t.Errorf("getEnvBool(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("TEST_INT_VAR", "42")
	if got := getEnvInt("TEST_INT_VAR", 7); got != 42 {
		t.Errorf("getEnvInt() = %d, want 42", got)
	}

	t.Setenv("TEST_INT_VAR", "notanumber")
	if got := getEnvInt("TEST_INT_VAR", 7); got != 7 {
		t.Errorf("getEnvInt() with invalid value = %d, want 7", got)
	}

	if got := getEnvInt("TEST_INT_UNSET", 7); got != 7 {
		t.Errorf("getEnvInt() for unset var = %d, want 7", got)
	}
}

func TestPipelineWorkers(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  int
	}{
		{"unset defaults to sequential", "", 1},
		{"explicit count", "4", 4},
		{"invalid falls back to sequential", "lots", 1},
		{"zero falls back to sequential", "0", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("PIPELINE_WORKERS", tt.value)
			if got := pipelineWorkers(); got != tt.want {
				t.Errorf("pipelineWorkers() with %q = %d, want %d", tt.value, got, tt.want)
			}
		})
	}

	t.Run("auto scales with CPUs", func(t *testing.T) {
		t.Setenv("PIPELINE_WORKERS", "auto")
		got := pipelineWorkers()
		if got < 1 || got > maxPipelineWorkers {
			t.Errorf("pipelineWorkers() with auto = %d, want 1..%d", got, maxPipelineWorkers)
		}
	})
}

func TestGetEnvInt64(t *testing.T) {
	t.Setenv("TEST_INT64_VAR", "10737418240")
	if got := getEnvInt64("TEST_INT64_VAR", 1); got != 10737418240 {
		t.Errorf("getEnvInt64() = %d, want 10737418240", got)
	}
}

func setConfigEnv(t *testing.T, sourceDir, baseDir string) {
	t.Helper()
	t.Setenv("SOURCE_DIR", sourceDir)
	t.Setenv("BLOB_DIR", filepath.Join(baseDir, "blobs"))
	t.Setenv("DATABASE_DIR", filepath.Join(baseDir, "db"))
	t.Setenv("OWNER", "alice")
	t.Setenv("COLLECTION", "Test")
}

func TestLoadConfig(t *testing.T) {
	sourceDir := t.TempDir()
	baseDir := t.TempDir()
	setConfigEnv(t, sourceDir, baseDir)
	t.Setenv("QUOTA_LIMIT_BYTES", "1048576")
	t.Setenv("MAX_SIDE", "800")
	t.Setenv("PIPELINE_WORKERS", "3")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if config.Owner != "alice" {
		t.Errorf("Owner = %q, want alice", config.Owner)
	}
	if config.Collection != "Test" {
		t.Errorf("Collection = %q, want Test", config.Collection)
	}
	if config.QuotaLimitBytes != 1048576 {
		t.Errorf("QuotaLimitBytes = %d, want 1048576", config.QuotaLimitBytes)
	}
	if config.MaxSide != 800 {
		t.Errorf("MaxSide = %d, want 800", config.MaxSide)
	}
	if config.JPEGQuality != 80 {
		t.Errorf("JPEGQuality = %d, want default 80", config.JPEGQuality)
	}
	if config.Workers != 3 {
		t.Errorf("Workers = %d, want 3", config.Workers)
	}
	if config.DatabasePath != filepath.Join(config.DatabaseDir, "ingest.db") {
		t.Errorf("DatabasePath = %q, want ingest.db inside DatabaseDir", config.DatabasePath)
	}
}

func TestLoadConfigCreatesDirectories(t *testing.T) {
	sourceDir := t.TempDir()
	baseDir := t.TempDir()
	setConfigEnv(t, sourceDir, baseDir)

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	for _, dir := range []string{config.BlobDir, config.DatabaseDir} {
		info, statErr := os.Stat(dir)
		if statErr != nil {
			t.Errorf("directory %s not created: %v", dir, statErr)
			continue
		}
		if !info.IsDir() {
			t.Errorf("%s is not a directory", dir)
		}
	}
}

func TestLoadConfigRequiresOwner(t *testing.T) {
	sourceDir := t.TempDir()
	baseDir := t.TempDir()
	setConfigEnv(t, sourceDir, baseDir)
	t.Setenv("OWNER", "")

	if _, err := LoadConfig(); err == nil {
		t.Error("LoadConfig() without OWNER succeeded, want error")
	}
}

func TestLoadConfigMissingSource(t *testing.T) {
	baseDir := t.TempDir()
	setConfigEnv(t, filepath.Join(baseDir, "nope"), baseDir)

	if _, err := LoadConfig(); err == nil {
		t.Error("LoadConfig() with missing source directory succeeded, want error")
	}
}

func TestLoadConfigRejectsNonPositiveQuota(t *testing.T) {
	sourceDir := t.TempDir()
	baseDir := t.TempDir()
	setConfigEnv(t, sourceDir, baseDir)
	t.Setenv("QUOTA_LIMIT_BYTES", "0")

	if _, err := LoadConfig(); err == nil {
		t.Error("LoadConfig() with zero quota succeeded, want error")
	}
}
