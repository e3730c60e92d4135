package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := writeTempJSON(t, map[string]any{
		"endpoint_addr_http":     "127.0.0.1:8080",
		"database_dsn":           "postgres://x",
		"folder_path":            "/srv/files",
		"session_ttl":            "2h",
		"cache_dir":              "/var/cache/filevault",
		"blob_backend":           "s3",
		"s3_bucket":              "bucket",
		"s3_prefix":              "files",
		"thumbnail_queue_size":   50,
		"thumbnail_max_attempts": 5,
		"thumbnail_retry_delay":  int64(250 * time.Millisecond),
		"shutdown_timeout":       "30s",
		"log_level":              "debug",
	})

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", path}

		cfg := &Config{}
		cfg.LoadDefaults()
		require.NoError(t, parseJson(cfg))

		assert.Equal(t, "127.0.0.1:8080", cfg.EndpointAddrHTTP)
		assert.Equal(t, "postgres://x", cfg.DatabaseDSN)
		assert.Equal(t, "/srv/files", cfg.FolderPath)
		assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
		assert.Equal(t, "/var/cache/filevault", cfg.CacheDir)
		assert.Equal(t, BlobBackendS3, cfg.BlobBackend)
		assert.Equal(t, "bucket", cfg.S3Bucket)
		assert.Equal(t, "files", cfg.S3Prefix)
		assert.Equal(t, 50, cfg.ThumbnailQueueSize)
		assert.Equal(t, 5, cfg.ThumbnailMaxAttempts)
		assert.Equal(t, 250*time.Millisecond, cfg.ThumbnailRetryDelay)
		assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
		assert.Equal(t, "debug", cfg.LogLevel)

		// Absent keys keep defaults.
		assert.Equal(t, 2, cfg.ThumbnailWorkers)
		assert.Equal(t, "us-east-1", cfg.S3Region)
	})

	t.Run("no file", func(t *testing.T) {
		os.Args = []string{"testbin"}
		cfg := &Config{}
		require.NoError(t, parseJson(cfg))
		assert.Equal(t, Config{}, *cfg)
	})

	t.Run("missing file", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", filepath.Join(t.TempDir(), "nope.json")}
		assert.Error(t, parseJson(&Config{}))
	})

	t.Run("broken json", func(t *testing.T) {
		broken := filepath.Join(t.TempDir(), "broken.json")
		require.NoError(t, os.WriteFile(broken, []byte("{"), 0o600))
		os.Args = []string{"testbin", "-c", broken}
		assert.Error(t, parseJson(&Config{}))
	})
}
