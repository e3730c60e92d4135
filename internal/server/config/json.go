package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/filevault/internal/flagx"
	"github.com/dmitrijs2005/filevault/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations accept
// strings such as "24h" or integer nanoseconds. Absent fields keep their
// previous value.
type JsonConfig struct {
	EndpointAddrHTTP     string         `json:"endpoint_addr_http"`
	DatabaseDSN          string         `json:"database_dsn"`
	FolderPath           string         `json:"folder_path"`
	SessionTTL           timex.Duration `json:"session_ttl"`
	CacheDir             string         `json:"cache_dir"`
	BlobBackend          string         `json:"blob_backend"`
	S3RootUser           string         `json:"s3_root_user"`
	S3RootPassword       string         `json:"s3_root_password"`
	S3Bucket             string         `json:"s3_bucket"`
	S3Region             string         `json:"s3_region"`
	S3BaseEndpoint       string         `json:"s3_base_endpoint"`
	S3Prefix             string         `json:"s3_prefix"`
	ThumbnailWorkers     int            `json:"thumbnail_workers"`
	ThumbnailQueueSize   int            `json:"thumbnail_queue_size"`
	ThumbnailMaxAttempts int            `json:"thumbnail_max_attempts"`
	ThumbnailRetryDelay  timex.Duration `json:"thumbnail_retry_delay"`
	ShutdownTimeout      timex.Duration `json:"shutdown_timeout"`
	LogLevel             string         `json:"log_level"`
}

// parseJson overlays the file named by -c / -config, if any.
func parseJson(config *Config) error {
	jsonConfigFile := flagx.ConfigFilePath()
	if jsonConfigFile == "" {
		return nil
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", jsonConfigFile, err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.FolderPath, c.FolderPath)
	setDuration(&config.SessionTTL, c.SessionTTL)
	setString(&config.CacheDir, c.CacheDir)
	setString(&config.BlobBackend, c.BlobBackend)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3Prefix, c.S3Prefix)
	setInt(&config.ThumbnailWorkers, c.ThumbnailWorkers)
	setInt(&config.ThumbnailQueueSize, c.ThumbnailQueueSize)
	setInt(&config.ThumbnailMaxAttempts, c.ThumbnailMaxAttempts)
	setDuration(&config.ThumbnailRetryDelay, c.ThumbnailRetryDelay)
	setDuration(&config.ShutdownTimeout, c.ShutdownTimeout)
	setString(&config.LogLevel, c.LogLevel)
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
