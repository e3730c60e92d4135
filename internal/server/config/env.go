package config

import (
	"fmt"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// envBindings maps config keys to the environment variables that set them.
var envBindings = map[string]string{
	"port":                   "PORT",
	"endpoint_addr_http":     "ADDRESS",
	"database_dsn":           "DATABASE_DSN",
	"folder_path":            "FOLDER_PATH",
	"session_ttl":            "SESSION_TTL",
	"cache_dir":              "CACHE_DIR",
	"blob_backend":           "BLOB_BACKEND",
	"s3_root_user":           "S3_ROOT_USER",
	"s3_root_password":       "S3_ROOT_PASSWORD",
	"s3_bucket":              "S3_BUCKET",
	"s3_region":              "S3_REGION",
	"s3_base_endpoint":       "S3_BASE_ENDPOINT",
	"s3_prefix":              "S3_PREFIX",
	"thumbnail_workers":      "THUMBNAIL_WORKERS",
	"thumbnail_queue_size":   "THUMBNAIL_QUEUE_SIZE",
	"thumbnail_max_attempts": "THUMBNAIL_MAX_ATTEMPTS",
	"thumbnail_retry_delay":  "THUMBNAIL_RETRY_DELAY",
	"shutdown_timeout":       "SHUTDOWN_TIMEOUT",
	"log_level":              "LOG_LEVEL",
}

// parseEnv overlays values from environment variables. Empty variables are
// ignored. Durations need a unit ("24h"); a bare number is nanoseconds. PORT is a shorthand for ADDRESS=":<port>"; ADDRESS wins when both
// are set.
func parseEnv(config *Config) error {
	v := viper.New()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	if v.IsSet("port") {
		config.EndpointAddrHTTP = ":" + v.GetString("port")
	}

	stringKeys := map[string]*string{
		"endpoint_addr_http": &config.EndpointAddrHTTP,
		"database_dsn":       &config.DatabaseDSN,
		"folder_path":        &config.FolderPath,
		"cache_dir":          &config.CacheDir,
		"blob_backend":       &config.BlobBackend,
		"s3_root_user":       &config.S3RootUser,
		"s3_root_password":   &config.S3RootPassword,
		"s3_bucket":          &config.S3Bucket,
		"s3_region":          &config.S3Region,
		"s3_base_endpoint":   &config.S3BaseEndpoint,
		"s3_prefix":          &config.S3Prefix,
		"log_level":          &config.LogLevel,
	}
	for key, dst := range stringKeys {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}

	intKeys := map[string]*int{
		"thumbnail_workers":      &config.ThumbnailWorkers,
		"thumbnail_queue_size":   &config.ThumbnailQueueSize,
		"thumbnail_max_attempts": &config.ThumbnailMaxAttempts,
	}
	for key, dst := range intKeys {
		if v.IsSet(key) {
			n, err := cast.ToIntE(v.Get(key))
			if err != nil {
				return fmt.Errorf("%s: %w", envBindings[key], err)
			}
			*dst = n
		}
	}

	durationKeys := map[string]*time.Duration{
		"session_ttl":           &config.SessionTTL,
		"thumbnail_retry_delay": &config.ThumbnailRetryDelay,
		"shutdown_timeout":      &config.ShutdownTimeout,
	}
	for key, dst := range durationKeys {
		if v.IsSet(key) {
			d, err := cast.ToDurationE(v.Get(key))
			if err != nil {
				return fmt.Errorf("%s: %w", envBindings[key], err)
			}
			*dst = d
		}
	}

	return nil
}
