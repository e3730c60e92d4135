package config

import (
	"flag"
	"fmt"
	"os"

	"github.com/dmitrijs2005/filevault/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string     HTTP bind address (e.g., ":5000")
//	-d string     PostgreSQL DSN
//	-f string     blob root directory
//	-t duration   session lifetime (e.g., "24h")
//	-k string     session cache directory ("" keeps sessions in memory)
//	-s string     blob backend: fs or s3
//	-u string     S3 root user
//	-p string     S3 root password
//	-b string     S3 bucket name
//	-g string     S3 region
//	-e string     S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-w int        thumbnail workers
//	-q int        thumbnail queue size
//	-m int        thumbnail attempts per task
//	-l string     log level
//
// Only the flags listed above are taken from os.Args, so -c / -config and
// flags of other components do not collide.
func parseFlags(config *Config) error {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-d", "-f", "-t", "-k", "-s", "-u", "-p", "-b", "-g", "-e", "-w", "-q", "-m", "-l",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.FolderPath, "f", config.FolderPath, "blob root directory")
	fs.DurationVar(&config.SessionTTL, "t", config.SessionTTL, "session lifetime")
	fs.StringVar(&config.CacheDir, "k", config.CacheDir, "session cache directory")
	fs.StringVar(&config.BlobBackend, "s", config.BlobBackend, "blob backend (fs|s3)")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	fs.IntVar(&config.ThumbnailWorkers, "w", config.ThumbnailWorkers, "thumbnail workers")
	fs.IntVar(&config.ThumbnailQueueSize, "q", config.ThumbnailQueueSize, "thumbnail queue size")
	fs.IntVar(&config.ThumbnailMaxAttempts, "m", config.ThumbnailMaxAttempts, "thumbnail attempts per task")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	return nil
}
