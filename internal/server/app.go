// Package server wires the filevault components together and runs them:
// PostgreSQL records, the badger session cache, blob storage, the thumbnail
// pool and the HTTP API.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/filevault/internal/filex"
	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/blobs"
	"github.com/dmitrijs2005/filevault/internal/server/cache"
	"github.com/dmitrijs2005/filevault/internal/server/config"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/filevault/internal/server/rest"
	"github.com/dmitrijs2005/filevault/internal/server/services"
	"github.com/dmitrijs2005/filevault/internal/server/thumbnails"
)

const cacheGCInterval = 5 * time.Minute

var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	cache  *cache.BadgerCache
	pool   *thumbnails.Pool
	server *rest.HTTPServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)
	return newApp(ctx, c, logger)
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	store, err := newBlobStore(ctx, c)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("blob store init error: %w", err)
	}

	sessionCache, err := cache.NewBadgerCache(c.CacheDir, logger.With("module", "cache"))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cache init error: %w", err)
	}

	processor := thumbnails.NewProcessor(db, rm, store, logger)
	pool := thumbnails.NewPool(thumbnails.PoolConfig{
		Workers:     c.ThumbnailWorkers,
		QueueSize:   c.ThumbnailQueueSize,
		MaxAttempts: c.ThumbnailMaxAttempts,
		RetryDelay:  c.ThumbnailRetryDelay,
	}, processor, logger)

	sessions := services.NewSessionService(db, rm, sessionCache, c.SessionTTL, logger)
	users := services.NewUserService(db, rm)
	files := services.NewFileService(db, rm, store, pool, sessions, logger)
	status := services.NewAppService(db, sessionCache, users, files)

	srv := rest.NewHTTPServer(c.EndpointAddrHTTP, c.ShutdownTimeout, logger, sessions, users, files, status)

	return &App{
		config: c,
		logger: logger,
		db:     db,
		cache:  sessionCache,
		pool:   pool,
		server: srv,
	}, nil
}

func newBlobStore(ctx context.Context, c *config.Config) (blobs.Store, error) {
	switch c.BlobBackend {
	case config.BlobBackendS3:
		return blobs.NewS3Store(ctx, blobs.S3Options{
			Region:       c.S3Region,
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			BaseEndpoint: c.S3BaseEndpoint,
			Bucket:       c.S3Bucket,
			Prefix:       c.S3Prefix,
		})
	case config.BlobBackendFS, "":
		if err := filex.EnsureDir(c.FolderPath); err != nil {
			return nil, err
		}
		return blobs.NewFSStore(c.FolderPath), nil
	default:
		return nil, fmt.Errorf("unknown blob backend %q", c.BlobBackend)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until a signal arrives or the HTTP server fails, then drains
// the thumbnail queue and releases the stores.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	// Queued thumbnails get to finish after the HTTP server stops.
	app.pool.Start(context.WithoutCancel(ctx))

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.cache.RunGC(ctx, cacheGCInterval)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.server.Run(ctx); err != nil {
			app.logger.Error(ctx, "HTTP server failed", "error", err)
			cancelFunc()
		}
	}()

	wg.Wait()
	app.shutdown()
}

func (app *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
	defer cancel()

	if err := app.pool.Shutdown(ctx); err != nil {
		app.logger.Warn(ctx, "thumbnail queue not drained", "error", err)
	}
	st := app.pool.Stats()
	app.logger.Info(ctx, "thumbnail pool stopped",
		"enqueued", st.Enqueued, "succeeded", st.Succeeded, "failed", st.Failed, "retried", st.Retried)

	if err := app.cache.Close(); err != nil {
		app.logger.Error(ctx, "cache close failed", "error", err)
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close failed", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
