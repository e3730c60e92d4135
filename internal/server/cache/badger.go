package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/logging"
)

var errClosed = errors.New("cache is closed")

// BadgerCache stores entries in badger and relies on badger's TTL support
// for expiry, so no sweeper is needed.
type BadgerCache struct {
	db       *badger.DB
	inMemory bool
	logger   logging.Logger
}

// NewBadgerCache opens a cache in dir, or a purely in-memory one when dir is
// empty.
func NewBadgerCache(dir string, logger logging.Logger) (*BadgerCache, error) {
	opts := badger.DefaultOptions(dir).WithLogger(badgerLogger{l: logger})
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger open error: %w", err)
	}

	return &BadgerCache{db: db, inMemory: dir == "", logger: logger}, nil
}

func (c *BadgerCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	err := c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), []byte(value))
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		return fmt.Errorf("cache set error: %w", err)
	}
	return nil
}

func (c *BadgerCache) Get(ctx context.Context, key string) (string, error) {
	var value []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("cache get error: %w", err)
	}
	return string(value), nil
}

func (c *BadgerCache) Delete(ctx context.Context, key string) error {
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("cache delete error: %w", err)
	}
	return nil
}

func (c *BadgerCache) Ping(ctx context.Context) error {
	if c.db.IsClosed() {
		return errClosed
	}
	return nil
}

func (c *BadgerCache) Close() error {
	return c.db.Close()
}

// RunGC reclaims value-log space of expired sessions every interval until
// ctx is done. It is a no-op for in-memory caches.
func (c *BadgerCache) RunGC(ctx context.Context, interval time.Duration) {
	if c.inMemory {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for {
				// one call rewrites at most one file; repeat until nothing is left
				if err := c.db.RunValueLogGC(0.5); err != nil {
					if !errors.Is(err, badger.ErrNoRewrite) {
						c.logger.Warn(ctx, "cache gc failed", "error", err)
					}
					break
				}
			}
		}
	}
}

// badgerLogger routes badger's own log lines into our logger.
type badgerLogger struct {
	l logging.Logger
}

func (b badgerLogger) Errorf(format string, args ...any) {
	b.l.Error(context.Background(), fmt.Sprintf(format, args...))
}

func (b badgerLogger) Warningf(format string, args ...any) {
	b.l.Warn(context.Background(), fmt.Sprintf(format, args...))
}

func (b badgerLogger) Infof(format string, args ...any) {
	b.l.Debug(context.Background(), fmt.Sprintf(format, args...))
}

func (b badgerLogger) Debugf(format string, args ...any) {
	b.l.Debug(context.Background(), fmt.Sprintf(format, args...))
}
