package services

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// fakeCache is a map-backed cache.Cache with error injection.
type fakeCache struct {
	mu      sync.Mutex
	data    map[string]string
	getErr  error
	setErr  error
	pingErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string]string{}}
}

func (c *fakeCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if c.setErr != nil {
		return c.setErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *fakeCache) Get(ctx context.Context, key string) (string, error) {
	if c.getErr != nil {
		return "", c.getErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return "", common.ErrorNotFound
	}
	return v, nil
}

func (c *fakeCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *fakeCache) Ping(context.Context) error { return c.pingErr }
func (c *fakeCache) Close() error               { return nil }

// expire drops every session, as the TTL would.
func (c *fakeCache) expire() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.data)
}

type fakeQueue struct {
	mu    sync.Mutex
	tasks []models.ThumbnailTask
	err   error
}

func (q *fakeQueue) Enqueue(ctx context.Context, task models.ThumbnailTask) error {
	if q.err != nil {
		return q.err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, task)
	return nil
}

type fakeSessions map[string]string

func (f fakeSessions) ResolveSession(ctx context.Context, token string) (string, error) {
	if id, ok := f[token]; ok {
		return id, nil
	}
	return "", common.ErrorUnauthorized
}

var errBoom = errors.New("boom")

const sessionTTLForTests = time.Hour

func countDir(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return 0
	}
	require.NoError(t, err)
	return len(entries)
}

// newTestUserService lowers the bcrypt cost to keep tests fast.
func newTestUserService(s *UserService) *UserService {
	s.bcryptCost = bcrypt.MinCost
	return s
}
