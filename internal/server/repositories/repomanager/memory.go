package repomanager

import (
	"context"
	"database/sql"
	"sync"

	"github.com/dmitrijs2005/filevault/internal/dbx"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/files"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/users"
)

// InMemoryRepositoryManager ignores the DBTX arguments and always hands out
// the same map-backed repositories. WithTx serializes transactional blocks
// but cannot roll them back.
type InMemoryRepositoryManager struct {
	mu    sync.Mutex
	users *users.MemoryRepository
	files *files.MemoryRepository
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{
		users: users.NewMemoryRepository(),
		files: files.NewMemoryRepository(),
	}
}

func (m *InMemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}

func (m *InMemoryRepositoryManager) Users(dbx.DBTX) users.Repository {
	return m.users
}

func (m *InMemoryRepositoryManager) Files(dbx.DBTX) files.Repository {
	return m.files
}

func (m *InMemoryRepositoryManager) WithTx(ctx context.Context, _ *sql.DB, fn dbx.TxFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx, nil)
}
