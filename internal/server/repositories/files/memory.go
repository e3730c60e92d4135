package files

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps records in a map. It is safe for concurrent use.
type MemoryRepository struct {
	mu    sync.RWMutex
	files map[string]models.File
	seq   int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{files: make(map[string]models.File)}
}

func (r *MemoryRepository) Create(ctx context.Context, file *models.File) (*models.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	file.ID = uuid.NewString()
	// seq keeps creation order stable when the clock does not advance.
	file.CreatedAt = time.Now().Add(time.Duration(r.seq))
	r.files[file.ID] = *file
	return file, nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*models.File, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.files[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &f, nil
}

func (r *MemoryRepository) GetByIDAndOwner(ctx context.Context, id, userID string) (*models.File, error) {
	f, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if f.UserID != userID {
		return nil, common.ErrorNotFound
	}
	return f, nil
}

func (r *MemoryRepository) List(ctx context.Context, q ListQuery) ([]*models.File, error) {
	r.mu.RLock()
	result := make([]*models.File, 0)
	for _, f := range r.files {
		if f.UserID != q.UserID {
			continue
		}
		if q.ParentID != nil && f.ParentID != *q.ParentID {
			continue
		}
		f := f
		result = append(result, &f)
	}
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	if q.Limit > 0 {
		if q.Offset >= len(result) {
			return []*models.File{}, nil
		}
		end := min(q.Offset+q.Limit, len(result))
		result = result[q.Offset:end]
	}
	return result, nil
}

func (r *MemoryRepository) SetPublic(ctx context.Context, id, userID string, isPublic bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.files[id]
	if !ok || f.UserID != userID {
		return common.ErrorNotFound
	}
	f.IsPublic = isPublic
	r.files[id] = f
	return nil
}

func (r *MemoryRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.files)), nil
}
