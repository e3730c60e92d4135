// Package files declares the file-record repository contract and its
// PostgreSQL and in-memory implementations.
package files

import (
	"context"

	"github.com/dmitrijs2005/filevault/internal/server/models"
)

// ListQuery selects the records of one owner. A nil ParentID lists every
// record of the owner. Limit <= 0 disables paging.
type ListQuery struct {
	UserID   string
	ParentID *string
	Limit    int
	Offset   int
}

type Repository interface {
	// Create inserts file and fills in the generated ID.
	Create(ctx context.Context, file *models.File) (*models.File, error)
	// GetByID returns common.ErrorNotFound when the record does not exist.
	GetByID(ctx context.Context, id string) (*models.File, error)
	// GetByIDAndOwner returns common.ErrorNotFound when the record does not
	// exist or belongs to someone else.
	GetByIDAndOwner(ctx context.Context, id, userID string) (*models.File, error)
	// List returns the records matching q ordered by creation time.
	List(ctx context.Context, q ListQuery) ([]*models.File, error)
	// SetPublic changes the visibility flag. It returns common.ErrorNotFound
	// when no record of userID has that id.
	SetPublic(ctx context.Context, id, userID string, isPublic bool) error
	Count(ctx context.Context) (int64, error)
}
