package services

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/dbx"
	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/blobs"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/files"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/repomanager"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// PageSize is the number of records per page of List.
const PageSize = 20

// Enqueuer hands thumbnail work to the background pipeline.
type Enqueuer interface {
	Enqueue(ctx context.Context, task models.ThumbnailTask) error
}

// SessionResolver maps a session token to a user id.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (string, error)
}

// CreateFileRequest is an upload. Fields are validated in declaration order
// and the first failure is reported.
type CreateFileRequest struct {
	Name     string `validate:"required"`
	Type     string `validate:"required,oneof=folder file image"`
	ParentID string
	IsPublic bool
	// Data is the base64 encoded content. Folders have none.
	Data string `validate:"required_unless=Type folder"`
}

var createMessages = map[string]string{
	"Name": "Missing name",
	"Type": "Missing type",
	"Data": "Missing data",
}

var validate = validator.New()

func validateCreate(req *CreateFileRequest) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		if msg, ok := createMessages[verrs[0].Field()]; ok {
			return common.NewValidationError(msg)
		}
	}
	return fmt.Errorf("validate upload: %w", err)
}

// ListFilter narrows List. A nil ParentID lists every record of the user; a
// nil Page returns everything.
type ListFilter struct {
	ParentID *string
	Page     *int
}

// FileService manages folder, file and image records and their blobs.
type FileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       blobs.Store
	queue       Enqueuer
	sessions    SessionResolver
	logger      logging.Logger
}

func NewFileService(db *sql.DB, m repomanager.RepositoryManager, store blobs.Store, queue Enqueuer,
	sessions SessionResolver, logger logging.Logger) *FileService {
	return &FileService{
		db:          db,
		repomanager: m,
		store:       store,
		queue:       queue,
		sessions:    sessions,
		logger:      logger.With("module", "files"),
	}
}

// Create validates req, writes the blob for non-folders and then inserts the
// record. Images are queued for thumbnail generation; a queueing failure is
// logged and does not fail the upload.
func (s *FileService) Create(ctx context.Context, userID string, req *CreateFileRequest) (*models.File, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	parentID := req.ParentID
	if parentID == "" {
		parentID = common.RootParentID
	}

	repo := s.repomanager.Files(s.db)

	if parentID != common.RootParentID {
		parent, err := s.findOwned(ctx, repo, parentID, userID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return nil, common.NewValidationError("Parent not found")
			}
			return nil, err
		}
		if !parent.IsFolder() {
			return nil, common.NewValidationError("Parent is not a folder")
		}
	}

	file := &models.File{
		UserID:   userID,
		Name:     req.Name,
		Type:     models.FileType(req.Type),
		ParentID: parentID,
		IsPublic: req.IsPublic,
	}

	if file.IsFolder() {
		return repo.Create(ctx, file)
	}

	data, err := decodePayload(req.Data)
	if err != nil {
		return nil, common.NewValidationError("Invalid data")
	}

	file.StorageKey = uuid.NewString()
	if err := s.store.Put(ctx, file.StorageKey, data); err != nil {
		s.logger.Error(ctx, "blob write failed", "error", err)
		return nil, common.ErrorStorageWrite
	}

	created, err := repo.Create(ctx, file)
	if err != nil {
		if delErr := s.store.Delete(ctx, file.StorageKey); delErr != nil {
			s.logger.Warn(ctx, "orphan blob left behind", "key", file.StorageKey, "error", delErr)
		}
		return nil, err
	}

	if created.Type == models.FileTypeImage {
		task := models.ThumbnailTask{FileID: created.ID, UserID: userID}
		if err := s.queue.Enqueue(ctx, task); err != nil {
			s.logger.Warn(ctx, "thumbnail task not queued", "file_id", created.ID, "error", err)
		}
	}
	return created, nil
}

// Get returns a record owned by userID.
func (s *FileService) Get(ctx context.Context, userID, fileID string) (*models.File, error) {
	file, err := s.find(ctx, s.repomanager.Files(s.db), fileID)
	if err != nil {
		return nil, err
	}
	if err := authorize(file, userID, false); err != nil {
		return nil, err
	}
	return file, nil
}

// List returns a snapshot of the user's records in creation order.
func (s *FileService) List(ctx context.Context, userID string, filter ListFilter) ([]*models.File, error) {
	q := files.ListQuery{UserID: userID, ParentID: filter.ParentID}
	if filter.Page != nil {
		page := max(*filter.Page, 0)
		q.Limit = PageSize
		q.Offset = page * PageSize
	}
	return s.repomanager.Files(s.db).List(ctx, q)
}

// SetVisibility changes the public flag of a record owned by userID and
// returns the updated record.
func (s *FileService) SetVisibility(ctx context.Context, userID, fileID string, isPublic bool) (*models.File, error) {
	var updated *models.File
	err := s.repomanager.WithTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Files(tx)

		file, err := s.find(ctx, repo, fileID)
		if err != nil {
			return err
		}
		if err := authorize(file, userID, false); err != nil {
			return err
		}
		if err := repo.SetPublic(ctx, file.ID, userID, isPublic); err != nil {
			return err
		}
		updated, err = repo.GetByID(ctx, file.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *FileService) Count(ctx context.Context) (int64, error) {
	return s.repomanager.Files(s.db).Count(ctx)
}

// find treats ids that cannot exist as absent.
func (s *FileService) find(ctx context.Context, repo files.Repository, id string) (*models.File, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}
	return repo.GetByID(ctx, id)
}

func (s *FileService) findOwned(ctx context.Context, repo files.Repository, id, userID string) (*models.File, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}
	return repo.GetByIDAndOwner(ctx, id, userID)
}

// decodePayload accepts padded and unpadded standard base64.
func decodePayload(data string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(data)
	if err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(data)
}
