// Package thumbnails derives resized variants of uploaded images in the
// background. Pool delivers tasks to consumers, Processor handles one task.
package thumbnails

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/blobs"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var (
	ErrMissingField = errors.New("missing field")
	ErrFileNotFound = errors.New("file not found")
)

// Widths are the thumbnail widths generated for every image.
var Widths = []int{500, 250, 100}

// VariantKey is the blob key of the thumbnail of width for an original
// stored under key.
func VariantKey(key string, width int) string {
	return key + "_" + strconv.Itoa(width)
}

// ParseWidth accepts "500", "250" and "100".
func ParseWidth(size string) (int, bool) {
	w, err := strconv.Atoi(size)
	if err != nil || !slices.Contains(Widths, w) {
		return 0, false
	}
	return w, true
}

type Processor struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       blobs.Store
	logger      logging.Logger
}

func NewProcessor(db *sql.DB, rm repomanager.RepositoryManager, store blobs.Store, logger logging.Logger) *Processor {
	return &Processor{
		db:          db,
		repomanager: rm,
		store:       store,
		logger:      logger.With("module", "thumbnails"),
	}
}

// Process writes every width variant of the task's image, overwriting earlier
// ones. The task fails unless all variants were written.
func (p *Processor) Process(ctx context.Context, task models.ThumbnailTask) error {
	if task.FileID == "" {
		return fmt.Errorf("%w: fileId", ErrMissingField)
	}
	if task.UserID == "" {
		return fmt.Errorf("%w: userId", ErrMissingField)
	}

	file, err := p.resolve(ctx, task)
	if err != nil {
		return err
	}

	original, err := p.store.Get(ctx, file.StorageKey)
	if err != nil {
		return fmt.Errorf("read original %s: %w", file.ID, err)
	}

	src, format, err := decodeImage(original)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, width := range Widths {
		g.Go(func() error {
			data, err := resize(src, format, width)
			if err != nil {
				return fmt.Errorf("width %d: %w", width, err)
			}
			return p.store.Put(gctx, VariantKey(file.StorageKey, width), data)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	p.logger.Debug(ctx, "thumbnails generated", "file_id", file.ID, "format", format)
	return nil
}

func (p *Processor) resolve(ctx context.Context, task models.ThumbnailTask) (*models.File, error) {
	if _, err := uuid.Parse(task.FileID); err != nil {
		return nil, ErrFileNotFound
	}

	file, err := p.repomanager.Files(p.db).GetByIDAndOwner(ctx, task.FileID, task.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}
	if file.StorageKey == "" {
		return nil, ErrFileNotFound
	}
	return file, nil
}
