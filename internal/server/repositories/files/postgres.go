package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/dbx"
	"github.com/dmitrijs2005/filevault/internal/server/models"
)

const selectColumns = `SELECT id, user_id, name, type, parent_id, is_public, storage_key, created_at FROM files`

// PostgresRepository implements file storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts the record; the database assigns id and created_at.
func (r *PostgresRepository) Create(ctx context.Context, file *models.File) (*models.File, error) {
	query := `
		INSERT INTO files (user_id, name, type, parent_id, is_public, storage_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		file.UserID, file.Name, string(file.Type), file.ParentID, file.IsPublic, file.StorageKey).
		Scan(&file.ID, &file.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return file, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.File, error) {
	return r.getOne(ctx, selectColumns+` WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByIDAndOwner(ctx context.Context, id, userID string) (*models.File, error) {
	return r.getOne(ctx, selectColumns+` WHERE id = $1 AND user_id = $2`, id, userID)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.File, error) {
	f, err := scanFile(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}

// List builds the WHERE clause from q and returns a fully read snapshot.
func (r *PostgresRepository) List(ctx context.Context, q ListQuery) ([]*models.File, error) {
	var sb strings.Builder
	sb.WriteString(selectColumns)
	sb.WriteString(` WHERE user_id = $1`)
	args := []any{q.UserID}

	if q.ParentID != nil {
		args = append(args, *q.ParentID)
		fmt.Fprintf(&sb, ` AND parent_id = $%d`, len(args))
	}
	sb.WriteString(` ORDER BY created_at, id`)
	if q.Limit > 0 {
		args = append(args, q.Limit, q.Offset)
		fmt.Fprintf(&sb, ` LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	}

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	result := make([]*models.File, 0)
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// SetPublic updates is_public of one owned record; exactly one row must match.
func (r *PostgresRepository) SetPublic(ctx context.Context, id, userID string, isPublic bool) error {
	query := `UPDATE files SET is_public = $1 WHERE id = $2 AND user_id = $3`
	res, err := r.db.ExecContext(ctx, query, isPublic, id, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM files`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFile(s scanner) (*models.File, error) {
	var (
		f    models.File
		kind string
	)
	if err := s.Scan(&f.ID, &f.UserID, &f.Name, &kind, &f.ParentID, &f.IsPublic, &f.StorageKey, &f.CreatedAt); err != nil {
		return nil, err
	}
	f.Type = models.FileType(kind)
	return &f, nil
}
