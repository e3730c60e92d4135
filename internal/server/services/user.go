package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/dbx"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

// UserService registers accounts and looks them up.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	bcryptCost  int
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		bcryptCost:  bcrypt.DefaultCost,
	}
}

// Register creates a user with a bcrypt hash of password. The existence
// check and the insert share one transaction.
func (s *UserService) Register(ctx context.Context, email, password string) (*models.User, error) {
	if email == "" {
		return nil, common.NewValidationError("Missing email")
	}
	if password == "" {
		return nil, common.NewValidationError("Missing password")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, common.NewValidationError("Password too long")
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var created *models.User
	err = s.repomanager.WithTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		_, err := repo.GetByEmail(ctx, email)
		if err == nil {
			return common.NewValidationError("Already exists")
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return err
		}

		created, err = repo.Create(ctx, &models.User{Email: email, PasswordHash: string(hash)})
		if errors.Is(err, common.ErrorAlreadyExists) {
			return common.NewValidationError("Already exists")
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Me returns the user behind an authenticated request. A user that vanished
// since login is treated as unauthenticated.
func (s *UserService) Me(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) Count(ctx context.Context) (int64, error) {
	return s.repomanager.Users(s.db).Count(ctx)
}
