// Package services contains server-side business logic: sessions, user
// accounts, the file hierarchy and application status.
package services

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/cache"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

const (
	sessionKeyPrefix = "auth_"
	sessionTokenSize = 32
)

// SessionService issues, resolves and revokes opaque session tokens. The
// cache enforces expiry.
type SessionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	cache       cache.Cache
	ttl         time.Duration
	logger      logging.Logger
}

func NewSessionService(db *sql.DB, m repomanager.RepositoryManager, c cache.Cache, ttl time.Duration, logger logging.Logger) *SessionService {
	return &SessionService{
		db:          db,
		repomanager: m,
		cache:       c,
		ttl:         ttl,
		logger:      logger.With("module", "sessions"),
	}
}

// Login checks base64("email:password") credentials and returns a new token.
// Every credential problem yields common.ErrorUnauthorized.
func (s *SessionService) Login(ctx context.Context, encodedCredentials string) (string, error) {
	email, password, ok := decodeBasicCredentials(encodedCredentials)
	if !ok {
		return "", common.ErrorUnauthorized
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// Spend the same time as for a wrong password.
			_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
			return "", common.ErrorUnauthorized
		}
		s.logger.Error(ctx, "user lookup failed", "error", err)
		return "", common.ErrorInternal
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", common.ErrorUnauthorized
	}

	token, err := common.MakeRandHexString(sessionTokenSize)
	if err != nil {
		return "", common.ErrorInternal
	}

	if err := s.cache.Set(ctx, sessionKey(token), user.ID, s.ttl); err != nil {
		s.logger.Error(ctx, "session store failed", "error", err)
		return "", common.ErrorInternal
	}
	return token, nil
}

// Logout revokes token. A token that does not resolve is rejected.
func (s *SessionService) Logout(ctx context.Context, token string) error {
	if _, err := s.ResolveSession(ctx, token); err != nil {
		return err
	}
	if err := s.cache.Delete(ctx, sessionKey(token)); err != nil {
		s.logger.Error(ctx, "session delete failed", "error", err)
		return common.ErrorInternal
	}
	return nil
}

// ResolveSession returns the user id bound to token.
func (s *SessionService) ResolveSession(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", common.ErrorUnauthorized
	}

	userID, err := s.cache.Get(ctx, sessionKey(token))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorUnauthorized
		}
		s.logger.Error(ctx, "session lookup failed", "error", err)
		return "", common.ErrorInternal
	}
	if userID == "" {
		return "", common.ErrorUnauthorized
	}
	return userID, nil
}

func sessionKey(token string) string {
	return sessionKeyPrefix + token
}

// decodeBasicCredentials splits base64("email:password") at the first colon.
func decodeBasicCredentials(encoded string) (email, password string, ok bool) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return "", "", false
	}
	email, password, ok = strings.Cut(string(raw), ":")
	if !ok || email == "" || password == "" {
		return "", "", false
	}
	return email, password, true
}

var dummyHash = sync.OnceValue(func() []byte {
	h, _ := bcrypt.GenerateFromPassword([]byte("filevault-dummy-password"), bcrypt.DefaultCost)
	return h
})
