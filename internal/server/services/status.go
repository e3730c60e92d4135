package services

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/filevault/internal/server/cache"
)

// Counter reports how many records of some kind exist.
type Counter interface {
	Count(ctx context.Context) (int64, error)
}

// Status is the health of the backing stores.
type Status struct {
	DB    bool `json:"db"`
	Cache bool `json:"cache"`
}

// Stats are record totals.
type Stats struct {
	Users int64 `json:"users"`
	Files int64 `json:"files"`
}

type AppService struct {
	db    *sql.DB
	cache cache.Cache
	users Counter
	files Counter
}

func NewAppService(db *sql.DB, c cache.Cache, users, files Counter) *AppService {
	return &AppService{db: db, cache: c, users: users, files: files}
}

// Status pings the database and the session cache. A nil database counts as
// down.
func (s *AppService) Status(ctx context.Context) Status {
	st := Status{Cache: s.cache.Ping(ctx) == nil}
	if s.db != nil {
		st.DB = s.db.PingContext(ctx) == nil
	}
	return st
}

func (s *AppService) Stats(ctx context.Context) (Stats, error) {
	users, err := s.users.Count(ctx)
	if err != nil {
		return Stats{}, err
	}
	files, err := s.files.Count(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{Users: users, Files: files}, nil
}
