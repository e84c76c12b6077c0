// Package store is the domain store gateway: typed data access for
// inspectors, chat sessions, media, jobs, checklists, comments, and
// contracts. It carries no business policy.
package store

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("store: not found")

// Store wraps an externally managed GORM connection pool.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// Opts holds parameters for creating a Store.
type Opts struct {
	DB  *gorm.DB
	Now func() time.Time // defaults to time.Now in UTC
}

// New creates a Store. The caller owns the pool's lifecycle.
func New(opts Opts) (*Store, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("store: db is required")
	}
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Store{db: opts.DB, now: now}, nil
}

// DB exposes the underlying handle for health checks.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// notFound maps gorm.ErrRecordNotFound to ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
