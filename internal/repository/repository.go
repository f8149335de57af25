package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// PostgreSQL SQLSTATE codes the repository classifies.
const (
	UniqueViolation      pq.ErrorCode = "23505"
	SerializationFailure pq.ErrorCode = "40001"
	DeadlockDetected     pq.ErrorCode = "40P01"
	LockNotAvailable     pq.ErrorCode = "55P03"
	QueryCanceled        pq.ErrorCode = "57014"
)

var (
	// ErrNotFound is returned when a looked-up row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("record already exists")
	// ErrConflict is returned when a lock could not be acquired in time or the
	// transaction lost a serialization race. Safe to retry.
	ErrConflict = errors.New("row is locked by a concurrent transaction")
)

// Repository provides database operations
type Repository struct {
	db          *gorm.DB
	lockTimeout time.Duration
}

// NewRepository initializes a new repository
func NewRepository(db *gorm.DB, lockTimeout time.Duration) *Repository {
	return &Repository{db: db, lockTimeout: lockTimeout}
}

// WithTx runs fn inside one database transaction. Any error returned by fn, or by
// the commit, rolls back every write made through the transactional repository.
func (r *Repository) WithTx(ctx context.Context, fn func(tx *Repository) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" && r.lockTimeout > 0 {
			stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())
			if errExec := tx.Exec(stmt).Error; errExec != nil {
				return fmt.Errorf("failed to set lock timeout: %w", errExec)
			}
		}
		return fn(&Repository{db: tx, lockTimeout: r.lockTimeout})
	})
	return classify(err)
}

func (r *Repository) conn(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

// classify maps driver errors onto the repository error kinds.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrDuplicate) || errors.Is(err, ErrConflict) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case SerializationFailure, DeadlockDetected, LockNotAvailable, QueryCanceled:
			return fmt.Errorf("%w: %v", ErrConflict, err)
		case UniqueViolation:
			return fmt.Errorf("%w: %v", ErrDuplicate, err)
		}
		return err
	}

	// SQLite reports contention and constraint failures only through the message.
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "database is locked"),
		strings.Contains(msg, "database table is locked"),
		strings.Contains(msg, "sqlite_busy"),
		strings.Contains(msg, "sqlite_locked"):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	case strings.Contains(msg, "unique constraint failed"):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}
