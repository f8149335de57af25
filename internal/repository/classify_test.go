package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"lock not available", &pq.Error{Code: LockNotAvailable}, ErrConflict},
		{"serialization failure", &pq.Error{Code: SerializationFailure}, ErrConflict},
		{"deadlock", &pq.Error{Code: DeadlockDetected}, ErrConflict},
		{"statement timeout", &pq.Error{Code: QueryCanceled}, ErrConflict},
		{"unique violation", &pq.Error{Code: UniqueViolation}, ErrDuplicate},
		{"wrapped pq error", fmt.Errorf("commit: %w", &pq.Error{Code: LockNotAvailable}), ErrConflict},
		{"sqlite busy", fmt.Errorf("exec: %w", errors.New("database is locked (5) (SQLITE_BUSY)")), ErrConflict},
		{"sqlite table locked", errors.New("database table is locked: accounts"), ErrConflict},
		{"sqlite unique", errors.New("constraint failed: UNIQUE constraint failed: users.username (2067)"), ErrDuplicate},
		{"record not found", gorm.ErrRecordNotFound, ErrNotFound},
		{"already classified", fmt.Errorf("lock: %w", ErrConflict), ErrConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(tt.err); !errors.Is(got, tt.want) {
				t.Fatalf("classify(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}

	if classify(nil) != nil {
		t.Fatalf("classify(nil) should be nil")
	}
	other := &pq.Error{Code: "22001"}
	if got := classify(other); errors.Is(got, ErrConflict) || errors.Is(got, ErrDuplicate) || errors.Is(got, ErrNotFound) {
		t.Fatalf("unrelated pq error classified as %v", got)
	}
}
