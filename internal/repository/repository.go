// Package repository wraps all SQL used by the API server and the ops CLI,
// and declares the store contracts the handlers depend on. The in-memory
// implementations live in internal/storage.
package repository

import (
	"context"
	"errors"

	"github.com/snaptaplaque/plateapi/internal/model"
)

var (
	// ErrNotFound is returned when a lookup matches nothing.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique constraint is violated.
	ErrDuplicate = errors.New("already exists")
)

// DetectionStore persists and serves detection records. Create is atomic:
// either the complete record becomes visible or nothing does. Records are
// immutable once created; there is no update path.
type DetectionStore interface {
	Create(ctx context.Context, userID int64, filename string, results model.ResultSet) (*model.DetectionRecord, error)
	ListByUser(ctx context.Context, userID int64, skip, limit int) ([]*model.DetectionRecord, error)
	CountByUser(ctx context.Context, userID int64) (int64, error)
	CountAll(ctx context.Context) (int64, error)
}

// UserStore manages accounts. Ensure is idempotent on username: invoking it
// twice with the same username never creates a second account.
type UserStore interface {
	Create(ctx context.Context, user model.User) (*model.User, error)
	Ensure(ctx context.Context, user model.User) (*model.User, bool, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	ListAll(ctx context.Context) ([]*model.User, error)
	CountAll(ctx context.Context) (int64, error)
}
