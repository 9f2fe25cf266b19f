// Package storage contains the in-memory persistence layer used by the test
// suite and when PLATE_DATABASE_URL is set to "memory". It mirrors the SQL
// stores' contracts: atomic appends, newest-first stable pagination, exact
// counts.
package storage

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/snaptaplaque/plateapi/internal/model"
	"github.com/snaptaplaque/plateapi/internal/repository"
)

// The memory stores report the same sentinels as the SQL stores so callers
// branch on one error set regardless of backend.
var (
	ErrNotFound  = repository.ErrNotFound
	ErrDuplicate = repository.ErrDuplicate
)

// MemoryDetectionStore keeps detection records in memory behind an RWMutex so
// concurrent readers never block each other.
type MemoryDetectionStore struct {
	mu      sync.RWMutex
	records []*model.DetectionRecord
	nextID  int64
	lastAt  time.Time
}

// NewMemoryDetectionStore constructs an empty store.
func NewMemoryDetectionStore() *MemoryDetectionStore {
	return &MemoryDetectionStore{nextID: 1}
}

// Create appends a record atomically and returns it with its assigned id and
// creation timestamp. Timestamps are forced monotonically non-decreasing so
// insertion order and created_at order never disagree.
func (m *MemoryDetectionStore) Create(ctx context.Context, userID int64, filename string, results model.ResultSet) (*model.DetectionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	if !now.After(m.lastAt) {
		now = m.lastAt.Add(time.Nanosecond)
	}
	m.lastAt = now

	rec := &model.DetectionRecord{
		ID:        m.nextID,
		UserID:    userID,
		Filename:  filename,
		Results:   results,
		CreatedAt: now,
	}
	m.nextID++
	m.records = append(m.records, rec)
	out := *rec
	return &out, nil
}

// ListByUser returns the user's records ordered by creation timestamp
// descending, id descending as tiebreak, with offset/limit pagination.
func (m *MemoryDetectionStore) ListByUser(ctx context.Context, userID int64, skip, limit int) ([]*model.DetectionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []*model.DetectionRecord
	for _, rec := range m.records {
		if rec.UserID == userID {
			copied := *rec
			matched = append(matched, &copied)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if skip < 0 {
		skip = 0
	}
	if skip >= len(matched) {
		return []*model.DetectionRecord{}, nil
	}
	matched = matched[skip:]
	if limit >= 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

// CountByUser returns the exact number of records the user owns.
func (m *MemoryDetectionStore) CountByUser(ctx context.Context, userID int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var count int64
	for _, rec := range m.records {
		if rec.UserID == userID {
			count++
		}
	}
	return count, nil
}

// CountAll returns the total number of records across users.
func (m *MemoryDetectionStore) CountAll(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.records)), nil
}

// MemoryUserStore keeps users in memory with unique email and username.
type MemoryUserStore struct {
	mu     sync.RWMutex
	users  []*model.User
	nextID int64
}

// NewMemoryUserStore constructs an empty user store.
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{nextID: 1}
}

// Create inserts a user or fails with ErrDuplicate on an email or username
// collision.
func (m *MemoryUserStore) Create(ctx context.Context, user model.User) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == user.Email || existing.Username == user.Username {
			return nil, ErrDuplicate
		}
	}
	user.ID = m.nextID
	m.nextID++
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	stored := user
	m.users = append(m.users, &stored)
	out := user
	return &out, nil
}

// Ensure inserts the user unless the username is already taken, in which case
// the existing account is returned unchanged. Seeding twice therefore never
// creates a second account.
func (m *MemoryUserStore) Ensure(ctx context.Context, user model.User) (*model.User, bool, error) {
	if existing, err := m.GetByUsername(ctx, user.Username); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}
	created, err := m.Create(ctx, user)
	if err != nil {
		return nil, false, err
	}
	return created, true, nil
}

// GetByUsername returns the user or ErrNotFound.
func (m *MemoryUserStore) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, user := range m.users {
		if user.Username == username {
			out := *user
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

// GetByEmail returns the user or ErrNotFound.
func (m *MemoryUserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, user := range m.users {
		if user.Email == email {
			out := *user
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

// ListAll returns every user ordered by id.
func (m *MemoryUserStore) ListAll(ctx context.Context) ([]*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.User, 0, len(m.users))
	for _, user := range m.users {
		copied := *user
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// CountAll returns the number of registered users.
func (m *MemoryUserStore) CountAll(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.users)), nil
}
