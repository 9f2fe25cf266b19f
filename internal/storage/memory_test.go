package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/snaptaplaque/plateapi/internal/model"
)

func TestDetectionStorePagination(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryDetectionStore()

	const total = 9
	for i := 0; i < total; i++ {
		if _, err := store.Create(ctx, 1, "img.png", model.NewResultSet(nil)); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	// Another user's records must never leak into the listing.
	if _, err := store.Create(ctx, 2, "other.png", model.NewResultSet(nil)); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Page through in chunks and verify the stitched pages equal the full
	// listing: no gaps, no duplicates, newest first.
	full, err := store.ListByUser(ctx, 1, 0, total)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(full) != total {
		t.Fatalf("expected %d records, got %d", total, len(full))
	}
	for i := 1; i < len(full); i++ {
		if full[i].CreatedAt.After(full[i-1].CreatedAt) {
			t.Fatalf("records not newest-first at %d", i)
		}
	}

	var stitched []int64
	for skip := 0; skip < total; skip += 4 {
		page, err := store.ListByUser(ctx, 1, skip, 4)
		if err != nil {
			t.Fatalf("page skip=%d: %v", skip, err)
		}
		for _, rec := range page {
			stitched = append(stitched, rec.ID)
		}
	}
	if len(stitched) != total {
		t.Fatalf("stitched pages hold %d records, want %d", len(stitched), total)
	}
	for i, rec := range full {
		if stitched[i] != rec.ID {
			t.Fatalf("page stitching disagrees with full listing at %d", i)
		}
	}

	count, err := store.CountByUser(ctx, 1)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != int64(len(full)) {
		t.Fatalf("count %d disagrees with unpaginated listing %d", count, len(full))
	}

	// skip beyond the end yields an empty page, not an error.
	tail, err := store.ListByUser(ctx, 1, total+5, 4)
	if err != nil || len(tail) != 0 {
		t.Fatalf("expected empty page, got %v %v", tail, err)
	}
}

func TestDetectionStoreCreateReturnsRecord(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryDetectionStore()

	results := model.NewResultSet([]model.PlateReading{{PlateText: "AB-123-CD", Confidence: 0.9}})
	rec, err := store.Create(ctx, 7, "car.png", results)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.ID == 0 || rec.CreatedAt.IsZero() {
		t.Fatalf("record missing id or timestamp: %+v", rec)
	}
	if rec.UserID != 7 || rec.Filename != "car.png" {
		t.Fatalf("record fields lost: %+v", rec)
	}
	if got := rec.Results.Readings(); len(got) != 1 || got[0].PlateText != "AB-123-CD" {
		t.Fatalf("results lost: %+v", got)
	}
}

func TestUserStoreUniqueness(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryUserStore()

	if _, err := store.Create(ctx, model.User{Email: "a@x.io", Username: "alice"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.Create(ctx, model.User{Email: "a@x.io", Username: "alice2"}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected duplicate email rejection, got %v", err)
	}
	if _, err := store.Create(ctx, model.User{Email: "b@x.io", Username: "alice"}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected duplicate username rejection, got %v", err)
	}
	if _, err := store.GetByUsername(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserStoreEnsureIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryUserStore()

	admin := model.User{Email: "admin@x.io", Username: "admin", HashedPassword: "h1", IsAdmin: true}
	first, created, err := store.Ensure(ctx, admin)
	if err != nil || !created {
		t.Fatalf("first ensure must create: %v created=%v", err, created)
	}

	// Second seed with a different password must leave the account untouched.
	admin.HashedPassword = "h2"
	second, created, err := store.Ensure(ctx, admin)
	if err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if created {
		t.Fatalf("second ensure must not create")
	}
	if second.ID != first.ID || second.HashedPassword != "h1" {
		t.Fatalf("existing account was modified: %+v", second)
	}

	count, err := store.CountAll(ctx)
	if err != nil || count != 1 {
		t.Fatalf("expected exactly one account, got %d (%v)", count, err)
	}
}
