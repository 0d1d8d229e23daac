package store

import (
	"context"
	"time"
)

// Entry is one guestbook submission. Entries are immutable once created.
type Entry struct {
	ID        int64
	Name      string
	Message   string
	CreatedAt time.Time
}

type FindEntry struct {
	ID *int64
	// AfterID restricts the result to entries with id strictly greater.
	AfterID *int64
	Limit   *int
}

func (s *Store) CreateEntry(ctx context.Context, create *Entry) (*Entry, error) {
	return s.driver.CreateEntry(ctx, create)
}

// ListEntries returns entries ordered by id descending (newest first).
func (s *Store) ListEntries(ctx context.Context, find *FindEntry) ([]*Entry, error) {
	return s.driver.ListEntries(ctx, find)
}

// ModMarker returns the store's current modification marker, a cheap scalar
// that changes whenever a write occurs. It is a change-detection heuristic
// only: both false positives and false negatives are tolerated by callers.
func (s *Store) ModMarker(ctx context.Context) (string, error) {
	return s.driver.ModMarker(ctx)
}
