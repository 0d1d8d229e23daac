// Package guestbook implements the submit and list paths on top of the
// store and the entry cache.
package guestbook

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/hrygo/guestbook/server/cache"
	"github.com/hrygo/guestbook/store"
)

const (
	// AnonymousName is substituted when the submitter leaves the name blank.
	AnonymousName = "Anonymous"

	MaxNameLength    = 50
	MaxMessageLength = 1000

	// RecentWindow is how many entries a read returns.
	RecentWindow = cache.DefaultWindow
)

// ValidationError is a recoverable, user-visible rejection of a submission.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

var (
	ErrMessageRequired = &ValidationError{Reason: "Message is required."}
	ErrNameTooLong     = &ValidationError{Reason: "Name must be 50 characters or fewer."}
	ErrMessageTooLong  = &ValidationError{Reason: "Message is too long (max 1000 characters)."}
)

type Service struct {
	store    *store.Store
	cache    *cache.EntryCache
	useCache bool
}

func NewService(st *store.Store, c *cache.EntryCache, useCache bool) *Service {
	return &Service{
		store:    st,
		cache:    c,
		useCache: useCache,
	}
}

// Submit validates, persists and caches one submission. A *ValidationError
// is returned for input the submitter can fix; anything else is internal.
func (s *Service) Submit(ctx context.Context, name, message string) (*store.Entry, error) {
	name = strings.TrimSpace(name)
	message = strings.TrimSpace(message)

	if name == "" {
		name = AnonymousName
	}
	if message == "" {
		return nil, ErrMessageRequired
	}
	// Character counts, not bytes: the form's maxlength counts characters too.
	if utf8.RuneCountInString(name) > MaxNameLength {
		return nil, ErrNameTooLong
	}
	if utf8.RuneCountInString(message) > MaxMessageLength {
		return nil, ErrMessageTooLong
	}

	entry, err := s.store.CreateEntry(ctx, &store.Entry{
		Name:    name,
		Message: message,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create entry")
	}

	// The store write succeeded, so the submission is durable no matter what
	// happens to the cache; the poller reconciles any missed update.
	if s.useCache {
		s.cache.InsertImmediate(entry)
		slog.Debug("entry cached on submit", slog.Int64("id", entry.ID))
	}

	return entry, nil
}

// List returns the most recent entries, newest first. With caching enabled
// it serves the cache snapshot; otherwise it queries the store directly.
func (s *Service) List(ctx context.Context) ([]*store.Entry, error) {
	if s.useCache {
		return s.cache.Snapshot(RecentWindow), nil
	}

	limit := RecentWindow
	rows, err := s.store.ListEntries(ctx, &store.FindEntry{Limit: &limit})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list entries")
	}
	return rows, nil
}
