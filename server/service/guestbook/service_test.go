package guestbook

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hrygo/guestbook/server/cache"
	"github.com/hrygo/guestbook/store"
	storetest "github.com/hrygo/guestbook/store/test"
)

func newTestService(ctx context.Context, t *testing.T, useCache bool) (*Service, *store.Store, *cache.EntryCache) {
	t.Helper()
	ts := storetest.NewTestingStore(ctx, t)
	c := cache.New()
	require.NoError(t, c.Load(ctx, ts))
	return NewService(ts, c, useCache), ts, c
}

func TestSubmitAndReadYourWrite(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(ctx, t, true)

	entry, err := svc.Submit(ctx, "Alice", "hi")
	require.NoError(t, err)
	require.Equal(t, int64(1), entry.ID)

	// Visible immediately, before any poll cycle.
	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Alice", list[0].Name)
	require.Equal(t, "hi", list[0].Message)
}

func TestSubmitBlankNameDefaultsToAnonymous(t *testing.T) {
	ctx := context.Background()
	svc, ts, _ := newTestService(ctx, t, true)

	entry, err := svc.Submit(ctx, "   ", "yo")
	require.NoError(t, err)
	require.Equal(t, AnonymousName, entry.Name)

	// The default is persisted, not just rendered.
	stored, err := ts.ListEntries(ctx, &store.FindEntry{})
	require.NoError(t, err)
	require.Equal(t, AnonymousName, stored[0].Name)
}

func TestSubmitValidation(t *testing.T) {
	ctx := context.Background()
	svc, ts, _ := newTestService(ctx, t, true)

	tests := []struct {
		name    string
		message string
		wantErr *ValidationError
	}{
		{"Bob", "", ErrMessageRequired},
		{"Bob", "   ", ErrMessageRequired},
		{strings.Repeat("x", MaxNameLength+1), "hello", ErrNameTooLong},
		{"Bob", strings.Repeat("y", MaxMessageLength+1), ErrMessageTooLong},
	}
	for _, tt := range tests {
		_, err := svc.Submit(ctx, tt.name, tt.message)
		require.ErrorIs(t, err, tt.wantErr)
	}

	// No entry was created by any rejected submission.
	stored, err := ts.ListEntries(ctx, &store.FindEntry{})
	require.NoError(t, err)
	require.Empty(t, stored)
}

func TestSubmitLengthLimitsAreInclusive(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(ctx, t, true)

	_, err := svc.Submit(ctx, strings.Repeat("x", MaxNameLength), strings.Repeat("y", MaxMessageLength))
	require.NoError(t, err)
}

func TestSubmitLengthLimitsCountCharactersNotBytes(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(ctx, t, true)

	// 50 characters but 100 bytes; must pass the name cap.
	name := strings.Repeat("é", MaxNameLength)
	entry, err := svc.Submit(ctx, name, strings.Repeat("ü", MaxMessageLength))
	require.NoError(t, err)
	require.Equal(t, name, entry.Name)

	_, err = svc.Submit(ctx, strings.Repeat("é", MaxNameLength+1), "hello")
	require.ErrorIs(t, err, ErrNameTooLong)
	_, err = svc.Submit(ctx, "Bob", strings.Repeat("ü", MaxMessageLength+1))
	require.ErrorIs(t, err, ErrMessageTooLong)
}

func TestListWithoutCacheQueriesStore(t *testing.T) {
	ctx := context.Background()
	svc, ts, c := newTestService(ctx, t, false)

	_, err := ts.CreateEntry(ctx, &store.Entry{Name: "n", Message: "m"})
	require.NoError(t, err)

	// The cache was loaded before the write and never updated; a cacheless
	// service must still see the row.
	require.Equal(t, int64(0), c.LastSeenID())
	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestListNewestFirstNoDuplicates(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(ctx, t, true)

	for i := 0; i < 5; i++ {
		_, err := svc.Submit(ctx, "n", "m")
		require.NoError(t, err)
	}

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 5)
	seen := map[int64]bool{}
	for i, e := range list {
		require.False(t, seen[e.ID])
		seen[e.ID] = true
		if i > 0 {
			require.Greater(t, list[i-1].ID, e.ID)
		}
	}
}
