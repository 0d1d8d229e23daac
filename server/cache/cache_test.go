package cache

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hrygo/guestbook/store"
	storetest "github.com/hrygo/guestbook/store/test"
)

func entry(id int64) *store.Entry {
	return &store.Entry{ID: id, Name: "n", Message: "m"}
}

func requireDescendingUnique(t *testing.T, entries []*store.Entry) {
	t.Helper()
	seen := map[int64]bool{}
	for i, e := range entries {
		require.False(t, seen[e.ID], "duplicate id %d", e.ID)
		seen[e.ID] = true
		if i > 0 {
			require.Greater(t, entries[i-1].ID, e.ID, "snapshot must be strictly descending")
		}
	}
}

func TestLoadEmptyStore(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)

	c := New()
	require.NoError(t, c.Load(ctx, ts))
	require.Equal(t, int64(0), c.LastSeenID())
	require.Empty(t, c.Snapshot(DefaultWindow))
	require.NotEmpty(t, c.Marker())
}

func TestLoadSeedsNewestFirst(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)

	for i := 0; i < 3; i++ {
		_, err := ts.CreateEntry(ctx, &store.Entry{Name: "n", Message: "m"})
		require.NoError(t, err)
	}

	c := New()
	require.NoError(t, c.Load(ctx, ts))
	require.Equal(t, int64(3), c.LastSeenID())

	snap := c.Snapshot(DefaultWindow)
	require.Len(t, snap, 3)
	requireDescendingUnique(t, snap)
	require.Equal(t, int64(3), snap[0].ID)
}

func TestSnapshotIsACopy(t *testing.T) {
	c := New()
	c.InsertImmediate(entry(1))
	c.InsertImmediate(entry(2))

	snap := c.Snapshot(DefaultWindow)
	snap[0] = entry(99)

	again := c.Snapshot(DefaultWindow)
	require.Equal(t, int64(2), again[0].ID)
}

func TestSnapshotCaps(t *testing.T) {
	c := New()
	for id := int64(1); id <= 10; id++ {
		c.InsertImmediate(entry(id))
	}
	require.Len(t, c.Snapshot(3), 3)
	require.Equal(t, int64(10), c.Snapshot(3)[0].ID)
	require.Len(t, c.Snapshot(0), 10)
}

func TestMergeNewDeduplicates(t *testing.T) {
	c := New()
	c.InsertImmediate(entry(1))
	c.InsertImmediate(entry(2))

	// The poller may re-observe id 2 before the marker settles.
	c.MergeNew([]*store.Entry{entry(4), entry(2), entry(3)})

	snap := c.Snapshot(DefaultWindow)
	require.Len(t, snap, 4)
	requireDescendingUnique(t, snap)
	require.Equal(t, int64(4), c.LastSeenID())
}

func TestMergeNewUnorderedInput(t *testing.T) {
	c := New()
	c.MergeNew([]*store.Entry{entry(2), entry(5), entry(3)})

	snap := c.Snapshot(DefaultWindow)
	require.Len(t, snap, 3)
	requireDescendingUnique(t, snap)
	require.Equal(t, int64(5), c.LastSeenID())
}

func TestMergeNewEmpty(t *testing.T) {
	c := New()
	c.InsertImmediate(entry(1))
	c.MergeNew(nil)
	require.Equal(t, int64(1), c.LastSeenID())
	require.Len(t, c.Snapshot(DefaultWindow), 1)
}

func TestInsertImmediateAfterMergeIsNoop(t *testing.T) {
	c := New()
	c.MergeNew([]*store.Entry{entry(7)})

	// Write path lost the race: the poller already merged id 7.
	c.InsertImmediate(entry(7))

	snap := c.Snapshot(DefaultWindow)
	require.Len(t, snap, 1)
	require.Equal(t, int64(7), c.LastSeenID())
}

func TestTrim(t *testing.T) {
	c := New()
	for id := int64(1); id <= 10; id++ {
		c.InsertImmediate(entry(id))
	}
	c.Trim(4)
	snap := c.Snapshot(DefaultWindow)
	require.Len(t, snap, 4)
	require.Equal(t, int64(10), snap[0].ID)
	// lastSeenID is not rolled back by trimming.
	require.Equal(t, int64(10), c.LastSeenID())
}

func TestConcurrentMutation(t *testing.T) {
	c := New()

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(base int64) {
			defer wg.Done()
			for i := int64(0); i < 100; i++ {
				c.InsertImmediate(entry(base*100 + i + 1))
				c.Snapshot(DefaultWindow)
			}
		}(int64(w))
	}
	wg.Wait()

	requireDescendingUnique(t, c.Snapshot(0))
}
