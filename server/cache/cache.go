// Package cache holds the in-memory mirror of the most recent guestbook
// entries. The store stays the source of truth; the cache exists so that
// page renders do not hit the database on every request.
package cache

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/hrygo/guestbook/store"
)

// DefaultWindow is how many recent entries are loaded and served.
const DefaultWindow = 100

// EntryCache is a bounded newest-first mirror of the entry table.
//
// One mutex guards entries, lastSeenID and marker as a unit so that readers
// can never observe a lastSeenID that disagrees with the entry list. All
// store I/O happens outside the lock; only in-memory splices happen inside.
type EntryCache struct {
	mu         sync.Mutex
	entries    []*store.Entry // newest first, strictly descending by id
	lastSeenID int64
	marker     string // last observed store modification marker, "" = unknown
}

func New() *EntryCache {
	return &EntryCache{}
}

// Load seeds the cache with the newest DefaultWindow entries and records the
// store's current modification marker. A marker read failure is not fatal:
// the refresher treats an unknown marker as "record on next sight".
func (c *EntryCache) Load(ctx context.Context, st *store.Store) error {
	limit := DefaultWindow
	rows, err := st.ListEntries(ctx, &store.FindEntry{Limit: &limit})
	if err != nil {
		return errors.Wrap(err, "failed to load initial cache")
	}
	marker, err := st.ModMarker(ctx)
	if err != nil {
		marker = ""
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = rows
	c.lastSeenID = 0
	if len(rows) > 0 {
		c.lastSeenID = rows[0].ID
	}
	c.marker = marker
	return nil
}

// Snapshot returns a copy of the cached entries, newest first, capped to
// limit. Callers may render the result without holding any cache lock.
func (c *EntryCache) Snapshot(limit int) []*store.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]*store.Entry, n)
	copy(out, c.entries[:n])
	return out
}

// MergeNew splices freshly polled rows in front of the cached entries.
// Rows whose id is already cached or not above lastSeenID are dropped, so
// a row observed both by InsertImmediate and by a poll cycle appears once.
func (c *EntryCache) MergeNew(rows []*store.Entry) {
	if len(rows) == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[int64]bool, len(c.entries))
	for _, e := range c.entries {
		seen[e.ID] = true
	}

	fresh := make([]*store.Entry, 0, len(rows))
	for _, e := range rows {
		if e.ID <= c.lastSeenID || seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		fresh = append(fresh, e)
	}
	if len(fresh) == 0 {
		return
	}

	sort.Slice(fresh, func(i, j int) bool { return fresh[i].ID > fresh[j].ID })
	c.entries = append(fresh, c.entries...)
	if fresh[0].ID > c.lastSeenID {
		c.lastSeenID = fresh[0].ID
	}
}

// InsertImmediate prepends a just-written entry so the writer sees it on
// their next read without waiting for the poll cycle. Inserting an id the
// poller already merged is a no-op.
func (c *EntryCache) InsertImmediate(entry *store.Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry.ID <= c.lastSeenID {
		// Already incorporated by a poll cycle (and possibly trimmed since).
		return
	}
	c.entries = append([]*store.Entry{entry}, c.entries...)
	c.lastSeenID = entry.ID
}

// Trim caps the cached entries. MergeNew deliberately does not trim; the
// refresher calls Trim after each merge to bound growth.
func (c *EntryCache) Trim(max int) {
	if max <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) > max {
		c.entries = append([]*store.Entry(nil), c.entries[:max]...)
	}
}

// LastSeenID returns the highest entry id the cache has incorporated.
func (c *EntryCache) LastSeenID() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSeenID
}

// Marker returns the last observed store modification marker.
func (c *EntryCache) Marker() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.marker
}

// SetMarker records the store modification marker the refresher just acted on.
func (c *EntryCache) SetMarker(marker string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.marker = marker
}
