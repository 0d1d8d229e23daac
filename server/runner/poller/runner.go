// Package poller keeps the entry cache eventually consistent with the store.
package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hrygo/guestbook/server/cache"
	"github.com/hrygo/guestbook/store"
)

type Runner struct {
	store    *store.Store
	cache    *cache.EntryCache
	interval time.Duration

	startOnce sync.Once
}

func NewRunner(st *store.Store, c *cache.EntryCache, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Runner{
		store:    st,
		cache:    c,
		interval: interval,
	}
}

// Start launches the refresh loop. At most one loop is ever started per
// Runner, no matter how many callers race here.
func (r *Runner) Start(ctx context.Context) {
	r.startOnce.Do(func() {
		go r.run(ctx)
	})
}

// run is the refresh loop. Every failure inside an iteration is logged and
// swallowed: the refresher is best effort and must outlive any transient
// store problem. It exits only when ctx is cancelled.
func (r *Runner) run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.pollOnce(ctx)
		case <-ctx.Done():
			slog.Info("entry poller stopped")
			return
		}
	}
}

// pollOnce runs a single refresh iteration: check the store's modification
// marker and pull rows newer than the cache's high-water mark if it moved.
func (r *Runner) pollOnce(ctx context.Context) {
	marker, err := r.store.ModMarker(ctx)
	if err != nil {
		// Transient: skip this iteration, retry after the interval.
		slog.Warn("failed to read store modification marker", slog.String("error", err.Error()))
		return
	}

	last := r.cache.Marker()
	if last == "" {
		// First observation, nothing to compare against yet.
		r.cache.SetMarker(marker)
		return
	}
	if marker == last {
		return
	}

	afterID := r.cache.LastSeenID()
	rows, err := r.store.ListEntries(ctx, &store.FindEntry{AfterID: &afterID})
	if err != nil {
		// Marker stays unrecorded so the query is retried next cycle.
		slog.Warn("failed to query new entries", slog.Int64("afterID", afterID), slog.String("error", err.Error()))
		return
	}

	if len(rows) > 0 {
		r.cache.MergeNew(rows)
		r.cache.Trim(cache.DefaultWindow)
		slog.Info("merged new entries into cache",
			slog.Int("count", len(rows)),
			slog.Int64("lastSeenID", r.cache.LastSeenID()))
	}
	// Record the marker even when no qualifying rows came back; a marker
	// change without new rows must not cause repeated re-querying.
	r.cache.SetMarker(marker)
}
