// Package test provides a throwaway SQLite store for tests.
package test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hrygo/guestbook/internal/profile"
	"github.com/hrygo/guestbook/store"
	"github.com/hrygo/guestbook/store/db"
)

// NewTestingStore creates a migrated store backed by a SQLite database in a
// temporary directory. The database is removed with the test's temp dir.
func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	t.Helper()

	dir := t.TempDir()
	p := &profile.Profile{
		Mode:         "dev",
		Driver:       "sqlite",
		Data:         dir,
		DSN:          filepath.Join(dir, "guestbook_test.db"),
		PollInterval: 1,
		EnablePoller: true,
		UseCache:     true,
	}

	dbDriver, err := db.NewDBDriver(p)
	require.NoError(t, err)

	st := store.New(dbDriver, p)
	require.NoError(t, st.Migrate(ctx))
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}
