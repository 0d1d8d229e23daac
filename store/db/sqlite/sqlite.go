package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/pkg/errors"
	// Import the SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/hrygo/guestbook/internal/profile"
	"github.com/hrygo/guestbook/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens a database specified by its database driver name and a
// driver-specific data source name, usually consisting of at least a
// database name and connection information.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}

	// Connect to the database with some sane settings:
	// - No shared-cache: it's obsolete; WAL journal mode is a better solution.
	// - No foreign key constraints: it's currently disabled by default, but it's a
	// good practice to be explicit and prevent future surprises on SQLite upgrades.
	// - Journal mode set to WAL: it's the recommended journal mode for most applications
	// as it prevents locking issues.
	sqliteDB, err := sql.Open("sqlite", profile.DSN+"?_pragma=foreign_keys(0)&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}

	driver := DB{db: sqliteDB, profile: profile}
	return &driver, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) IsInitialized(ctx context.Context) (bool, error) {
	var exists bool
	err := d.db.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = 'entry')").Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "failed to check if database is initialized")
	}
	return exists, nil
}

// ModMarker folds the modification time and size of the database file (and
// its WAL sidecar, which is where writes land first in WAL mode) into a
// single string. Stat is cheap, so the refresher can call this every cycle
// without touching the database itself.
func (d *DB) ModMarker(_ context.Context) (string, error) {
	fi, err := os.Stat(d.profile.DSN)
	if err != nil {
		return "", errors.Wrapf(err, "failed to stat database file: %s", d.profile.DSN)
	}
	marker := fmt.Sprintf("%d:%d", fi.ModTime().UnixNano(), fi.Size())
	if wi, err := os.Stat(d.profile.DSN + "-wal"); err == nil {
		marker = fmt.Sprintf("%s|%d:%d", marker, wi.ModTime().UnixNano(), wi.Size())
	}
	return marker, nil
}
