// Package datastore is the on-disk persistence primitive behind the user
// state store: a single SQLite file inside a caller-supplied directory,
// holding one row per named value in a key/value table.
//
// # Atomicity
//
// Save replaces the full set of values inside one SQL transaction, so a
// reader (or a process restarted after a crash) observes either the previous
// snapshot or the new one, never a mix of both.
//
// # Schema
//
// The schema is managed by embedded goose migrations (see the migrations
// subpackage), applied on every Open. Migrations are idempotent.
package datastore

import (
	"context"
	"database/sql"
	"fmt"
	"maps"
	"path/filepath"
	"slices"

	"github.com/dmitrijs2005/psicash/internal/common"
	"github.com/dmitrijs2005/psicash/internal/datastore/migrations"
	"github.com/dmitrijs2005/psicash/internal/dbx"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// FileName is the name of the SQLite file created inside the location.
const FileName = "psicashdatastore.db"

const driverName = "sqlite"

// Datastore is a durable key/value snapshot store.
type Datastore struct {
	db *sql.DB
}

// Open binds a datastore to location, creating at most one missing directory
// segment, opening (or creating) the SQLite file and applying migrations.
//
// Errors: common.ErrInvalidArgument for an empty location,
// common.ErrStorageUnavailable for anything that prevents the file from
// being opened and migrated.
func Open(ctx context.Context, location string) (*Datastore, error) {
	if err := ensureLocation(location); err != nil {
		return nil, err
	}

	dsn := filepath.Join(filepath.Clean(location), FileName) +
		"?_pragma=busy_timeout(5000)&_pragma=synchronous(FULL)"

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", common.ErrStorageUnavailable, dsn, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: connect: %w", common.ErrStorageUnavailable, err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %w", common.ErrStorageUnavailable, err)
	}

	// SQLite allows a single writer; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return New(db), nil
}

// New wraps an already prepared database handle. The user_data table must
// exist.
func New(db *sql.DB) *Datastore {
	return &Datastore{db: db}
}

// RunMigrations applies the embedded goose migrations to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Load returns every stored value keyed by name. An empty map means nothing
// has been saved yet.
func (d *Datastore) Load(ctx context.Context) (map[string][]byte, error) {
	values, err := newKVRepository(d.db).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrStorage, err)
	}
	return values, nil
}

// Save atomically replaces the stored snapshot with values.
func (d *Datastore) Save(ctx context.Context, values map[string][]byte) error {
	err := dbx.WithTx(ctx, d.db, func(ctx context.Context, tx dbx.DBTX) error {
		repo := newKVRepository(tx)
		if err := repo.Clear(ctx); err != nil {
			return err
		}
		for _, key := range slices.Sorted(maps.Keys(values)) {
			if err := repo.Set(ctx, key, values[key]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrStorage, err)
	}
	return nil
}

// Close releases the database handle.
func (d *Datastore) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}
