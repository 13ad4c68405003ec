// Package dbtest opens throwaway SQLite stores migrated to a chosen layout.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/angelmondragon/fiscal-ledger/pkg/config"
	"github.com/angelmondragon/fiscal-ledger/pkg/db"
	"github.com/angelmondragon/fiscal-ledger/pkg/enums"
	"github.com/angelmondragon/fiscal-ledger/pkg/migrate"
)

// Open returns a file-backed SQLite client in t.TempDir migrated to layout.
func Open(t testing.TB, layout enums.SchemaLayout) *db.Client {
	t.Helper()

	cfg := config.DBConfig{
		Driver:       config.DriverSQLite,
		DSN:          config.SQLiteDSN(filepath.Join(t.TempDir(), "ledger.db"), 0),
		MaxOpenConns: 4,
	}
	client, err := db.New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	target := migrate.ExtendedVersion
	if layout == enums.SchemaLayoutLegacy {
		target = migrate.LegacyVersion
	}
	migrateTo(t, client, target)
	return client
}

// Upgrade applies the extended migration to a live legacy store.
func Upgrade(t testing.TB, client *db.Client) {
	t.Helper()
	migrateTo(t, client, migrate.ExtendedVersion)
}

// Downgrade reverts a live store to the legacy layout.
func Downgrade(t testing.TB, client *db.Client) {
	t.Helper()
	migrateTo(t, client, migrate.LegacyVersion)
}

func migrateTo(t testing.TB, client *db.Client, version int64) {
	t.Helper()
	sqlDB, err := client.SQL()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	runner, err := migrate.NewRunner(sqlDB, config.DriverSQLite)
	if err != nil {
		t.Fatalf("migration runner: %v", err)
	}
	if err := runner.MigrateToVersion(context.Background(), version); err != nil {
		t.Fatalf("migrate to %d: %v", version, err)
	}
}
