package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strconv"

	"github.com/angelmondragon/fiscal-ledger/pkg/config"
	"github.com/pressly/goose/v3"
)

// DefaultDir is the on-disk root used by create/validate. Each driver has its
// own subdirectory.
const DefaultDir = "pkg/migrate/migrations"

const (
	// LegacyVersion leaves the ledger tables without fiscal breakdown columns.
	LegacyVersion int64 = 20250301120000
	// ExtendedVersion adds doc_type, net, tax, withholding, total and due_on.
	ExtendedVersion int64 = 20250415090000
)

//go:embed migrations
var embedded embed.FS

// Migrations returns the embedded migration set for a driver.
func Migrations(driver string) (fs.FS, error) {
	switch driver {
	case config.DriverSQLite, config.DriverPostgres:
		return fs.Sub(embedded, path.Join("migrations", driver))
	default:
		return nil, fmt.Errorf("no migrations for driver %q", driver)
	}
}

func dialectFor(driver string) (goose.Dialect, error) {
	switch driver {
	case config.DriverSQLite:
		return goose.DialectSQLite3, nil
	case config.DriverPostgres:
		return goose.DialectPostgres, nil
	default:
		return "", fmt.Errorf("unsupported migration driver %q", driver)
	}
}

// Runner applies the embedded migrations through a goose provider, so no
// package-level goose state is touched.
type Runner struct {
	provider *goose.Provider
}

func NewRunner(db *sql.DB, driver string) (*Runner, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	dialect, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	fsys, err := Migrations(driver)
	if err != nil {
		return nil, err
	}
	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	return &Runner{provider: provider}, nil
}

func (r *Runner) Up(ctx context.Context) error {
	if _, err := r.provider.Up(ctx); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

func (r *Runner) UpTo(ctx context.Context, version int64) error {
	if _, err := r.provider.UpTo(ctx, version); err != nil {
		return fmt.Errorf("goose up-to %d: %w", version, err)
	}
	return nil
}

func (r *Runner) Down(ctx context.Context) error {
	if _, err := r.provider.Down(ctx); err != nil {
		return fmt.Errorf("goose down: %w", err)
	}
	return nil
}

func (r *Runner) Version(ctx context.Context) (int64, error) {
	v, err := r.provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("get db version: %w", err)
	}
	return v, nil
}

// Status writes one line per known migration.
func (r *Runner) Status(ctx context.Context, w io.Writer) error {
	statuses, err := r.provider.Status(ctx)
	if err != nil {
		return fmt.Errorf("goose status: %w", err)
	}
	for _, s := range statuses {
		applied := "pending"
		if s.State == goose.StateApplied {
			applied = s.AppliedAt.UTC().Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", s.Source.Version, path.Base(s.Source.Path), applied)
	}
	return nil
}

// MigrateToVersion migrates up or down to target by comparing it with the
// current DB version.
func (r *Runner) MigrateToVersion(ctx context.Context, target int64) error {
	current, err := r.Version(ctx)
	if err != nil {
		return err
	}

	switch {
	case current == target:
		return nil
	case current < target:
		return r.UpTo(ctx, target)
	default:
		if _, err := r.provider.DownTo(ctx, target); err != nil {
			return fmt.Errorf("goose down-to %d: %w", target, err)
		}
		return nil
	}
}

// Run executes a named goose command against the embedded migrations.
func Run(ctx context.Context, db *sql.DB, driver string, command string, out io.Writer) error {
	runner, err := NewRunner(db, driver)
	if err != nil {
		return err
	}
	switch command {
	case "up":
		return runner.Up(ctx)
	case "down":
		return runner.Down(ctx)
	case "status":
		return runner.Status(ctx, out)
	case "version":
		v, err := runner.Version(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, v)
		return nil
	default:
		return fmt.Errorf("unknown migrate command %q", command)
	}
}

// MigrateToVersion parses a YYYYMMDDHHMMSS target and migrates to it.
func MigrateToVersion(ctx context.Context, db *sql.DB, driver string, targetVersion string) error {
	if targetVersion == "" {
		return fmt.Errorf("targetVersion is required")
	}
	target, err := strconv.ParseInt(targetVersion, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", targetVersion, err)
	}
	runner, err := NewRunner(db, driver)
	if err != nil {
		return err
	}
	return runner.MigrateToVersion(ctx, target)
}
