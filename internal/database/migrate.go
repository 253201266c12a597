package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"

	"github.com/pageza/profiles/backend/internal/models"
)

// Dialects accepted by NewMigrator.
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

const migrationsTable = "schema_migrations"

// ErrNoMigrations is returned by Down when nothing has been applied.
var ErrNoMigrations = errors.New("no applied migrations")

// ErrDirty means a previous migration failed halfway and needs manual repair.
var ErrDirty = errors.New("database is in a dirty migration state")

// Migration is one versioned NNNN_name.up.sql / .down.sql pair.
type Migration struct {
	Version uint
	Name    string
	HasDown bool
}

// MigrationStatus reports whether a migration has been applied.
type MigrationStatus struct {
	Migration
	Applied bool
	Dirty   bool
}

// ListMigrations reads dir and returns migrations ordered by version. Files
// that do not follow the NNNN_name.(up|down).sql pattern are ignored.
func ListMigrations(dir string) ([]Migration, error) {
	src, err := iofs.New(os.DirFS(dir), ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}
	defer src.Close()
	return listSource(src)
}

func listSource(src source.Driver) ([]Migration, error) {
	var out []Migration

	version, err := src.First()
	for err == nil {
		mig := Migration{Version: version}

		if r, name, upErr := src.ReadUp(version); upErr == nil {
			_ = r.Close()
			mig.Name = name
		} else if !errors.Is(upErr, fs.ErrNotExist) {
			return nil, upErr
		}
		if r, name, downErr := src.ReadDown(version); downErr == nil {
			_ = r.Close()
			mig.HasDown = true
			if mig.Name == "" {
				mig.Name = name
			}
		} else if !errors.Is(downErr, fs.ErrNotExist) {
			return nil, downErr
		}

		out = append(out, mig)
		version, err = src.Next(version)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return out, nil
}

// Migrator applies the SQL files in a directory and records progress in
// schema_migrations.
type Migrator struct {
	m      *migrate.Migrate
	src    source.Driver
	driver migratedb.Driver
	// closeDriver is false when closing the driver would close the caller's *sql.DB.
	closeDriver bool
	log         *slog.Logger
}

// NewMigrator prepares migrations from dir against db. The caller keeps
// ownership of db; Close releases only what the Migrator opened.
func NewMigrator(ctx context.Context, db *sql.DB, dialect, dir string, log *slog.Logger) (*Migrator, error) {
	const op = "database.NewMigrator"

	src, err := iofs.New(os.DirFS(dir), ".")
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read migrations directory: %w", op, err)
	}

	mg := &Migrator{src: src, log: log}
	switch dialect {
	case DialectPostgres:
		conn, err := db.Conn(ctx)
		if err != nil {
			_ = src.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		mg.driver, err = postgres.WithConnection(ctx, conn, &postgres.Config{MigrationsTable: migrationsTable})
		if err != nil {
			_ = conn.Close()
			_ = src.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		mg.closeDriver = true
	case DialectSQLite:
		mg.driver, err = sqlite3.WithInstance(db, &sqlite3.Config{MigrationsTable: migrationsTable})
		if err != nil {
			_ = src.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	default:
		_ = src.Close()
		return nil, fmt.Errorf("%s: unsupported dialect %q", op, dialect)
	}

	mg.m, err = migrate.NewWithInstance("iofs", src, dialect, mg.driver)
	if err != nil {
		_ = mg.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	mg.m.Log = migrateLogger{log: log}
	return mg, nil
}

// Close releases the migration source and, for PostgreSQL, the dedicated connection.
func (mg *Migrator) Close() error {
	err := mg.src.Close()
	if mg.closeDriver && mg.driver != nil {
		err = errors.Join(err, mg.driver.Close())
	}
	return err
}

// Up applies every pending migration in order and returns how many ran.
func (mg *Migrator) Up(ctx context.Context) (int, error) {
	before, err := mg.current()
	if err != nil {
		return 0, err
	}

	err = mg.withContext(ctx, mg.m.Up)
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("migrate up: %w", err)
	}

	after, err := mg.current()
	if err != nil {
		return 0, err
	}
	migrations, err := listSource(mg.src)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, mig := range migrations {
		if (before == nil || mig.Version > *before) && after != nil && mig.Version <= *after {
			mg.log.Info("applied migration", slog.Uint64("version", uint64(mig.Version)), slog.String("name", mig.Name))
			count++
		}
	}
	return count, nil
}

// Down rolls back the most recently applied migration.
func (mg *Migrator) Down(ctx context.Context) (*Migration, error) {
	version, err := mg.current()
	if err != nil {
		return nil, err
	}
	if version == nil {
		return nil, ErrNoMigrations
	}

	if err := mg.withContext(ctx, func() error { return mg.m.Steps(-1) }); err != nil {
		return nil, fmt.Errorf("rollback %d: %w", *version, err)
	}

	migrations, err := listSource(mg.src)
	if err != nil {
		return nil, err
	}
	for _, mig := range migrations {
		if mig.Version == *version {
			mg.log.Info("rolled back migration", slog.Uint64("version", uint64(mig.Version)), slog.String("name", mig.Name))
			return &mig, nil
		}
	}
	return &Migration{Version: *version}, nil
}

// Status lists every known migration and whether it is applied. Migrations
// are linear, so everything up to the recorded version counts as applied.
func (mg *Migrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	version, dirty, err := mg.m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return nil, err
	}
	applied := err == nil

	migrations, err := listSource(mg.src)
	if err != nil {
		return nil, err
	}

	out := make([]MigrationStatus, len(migrations))
	for i, mig := range migrations {
		out[i] = MigrationStatus{Migration: mig}
		if applied && mig.Version <= version {
			failed := dirty && mig.Version == version
			out[i].Applied = !failed
			out[i].Dirty = failed
		}
	}
	return out, nil
}

// current returns the applied version, nil when nothing has run.
func (mg *Migrator) current() (*uint, error) {
	version, dirty, err := mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if dirty {
		return nil, fmt.Errorf("%w: version %d", ErrDirty, version)
	}
	return &version, nil
}

// withContext asks migrate to stop between migrations once ctx is done.
func (mg *Migrator) withContext(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			select {
			case mg.m.GracefulStop <- true:
			default:
			}
		case <-done:
		}
	}()
	return fn()
}

type migrateLogger struct {
	log *slog.Logger
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.log.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)), slog.String("component", "migrate"))
}

func (l migrateLogger) Verbose() bool { return false }

// RunMigrations brings the schema up to date. SQLite databases are
// auto-migrated from the models; PostgreSQL runs the SQL files in dir.
func RunMigrations(ctx context.Context, db *gorm.DB, dir string, log *slog.Logger) error {
	if db.Dialector.Name() == "sqlite" {
		log.Info("using gorm auto-migration for sqlite")
		return db.WithContext(ctx).AutoMigrate(&models.User{}, &models.Profile{})
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	mg, err := NewMigrator(ctx, sqlDB, DialectPostgres, dir, log)
	if err != nil {
		return err
	}
	defer mg.Close()

	_, err = mg.Up(ctx)
	return err
}
