package database

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pageza/profiles/backend/config"
	"github.com/pageza/profiles/backend/internal/models"
	"github.com/pageza/profiles/backend/internal/testhelpers"
)

func silentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeMigrations(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}
	return dir
}

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(context.Background(), config.DBConfig{
		Driver:       "sqlite",
		URL:          "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}, silentLogger())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestListMigrations(t *testing.T) {
	dir := writeMigrations(t, map[string]string{
		"0002_second.up.sql":                  "SELECT 1;",
		"0001_first.up.sql":                   "SELECT 1;",
		"0001_first.down.sql":                 "SELECT 1;",
		"README.md":                           "ignored",
		"99999999999999999999999_huge.up.sql": "ignored",
		"0003_third.sql":                      "ignored",
	})

	migs, err := ListMigrations(dir)
	require.NoError(t, err)
	require.Len(t, migs, 2)
	assert.Equal(t, uint(1), migs[0].Version)
	assert.Equal(t, "first", migs[0].Name)
	assert.True(t, migs[0].HasDown)
	assert.Equal(t, uint(2), migs[1].Version)
	assert.False(t, migs[1].HasDown)
}

func TestListMigrationsOverflowingVersionIsNotZero(t *testing.T) {
	dir := writeMigrations(t, map[string]string{
		"99999999999999999999999_huge.up.sql": "SELECT 1;",
	})

	migs, err := ListMigrations(dir)
	require.NoError(t, err)
	for _, m := range migs {
		assert.NotZero(t, m.Version)
	}
	assert.Empty(t, migs)
}

func TestListMigrationsMissingDir(t *testing.T) {
	_, err := ListMigrations(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestListMigrationsRepository(t *testing.T) {
	migs, err := ListMigrations(filepath.Join("..", "..", "migrations"))
	require.NoError(t, err)
	require.Len(t, migs, 2)
	assert.Equal(t, "create_users", migs[0].Name)
	assert.Equal(t, "create_profiles", migs[1].Name)
	for _, m := range migs {
		assert.True(t, m.HasDown, m.Name)
	}
}

func newSQLiteMigrator(t *testing.T, db *gorm.DB, dir string) *Migrator {
	t.Helper()
	sqlDB, err := db.DB()
	require.NoError(t, err)

	m, err := NewMigrator(context.Background(), sqlDB, DialectSQLite, dir, silentLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestMigratorUpDownStatus(t *testing.T) {
	dir := writeMigrations(t, map[string]string{
		"0001_widgets.up.sql":   "CREATE TABLE widgets (id INTEGER PRIMARY KEY);",
		"0001_widgets.down.sql": "DROP TABLE widgets;",
		"0002_gadgets.up.sql":   "CREATE TABLE gadgets (id INTEGER PRIMARY KEY);",
		"0002_gadgets.down.sql": "DROP TABLE gadgets;",
	})
	db := openSQLite(t)
	ctx := context.Background()
	m := newSQLiteMigrator(t, db, dir)

	n, err := m.Up(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, db.Migrator().HasTable("widgets"))
	assert.True(t, db.Migrator().HasTable("gadgets"))

	n, err = m.Up(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	rolled, err := m.Down(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint(2), rolled.Version)
	assert.Equal(t, "gadgets", rolled.Name)
	assert.False(t, db.Migrator().HasTable("gadgets"))

	status, err := m.Status(ctx)
	require.NoError(t, err)
	require.Len(t, status, 2)
	assert.True(t, status[0].Applied)
	assert.False(t, status[1].Applied)

	_, err = m.Down(ctx)
	require.NoError(t, err)
	assert.False(t, db.Migrator().HasTable("widgets"))
	_, err = m.Down(ctx)
	assert.ErrorIs(t, err, ErrNoMigrations)
}

func TestMigratorFailedMigrationLeavesDirtyState(t *testing.T) {
	dir := writeMigrations(t, map[string]string{
		"0001_broken.up.sql": "CREATE TABLE;",
	})
	db := openSQLite(t)
	m := newSQLiteMigrator(t, db, dir)

	_, err := m.Up(context.Background())
	require.Error(t, err)

	status, err := m.Status(context.Background())
	require.NoError(t, err)
	require.Len(t, status, 1)
	assert.False(t, status[0].Applied)
	assert.True(t, status[0].Dirty)

	_, err = m.Up(context.Background())
	assert.ErrorIs(t, err, ErrDirty)
}

func TestMigratorCanceledContext(t *testing.T) {
	dir := writeMigrations(t, map[string]string{
		"0001_widgets.up.sql": "CREATE TABLE widgets (id INTEGER PRIMARY KEY);",
	})
	db := openSQLite(t)
	m := newSQLiteMigrator(t, db, dir)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Up(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, db.Migrator().HasTable("widgets"))
}

func TestNewMigratorUnsupportedDialect(t *testing.T) {
	db := openSQLite(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)

	_, err = NewMigrator(context.Background(), sqlDB, "mysql", t.TempDir(), silentLogger())
	assert.Error(t, err)
}

func TestRunMigrationsSQLite(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, RunMigrations(context.Background(), db, "unused", silentLogger()))
	assert.True(t, db.Migrator().HasTable(&models.User{}))
	assert.True(t, db.Migrator().HasTable(&models.Profile{}))
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), config.DBConfig{Driver: "mysql"}, silentLogger())
	assert.Error(t, err)
}

func TestRunMigrationsPostgres(t *testing.T) {
	url := testhelpers.StartPostgres(t)
	ctx := context.Background()

	db, err := Open(ctx, config.DBConfig{Driver: "postgres", URL: url, MaxOpenConns: 5, MaxIdleConns: 5}, silentLogger())
	require.NoError(t, err)

	dir := filepath.Join("..", "..", "migrations")
	require.NoError(t, RunMigrations(ctx, db, dir, silentLogger()))
	assert.True(t, db.Migrator().HasTable("profiles"))

	sqlDB, err := OpenSQL(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	m, err := NewMigrator(ctx, sqlDB, DialectPostgres, dir, silentLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	status, err := m.Status(ctx)
	require.NoError(t, err)
	require.Len(t, status, 2)
	for _, s := range status {
		assert.True(t, s.Applied, s.Name)
	}

	n, err := m.Up(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNewRedisClient(t *testing.T) {
	url := testhelpers.StartRedis(t)
	client, err := NewRedisClient(context.Background(), url)
	require.NoError(t, err)
	assert.NoError(t, client.Close())
}

func TestNewRedisClientBadURL(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "://nope")
	assert.Error(t, err)
}
