package testhelpers

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pageza/profiles/backend/internal/models"
)

const (
	pgUser     = "postgres"
	pgPassword = "postpass"
	pgDatabase = "profiles"
)

// SetupTestDB returns a migrated in-memory SQLite database with foreign keys
// enforced. Every call gets its own database.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Keep one connection alive so the shared in-memory database survives.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Profile{}))

	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// RequireIntegration skips the test unless GO_TEST_INTEGRATION=1 and docker is installed.
func RequireIntegration(t *testing.T) {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") != "1" {
		t.Skip("set GO_TEST_INTEGRATION=1 to run container-based tests")
	}
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("docker not installed, skipping container-based test")
	}
}

// StartPostgres runs a PostgreSQL container for the lifetime of the test and
// returns its connection URL.
func StartPostgres(t *testing.T) string {
	t.Helper()
	RequireIntegration(t)

	ctx := context.Background()
	dsnFor := func(host string, port nat.Port) string {
		return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			pgUser, pgPassword, host, port.Port(), pgDatabase)
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     pgUser,
				"POSTGRES_PASSWORD": pgPassword,
				"POSTGRES_DB":       pgDatabase,
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForSQL("5432/tcp", "postgres", dsnFor),
			).WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "failed to start postgres container")
	terminateOnCleanup(t, container)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return dsnFor(host, port)
}

// SetupPostgresDB returns a gorm handle on a fresh PostgreSQL container with
// the schema auto-migrated.
func SetupPostgresDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(postgres.Open(StartPostgres(t)), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err, "failed to connect to database")
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Profile{}))
	return db
}

// StartRedis runs a redis container and returns its URL.
func StartRedis(t *testing.T) string {
	t.Helper()
	RequireIntegration(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "failed to start redis container")
	terminateOnCleanup(t, container)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	return fmt.Sprintf("redis://%s:%s/0", host, port.Port())
}

func terminateOnCleanup(t *testing.T, c testcontainers.Container) {
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.Terminate(ctx); err != nil {
			t.Errorf("failed to terminate container: %v", err)
		}
	})
}
