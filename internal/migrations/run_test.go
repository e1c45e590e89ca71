package migrations_test

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/ldavidflorez/gpt-tools-api/internal/migrations"
)

func getTestDB(t *testing.T) *sql.DB {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "testdb",
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("5432/tcp"),
			wait.ForLog("database system is ready to accept connections"),
		).WithDeadline(3 * time.Minute),
	}

	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "failed to start container")

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port())

	var db *sql.DB
	require.Eventually(t, func() bool {
		db, err = sql.Open("pgx", dsn)
		if err != nil {
			return false
		}
		return db.Ping() == nil
	}, 30*time.Second, time.Second)

	t.Cleanup(func() {
		db.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	return db
}

func TestRun_AppliesSchema(t *testing.T) {
	db := getTestDB(t)

	path, err := filepath.Abs("../../migrations")
	require.NoError(t, err)

	require.NoError(t, migrations.Run(db, path))

	for _, table := range []string{"users", "services", "entitlements", "usage_records"} {
		var exists bool
		err := db.QueryRow(
			"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = $1)", table,
		).Scan(&exists)
		require.NoError(t, err)
		require.True(t, exists, "table %s should exist", table)
	}

	// Сид-миграция должна создать шесть сервисов семейства gpt-3.
	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM services WHERE family = 'gpt-3'").Scan(&count))
	require.Equal(t, 6, count)
}

func TestRun_Idempotent(t *testing.T) {
	db := getTestDB(t)

	path, err := filepath.Abs("../../migrations")
	require.NoError(t, err)

	require.NoError(t, migrations.Run(db, path))
	require.NoError(t, migrations.Run(db, path))
}
