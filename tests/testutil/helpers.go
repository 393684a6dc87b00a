// Package testutil provides shared test helpers used across integration
// and unit test packages.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"assetdep/internal/types"
)

// TestConfig returns the resolver configuration the test suites share.
func TestConfig() types.Config {
	return types.Config{
		ProjectName: "game",
		Platforms:   []string{"pc", "ios"},
		ScanFolders: []types.ScanFolderConfig{{ID: 7, Prefix: "editor"}},
	}
}

// StartPostgres launches a disposable Postgres container and returns a
// DSN for it. The container is terminated through t.Cleanup.
func StartPostgres(ctx context.Context, t *testing.T) string {
	t.Helper()
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "assetdep",
			"POSTGRES_PASSWORD": "assetdep",
			"POSTGRES_DB":       "assetdep_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(ctx)
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	return fmt.Sprintf("postgres://assetdep:assetdep@%s:%s/assetdep_test?sslmode=disable", host, port.Port())
}
