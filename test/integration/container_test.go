//go:build integration

package integration

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	pgUser     = "testuser"
	pgPassword = "testpass"
	pgDatabase = "hmstest"
)

// startPostgres runs a postgres:16-alpine container and returns its
// connection string and a cleanup function.
func startPostgres(ctx context.Context) (string, func(), error) {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     pgUser,
			"POSTGRES_PASSWORD": pgPassword,
			"POSTGRES_DB":       pgDatabase,
		},
		// The server restarts once after init, so the ready line shows up twice.
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", nil, fmt.Errorf("start container: %w", err)
	}
	cleanup := func() {
		_ = container.Terminate(context.Background())
	}

	host, err := container.Host(ctx)
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("container port: %w", err)
	}

	connStr := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		pgUser, pgPassword, host, port.Port(), pgDatabase)
	if err := waitForPostgres(ctx, connStr, 30*time.Second); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("wait for postgres: %w", err)
	}
	return connStr, cleanup, nil
}

// waitForPostgres waits until postgres accepts connections and responds to queries.
func waitForPostgres(ctx context.Context, connStr string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		connCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		pool, err := pgxpool.New(connCtx, connStr)
		if err == nil {
			err = pool.Ping(connCtx)
			pool.Close()
		}
		cancel()
		if err == nil {
			return nil
		}

		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("postgres not ready after %v", timeout)
}
