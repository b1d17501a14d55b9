// Package testsupport starts shared backing services for integration tests.
// Tests using it are skipped under -short or when Docker is unavailable.
package testsupport

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	redisOnce sync.Once
	redisAddr Endpoint
	redisErr  error

	postgresOnce sync.Once
	postgresEP   Endpoint
	postgresErr  error
)

// Endpoint is a started container's mapped address
type Endpoint struct {
	Host string
	Port string
}

func skipUnlessIntegration(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test skipped in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
}

func start(ctx context.Context, req testcontainers.ContainerRequest, port string) (Endpoint, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return Endpoint{}, fmt.Errorf("start %s container: %w", req.Image, err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return Endpoint{}, fmt.Errorf("get %s host: %w", req.Image, err)
	}

	mapped, err := container.MappedPort(ctx, nat.Port(port))
	if err != nil {
		_ = container.Terminate(ctx)
		return Endpoint{}, fmt.Errorf("get %s port: %w", req.Image, err)
	}

	return Endpoint{Host: host, Port: mapped.Port()}, nil
}

// StartRedis starts one Redis container per test process
func StartRedis(t *testing.T) Endpoint {
	t.Helper()
	skipUnlessIntegration(t)

	redisOnce.Do(func() {
		redisAddr, redisErr = start(context.Background(), testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		}, "6379/tcp")
	})

	if redisErr != nil {
		t.Fatalf("Redis container failed: %v", redisErr)
	}
	return redisAddr
}

// StartPostgres starts one Postgres container per test process and returns its URL
func StartPostgres(t *testing.T) string {
	t.Helper()
	skipUnlessIntegration(t)

	postgresOnce.Do(func() {
		postgresEP, postgresErr = start(context.Background(), testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "coach",
				"POSTGRES_PASSWORD": "coach",
				"POSTGRES_DB":       "coach",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(90 * time.Second),
		}, "5432/tcp")
	})

	if postgresErr != nil {
		t.Fatalf("Postgres container failed: %v", postgresErr)
	}
	return fmt.Sprintf("postgres://coach:coach@%s:%s/coach?sslmode=disable", postgresEP.Host, postgresEP.Port)
}
