//go:build integration

// Package integration runs the prediction stack against real PostgreSQL,
// Redis and MinIO containers. Run with:
//
//	MOLPROP_INTEGRATION_TEST=1 go test -tags integration ./test/integration/...
package integration

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/turtacn/MolProp-Intelligence/internal/config"
	"github.com/turtacn/MolProp-Intelligence/internal/testutil"
)

// EnvIntegrationEnabled controls whether integration tests run.
const EnvIntegrationEnabled = "MOLPROP_INTEGRATION_TEST"

const startupTimeout = 90 * time.Second

// requireIntegration skips unless integration tests were requested.
func requireIntegration(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("integration tests are disabled in -short mode")
	}
	if os.Getenv(EnvIntegrationEnabled) == "" {
		t.Skipf("set %s=1 to run integration tests", EnvIntegrationEnabled)
	}
}

// baseConfig returns a config sized for the tiny test model with every
// optional tier off.
func baseConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Log.Level = "debug"
	cfg.Metrics.Enabled = false
	cfg.Inference.Artifacts.Dir = t.TempDir()
	cfg.Inference.FingerprintBits = testutil.TinyArchitecture.InputWidth
	cfg.Inference.Heads = testutil.TinyArchitecture.Heads
	cfg.Cache.LocalSizeMB = 1
	return cfg
}

// startPostgres runs postgres:16-alpine and points cfg.Database at it.
func startPostgres(t *testing.T, cfg *config.Config) {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		tcpostgres.WithDatabase("molprop_test"),
		tcpostgres.WithUsername("molprop"),
		tcpostgres.WithPassword("molprop"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(startupTimeout)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	cfg.Database.Enabled = true
	cfg.Database.Host = host
	cfg.Database.Port = port.Int()
	cfg.Database.User = "molprop"
	cfg.Database.Password = "molprop"
	cfg.Database.DBName = "molprop_test"
	cfg.Database.SSLMode = "disable"
	cfg.Database.MaxConns = 4
	cfg.Database.AutoMigrate = true
}

// startRedis runs redis:7-alpine and points cfg.Redis at it.
func startRedis(t *testing.T, cfg *config.Config) {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.RunContainer(ctx, testcontainers.WithImage("redis:7-alpine"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	cfg.Redis.Enabled = true
	cfg.Redis.Addr = fmt.Sprintf("%s:%s", host, port.Port())
	cfg.Cache.Enabled = true
}

// startMinIO runs a MinIO server and points cfg.MinIO at it.
func startMinIO(t *testing.T, cfg *config.Config) {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "minio/minio:RELEASE.2024-01-16T16-07-38Z",
		ExposedPorts: []string{"9000/tcp"},
		Env: map[string]string{
			"MINIO_ROOT_USER":     "minioadmin",
			"MINIO_ROOT_PASSWORD": "minioadmin",
		},
		Cmd:        []string{"server", "/data"},
		WaitingFor: wait.ForHTTP("/minio/health/live").WithPort("9000/tcp").WithStartupTimeout(startupTimeout),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "9000")
	require.NoError(t, err)

	cfg.MinIO.Endpoint = host + ":" + strconv.Itoa(port.Int())
	cfg.MinIO.AccessKey = "minioadmin"
	cfg.MinIO.SecretKey = "minioadmin"
	cfg.MinIO.Bucket = "molprop-artifacts"
	cfg.MinIO.UseSSL = false
}

//Personal.AI order the ending
