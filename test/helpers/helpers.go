// test/helpers/helpers.go
package helpers

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/Degbogueur/stock-management/internal/adapters/db"
	"github.com/Degbogueur/stock-management/internal/core/domain"
	"github.com/Degbogueur/stock-management/internal/pkg/config"
	"github.com/Degbogueur/stock-management/internal/pkg/logger"
)

const (
	pgImage    = "postgres"
	pgTag      = "16-alpine"
	pgUser     = "stock"
	pgPassword = "stock"
	pgDatabase = "stock_test"
)

// TestDB bundles a disposable Postgres container with the pool and
// adapter pointed at it.
type TestDB struct {
	PgxPool  *pgxpool.Pool
	Database *db.Database
	Resource *dockertest.Resource
	Pool     *dockertest.Pool
	Config   *db.Config
}

// TestRedis bundles a miniredis server with a client connected to it.
type TestRedis struct {
	Client *redis.Client
	Server *miniredis.Miniredis
}

// TestLogger returns a logger that stays quiet unless -v is set.
func TestLogger() *slog.Logger {
	level := slog.LevelError
	if testing.Verbose() {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

// TestAppLogger returns the application logger used by middleware that
// requires the richer wrapper type.
func TestAppLogger() *logger.Logger {
	if testing.Verbose() {
		return logger.SetupLogger("debug", "text")
	}
	return logger.SetupLogger("error", "text")
}

// SetupTestDB starts a Postgres container, waits until it accepts
// connections and applies the embedded migrations. The container is
// purged when the test finishes.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	pool, err := dockertest.NewPool("")
	require.NoError(t, err, "docker is required for this test")

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: pgImage,
		Tag:        pgTag,
		Env: []string{
			"POSTGRES_USER=" + pgUser,
			"POSTGRES_PASSWORD=" + pgPassword,
			"POSTGRES_DB=" + pgDatabase,
			"listen_addresses = '*'",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err, "failed to start postgres container")

	t.Cleanup(func() {
		if err := pool.Purge(resource); err != nil {
			t.Logf("purge of postgres container failed: %s", err)
		}
	})

	dbConfig := testDBConfig(resource.GetPort("5432/tcp"))
	ctx := context.Background()

	var database *db.Database
	err = pool.Retry(func() error {
		var retryErr error
		if database, retryErr = db.NewDatabase(ctx, dbConfig, TestLogger()); retryErr != nil {
			return retryErr
		}
		return database.Ping(ctx)
	})
	require.NoError(t, err, "postgres never became reachable")

	url := fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=disable",
		pgUser, pgPassword, dbConfig.Host, dbConfig.Port, pgDatabase)
	require.NoError(t,
		db.RunMigrationsWithRetry(ctx, db.EmbeddedMigrationConfig(url), TestLogger(), 3),
		"migrations failed")

	return &TestDB{
		PgxPool:  database.Pool(),
		Database: database,
		Resource: resource,
		Pool:     pool,
		Config:   dbConfig,
	}
}

func testDBConfig(port string) *db.Config {
	cfg := db.DefaultConfig()
	cfg.Host = "localhost"
	cfg.Port = port
	cfg.User = pgUser
	cfg.Password = pgPassword
	cfg.Database = pgDatabase
	cfg.SSLMode = "disable"
	cfg.MaxConnections = 4
	cfg.MinConnections = 1
	cfg.ConnectTimeout = 10 * time.Second
	cfg.EnableQueryLogging = testing.Verbose()
	return cfg
}

// SetupTestRedis starts an in-process miniredis and a client for it, both
// torn down with the test.
func SetupTestRedis(t *testing.T) *TestRedis {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return &TestRedis{Client: client, Server: mr}
}

// LoadTestConfig returns a configuration suitable for in-process tests:
// middleware that needs real infrastructure is toggled off by the "test"
// environment.
func LoadTestConfig() *config.Config {
	cfg := &config.Config{}

	cfg.App = config.AppConfig{
		Name:        "stock-api-test",
		Environment: "test",
		Version:     "0.0.0-test",
		LogLevel:    "debug",
		LogFormat:   "text",
		Debug:       true,
	}
	cfg.Database = config.DatabaseConfig{
		Host:               "localhost",
		Port:               "5432",
		User:               pgUser,
		Password:           pgPassword,
		Name:               pgDatabase,
		SSLMode:            "disable",
		MaxConnections:     4,
		MinConnections:     1,
		EnableQueryLogging: true,
	}
	cfg.Redis = config.RedisConfig{
		Host:     "localhost",
		Port:     "6379",
		TTL:      15 * time.Minute,
		PoolSize: 4,
	}
	cfg.Stock = config.StockConfig{
		SnapshotSchedule:     "0 10 * * 1",
		NotificationMaxAge:   90 * 24 * time.Hour,
		ExportURLTTL:         24 * time.Hour,
		DefaultLowStockLevel: 5,
	}
	cfg.Security = config.SecurityConfig{
		RateLimitRequests: 50,
		RateLimitDuration: time.Minute,
		AllowedOrigins:    []string{"*"},
	}
	cfg.Server = config.ServerConfig{
		Host:         "localhost",
		Port:         "8080",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return cfg
}

// CreateTestProduct builds a product fixture, applying any overrides.
func CreateTestProduct(overrides ...func(*domain.Product)) *domain.Product {
	product := &domain.Product{
		ID:           uuid.New(),
		Name:         "Sparkling Water 500ml",
		Code:         "SKU-0001",
		CategoryID:   uuid.New(),
		CurrentStock: 40,
		MinimumStock: 10,
	}
	product.CreatedAt = time.Now()

	for _, override := range overrides {
		override(product)
	}

	return product
}
