// internal/pkg/config/config.go
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration, loaded once at startup.
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Asynq    AsynqConfig
	AWS      AWSConfig
	Stock    StockConfig
	Security SecurityConfig
	Server   ServerConfig
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Version     string
	LogLevel    string
	LogFormat   string // json, text
	Debug       bool
}

// DatabaseConfig holds the Postgres pool settings.
type DatabaseConfig struct {
	Host               string `required:"true"`
	Port               string
	User               string
	Password           string
	Name               string `required:"true"`
	SSLMode            string
	MaxConnections     int32
	MinConnections     int32
	MaxConnLifetime    time.Duration
	MaxConnIdleTime    time.Duration
	HealthCheckPeriod  time.Duration
	ConnectTimeout     time.Duration
	EnableQueryLogging bool
}

// RedisConfig holds the cache client settings.
type RedisConfig struct {
	Host            string
	Port            string
	Password        string
	DB              int
	MaxRetries      int
	MinRetryBackoff time.Duration
	MaxRetryBackoff time.Duration
	DialTimeout     time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	PoolSize        int
	MinIdleConns    int
	PoolTimeout     time.Duration
	TTL             time.Duration
}

// AsynqConfig holds the task queue settings.
type AsynqConfig struct {
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	Concurrency     int
	Queues          map[string]int // queue name -> priority
	StrictPriority  bool
	RetryMax        int
	ShutdownTimeout time.Duration
}

// AWSConfig holds the report archive settings. Endpoint and path style
// exist for MinIO in development.
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	S3Endpoint      string
	UsePathStyle    bool
}

// StockConfig holds inventory-tracking configuration.
type StockConfig struct {
	SnapshotSchedule     string `required:"true"` // cron expression for the weekly snapshot
	NotificationMaxAge   time.Duration
	ExportURLTTL         time.Duration
	DefaultLowStockLevel int
}

// SecurityConfig holds the HTTP hardening settings.
type SecurityConfig struct {
	RateLimitRequests int
	RateLimitDuration time.Duration
	AllowedOrigins    []string
	SecureHeaders     bool
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Host            string
	Port            string `required:"true"`
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	MaxHeaderBytes  int
	GracefulTimeout time.Duration
	EnablePprof     bool
	TLSEnabled      bool
	TLSCertFile     string
	TLSKeyFile      string
}

// Load reads configuration from the environment, falling back to a .env
// file outside production, and validates the result.
func Load(logger *slog.Logger) (*Config, error) {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env == "development" || env == "local" {
		if err := godotenv.Load(); err != nil {
			logger.Warn("no .env file found, using environment variables",
				slog.String("error", err.Error()))
		} else {
			logger.Info(".env file loaded")
		}
	}

	viper.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name:        envString("APP_NAME", "stock-api"),
			Environment: env,
			Version:     envString("APP_VERSION", "dev"),
			LogLevel:    envString("LOG_LEVEL", "debug"),
			LogFormat:   envString("LOG_FORMAT", "json"),
			Debug:       envBool("APP_DEBUG", env == "development"),
		},
		Database: DatabaseConfig{
			Host:               envString("DB_HOST", "localhost"),
			Port:               envString("DB_PORT", "5432"),
			User:               envString("DB_USER", "stock"),
			Password:           envString("DB_PASSWORD", "stock_dev_2025"),
			Name:               envString("DB_NAME", "stock_management"),
			SSLMode:            envString("DB_SSL_MODE", "disable"),
			MaxConnections:     int32(envInt("DB_MAX_CONNECTIONS", 25)),
			MinConnections:     int32(envInt("DB_MIN_CONNECTIONS", 5)),
			MaxConnLifetime:    envDuration("DB_CONNECTION_LIFETIME", time.Hour),
			MaxConnIdleTime:    envDuration("DB_IDLE_TIME", 30*time.Minute),
			HealthCheckPeriod:  envDuration("DB_HEALTH_CHECK_PERIOD", time.Minute),
			ConnectTimeout:     envDuration("DB_CONNECT_TIMEOUT", 10*time.Second),
			EnableQueryLogging: envBool("DB_QUERY_LOGGING", env == "development"),
		},
		Redis: RedisConfig{
			Host:            envString("REDIS_HOST", "localhost"),
			Port:            envString("REDIS_PORT", "6379"),
			Password:        envString("REDIS_PASSWORD", ""),
			DB:              envInt("REDIS_DB", 0),
			MaxRetries:      envInt("REDIS_MAX_RETRIES", 3),
			MinRetryBackoff: envDuration("REDIS_MIN_RETRY_BACKOFF", 8*time.Millisecond),
			MaxRetryBackoff: envDuration("REDIS_MAX_RETRY_BACKOFF", 512*time.Millisecond),
			DialTimeout:     envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:     envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout:    envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			PoolSize:        envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns:    envInt("REDIS_MIN_IDLE_CONNS", 2),
			PoolTimeout:     envDuration("REDIS_POOL_TIMEOUT", 4*time.Second),
			TTL:             envDuration("REDIS_TTL", time.Hour),
		},
		Asynq: AsynqConfig{
			RedisAddr:       envString("REDIS_HOST", "localhost") + ":" + envString("REDIS_PORT", "6379"),
			RedisPassword:   envString("REDIS_PASSWORD", ""),
			RedisDB:         envInt("ASYNQ_REDIS_DB", 0),
			Concurrency:     envInt("ASYNQ_CONCURRENCY", 10),
			Queues:          parseQueues(envString("ASYNQ_QUEUES", "critical:6,default:3,low:1")),
			StrictPriority:  envBool("ASYNQ_STRICT_PRIORITY", false),
			RetryMax:        envInt("ASYNQ_RETRY_MAX", 3),
			ShutdownTimeout: envDuration("ASYNQ_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		AWS: AWSConfig{
			Region:          envString("AWS_REGION", "us-east-1"),
			AccessKeyID:     envString("AWS_ACCESS_KEY_ID", "minioadmin"),
			SecretAccessKey: envString("AWS_SECRET_ACCESS_KEY", "minioadmin123"),
			S3Bucket:        envString("AWS_S3_BUCKET", "stock-reports"),
			S3Endpoint:      envString("AWS_S3_ENDPOINT", ""),
			UsePathStyle:    envBool("AWS_S3_PATH_STYLE", env == "development"),
		},
		Stock: StockConfig{
			SnapshotSchedule:     envString("SNAPSHOT_SCHEDULE", "0 10 * * 1"),
			NotificationMaxAge:   envDuration("NOTIFICATION_MAX_AGE", 90*24*time.Hour),
			ExportURLTTL:         envDuration("EXPORT_URL_TTL", 24*time.Hour),
			DefaultLowStockLevel: envInt("DEFAULT_LOW_STOCK_LEVEL", 5),
		},
		Security: SecurityConfig{
			RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 100),
			RateLimitDuration: envDuration("RATE_LIMIT_DURATION", time.Minute),
			AllowedOrigins:    envSlice("ALLOWED_ORIGINS", []string{"*"}),
			SecureHeaders:     envBool("SECURE_HEADERS", env == "production"),
		},
		Server: ServerConfig{
			Host:            envString("SERVER_HOST", "0.0.0.0"),
			Port:            envString("SERVER_PORT", "8080"),
			ReadTimeout:     envDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    envDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     envDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			MaxHeaderBytes:  envInt("SERVER_MAX_HEADER_BYTES", 1<<20),
			GracefulTimeout: envDuration("SERVER_GRACEFUL_TIMEOUT", 30*time.Second),
			EnablePprof:     envBool("ENABLE_PPROF", env == "development"),
			TLSEnabled:      envBool("TLS_ENABLED", false),
			TLSCertFile:     envString("TLS_CERT_FILE", ""),
			TLSKeyFile:      envString("TLS_KEY_FILE", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validator checks one aspect of the loaded configuration.
type Validator interface {
	Validate(cfg *Config) error
}

// Validate runs the validator chain. Production environments get the
// stricter checks on top of the basic ones.
func (c *Config) Validate() error {
	validators := []Validator{
		&BasicValidator{},
		&SecurityValidator{},
	}
	if c.IsProduction() {
		validators = append(validators, &ProductionValidator{})
	}

	for _, v := range validators {
		if err := v.Validate(c); err != nil {
			return err
		}
	}
	return nil
}

// GetDatabaseURL returns the Postgres connection string.
func (c *Config) GetDatabaseURL() string {
	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the host:port the HTTP server binds to.
func (c *Config) GetServerAddress() string {
	return c.Server.Host + ":" + c.Server.Port
}

// IsProduction reports whether the app runs in production.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment reports whether the app runs in development.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development" || c.App.Environment == "local"
}

// Env helpers: viper resolves the environment lookup, the default is
// registered so typed Get calls coerce consistently.

func envString(key, def string) string {
	viper.SetDefault(key, def)
	return viper.GetString(key)
}

func envBool(key string, def bool) bool {
	viper.SetDefault(key, def)
	return viper.GetBool(key)
}

func envInt(key string, def int) int {
	viper.SetDefault(key, def)
	return viper.GetInt(key)
}

func envDuration(key string, def time.Duration) time.Duration {
	viper.SetDefault(key, def)
	return viper.GetDuration(key)
}

func envSlice(key string, def []string) []string {
	if value := viper.GetString(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return def
}

// parseQueues parses "name:priority" pairs, e.g. "critical:6,default:3".
func parseQueues(spec string) map[string]int {
	queues := make(map[string]int)
	for _, pair := range strings.Split(spec, ",") {
		name, prio, ok := strings.Cut(pair, ":")
		if !ok {
			continue
		}
		var p int
		if _, err := fmt.Sscanf(strings.TrimSpace(prio), "%d", &p); err == nil {
			queues[strings.TrimSpace(name)] = p
		}
	}
	if len(queues) == 0 {
		queues["default"] = 1
	}
	return queues
}
