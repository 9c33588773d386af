// cmd/worker/main.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/Degbogueur/stock-management/internal/adapters/db"
	redis_a "github.com/Degbogueur/stock-management/internal/adapters/redis_adapter"
	"github.com/Degbogueur/stock-management/internal/adapters/storage"
	"github.com/Degbogueur/stock-management/internal/core/services"
	"github.com/Degbogueur/stock-management/internal/pkg/config"
	"github.com/Degbogueur/stock-management/internal/pkg/logger"
	"github.com/Degbogueur/stock-management/internal/workers"
)

// scheduledTask pairs a cron expression with the task it enqueues. All
// recurring work runs on the low priority queue.
type scheduledTask struct {
	cron string
	typ  string
}

func main() {
	slogger := logger.SetupLogger("info", "json")

	cfg, err := config.Load(slogger.Logger)
	if err != nil {
		fatal(slogger, "configuration load failed", err)
	}

	slogger = logger.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	slogger.Info("starting worker",
		slog.String("environment", cfg.App.Environment),
		slog.String("redis_addr", cfg.Asynq.RedisAddr))

	log := slogger.Logger
	ctx := context.Background()

	database, err := initDatabase(ctx, cfg, log)
	if err != nil {
		fatal(slogger, "database initialization failed", err)
	}
	defer database.Close()

	// Redis holds job results and presigned report URLs.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		fatal(slogger, "redis connection failed", err)
	}
	defer redisClient.Close()
	cache := redis_a.NewCache(redisClient, cfg.Redis.TTL, log)

	s3Storage, err := storage.NewS3Storage(ctx, &storage.S3Config{
		Region:          cfg.AWS.Region,
		Bucket:          cfg.AWS.S3Bucket,
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
		Endpoint:        cfg.AWS.S3Endpoint,
		UsePathStyle:    cfg.AWS.UsePathStyle,
	}, log)
	if err != nil {
		fatal(slogger, "report archive initialization failed", err)
	}

	productRepo := db.NewProductRepository(database, log)
	operationRepo := db.NewOperationRepository(database, log)
	snapshotRepo := db.NewSnapshotRepository(database, log)
	inventoryRepo := db.NewInventoryRepository(database, log)

	snapshotService := services.NewSnapshotService(snapshotRepo, log)
	reportService := services.NewReportService(productRepo, operationRepo, snapshotRepo, inventoryRepo, log)

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Asynq.RedisAddr,
		Password: cfg.Asynq.RedisPassword,
		DB:       cfg.Asynq.RedisDB,
	}

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency:     cfg.Asynq.Concurrency,
		Queues:          cfg.Asynq.Queues,
		StrictPriority:  cfg.Asynq.StrictPriority,
		ErrorHandler:    asynq.ErrorHandlerFunc(handleError),
		RetryDelayFunc:  exponentialBackoff,
		ShutdownTimeout: cfg.Asynq.ShutdownTimeout,
		HealthCheckFunc: healthCheck,
		Logger:          newAsynqLogger(log),
	})

	snapshotProcessor := workers.NewSnapshotProcessor(snapshotService, log)
	exportProcessor := workers.NewExportProcessor(reportService, s3Storage, cache, log)
	cleanupProcessor := workers.NewCleanupProcessor(database, s3Storage, log)

	mux := asynq.NewServeMux()
	mux.HandleFunc(workers.TypeWeeklySnapshot, snapshotProcessor.ProcessWeeklySnapshot)
	mux.HandleFunc(workers.TypeReportExport, exportProcessor.ProcessExport)
	mux.HandleFunc(workers.TypeCleanupNotifications, cleanupProcessor.CleanupNotifications)
	mux.HandleFunc(workers.TypeCleanupExports, cleanupProcessor.CleanupExports)

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Logger:   newAsynqLogger(log),
		Location: time.UTC,
	})

	schedule := []scheduledTask{
		{cfg.Stock.SnapshotSchedule, workers.TypeWeeklySnapshot},
		{"0 3 * * *", workers.TypeCleanupNotifications},
		{"30 3 * * 0", workers.TypeCleanupExports},
	}
	for _, st := range schedule {
		if _, err := scheduler.Register(st.cron, asynq.NewTask(st.typ, nil), asynq.Queue("low")); err != nil {
			fatal(slogger, "task scheduling failed: "+st.typ, err)
		}
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := scheduler.Run(); err != nil {
			slogger.Error("scheduler stopped", slog.String("error", err.Error()))
			shutdown <- syscall.SIGTERM
		}
	}()
	go func() {
		if err := srv.Run(mux); err != nil {
			slogger.Error("worker server stopped", slog.String("error", err.Error()))
			shutdown <- syscall.SIGTERM
		}
	}()

	slogger.Info("worker started",
		slog.Int("concurrency", cfg.Asynq.Concurrency),
		slog.String("snapshot_schedule", cfg.Stock.SnapshotSchedule),
		slog.Any("queues", cfg.Asynq.Queues))

	sig := <-shutdown
	slogger.Info("shutdown signal received", slog.String("signal", sig.String()))

	scheduler.Shutdown()
	srv.Shutdown()
	slogger.Info("worker shutdown complete")
}

func fatal(log *logger.Logger, msg string, err error) {
	log.Error(msg, slog.String("error", err.Error()))
	os.Exit(1)
}

func initDatabase(ctx context.Context, cfg *config.Config, log *slog.Logger) (*db.Database, error) {
	dbConfig := db.DefaultConfig()
	dbConfig.Host = cfg.Database.Host
	dbConfig.Port = cfg.Database.Port
	dbConfig.User = cfg.Database.User
	dbConfig.Password = cfg.Database.Password
	dbConfig.Database = cfg.Database.Name
	dbConfig.SSLMode = cfg.Database.SSLMode
	// Background jobs need far fewer connections than the api.
	dbConfig.MaxConnections = 10
	dbConfig.MinConnections = 2
	dbConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	dbConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime
	dbConfig.HealthCheckPeriod = cfg.Database.HealthCheckPeriod
	dbConfig.ConnectTimeout = cfg.Database.ConnectTimeout
	dbConfig.EnableQueryLogging = cfg.Database.EnableQueryLogging

	return db.NewDatabase(ctx, dbConfig, log)
}

func handleError(ctx context.Context, task *asynq.Task, err error) {
	slog.ErrorContext(ctx, "task processing failed",
		slog.String("type", task.Type()),
		slog.String("payload", string(task.Payload())),
		slog.String("error", err.Error()))
}

func exponentialBackoff(n int, _ error, _ *asynq.Task) time.Duration {
	const maxDelay = 10 * time.Minute
	delay := time.Second * time.Duration(1<<uint(n))
	if delay > maxDelay {
		return maxDelay
	}
	return delay
}

func healthCheck(err error) {
	if err != nil {
		slog.Error("worker health check failed", slog.String("error", err.Error()))
	}
}

// asynqLogger adapts slog to the print-style interface asynq expects.
type asynqLogger struct {
	log *slog.Logger
}

func newAsynqLogger(log *slog.Logger) *asynqLogger {
	return &asynqLogger{log: log.With(slog.String("component", "asynq"))}
}

func (l *asynqLogger) Debug(args ...interface{}) { l.log.Debug(fmt.Sprint(args...)) }
func (l *asynqLogger) Info(args ...interface{})  { l.log.Info(fmt.Sprint(args...)) }
func (l *asynqLogger) Warn(args ...interface{})  { l.log.Warn(fmt.Sprint(args...)) }
func (l *asynqLogger) Error(args ...interface{}) { l.log.Error(fmt.Sprint(args...)) }

func (l *asynqLogger) Fatal(args ...interface{}) {
	l.log.Error(fmt.Sprint(args...))
	os.Exit(1)
}
