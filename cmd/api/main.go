// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/Degbogueur/stock-management/internal/adapters/db"
	redis_a "github.com/Degbogueur/stock-management/internal/adapters/redis_adapter"
	"github.com/Degbogueur/stock-management/internal/core/ports"
	"github.com/Degbogueur/stock-management/internal/core/services"
	"github.com/Degbogueur/stock-management/internal/handlers"
	"github.com/Degbogueur/stock-management/internal/handlers/middleware"
	"github.com/Degbogueur/stock-management/internal/pkg/config"
	"github.com/Degbogueur/stock-management/internal/pkg/logger"
)

// Build information injected at compile time
var (
	Version   = "dev"
	BuildTime = "unknown"
	GoVersion = "unknown"
)

func main() {
	log := logger.SetupLogger("debug", "json")
	log.Info("starting stock management api",
		slog.String("version", Version),
		slog.String("build_time", BuildTime),
		slog.String("go_version", GoVersion),
	)

	cfg, err := config.Load(log.Logger)
	if err != nil {
		fatal(log, "configuration load failed", err)
	}

	// Reconfigure with the level and format the environment asked for.
	log = logger.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	log.Info("configuration loaded",
		slog.String("environment", cfg.App.Environment),
		slog.String("log_level", cfg.App.LogLevel),
	)

	ctx := context.Background()

	// Overlay secrets from the configured manager (AWS in production,
	// plain environment everywhere else).
	if err := cfg.ApplySecrets(ctx, selectSecretsManager(cfg, log.Logger)); err != nil {
		fatal(log, "secrets overlay failed", err)
	}

	deps, err := initializeDependencies(ctx, cfg, log.Logger)
	if err != nil {
		fatal(log, "dependency initialization failed", err)
	}
	defer deps.cleanup()

	// Production schemas are migrated by the deploy pipeline, not the api.
	if !cfg.IsProduction() {
		log.Info("running database migrations")
		migCfg := db.EmbeddedMigrationConfig(cfg.GetDatabaseURL())
		if err := db.RunMigrationsWithRetry(ctx, migCfg, log.Logger, 3); err != nil {
			log.Warn("migrations failed, continuing anyway", slog.String("error", err.Error()))
		}
	}

	server := setupHTTPServer(cfg, deps, log)

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("listening",
			slog.String("address", cfg.GetServerAddress()),
			slog.Bool("tls", cfg.Server.TLSEnabled),
		)
		if cfg.Server.TLSEnabled {
			serverErrors <- server.ListenAndServeTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile)
		} else {
			serverErrors <- server.ListenAndServe()
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", slog.String("error", err.Error()))
		}
	case sig := <-shutdown:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed, closing hard", slog.String("error", err.Error()))
			server.Close()
		}

		if deps.asynqClient != nil {
			if err := deps.asynqClient.Close(); err != nil {
				log.Error("asynq client close failed", slog.String("error", err.Error()))
			}
		}

		log.Info("server shutdown complete")
	}
}

func fatal(log *logger.Logger, msg string, err error) {
	log.Error(msg, slog.String("error", err.Error()))
	os.Exit(1)
}

// dependencies holds everything the http layer needs, built once at startup.
type dependencies struct {
	database       *db.Database
	redisClient    *redis.Client
	redisCache     ports.CacheRepository
	asynqClient    *asynq.Client
	asynqInspector *asynq.Inspector

	productHandler      *handlers.ProductHandler
	categoryHandler     *handlers.CategoryHandler
	supplierHandler     *handlers.SupplierHandler
	employeeHandler     *handlers.EmployeeHandler
	operationHandler    *handlers.OperationHandler
	inventoryHandler    *handlers.InventoryHandler
	reportHandler       *handlers.ReportHandler
	dashboardHandler    *handlers.DashboardHandler
	notificationHandler *handlers.NotificationHandler
	exportHandler       *handlers.ExportHandler
	healthHandler       *handlers.HealthHandler
}

func (d *dependencies) cleanup() {
	if d.database != nil {
		d.database.Close()
	}
	if d.redisClient != nil {
		d.redisClient.Close()
	}
	if d.asynqClient != nil {
		d.asynqClient.Close()
	}
}

func selectSecretsManager(cfg *config.Config, log *slog.Logger) config.SecretsManager {
	if !cfg.IsProduction() {
		return config.NewEnvSecretsManager()
	}

	secretName := fmt.Sprintf("%s/%s", cfg.App.Name, cfg.App.Environment)
	sm, err := config.NewAWSSecretsManager(cfg.AWS.Region, secretName, log)
	if err != nil {
		log.Warn("AWS secrets manager unavailable, falling back to environment",
			slog.String("error", err.Error()))
		return config.NewEnvSecretsManager()
	}
	return sm
}

func dbConfigFrom(cfg *config.Config) *db.Config {
	return &db.Config{
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		User:               cfg.Database.User,
		Password:           cfg.Database.Password,
		Database:           cfg.Database.Name,
		SSLMode:            cfg.Database.SSLMode,
		MaxConnections:     cfg.Database.MaxConnections,
		MinConnections:     cfg.Database.MinConnections,
		MaxConnLifetime:    cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:    cfg.Database.MaxConnIdleTime,
		HealthCheckPeriod:  cfg.Database.HealthCheckPeriod,
		ConnectTimeout:     cfg.Database.ConnectTimeout,
		EnableQueryLogging: cfg.Database.EnableQueryLogging,
	}
}

func redisOptionsFrom(cfg *config.Config) *redis.Options {
	return &redis.Options{
		Addr:            fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password:        cfg.Redis.Password,
		DB:              cfg.Redis.DB,
		MaxRetries:      cfg.Redis.MaxRetries,
		MinRetryBackoff: cfg.Redis.MinRetryBackoff,
		MaxRetryBackoff: cfg.Redis.MaxRetryBackoff,
		DialTimeout:     cfg.Redis.DialTimeout,
		ReadTimeout:     cfg.Redis.ReadTimeout,
		WriteTimeout:    cfg.Redis.WriteTimeout,
		PoolSize:        cfg.Redis.PoolSize,
		MinIdleConns:    cfg.Redis.MinIdleConns,
		PoolTimeout:     cfg.Redis.PoolTimeout,
	}
}

func initializeDependencies(ctx context.Context, cfg *config.Config, log *slog.Logger) (*dependencies, error) {
	deps := &dependencies{}

	log.Info("connecting to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Name),
	)
	database, err := db.NewDatabase(ctx, dbConfigFrom(cfg), log)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	deps.database = database

	log.Info("connecting to redis",
		slog.String("host", cfg.Redis.Host),
		slog.String("port", cfg.Redis.Port),
	)
	redisClient := redis.NewClient(redisOptionsFrom(cfg))
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	deps.redisClient = redisClient
	deps.redisCache = redis_a.NewCache(redisClient, cfg.Redis.TTL, log)

	asynqRedisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Asynq.RedisAddr,
		Password: cfg.Asynq.RedisPassword,
		DB:       cfg.Asynq.RedisDB,
	}
	deps.asynqClient = asynq.NewClient(asynqRedisOpt)
	deps.asynqInspector = asynq.NewInspector(asynqRedisOpt)

	productRepo := db.NewProductRepository(database, log)
	categoryRepo := db.NewCategoryRepository(database, log)
	supplierRepo := db.NewSupplierRepository(database, log)
	employeeRepo := db.NewEmployeeRepository(database, log)
	operationRepo := db.NewOperationRepository(database, log)
	inventoryRepo := db.NewInventoryRepository(database, log)
	snapshotRepo := db.NewSnapshotRepository(database, log)
	notificationRepo := db.NewNotificationRepository(database, log)

	notificationService := services.NewNotificationService(notificationRepo, log)
	productService := services.NewProductService(productRepo, categoryRepo, log)
	categoryService := services.NewCategoryService(categoryRepo, log)
	supplierService := services.NewSupplierService(supplierRepo, log)
	employeeService := services.NewEmployeeService(employeeRepo, log)
	operationService := services.NewOperationService(operationRepo, notificationService, log)
	inventoryService := services.NewInventoryService(inventoryRepo, productRepo, log)
	snapshotService := services.NewSnapshotService(snapshotRepo, log)
	reportService := services.NewReportService(productRepo, operationRepo, snapshotRepo, inventoryRepo, log)

	deps.productHandler = handlers.NewProductHandler(productService, deps.redisCache, log)
	deps.categoryHandler = handlers.NewCategoryHandler(categoryService, log)
	deps.supplierHandler = handlers.NewSupplierHandler(supplierService, log)
	deps.employeeHandler = handlers.NewEmployeeHandler(employeeService, log)
	deps.operationHandler = handlers.NewOperationHandler(operationService, deps.redisCache, log)
	deps.inventoryHandler = handlers.NewInventoryHandler(inventoryService, deps.redisCache, log)
	deps.reportHandler = handlers.NewReportHandler(reportService, snapshotService, deps.redisCache, log)
	deps.dashboardHandler = handlers.NewDashboardHandler(reportService, notificationService, deps.redisCache, log)
	deps.notificationHandler = handlers.NewNotificationHandler(notificationService, log)
	deps.exportHandler = handlers.NewExportHandler(reportService, deps.asynqClient, deps.redisCache, log)
	deps.healthHandler = handlers.NewHealthHandler(database, redisClient, deps.asynqInspector, cfg, log)

	log.Info("dependencies initialized")
	return deps, nil
}

func setupHTTPServer(cfg *config.Config, deps *dependencies, log *logger.Logger) *http.Server {
	mux := http.NewServeMux()
	registerRoutes(mux, deps, cfg)

	// Innermost first: the actor must be resolved by the time a handler runs.
	var handler http.Handler = mux
	handler = middleware.Actor(handler)

	if cfg.App.Environment != "test" {
		handler = middleware.Logger(log)(handler)
		handler = middleware.RequestID(handler)
		handler = middleware.Recovery(log.Logger)(handler)
	}
	if cfg.Security.RateLimitRequests > 0 {
		handler = middleware.RateLimit(cfg.Security.RateLimitRequests, cfg.Security.RateLimitDuration)(handler)
	}
	if len(cfg.Security.AllowedOrigins) > 0 {
		handler = middleware.CORS(cfg.Security.AllowedOrigins)(handler)
	}
	if cfg.Security.SecureHeaders {
		handler = middleware.SecureHeaders(handler)
	}

	return &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        handler,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(log.Logger.Handler(), slog.LevelError),
	}
}

func registerRoutes(mux *http.ServeMux, deps *dependencies, cfg *config.Config) {
	apiV1 := "/api/v1"

	mux.HandleFunc("GET /health", deps.healthHandler.Health)
	mux.HandleFunc("GET /ready", deps.healthHandler.Readiness)
	mux.HandleFunc("GET "+apiV1+"/health", deps.healthHandler.Health)

	mux.HandleFunc("GET "+apiV1+"/products", deps.productHandler.ListProducts)
	mux.HandleFunc("POST "+apiV1+"/products", deps.productHandler.CreateProduct)
	mux.HandleFunc("GET "+apiV1+"/products/names", deps.productHandler.SearchProductNames)
	mux.HandleFunc("GET "+apiV1+"/products/{id}", deps.productHandler.GetProduct)
	mux.HandleFunc("PUT "+apiV1+"/products/{id}", deps.productHandler.UpdateProduct)
	mux.HandleFunc("DELETE "+apiV1+"/products/{id}", deps.productHandler.DeleteProduct)

	mux.HandleFunc("GET "+apiV1+"/categories", deps.categoryHandler.ListCategories)
	mux.HandleFunc("POST "+apiV1+"/categories", deps.categoryHandler.CreateCategory)
	mux.HandleFunc("GET "+apiV1+"/categories/names", deps.categoryHandler.SearchCategoryNames)
	mux.HandleFunc("PUT "+apiV1+"/categories/{id}", deps.categoryHandler.UpdateCategory)
	mux.HandleFunc("DELETE "+apiV1+"/categories/{id}", deps.categoryHandler.DeleteCategory)

	mux.HandleFunc("GET "+apiV1+"/suppliers", deps.supplierHandler.ListSuppliers)
	mux.HandleFunc("POST "+apiV1+"/suppliers", deps.supplierHandler.CreateSupplier)
	mux.HandleFunc("GET "+apiV1+"/suppliers/names", deps.supplierHandler.SearchSupplierNames)
	mux.HandleFunc("PUT "+apiV1+"/suppliers/{id}", deps.supplierHandler.UpdateSupplier)
	mux.HandleFunc("DELETE "+apiV1+"/suppliers/{id}", deps.supplierHandler.DeleteSupplier)

	mux.HandleFunc("GET "+apiV1+"/employees", deps.employeeHandler.ListEmployees)
	mux.HandleFunc("POST "+apiV1+"/employees", deps.employeeHandler.CreateEmployee)
	mux.HandleFunc("GET "+apiV1+"/employees/search", deps.employeeHandler.SearchEmployees)
	mux.HandleFunc("PUT "+apiV1+"/employees/{id}", deps.employeeHandler.UpdateEmployee)
	mux.HandleFunc("DELETE "+apiV1+"/employees/{id}", deps.employeeHandler.DeleteEmployee)

	mux.HandleFunc("POST "+apiV1+"/operations/stock-in", deps.operationHandler.PostStockIn)
	mux.HandleFunc("POST "+apiV1+"/operations/stock-out", deps.operationHandler.PostStockOut)
	mux.HandleFunc("GET "+apiV1+"/operations", deps.reportHandler.GetOperations)

	mux.HandleFunc("GET "+apiV1+"/inventories", deps.inventoryHandler.ListInventories)
	mux.HandleFunc("POST "+apiV1+"/inventories", deps.inventoryHandler.CreateInventory)
	mux.HandleFunc("GET "+apiV1+"/inventories/rows", deps.inventoryHandler.GetInventoryRows)
	mux.HandleFunc("GET "+apiV1+"/inventories/{id}", deps.inventoryHandler.GetInventory)
	mux.HandleFunc("GET "+apiV1+"/inventories/{id}/rows", deps.inventoryHandler.GetInventoryRows)
	mux.HandleFunc("PUT "+apiV1+"/inventories/{id}", deps.inventoryHandler.UpdateInventory)
	mux.HandleFunc("DELETE "+apiV1+"/inventories/{id}", deps.inventoryHandler.DeleteInventory)

	mux.HandleFunc("GET "+apiV1+"/reports/stock-levels", deps.reportHandler.GetStockLevels)
	mux.HandleFunc("GET "+apiV1+"/reports/historical-stock", deps.reportHandler.GetHistoricalStock)
	mux.HandleFunc("GET "+apiV1+"/reports/stock-card/products", deps.reportHandler.GetStockCardProducts)
	mux.HandleFunc("GET "+apiV1+"/reports/stock-card/{productId}", deps.reportHandler.GetStockCard)
	mux.HandleFunc("POST "+apiV1+"/reports/snapshots", deps.reportHandler.TakeSnapshot)

	mux.HandleFunc("GET "+apiV1+"/dashboard", deps.dashboardHandler.GetDashboard)

	mux.HandleFunc("GET "+apiV1+"/notifications", deps.notificationHandler.ListNotifications)
	mux.HandleFunc("GET "+apiV1+"/notifications/unread-count", deps.notificationHandler.GetUnreadCount)
	mux.HandleFunc("PUT "+apiV1+"/notifications/read-all", deps.notificationHandler.MarkAllRead)
	mux.HandleFunc("PUT "+apiV1+"/notifications/{id}/read", deps.notificationHandler.MarkRead)
	mux.HandleFunc("DELETE "+apiV1+"/notifications", deps.notificationHandler.ClearNotifications)
	mux.HandleFunc("DELETE "+apiV1+"/notifications/{id}", deps.notificationHandler.DeleteNotification)

	mux.HandleFunc("POST "+apiV1+"/exports", deps.exportHandler.StartExport)
	mux.HandleFunc("GET "+apiV1+"/exports/{id}", deps.exportHandler.GetExport)
	mux.HandleFunc("GET "+apiV1+"/exports/stock-levels.xlsx", deps.exportHandler.DownloadStockLevels)
	mux.HandleFunc("GET "+apiV1+"/exports/operations.xlsx", deps.exportHandler.DownloadOperations)

	if cfg.Server.EnablePprof && cfg.IsDevelopment() {
		mux.HandleFunc("GET /debug/pprof/", http.HandlerFunc(http.DefaultServeMux.ServeHTTP))
	}
}
