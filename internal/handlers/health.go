// internal/handlers/health.go
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/Degbogueur/stock-management/internal/adapters/db"
	"github.com/Degbogueur/stock-management/internal/pkg/config"
)

// HealthHandler reports liveness and readiness of the service and its
// dependencies. The asynq inspector is optional; api deployments without a
// worker pass nil.
type HealthHandler struct {
	db        *db.Database
	redis     *redis.Client
	asynq     *asynq.Inspector
	config    *config.Config
	logger    *slog.Logger
	startTime time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(
	database *db.Database,
	redisClient *redis.Client,
	asynqInspector *asynq.Inspector,
	cfg *config.Config,
	logger *slog.Logger,
) *HealthHandler {
	return &HealthHandler{
		db:        database,
		redis:     redisClient,
		asynq:     asynqInspector,
		config:    cfg,
		logger:    logger.With(slog.String("handler", "health")),
		startTime: time.Now(),
	}
}

// HealthStatus is the /health response body.
type HealthStatus struct {
	Status       string                     `json:"status"`
	Version      string                     `json:"version"`
	Environment  string                     `json:"environment"`
	Uptime       string                     `json:"uptime"`
	Timestamp    time.Time                  `json:"timestamp"`
	Dependencies map[string]DependencyState `json:"dependencies"`
	Runtime      RuntimeInfo                `json:"runtime"`
}

// DependencyState is the probed state of one dependency.
type DependencyState struct {
	Status  string         `json:"status"`
	Latency string         `json:"latency,omitempty"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// RuntimeInfo carries process-level metrics.
type RuntimeInfo struct {
	GoVersion     string `json:"go_version"`
	NumGoroutines int    `json:"num_goroutines"`
	NumCPU        int    `json:"num_cpu"`
	MemoryAllocMB uint64 `json:"memory_alloc_mb"`
	NumGC         uint32 `json:"num_gc"`
}

type dependencyProbe struct {
	name  string
	check func(context.Context) DependencyState
}

// Health handles GET /health. Any unhealthy dependency degrades the overall
// status and flips the response to 503.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := HealthStatus{
		Status:       "healthy",
		Version:      h.config.App.Version,
		Environment:  h.config.App.Environment,
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
		Timestamp:    time.Now(),
		Dependencies: make(map[string]DependencyState),
		Runtime:      collectRuntimeInfo(),
	}

	for _, probe := range h.probes() {
		state := probe.check(ctx)
		health.Dependencies[probe.name] = state
		if state.Status != "healthy" {
			health.Status = "degraded"
		}
	}

	statusCode := http.StatusOK
	if health.Status == "degraded" {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	respondJSON(w, statusCode, health)
}

// Readiness handles GET /ready: a fast probe of the stores the request path
// cannot live without.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ready := true
	details := make(map[string]string)

	if err := h.db.Ping(ctx); err != nil {
		ready = false
		details["database"] = "not ready"
	} else {
		details["database"] = "ready"
	}

	if err := h.redis.Ping(ctx).Err(); err != nil {
		ready = false
		details["redis"] = "not ready"
	} else {
		details["redis"] = "ready"
	}

	statusCode := http.StatusOK
	if !ready {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	respondJSON(w, statusCode, map[string]any{
		"ready":   ready,
		"details": details,
	})
}

func (h *HealthHandler) probes() []dependencyProbe {
	probes := []dependencyProbe{
		{name: "database", check: h.checkDatabase},
		{name: "redis", check: h.checkRedis},
	}
	if h.asynq != nil {
		probes = append(probes, dependencyProbe{name: "asynq", check: h.checkAsynq})
	}
	return probes
}

func (h *HealthHandler) checkDatabase(ctx context.Context) DependencyState {
	start := time.Now()

	if err := h.db.Ping(ctx); err != nil {
		h.logger.ErrorContext(ctx, "database health check failed", slog.Any("error", err))
		return DependencyState{Status: "unhealthy", Message: err.Error()}
	}

	state := DependencyState{
		Status:  "healthy",
		Details: make(map[string]any),
	}
	for k, v := range h.db.Health(ctx) {
		state.Details[k] = v
	}
	state.Latency = time.Since(start).String()

	return state
}

func (h *HealthHandler) checkRedis(ctx context.Context) DependencyState {
	start := time.Now()

	if err := h.redis.Ping(ctx).Err(); err != nil {
		h.logger.ErrorContext(ctx, "redis health check failed", slog.Any("error", err))
		return DependencyState{Status: "unhealthy", Message: err.Error()}
	}

	poolStats := h.redis.PoolStats()
	state := DependencyState{
		Status: "healthy",
		Details: map[string]any{
			"total_conns": poolStats.TotalConns,
			"idle_conns":  poolStats.IdleConns,
			"stale_conns": poolStats.StaleConns,
		},
	}
	state.Latency = time.Since(start).String()

	return state
}

func (h *HealthHandler) checkAsynq(ctx context.Context) DependencyState {
	start := time.Now()

	queues, err := h.asynq.Queues()
	if err != nil {
		h.logger.ErrorContext(ctx, "asynq health check failed", slog.Any("error", err))
		return DependencyState{Status: "unhealthy", Message: err.Error()}
	}

	queueStats := make(map[string]any, len(queues))
	for _, queue := range queues {
		qInfo, err := h.asynq.GetQueueInfo(queue)
		if err != nil {
			continue
		}
		queueStats[queue] = map[string]any{
			"size":      qInfo.Size,
			"active":    qInfo.Active,
			"pending":   qInfo.Pending,
			"scheduled": qInfo.Scheduled,
			"retry":     qInfo.Retry,
		}
	}

	state := DependencyState{
		Status:  "healthy",
		Details: map[string]any{"queues": queueStats},
	}
	if servers, err := h.asynq.Servers(); err == nil && len(servers) > 0 {
		state.Details["servers"] = len(servers)
		state.Details["workers"] = servers[0].ActiveWorkers
	}
	state.Latency = time.Since(start).String()

	return state
}

func collectRuntimeInfo() RuntimeInfo {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return RuntimeInfo{
		GoVersion:     runtime.Version(),
		NumGoroutines: runtime.NumGoroutine(),
		NumCPU:        runtime.NumCPU(),
		MemoryAllocMB: memStats.Alloc / 1024 / 1024,
		NumGC:         memStats.NumGC,
	}
}
