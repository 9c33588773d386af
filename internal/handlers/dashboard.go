// internal/handlers/dashboard.go
package handlers

import (
	"log/slog"
	"net/http"
	"time"

	redis_a "github.com/Degbogueur/stock-management/internal/adapters/redis_adapter"
	"github.com/Degbogueur/stock-management/internal/core/ports"
)

// DashboardHandler serves the warehouse summary dashboard
type DashboardHandler struct {
	reports       ports.ReportService
	notifications ports.NotificationService
	cache         ports.CacheRepository
	logger        *slog.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(reports ports.ReportService, notifications ports.NotificationService, cache ports.CacheRepository, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		reports:       reports,
		notifications: notifications,
		cache:         cache,
		logger:        logger.With(slog.String("handler", "dashboard")),
	}
}

// DashboardData is the dashboard response payload
type DashboardData struct {
	Stats       *ports.DashboardStats `json:"stats"`
	UnreadCount int                   `json:"unread_notifications"`
	Timestamp   time.Time             `json:"timestamp"`
}

// GetDashboard handles GET /api/v1/dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	start, err := parseDateParam(r, "start_date")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	end, err := parseDateParam(r, "end_date")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	cacheKey := redis_a.BuildKey(redis_a.PrefixDashboard, periodKey(start, end))

	var dashboard DashboardData
	err = h.cache.GetOrSet(ctx, cacheKey, &dashboard, func() (interface{}, error) {
		return h.loadDashboardData(r, start, end)
	}, 5*time.Minute)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load dashboard", slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, "Failed to load dashboard")
		return
	}

	respondJSON(w, http.StatusOK, dashboard)
}

func (h *DashboardHandler) loadDashboardData(r *http.Request, start, end *time.Time) (*DashboardData, error) {
	ctx := r.Context()

	stats, err := h.reports.DashboardStats(ctx, start, end)
	if err != nil {
		return nil, err
	}

	unread, err := h.notifications.UnreadCount(ctx)
	if err != nil {
		// The dashboard is still useful without the badge.
		h.logger.WarnContext(ctx, "failed to count unread notifications", slog.Any("error", err))
		unread = 0
	}

	return &DashboardData{
		Stats:       stats,
		UnreadCount: unread,
		Timestamp:   time.Now().UTC(),
	}, nil
}

// periodKey derives a stable cache key part from the requested period.
func periodKey(start, end *time.Time) string {
	key := "main"
	if start != nil {
		key = start.Format("20060102")
	}
	if end != nil {
		key += "-" + end.Format("20060102")
	}
	return key
}
