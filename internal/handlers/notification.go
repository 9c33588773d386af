// internal/handlers/notification.go
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/Degbogueur/stock-management/internal/core/domain"
	"github.com/Degbogueur/stock-management/internal/core/ports"
)

// NotificationHandler serves persisted stock alerts
type NotificationHandler struct {
	service ports.NotificationService
	logger  *slog.Logger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(service ports.NotificationService, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "notification")),
	}
}

// ListNotifications handles GET /api/v1/notifications
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := parseLimit(r, 20)

	var (
		notifications []domain.Notification
		err           error
	)
	if r.URL.Query().Get("unread") == "true" {
		notifications, err = h.service.Unread(ctx, limit)
	} else {
		notifications, err = h.service.Latest(ctx, limit)
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list notifications", slog.Any("error", err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"items": notifications})
}

// GetUnreadCount handles GET /api/v1/notifications/unread-count
func (h *NotificationHandler) GetUnreadCount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	count, err := h.service.UnreadCount(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to count unread notifications", slog.Any("error", err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]int{"unread": count})
}

// MarkRead handles POST /api/v1/notifications/{id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid notification ID format")
		return
	}

	if err := h.service.MarkRead(ctx, id); err != nil {
		if !domain.IsDomainError(err) {
			h.logger.ErrorContext(ctx, "failed to mark notification read",
				slog.String("notification_id", id.String()), slog.Any("error", err))
		}
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Notification marked as read"})
}

// MarkAllRead handles POST /api/v1/notifications/read-all
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.service.MarkAllRead(ctx); err != nil {
		h.logger.ErrorContext(ctx, "failed to mark notifications read", slog.Any("error", err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "All notifications marked as read"})
}

// DeleteNotification handles DELETE /api/v1/notifications/{id}
func (h *NotificationHandler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid notification ID format")
		return
	}

	if err := h.service.Delete(ctx, id); err != nil {
		if !domain.IsDomainError(err) {
			h.logger.ErrorContext(ctx, "failed to delete notification",
				slog.String("notification_id", id.String()), slog.Any("error", err))
		}
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Notification deleted"})
}

// ClearNotifications handles DELETE /api/v1/notifications
func (h *NotificationHandler) ClearNotifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.service.Clear(ctx); err != nil {
		h.logger.ErrorContext(ctx, "failed to clear notifications", slog.Any("error", err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Notifications cleared"})
}
