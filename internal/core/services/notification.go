// internal/core/services/notification.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Degbogueur/stock-management/internal/core/domain"
	"github.com/Degbogueur/stock-management/internal/core/ports"
)

// NotificationService persists and serves stock alert notifications.
type NotificationService struct {
	notifications ports.NotificationRepository
	logger        *slog.Logger
}

var _ ports.NotificationService = (*NotificationService)(nil)

func NewNotificationService(notifications ports.NotificationRepository, logger *slog.Logger) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		logger:        logger.With(slog.String("service", "notification")),
	}
}

// AddStockAlerts turns stock positions that crossed a threshold into
// persisted notifications. Out-of-stock outranks low-stock.
func (s *NotificationService) AddStockAlerts(ctx context.Context, alerts []domain.StockAlert) error {
	now := time.Now().UTC()

	notifications := make([]domain.Notification, 0, len(alerts))
	for _, alert := range alerts {
		switch {
		case alert.IsOutOfStock():
			notifications = append(notifications, domain.Notification{
				ID:        uuid.New(),
				Title:     "Out of stock",
				Message:   fmt.Sprintf("%s is out of stock", alert.ProductName),
				Level:     domain.NotificationError,
				CreatedAt: now,
			})
		case alert.IsLowStock():
			notifications = append(notifications, domain.Notification{
				ID:        uuid.New(),
				Title:     "Low stock",
				Message:   fmt.Sprintf("%s is down to %d units (minimum %d)", alert.ProductName, alert.NewStock, alert.MinimumStock),
				Level:     domain.NotificationWarning,
				CreatedAt: now,
			})
		}
	}
	if len(notifications) == 0 {
		return nil
	}

	if err := s.notifications.SaveBatch(ctx, notifications); err != nil {
		return fmt.Errorf("failed to save notifications: %w", err)
	}

	s.logger.InfoContext(ctx, "stock alerts recorded",
		slog.Int("count", len(notifications)))

	return nil
}

func (s *NotificationService) Latest(ctx context.Context, limit int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = 20
	}
	notifications, err := s.notifications.Latest(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

func (s *NotificationService) Unread(ctx context.Context, limit int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = 20
	}
	notifications, err := s.notifications.Unread(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list unread notifications: %w", err)
	}
	return notifications, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context) (int, error) {
	count, err := s.notifications.UnreadCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, id uuid.UUID) error {
	if err := s.notifications.MarkRead(ctx, id); err != nil {
		if domain.IsDomainError(err) {
			return err
		}
		return fmt.Errorf("failed to mark notification %s read: %w", id, err)
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context) error {
	if err := s.notifications.MarkAllRead(ctx); err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}

func (s *NotificationService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.notifications.Delete(ctx, id); err != nil {
		if domain.IsDomainError(err) {
			return err
		}
		return fmt.Errorf("failed to delete notification %s: %w", id, err)
	}
	return nil
}

func (s *NotificationService) Clear(ctx context.Context) error {
	if err := s.notifications.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear notifications: %w", err)
	}
	return nil
}
