// internal/adapters/db/notification_repository.go
package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Degbogueur/stock-management/internal/core/domain"
	"github.com/Degbogueur/stock-management/internal/core/ports"
)

// notificationRepository implements ports.NotificationRepository
type notificationRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *Database, logger *slog.Logger) ports.NotificationRepository {
	return &notificationRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "notification")),
	}
}

var _ ports.NotificationRepository = (*notificationRepository)(nil)

// SaveBatch inserts notifications in one round trip
func (r *notificationRepository) SaveBatch(ctx context.Context, notifications []domain.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO notifications (id, title, message, level, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	for i := range notifications {
		n := &notifications[i]
		batch.Queue(query, n.ID, n.Title, n.Message, n.Level, n.IsRead, n.CreatedAt)
	}

	br := r.db.Pool().SendBatch(ctx, batch)
	for i := range notifications {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("failed to save notification %d: %w", i, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to close batch: %w", err)
	}

	r.logger.DebugContext(ctx, "notifications saved",
		slog.Int("count", len(notifications)))

	return nil
}

// Latest returns the newest notifications, read or not
func (r *notificationRepository) Latest(ctx context.Context, limit int) ([]domain.Notification, error) {
	query := `
		SELECT id, title, message, level, is_read, created_at
		FROM notifications
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	return collectNotifications(rows)
}

// Unread returns the newest unread notifications
func (r *notificationRepository) Unread(ctx context.Context, limit int) ([]domain.Notification, error) {
	query := `
		SELECT id, title, message, level, is_read, created_at
		FROM notifications
		WHERE NOT is_read
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query unread notifications: %w", err)
	}
	return collectNotifications(rows)
}

func (r *notificationRepository) UnreadCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE NOT is_read`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFound("notification not found")
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE NOT is_read`); err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}

func (r *notificationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFound("notification not found")
	}
	return nil
}

func (r *notificationRepository) Clear(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM notifications`); err != nil {
		return fmt.Errorf("failed to clear notifications: %w", err)
	}
	return nil
}

func collectNotifications(rows pgx.Rows) ([]domain.Notification, error) {
	defer rows.Close()

	var notifications []domain.Notification
	for rows.Next() {
		var n domain.Notification
		err := rows.Scan(&n.ID, &n.Title, &n.Message, &n.Level, &n.IsRead, &n.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return notifications, nil
}
