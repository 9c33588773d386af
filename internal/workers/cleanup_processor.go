// internal/workers/cleanup_processor.go
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/Degbogueur/stock-management/internal/adapters/storage"
	"github.com/Degbogueur/stock-management/internal/core/ports"
)

const exportRetention = 90 * 24 * time.Hour

// CleanupProcessor prunes stale derived data.
type CleanupProcessor struct {
	db      ports.Database
	storage storage.StorageClient
	logger  *slog.Logger
}

// NewCleanupProcessor creates a new cleanup processor
func NewCleanupProcessor(db ports.Database, st storage.StorageClient, logger *slog.Logger) *CleanupProcessor {
	return &CleanupProcessor{
		db:      db,
		storage: st,
		logger:  logger.With(slog.String("processor", "cleanup")),
	}
}

// CleanupNotifications removes read notifications older than 90 days.
func (p *CleanupProcessor) CleanupNotifications(ctx context.Context, t *asynq.Task) error {
	p.logger.InfoContext(ctx, "cleaning up read notifications")

	query := `DELETE FROM notifications WHERE is_read AND created_at < NOW() - INTERVAL '90 days'`

	result, err := p.db.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to cleanup notifications: %w", err)
	}

	p.logger.InfoContext(ctx, "notifications cleaned up",
		slog.Int64("rows_deleted", result.RowsAffected()))

	return nil
}

// CleanupExports prunes archived report exports past the retention window.
// Pre-signed URLs expire long before the objects do, so nothing still links
// to what gets deleted here.
func (p *CleanupProcessor) CleanupExports(ctx context.Context, t *asynq.Task) error {
	p.logger.InfoContext(ctx, "cleaning up archived exports")

	objects, err := p.storage.List(ctx, "exports/")
	if err != nil {
		return fmt.Errorf("failed to list archived exports: %w", err)
	}

	cutoff := time.Now().UTC().Add(-exportRetention)
	deleted := 0
	for _, obj := range objects {
		if !obj.LastModified.Before(cutoff) {
			continue
		}
		if err := p.storage.Delete(ctx, obj.Key); err != nil {
			p.logger.WarnContext(ctx, "failed to delete archived export",
				slog.String("key", obj.Key),
				slog.Any("error", err))
			continue
		}
		deleted++
	}

	p.logger.InfoContext(ctx, "archived exports cleaned up",
		slog.Int("scanned", len(objects)),
		slog.Int("deleted", deleted))

	return nil
}
