// internal/workers/snapshot_processor.go
package workers

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/Degbogueur/stock-management/internal/core/ports"
)

const (
	TypeWeeklySnapshot       = "snapshot:weekly"
	TypeReportExport         = "report:export"
	TypeCleanupNotifications = "cleanup:notifications"
	TypeCleanupExports       = "cleanup:exports"
)

// SnapshotProcessor runs the scheduled stock checkpoint task.
type SnapshotProcessor struct {
	service ports.SnapshotService
	logger  *slog.Logger
}

// NewSnapshotProcessor creates a new snapshot processor
func NewSnapshotProcessor(service ports.SnapshotService, logger *slog.Logger) *SnapshotProcessor {
	return &SnapshotProcessor{
		service: service,
		logger:  logger.With(slog.String("processor", "snapshot")),
	}
}

// ProcessWeeklySnapshot checkpoints every product's current stock for today.
// The task is idempotent: a retry on the same date writes nothing new.
func (p *SnapshotProcessor) ProcessWeeklySnapshot(ctx context.Context, t *asynq.Task) error {
	written, err := p.service.TakeSnapshot(ctx, time.Now().UTC())
	if err != nil {
		return err
	}

	p.logger.InfoContext(ctx, "weekly snapshot task finished",
		slog.Int("rows_written", written))

	return nil
}
