// internal/core/services/snapshot.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Degbogueur/stock-management/internal/core/domain"
	"github.com/Degbogueur/stock-management/internal/core/ports"
)

// SnapshotService writes the periodic reconstruction checkpoints the
// report engine reads from.
type SnapshotService struct {
	snapshots ports.SnapshotRepository
	logger    *slog.Logger
}

var _ ports.SnapshotService = (*SnapshotService)(nil)

// NewSnapshotService creates a new snapshot service.
func NewSnapshotService(snapshots ports.SnapshotRepository, logger *slog.Logger) *SnapshotService {
	return &SnapshotService{
		snapshots: snapshots,
		logger:    logger.With(slog.String("service", "snapshot")),
	}
}

// TakeSnapshot records the current stock of every live product for the
// given calendar date. Products already snapshotted at that date are
// skipped, so reruns for the same date insert nothing. Returns the number
// of snapshot rows written.
func (s *SnapshotService) TakeSnapshot(ctx context.Context, asOf time.Time) (int, error) {
	date := domain.DateOnly(asOf)

	written, err := s.snapshots.InsertForDate(ctx, date)
	if err != nil {
		return 0, fmt.Errorf("failed to take stock snapshot for %s: %w",
			date.Format("2006-01-02"), err)
	}

	if written > 0 {
		s.logger.InfoContext(ctx, "stock snapshot taken",
			slog.Time("snapshot_date", date),
			slog.Int("products", written))
	} else {
		s.logger.InfoContext(ctx, "stock snapshot already current, nothing to capture",
			slog.Time("snapshot_date", date))
	}

	return written, nil
}
