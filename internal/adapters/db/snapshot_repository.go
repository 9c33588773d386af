// internal/adapters/db/snapshot_repository.go
package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Degbogueur/stock-management/internal/core/domain"
	"github.com/Degbogueur/stock-management/internal/core/ports"
)

// snapshotRepository implements ports.SnapshotRepository
type snapshotRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(db *Database, logger *slog.Logger) ports.SnapshotRepository {
	return &snapshotRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "snapshot")),
	}
}

var _ ports.SnapshotRepository = (*snapshotRepository)(nil)

// LatestDateOnOrBefore returns the most recent snapshot date <= asOf
func (r *snapshotRepository) LatestDateOnOrBefore(ctx context.Context, asOf time.Time) (*time.Time, error) {
	query := `SELECT MAX(snapshot_date) FROM stock_snapshots WHERE snapshot_date <= $1`

	var date *time.Time
	err := r.db.QueryRow(ctx, query, domain.DateOnly(asOf)).Scan(&date)
	if err != nil {
		return nil, fmt.Errorf("failed to find latest snapshot date: %w", err)
	}
	return date, nil
}

// QuantitiesAt returns the per-product baseline recorded at exactly this date
func (r *snapshotRepository) QuantitiesAt(ctx context.Context, date time.Time) (map[uuid.UUID]int, error) {
	query := `
		SELECT product_id, quantity_in_stock
		FROM stock_snapshots
		WHERE snapshot_date = $1`

	rows, err := r.db.Query(ctx, query, domain.DateOnly(date))
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	quantities := make(map[uuid.UUID]int)
	for rows.Next() {
		var productID uuid.UUID
		var quantity int
		if err := rows.Scan(&productID, &quantity); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		quantities[productID] = quantity
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return quantities, nil
}

// InsertForDate snapshots the current stock of every live product not yet
// snapshotted at the date. Rerunning for the same date writes nothing.
func (r *snapshotRepository) InsertForDate(ctx context.Context, date time.Time) (int, error) {
	query := `
		INSERT INTO stock_snapshots (id, product_id, snapshot_date, quantity_in_stock, created_at)
		SELECT uuid_generate_v4(), p.id, $1, p.current_stock, $2
		FROM products p
		WHERE p.deleted_at IS NULL
		ON CONFLICT (product_id, snapshot_date) DO NOTHING`

	tag, err := r.db.Exec(ctx, query, domain.DateOnly(date), time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to insert snapshots: %w", err)
	}

	written := int(tag.RowsAffected())
	r.logger.InfoContext(ctx, "stock snapshots written",
		slog.Time("snapshot_date", domain.DateOnly(date)),
		slog.Int("rows", written))

	return written, nil
}
