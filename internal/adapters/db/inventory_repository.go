// internal/adapters/db/inventory_repository.go
package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Degbogueur/stock-management/internal/core/domain"
	"github.com/Degbogueur/stock-management/internal/core/ports"
)

// inventoryRepository implements ports.InventoryRepository
type inventoryRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewInventoryRepository creates a new inventory repository
func NewInventoryRepository(db *Database, logger *slog.Logger) ports.InventoryRepository {
	return &inventoryRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "inventory")),
	}
}

var _ ports.InventoryRepository = (*inventoryRepository)(nil)

// Save persists a new count session together with its rows in one transaction
func (r *inventoryRepository) Save(ctx context.Context, inventory *domain.Inventory) error {
	return r.db.Transaction(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO inventories (id, code, date, status, created_at, created_by)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			inventory.ID, inventory.Code, inventory.Date, inventory.Status,
			inventory.CreatedAt, inventory.CreatedBy,
		)
		if err != nil {
			return fmt.Errorf("failed to save inventory: %w", err)
		}

		batch := &pgx.Batch{}
		rowQuery := `
			INSERT INTO inventory_rows (id, inventory_id, product_id, expected_quantity, counted_quantity)
			VALUES ($1, $2, $3, $4, $5)`
		for i := range inventory.Rows {
			row := &inventory.Rows[i]
			if row.ID == uuid.Nil {
				row.ID = uuid.New()
			}
			row.InventoryID = inventory.ID
			batch.Queue(rowQuery, row.ID, row.InventoryID, row.ProductID,
				row.ExpectedQuantity, row.CountedQuantity)
		}

		br := tx.SendBatch(ctx, batch)
		for i := range inventory.Rows {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("failed to save inventory row %d: %w", i, err)
			}
		}
		if err := br.Close(); err != nil {
			return fmt.Errorf("failed to close batch: %w", err)
		}

		r.logger.InfoContext(ctx, "inventory saved",
			slog.String("inventory_id", inventory.ID.String()),
			slog.String("code", inventory.Code),
			slog.Int("rows", len(inventory.Rows)))

		return nil
	})
}

// UpdateCounts matches counted quantities to existing rows by product id and
// optionally advances the status, atomically. Only pending sessions accept
// updates.
func (r *inventoryRepository) UpdateCounts(ctx context.Context, id uuid.UUID, counted []ports.CountedRow, status *domain.InventoryStatus) error {
	return r.db.Transaction(ctx, func(tx pgx.Tx) error {
		var current domain.InventoryStatus
		err := tx.QueryRow(ctx, `
			SELECT status FROM inventories
			WHERE id = $1 AND deleted_at IS NULL
			FOR UPDATE`,
			id,
		).Scan(&current)
		if err != nil {
			if err == pgx.ErrNoRows {
				return domain.NewNotFound("inventory not found")
			}
			return fmt.Errorf("failed to load inventory: %w", err)
		}
		if !current.Editable() {
			return domain.NewValidation(fmt.Sprintf("inventory is %s and can no longer be updated", current))
		}

		batch := &pgx.Batch{}
		rowQuery := `
			UPDATE inventory_rows SET counted_quantity = $3
			WHERE inventory_id = $1 AND product_id = $2`
		for _, row := range counted {
			batch.Queue(rowQuery, id, row.ProductID, row.CountedQuantity)
		}

		br := tx.SendBatch(ctx, batch)
		for range counted {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("failed to update inventory row: %w", err)
			}
		}
		if err := br.Close(); err != nil {
			return fmt.Errorf("failed to close batch: %w", err)
		}

		now := time.Now().UTC()
		actor := domain.ActorFrom(ctx)
		if status != nil {
			_, err = tx.Exec(ctx, `
				UPDATE inventories SET status = $2, updated_at = $3, updated_by = $4
				WHERE id = $1`,
				id, *status, now, actor)
		} else {
			_, err = tx.Exec(ctx, `
				UPDATE inventories SET updated_at = $2, updated_by = $3
				WHERE id = $1`,
				id, now, actor)
		}
		if err != nil {
			return fmt.Errorf("failed to update inventory: %w", err)
		}

		r.logger.InfoContext(ctx, "inventory counts updated",
			slog.String("inventory_id", id.String()),
			slog.Int("rows", len(counted)))

		return nil
	})
}

// SoftDelete marks a count session deleted
func (r *inventoryRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE inventories SET deleted_at = $2, deleted_by = $3
		WHERE id = $1 AND deleted_at IS NULL`

	tag, err := r.db.Exec(ctx, query, id, time.Now().UTC(), domain.ActorFrom(ctx))
	if err != nil {
		return fmt.Errorf("failed to soft delete inventory: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFound("inventory not found")
	}

	r.logger.InfoContext(ctx, "inventory soft deleted",
		slog.String("inventory_id", id.String()))

	return nil
}

// FindByID retrieves a count session with its rows, or (nil, nil) when absent
func (r *inventoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Inventory, error) {
	inventory := &domain.Inventory{}
	err := r.db.QueryRow(ctx, `
		SELECT id, code, date, status, created_at, created_by, updated_at, updated_by
		FROM inventories
		WHERE id = $1 AND deleted_at IS NULL`,
		id,
	).Scan(
		&inventory.ID, &inventory.Code, &inventory.Date, &inventory.Status,
		&inventory.CreatedAt, &inventory.CreatedBy, &inventory.UpdatedAt, &inventory.UpdatedBy,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find inventory: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT r.id, r.inventory_id, r.product_id, p.name, p.code,
		       r.expected_quantity, r.counted_quantity
		FROM inventory_rows r
		JOIN products p ON p.id = r.product_id
		WHERE r.inventory_id = $1
		ORDER BY p.name ASC`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory rows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row domain.InventoryRow
		err := rows.Scan(
			&row.ID, &row.InventoryID, &row.ProductID, &row.ProductName, &row.ProductCode,
			&row.ExpectedQuantity, &row.CountedQuantity,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan inventory row: %w", err)
		}
		inventory.Rows = append(inventory.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return inventory, nil
}

const inventorySummaryColumns = `
	i.id, i.code, i.date, i.status,
	COALESCE(SUM(r.expected_quantity), 0),
	COALESCE(SUM(r.counted_quantity), 0),
	COALESCE(SUM(r.counted_quantity - r.expected_quantity), 0),
	COUNT(r.id) FILTER (WHERE r.counted_quantity = r.expected_quantity),
	COUNT(r.id) FILTER (WHERE r.counted_quantity <> r.expected_quantity)`

// FindSummary retrieves the aggregate view of one session
func (r *inventoryRepository) FindSummary(ctx context.Context, id uuid.UUID) (*ports.InventorySummary, error) {
	query := `
		SELECT ` + inventorySummaryColumns + `
		FROM inventories i
		LEFT JOIN inventory_rows r ON r.inventory_id = i.id
		WHERE i.id = $1 AND i.deleted_at IS NULL
		GROUP BY i.id, i.code, i.date, i.status`

	summary := &ports.InventorySummary{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&summary.ID, &summary.Code, &summary.Date, &summary.Status,
		&summary.TotalExpected, &summary.TotalCounted, &summary.TotalVariance,
		&summary.MatchingRows, &summary.DiscrepantRows,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find inventory summary: %w", err)
	}
	return summary, nil
}

// FindRows retrieves the reconciliation rows of one session
func (r *inventoryRepository) FindRows(ctx context.Context, id uuid.UUID) ([]ports.InventoryRowView, error) {
	query := `
		SELECT r.product_id, p.name, p.code, r.expected_quantity, r.counted_quantity
		FROM inventory_rows r
		JOIN products p ON p.id = r.product_id
		WHERE r.inventory_id = $1
		ORDER BY p.name ASC`

	rows, err := r.db.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory rows: %w", err)
	}
	defer rows.Close()

	var views []ports.InventoryRowView
	for rows.Next() {
		var view ports.InventoryRowView
		err := rows.Scan(
			&view.ProductID, &view.ProductName, &view.ProductCode,
			&view.ExpectedQuantity, &view.CountedQuantity,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan inventory row: %w", err)
		}
		view.Variance = view.CountedQuantity - view.ExpectedQuantity
		view.Matches = view.Variance == 0
		views = append(views, view)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return views, nil
}

// FindAll retrieves session summaries with filtering and pagination
func (r *inventoryRepository) FindAll(ctx context.Context, params ports.ListParams) ([]ports.InventorySummary, int64, error) {
	qb := squirrel.Select(
		"i.id", "i.code", "i.date", "i.status",
		"COALESCE(SUM(r.expected_quantity), 0)",
		"COALESCE(SUM(r.counted_quantity), 0)",
		"COALESCE(SUM(r.counted_quantity - r.expected_quantity), 0)",
		"COUNT(r.id) FILTER (WHERE r.counted_quantity = r.expected_quantity)",
		"COUNT(r.id) FILTER (WHERE r.counted_quantity <> r.expected_quantity)",
		"COUNT(*) OVER()",
	).From("inventories i").
		LeftJoin("inventory_rows r ON r.inventory_id = i.id").
		Where("i.deleted_at IS NULL").
		GroupBy("i.id", "i.code", "i.date", "i.status").
		PlaceholderFormat(squirrel.Dollar)

	if params.SearchTerm != "" {
		qb = qb.Where("(i.code ILIKE ? OR i.status::text ILIKE ?)",
			"%"+params.SearchTerm+"%", "%"+params.SearchTerm+"%")
	}

	direction := "DESC"
	if !params.SortDescending && params.SortBy != "" {
		direction = "ASC"
	}
	orderBy := fmt.Sprintf("i.date %s", direction)
	switch params.SortBy {
	case "code":
		orderBy = fmt.Sprintf("i.code %s", direction)
	case "status":
		orderBy = fmt.Sprintf("i.status %s", direction)
	}
	qb = qb.OrderBy(orderBy).
		Limit(uint64(params.PageSize)).
		Offset(uint64(params.Offset()))

	sqlQuery, args, err := qb.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.Query(ctx, sqlQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query inventories: %w", err)
	}
	defer rows.Close()

	var summaries []ports.InventorySummary
	var totalCount int64
	for rows.Next() {
		var summary ports.InventorySummary
		err := rows.Scan(
			&summary.ID, &summary.Code, &summary.Date, &summary.Status,
			&summary.TotalExpected, &summary.TotalCounted, &summary.TotalVariance,
			&summary.MatchingRows, &summary.DiscrepantRows,
			&totalCount,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan inventory summary: %w", err)
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating rows: %w", err)
	}
	return summaries, totalCount, nil
}

// PendingCount returns the number of pending sessions
func (r *inventoryRepository) PendingCount(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM inventories WHERE status = 'pending' AND deleted_at IS NULL`

	var count int
	if err := r.db.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count pending inventories: %w", err)
	}
	return count, nil
}
