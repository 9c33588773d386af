// internal/adapters/db/operation_repository.go
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Degbogueur/stock-management/internal/core/domain"
	"github.com/Degbogueur/stock-management/internal/core/ports"
)

// operationRepository implements ports.OperationRepository
type operationRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewOperationRepository creates a new operation repository
func NewOperationRepository(db *Database, logger *slog.Logger) ports.OperationRepository {
	return &operationRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "operation")),
	}
}

var _ ports.OperationRepository = (*operationRepository)(nil)

// SaveBatch inserts the batch and applies one aggregated stock adjustment per
// distinct product, all in a single transaction. Partial posting never
// happens: any failure rolls back both the rows and the stock updates.
func (r *operationRepository) SaveBatch(ctx context.Context, ops []domain.Operation) ([]domain.StockAlert, error) {
	if len(ops) == 0 {
		return nil, nil
	}

	var alerts []domain.StockAlert

	err := r.db.Transaction(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}

		query := `
			INSERT INTO operations (
				id, product_id, type, quantity, date,
				supplier_id, employee_id, created_at, created_by
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

		deltas := make(map[uuid.UUID]int)
		order := make([]uuid.UUID, 0, len(ops))
		for i := range ops {
			batch.Queue(query,
				ops[i].ID, ops[i].ProductID, ops[i].Type, ops[i].Quantity, ops[i].Date,
				ops[i].SupplierID, ops[i].EmployeeID, ops[i].CreatedAt, ops[i].CreatedBy,
			)
			if _, seen := deltas[ops[i].ProductID]; !seen {
				order = append(order, ops[i].ProductID)
			}
			deltas[ops[i].ProductID] += ops[i].Signed()
		}

		br := tx.SendBatch(ctx, batch)
		for i := range ops {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("failed to save operation %d: %w", i, err)
			}
		}
		if err := br.Close(); err != nil {
			return fmt.Errorf("failed to close batch: %w", err)
		}

		updateQuery := `
			UPDATE products SET
				current_stock = current_stock + $2,
				updated_at = $3, updated_by = $4
			WHERE id = $1 AND deleted_at IS NULL
			RETURNING name, current_stock, minimum_stock`

		now := time.Now().UTC()
		actor := domain.ActorFrom(ctx)
		alerts = alerts[:0]
		for _, productID := range order {
			var alert domain.StockAlert
			alert.ProductID = productID
			err := tx.QueryRow(ctx, updateQuery, productID, deltas[productID], now, actor).
				Scan(&alert.ProductName, &alert.NewStock, &alert.MinimumStock)
			if err != nil {
				if err == pgx.ErrNoRows {
					return domain.NewNotFound(fmt.Sprintf("product %s not found", productID))
				}
				return fmt.Errorf("failed to adjust stock for product %s: %w", productID, err)
			}
			alerts = append(alerts, alert)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.InfoContext(ctx, "operation batch saved",
		slog.Int("operations", len(ops)),
		slog.Int("products", len(alerts)))

	return alerts, nil
}

// FindRecords returns pre-joined operation rows, filtered and paged SQL-side
func (r *operationRepository) FindRecords(ctx context.Context, params ports.ListParams, filters ports.OperationFilters) ([]ports.OperationRecord, int64, error) {
	qb := squirrel.Select(
		"o.id", "o.product_id", "p.name", "o.quantity", "o.date", "o.type",
		"o.supplier_id", "s.name", "o.employee_id",
		"COALESCE(e.first_name || ' ' || e.last_name, '')",
		"o.created_at",
		"COUNT(*) OVER()",
	).From("operations o").
		Join("products p ON p.id = o.product_id").
		LeftJoin("suppliers s ON s.id = o.supplier_id").
		LeftJoin("employees e ON e.id = o.employee_id").
		Where("o.deleted_at IS NULL").
		PlaceholderFormat(squirrel.Dollar)

	if params.SearchTerm != "" {
		qb = qb.Where("p.name ILIKE ?", "%"+params.SearchTerm+"%")
	}
	if filters.StartDate != nil {
		qb = qb.Where("o.date >= ?", domain.DateOnly(*filters.StartDate))
	}
	if filters.EndDate != nil {
		qb = qb.Where("o.date <= ?", domain.DateOnly(*filters.EndDate))
	}
	if filters.ProductID != nil {
		qb = qb.Where(squirrel.Eq{"o.product_id": *filters.ProductID})
	}
	if filters.SupplierID != nil {
		qb = qb.Where(squirrel.Eq{"o.supplier_id": *filters.SupplierID})
	}
	if filters.EmployeeID != nil {
		qb = qb.Where(squirrel.Eq{"o.employee_id": *filters.EmployeeID})
	}
	if filters.Type != nil {
		qb = qb.Where(squirrel.Eq{"o.type": *filters.Type})
	}

	direction := "DESC"
	if !params.SortDescending && params.SortBy != "" {
		direction = "ASC"
	}
	orderBy := fmt.Sprintf("o.date %s, o.created_at %s", direction, direction)
	switch params.SortBy {
	case "product":
		orderBy = fmt.Sprintf("p.name %s", direction)
	case "quantity":
		orderBy = fmt.Sprintf("o.quantity %s", direction)
	case "type":
		orderBy = fmt.Sprintf("o.type %s", direction)
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
		return nil, 0, fmt.Errorf("failed to query operations: %w", err)
	}
	defer rows.Close()

	var records []ports.OperationRecord
	var totalCount int64
	for rows.Next() {
		var rec ports.OperationRecord
		var supplierName sql.NullString
		err := rows.Scan(
			&rec.OperationID, &rec.ProductID, &rec.ProductName, &rec.Quantity,
			&rec.Date, &rec.Type, &rec.SupplierID, &supplierName,
			&rec.EmployeeID, &rec.EmployeeName, &rec.CreatedAt,
			&totalCount,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan operation: %w", err)
		}
		rec.SupplierName = supplierName.String
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating rows: %w", err)
	}
	return records, totalCount, nil
}

// FindForProduct returns a product's operations within the inclusive date
// bounds, in posting order
func (r *operationRepository) FindForProduct(ctx context.Context, productID uuid.UUID, start, end *time.Time) ([]ports.OperationRecord, error) {
	qb := squirrel.Select(
		"o.id", "o.product_id", "p.name", "o.quantity", "o.date", "o.type",
		"o.supplier_id", "s.name", "o.employee_id",
		"COALESCE(e.first_name || ' ' || e.last_name, '')",
		"o.created_at",
	).From("operations o").
		Join("products p ON p.id = o.product_id").
		LeftJoin("suppliers s ON s.id = o.supplier_id").
		LeftJoin("employees e ON e.id = o.employee_id").
		Where(squirrel.Eq{"o.product_id": productID}).
		Where("o.deleted_at IS NULL").
		OrderBy("o.date ASC", "o.created_at ASC").
		PlaceholderFormat(squirrel.Dollar)

	if start != nil {
		qb = qb.Where("o.date >= ?", domain.DateOnly(*start))
	}
	if end != nil {
		qb = qb.Where("o.date <= ?", domain.DateOnly(*end))
	}

	sqlQuery, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.Query(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query operations: %w", err)
	}
	defer rows.Close()

	var records []ports.OperationRecord
	for rows.Next() {
		var rec ports.OperationRecord
		var supplierName sql.NullString
		err := rows.Scan(
			&rec.OperationID, &rec.ProductID, &rec.ProductName, &rec.Quantity,
			&rec.Date, &rec.Type, &rec.SupplierID, &supplierName,
			&rec.EmployeeID, &rec.EmployeeName, &rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan operation: %w", err)
		}
		rec.SupplierName = supplierName.String
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return records, nil
}

// SignedSumBefore computes stock-in minus stock-out strictly before a date
func (r *operationRepository) SignedSumBefore(ctx context.Context, productID uuid.UUID, before time.Time) (int, error) {
	query := `
		SELECT COALESCE(SUM(CASE WHEN type = 'stock_in' THEN quantity ELSE -quantity END), 0)
		FROM operations
		WHERE product_id = $1 AND date < $2 AND deleted_at IS NULL`

	var sum int
	err := r.db.QueryRow(ctx, query, productID, domain.DateOnly(before)).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("failed to sum operations: %w", err)
	}
	return sum, nil
}

// SumByProductBetween aggregates signed quantities per product over
// after < date <= through
func (r *operationRepository) SumByProductBetween(ctx context.Context, after, through time.Time) (map[uuid.UUID]int, error) {
	query := `
		SELECT product_id,
		       COALESCE(SUM(CASE WHEN type = 'stock_in' THEN quantity ELSE -quantity END), 0)
		FROM operations
		WHERE date > $1 AND date <= $2 AND deleted_at IS NULL
		GROUP BY product_id`

	rows, err := r.db.Query(ctx, query, domain.DateOnly(after), domain.DateOnly(through))
	if err != nil {
		return nil, fmt.Errorf("failed to sum operations: %w", err)
	}
	defer rows.Close()

	sums := make(map[uuid.UUID]int)
	for rows.Next() {
		var productID uuid.UUID
		var sum int
		if err := rows.Scan(&productID, &sum); err != nil {
			return nil, fmt.Errorf("failed to scan operation sum: %w", err)
		}
		sums[productID] = sum
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return sums, nil
}

// TotalsBetween returns movement totals over start <= date <= end
func (r *operationRepository) TotalsBetween(ctx context.Context, start, end time.Time) (int, int, int, error) {
	query := `
		SELECT
			COALESCE(SUM(quantity) FILTER (WHERE type = 'stock_in'), 0),
			COALESCE(SUM(quantity) FILTER (WHERE type = 'stock_out'), 0),
			COUNT(*)
		FROM operations
		WHERE date >= $1 AND date <= $2 AND deleted_at IS NULL`

	var stockIn, stockOut, count int
	err := r.db.QueryRow(ctx, query, domain.DateOnly(start), domain.DateOnly(end)).
		Scan(&stockIn, &stockOut, &count)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to total operations: %w", err)
	}
	return stockIn, stockOut, count, nil
}
