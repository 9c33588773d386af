// internal/adapters/db/product_repository.go
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

// productRepository implements ports.ProductRepository
type productRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *Database, logger *slog.Logger) ports.ProductRepository {
	return &productRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "product")),
	}
}

var _ ports.ProductRepository = (*productRepository)(nil)

const productColumns = `
	p.id, p.name, p.code, p.category_id, c.name,
	p.current_stock, p.minimum_stock,
	p.created_at, p.created_by, p.updated_at, p.updated_by`

// Save creates a new product
func (r *productRepository) Save(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (
			id, name, code, category_id, current_stock, minimum_stock,
			created_at, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`

	product.CreatedBy = domain.ActorFrom(ctx)
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}

	err := r.db.QueryRow(ctx, query,
		product.ID, product.Name, product.Code, nilIfZeroUUID(product.CategoryID),
		product.CurrentStock, product.MinimumStock,
		product.CreatedAt, product.CreatedBy,
	).Scan(&product.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save product: %w", err)
	}

	r.logger.DebugContext(ctx, "product saved",
		slog.String("product_id", product.ID.String()),
		slog.String("name", product.Name))

	return nil
}

// Update updates an existing product. Current stock is excluded: it is
// maintained by operation posting only.
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products SET
			name = $2, code = $3, category_id = $4, minimum_stock = $5,
			updated_at = $6, updated_by = $7
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING current_stock`

	now := time.Now().UTC()
	actor := domain.ActorFrom(ctx)
	product.UpdatedAt = &now
	product.UpdatedBy = &actor

	err := r.db.QueryRow(ctx, query,
		product.ID, product.Name, product.Code, nilIfZeroUUID(product.CategoryID),
		product.MinimumStock, now, actor,
	).Scan(&product.CurrentStock)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.NewNotFound("product not found")
		}
		return fmt.Errorf("failed to update product: %w", err)
	}

	r.logger.DebugContext(ctx, "product updated",
		slog.String("product_id", product.ID.String()))

	return nil
}

// SoftDelete marks a product deleted unless operations or inventory rows
// still reference it.
func (r *productRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.Transaction(ctx, func(tx pgx.Tx) error {
		var referenced bool
		err := tx.QueryRow(ctx, `
			SELECT EXISTS(SELECT 1 FROM operations WHERE product_id = $1 AND deleted_at IS NULL)
			    OR EXISTS(SELECT 1 FROM inventory_rows WHERE product_id = $1)`,
			id,
		).Scan(&referenced)
		if err != nil {
			return fmt.Errorf("failed to check product references: %w", err)
		}
		if referenced {
			return domain.NewConflict("product has recorded operations or inventories and cannot be deleted")
		}

		tag, err := tx.Exec(ctx, `
			UPDATE products SET deleted_at = $2, deleted_by = $3
			WHERE id = $1 AND deleted_at IS NULL`,
			id, time.Now().UTC(), domain.ActorFrom(ctx),
		)
		if err != nil {
			return fmt.Errorf("failed to soft delete product: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.NewNotFound("product not found")
		}

		r.logger.InfoContext(ctx, "product soft deleted",
			slog.String("product_id", id.String()))

		return nil
	})
}

// FindByID retrieves a product by id, or (nil, nil) when absent
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id AND c.deleted_at IS NULL
		WHERE p.id = $1 AND p.deleted_at IS NULL`

	product, err := scanProduct(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	return product, nil
}

// FindByIDs retrieves live products matching the given ids
func (r *productRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT ` + productColumns + `
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id AND c.deleted_at IS NULL
		WHERE p.id = ANY($1) AND p.deleted_at IS NULL
		ORDER BY p.name ASC`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	return collectProducts(rows)
}

// All retrieves every live product ordered by name
func (r *productRepository) All(ctx context.Context) ([]domain.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id AND c.deleted_at IS NULL
		WHERE p.deleted_at IS NULL
		ORDER BY p.name ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	return collectProducts(rows)
}

// FindAll retrieves products with filtering and pagination
func (r *productRepository) FindAll(ctx context.Context, params ports.ListParams) ([]domain.Product, int64, error) {
	qb := squirrel.Select(
		"p.id", "p.name", "p.code", "p.category_id", "c.name",
		"p.current_stock", "p.minimum_stock",
		"p.created_at", "p.created_by", "p.updated_at", "p.updated_by",
	).From("products p").
		LeftJoin("categories c ON c.id = p.category_id AND c.deleted_at IS NULL").
		Where("p.deleted_at IS NULL").
		PlaceholderFormat(squirrel.Dollar)

	if params.SearchTerm != "" {
		term := "%" + params.SearchTerm + "%"
		qb = qb.Where("(p.name ILIKE ? OR p.code ILIKE ?)", term, term)
	}

	// Count total items (before pagination)
	countQb := qb.Column("COUNT(*) OVER()").Limit(1)
	countSQL, countArgs, err := countQb.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var totalCount int64
	row := productScanBuffer{}
	err = r.db.QueryRow(ctx, countSQL, countArgs...).Scan(append(row.targets(), &totalCount)...)
	if err != nil && err != pgx.ErrNoRows {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	direction := "ASC"
	if params.SortDescending {
		direction = "DESC"
	}
	orderBy := fmt.Sprintf("p.name %s", direction)
	switch params.SortBy {
	case "code":
		orderBy = fmt.Sprintf("p.code %s", direction)
	case "current_stock":
		orderBy = fmt.Sprintf("p.current_stock %s", direction)
	case "minimum_stock":
		orderBy = fmt.Sprintf("p.minimum_stock %s", direction)
	case "created_at":
		orderBy = fmt.Sprintf("p.created_at %s", direction)
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
		return nil, 0, fmt.Errorf("failed to query products: %w", err)
	}

	products, err := collectProducts(rows)
	if err != nil {
		return nil, 0, err
	}
	return products, totalCount, nil
}

// NameExists checks for a live product with the same name
func (r *productRepository) NameExists(ctx context.Context, name string, excludeID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM products
			WHERE lower(name) = lower($1) AND id <> $2 AND deleted_at IS NULL
		)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, name, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check product name: %w", err)
	}
	return exists, nil
}

// SearchNames returns product names matching term
func (r *productRepository) SearchNames(ctx context.Context, term string, limit int) ([]string, error) {
	query := `
		SELECT name FROM products
		WHERE name ILIKE $1 AND deleted_at IS NULL
		ORDER BY name ASC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, "%"+term+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search product names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan product name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return names, nil
}

// StockCardProducts lists products with lifetime movement totals
func (r *productRepository) StockCardProducts(ctx context.Context, params ports.ListParams) ([]ports.StockCardProduct, int64, error) {
	qb := squirrel.Select(
		"p.id", "p.name", "p.code", "p.current_stock",
		"COALESCE(SUM(o.quantity) FILTER (WHERE o.type = 'stock_in'), 0) AS total_in",
		"COALESCE(SUM(o.quantity) FILTER (WHERE o.type = 'stock_out'), 0) AS total_out",
		"COUNT(*) OVER()",
	).From("products p").
		LeftJoin("operations o ON o.product_id = p.id AND o.deleted_at IS NULL").
		Where("p.deleted_at IS NULL").
		GroupBy("p.id", "p.name", "p.code", "p.current_stock").
		PlaceholderFormat(squirrel.Dollar)

	if params.SearchTerm != "" {
		term := "%" + params.SearchTerm + "%"
		qb = qb.Where("(p.name ILIKE ? OR p.code ILIKE ?)", term, term)
	}

	direction := "ASC"
	if params.SortDescending {
		direction = "DESC"
	}
	orderBy := fmt.Sprintf("p.name %s", direction)
	switch params.SortBy {
	case "total_stock_in":
		orderBy = fmt.Sprintf("total_in %s", direction)
	case "total_stock_out":
		orderBy = fmt.Sprintf("total_out %s", direction)
	case "current_stock":
		orderBy = fmt.Sprintf("p.current_stock %s", direction)
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
		return nil, 0, fmt.Errorf("failed to query stock card products: %w", err)
	}
	defer rows.Close()

	var items []ports.StockCardProduct
	var totalCount int64
	for rows.Next() {
		var item ports.StockCardProduct
		var code sql.NullString
		err := rows.Scan(
			&item.ProductID, &item.ProductName, &code, &item.CurrentStock,
			&item.TotalStockIn, &item.TotalStockOut, &totalCount,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan stock card product: %w", err)
		}
		item.ProductCode = code.String
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating rows: %w", err)
	}
	return items, totalCount, nil
}

// productScanBuffer holds nullable scan targets for one product row.
type productScanBuffer struct {
	product      domain.Product
	code         sql.NullString
	categoryID   *uuid.UUID
	categoryName sql.NullString
}

func (b *productScanBuffer) targets() []interface{} {
	return []interface{}{
		&b.product.ID, &b.product.Name, &b.code, &b.categoryID, &b.categoryName,
		&b.product.CurrentStock, &b.product.MinimumStock,
		&b.product.CreatedAt, &b.product.CreatedBy, &b.product.UpdatedAt, &b.product.UpdatedBy,
	}
}

func (b *productScanBuffer) result() domain.Product {
	b.product.Code = b.code.String
	b.product.CategoryName = b.categoryName.String
	if b.categoryID != nil {
		b.product.CategoryID = *b.categoryID
	}
	return b.product
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	b := productScanBuffer{}
	if err := row.Scan(b.targets()...); err != nil {
		return nil, err
	}
	product := b.result()
	return &product, nil
}

func collectProducts(rows pgx.Rows) ([]domain.Product, error) {
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		b := productScanBuffer{}
		if err := rows.Scan(b.targets()...); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, b.result())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return products, nil
}

// nilIfZeroUUID maps the zero uuid to SQL NULL for nullable FK columns.
func nilIfZeroUUID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
