// internal/adapters/db/masterdata_repository.go
package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Degbogueur/stock-management/internal/core/domain"
	"github.com/Degbogueur/stock-management/internal/core/ports"
)

// categoryRepository implements ports.CategoryRepository
type categoryRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *Database, logger *slog.Logger) ports.CategoryRepository {
	return &categoryRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "category")),
	}
}

var _ ports.CategoryRepository = (*categoryRepository)(nil)

func (r *categoryRepository) Save(ctx context.Context, category *domain.Category) error {
	query := `
		INSERT INTO categories (id, name, description, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5)`

	category.CreatedBy = domain.ActorFrom(ctx)
	if category.CreatedAt.IsZero() {
		category.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(ctx, query,
		category.ID, category.Name, category.Description,
		category.CreatedAt, category.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save category: %w", err)
	}
	return nil
}

func (r *categoryRepository) Update(ctx context.Context, category *domain.Category) error {
	query := `
		UPDATE categories SET name = $2, description = $3, updated_at = $4, updated_by = $5
		WHERE id = $1 AND deleted_at IS NULL`

	tag, err := r.db.Exec(ctx, query,
		category.ID, category.Name, category.Description,
		time.Now().UTC(), domain.ActorFrom(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFound("category not found")
	}
	return nil
}

// SoftDelete refuses to delete a category still referenced by live products
func (r *categoryRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.Transaction(ctx, func(tx pgx.Tx) error {
		var referenced bool
		err := tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM products WHERE category_id = $1 AND deleted_at IS NULL)`,
			id,
		).Scan(&referenced)
		if err != nil {
			return fmt.Errorf("failed to check category references: %w", err)
		}
		if referenced {
			return domain.NewConflict("category still has products and cannot be deleted")
		}

		tag, err := tx.Exec(ctx, `
			UPDATE categories SET deleted_at = $2, deleted_by = $3
			WHERE id = $1 AND deleted_at IS NULL`,
			id, time.Now().UTC(), domain.ActorFrom(ctx),
		)
		if err != nil {
			return fmt.Errorf("failed to soft delete category: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.NewNotFound("category not found")
		}
		return nil
	})
}

func (r *categoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	query := `
		SELECT id, name, description, created_at, created_by, updated_at, updated_by
		FROM categories
		WHERE id = $1 AND deleted_at IS NULL`

	category := &domain.Category{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&category.ID, &category.Name, &category.Description,
		&category.CreatedAt, &category.CreatedBy, &category.UpdatedAt, &category.UpdatedBy,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find category: %w", err)
	}
	return category, nil
}

func (r *categoryRepository) FindAll(ctx context.Context) ([]domain.Category, error) {
	query := `
		SELECT c.id, c.name, c.description,
		       COUNT(p.id) FILTER (WHERE p.deleted_at IS NULL),
		       c.created_at, c.created_by, c.updated_at, c.updated_by
		FROM categories c
		LEFT JOIN products p ON p.category_id = c.id
		WHERE c.deleted_at IS NULL
		GROUP BY c.id, c.name, c.description, c.created_at, c.created_by, c.updated_at, c.updated_by
		ORDER BY c.name ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var category domain.Category
		err := rows.Scan(
			&category.ID, &category.Name, &category.Description, &category.ProductCount,
			&category.CreatedAt, &category.CreatedBy, &category.UpdatedAt, &category.UpdatedBy,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return categories, nil
}

// FindOrCreateByName returns the live category with the given name,
// creating it when absent
func (r *categoryRepository) FindOrCreateByName(ctx context.Context, name string) (*domain.Category, error) {
	query := `
		SELECT id, name, description, created_at, created_by, updated_at, updated_by
		FROM categories
		WHERE lower(name) = lower($1) AND deleted_at IS NULL`

	category := &domain.Category{}
	err := r.db.QueryRow(ctx, query, name).Scan(
		&category.ID, &category.Name, &category.Description,
		&category.CreatedAt, &category.CreatedBy, &category.UpdatedAt, &category.UpdatedBy,
	)
	if err == nil {
		return category, nil
	}
	if err != pgx.ErrNoRows {
		return nil, fmt.Errorf("failed to find category: %w", err)
	}

	category = &domain.Category{ID: uuid.New(), Name: name}
	if err := r.Save(ctx, category); err != nil {
		return nil, err
	}

	r.logger.InfoContext(ctx, "category created on the fly",
		slog.String("category_id", category.ID.String()),
		slog.String("name", name))

	return category, nil
}

func (r *categoryRepository) NameExists(ctx context.Context, name string, excludeID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM categories
			WHERE lower(name) = lower($1) AND id <> $2 AND deleted_at IS NULL
		)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, name, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check category name: %w", err)
	}
	return exists, nil
}

func (r *categoryRepository) SearchNames(ctx context.Context, term string, limit int) ([]string, error) {
	return searchNames(ctx, r.db, "categories", term, limit)
}

// supplierRepository implements ports.SupplierRepository
type supplierRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewSupplierRepository creates a new supplier repository
func NewSupplierRepository(db *Database, logger *slog.Logger) ports.SupplierRepository {
	return &supplierRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "supplier")),
	}
}

var _ ports.SupplierRepository = (*supplierRepository)(nil)

func (r *supplierRepository) Save(ctx context.Context, supplier *domain.Supplier) error {
	query := `
		INSERT INTO suppliers (id, name, phone_number, email, address, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	supplier.CreatedBy = domain.ActorFrom(ctx)
	if supplier.CreatedAt.IsZero() {
		supplier.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(ctx, query,
		supplier.ID, supplier.Name, supplier.PhoneNumber, supplier.Email, supplier.Address,
		supplier.CreatedAt, supplier.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save supplier: %w", err)
	}
	return nil
}

func (r *supplierRepository) Update(ctx context.Context, supplier *domain.Supplier) error {
	query := `
		UPDATE suppliers SET name = $2, phone_number = $3, email = $4, address = $5,
			updated_at = $6, updated_by = $7
		WHERE id = $1 AND deleted_at IS NULL`

	tag, err := r.db.Exec(ctx, query,
		supplier.ID, supplier.Name, supplier.PhoneNumber, supplier.Email, supplier.Address,
		time.Now().UTC(), domain.ActorFrom(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to update supplier: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFound("supplier not found")
	}
	return nil
}

// SoftDelete refuses to delete a supplier referenced by stock-in operations
func (r *supplierRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.Transaction(ctx, func(tx pgx.Tx) error {
		var referenced bool
		err := tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM operations WHERE supplier_id = $1 AND deleted_at IS NULL)`,
			id,
		).Scan(&referenced)
		if err != nil {
			return fmt.Errorf("failed to check supplier references: %w", err)
		}
		if referenced {
			return domain.NewConflict("supplier has recorded operations and cannot be deleted")
		}

		tag, err := tx.Exec(ctx, `
			UPDATE suppliers SET deleted_at = $2, deleted_by = $3
			WHERE id = $1 AND deleted_at IS NULL`,
			id, time.Now().UTC(), domain.ActorFrom(ctx),
		)
		if err != nil {
			return fmt.Errorf("failed to soft delete supplier: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.NewNotFound("supplier not found")
		}
		return nil
	})
}

func (r *supplierRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Supplier, error) {
	query := `
		SELECT id, name, phone_number, email, address,
		       created_at, created_by, updated_at, updated_by
		FROM suppliers
		WHERE id = $1 AND deleted_at IS NULL`

	supplier := &domain.Supplier{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&supplier.ID, &supplier.Name, &supplier.PhoneNumber, &supplier.Email, &supplier.Address,
		&supplier.CreatedAt, &supplier.CreatedBy, &supplier.UpdatedAt, &supplier.UpdatedBy,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find supplier: %w", err)
	}
	return supplier, nil
}

func (r *supplierRepository) FindAll(ctx context.Context) ([]domain.Supplier, error) {
	query := `
		SELECT id, name, phone_number, email, address,
		       created_at, created_by, updated_at, updated_by
		FROM suppliers
		WHERE deleted_at IS NULL
		ORDER BY name ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query suppliers: %w", err)
	}
	defer rows.Close()

	var suppliers []domain.Supplier
	for rows.Next() {
		var supplier domain.Supplier
		err := rows.Scan(
			&supplier.ID, &supplier.Name, &supplier.PhoneNumber, &supplier.Email, &supplier.Address,
			&supplier.CreatedAt, &supplier.CreatedBy, &supplier.UpdatedAt, &supplier.UpdatedBy,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan supplier: %w", err)
		}
		suppliers = append(suppliers, supplier)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return suppliers, nil
}

func (r *supplierRepository) NameExists(ctx context.Context, name string, excludeID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM suppliers
			WHERE lower(name) = lower($1) AND id <> $2 AND deleted_at IS NULL
		)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, name, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check supplier name: %w", err)
	}
	return exists, nil
}

func (r *supplierRepository) SearchNames(ctx context.Context, term string, limit int) ([]string, error) {
	return searchNames(ctx, r.db, "suppliers", term, limit)
}

// employeeRepository implements ports.EmployeeRepository
type employeeRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewEmployeeRepository creates a new employee repository
func NewEmployeeRepository(db *Database, logger *slog.Logger) ports.EmployeeRepository {
	return &employeeRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "employee")),
	}
}

var _ ports.EmployeeRepository = (*employeeRepository)(nil)

func (r *employeeRepository) Save(ctx context.Context, employee *domain.Employee) error {
	query := `
		INSERT INTO employees (id, first_name, last_name, position, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)`

	employee.CreatedBy = domain.ActorFrom(ctx)
	if employee.CreatedAt.IsZero() {
		employee.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(ctx, query,
		employee.ID, employee.FirstName, employee.LastName, employee.Position,
		employee.CreatedAt, employee.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save employee: %w", err)
	}
	return nil
}

func (r *employeeRepository) Update(ctx context.Context, employee *domain.Employee) error {
	query := `
		UPDATE employees SET first_name = $2, last_name = $3, position = $4,
			updated_at = $5, updated_by = $6
		WHERE id = $1 AND deleted_at IS NULL`

	tag, err := r.db.Exec(ctx, query,
		employee.ID, employee.FirstName, employee.LastName, employee.Position,
		time.Now().UTC(), domain.ActorFrom(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to update employee: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFound("employee not found")
	}
	return nil
}

// SoftDelete refuses to delete an employee referenced by stock-out operations
func (r *employeeRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.Transaction(ctx, func(tx pgx.Tx) error {
		var referenced bool
		err := tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM operations WHERE employee_id = $1 AND deleted_at IS NULL)`,
			id,
		).Scan(&referenced)
		if err != nil {
			return fmt.Errorf("failed to check employee references: %w", err)
		}
		if referenced {
			return domain.NewConflict("employee has recorded operations and cannot be deleted")
		}

		tag, err := tx.Exec(ctx, `
			UPDATE employees SET deleted_at = $2, deleted_by = $3
			WHERE id = $1 AND deleted_at IS NULL`,
			id, time.Now().UTC(), domain.ActorFrom(ctx),
		)
		if err != nil {
			return fmt.Errorf("failed to soft delete employee: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.NewNotFound("employee not found")
		}
		return nil
	})
}

func (r *employeeRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Employee, error) {
	query := `
		SELECT id, first_name, last_name, position,
		       created_at, created_by, updated_at, updated_by
		FROM employees
		WHERE id = $1 AND deleted_at IS NULL`

	employee := &domain.Employee{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&employee.ID, &employee.FirstName, &employee.LastName, &employee.Position,
		&employee.CreatedAt, &employee.CreatedBy, &employee.UpdatedAt, &employee.UpdatedBy,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find employee: %w", err)
	}
	return employee, nil
}

func (r *employeeRepository) FindAll(ctx context.Context) ([]domain.Employee, error) {
	query := `
		SELECT id, first_name, last_name, position,
		       created_at, created_by, updated_at, updated_by
		FROM employees
		WHERE deleted_at IS NULL
		ORDER BY last_name ASC, first_name ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	return collectEmployees(rows)
}

func (r *employeeRepository) NameExists(ctx context.Context, firstName, lastName string, excludeID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM employees
			WHERE lower(first_name) = lower($1) AND lower(last_name) = lower($2)
			  AND id <> $3 AND deleted_at IS NULL
		)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, firstName, lastName, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check employee name: %w", err)
	}
	return exists, nil
}

func (r *employeeRepository) Search(ctx context.Context, term string, limit int) ([]domain.Employee, error) {
	query := `
		SELECT id, first_name, last_name, position,
		       created_at, created_by, updated_at, updated_by
		FROM employees
		WHERE (first_name || ' ' || last_name) ILIKE $1 AND deleted_at IS NULL
		ORDER BY last_name ASC, first_name ASC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, "%"+term+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search employees: %w", err)
	}
	defer rows.Close()

	return collectEmployees(rows)
}

func collectEmployees(rows pgx.Rows) ([]domain.Employee, error) {
	var employees []domain.Employee
	for rows.Next() {
		var employee domain.Employee
		err := rows.Scan(
			&employee.ID, &employee.FirstName, &employee.LastName, &employee.Position,
			&employee.CreatedAt, &employee.CreatedBy, &employee.UpdatedAt, &employee.UpdatedBy,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, employee)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return employees, nil
}

// searchNames runs the shared name-prefix search across master data tables.
func searchNames(ctx context.Context, database *Database, table, term string, limit int) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT name FROM %s
		WHERE name ILIKE $1 AND deleted_at IS NULL
		ORDER BY name ASC
		LIMIT $2`, table)

	rows, err := database.Query(ctx, query, "%"+term+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", table, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return names, nil
}
