// internal/core/services/masterdata.go
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Degbogueur/stock-management/internal/core/domain"
	"github.com/Degbogueur/stock-management/internal/core/ports"
)

// CategoryService manages product categories.
type CategoryService struct {
	categories ports.CategoryRepository
	logger     *slog.Logger
}

var _ ports.CategoryService = (*CategoryService)(nil)

func NewCategoryService(categories ports.CategoryRepository, logger *slog.Logger) *CategoryService {
	return &CategoryService{
		categories: categories,
		logger:     logger.With(slog.String("service", "category")),
	}
}

func (s *CategoryService) Create(ctx context.Context, category *domain.Category) error {
	if err := category.Validate(); err != nil {
		return err
	}

	exists, err := s.categories.NameExists(ctx, category.Name, uuid.Nil)
	if err != nil {
		return fmt.Errorf("failed to check category name: %w", err)
	}
	if exists {
		return domain.NewConflict("a category with the same name already exists")
	}

	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	if err := s.categories.Save(ctx, category); err != nil {
		return fmt.Errorf("failed to save category: %w", err)
	}

	s.logger.InfoContext(ctx, "category created",
		slog.String("category_id", category.ID.String()),
		slog.String("name", category.Name))

	return nil
}

func (s *CategoryService) Update(ctx context.Context, category *domain.Category) error {
	if err := category.Validate(); err != nil {
		return err
	}

	existing, err := s.categories.FindByID(ctx, category.ID)
	if err != nil {
		return fmt.Errorf("failed to load category: %w", err)
	}
	if existing == nil {
		return domain.NewNotFound("category not found")
	}

	duplicate, err := s.categories.NameExists(ctx, category.Name, category.ID)
	if err != nil {
		return fmt.Errorf("failed to check category name: %w", err)
	}
	if duplicate {
		return domain.NewConflict("a category with the same name already exists")
	}

	if err := s.categories.Update(ctx, category); err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	return nil
}

func (s *CategoryService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.categories.SoftDelete(ctx, id); err != nil {
		if domain.IsDomainError(err) {
			return err
		}
		return fmt.Errorf("failed to delete category %s: %w", id, err)
	}
	return nil
}

func (s *CategoryService) List(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.categories.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (s *CategoryService) SearchNames(ctx context.Context, term string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 10
	}
	names, err := s.categories.SearchNames(ctx, term, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search categories: %w", err)
	}
	return names, nil
}

// SupplierService manages suppliers.
type SupplierService struct {
	suppliers ports.SupplierRepository
	logger    *slog.Logger
}

var _ ports.SupplierService = (*SupplierService)(nil)

func NewSupplierService(suppliers ports.SupplierRepository, logger *slog.Logger) *SupplierService {
	return &SupplierService{
		suppliers: suppliers,
		logger:    logger.With(slog.String("service", "supplier")),
	}
}

func (s *SupplierService) Create(ctx context.Context, supplier *domain.Supplier) error {
	if err := supplier.Validate(); err != nil {
		return err
	}

	exists, err := s.suppliers.NameExists(ctx, supplier.Name, uuid.Nil)
	if err != nil {
		return fmt.Errorf("failed to check supplier name: %w", err)
	}
	if exists {
		return domain.NewConflict("a supplier with the same name already exists")
	}

	if supplier.ID == uuid.Nil {
		supplier.ID = uuid.New()
	}
	if err := s.suppliers.Save(ctx, supplier); err != nil {
		return fmt.Errorf("failed to save supplier: %w", err)
	}

	s.logger.InfoContext(ctx, "supplier created",
		slog.String("supplier_id", supplier.ID.String()),
		slog.String("name", supplier.Name))

	return nil
}

func (s *SupplierService) Update(ctx context.Context, supplier *domain.Supplier) error {
	if err := supplier.Validate(); err != nil {
		return err
	}

	existing, err := s.suppliers.FindByID(ctx, supplier.ID)
	if err != nil {
		return fmt.Errorf("failed to load supplier: %w", err)
	}
	if existing == nil {
		return domain.NewNotFound("supplier not found")
	}

	duplicate, err := s.suppliers.NameExists(ctx, supplier.Name, supplier.ID)
	if err != nil {
		return fmt.Errorf("failed to check supplier name: %w", err)
	}
	if duplicate {
		return domain.NewConflict("a supplier with the same name already exists")
	}

	if err := s.suppliers.Update(ctx, supplier); err != nil {
		return fmt.Errorf("failed to update supplier: %w", err)
	}
	return nil
}

func (s *SupplierService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.suppliers.SoftDelete(ctx, id); err != nil {
		if domain.IsDomainError(err) {
			return err
		}
		return fmt.Errorf("failed to delete supplier %s: %w", id, err)
	}
	return nil
}

func (s *SupplierService) List(ctx context.Context) ([]domain.Supplier, error) {
	suppliers, err := s.suppliers.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list suppliers: %w", err)
	}
	return suppliers, nil
}

func (s *SupplierService) SearchNames(ctx context.Context, term string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 10
	}
	names, err := s.suppliers.SearchNames(ctx, term, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search suppliers: %w", err)
	}
	return names, nil
}

// EmployeeService manages employees.
type EmployeeService struct {
	employees ports.EmployeeRepository
	logger    *slog.Logger
}

var _ ports.EmployeeService = (*EmployeeService)(nil)

func NewEmployeeService(employees ports.EmployeeRepository, logger *slog.Logger) *EmployeeService {
	return &EmployeeService{
		employees: employees,
		logger:    logger.With(slog.String("service", "employee")),
	}
}

func (s *EmployeeService) Create(ctx context.Context, employee *domain.Employee) error {
	if err := employee.Validate(); err != nil {
		return err
	}

	exists, err := s.employees.NameExists(ctx, employee.FirstName, employee.LastName, uuid.Nil)
	if err != nil {
		return fmt.Errorf("failed to check employee name: %w", err)
	}
	if exists {
		return domain.NewConflict("an employee with the same name already exists")
	}

	if employee.ID == uuid.Nil {
		employee.ID = uuid.New()
	}
	if err := s.employees.Save(ctx, employee); err != nil {
		return fmt.Errorf("failed to save employee: %w", err)
	}

	s.logger.InfoContext(ctx, "employee created",
		slog.String("employee_id", employee.ID.String()),
		slog.String("name", employee.FullName()))

	return nil
}

func (s *EmployeeService) Update(ctx context.Context, employee *domain.Employee) error {
	if err := employee.Validate(); err != nil {
		return err
	}

	existing, err := s.employees.FindByID(ctx, employee.ID)
	if err != nil {
		return fmt.Errorf("failed to load employee: %w", err)
	}
	if existing == nil {
		return domain.NewNotFound("employee not found")
	}

	duplicate, err := s.employees.NameExists(ctx, employee.FirstName, employee.LastName, employee.ID)
	if err != nil {
		return fmt.Errorf("failed to check employee name: %w", err)
	}
	if duplicate {
		return domain.NewConflict("an employee with the same name already exists")
	}

	if err := s.employees.Update(ctx, employee); err != nil {
		return fmt.Errorf("failed to update employee: %w", err)
	}
	return nil
}

func (s *EmployeeService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.employees.SoftDelete(ctx, id); err != nil {
		if domain.IsDomainError(err) {
			return err
		}
		return fmt.Errorf("failed to delete employee %s: %w", id, err)
	}
	return nil
}

func (s *EmployeeService) List(ctx context.Context) ([]domain.Employee, error) {
	employees, err := s.employees.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	return employees, nil
}

func (s *EmployeeService) Search(ctx context.Context, term string, limit int) ([]domain.Employee, error) {
	if limit <= 0 {
		limit = 10
	}
	employees, err := s.employees.Search(ctx, term, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search employees: %w", err)
	}
	return employees, nil
}
