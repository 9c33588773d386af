// internal/handlers/masterdata.go
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/Degbogueur/stock-management/internal/core/domain"
	"github.com/Degbogueur/stock-management/internal/core/ports"
	"github.com/Degbogueur/stock-management/internal/pkg/validate"
)

// CategoryHandler handles category master data HTTP requests
type CategoryHandler struct {
	service ports.CategoryService
	logger  *slog.Logger
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(service ports.CategoryService, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "category")),
	}
}

// CategoryRequest is the request body for creating or updating a category
type CategoryRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description,omitempty"`
}

// ListCategories handles GET /api/v1/categories
func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	categories, err := h.service.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list categories", slog.Any("error", err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"items": categories})
}

// CreateCategory handles POST /api/v1/categories
func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(&req); err != nil {
		respondServiceError(w, err)
		return
	}

	category := &domain.Category{Name: req.Name, Description: req.Description}
	if err := h.service.Create(ctx, category); err != nil {
		if !domain.IsDomainError(err) {
			h.logger.ErrorContext(ctx, "failed to create category",
				slog.String("name", req.Name), slog.Any("error", err))
		}
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, category)
}

// UpdateCategory handles PUT /api/v1/categories/{id}
func (h *CategoryHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid category ID format")
		return
	}

	var req CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(&req); err != nil {
		respondServiceError(w, err)
		return
	}

	category := &domain.Category{ID: id, Name: req.Name, Description: req.Description}
	if err := h.service.Update(ctx, category); err != nil {
		if !domain.IsDomainError(err) {
			h.logger.ErrorContext(ctx, "failed to update category",
				slog.String("category_id", id.String()), slog.Any("error", err))
		}
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, category)
}

// DeleteCategory handles DELETE /api/v1/categories/{id}
func (h *CategoryHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid category ID format")
		return
	}

	if err := h.service.Delete(ctx, id); err != nil {
		if !domain.IsDomainError(err) {
			h.logger.ErrorContext(ctx, "failed to delete category",
				slog.String("category_id", id.String()), slog.Any("error", err))
		}
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Category deleted successfully"})
}

// SearchCategoryNames handles GET /api/v1/categories/names
func (h *CategoryHandler) SearchCategoryNames(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	names, err := h.service.SearchNames(ctx, r.URL.Query().Get("search"), parseLimit(r, 20))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to search category names", slog.Any("error", err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"names": names})
}

// SupplierHandler handles supplier master data HTTP requests
type SupplierHandler struct {
	service ports.SupplierService
	logger  *slog.Logger
}

// NewSupplierHandler creates a new supplier handler
func NewSupplierHandler(service ports.SupplierService, logger *slog.Logger) *SupplierHandler {
	return &SupplierHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "supplier")),
	}
}

// SupplierRequest is the request body for creating or updating a supplier
type SupplierRequest struct {
	Name        string `json:"name" validate:"required"`
	PhoneNumber string `json:"phone_number"`
	Email       string `json:"email,omitempty" validate:"omitempty,email"`
	Address     string `json:"address,omitempty"`
}

// ToDomain converts the request to a domain model
func (r *SupplierRequest) ToDomain() *domain.Supplier {
	return &domain.Supplier{
		Name:        r.Name,
		PhoneNumber: r.PhoneNumber,
		Email:       r.Email,
		Address:     r.Address,
	}
}

// ListSuppliers handles GET /api/v1/suppliers
func (h *SupplierHandler) ListSuppliers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	suppliers, err := h.service.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list suppliers", slog.Any("error", err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"items": suppliers})
}

// CreateSupplier handles POST /api/v1/suppliers
func (h *SupplierHandler) CreateSupplier(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SupplierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(&req); err != nil {
		respondServiceError(w, err)
		return
	}

	supplier := req.ToDomain()
	if err := h.service.Create(ctx, supplier); err != nil {
		if !domain.IsDomainError(err) {
			h.logger.ErrorContext(ctx, "failed to create supplier",
				slog.String("name", req.Name), slog.Any("error", err))
		}
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, supplier)
}

// UpdateSupplier handles PUT /api/v1/suppliers/{id}
func (h *SupplierHandler) UpdateSupplier(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid supplier ID format")
		return
	}

	var req SupplierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(&req); err != nil {
		respondServiceError(w, err)
		return
	}

	supplier := req.ToDomain()
	supplier.ID = id

	if err := h.service.Update(ctx, supplier); err != nil {
		if !domain.IsDomainError(err) {
			h.logger.ErrorContext(ctx, "failed to update supplier",
				slog.String("supplier_id", id.String()), slog.Any("error", err))
		}
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, supplier)
}

// DeleteSupplier handles DELETE /api/v1/suppliers/{id}
func (h *SupplierHandler) DeleteSupplier(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid supplier ID format")
		return
	}

	if err := h.service.Delete(ctx, id); err != nil {
		if !domain.IsDomainError(err) {
			h.logger.ErrorContext(ctx, "failed to delete supplier",
				slog.String("supplier_id", id.String()), slog.Any("error", err))
		}
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Supplier deleted successfully"})
}

// SearchSupplierNames handles GET /api/v1/suppliers/names
func (h *SupplierHandler) SearchSupplierNames(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	names, err := h.service.SearchNames(ctx, r.URL.Query().Get("search"), parseLimit(r, 20))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to search supplier names", slog.Any("error", err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"names": names})
}

// EmployeeHandler handles employee master data HTTP requests
type EmployeeHandler struct {
	service ports.EmployeeService
	logger  *slog.Logger
}

// NewEmployeeHandler creates a new employee handler
func NewEmployeeHandler(service ports.EmployeeService, logger *slog.Logger) *EmployeeHandler {
	return &EmployeeHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "employee")),
	}
}

// EmployeeRequest is the request body for creating or updating an employee
type EmployeeRequest struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Position  string `json:"position,omitempty"`
}

// ListEmployees handles GET /api/v1/employees
func (h *EmployeeHandler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	employees, err := h.service.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list employees", slog.Any("error", err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"items": employees})
}

// CreateEmployee handles POST /api/v1/employees
func (h *EmployeeHandler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req EmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(&req); err != nil {
		respondServiceError(w, err)
		return
	}

	employee := &domain.Employee{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Position:  req.Position,
	}
	if err := h.service.Create(ctx, employee); err != nil {
		if !domain.IsDomainError(err) {
			h.logger.ErrorContext(ctx, "failed to create employee", slog.Any("error", err))
		}
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, employee)
}

// UpdateEmployee handles PUT /api/v1/employees/{id}
func (h *EmployeeHandler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid employee ID format")
		return
	}

	var req EmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(&req); err != nil {
		respondServiceError(w, err)
		return
	}

	employee := &domain.Employee{
		ID:        id,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Position:  req.Position,
	}
	if err := h.service.Update(ctx, employee); err != nil {
		if !domain.IsDomainError(err) {
			h.logger.ErrorContext(ctx, "failed to update employee",
				slog.String("employee_id", id.String()), slog.Any("error", err))
		}
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, employee)
}

// DeleteEmployee handles DELETE /api/v1/employees/{id}
func (h *EmployeeHandler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid employee ID format")
		return
	}

	if err := h.service.Delete(ctx, id); err != nil {
		if !domain.IsDomainError(err) {
			h.logger.ErrorContext(ctx, "failed to delete employee",
				slog.String("employee_id", id.String()), slog.Any("error", err))
		}
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Employee deleted successfully"})
}

// SearchEmployees handles GET /api/v1/employees/search
func (h *EmployeeHandler) SearchEmployees(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	employees, err := h.service.Search(ctx, r.URL.Query().Get("search"), parseLimit(r, 20))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to search employees", slog.Any("error", err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"items": employees})
}

// parseLimit reads an optional positive limit query parameter.
func parseLimit(r *http.Request, fallback int) int {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if l, err := strconv.Atoi(raw); err == nil && l > 0 {
			return l
		}
	}
	return fallback
}
