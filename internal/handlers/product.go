// internal/handlers/product.go
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	redis_a "github.com/Degbogueur/stock-management/internal/adapters/redis_adapter"
	"github.com/Degbogueur/stock-management/internal/core/domain"
	"github.com/Degbogueur/stock-management/internal/core/ports"
	"github.com/Degbogueur/stock-management/internal/pkg/validate"
)

// ProductHandler handles product master data HTTP requests
type ProductHandler struct {
	service ports.ProductService
	cache   ports.CacheRepository
	logger  *slog.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(service ports.ProductService, cache ports.CacheRepository, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		cache:   cache,
		logger:  logger.With(slog.String("handler", "product")),
	}
}

// ProductRequest is the request body for creating or updating a product.
// Category can be referenced by id or created on the fly by name.
type ProductRequest struct {
	Name         string     `json:"name" validate:"required"`
	Code         string     `json:"code,omitempty"`
	CategoryID   *uuid.UUID `json:"category_id,omitempty"`
	CategoryName string     `json:"category_name,omitempty"`
	MinimumStock int        `json:"minimum_stock" validate:"gte=0"`
}

// ToDomain converts the request to a domain model
func (r *ProductRequest) ToDomain() *domain.Product {
	product := &domain.Product{
		Name:         r.Name,
		Code:         r.Code,
		MinimumStock: r.MinimumStock,
	}
	if r.CategoryID != nil {
		product.CategoryID = *r.CategoryID
	}
	return product
}

// CreateProduct handles POST /api/v1/products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondServiceError(w, err)
		return
	}

	product := req.ToDomain()
	if err := h.service.Create(ctx, product, req.CategoryName); err != nil {
		if !domain.IsDomainError(err) {
			h.logger.ErrorContext(ctx, "failed to create product",
				slog.String("name", req.Name), slog.Any("error", err))
		}
		respondServiceError(w, err)
		return
	}

	redis_a.InvalidateStockCache(ctx, h.cache, h.logger)

	respondJSON(w, http.StatusCreated, product)
}

// UpdateProduct handles PUT /api/v1/products/{id}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idStr := r.PathValue("id")

	id, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondServiceError(w, err)
		return
	}

	product := req.ToDomain()
	product.ID = id

	if err := h.service.Update(ctx, product, req.CategoryName); err != nil {
		if !domain.IsDomainError(err) {
			h.logger.ErrorContext(ctx, "failed to update product",
				slog.String("product_id", idStr), slog.Any("error", err))
		}
		respondServiceError(w, err)
		return
	}

	redis_a.InvalidateStockCache(ctx, h.cache, h.logger, idStr)

	respondJSON(w, http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/v1/products/{id}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idStr := r.PathValue("id")

	id, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	if err := h.service.Delete(ctx, id); err != nil {
		if !domain.IsDomainError(err) {
			h.logger.ErrorContext(ctx, "failed to delete product",
				slog.String("product_id", idStr), slog.Any("error", err))
		}
		respondServiceError(w, err)
		return
	}

	redis_a.InvalidateStockCache(ctx, h.cache, h.logger, idStr)

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Product deleted successfully",
		"id":      idStr,
	})
}

// GetProduct handles GET /api/v1/products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idStr := r.PathValue("id")

	id, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	product, err := h.service.Get(ctx, id)
	if err != nil {
		if !domain.IsDomainError(err) {
			h.logger.ErrorContext(ctx, "failed to get product",
				slog.String("product_id", idStr), slog.Any("error", err))
		}
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, product)
}

// ListProducts handles GET /api/v1/products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params := parseListParams(r)

	result, err := h.service.List(ctx, params)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list products", slog.Any("error", err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// SearchProductNames handles GET /api/v1/products/names
func (h *ProductHandler) SearchProductNames(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	names, err := h.service.SearchNames(ctx, r.URL.Query().Get("search"), parseLimit(r, 20))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to search product names", slog.Any("error", err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"names": names})
}
