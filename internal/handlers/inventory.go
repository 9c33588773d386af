// internal/handlers/inventory.go
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	redis_a "github.com/Degbogueur/stock-management/internal/adapters/redis_adapter"
	"github.com/Degbogueur/stock-management/internal/core/domain"
	"github.com/Degbogueur/stock-management/internal/core/ports"
)

// InventoryHandler handles physical count session HTTP requests
type InventoryHandler struct {
	service ports.InventoryService
	cache   ports.CacheRepository
	logger  *slog.Logger
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(service ports.InventoryService, cache ports.CacheRepository, logger *slog.Logger) *InventoryHandler {
	return &InventoryHandler{
		service: service,
		cache:   cache,
		logger:  logger.With(slog.String("handler", "inventory")),
	}
}

// InventoryRequest is the request body for creating or updating a count
// session. Status is optional on update and must be a terminal transition.
type InventoryRequest struct {
	Rows   []ports.CountedRow `json:"rows"`
	Status string             `json:"status,omitempty"`
}

// CreateInventory handles POST /api/v1/inventories
func (h *InventoryHandler) CreateInventory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req InventoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var (
		inventory *domain.Inventory
		err       error
	)
	switch req.Status {
	case "", string(domain.InventoryPending):
		inventory, err = h.service.CreateDraft(ctx, req.Rows)
	case string(domain.InventoryCompleted):
		inventory, err = h.service.CreateCompleted(ctx, req.Rows)
	default:
		respondError(w, http.StatusBadRequest, "status must be pending or completed on creation")
		return
	}

	if err != nil {
		if !domain.IsDomainError(err) {
			h.logger.ErrorContext(ctx, "failed to create inventory",
				slog.Int("rows", len(req.Rows)), slog.Any("error", err))
		}
		respondServiceError(w, err)
		return
	}

	redis_a.InvalidateStockCache(ctx, h.cache, h.logger)

	h.logger.InfoContext(ctx, "inventory created",
		slog.String("inventory_id", inventory.ID.String()),
		slog.String("code", inventory.Code),
		slog.String("status", string(inventory.Status)))

	respondJSON(w, http.StatusCreated, inventory)
}

// UpdateInventory handles PUT /api/v1/inventories/{id}
func (h *InventoryHandler) UpdateInventory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid inventory ID format")
		return
	}

	var req InventoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var status *domain.InventoryStatus
	if req.Status != "" {
		s := domain.InventoryStatus(req.Status)
		if !s.Valid() {
			respondError(w, http.StatusBadRequest, "Invalid inventory status")
			return
		}
		status = &s
	}

	if err := h.service.Update(ctx, id, req.Rows, status); err != nil {
		if !domain.IsDomainError(err) {
			h.logger.ErrorContext(ctx, "failed to update inventory",
				slog.String("inventory_id", id.String()), slog.Any("error", err))
		}
		respondServiceError(w, err)
		return
	}

	// Status changes move the dashboard's pending-inventories count.
	if status != nil {
		redis_a.InvalidateStockCache(ctx, h.cache, h.logger)
	}

	h.logger.InfoContext(ctx, "inventory updated",
		slog.String("inventory_id", id.String()))

	respondJSON(w, http.StatusOK, map[string]string{"message": "Inventory updated successfully"})
}

// DeleteInventory handles DELETE /api/v1/inventories/{id}
func (h *InventoryHandler) DeleteInventory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid inventory ID format")
		return
	}

	if err := h.service.Delete(ctx, id); err != nil {
		if !domain.IsDomainError(err) {
			h.logger.ErrorContext(ctx, "failed to delete inventory",
				slog.String("inventory_id", id.String()), slog.Any("error", err))
		}
		respondServiceError(w, err)
		return
	}

	redis_a.InvalidateStockCache(ctx, h.cache, h.logger)

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Inventory deleted successfully",
		"id":      id.String(),
	})
}

// GetInventory handles GET /api/v1/inventories/{id}
func (h *InventoryHandler) GetInventory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid inventory ID format")
		return
	}

	summary, err := h.service.Details(ctx, id)
	if err != nil {
		if !domain.IsDomainError(err) {
			h.logger.ErrorContext(ctx, "failed to get inventory",
				slog.String("inventory_id", id.String()), slog.Any("error", err))
		}
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// GetInventoryRows handles GET /api/v1/inventories/{id}/rows and
// GET /api/v1/inventories/new/rows for a fresh draft sheet.
func (h *InventoryHandler) GetInventoryRows(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idStr := r.PathValue("id")

	var id *uuid.UUID
	if idStr != "" && idStr != "new" {
		parsed, err := uuid.Parse(idStr)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid inventory ID format")
			return
		}
		id = &parsed
	}

	rows, err := h.service.Rows(ctx, id)
	if err != nil {
		if !domain.IsDomainError(err) {
			h.logger.ErrorContext(ctx, "failed to get inventory rows",
				slog.String("inventory_id", idStr), slog.Any("error", err))
		}
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"rows": rows})
}

// ListInventories handles GET /api/v1/inventories
func (h *InventoryHandler) ListInventories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params := parseListParams(r)

	result, err := h.service.List(ctx, params)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list inventories", slog.Any("error", err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}
