// internal/handlers/operation.go
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	redis_a "github.com/Degbogueur/stock-management/internal/adapters/redis_adapter"
	"github.com/Degbogueur/stock-management/internal/core/domain"
	"github.com/Degbogueur/stock-management/internal/core/ports"
	"github.com/Degbogueur/stock-management/internal/pkg/validate"
)

// OperationHandler posts immutable stock movements
type OperationHandler struct {
	service ports.OperationService
	cache   ports.CacheRepository
	logger  *slog.Logger
}

// NewOperationHandler creates a new operation handler
func NewOperationHandler(service ports.OperationService, cache ports.CacheRepository, logger *slog.Logger) *OperationHandler {
	return &OperationHandler{
		service: service,
		cache:   cache,
		logger:  logger.With(slog.String("handler", "operation")),
	}
}

// StockInRequest is the request body for posting a stock-in batch
type StockInRequest struct {
	Lines []StockInLineRequest `json:"lines" validate:"min=1,dive"`
}

// StockInLineRequest is one received line item
type StockInLineRequest struct {
	ProductID  uuid.UUID `json:"product_id" validate:"uuid_required"`
	SupplierID uuid.UUID `json:"supplier_id" validate:"uuid_required"`
	Quantity   int       `json:"quantity" validate:"gt=0"`
	Date       string    `json:"date"`
}

// StockOutRequest is the request body for posting a stock-out batch
type StockOutRequest struct {
	Lines []StockOutLineRequest `json:"lines" validate:"min=1,dive"`
}

// StockOutLineRequest is one issued line item
type StockOutLineRequest struct {
	ProductID  uuid.UUID `json:"product_id" validate:"uuid_required"`
	EmployeeID uuid.UUID `json:"employee_id" validate:"uuid_required"`
	Quantity   int       `json:"quantity" validate:"gt=0"`
	Date       string    `json:"date"`
}

// PostStockIn handles POST /api/v1/operations/stock-in
func (h *OperationHandler) PostStockIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req StockInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondServiceError(w, err)
		return
	}

	lines := make([]ports.StockInLine, 0, len(req.Lines))
	productIDs := make([]string, 0, len(req.Lines))
	for _, line := range req.Lines {
		date, err := parseLineDate(line.Date)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		lines = append(lines, ports.StockInLine{
			ProductID:  line.ProductID,
			SupplierID: line.SupplierID,
			Quantity:   line.Quantity,
			Date:       date,
		})
		productIDs = append(productIDs, line.ProductID.String())
	}

	result, err := h.service.PostStockIn(ctx, lines)
	if err != nil {
		if !domain.IsDomainError(err) {
			h.logger.ErrorContext(ctx, "failed to post stock-in batch",
				slog.Int("lines", len(lines)), slog.Any("error", err))
		}
		respondServiceError(w, err)
		return
	}

	redis_a.InvalidateStockCache(ctx, h.cache, h.logger, productIDs...)

	h.logger.InfoContext(ctx, "stock-in batch posted",
		slog.Int("posted", result.Posted))

	respondJSON(w, http.StatusCreated, result)
}

// PostStockOut handles POST /api/v1/operations/stock-out
func (h *OperationHandler) PostStockOut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req StockOutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondServiceError(w, err)
		return
	}

	lines := make([]ports.StockOutLine, 0, len(req.Lines))
	productIDs := make([]string, 0, len(req.Lines))
	for _, line := range req.Lines {
		date, err := parseLineDate(line.Date)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		lines = append(lines, ports.StockOutLine{
			ProductID:  line.ProductID,
			EmployeeID: line.EmployeeID,
			Quantity:   line.Quantity,
			Date:       date,
		})
		productIDs = append(productIDs, line.ProductID.String())
	}

	result, err := h.service.PostStockOut(ctx, lines)
	if err != nil {
		if !domain.IsDomainError(err) {
			h.logger.ErrorContext(ctx, "failed to post stock-out batch",
				slog.Int("lines", len(lines)), slog.Any("error", err))
		}
		respondServiceError(w, err)
		return
	}

	redis_a.InvalidateStockCache(ctx, h.cache, h.logger, productIDs...)

	h.logger.InfoContext(ctx, "stock-out batch posted",
		slog.Int("posted", result.Posted),
		slog.Int("alerts", len(result.Alerts)))

	respondJSON(w, http.StatusCreated, result)
}

// parseLineDate parses a line's effective date, defaulting to today.
func parseLineDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, domain.NewValidation("invalid date: expected yyyy-mm-dd")
	}
	return t, nil
}
