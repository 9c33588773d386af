// internal/handlers/report.go
package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	redis_a "github.com/Degbogueur/stock-management/internal/adapters/redis_adapter"
	"github.com/Degbogueur/stock-management/internal/core/domain"
	"github.com/Degbogueur/stock-management/internal/core/ports"
)

// ReportHandler serves the stock reports: levels, card, operations journal
type ReportHandler struct {
	reports   ports.ReportService
	snapshots ports.SnapshotService
	cache     ports.CacheRepository
	logger    *slog.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(reports ports.ReportService, snapshots ports.SnapshotService, cache ports.CacheRepository, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{
		reports:   reports,
		snapshots: snapshots,
		cache:     cache,
		logger:    logger.With(slog.String("handler", "report")),
	}
}

// GetStockLevels handles GET /api/v1/reports/stock-levels. With as_of the
// levels are reconstructed from the nearest checkpoint plus ledger deltas.
func (h *ReportHandler) GetStockLevels(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params := parseListParams(r)

	asOf, err := parseDateParam(r, "as_of")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Live levels for the default page are hot; cache them briefly.
	if asOf == nil && params.SearchTerm == "" {
		cacheKey := redis_a.BuildKey(redis_a.PrefixStockLevels,
			fmt.Sprintf("p%d-s%d", params.Page, params.PageSize))

		var cached ports.ListResult[ports.StockLevel]
		err := h.cache.GetOrSet(ctx, cacheKey, &cached, func() (interface{}, error) {
			return h.reports.StockLevels(ctx, params, nil)
		}, 2*time.Minute)
		if err != nil {
			h.logger.ErrorContext(ctx, "failed to load stock levels", slog.Any("error", err))
			respondServiceError(w, err)
			return
		}

		respondJSON(w, http.StatusOK, cached)
		return
	}

	result, err := h.reports.StockLevels(ctx, params, asOf)
	if err != nil {
		if !domain.IsDomainError(err) {
			h.logger.ErrorContext(ctx, "failed to load stock levels", slog.Any("error", err))
		}
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetHistoricalStock handles GET /api/v1/reports/historical-stock
func (h *ReportHandler) GetHistoricalStock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	asOf, err := parseDateParam(r, "as_of")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if asOf == nil {
		respondError(w, http.StatusBadRequest, "as_of is required")
		return
	}

	levels, err := h.reports.HistoricalStock(ctx, *asOf)
	if err != nil {
		if !domain.IsDomainError(err) {
			h.logger.ErrorContext(ctx, "failed to reconstruct historical stock",
				slog.Time("as_of", *asOf), slog.Any("error", err))
		}
		respondServiceError(w, err)
		return
	}

	quantities := make(map[string]int, len(levels))
	for id, qty := range levels {
		quantities[id.String()] = qty
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"as_of":      asOf.Format("2006-01-02"),
		"quantities": quantities,
	})
}

// GetStockCard handles GET /api/v1/reports/stock-card/{productId}
func (h *ReportHandler) GetStockCard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	productID, err := uuid.Parse(r.PathValue("productId"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	start, err := parseDateParam(r, "start_date")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	end, err := parseDateParam(r, "end_date")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	card, err := h.reports.StockCard(ctx, productID, start, end)
	if err != nil {
		if !domain.IsDomainError(err) {
			h.logger.ErrorContext(ctx, "failed to build stock card",
				slog.String("product_id", productID.String()), slog.Any("error", err))
		}
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, card)
}

// GetStockCardProducts handles GET /api/v1/reports/stock-card
func (h *ReportHandler) GetStockCardProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params := parseListParams(r)

	result, err := h.reports.StockCardProducts(ctx, params)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list stock card products", slog.Any("error", err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetOperations handles GET /api/v1/reports/operations
func (h *ReportHandler) GetOperations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params := parseListParams(r)

	filters, err := parseOperationFilters(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.reports.StockOperations(ctx, params, filters)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list operations", slog.Any("error", err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// TakeSnapshot handles POST /api/v1/reports/snapshots for manual checkpoints
func (h *ReportHandler) TakeSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	asOf, err := parseDateParam(r, "date")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	date := time.Now().UTC()
	if asOf != nil {
		date = *asOf
	}

	written, err := h.snapshots.TakeSnapshot(ctx, date)
	if err != nil {
		if !domain.IsDomainError(err) {
			h.logger.ErrorContext(ctx, "failed to take snapshot",
				slog.Time("date", date), slog.Any("error", err))
		}
		respondServiceError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "snapshot taken",
		slog.Time("date", date),
		slog.Int("written", written))

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"date":    date.Format("2006-01-02"),
		"written": written,
	})
}

// parseOperationFilters reads the journal filters from the query string.
func parseOperationFilters(r *http.Request) (ports.OperationFilters, error) {
	var filters ports.OperationFilters
	q := r.URL.Query()

	start, err := parseDateParam(r, "start_date")
	if err != nil {
		return filters, err
	}
	filters.StartDate = start

	end, err := parseDateParam(r, "end_date")
	if err != nil {
		return filters, err
	}
	filters.EndDate = end

	for name, dest := range map[string]**uuid.UUID{
		"product_id":  &filters.ProductID,
		"supplier_id": &filters.SupplierID,
		"employee_id": &filters.EmployeeID,
	} {
		if raw := q.Get(name); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				return filters, fmt.Errorf("invalid %s", name)
			}
			*dest = &id
		}
	}

	if raw := q.Get("type"); raw != "" {
		t := domain.OperationType(raw)
		if !t.Valid() {
			return filters, fmt.Errorf("invalid type: expected stock_in or stock_out")
		}
		filters.Type = &t
	}

	return filters, nil
}
