// internal/handlers/export.go
package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/tealeg/xlsx/v3"

	redis_a "github.com/Degbogueur/stock-management/internal/adapters/redis_adapter"
	"github.com/Degbogueur/stock-management/internal/core/ports"
	"github.com/Degbogueur/stock-management/internal/workers"
)

// ExportHandler renders report workbooks. Small exports are streamed
// directly; large ones are enqueued to the worker and fetched by job id.
type ExportHandler struct {
	reports ports.ReportService
	client  *asynq.Client
	cache   ports.CacheRepository
	logger  *slog.Logger
}

// NewExportHandler creates a new export handler
func NewExportHandler(reports ports.ReportService, client *asynq.Client, cache ports.CacheRepository, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{
		reports: reports,
		client:  client,
		cache:   cache,
		logger:  logger.With(slog.String("handler", "export")),
	}
}

// StartExport handles POST /api/v1/exports: enqueues a background export
// and returns the job id to poll.
func (h *ExportHandler) StartExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	payload, err := h.parseExportPayload(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	payload.JobID = uuid.New().String()

	raw, err := json.Marshal(payload)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to marshal export payload", slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, "Failed to start export")
		return
	}

	task := asynq.NewTask(workers.TypeReportExport, raw)
	if _, err := h.client.EnqueueContext(ctx, task, asynq.Queue("low"), asynq.MaxRetry(3)); err != nil {
		h.logger.ErrorContext(ctx, "failed to enqueue export task",
			slog.String("report", payload.Report), slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, "Failed to start export")
		return
	}

	h.logger.InfoContext(ctx, "report export enqueued",
		slog.String("job_id", payload.JobID),
		slog.String("report", payload.Report))

	respondJSON(w, http.StatusAccepted, map[string]string{
		"job_id": payload.JobID,
		"status": "pending",
	})
}

// GetExport handles GET /api/v1/exports/{id}: reports the job status and,
// once ready, the pre-signed download URL.
func (h *ExportHandler) GetExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	jobID := r.PathValue("id")

	if _, err := uuid.Parse(jobID); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid export job ID format")
		return
	}

	cacheKey := redis_a.BuildKey(redis_a.PrefixReport, "export", jobID)

	var url string
	err := h.cache.Get(ctx, cacheKey, &url)
	if err == redis_a.ErrCacheMiss {
		respondJSON(w, http.StatusOK, map[string]string{
			"job_id": jobID,
			"status": "pending",
		})
		return
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to look up export job",
			slog.String("job_id", jobID), slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, "Failed to look up export job")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"job_id": jobID,
		"status": "ready",
		"url":    url,
	})
}

// DownloadStockLevels handles GET /api/v1/exports/stock-levels: renders the
// stock levels workbook synchronously.
func (h *ExportHandler) DownloadStockLevels(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	asOf, err := parseDateParam(r, "as_of")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Stock Levels")
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to build workbook", slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, "Failed to generate Excel file")
		return
	}

	header := sheet.AddRow()
	for _, title := range []string{"Product", "Code", "Quantity", "Minimum"} {
		header.AddCell().SetString(title)
	}

	params := ports.ListParams{Page: 1, PageSize: 500}
	for {
		page, err := h.reports.StockLevels(ctx, params, asOf)
		if err != nil {
			h.logger.ErrorContext(ctx, "failed to load stock levels", slog.Any("error", err))
			respondError(w, http.StatusInternalServerError, "Failed to retrieve data")
			return
		}

		for _, level := range page.Items {
			row := sheet.AddRow()
			row.AddCell().SetString(level.Name)
			row.AddCell().SetString(level.Code)
			row.AddCell().SetInt(level.Quantity)
			row.AddCell().SetInt(level.MinimumStock)
		}

		if params.Page >= page.TotalPages {
			break
		}
		params.Page++
	}

	h.writeWorkbook(w, r, file, "stock_levels")
}

// DownloadOperations handles GET /api/v1/exports/operations: renders the
// operations journal workbook synchronously.
func (h *ExportHandler) DownloadOperations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filters, err := parseOperationFilters(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Operations")
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to build workbook", slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, "Failed to generate Excel file")
		return
	}

	header := sheet.AddRow()
	for _, title := range []string{"Date", "Product", "Type", "Quantity", "Supplier", "Employee"} {
		header.AddCell().SetString(title)
	}

	params := ports.ListParams{Page: 1, PageSize: 500}
	for {
		page, err := h.reports.StockOperations(ctx, params, filters)
		if err != nil {
			h.logger.ErrorContext(ctx, "failed to load operations", slog.Any("error", err))
			respondError(w, http.StatusInternalServerError, "Failed to retrieve data")
			return
		}

		for _, rec := range page.Items {
			row := sheet.AddRow()
			row.AddCell().SetString(rec.Date.Format("2006-01-02"))
			row.AddCell().SetString(rec.ProductName)
			row.AddCell().SetString(string(rec.Type))
			row.AddCell().SetInt(rec.Quantity)
			row.AddCell().SetString(rec.SupplierName)
			row.AddCell().SetString(rec.EmployeeName)
		}

		if params.Page >= page.TotalPages {
			break
		}
		params.Page++
	}

	h.writeWorkbook(w, r, file, "operations")
}

// writeWorkbook streams a finished workbook as an attachment.
func (h *ExportHandler) writeWorkbook(w http.ResponseWriter, r *http.Request, file *xlsx.File, report string) {
	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to write workbook", slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, "Failed to generate Excel file")
		return
	}

	filename := fmt.Sprintf("%s_%s.xlsx", report, time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")

	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to write Excel response", slog.Any("error", err))
	}
}

// parseExportPayload builds the worker payload from query parameters.
func (h *ExportHandler) parseExportPayload(r *http.Request) (*workers.ExportJobPayload, error) {
	report := r.URL.Query().Get("report")
	switch report {
	case workers.ReportOperations, workers.ReportStockLevels:
	default:
		return nil, fmt.Errorf("report must be %s or %s", workers.ReportOperations, workers.ReportStockLevels)
	}

	payload := &workers.ExportJobPayload{Report: report}

	var err error
	if payload.StartDate, err = parseDateParam(r, "start_date"); err != nil {
		return nil, err
	}
	if payload.EndDate, err = parseDateParam(r, "end_date"); err != nil {
		return nil, err
	}
	if payload.AsOf, err = parseDateParam(r, "as_of"); err != nil {
		return nil, err
	}

	return payload, nil
}
