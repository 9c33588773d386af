// internal/workers/export_processor.go
package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/tealeg/xlsx/v3"

	redis_a "github.com/Degbogueur/stock-management/internal/adapters/redis_adapter"
	"github.com/Degbogueur/stock-management/internal/adapters/storage"
	"github.com/Degbogueur/stock-management/internal/core/ports"
)

const (
	// ReportOperations exports the operations journal.
	ReportOperations = "operations"
	// ReportStockLevels exports per-product stock levels, live or as of a date.
	ReportStockLevels = "stock_levels"

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	exportURLTTL = 24 * time.Hour
)

// ExportJobPayload is the payload of a report export task.
type ExportJobPayload struct {
	JobID     string     `json:"job_id"`
	Report    string     `json:"report"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	AsOf      *time.Time `json:"as_of,omitempty"`
}

// ExportProcessor renders reports to xlsx and archives them.
type ExportProcessor struct {
	reports ports.ReportService
	storage storage.StorageClient
	cache   ports.CacheRepository
	logger  *slog.Logger
}

// NewExportProcessor creates a new export processor
func NewExportProcessor(reports ports.ReportService, st storage.StorageClient, cache ports.CacheRepository, logger *slog.Logger) *ExportProcessor {
	return &ExportProcessor{
		reports: reports,
		storage: st,
		cache:   cache,
		logger:  logger.With(slog.String("processor", "export")),
	}
}

// ProcessExport builds the requested report workbook, uploads it and caches a
// pre-signed download URL under the job id.
func (p *ExportProcessor) ProcessExport(ctx context.Context, t *asynq.Task) error {
	var payload ExportJobPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	p.logger.InfoContext(ctx, "processing report export",
		slog.String("job_id", payload.JobID),
		slog.String("report", payload.Report))

	var buf bytes.Buffer
	var err error
	switch payload.Report {
	case ReportOperations:
		err = p.writeOperations(ctx, &buf, payload)
	case ReportStockLevels:
		err = p.writeStockLevels(ctx, &buf, payload)
	default:
		return fmt.Errorf("unknown report type %q", payload.Report)
	}
	if err != nil {
		return err
	}

	key := fmt.Sprintf("exports/%s/%s-%s.xlsx",
		time.Now().UTC().Format("2006/01"), payload.Report, payload.JobID)
	if _, err := p.storage.Upload(ctx, key, &buf, xlsxContentType); err != nil {
		return fmt.Errorf("failed to archive report: %w", err)
	}

	url, err := p.storage.GetPresignedURL(ctx, key, exportURLTTL)
	if err != nil {
		return fmt.Errorf("failed to presign report url: %w", err)
	}

	cacheKey := redis_a.BuildKey(redis_a.PrefixReport, "export", payload.JobID)
	if err := p.cache.SetWithTTL(ctx, cacheKey, url, exportURLTTL); err != nil {
		p.logger.WarnContext(ctx, "failed to cache export url",
			slog.String("job_id", payload.JobID),
			slog.Any("error", err))
	}

	p.logger.InfoContext(ctx, "report export completed",
		slog.String("job_id", payload.JobID),
		slog.String("key", key))

	return nil
}

func (p *ExportProcessor) writeOperations(ctx context.Context, buf *bytes.Buffer, payload ExportJobPayload) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Operations")
	if err != nil {
		return fmt.Errorf("failed to add sheet: %w", err)
	}

	header := sheet.AddRow()
	for _, title := range []string{"Date", "Product", "Type", "Quantity", "Supplier", "Employee"} {
		header.AddCell().SetString(title)
	}

	params := ports.ListParams{Page: 1, PageSize: 500}
	filters := ports.OperationFilters{StartDate: payload.StartDate, EndDate: payload.EndDate}
	for {
		page, err := p.reports.StockOperations(ctx, params, filters)
		if err != nil {
			return fmt.Errorf("failed to load operations: %w", err)
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

	return file.Write(buf)
}

func (p *ExportProcessor) writeStockLevels(ctx context.Context, buf *bytes.Buffer, payload ExportJobPayload) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Stock Levels")
	if err != nil {
		return fmt.Errorf("failed to add sheet: %w", err)
	}

	header := sheet.AddRow()
	for _, title := range []string{"Product", "Code", "Quantity", "Minimum"} {
		header.AddCell().SetString(title)
	}

	params := ports.ListParams{Page: 1, PageSize: 500}
	for {
		page, err := p.reports.StockLevels(ctx, params, payload.AsOf)
		if err != nil {
			return fmt.Errorf("failed to load stock levels: %w", err)
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

	return file.Write(buf)
}
