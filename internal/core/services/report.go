// internal/core/services/report.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Degbogueur/stock-management/internal/core/domain"
	"github.com/Degbogueur/stock-management/internal/core/ports"
)

// ReportService implements the stock reporting and historical
// reconstruction engine.
type ReportService struct {
	products    ports.ProductRepository
	operations  ports.OperationRepository
	snapshots   ports.SnapshotRepository
	inventories ports.InventoryRepository
	logger      *slog.Logger
}

// Statically assert that *ReportService implements the ReportService port.
var _ ports.ReportService = (*ReportService)(nil)

// NewReportService creates a new report service.
func NewReportService(
	products ports.ProductRepository,
	operations ports.OperationRepository,
	snapshots ports.SnapshotRepository,
	inventories ports.InventoryRepository,
	logger *slog.Logger,
) *ReportService {
	return &ReportService{
		products:    products,
		operations:  operations,
		snapshots:   snapshots,
		inventories: inventories,
		logger:      logger.With(slog.String("service", "report")),
	}
}

// HistoricalStock reconstructs stock levels as of a calendar date: baseline
// quantities from the latest snapshot at or before the date, plus signed
// operation deltas between the checkpoint and the date. The result covers
// the union of products seen in either map; callers decide how to join it
// against master data. Read-only and safe to run concurrently with writes.
func (s *ReportService) HistoricalStock(ctx context.Context, asOf time.Time) (map[uuid.UUID]int, error) {
	levels, _, err := s.reconstruct(ctx, domain.DateOnly(asOf))
	return levels, err
}

// reconstruct is the single checkpoint resolution both HistoricalStock and
// the as-of StockLevels path share. Resolving the checkpoint once keeps the
// returned map and the checkpoint-found flag consistent when a snapshot
// lands mid-request.
func (s *ReportService) reconstruct(ctx context.Context, day time.Time) (map[uuid.UUID]int, bool, error) {
	checkpoint, err := s.snapshots.LatestDateOnOrBefore(ctx, day)
	if err != nil {
		return nil, false, fmt.Errorf("failed to resolve checkpoint: %w", err)
	}

	baseline := map[uuid.UUID]int{}
	// Zero time means "beginning of time": every operation up to the
	// as-of date contributes to the variance.
	var after time.Time
	if checkpoint != nil {
		after = *checkpoint
		baseline, err = s.snapshots.QuantitiesAt(ctx, *checkpoint)
		if err != nil {
			return nil, false, fmt.Errorf("failed to load baseline snapshot: %w", err)
		}
	}

	variances, err := s.operations.SumByProductBetween(ctx, after, day)
	if err != nil {
		return nil, false, fmt.Errorf("failed to sum operation deltas: %w", err)
	}

	levels := make(map[uuid.UUID]int, len(baseline)+len(variances))
	for id, qty := range baseline {
		levels[id] = qty
	}
	for id, delta := range variances {
		levels[id] += delta
	}

	s.logger.DebugContext(ctx, "historical stock reconstructed",
		slog.Time("as_of", day),
		slog.Bool("checkpoint_found", checkpoint != nil),
		slog.Int("products", len(levels)))

	return levels, checkpoint != nil, nil
}

// StockLevels lists per-product stock. With no as-of date it reads the live
// running totals straight from the products table (the cheap path). With a
// date it reconstructs levels via HistoricalStock; when at least one
// snapshot exists only products seen in the baseline/variance union are
// reported, otherwise all current products appear with their variance.
func (s *ReportService) StockLevels(ctx context.Context, params ports.ListParams, asOf *time.Time) (*ports.ListResult[ports.StockLevel], error) {
	params.Normalize()

	if asOf == nil {
		products, total, err := s.products.FindAll(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("failed to list stock levels: %w", err)
		}
		rows := make([]ports.StockLevel, 0, len(products))
		for _, p := range products {
			rows = append(rows, ports.StockLevel{
				ProductID:    p.ID,
				Name:         p.Name,
				Code:         p.Code,
				Quantity:     p.CurrentStock,
				MinimumStock: p.MinimumStock,
			})
		}
		return ports.NewListResult(rows, params, total), nil
	}

	day := domain.DateOnly(*asOf)
	levels, hasCheckpoint, err := s.reconstruct(ctx, day)
	if err != nil {
		return nil, err
	}

	var products []domain.Product
	if !hasCheckpoint {
		products, err = s.products.All(ctx)
	} else {
		ids := make([]uuid.UUID, 0, len(levels))
		for id := range levels {
			ids = append(ids, id)
		}
		products, err = s.products.FindByIDs(ctx, ids)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load products for reconstruction: %w", err)
	}

	rows := make([]ports.StockLevel, 0, len(products))
	for _, p := range products {
		rows = append(rows, ports.StockLevel{
			ProductID:    p.ID,
			Name:         p.Name,
			Code:         p.Code,
			Quantity:     levels[p.ID],
			MinimumStock: p.MinimumStock,
		})
	}

	rows = filterStockLevels(rows, params.SearchTerm)
	sortStockLevels(rows, params.SortBy, params.SortDescending)

	total := int64(len(rows))
	rows = pageSlice(rows, params)

	return ports.NewListResult(rows, params, total), nil
}

// StockCard builds the chronological running-balance ledger of one product.
// Same-day operations are ordered by creation time: insertion order is the
// tie-break, not type or quantity.
func (s *ReportService) StockCard(ctx context.Context, productID uuid.UUID, start, end *time.Time) (*ports.StockCard, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if product == nil {
		return nil, domain.NewNotFound(fmt.Sprintf("product %s not found", productID))
	}

	initialBalance := 0
	if start != nil {
		initialBalance, err = s.operations.SignedSumBefore(ctx, productID, *start)
		if err != nil {
			return nil, fmt.Errorf("failed to compute opening balance: %w", err)
		}
	}

	records, err := s.operations.FindForProduct(ctx, productID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load product operations: %w", err)
	}

	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].Date.Equal(records[j].Date) {
			return records[i].Date.Before(records[j].Date)
		}
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})

	balance := initialBalance
	rows := make([]ports.StockCardEntry, 0, len(records))
	for _, r := range records {
		balance += r.Signed()
		counterpart := r.SupplierName
		if r.Type == domain.OperationStockOut {
			counterpart = r.EmployeeName
		}
		rows = append(rows, ports.StockCardEntry{
			Date:            r.Date,
			Type:            r.Type,
			Quantity:        r.Quantity,
			CounterpartName: counterpart,
			Balance:         balance,
			CreatedAt:       r.CreatedAt,
		})
	}

	// Reported bounds clamp to the dates actually seen; empty cards fall
	// back to the requested bounds or today.
	today := domain.DateOnly(time.Now())
	actualStart, actualEnd := today, today
	if len(records) > 0 {
		actualStart = records[0].Date
		actualEnd = records[len(records)-1].Date
	} else {
		if start != nil {
			actualStart = *start
		}
		if end != nil {
			actualEnd = *end
		}
	}

	return &ports.StockCard{
		ProductID:      product.ID,
		ProductName:    product.Name,
		ProductCode:    product.Code,
		CurrentStock:   product.CurrentStock,
		StartDate:      actualStart,
		EndDate:        actualEnd,
		InitialBalance: initialBalance,
		Rows:           rows,
		TotalRows:      len(rows),
	}, nil
}

// StockCardProducts lists products with lifetime in/out totals for the
// stock card picker.
func (s *ReportService) StockCardProducts(ctx context.Context, params ports.ListParams) (*ports.ListResult[ports.StockCardProduct], error) {
	params.Normalize()

	items, total, err := s.products.StockCardProducts(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list stock card products: %w", err)
	}
	return ports.NewListResult(items, params, total), nil
}

// StockOperations lists the pre-joined operations journal.
func (s *ReportService) StockOperations(ctx context.Context, params ports.ListParams, filters ports.OperationFilters) (*ports.ListResult[ports.OperationRecord], error) {
	params.Normalize()

	records, total, err := s.operations.FindRecords(ctx, params, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list stock operations: %w", err)
	}
	return ports.NewListResult(records, params, total), nil
}

// DashboardStats aggregates the dashboard summary for a period, defaulting
// to the last month.
func (s *ReportService) DashboardStats(ctx context.Context, start, end *time.Time) (*ports.DashboardStats, error) {
	periodEnd := domain.DateOnly(time.Now())
	if end != nil {
		periodEnd = domain.DateOnly(*end)
	}
	periodStart := periodEnd.AddDate(0, -1, 0)
	if start != nil {
		periodStart = domain.DateOnly(*start)
	}

	products, err := s.products.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	stats := &ports.DashboardStats{
		TotalProducts: len(products),
		PeriodStart:   periodStart,
		PeriodEnd:     periodEnd,
	}
	for i := range products {
		stats.TotalUnits += products[i].CurrentStock
		if products[i].IsOutOfStock() {
			stats.OutOfStockCount++
		} else if products[i].IsLowStock() {
			stats.LowStockCount++
		}
	}

	stockIn, stockOut, count, err := s.operations.TotalsBetween(ctx, periodStart, periodEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate operations: %w", err)
	}
	stats.TotalStockIn = stockIn
	stats.TotalStockOut = stockOut
	stats.TotalOperations = count

	pending, err := s.inventories.PendingCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count pending inventories: %w", err)
	}
	stats.PendingInventories = pending

	return stats, nil
}

func filterStockLevels(rows []ports.StockLevel, term string) []ports.StockLevel {
	if strings.TrimSpace(term) == "" {
		return rows
	}
	needle := strings.ToLower(strings.TrimSpace(term))
	filtered := rows[:0]
	for _, r := range rows {
		if strings.Contains(strings.ToLower(r.Name), needle) ||
			strings.Contains(strings.ToLower(r.Code), needle) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

func sortStockLevels(rows []ports.StockLevel, sortBy string, descending bool) {
	less := func(i, j int) bool { return rows[i].Name < rows[j].Name }
	switch sortBy {
	case "code":
		less = func(i, j int) bool { return rows[i].Code < rows[j].Code }
	case "quantity", "current_stock":
		less = func(i, j int) bool { return rows[i].Quantity < rows[j].Quantity }
	case "minimum_stock":
		less = func(i, j int) bool { return rows[i].MinimumStock < rows[j].MinimumStock }
	}
	if descending {
		inner := less
		less = func(i, j int) bool { return inner(j, i) }
	}
	sort.SliceStable(rows, less)
}

func pageSlice[T any](rows []T, params ports.ListParams) []T {
	offset := params.Offset()
	if offset >= len(rows) {
		return []T{}
	}
	end := offset + params.PageSize
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}
