// internal/core/ports/types.go
package ports

import (
	"time"

	"github.com/google/uuid"

	"github.com/Degbogueur/stock-management/internal/core/domain"
)

// ListParams is the data-grid contract shared by every listing endpoint:
// operations journal, stock-card product list, stock levels, inventories.
type ListParams struct {
	Page           int    `json:"page"`
	PageSize       int    `json:"page_size"`
	SearchTerm     string `json:"search_term,omitempty"`
	SortBy         string `json:"sort_by,omitempty"`
	SortDescending bool   `json:"sort_descending,omitempty"`
}

// Normalize clamps paging values to sane defaults.
func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = 25
	}
	if p.PageSize > 500 {
		p.PageSize = 500
	}
}

// Offset returns the SQL offset for the current page.
func (p ListParams) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

// ListResult is the paginated counterpart of ListParams.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalCount int64 `json:"total_count"`
	TotalPages int   `json:"total_pages"`
}

// NewListResult assembles a page of items with derived page math.
func NewListResult[T any](items []T, params ListParams, total int64) *ListResult[T] {
	result := &ListResult[T]{
		Items:      items,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalCount: total,
	}
	if params.PageSize > 0 {
		result.TotalPages = int(total) / params.PageSize
		if int(total)%params.PageSize > 0 {
			result.TotalPages++
		}
	}
	return result
}

// OperationFilters narrows the operations journal.
type OperationFilters struct {
	StartDate  *time.Time            `json:"start_date,omitempty"`
	EndDate    *time.Time            `json:"end_date,omitempty"`
	ProductID  *uuid.UUID            `json:"product_id,omitempty"`
	SupplierID *uuid.UUID            `json:"supplier_id,omitempty"`
	EmployeeID *uuid.UUID            `json:"employee_id,omitempty"`
	Type       *domain.OperationType `json:"type,omitempty"`
}

// OperationRecord is a pre-joined operation row for reports: counterpart
// names resolved, nothing layout-specific.
type OperationRecord struct {
	OperationID  uuid.UUID            `json:"operation_id"`
	ProductID    uuid.UUID            `json:"product_id"`
	ProductName  string               `json:"product_name"`
	Quantity     int                  `json:"quantity"`
	Date         time.Time            `json:"date"`
	Type         domain.OperationType `json:"type"`
	SupplierID   *uuid.UUID           `json:"supplier_id,omitempty"`
	SupplierName string               `json:"supplier_name,omitempty"`
	EmployeeID   *uuid.UUID           `json:"employee_id,omitempty"`
	EmployeeName string               `json:"employee_name,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
}

// Signed returns the record's quantity with its operation sign.
func (r OperationRecord) Signed() int {
	if r.Type == domain.OperationStockOut {
		return -r.Quantity
	}
	return r.Quantity
}

// StockCardEntry is one ledger row of a stock card, carrying its own
// post-event running balance.
type StockCardEntry struct {
	Date            time.Time            `json:"date"`
	Type            domain.OperationType `json:"type"`
	Quantity        int                  `json:"quantity"`
	CounterpartName string               `json:"counterpart_name,omitempty"`
	Balance         int                  `json:"balance"`
	CreatedAt       time.Time            `json:"created_at"`
}

// StockCard is the chronological ledger of one product with a running
// balance seeded at InitialBalance.
type StockCard struct {
	ProductID      uuid.UUID        `json:"product_id"`
	ProductName    string           `json:"product_name"`
	ProductCode    string           `json:"product_code,omitempty"`
	CurrentStock   int              `json:"current_stock"`
	StartDate      time.Time        `json:"start_date"`
	EndDate        time.Time        `json:"end_date"`
	InitialBalance int              `json:"initial_balance"`
	Rows           []StockCardEntry `json:"rows"`
	TotalRows      int              `json:"total_rows"`
}

// StockCardProduct is the product picker row for the stock card report.
type StockCardProduct struct {
	ProductID     uuid.UUID `json:"product_id"`
	ProductName   string    `json:"product_name"`
	ProductCode   string    `json:"product_code,omitempty"`
	TotalStockIn  int       `json:"total_stock_in"`
	TotalStockOut int       `json:"total_stock_out"`
	CurrentStock  int       `json:"current_stock"`
}

// StockLevel is one row of the stock levels report, live or reconstructed
// as of a past date.
type StockLevel struct {
	ProductID    uuid.UUID `json:"product_id"`
	Name         string    `json:"name"`
	Code         string    `json:"code,omitempty"`
	Quantity     int       `json:"quantity"`
	MinimumStock int       `json:"minimum_stock"`
}

// StockInLine is one line item of a stock-in batch.
type StockInLine struct {
	ProductID  uuid.UUID `json:"product_id"`
	SupplierID uuid.UUID `json:"supplier_id"`
	Quantity   int       `json:"quantity"`
	Date       time.Time `json:"date"`
}

// StockOutLine is one line item of a stock-out batch.
type StockOutLine struct {
	ProductID  uuid.UUID `json:"product_id"`
	EmployeeID uuid.UUID `json:"employee_id"`
	Quantity   int       `json:"quantity"`
	Date       time.Time `json:"date"`
}

// PostResult reports a committed operation batch. Alerts is populated for
// stock-out batches only.
type PostResult struct {
	Posted int                 `json:"posted"`
	Alerts []domain.StockAlert `json:"alerts,omitempty"`
}

// InventorySummary is the aggregate read view of a count session.
type InventorySummary struct {
	ID             uuid.UUID              `json:"id"`
	Code           string                 `json:"code"`
	Date           time.Time              `json:"date"`
	Status         domain.InventoryStatus `json:"status"`
	TotalExpected  int                    `json:"total_expected"`
	TotalCounted   int                    `json:"total_counted"`
	TotalVariance  int                    `json:"total_variance"`
	MatchingRows   int                    `json:"matching_rows"`
	DiscrepantRows int                    `json:"discrepant_rows"`
}

// InventoryRowView is a reconciliation row with its derived classification.
type InventoryRowView struct {
	ProductID        uuid.UUID `json:"product_id"`
	ProductName      string    `json:"product_name"`
	ProductCode      string    `json:"product_code,omitempty"`
	ExpectedQuantity int       `json:"expected_quantity"`
	CountedQuantity  int       `json:"counted_quantity"`
	Variance         int       `json:"variance"`
	Matches          bool      `json:"matches"`
}

// CountedRow is the caller-supplied part of an inventory update: the
// physical count for one product.
type CountedRow struct {
	ProductID       uuid.UUID `json:"product_id"`
	CountedQuantity int       `json:"counted_quantity"`
}

// DashboardStats is the summary block of the dashboard.
type DashboardStats struct {
	TotalProducts      int       `json:"total_products"`
	TotalUnits         int       `json:"total_units"`
	LowStockCount      int       `json:"low_stock_count"`
	OutOfStockCount    int       `json:"out_of_stock_count"`
	TotalStockIn       int       `json:"total_stock_in"`
	TotalStockOut      int       `json:"total_stock_out"`
	TotalOperations    int       `json:"total_operations"`
	PendingInventories int       `json:"pending_inventories"`
	PeriodStart        time.Time `json:"period_start"`
	PeriodEnd          time.Time `json:"period_end"`
}
