// internal/core/ports/services.go
package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Degbogueur/stock-management/internal/core/domain"
)

// ReportService is the stock reporting and historical reconstruction port.
type ReportService interface {
	// HistoricalStock reconstructs every product's stock level as of the
	// given date from the latest checkpoint plus ledger deltas.
	HistoricalStock(ctx context.Context, asOf time.Time) (map[uuid.UUID]int, error)
	// StockLevels lists stock per product; asOf nil reads the live running
	// totals, otherwise levels are reconstructed as of that date.
	StockLevels(ctx context.Context, params ListParams, asOf *time.Time) (*ListResult[StockLevel], error)
	// StockCard builds the running-balance ledger of one product.
	StockCard(ctx context.Context, productID uuid.UUID, start, end *time.Time) (*StockCard, error)
	StockCardProducts(ctx context.Context, params ListParams) (*ListResult[StockCardProduct], error)
	// StockOperations lists the pre-joined operations journal.
	StockOperations(ctx context.Context, params ListParams, filters OperationFilters) (*ListResult[OperationRecord], error)
	DashboardStats(ctx context.Context, start, end *time.Time) (*DashboardStats, error)
}

// OperationService posts immutable stock movements.
type OperationService interface {
	PostStockIn(ctx context.Context, lines []StockInLine) (*PostResult, error)
	PostStockOut(ctx context.Context, lines []StockOutLine) (*PostResult, error)
}

// InventoryService manages physical count sessions.
type InventoryService interface {
	CreateDraft(ctx context.Context, rows []CountedRow) (*domain.Inventory, error)
	CreateCompleted(ctx context.Context, rows []CountedRow) (*domain.Inventory, error)
	Update(ctx context.Context, id uuid.UUID, rows []CountedRow, status *domain.InventoryStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
	Details(ctx context.Context, id uuid.UUID) (*InventorySummary, error)
	// Rows returns stored rows for a session, or a fresh draft row per
	// live product when id is nil.
	Rows(ctx context.Context, id *uuid.UUID) ([]InventoryRowView, error)
	List(ctx context.Context, params ListParams) (*ListResult[InventorySummary], error)
}

// SnapshotService writes reconstruction checkpoints.
type SnapshotService interface {
	// TakeSnapshot records the current stock of every product for the
	// given calendar date. Idempotent per (product, date).
	TakeSnapshot(ctx context.Context, asOf time.Time) (int, error)
}

// ProductService manages product master data.
type ProductService interface {
	Create(ctx context.Context, product *domain.Product, categoryName string) error
	Update(ctx context.Context, product *domain.Product, categoryName string) error
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context, params ListParams) (*ListResult[domain.Product], error)
	SearchNames(ctx context.Context, term string, limit int) ([]string, error)
}

// CategoryService manages categories.
type CategoryService interface {
	Create(ctx context.Context, category *domain.Category) error
	Update(ctx context.Context, category *domain.Category) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]domain.Category, error)
	SearchNames(ctx context.Context, term string, limit int) ([]string, error)
}

// SupplierService manages suppliers.
type SupplierService interface {
	Create(ctx context.Context, supplier *domain.Supplier) error
	Update(ctx context.Context, supplier *domain.Supplier) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]domain.Supplier, error)
	SearchNames(ctx context.Context, term string, limit int) ([]string, error)
}

// EmployeeService manages employees.
type EmployeeService interface {
	Create(ctx context.Context, employee *domain.Employee) error
	Update(ctx context.Context, employee *domain.Employee) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]domain.Employee, error)
	Search(ctx context.Context, term string, limit int) ([]domain.Employee, error)
}

// NotificationService manages persisted stock alerts.
type NotificationService interface {
	AddStockAlerts(ctx context.Context, alerts []domain.StockAlert) error
	Latest(ctx context.Context, limit int) ([]domain.Notification, error)
	Unread(ctx context.Context, limit int) ([]domain.Notification, error)
	UnreadCount(ctx context.Context) (int, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	MarkAllRead(ctx context.Context) error
	Delete(ctx context.Context, id uuid.UUID) error
	Clear(ctx context.Context) error
}
