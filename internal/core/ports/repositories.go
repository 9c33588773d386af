// internal/core/ports/repositories.go
package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Degbogueur/stock-management/internal/core/domain"
)

// Every read implemented behind these ports excludes soft-deleted rows by
// convention; FindByID methods return (nil, nil) when nothing matches.

// ProductRepository is the persistence port for product master data.
type ProductRepository interface {
	Save(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	// SoftDelete marks the product deleted unless operations or inventory
	// rows still reference it, in which case it returns a ConflictError.
	SoftDelete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Product, error)
	FindAll(ctx context.Context, params ListParams) ([]domain.Product, int64, error)
	// All returns every live product ordered by name, for inventory drafts
	// and historical reconstruction joins.
	All(ctx context.Context) ([]domain.Product, error)
	NameExists(ctx context.Context, name string, excludeID uuid.UUID) (bool, error)
	SearchNames(ctx context.Context, term string, limit int) ([]string, error)
	// StockCardProducts lists products with their lifetime stock-in/out
	// totals for the stock card picker.
	StockCardProducts(ctx context.Context, params ListParams) ([]StockCardProduct, int64, error)
}

// OperationRepository is the persistence port for the append-only ledger.
type OperationRepository interface {
	// SaveBatch inserts the batch and adjusts each affected product's
	// current stock by the aggregated signed quantity, one update per
	// distinct product, all in a single transaction. It returns the
	// post-update stock position of every touched product.
	SaveBatch(ctx context.Context, ops []domain.Operation) ([]domain.StockAlert, error)
	// FindRecords returns pre-joined operation rows for the journal,
	// SQL-side filtered, sorted and paged.
	FindRecords(ctx context.Context, params ListParams, filters OperationFilters) ([]OperationRecord, int64, error)
	// FindForProduct returns the product's operations within the inclusive
	// date bounds (nil bound = unbounded), ordered by (date, created_at).
	FindForProduct(ctx context.Context, productID uuid.UUID, start, end *time.Time) ([]OperationRecord, error)
	// SignedSumBefore computes stock-in minus stock-out for one product
	// strictly before the given date.
	SignedSumBefore(ctx context.Context, productID uuid.UUID, before time.Time) (int, error)
	// SumByProductBetween aggregates signed quantities per product over
	// after < date <= through.
	SumByProductBetween(ctx context.Context, after, through time.Time) (map[uuid.UUID]int, error)
	// TotalsBetween returns total stock-in units, stock-out units and
	// operation count over start <= date <= end.
	TotalsBetween(ctx context.Context, start, end time.Time) (stockIn, stockOut, count int, err error)
}

// SnapshotRepository is the persistence port for reconstruction checkpoints.
type SnapshotRepository interface {
	// LatestDateOnOrBefore returns the most recent snapshot date <= asOf,
	// or nil when no snapshot exists yet.
	LatestDateOnOrBefore(ctx context.Context, asOf time.Time) (*time.Time, error)
	// QuantitiesAt returns the baseline map recorded at exactly this date.
	QuantitiesAt(ctx context.Context, date time.Time) (map[uuid.UUID]int, error)
	// InsertForDate snapshots the current stock of every live product not
	// yet snapshotted at the date. Returns the number of rows written;
	// rerunning for the same date is a no-op.
	InsertForDate(ctx context.Context, date time.Time) (int, error)
}

// InventoryRepository is the persistence port for count sessions.
type InventoryRepository interface {
	// Save persists a new session together with its rows in one transaction.
	Save(ctx context.Context, inventory *domain.Inventory) error
	// UpdateCounts matches counted quantities to existing rows by product
	// id and optionally advances the status, atomically. It returns a
	// NotFoundError for an unknown session and a ValidationError when the
	// session is not pending.
	UpdateCounts(ctx context.Context, id uuid.UUID, counted []CountedRow, status *domain.InventoryStatus) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Inventory, error)
	FindSummary(ctx context.Context, id uuid.UUID) (*InventorySummary, error)
	FindRows(ctx context.Context, id uuid.UUID) ([]InventoryRowView, error)
	FindAll(ctx context.Context, params ListParams) ([]InventorySummary, int64, error)
	PendingCount(ctx context.Context) (int, error)
}

// CategoryRepository is the persistence port for categories.
type CategoryRepository interface {
	Save(ctx context.Context, category *domain.Category) error
	Update(ctx context.Context, category *domain.Category) error
	// SoftDelete fails with a ConflictError while products reference the
	// category.
	SoftDelete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error)
	FindAll(ctx context.Context) ([]domain.Category, error)
	FindOrCreateByName(ctx context.Context, name string) (*domain.Category, error)
	NameExists(ctx context.Context, name string, excludeID uuid.UUID) (bool, error)
	SearchNames(ctx context.Context, term string, limit int) ([]string, error)
}

// SupplierRepository is the persistence port for suppliers.
type SupplierRepository interface {
	Save(ctx context.Context, supplier *domain.Supplier) error
	Update(ctx context.Context, supplier *domain.Supplier) error
	// SoftDelete fails with a ConflictError while stock-in operations
	// reference the supplier.
	SoftDelete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Supplier, error)
	FindAll(ctx context.Context) ([]domain.Supplier, error)
	NameExists(ctx context.Context, name string, excludeID uuid.UUID) (bool, error)
	SearchNames(ctx context.Context, term string, limit int) ([]string, error)
}

// EmployeeRepository is the persistence port for employees.
type EmployeeRepository interface {
	Save(ctx context.Context, employee *domain.Employee) error
	Update(ctx context.Context, employee *domain.Employee) error
	// SoftDelete fails with a ConflictError while stock-out operations
	// reference the employee.
	SoftDelete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Employee, error)
	FindAll(ctx context.Context) ([]domain.Employee, error)
	NameExists(ctx context.Context, firstName, lastName string, excludeID uuid.UUID) (bool, error)
	Search(ctx context.Context, term string, limit int) ([]domain.Employee, error)
}

// NotificationRepository is the persistence port for stock alerts.
type NotificationRepository interface {
	SaveBatch(ctx context.Context, notifications []domain.Notification) error
	Latest(ctx context.Context, limit int) ([]domain.Notification, error)
	Unread(ctx context.Context, limit int) ([]domain.Notification, error)
	UnreadCount(ctx context.Context) (int, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	MarkAllRead(ctx context.Context) error
	Delete(ctx context.Context, id uuid.UUID) error
	Clear(ctx context.Context) error
}
