package benchmarks

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Degbogueur/stock-management/internal/adapters/db"
	"github.com/Degbogueur/stock-management/internal/core/domain"
	"github.com/Degbogueur/stock-management/internal/core/ports"
	"github.com/Degbogueur/stock-management/internal/core/services"
	"github.com/Degbogueur/stock-management/test/helpers"
)

func BenchmarkOperationPosting(b *testing.B) {
	// Setup
	testDB := helpers.SetupTestDB(&testing.T{})
	defer testDB.Database.Close()

	log := helpers.TestLogger()
	operations := db.NewOperationRepository(testDB.Database, log)
	service := services.NewOperationService(operations, nil, log)
	fx := seedBenchmarkData(b, testDB, 50)
	ctx := context.Background()

	day := time.Now()

	// Pre-load stock so stock-out batches never run dry.
	if _, err := service.PostStockIn(ctx, fx.stockInLines(len(fx.ProductIDs), 1_000_000, day)); err != nil {
		b.Fatalf("preload stock: %v", err)
	}

	b.Run("StockInSingle", func(b *testing.B) {
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_, _ = service.PostStockIn(ctx, fx.stockInLines(1, 5, day))
		}
	})

	b.Run("StockInBatch100", func(b *testing.B) {
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_, _ = service.PostStockIn(ctx, fx.stockInLines(100, 5, day))
		}
	})

	b.Run("StockOutBatch100", func(b *testing.B) {
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_, _ = service.PostStockOut(ctx, fx.stockOutLines(100, 1, day))
		}
	})
}

func BenchmarkStockReconstruction(b *testing.B) {
	testDB := helpers.SetupTestDB(&testing.T{})
	defer testDB.Database.Close()

	log := helpers.TestLogger()
	products := db.NewProductRepository(testDB.Database, log)
	operations := db.NewOperationRepository(testDB.Database, log)
	snapshots := db.NewSnapshotRepository(testDB.Database, log)
	inventories := db.NewInventoryRepository(testDB.Database, log)

	operationService := services.NewOperationService(operations, nil, log)
	reportService := services.NewReportService(products, operations, snapshots, inventories, log)
	fx := seedBenchmarkData(b, testDB, 50)
	ctx := context.Background()

	// Build a history: receipts, a daily checkpoint, then issues after it.
	now := time.Now()
	if _, err := operationService.PostStockIn(ctx, fx.stockInLines(len(fx.ProductIDs), 200, now.AddDate(0, 0, -20))); err != nil {
		b.Fatalf("seed receipts: %v", err)
	}
	if _, err := snapshots.InsertForDate(ctx, domain.DateOnly(now.AddDate(0, 0, -10))); err != nil {
		b.Fatalf("seed snapshot: %v", err)
	}
	if _, err := operationService.PostStockOut(ctx, fx.stockOutLines(len(fx.ProductIDs), 30, now.AddDate(0, 0, -5))); err != nil {
		b.Fatalf("seed issues: %v", err)
	}

	b.Run("HistoricalStock", func(b *testing.B) {
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_, _ = reportService.HistoricalStock(ctx, now)
		}
	})

	b.Run("HistoricalStockBeforeCheckpoint", func(b *testing.B) {
		asOf := now.AddDate(0, 0, -15)
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_, _ = reportService.HistoricalStock(ctx, asOf)
		}
	})

	b.Run("StockLevelsLive", func(b *testing.B) {
		params := ports.ListParams{Page: 1, PageSize: 50}
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_, _ = reportService.StockLevels(ctx, params, nil)
		}
	})

	b.Run("StockLevelsAsOf", func(b *testing.B) {
		params := ports.ListParams{Page: 1, PageSize: 50}
		asOf := now.AddDate(0, 0, -3)
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_, _ = reportService.StockLevels(ctx, params, &asOf)
		}
	})

	b.Run("StockCard", func(b *testing.B) {
		productID := fx.ProductIDs[0]
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_, _ = reportService.StockCard(ctx, productID, nil, nil)
		}
	})
}

func BenchmarkInventoryTotals(b *testing.B) {
	inventory := &domain.Inventory{
		ID:     uuid.New(),
		Code:   domain.NewInventoryCode(time.Now()),
		Status: domain.InventoryPending,
		Rows:   make([]domain.InventoryRow, 500),
	}
	for i := range inventory.Rows {
		inventory.Rows[i] = domain.InventoryRow{
			ID:               uuid.New(),
			InventoryID:      inventory.ID,
			ProductID:        uuid.New(),
			ExpectedQuantity: 100,
			CountedQuantity:  100 - i%3,
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = inventory.TotalExpected()
		_ = inventory.TotalCounted()
		_ = inventory.TotalVariance()
	}
}

// Memory allocation benchmarks
func BenchmarkMemoryAllocation(b *testing.B) {
	b.Run("Operation", func(b *testing.B) {
		supplierID := uuid.New()
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			_ = &domain.Operation{
				ID:         uuid.New(),
				ProductID:  uuid.New(),
				Type:       domain.OperationStockIn,
				Quantity:   5,
				Date:       domain.DateOnly(time.Now()),
				SupplierID: &supplierID,
			}
		}
	})

	b.Run("ListResult", func(b *testing.B) {
		levels := make([]ports.StockLevel, 100)
		params := ports.ListParams{Page: 1, PageSize: 50}

		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_ = ports.NewListResult(levels, params, 100)
		}
	})
}
