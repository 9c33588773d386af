// test/benchmarks/helpers_test.go
package benchmarks

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Degbogueur/stock-management/internal/adapters/db"
	"github.com/Degbogueur/stock-management/internal/core/domain"
	"github.com/Degbogueur/stock-management/internal/core/ports"
	"github.com/Degbogueur/stock-management/test/helpers"
)

// benchFixtures holds the master data rows every benchmark batch references.
type benchFixtures struct {
	CategoryID uuid.UUID
	SupplierID uuid.UUID
	EmployeeID uuid.UUID
	ProductIDs []uuid.UUID
}

// seedBenchmarkData inserts one category, one supplier, one employee and
// numProducts products so operation batches satisfy foreign keys.
func seedBenchmarkData(b *testing.B, testDB *helpers.TestDB, numProducts int) *benchFixtures {
	b.Helper()

	ctx := context.Background()
	log := helpers.TestLogger()

	categories := db.NewCategoryRepository(testDB.Database, log)
	suppliers := db.NewSupplierRepository(testDB.Database, log)
	employees := db.NewEmployeeRepository(testDB.Database, log)
	products := db.NewProductRepository(testDB.Database, log)

	fx := &benchFixtures{
		CategoryID: uuid.New(),
		SupplierID: uuid.New(),
		EmployeeID: uuid.New(),
	}

	if err := categories.Save(ctx, &domain.Category{
		ID:   fx.CategoryID,
		Name: "Benchmark Beverages",
	}); err != nil {
		b.Fatalf("seed category: %v", err)
	}

	if err := suppliers.Save(ctx, &domain.Supplier{
		ID:          fx.SupplierID,
		Name:        "Benchmark Supplier",
		PhoneNumber: "+10000000000",
	}); err != nil {
		b.Fatalf("seed supplier: %v", err)
	}

	if err := employees.Save(ctx, &domain.Employee{
		ID:        fx.EmployeeID,
		FirstName: "Bench",
		LastName:  "Operator",
		Position:  "Storekeeper",
	}); err != nil {
		b.Fatalf("seed employee: %v", err)
	}

	for i := 0; i < numProducts; i++ {
		product := helpers.CreateTestProduct(func(p *domain.Product) {
			p.CategoryID = fx.CategoryID
			p.Name = fmt.Sprintf("Benchmark Product %d", i+1)
			p.Code = fmt.Sprintf("BENCH-%04d", i+1)
			p.CurrentStock = 0
		})
		if err := products.Save(ctx, product); err != nil {
			b.Fatalf("seed product %d: %v", i, err)
		}
		fx.ProductIDs = append(fx.ProductIDs, product.ID)
	}

	return fx
}

// stockInLines builds a stock-in batch spread across the seeded products.
func (fx *benchFixtures) stockInLines(size, qty int, date time.Time) []ports.StockInLine {
	lines := make([]ports.StockInLine, size)
	for i := range lines {
		lines[i] = ports.StockInLine{
			ProductID:  fx.ProductIDs[i%len(fx.ProductIDs)],
			SupplierID: fx.SupplierID,
			Quantity:   qty,
			Date:       date,
		}
	}
	return lines
}

// stockOutLines builds a stock-out batch spread across the seeded products.
func (fx *benchFixtures) stockOutLines(size, qty int, date time.Time) []ports.StockOutLine {
	lines := make([]ports.StockOutLine, size)
	for i := range lines {
		lines[i] = ports.StockOutLine{
			ProductID:  fx.ProductIDs[i%len(fx.ProductIDs)],
			EmployeeID: fx.EmployeeID,
			Quantity:   qty,
			Date:       date,
		}
	}
	return lines
}
