package domain_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/Degbogueur/stock-management/internal/core/domain"
)

func TestOperation_Validate(t *testing.T) {
	supplierID := uuid.New()
	employeeID := uuid.New()

	tests := []struct {
		name      string
		op        domain.Operation
		wantError bool
		errorMsg  string
	}{
		{
			name: "valid_stock_in",
			op: domain.Operation{
				ProductID:  uuid.New(),
				Type:       domain.OperationStockIn,
				Quantity:   10,
				Date:       time.Now(),
				SupplierID: &supplierID,
			},
			wantError: false,
		},
		{
			name: "valid_stock_out",
			op: domain.Operation{
				ProductID:  uuid.New(),
				Type:       domain.OperationStockOut,
				Quantity:   3,
				Date:       time.Now(),
				EmployeeID: &employeeID,
			},
			wantError: false,
		},
		{
			name: "unknown_type",
			op: domain.Operation{
				ProductID: uuid.New(),
				Type:      domain.OperationType("transfer"),
				Quantity:  1,
				Date:      time.Now(),
			},
			wantError: true,
			errorMsg:  "unknown operation type",
		},
		{
			name: "missing_product",
			op: domain.Operation{
				Type:       domain.OperationStockIn,
				Quantity:   1,
				Date:       time.Now(),
				SupplierID: &supplierID,
			},
			wantError: true,
			errorMsg:  "operation product is required",
		},
		{
			name: "zero_quantity",
			op: domain.Operation{
				ProductID:  uuid.New(),
				Type:       domain.OperationStockIn,
				Quantity:   0,
				Date:       time.Now(),
				SupplierID: &supplierID,
			},
			wantError: true,
			errorMsg:  "operation quantity must be positive",
		},
		{
			name: "stock_in_without_supplier",
			op: domain.Operation{
				ProductID: uuid.New(),
				Type:      domain.OperationStockIn,
				Quantity:  5,
				Date:      time.Now(),
			},
			wantError: true,
			errorMsg:  "stock-in operation requires a supplier",
		},
		{
			name: "stock_out_without_employee",
			op: domain.Operation{
				ProductID: uuid.New(),
				Type:      domain.OperationStockOut,
				Quantity:  5,
				Date:      time.Now(),
			},
			wantError: true,
			errorMsg:  "stock-out operation requires an employee",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.op.Validate()

			if !tt.wantError {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			assert.True(t, domain.IsValidation(err))
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}

func TestOperation_Signed(t *testing.T) {
	in := domain.Operation{Type: domain.OperationStockIn, Quantity: 25}
	out := domain.Operation{Type: domain.OperationStockOut, Quantity: 25}

	assert.Equal(t, 25, in.Signed())
	assert.Equal(t, -25, out.Signed())
}

func TestProduct_StockThresholds(t *testing.T) {
	tests := []struct {
		name       string
		current    int
		minimum    int
		low        bool
		outOfStock bool
	}{
		{name: "healthy", current: 50, minimum: 10, low: false, outOfStock: false},
		{name: "at_minimum", current: 10, minimum: 10, low: true, outOfStock: false},
		{name: "below_minimum", current: 3, minimum: 10, low: true, outOfStock: false},
		{name: "zero", current: 0, minimum: 10, low: false, outOfStock: true},
		{name: "negative", current: -2, minimum: 10, low: false, outOfStock: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := domain.Product{CurrentStock: tt.current, MinimumStock: tt.minimum}

			assert.Equal(t, tt.low, p.IsLowStock())
			assert.Equal(t, tt.outOfStock, p.IsOutOfStock())
		})
	}
}

func TestInventoryStatus(t *testing.T) {
	assert.True(t, domain.InventoryPending.Valid())
	assert.True(t, domain.InventoryCompleted.Valid())
	assert.True(t, domain.InventoryCancelled.Valid())
	assert.False(t, domain.InventoryStatus("archived").Valid())

	assert.True(t, domain.InventoryPending.Editable())
	assert.False(t, domain.InventoryCompleted.Editable())
	assert.False(t, domain.InventoryCancelled.Editable())
}

func TestInventory_Totals(t *testing.T) {
	inventory := domain.Inventory{
		Rows: []domain.InventoryRow{
			{ExpectedQuantity: 40, CountedQuantity: 37},
			{ExpectedQuantity: 10, CountedQuantity: 12},
			{ExpectedQuantity: 5, CountedQuantity: 5},
		},
	}

	assert.Equal(t, 55, inventory.TotalExpected())
	assert.Equal(t, 54, inventory.TotalCounted())
	assert.Equal(t, -1, inventory.TotalVariance())

	assert.Equal(t, -3, inventory.Rows[0].Variance())
	assert.False(t, inventory.Rows[0].Matches())
	assert.True(t, inventory.Rows[2].Matches())
}

func TestNewInventoryCode(t *testing.T) {
	at := time.Date(2026, 3, 16, 14, 5, 9, 0, time.UTC)

	assert.Equal(t, "INV-16-03-26-14-05-09", domain.NewInventoryCode(at))
}

func TestDateOnly(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	at := time.Date(2026, 3, 16, 23, 45, 0, 0, loc)

	got := domain.DateOnly(at)

	assert.Equal(t, time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC), got)
}

func TestActorContext(t *testing.T) {
	ctx := context.Background()

	assert.Equal(t, domain.SystemActor, domain.ActorFrom(ctx))
	assert.Equal(t, "jdoe", domain.ActorFrom(domain.WithActor(ctx, "jdoe")))
	assert.Equal(t, domain.SystemActor, domain.ActorFrom(domain.WithActor(ctx, "")))
}
