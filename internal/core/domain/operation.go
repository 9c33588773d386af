// internal/core/domain/operation.go
package domain

import (
	"time"

	"github.com/google/uuid"
)

// OperationType discriminates the two operation variants.
type OperationType string

const (
	OperationStockIn  OperationType = "stock_in"
	OperationStockOut OperationType = "stock_out"
)

// Valid reports whether t is a known operation type.
func (t OperationType) Valid() bool {
	return t == OperationStockIn || t == OperationStockOut
}

// Operation is one immutable ledger entry. It is a tagged union: stock-in
// rows carry a supplier, stock-out rows carry an employee, never both.
// Date is the effective calendar date and may differ from CreatedAt.
type Operation struct {
	ID         uuid.UUID     `json:"id"`
	ProductID  uuid.UUID     `json:"product_id"`
	Type       OperationType `json:"type"`
	Quantity   int           `json:"quantity"`
	Date       time.Time     `json:"date"`
	SupplierID *uuid.UUID    `json:"supplier_id,omitempty"`
	EmployeeID *uuid.UUID    `json:"employee_id,omitempty"`
	AuditFields
}

// Signed returns the quantity with the sign implied by the operation type:
// positive for stock-in, negative for stock-out.
func (o *Operation) Signed() int {
	if o.Type == OperationStockOut {
		return -o.Quantity
	}
	return o.Quantity
}

// Validate performs domain validation on the operation.
func (o *Operation) Validate() error {
	if !o.Type.Valid() {
		return NewValidation("unknown operation type")
	}
	if o.ProductID == uuid.Nil {
		return NewValidation("operation product is required")
	}
	if o.Quantity <= 0 {
		return NewValidation("operation quantity must be positive")
	}
	if o.Date.IsZero() {
		return NewValidation("operation date is required")
	}
	switch o.Type {
	case OperationStockIn:
		if o.SupplierID == nil || *o.SupplierID == uuid.Nil {
			return NewValidation("stock-in operation requires a supplier")
		}
	case OperationStockOut:
		if o.EmployeeID == nil || *o.EmployeeID == uuid.Nil {
			return NewValidation("stock-out operation requires an employee")
		}
	}
	return nil
}

// StockAlert classifies a product's stock position right after a stock-out
// batch adjusted it. Surfaced to the caller for alerting.
type StockAlert struct {
	ProductID    uuid.UUID `json:"product_id"`
	ProductName  string    `json:"product_name"`
	NewStock     int       `json:"new_stock"`
	MinimumStock int       `json:"minimum_stock"`
}

// IsOutOfStock reports whether the adjusted stock dropped to zero or below.
func (a StockAlert) IsOutOfStock() bool {
	return a.NewStock <= 0
}

// IsLowStock reports whether the adjusted stock is above zero but at or
// below the minimum threshold.
func (a StockAlert) IsLowStock() bool {
	return a.NewStock > 0 && a.NewStock <= a.MinimumStock
}
