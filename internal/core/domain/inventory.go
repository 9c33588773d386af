// internal/core/domain/inventory.go
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// InventoryStatus is the count session state machine:
// pending -> {completed, cancelled}, both terminal.
type InventoryStatus string

const (
	InventoryPending   InventoryStatus = "pending"
	InventoryCompleted InventoryStatus = "completed"
	InventoryCancelled InventoryStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s InventoryStatus) Valid() bool {
	return s == InventoryPending || s == InventoryCompleted || s == InventoryCancelled
}

// Editable reports whether a session in this status still accepts row updates.
func (s InventoryStatus) Editable() bool {
	return s == InventoryPending
}

// Inventory is a physical count session. It exclusively owns its rows.
type Inventory struct {
	ID     uuid.UUID       `json:"id"`
	Code   string          `json:"code"`
	Date   time.Time       `json:"date"`
	Status InventoryStatus `json:"status"`
	Rows   []InventoryRow  `json:"rows,omitempty"`
	AuditFields
}

// NewInventoryCode builds the session code from its creation time, matching
// the INV-dd-MM-yy-HH-mm-ss convention.
func NewInventoryCode(at time.Time) string {
	return fmt.Sprintf("INV-%s", at.UTC().Format("02-01-06-15-04-05"))
}

// TotalExpected sums expected quantities across rows.
func (i *Inventory) TotalExpected() int {
	total := 0
	for _, r := range i.Rows {
		total += r.ExpectedQuantity
	}
	return total
}

// TotalCounted sums counted quantities across rows.
func (i *Inventory) TotalCounted() int {
	total := 0
	for _, r := range i.Rows {
		total += r.CountedQuantity
	}
	return total
}

// TotalVariance sums per-row variances across rows.
func (i *Inventory) TotalVariance() int {
	total := 0
	for _, r := range i.Rows {
		total += r.Variance()
	}
	return total
}

// InventoryRow captures expected vs. counted stock for one product within a
// count session. Expected is snapshotted from the product's current stock at
// session creation.
type InventoryRow struct {
	ID               uuid.UUID `json:"id"`
	InventoryID      uuid.UUID `json:"inventory_id"`
	ProductID        uuid.UUID `json:"product_id"`
	ProductName      string    `json:"product_name,omitempty"`
	ProductCode      string    `json:"product_code,omitempty"`
	ExpectedQuantity int       `json:"expected_quantity"`
	CountedQuantity  int       `json:"counted_quantity"`
}

// Variance is counted minus expected.
func (r *InventoryRow) Variance() int {
	return r.CountedQuantity - r.ExpectedQuantity
}

// Matches reports whether the physical count agrees with the expectation.
func (r *InventoryRow) Matches() bool {
	return r.Variance() == 0
}
