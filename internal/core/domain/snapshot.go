// internal/core/domain/snapshot.go
package domain

import (
	"time"

	"github.com/google/uuid"
)

// StockSnapshot is a reconstruction checkpoint: the recorded stock quantity
// of one product at a calendar date. (ProductID, SnapshotDate) is unique and
// a snapshot is never mutated once written.
type StockSnapshot struct {
	ID              uuid.UUID `json:"id"`
	ProductID       uuid.UUID `json:"product_id"`
	SnapshotDate    time.Time `json:"snapshot_date"`
	QuantityInStock int       `json:"quantity_in_stock"`
	CreatedAt       time.Time `json:"created_at"`
}

// DateOnly truncates t to a calendar date in UTC. Snapshot dates and
// operation effective dates compare date-only, without a time component.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Notification is a persisted alert, raised when stock-out posting drives a
// product to or below its minimum level.
type Notification struct {
	ID        uuid.UUID         `json:"id"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Level     NotificationLevel `json:"level"`
	IsRead    bool              `json:"is_read"`
	CreatedAt time.Time         `json:"created_at"`
}

// NotificationLevel grades notification severity.
type NotificationLevel string

const (
	NotificationInfo    NotificationLevel = "info"
	NotificationWarning NotificationLevel = "warning"
	NotificationError   NotificationLevel = "error"
	NotificationSuccess NotificationLevel = "success"
)
