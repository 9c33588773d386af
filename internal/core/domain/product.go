// internal/core/domain/product.go
package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Product is warehouse master data. CurrentStock is a mutable running total
// maintained transactionally by operation posting; it is never recomputed on
// read.
type Product struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Code         string    `json:"code,omitempty"`
	CategoryID   uuid.UUID `json:"category_id"`
	CategoryName string    `json:"category_name,omitempty"`
	CurrentStock int       `json:"current_stock"`
	MinimumStock int       `json:"minimum_stock"`
	AuditFields
}

// IsLowStock reports whether the product is above zero but at or below its
// minimum threshold.
func (p *Product) IsLowStock() bool {
	return p.CurrentStock > 0 && p.CurrentStock <= p.MinimumStock
}

// IsOutOfStock reports whether the product has no stock left.
func (p *Product) IsOutOfStock() bool {
	return p.CurrentStock <= 0
}

// Validate performs domain validation on the product.
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return NewValidation("product name is required")
	}
	if p.MinimumStock < 0 {
		return NewValidation("minimum stock cannot be negative")
	}
	return nil
}

// Category groups products. A category with products cannot be deleted.
type Category struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	ProductCount int       `json:"product_count"`
	AuditFields
}

func (c *Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return NewValidation("category name is required")
	}
	return nil
}

// Supplier is the counterpart of a stock-in operation.
type Supplier struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	PhoneNumber string    `json:"phone_number"`
	Email       string    `json:"email,omitempty"`
	Address     string    `json:"address,omitempty"`
	AuditFields
}

func (s *Supplier) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return NewValidation("supplier name is required")
	}
	if strings.TrimSpace(s.PhoneNumber) == "" {
		return NewValidation("supplier phone number is required")
	}
	return nil
}

// Employee is the counterpart of a stock-out operation.
type Employee struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Position  string    `json:"position,omitempty"`
	AuditFields
}

// FullName returns "First Last".
func (e *Employee) FullName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

func (e *Employee) Validate() error {
	if strings.TrimSpace(e.FirstName) == "" || strings.TrimSpace(e.LastName) == "" {
		return NewValidation("employee first and last name are required")
	}
	return nil
}
