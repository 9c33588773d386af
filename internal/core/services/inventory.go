// internal/core/services/inventory.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Degbogueur/stock-management/internal/core/domain"
	"github.com/Degbogueur/stock-management/internal/core/ports"
)

// InventoryService manages physical count sessions and their
// reconciliation against expected stock.
type InventoryService struct {
	inventories ports.InventoryRepository
	products    ports.ProductRepository
	logger      *slog.Logger
}

var _ ports.InventoryService = (*InventoryService)(nil)

// NewInventoryService creates a new inventory service.
func NewInventoryService(
	inventories ports.InventoryRepository,
	products ports.ProductRepository,
	logger *slog.Logger,
) *InventoryService {
	return &InventoryService{
		inventories: inventories,
		products:    products,
		logger:      logger.With(slog.String("service", "inventory")),
	}
}

// CreateDraft opens a pending count session.
func (s *InventoryService) CreateDraft(ctx context.Context, rows []ports.CountedRow) (*domain.Inventory, error) {
	return s.create(ctx, rows, domain.InventoryPending)
}

// CreateCompleted records a count session already closed.
func (s *InventoryService) CreateCompleted(ctx context.Context, rows []ports.CountedRow) (*domain.Inventory, error) {
	return s.create(ctx, rows, domain.InventoryCompleted)
}

func (s *InventoryService) create(ctx context.Context, rows []ports.CountedRow, status domain.InventoryStatus) (*domain.Inventory, error) {
	if len(rows) == 0 {
		return nil, domain.NewValidation("cannot save an empty inventory")
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load counted products: %w", err)
	}
	stockByID := make(map[uuid.UUID]int, len(products))
	for i := range products {
		stockByID[products[i].ID] = products[i].CurrentStock
	}

	now := time.Now()
	inventory := &domain.Inventory{
		ID:     uuid.New(),
		Code:   domain.NewInventoryCode(now),
		Date:   domain.DateOnly(now),
		Status: status,
	}
	inventory.CreatedAt = now
	inventory.CreatedBy = domain.ActorFrom(ctx)

	for _, r := range rows {
		expected, ok := stockByID[r.ProductID]
		if !ok {
			return nil, domain.NewNotFound(fmt.Sprintf("product %s not found", r.ProductID))
		}
		inventory.Rows = append(inventory.Rows, domain.InventoryRow{
			ID:               uuid.New(),
			InventoryID:      inventory.ID,
			ProductID:        r.ProductID,
			ExpectedQuantity: expected,
			CountedQuantity:  r.CountedQuantity,
		})
	}

	if err := s.inventories.Save(ctx, inventory); err != nil {
		return nil, fmt.Errorf("failed to save inventory: %w", err)
	}

	s.logger.InfoContext(ctx, "inventory created",
		slog.String("inventory_id", inventory.ID.String()),
		slog.String("code", inventory.Code),
		slog.String("status", string(status)),
		slog.Int("rows", len(inventory.Rows)))

	return inventory, nil
}

// Update matches counted quantities to the session's rows by product id and
// optionally advances the status, all in one transaction. Only pending
// sessions accept updates; rows absent from the input are left untouched.
func (s *InventoryService) Update(ctx context.Context, id uuid.UUID, rows []ports.CountedRow, status *domain.InventoryStatus) error {
	if len(rows) == 0 {
		return domain.NewValidation("cannot update with empty inventory rows")
	}
	if status != nil && !status.Valid() {
		return domain.NewValidation("unknown inventory status")
	}

	if err := s.inventories.UpdateCounts(ctx, id, rows, status); err != nil {
		if domain.IsDomainError(err) {
			return err
		}
		return fmt.Errorf("failed to update inventory %s: %w", id, err)
	}

	s.logger.InfoContext(ctx, "inventory updated",
		slog.String("inventory_id", id.String()),
		slog.Int("rows", len(rows)))

	return nil
}

// Delete soft-deletes a session; its rows go with it.
func (s *InventoryService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.inventories.SoftDelete(ctx, id); err != nil {
		if domain.IsDomainError(err) {
			return err
		}
		return fmt.Errorf("failed to delete inventory %s: %w", id, err)
	}

	s.logger.InfoContext(ctx, "inventory deleted",
		slog.String("inventory_id", id.String()))

	return nil
}

// Details returns the aggregate reconciliation view of one session.
func (s *InventoryService) Details(ctx context.Context, id uuid.UUID) (*ports.InventorySummary, error) {
	summary, err := s.inventories.FindSummary(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory details: %w", err)
	}
	if summary == nil {
		return nil, domain.NewNotFound("inventory not found")
	}
	return summary, nil
}

// Rows returns the stored rows of a session, or a fresh draft row per live
// product (expected = current stock, counted 0) when id is nil.
func (s *InventoryService) Rows(ctx context.Context, id *uuid.UUID) ([]ports.InventoryRowView, error) {
	if id == nil {
		products, err := s.products.All(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to build draft rows: %w", err)
		}
		rows := make([]ports.InventoryRowView, 0, len(products))
		for i := range products {
			rows = append(rows, ports.InventoryRowView{
				ProductID:        products[i].ID,
				ProductName:      products[i].Name,
				ProductCode:      products[i].Code,
				ExpectedQuantity: products[i].CurrentStock,
				CountedQuantity:  0,
				Variance:         -products[i].CurrentStock,
				Matches:          products[i].CurrentStock == 0,
			})
		}
		return rows, nil
	}

	rows, err := s.inventories.FindRows(ctx, *id)
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory rows: %w", err)
	}
	return rows, nil
}

// List returns paged session summaries.
func (s *InventoryService) List(ctx context.Context, params ports.ListParams) (*ports.ListResult[ports.InventorySummary], error) {
	params.Normalize()

	items, total, err := s.inventories.FindAll(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventories: %w", err)
	}
	return ports.NewListResult(items, params, total), nil
}
