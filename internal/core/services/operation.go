// internal/core/services/operation.go
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

// OperationService posts immutable stock movements. Each batch commits or
// rolls back as one transaction, adjusting every affected product's running
// total exactly once.
type OperationService struct {
	operations    ports.OperationRepository
	notifications ports.NotificationService
	logger        *slog.Logger
}

var _ ports.OperationService = (*OperationService)(nil)

// NewOperationService creates a new operation service. notifications may be
// nil when alert persistence is not wired (tests, worker-only binaries).
func NewOperationService(
	operations ports.OperationRepository,
	notifications ports.NotificationService,
	logger *slog.Logger,
) *OperationService {
	return &OperationService{
		operations:    operations,
		notifications: notifications,
		logger:        logger.With(slog.String("service", "operation")),
	}
}

// PostStockIn persists a batch of stock-in operations and raises each
// affected product's current stock.
func (s *OperationService) PostStockIn(ctx context.Context, lines []ports.StockInLine) (*ports.PostResult, error) {
	if len(lines) == 0 {
		return nil, domain.NewValidation("cannot post an empty stock-in batch")
	}

	ops := make([]domain.Operation, 0, len(lines))
	for i := range lines {
		supplierID := lines[i].SupplierID
		ops = append(ops, domain.Operation{
			ID:         uuid.New(),
			ProductID:  lines[i].ProductID,
			Type:       domain.OperationStockIn,
			Quantity:   lines[i].Quantity,
			Date:       domain.DateOnly(lines[i].Date),
			SupplierID: &supplierID,
		})
	}

	alerts, err := s.post(ctx, ops)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "stock-in batch posted",
		slog.Int("lines", len(lines)))

	// Stock-in never lowers stock; alerts stay internal.
	_ = alerts
	return &ports.PostResult{Posted: len(ops)}, nil
}

// PostStockOut persists a batch of stock-out operations, lowers each
// affected product's current stock and classifies the post-update position
// for alerting.
func (s *OperationService) PostStockOut(ctx context.Context, lines []ports.StockOutLine) (*ports.PostResult, error) {
	if len(lines) == 0 {
		return nil, domain.NewValidation("cannot post an empty stock-out batch")
	}

	ops := make([]domain.Operation, 0, len(lines))
	for i := range lines {
		employeeID := lines[i].EmployeeID
		ops = append(ops, domain.Operation{
			ID:         uuid.New(),
			ProductID:  lines[i].ProductID,
			Type:       domain.OperationStockOut,
			Quantity:   lines[i].Quantity,
			Date:       domain.DateOnly(lines[i].Date),
			EmployeeID: &employeeID,
		})
	}

	positions, err := s.post(ctx, ops)
	if err != nil {
		return nil, err
	}

	alerts := make([]domain.StockAlert, 0, len(positions))
	for _, p := range positions {
		if p.IsOutOfStock() || p.IsLowStock() {
			alerts = append(alerts, p)
		}
	}

	// Alert persistence is best-effort and stays outside the batch
	// transaction: a notification failure must not undo posted stock.
	if s.notifications != nil && len(alerts) > 0 {
		if err := s.notifications.AddStockAlerts(ctx, alerts); err != nil {
			s.logger.ErrorContext(ctx, "failed to persist stock alerts",
				slog.String("error", err.Error()))
		}
	}

	s.logger.InfoContext(ctx, "stock-out batch posted",
		slog.Int("lines", len(lines)),
		slog.Int("alerts", len(alerts)))

	return &ports.PostResult{Posted: len(ops), Alerts: alerts}, nil
}

func (s *OperationService) post(ctx context.Context, ops []domain.Operation) ([]domain.StockAlert, error) {
	now := time.Now()
	for i := range ops {
		if err := ops[i].Validate(); err != nil {
			return nil, err
		}
		ops[i].CreatedAt = now
		ops[i].CreatedBy = domain.ActorFrom(ctx)
	}

	positions, err := s.operations.SaveBatch(ctx, ops)
	if err != nil {
		if domain.IsDomainError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to save operation batch: %w", err)
	}
	return positions, nil
}
