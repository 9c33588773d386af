// internal/core/services/operation_test.go
package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/Degbogueur/stock-management/internal/core/domain"
	"github.com/Degbogueur/stock-management/internal/core/ports"
	"github.com/Degbogueur/stock-management/internal/core/services"
	"github.com/Degbogueur/stock-management/test/helpers"
	"github.com/Degbogueur/stock-management/test/mocks"
)

func newOperationService(t *testing.T) (*services.OperationService, *mocks.MockOperationRepository, *mocks.MockNotificationService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	operations := mocks.NewMockOperationRepository(ctrl)
	notifications := mocks.NewMockNotificationService(ctrl)
	svc := services.NewOperationService(operations, notifications, helpers.TestLogger())
	return svc, operations, notifications
}

func TestOperationService_PostStockIn(t *testing.T) {
	productID := uuid.New()
	supplierID := uuid.New()

	tests := []struct {
		name          string
		lines         []ports.StockInLine
		setupMocks    func(*mocks.MockOperationRepository)
		expectedError bool
		errorContains string
	}{
		{
			name: "posts_batch_and_stamps_audit_fields",
			lines: []ports.StockInLine{
				{ProductID: productID, SupplierID: supplierID, Quantity: 25, Date: time.Now()},
				{ProductID: productID, SupplierID: supplierID, Quantity: 10, Date: time.Now()},
			},
			setupMocks: func(m *mocks.MockOperationRepository) {
				m.EXPECT().
					SaveBatch(gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, ops []domain.Operation) ([]domain.StockAlert, error) {
						require.Len(t, ops, 2)
						for _, op := range ops {
							assert.Equal(t, domain.OperationStockIn, op.Type)
							assert.Equal(t, supplierID, *op.SupplierID)
							assert.Nil(t, op.EmployeeID)
							assert.Equal(t, domain.DateOnly(time.Now()), op.Date)
							assert.False(t, op.CreatedAt.IsZero())
							assert.Equal(t, domain.SystemActor, op.CreatedBy)
						}
						return nil, nil
					})
			},
		},
		{
			name:          "empty_batch_is_rejected",
			lines:         nil,
			setupMocks:    func(m *mocks.MockOperationRepository) {},
			expectedError: true,
			errorContains: "empty stock-in batch",
		},
		{
			name: "invalid_line_rejects_whole_batch",
			lines: []ports.StockInLine{
				{ProductID: productID, SupplierID: supplierID, Quantity: 25, Date: time.Now()},
				{ProductID: productID, SupplierID: supplierID, Quantity: 0, Date: time.Now()},
			},
			setupMocks:    func(m *mocks.MockOperationRepository) {},
			expectedError: true,
			errorContains: "quantity must be positive",
		},
		{
			name: "repository_error_is_wrapped",
			lines: []ports.StockInLine{
				{ProductID: productID, SupplierID: supplierID, Quantity: 25, Date: time.Now()},
			},
			setupMocks: func(m *mocks.MockOperationRepository) {
				m.EXPECT().
					SaveBatch(gomock.Any(), gomock.Any()).
					Return(nil, errors.New("deadlock detected"))
			},
			expectedError: true,
			errorContains: "failed to save operation batch",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, operations, _ := newOperationService(t)
			tt.setupMocks(operations)

			result, err := svc.PostStockIn(context.Background(), tt.lines)

			if tt.expectedError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(tt.lines), result.Posted)
			assert.Empty(t, result.Alerts)
		})
	}
}

func TestOperationService_PostStockOut(t *testing.T) {
	productID := uuid.New()
	employeeID := uuid.New()
	line := ports.StockOutLine{
		ProductID: productID, EmployeeID: employeeID, Quantity: 8, Date: time.Now(),
	}

	t.Run("surfaces_low_and_out_of_stock_alerts", func(t *testing.T) {
		svc, operations, notifications := newOperationService(t)

		positions := []domain.StockAlert{
			{ProductID: productID, ProductName: "Sparkling Water 500ml", NewStock: 3, MinimumStock: 10},
			{ProductID: uuid.New(), ProductName: "Copy Paper A4", NewStock: 0, MinimumStock: 5},
			{ProductID: uuid.New(), ProductName: "Dish Soap 1L", NewStock: 42, MinimumStock: 5},
		}
		operations.EXPECT().
			SaveBatch(gomock.Any(), gomock.Any()).
			Return(positions, nil)
		notifications.EXPECT().
			AddStockAlerts(gomock.Any(), gomock.Len(2)).
			Return(nil)

		result, err := svc.PostStockOut(context.Background(), []ports.StockOutLine{line})

		require.NoError(t, err)
		assert.Equal(t, 1, result.Posted)
		require.Len(t, result.Alerts, 2, "healthy positions should not alert")
	})

	t.Run("healthy_positions_skip_notification_persistence", func(t *testing.T) {
		svc, operations, _ := newOperationService(t)

		operations.EXPECT().
			SaveBatch(gomock.Any(), gomock.Any()).
			Return([]domain.StockAlert{
				{ProductID: productID, NewStock: 42, MinimumStock: 5},
			}, nil)

		result, err := svc.PostStockOut(context.Background(), []ports.StockOutLine{line})

		require.NoError(t, err)
		assert.Empty(t, result.Alerts)
	})

	t.Run("notification_failure_does_not_undo_the_post", func(t *testing.T) {
		svc, operations, notifications := newOperationService(t)

		operations.EXPECT().
			SaveBatch(gomock.Any(), gomock.Any()).
			Return([]domain.StockAlert{
				{ProductID: productID, NewStock: 0, MinimumStock: 10},
			}, nil)
		notifications.EXPECT().
			AddStockAlerts(gomock.Any(), gomock.Any()).
			Return(errors.New("redis unavailable"))

		result, err := svc.PostStockOut(context.Background(), []ports.StockOutLine{line})

		require.NoError(t, err, "alert persistence is best-effort")
		assert.Equal(t, 1, result.Posted)
		require.Len(t, result.Alerts, 1)
	})

	t.Run("actor_from_context_is_recorded", func(t *testing.T) {
		svc, operations, _ := newOperationService(t)

		operations.EXPECT().
			SaveBatch(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, ops []domain.Operation) ([]domain.StockAlert, error) {
				require.Len(t, ops, 1)
				assert.Equal(t, "jdoe", ops[0].CreatedBy)
				assert.Equal(t, employeeID, *ops[0].EmployeeID)
				assert.Nil(t, ops[0].SupplierID)
				return nil, nil
			})

		ctx := domain.WithActor(context.Background(), "jdoe")
		_, err := svc.PostStockOut(ctx, []ports.StockOutLine{line})
		require.NoError(t, err)
	})

	t.Run("empty_batch_is_rejected", func(t *testing.T) {
		svc, _, _ := newOperationService(t)

		_, err := svc.PostStockOut(context.Background(), nil)

		require.Error(t, err)
		assert.True(t, domain.IsValidation(err))
	})

	t.Run("domain_error_from_repository_passes_through", func(t *testing.T) {
		svc, operations, _ := newOperationService(t)

		operations.EXPECT().
			SaveBatch(gomock.Any(), gomock.Any()).
			Return(nil, domain.NewNotFound("product not found"))

		_, err := svc.PostStockOut(context.Background(), []ports.StockOutLine{line})

		require.Error(t, err)
		assert.True(t, domain.IsNotFound(err))
	})
}
