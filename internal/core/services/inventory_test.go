// internal/core/services/inventory_test.go
package services_test

import (
	"context"
	"errors"
	"testing"

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

func newInventoryService(t *testing.T) (*services.InventoryService, *mocks.MockInventoryRepository, *mocks.MockProductRepository) {
	t.Helper()
	ctrl := gomock.NewController(t)
	inventories := mocks.NewMockInventoryRepository(ctrl)
	products := mocks.NewMockProductRepository(ctrl)
	svc := services.NewInventoryService(inventories, products, helpers.TestLogger())
	return svc, inventories, products
}

func TestInventoryService_CreateDraft(t *testing.T) {
	productID := uuid.New()

	t.Run("snapshots_expected_stock_at_creation", func(t *testing.T) {
		svc, inventories, products := newInventoryService(t)

		products.EXPECT().
			FindByIDs(gomock.Any(), []uuid.UUID{productID}).
			Return([]domain.Product{
				{ID: productID, Name: "Sparkling Water 500ml", CurrentStock: 40},
			}, nil)
		inventories.EXPECT().
			Save(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, inv *domain.Inventory) error {
				assert.Equal(t, domain.InventoryPending, inv.Status)
				assert.NotEmpty(t, inv.Code)
				require.Len(t, inv.Rows, 1)
				assert.Equal(t, 40, inv.Rows[0].ExpectedQuantity)
				assert.Equal(t, 37, inv.Rows[0].CountedQuantity)
				assert.Equal(t, inv.ID, inv.Rows[0].InventoryID)
				return nil
			})

		inv, err := svc.CreateDraft(context.Background(), []ports.CountedRow{
			{ProductID: productID, CountedQuantity: 37},
		})

		require.NoError(t, err)
		assert.Equal(t, -3, inv.TotalVariance())
	})

	t.Run("unknown_product_fails_the_whole_session", func(t *testing.T) {
		svc, _, products := newInventoryService(t)

		products.EXPECT().
			FindByIDs(gomock.Any(), gomock.Any()).
			Return([]domain.Product{}, nil)

		inv, err := svc.CreateDraft(context.Background(), []ports.CountedRow{
			{ProductID: productID, CountedQuantity: 5},
		})

		require.Error(t, err)
		assert.Nil(t, inv)
		assert.True(t, domain.IsNotFound(err))
	})

	t.Run("empty_row_set_is_rejected", func(t *testing.T) {
		svc, _, _ := newInventoryService(t)

		inv, err := svc.CreateDraft(context.Background(), nil)

		require.Error(t, err)
		assert.Nil(t, inv)
		assert.True(t, domain.IsValidation(err))
	})
}

func TestInventoryService_CreateCompleted(t *testing.T) {
	svc, inventories, products := newInventoryService(t)

	productID := uuid.New()
	products.EXPECT().
		FindByIDs(gomock.Any(), gomock.Any()).
		Return([]domain.Product{{ID: productID, CurrentStock: 12}}, nil)
	inventories.EXPECT().
		Save(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, inv *domain.Inventory) error {
			assert.Equal(t, domain.InventoryCompleted, inv.Status)
			return nil
		})

	_, err := svc.CreateCompleted(context.Background(), []ports.CountedRow{
		{ProductID: productID, CountedQuantity: 12},
	})
	require.NoError(t, err)
}

func TestInventoryService_Update(t *testing.T) {
	inventoryID := uuid.New()
	rows := []ports.CountedRow{{ProductID: uuid.New(), CountedQuantity: 7}}

	tests := []struct {
		name          string
		rows          []ports.CountedRow
		status        *domain.InventoryStatus
		setupMocks    func(*mocks.MockInventoryRepository)
		expectedError bool
		checkError    func(*testing.T, error)
	}{
		{
			name:   "updates_counts_and_advances_status",
			rows:   rows,
			status: statusPtr(domain.InventoryCompleted),
			setupMocks: func(m *mocks.MockInventoryRepository) {
				m.EXPECT().
					UpdateCounts(gomock.Any(), inventoryID, rows, statusPtr(domain.InventoryCompleted)).
					Return(nil)
			},
		},
		{
			name:          "empty_row_set_is_rejected",
			rows:          nil,
			setupMocks:    func(m *mocks.MockInventoryRepository) {},
			expectedError: true,
			checkError: func(t *testing.T, err error) {
				assert.True(t, domain.IsValidation(err))
			},
		},
		{
			name:          "unknown_status_is_rejected",
			rows:          rows,
			status:        statusPtr(domain.InventoryStatus("archived")),
			setupMocks:    func(m *mocks.MockInventoryRepository) {},
			expectedError: true,
			checkError: func(t *testing.T, err error) {
				assert.True(t, domain.IsValidation(err))
			},
		},
		{
			name: "non_pending_session_rejects_edits",
			rows: rows,
			setupMocks: func(m *mocks.MockInventoryRepository) {
				m.EXPECT().
					UpdateCounts(gomock.Any(), inventoryID, rows, nil).
					Return(domain.NewValidation("inventory is not pending"))
			},
			expectedError: true,
			checkError: func(t *testing.T, err error) {
				assert.True(t, domain.IsValidation(err))
				assert.Contains(t, err.Error(), "not pending")
			},
		},
		{
			name: "repository_error_is_wrapped",
			rows: rows,
			setupMocks: func(m *mocks.MockInventoryRepository) {
				m.EXPECT().
					UpdateCounts(gomock.Any(), inventoryID, rows, nil).
					Return(errors.New("connection reset"))
			},
			expectedError: true,
			checkError: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "failed to update inventory")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, inventories, _ := newInventoryService(t)
			tt.setupMocks(inventories)

			err := svc.Update(context.Background(), inventoryID, tt.rows, tt.status)

			if tt.expectedError {
				require.Error(t, err)
				if tt.checkError != nil {
					tt.checkError(t, err)
				}
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestInventoryService_Details(t *testing.T) {
	inventoryID := uuid.New()

	t.Run("returns_summary", func(t *testing.T) {
		svc, inventories, _ := newInventoryService(t)

		inventories.EXPECT().
			FindSummary(gomock.Any(), inventoryID).
			Return(&ports.InventorySummary{ID: inventoryID, TotalVariance: -3}, nil)

		summary, err := svc.Details(context.Background(), inventoryID)

		require.NoError(t, err)
		assert.Equal(t, -3, summary.TotalVariance)
	})

	t.Run("missing_session_returns_not_found", func(t *testing.T) {
		svc, inventories, _ := newInventoryService(t)

		inventories.EXPECT().
			FindSummary(gomock.Any(), inventoryID).
			Return(nil, nil)

		_, err := svc.Details(context.Background(), inventoryID)

		require.Error(t, err)
		assert.True(t, domain.IsNotFound(err))
	})
}

func TestInventoryService_Rows(t *testing.T) {
	t.Run("nil_id_builds_fresh_draft_rows", func(t *testing.T) {
		svc, _, products := newInventoryService(t)

		products.EXPECT().
			All(gomock.Any()).
			Return([]domain.Product{
				{ID: uuid.New(), Name: "Sparkling Water 500ml", Code: "SKU-0001", CurrentStock: 40},
				{ID: uuid.New(), Name: "Copy Paper A4", Code: "SKU-0002", CurrentStock: 0},
			}, nil)

		rows, err := svc.Rows(context.Background(), nil)

		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, 40, rows[0].ExpectedQuantity)
		assert.Equal(t, 0, rows[0].CountedQuantity)
		assert.Equal(t, -40, rows[0].Variance)
		assert.False(t, rows[0].Matches)
		assert.True(t, rows[1].Matches, "empty product counted as zero matches")
	})

	t.Run("existing_session_reads_stored_rows", func(t *testing.T) {
		svc, inventories, _ := newInventoryService(t)

		id := uuid.New()
		inventories.EXPECT().
			FindRows(gomock.Any(), id).
			Return([]ports.InventoryRowView{{ExpectedQuantity: 10, CountedQuantity: 10, Matches: true}}, nil)

		rows, err := svc.Rows(context.Background(), &id)

		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.True(t, rows[0].Matches)
	})
}

func statusPtr(s domain.InventoryStatus) *domain.InventoryStatus {
	return &s
}
