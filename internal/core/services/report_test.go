// internal/core/services/report_test.go
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

type reportDeps struct {
	products    *mocks.MockProductRepository
	operations  *mocks.MockOperationRepository
	snapshots   *mocks.MockSnapshotRepository
	inventories *mocks.MockInventoryRepository
}

func newReportService(t *testing.T) (*services.ReportService, *reportDeps) {
	t.Helper()
	ctrl := gomock.NewController(t)
	deps := &reportDeps{
		products:    mocks.NewMockProductRepository(ctrl),
		operations:  mocks.NewMockOperationRepository(ctrl),
		snapshots:   mocks.NewMockSnapshotRepository(ctrl),
		inventories: mocks.NewMockInventoryRepository(ctrl),
	}
	svc := services.NewReportService(
		deps.products, deps.operations, deps.snapshots, deps.inventories,
		helpers.TestLogger())
	return svc, deps
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func TestReportService_HistoricalStock(t *testing.T) {
	productA := uuid.New()
	productB := uuid.New()
	asOf := day(2026, 3, 20)
	checkpoint := day(2026, 3, 10)

	tests := []struct {
		name          string
		asOf          time.Time
		setupMocks    func(*reportDeps)
		expected      map[uuid.UUID]int
		expectedError bool
	}{
		{
			name: "checkpoint_baseline_plus_deltas",
			asOf: asOf,
			setupMocks: func(d *reportDeps) {
				d.snapshots.EXPECT().
					LatestDateOnOrBefore(gomock.Any(), asOf).
					Return(&checkpoint, nil)
				d.snapshots.EXPECT().
					QuantitiesAt(gomock.Any(), checkpoint).
					Return(map[uuid.UUID]int{productA: 100}, nil)
				d.operations.EXPECT().
					SumByProductBetween(gomock.Any(), checkpoint, asOf).
					Return(map[uuid.UUID]int{productA: -30, productB: 15}, nil)
			},
			expected: map[uuid.UUID]int{productA: 70, productB: 15},
		},
		{
			name: "no_checkpoint_sums_from_origin",
			asOf: asOf,
			setupMocks: func(d *reportDeps) {
				d.snapshots.EXPECT().
					LatestDateOnOrBefore(gomock.Any(), asOf).
					Return(nil, nil)
				d.operations.EXPECT().
					SumByProductBetween(gomock.Any(), time.Time{}, asOf).
					Return(map[uuid.UUID]int{productA: 12}, nil)
			},
			expected: map[uuid.UUID]int{productA: 12},
		},
		{
			name: "truncates_as_of_to_calendar_date",
			asOf: time.Date(2026, 3, 20, 17, 45, 3, 0, time.UTC),
			setupMocks: func(d *reportDeps) {
				d.snapshots.EXPECT().
					LatestDateOnOrBefore(gomock.Any(), asOf).
					Return(nil, nil)
				d.operations.EXPECT().
					SumByProductBetween(gomock.Any(), time.Time{}, asOf).
					Return(map[uuid.UUID]int{}, nil)
			},
			expected: map[uuid.UUID]int{},
		},
		{
			name: "checkpoint_lookup_error",
			asOf: asOf,
			setupMocks: func(d *reportDeps) {
				d.snapshots.EXPECT().
					LatestDateOnOrBefore(gomock.Any(), asOf).
					Return(nil, errors.New("connection refused"))
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, deps := newReportService(t)
			tt.setupMocks(deps)

			levels, err := svc.HistoricalStock(context.Background(), tt.asOf)

			if tt.expectedError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, levels)
		})
	}
}

func TestReportService_StockCard(t *testing.T) {
	productID := uuid.New()
	product := helpers.CreateTestProduct(func(p *domain.Product) {
		p.ID = productID
		p.CurrentStock = 70
	})

	t.Run("running_balance_tracks_each_operation", func(t *testing.T) {
		svc, deps := newReportService(t)

		deps.products.EXPECT().
			FindByID(gomock.Any(), productID).
			Return(product, nil)
		deps.operations.EXPECT().
			FindForProduct(gomock.Any(), productID, nil, nil).
			Return([]ports.OperationRecord{
				{
					ProductID:    productID,
					Type:         domain.OperationStockIn,
					Quantity:     100,
					Date:         day(2026, 3, 1),
					SupplierName: "Acme Distribution",
					CreatedAt:    day(2026, 3, 1).Add(9 * time.Hour),
				},
				{
					ProductID:    productID,
					Type:         domain.OperationStockOut,
					Quantity:     30,
					Date:         day(2026, 3, 15),
					EmployeeName: "Jane Doe",
					CreatedAt:    day(2026, 3, 15).Add(14 * time.Hour),
				},
			}, nil)

		card, err := svc.StockCard(context.Background(), productID, nil, nil)

		require.NoError(t, err)
		require.Len(t, card.Rows, 2)
		assert.Equal(t, 0, card.InitialBalance)
		assert.Equal(t, 100, card.Rows[0].Balance)
		assert.Equal(t, "Acme Distribution", card.Rows[0].CounterpartName)
		assert.Equal(t, 30, card.Rows[1].Quantity)
		assert.Equal(t, "Jane Doe", card.Rows[1].CounterpartName)
		assert.Equal(t, card.CurrentStock, card.Rows[len(card.Rows)-1].Balance,
			"final running balance should equal the live stock level")
		assert.Equal(t, day(2026, 3, 1), card.StartDate)
		assert.Equal(t, day(2026, 3, 15), card.EndDate)
	})

	t.Run("orders_same_day_operations_by_creation_time", func(t *testing.T) {
		svc, deps := newReportService(t)

		sameDay := day(2026, 3, 10)
		deps.products.EXPECT().
			FindByID(gomock.Any(), productID).
			Return(product, nil)
		// Returned out of order on purpose; creation time is the tie-break.
		deps.operations.EXPECT().
			FindForProduct(gomock.Any(), productID, nil, nil).
			Return([]ports.OperationRecord{
				{
					ProductID: productID,
					Type:      domain.OperationStockIn,
					Quantity:  100,
					Date:      sameDay,
					CreatedAt: sameDay.Add(16 * time.Hour),
				},
				{
					ProductID: productID,
					Type:      domain.OperationStockOut,
					Quantity:  30,
					Date:      sameDay,
					CreatedAt: sameDay.Add(8 * time.Hour),
				},
			}, nil)

		card, err := svc.StockCard(context.Background(), productID, nil, nil)

		require.NoError(t, err)
		require.Len(t, card.Rows, 2)
		assert.Equal(t, domain.OperationStockOut, card.Rows[0].Type)
		assert.Equal(t, -30, card.Rows[0].Balance)
		assert.Equal(t, domain.OperationStockIn, card.Rows[1].Type)
		assert.Equal(t, 70, card.Rows[1].Balance)
	})

	t.Run("seeds_opening_balance_from_operations_before_start", func(t *testing.T) {
		svc, deps := newReportService(t)

		start := day(2026, 3, 1)
		deps.products.EXPECT().
			FindByID(gomock.Any(), productID).
			Return(product, nil)
		deps.operations.EXPECT().
			SignedSumBefore(gomock.Any(), productID, start).
			Return(40, nil)
		deps.operations.EXPECT().
			FindForProduct(gomock.Any(), productID, &start, nil).
			Return([]ports.OperationRecord{
				{
					ProductID: productID,
					Type:      domain.OperationStockOut,
					Quantity:  10,
					Date:      day(2026, 3, 5),
					CreatedAt: day(2026, 3, 5),
				},
			}, nil)

		card, err := svc.StockCard(context.Background(), productID, &start, nil)

		require.NoError(t, err)
		assert.Equal(t, 40, card.InitialBalance)
		require.Len(t, card.Rows, 1)
		assert.Equal(t, 30, card.Rows[0].Balance)
	})

	t.Run("unknown_product_returns_not_found", func(t *testing.T) {
		svc, deps := newReportService(t)

		deps.products.EXPECT().
			FindByID(gomock.Any(), productID).
			Return(nil, nil)

		card, err := svc.StockCard(context.Background(), productID, nil, nil)

		require.Error(t, err)
		assert.Nil(t, card)
		assert.True(t, domain.IsNotFound(err))
	})
}

func TestReportService_StockLevels(t *testing.T) {
	productA := uuid.New()

	t.Run("live_levels_read_running_totals", func(t *testing.T) {
		svc, deps := newReportService(t)

		deps.products.EXPECT().
			FindAll(gomock.Any(), gomock.Any()).
			Return([]domain.Product{
				{ID: productA, Name: "Sparkling Water 500ml", Code: "SKU-0001", CurrentStock: 40, MinimumStock: 10},
			}, int64(1), nil)

		result, err := svc.StockLevels(context.Background(), ports.ListParams{}, nil)

		require.NoError(t, err)
		require.Len(t, result.Items, 1)
		assert.Equal(t, 40, result.Items[0].Quantity)
		assert.Equal(t, 10, result.Items[0].MinimumStock)
		assert.Equal(t, int64(1), result.TotalCount)
	})

	t.Run("as_of_levels_are_reconstructed", func(t *testing.T) {
		svc, deps := newReportService(t)

		asOf := day(2026, 3, 20)
		checkpoint := day(2026, 3, 10)

		deps.snapshots.EXPECT().
			LatestDateOnOrBefore(gomock.Any(), asOf).
			Return(&checkpoint, nil)
		deps.snapshots.EXPECT().
			QuantitiesAt(gomock.Any(), checkpoint).
			Return(map[uuid.UUID]int{productA: 100}, nil)
		deps.operations.EXPECT().
			SumByProductBetween(gomock.Any(), checkpoint, asOf).
			Return(map[uuid.UUID]int{productA: -30}, nil)
		deps.products.EXPECT().
			FindByIDs(gomock.Any(), gomock.Any()).
			Return([]domain.Product{
				{ID: productA, Name: "Sparkling Water 500ml", Code: "SKU-0001", CurrentStock: 40, MinimumStock: 10},
			}, nil)

		result, err := svc.StockLevels(context.Background(), ports.ListParams{}, &asOf)

		require.NoError(t, err)
		require.Len(t, result.Items, 1)
		assert.Equal(t, 70, result.Items[0].Quantity,
			"reconstructed level should be checkpoint plus deltas, not the live total")
	})

	t.Run("as_of_before_first_snapshot_reports_variance_only", func(t *testing.T) {
		svc, deps := newReportService(t)

		asOf := day(2026, 1, 5)

		deps.snapshots.EXPECT().
			LatestDateOnOrBefore(gomock.Any(), asOf).
			Return(nil, nil)
		deps.operations.EXPECT().
			SumByProductBetween(gomock.Any(), time.Time{}, asOf).
			Return(map[uuid.UUID]int{}, nil)
		deps.products.EXPECT().
			All(gomock.Any()).
			Return([]domain.Product{
				{ID: productA, Name: "Sparkling Water 500ml", Code: "SKU-0001", CurrentStock: 40, MinimumStock: 10},
			}, nil)

		result, err := svc.StockLevels(context.Background(), ports.ListParams{}, &asOf)

		require.NoError(t, err)
		require.Len(t, result.Items, 1)
		assert.Equal(t, 0, result.Items[0].Quantity,
			"products without recorded history read as empty before the first snapshot")
	})

	t.Run("as_of_levels_filter_and_page_in_memory", func(t *testing.T) {
		svc, deps := newReportService(t)

		asOf := day(2026, 3, 20)
		productB := uuid.New()

		deps.snapshots.EXPECT().
			LatestDateOnOrBefore(gomock.Any(), asOf).
			Return(nil, nil)
		deps.operations.EXPECT().
			SumByProductBetween(gomock.Any(), time.Time{}, asOf).
			Return(map[uuid.UUID]int{productA: 5, productB: 9}, nil)
		deps.products.EXPECT().
			All(gomock.Any()).
			Return([]domain.Product{
				{ID: productA, Name: "Sparkling Water 500ml", Code: "SKU-0001"},
				{ID: productB, Name: "Copy Paper A4", Code: "SKU-0002"},
			}, nil)

		result, err := svc.StockLevels(context.Background(),
			ports.ListParams{SearchTerm: "paper"}, &asOf)

		require.NoError(t, err)
		require.Len(t, result.Items, 1)
		assert.Equal(t, productB, result.Items[0].ProductID)
		assert.Equal(t, 9, result.Items[0].Quantity)
		assert.Equal(t, int64(1), result.TotalCount)
	})
}

func TestReportService_DashboardStats(t *testing.T) {
	svc, deps := newReportService(t)

	start := day(2026, 3, 1)
	end := day(2026, 3, 31)

	deps.products.EXPECT().
		All(gomock.Any()).
		Return([]domain.Product{
			{ID: uuid.New(), Name: "Out", CurrentStock: 0, MinimumStock: 5},
			{ID: uuid.New(), Name: "Low", CurrentStock: 2, MinimumStock: 5},
			{ID: uuid.New(), Name: "Fine", CurrentStock: 60, MinimumStock: 5},
		}, nil)
	deps.operations.EXPECT().
		TotalsBetween(gomock.Any(), start, end).
		Return(100, 40, 12, nil)
	deps.inventories.EXPECT().
		PendingCount(gomock.Any()).
		Return(2, nil)

	stats, err := svc.DashboardStats(context.Background(), &start, &end)

	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalProducts)
	assert.Equal(t, 62, stats.TotalUnits)
	assert.Equal(t, 1, stats.OutOfStockCount)
	assert.Equal(t, 1, stats.LowStockCount)
	assert.Equal(t, 100, stats.TotalStockIn)
	assert.Equal(t, 40, stats.TotalStockOut)
	assert.Equal(t, 12, stats.TotalOperations)
	assert.Equal(t, 2, stats.PendingInventories)
	assert.Equal(t, start, stats.PeriodStart)
	assert.Equal(t, end, stats.PeriodEnd)
}
