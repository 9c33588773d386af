// internal/handlers/report_test.go
package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/Degbogueur/stock-management/internal/core/domain"
	"github.com/Degbogueur/stock-management/internal/core/ports"
	"github.com/Degbogueur/stock-management/internal/handlers"
	"github.com/Degbogueur/stock-management/test/helpers"
	"github.com/Degbogueur/stock-management/test/mocks"
)

type reportHandlerDeps struct {
	reports   *mocks.MockReportService
	snapshots *mocks.MockSnapshotService
	cache     *mocks.MockCacheRepository
}

func newReportHandler(t *testing.T) (*handlers.ReportHandler, *reportHandlerDeps) {
	t.Helper()
	ctrl := gomock.NewController(t)
	deps := &reportHandlerDeps{
		reports:   mocks.NewMockReportService(ctrl),
		snapshots: mocks.NewMockSnapshotService(ctrl),
		cache:     mocks.NewMockCacheRepository(ctrl),
	}
	handler := handlers.NewReportHandler(deps.reports, deps.snapshots, deps.cache, helpers.TestLogger())
	return handler, deps
}

func TestReportHandler_GetStockLevels(t *testing.T) {
	productID := uuid.New()
	page := &ports.ListResult[ports.StockLevel]{
		Items: []ports.StockLevel{
			{ProductID: productID, Name: "Sparkling Water 500ml", Quantity: 40, MinimumStock: 10},
		},
		Page:       1,
		PageSize:   25,
		TotalCount: 1,
		TotalPages: 1,
	}

	t.Run("live_levels_go_through_the_cache", func(t *testing.T) {
		handler, deps := newReportHandler(t)

		deps.cache.EXPECT().
			GetOrSet(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), 2*time.Minute).
			DoAndReturn(func(ctx context.Context, key string, dest interface{},
				fetch func() (interface{}, error), ttl time.Duration) error {
				fetched, err := fetch()
				if err != nil {
					return err
				}
				raw, err := json.Marshal(fetched)
				if err != nil {
					return err
				}
				return json.Unmarshal(raw, dest)
			})
		deps.reports.EXPECT().
			StockLevels(gomock.Any(), gomock.Any(), nil).
			Return(page, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/stock-levels", nil)
		rec := httptest.NewRecorder()

		handler.GetStockLevels(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response ports.ListResult[ports.StockLevel]
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		require.Len(t, response.Items, 1)
		assert.Equal(t, 40, response.Items[0].Quantity)
	})

	t.Run("as_of_levels_bypass_the_cache", func(t *testing.T) {
		handler, deps := newReportHandler(t)

		asOf := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
		deps.reports.EXPECT().
			StockLevels(gomock.Any(), gomock.Any(), &asOf).
			Return(page, nil)

		req := httptest.NewRequest(http.MethodGet,
			"/api/v1/reports/stock-levels?as_of=2026-03-20", nil)
		rec := httptest.NewRecorder()

		handler.GetStockLevels(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("searches_bypass_the_cache", func(t *testing.T) {
		handler, deps := newReportHandler(t)

		deps.reports.EXPECT().
			StockLevels(gomock.Any(), ports.ListParams{Page: 1, PageSize: 25, SearchTerm: "water"}, nil).
			Return(page, nil)

		req := httptest.NewRequest(http.MethodGet,
			"/api/v1/reports/stock-levels?search=water", nil)
		rec := httptest.NewRecorder()

		handler.GetStockLevels(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("malformed_as_of_is_rejected", func(t *testing.T) {
		handler, _ := newReportHandler(t)

		req := httptest.NewRequest(http.MethodGet,
			"/api/v1/reports/stock-levels?as_of=20-03-2026", nil)
		rec := httptest.NewRecorder()

		handler.GetStockLevels(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "expected yyyy-mm-dd")
	})
}

func TestReportHandler_GetHistoricalStock(t *testing.T) {
	t.Run("returns_reconstructed_quantities_keyed_by_product", func(t *testing.T) {
		handler, deps := newReportHandler(t)

		productID := uuid.New()
		asOf := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
		deps.reports.EXPECT().
			HistoricalStock(gomock.Any(), asOf).
			Return(map[uuid.UUID]int{productID: 70}, nil)

		req := httptest.NewRequest(http.MethodGet,
			"/api/v1/reports/historical-stock?as_of=2026-03-20", nil)
		rec := httptest.NewRecorder()

		handler.GetHistoricalStock(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response struct {
			AsOf       string         `json:"as_of"`
			Quantities map[string]int `json:"quantities"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		assert.Equal(t, "2026-03-20", response.AsOf)
		assert.Equal(t, 70, response.Quantities[productID.String()])
	})

	t.Run("as_of_is_required", func(t *testing.T) {
		handler, _ := newReportHandler(t)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/historical-stock", nil)
		rec := httptest.NewRecorder()

		handler.GetHistoricalStock(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "as_of is required")
	})
}

func TestReportHandler_GetStockCard(t *testing.T) {
	productID := uuid.New()

	tests := []struct {
		name           string
		productID      string
		query          string
		setupMocks     func(*reportHandlerDeps)
		expectedStatus int
		validateBody   func(*testing.T, []byte)
	}{
		{
			name:      "returns_ledger_with_running_balance",
			productID: productID.String(),
			setupMocks: func(d *reportHandlerDeps) {
				d.reports.EXPECT().
					StockCard(gomock.Any(), productID, nil, nil).
					Return(&ports.StockCard{
						ProductID:    productID,
						ProductName:  "Sparkling Water 500ml",
						CurrentStock: 70,
						Rows: []ports.StockCardEntry{
							{Type: domain.OperationStockIn, Quantity: 100, Balance: 100},
							{Type: domain.OperationStockOut, Quantity: 30, Balance: 70},
						},
						TotalRows: 2,
					}, nil)
			},
			expectedStatus: http.StatusOK,
			validateBody: func(t *testing.T, body []byte) {
				var response ports.StockCard
				require.NoError(t, json.Unmarshal(body, &response))
				require.Len(t, response.Rows, 2)
				assert.Equal(t, 70, response.Rows[1].Balance)
			},
		},
		{
			name:      "forwards_date_bounds",
			productID: productID.String(),
			query:     "?start_date=2026-03-01&end_date=2026-03-31",
			setupMocks: func(d *reportHandlerDeps) {
				start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
				end := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
				d.reports.EXPECT().
					StockCard(gomock.Any(), productID, &start, &end).
					Return(&ports.StockCard{ProductID: productID}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "invalid_product_id",
			productID:      "not-a-uuid",
			setupMocks:     func(d *reportHandlerDeps) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:      "unknown_product",
			productID: productID.String(),
			setupMocks: func(d *reportHandlerDeps) {
				d.reports.EXPECT().
					StockCard(gomock.Any(), productID, nil, nil).
					Return(nil, domain.NewNotFound("product not found"))
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, deps := newReportHandler(t)
			tt.setupMocks(deps)

			req := httptest.NewRequest(http.MethodGet,
				"/api/v1/reports/stock-card/"+tt.productID+tt.query, nil)
			req.SetPathValue("productId", tt.productID)
			rec := httptest.NewRecorder()

			handler.GetStockCard(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.validateBody != nil {
				tt.validateBody(t, rec.Body.Bytes())
			}
		})
	}
}

func TestReportHandler_GetOperations(t *testing.T) {
	t.Run("forwards_journal_filters", func(t *testing.T) {
		handler, deps := newReportHandler(t)

		productID := uuid.New()
		deps.reports.EXPECT().
			StockOperations(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, params ports.ListParams,
				filters ports.OperationFilters) (*ports.ListResult[ports.OperationRecord], error) {
				require.NotNil(t, filters.ProductID)
				assert.Equal(t, productID, *filters.ProductID)
				require.NotNil(t, filters.Type)
				assert.Equal(t, domain.OperationStockOut, *filters.Type)
				return &ports.ListResult[ports.OperationRecord]{Items: []ports.OperationRecord{}}, nil
			})

		req := httptest.NewRequest(http.MethodGet,
			"/api/v1/operations?product_id="+productID.String()+"&type=stock_out", nil)
		rec := httptest.NewRecorder()

		handler.GetOperations(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unknown_type_filter_is_rejected", func(t *testing.T) {
		handler, _ := newReportHandler(t)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/operations?type=transfer", nil)
		rec := httptest.NewRecorder()

		handler.GetOperations(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "stock_in or stock_out")
	})
}

func TestReportHandler_TakeSnapshot(t *testing.T) {
	t.Run("captures_checkpoint_for_requested_date", func(t *testing.T) {
		handler, deps := newReportHandler(t)

		date := time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)
		deps.snapshots.EXPECT().
			TakeSnapshot(gomock.Any(), date).
			Return(15, nil)

		req := httptest.NewRequest(http.MethodPost,
			"/api/v1/reports/snapshots?date=2026-03-16", nil)
		rec := httptest.NewRecorder()

		handler.TakeSnapshot(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)

		var response struct {
			Date    string `json:"date"`
			Written int    `json:"written"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		assert.Equal(t, "2026-03-16", response.Date)
		assert.Equal(t, 15, response.Written)
	})

	t.Run("defaults_to_today", func(t *testing.T) {
		handler, deps := newReportHandler(t)

		deps.snapshots.EXPECT().
			TakeSnapshot(gomock.Any(), gomock.Any()).
			Return(0, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/snapshots", nil)
		rec := httptest.NewRecorder()

		handler.TakeSnapshot(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
	})
}
