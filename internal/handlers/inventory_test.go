// internal/handlers/inventory_test.go
package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

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

func newInventoryHandler(t *testing.T) (*handlers.InventoryHandler, *mocks.MockInventoryService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	service := mocks.NewMockInventoryService(ctrl)
	cache := mocks.NewMockCacheRepository(ctrl)
	cache.EXPECT().DeletePattern(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	handler := handlers.NewInventoryHandler(service, cache, helpers.TestLogger())
	return handler, service
}

func TestInventoryHandler_CreateInventory(t *testing.T) {
	inventoryID := uuid.New()
	productID := uuid.New()

	tests := []struct {
		name           string
		body           string
		setupMocks     func(*mocks.MockInventoryService)
		expectedStatus int
		validateBody   func(*testing.T, []byte)
	}{
		{
			name: "creates_pending_session_by_default",
			body: `{"rows":[{"product_id":"` + productID.String() + `","counted_quantity":37}]}`,
			setupMocks: func(m *mocks.MockInventoryService) {
				m.EXPECT().
					CreateDraft(gomock.Any(), []ports.CountedRow{
						{ProductID: productID, CountedQuantity: 37},
					}).
					Return(&domain.Inventory{
						ID:     inventoryID,
						Code:   "INV-16-03-26-10-00-00",
						Status: domain.InventoryPending,
					}, nil)
			},
			expectedStatus: http.StatusCreated,
			validateBody: func(t *testing.T, body []byte) {
				var response domain.Inventory
				require.NoError(t, json.Unmarshal(body, &response))
				assert.Equal(t, inventoryID, response.ID)
				assert.Equal(t, domain.InventoryPending, response.Status)
			},
		},
		{
			name: "creates_completed_session_when_requested",
			body: `{"status":"completed","rows":[{"product_id":"` + productID.String() + `","counted_quantity":37}]}`,
			setupMocks: func(m *mocks.MockInventoryService) {
				m.EXPECT().
					CreateCompleted(gomock.Any(), gomock.Any()).
					Return(&domain.Inventory{ID: inventoryID, Status: domain.InventoryCompleted}, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "rejects_cancelled_on_creation",
			body:           `{"status":"cancelled","rows":[{"product_id":"` + productID.String() + `","counted_quantity":1}]}`,
			setupMocks:     func(m *mocks.MockInventoryService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid_request_body",
			body:           `{not json`,
			setupMocks:     func(m *mocks.MockInventoryService) {},
			expectedStatus: http.StatusBadRequest,
			validateBody: func(t *testing.T, body []byte) {
				var response map[string]string
				require.NoError(t, json.Unmarshal(body, &response))
				assert.Equal(t, "Invalid request body", response["error"])
			},
		},
		{
			name: "empty_rows_map_to_bad_request",
			body: `{"rows":[]}`,
			setupMocks: func(m *mocks.MockInventoryService) {
				m.EXPECT().
					CreateDraft(gomock.Any(), gomock.Any()).
					Return(nil, domain.NewValidation("cannot save an empty inventory"))
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "service_error_maps_to_internal",
			body: `{"rows":[{"product_id":"` + productID.String() + `","counted_quantity":1}]}`,
			setupMocks: func(m *mocks.MockInventoryService) {
				m.EXPECT().
					CreateDraft(gomock.Any(), gomock.Any()).
					Return(nil, errors.New("database connection failed"))
			},
			expectedStatus: http.StatusInternalServerError,
			validateBody: func(t *testing.T, body []byte) {
				var response map[string]string
				require.NoError(t, json.Unmarshal(body, &response))
				assert.Equal(t, "internal server error", response["error"],
					"internal failures must not leak details")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, service := newInventoryHandler(t)
			tt.setupMocks(service)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/inventories",
				bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()

			handler.CreateInventory(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.validateBody != nil {
				tt.validateBody(t, rec.Body.Bytes())
			}
		})
	}
}

func TestInventoryHandler_UpdateInventory(t *testing.T) {
	inventoryID := uuid.New()
	productID := uuid.New()

	tests := []struct {
		name           string
		id             string
		body           string
		setupMocks     func(*mocks.MockInventoryService)
		expectedStatus int
	}{
		{
			name: "updates_counts_and_completes",
			id:   inventoryID.String(),
			body: `{"status":"completed","rows":[{"product_id":"` + productID.String() + `","counted_quantity":12}]}`,
			setupMocks: func(m *mocks.MockInventoryService) {
				completed := domain.InventoryCompleted
				m.EXPECT().
					Update(gomock.Any(), inventoryID,
						[]ports.CountedRow{{ProductID: productID, CountedQuantity: 12}},
						&completed).
					Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "invalid_uuid_format",
			id:             "not-a-uuid",
			body:           `{"rows":[]}`,
			setupMocks:     func(m *mocks.MockInventoryService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown_status_is_rejected_before_the_service",
			id:             inventoryID.String(),
			body:           `{"status":"archived","rows":[{"product_id":"` + productID.String() + `","counted_quantity":1}]}`,
			setupMocks:     func(m *mocks.MockInventoryService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "terminal_session_maps_to_bad_request",
			id:   inventoryID.String(),
			body: `{"rows":[{"product_id":"` + productID.String() + `","counted_quantity":1}]}`,
			setupMocks: func(m *mocks.MockInventoryService) {
				m.EXPECT().
					Update(gomock.Any(), inventoryID, gomock.Any(), nil).
					Return(domain.NewValidation("inventory is not pending"))
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "unknown_session_maps_to_not_found",
			id:   inventoryID.String(),
			body: `{"rows":[{"product_id":"` + productID.String() + `","counted_quantity":1}]}`,
			setupMocks: func(m *mocks.MockInventoryService) {
				m.EXPECT().
					Update(gomock.Any(), inventoryID, gomock.Any(), nil).
					Return(domain.NewNotFound("inventory not found"))
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, service := newInventoryHandler(t)
			tt.setupMocks(service)

			req := httptest.NewRequest(http.MethodPut, "/api/v1/inventories/"+tt.id,
				bytes.NewBufferString(tt.body))
			req.SetPathValue("id", tt.id)
			rec := httptest.NewRecorder()

			handler.UpdateInventory(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
		})
	}
}

func TestInventoryHandler_GetInventory(t *testing.T) {
	inventoryID := uuid.New()

	tests := []struct {
		name           string
		id             string
		setupMocks     func(*mocks.MockInventoryService)
		expectedStatus int
		validateBody   func(*testing.T, []byte)
	}{
		{
			name: "returns_reconciliation_summary",
			id:   inventoryID.String(),
			setupMocks: func(m *mocks.MockInventoryService) {
				m.EXPECT().
					Details(gomock.Any(), inventoryID).
					Return(&ports.InventorySummary{
						ID:             inventoryID,
						Status:         domain.InventoryCompleted,
						TotalExpected:  120,
						TotalCounted:   117,
						TotalVariance:  -3,
						MatchingRows:   13,
						DiscrepantRows: 2,
					}, nil)
			},
			expectedStatus: http.StatusOK,
			validateBody: func(t *testing.T, body []byte) {
				var response ports.InventorySummary
				require.NoError(t, json.Unmarshal(body, &response))
				assert.Equal(t, -3, response.TotalVariance)
				assert.Equal(t, 2, response.DiscrepantRows)
			},
		},
		{
			name:           "invalid_uuid_format",
			id:             "not-a-uuid",
			setupMocks:     func(m *mocks.MockInventoryService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "session_not_found",
			id:   inventoryID.String(),
			setupMocks: func(m *mocks.MockInventoryService) {
				m.EXPECT().
					Details(gomock.Any(), inventoryID).
					Return(nil, domain.NewNotFound("inventory not found"))
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, service := newInventoryHandler(t)
			tt.setupMocks(service)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/inventories/"+tt.id, nil)
			req.SetPathValue("id", tt.id)
			rec := httptest.NewRecorder()

			handler.GetInventory(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.validateBody != nil {
				tt.validateBody(t, rec.Body.Bytes())
			}
		})
	}
}

func TestInventoryHandler_GetInventoryRows(t *testing.T) {
	t.Run("new_serves_a_fresh_draft_sheet", func(t *testing.T) {
		handler, service := newInventoryHandler(t)

		service.EXPECT().
			Rows(gomock.Any(), nil).
			Return([]ports.InventoryRowView{
				{ProductID: uuid.New(), ExpectedQuantity: 40, Variance: -40},
			}, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/inventories/new/rows", nil)
		req.SetPathValue("id", "new")
		rec := httptest.NewRecorder()

		handler.GetInventoryRows(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response map[string][]ports.InventoryRowView
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		require.Len(t, response["rows"], 1)
		assert.Equal(t, 40, response["rows"][0].ExpectedQuantity)
	})

	t.Run("existing_session_rows", func(t *testing.T) {
		handler, service := newInventoryHandler(t)

		id := uuid.New()
		service.EXPECT().
			Rows(gomock.Any(), &id).
			Return([]ports.InventoryRowView{}, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/inventories/"+id.String()+"/rows", nil)
		req.SetPathValue("id", id.String())
		rec := httptest.NewRecorder()

		handler.GetInventoryRows(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestInventoryHandler_ListInventories(t *testing.T) {
	handler, service := newInventoryHandler(t)

	service.EXPECT().
		List(gomock.Any(), ports.ListParams{Page: 2, PageSize: 10}).
		Return(&ports.ListResult[ports.InventorySummary]{
			Items:      []ports.InventorySummary{{ID: uuid.New()}},
			Page:       2,
			PageSize:   10,
			TotalCount: 11,
			TotalPages: 2,
		}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/inventories?page=2&page_size=10", nil)
	rec := httptest.NewRecorder()

	handler.ListInventories(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response ports.ListResult[ports.InventorySummary]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, int64(11), response.TotalCount)
	assert.Equal(t, 2, response.TotalPages)
}
