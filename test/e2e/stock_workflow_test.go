//go:build e2e
// +build e2e

package e2e_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/Degbogueur/stock-management/internal/adapters/db"
	redis_a "github.com/Degbogueur/stock-management/internal/adapters/redis_adapter"
	"github.com/Degbogueur/stock-management/internal/core/services"
	"github.com/Degbogueur/stock-management/internal/handlers"
	"github.com/Degbogueur/stock-management/test/helpers"
)

// StockE2ESuite drives the full stock lifecycle over HTTP against a real
// Postgres container: master data, operation posting, snapshot checkpoints,
// historical reconstruction, count sessions and alerting.
type StockE2ESuite struct {
	suite.Suite
	server    *httptest.Server
	client    *http.Client
	baseURL   string
	testDB    *helpers.TestDB
	testRedis *helpers.TestRedis

	supplierID string
	employeeID string
	productID  string
}

func (s *StockE2ESuite) SetupSuite() {
	s.testDB = helpers.SetupTestDB(s.T())
	s.testRedis = helpers.SetupTestRedis(s.T())

	s.server = s.startTestServer()
	s.client = &http.Client{Timeout: 10 * time.Second}
	s.baseURL = s.server.URL + "/api/v1"
}

func (s *StockE2ESuite) TearDownSuite() {
	s.server.Close()
}

// TestCompleteStockWorkflow walks one product through its whole life: it is
// created, received, checkpointed, issued below its minimum, reconstructed
// at past dates and finally counted.
func (s *StockE2ESuite) TestCompleteStockWorkflow() {
	// 1. Master data.
	resp := s.makeRequest("POST", "/suppliers", map[string]interface{}{
		"name":         "E2E Wholesale",
		"phone_number": "+32 470 11 22 33",
	})
	s.Equal(http.StatusCreated, resp.StatusCode)
	var supplier map[string]interface{}
	s.decodeResponse(resp, &supplier)
	s.supplierID = supplier["id"].(string)

	resp = s.makeRequest("POST", "/employees", map[string]interface{}{
		"first_name": "Nadia",
		"last_name":  "Verhoeven",
		"position":   "Warehouse Operator",
	})
	s.Equal(http.StatusCreated, resp.StatusCode)
	var employee map[string]interface{}
	s.decodeResponse(resp, &employee)
	s.employeeID = employee["id"].(string)

	resp = s.makeRequest("POST", "/products", map[string]interface{}{
		"name":          "E2E Sparkling Water 500ml",
		"code":          "E2E-0001",
		"category_name": "Beverages",
		"minimum_stock": 10,
	})
	s.Equal(http.StatusCreated, resp.StatusCode)
	var product map[string]interface{}
	s.decodeResponse(resp, &product)
	s.productID = product["id"].(string)
	s.NotEmpty(s.productID)

	// 2. Receive 100 units.
	resp = s.makeRequest("POST", "/operations/stock-in", map[string]interface{}{
		"lines": []map[string]interface{}{
			{"product_id": s.productID, "supplier_id": s.supplierID, "quantity": 100, "date": "2026-03-01"},
		},
	})
	s.Equal(http.StatusCreated, resp.StatusCode)

	// 3. Checkpoint the current level.
	resp = s.makeRequest("POST", "/reports/snapshots?date=2026-03-10", nil)
	s.Equal(http.StatusCreated, resp.StatusCode)
	var snapshot map[string]interface{}
	s.decodeResponse(resp, &snapshot)
	s.Equal("2026-03-10", snapshot["date"])
	s.GreaterOrEqual(snapshot["written"].(float64), float64(1))

	// 4. Issue 30 units after the checkpoint.
	resp = s.makeRequest("POST", "/operations/stock-out", map[string]interface{}{
		"lines": []map[string]interface{}{
			{"product_id": s.productID, "employee_id": s.employeeID, "quantity": 30, "date": "2026-03-15"},
		},
	})
	s.Equal(http.StatusCreated, resp.StatusCode)

	// 5. Live level is 70.
	resp = s.makeRequest("GET", fmt.Sprintf("/products/%s", s.productID), nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.decodeResponse(resp, &product)
	s.Equal(float64(70), product["current_stock"])

	// 6. Reconstructed level after the stock-out is 70; between the
	// checkpoint and the stock-out it is still 100.
	s.Equal(float64(70), s.historicalQuantity("2026-03-20"))
	s.Equal(float64(100), s.historicalQuantity("2026-03-12"))

	// 7. Stock card ledger closes on the live level.
	resp = s.makeRequest("GET", fmt.Sprintf("/reports/stock-card/%s", s.productID), nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	var card map[string]interface{}
	s.decodeResponse(resp, &card)
	rows := card["rows"].([]interface{})
	s.Len(rows, 2)
	last := rows[len(rows)-1].(map[string]interface{})
	s.Equal(card["current_stock"], last["balance"])

	// 8. Issue 65 more, dropping to 5, below the minimum of 10.
	resp = s.makeRequest("POST", "/operations/stock-out", map[string]interface{}{
		"lines": []map[string]interface{}{
			{"product_id": s.productID, "employee_id": s.employeeID, "quantity": 65, "date": "2026-03-18"},
		},
	})
	s.Equal(http.StatusCreated, resp.StatusCode)
	var posted map[string]interface{}
	s.decodeResponse(resp, &posted)
	alerts := posted["alerts"].([]interface{})
	s.Len(alerts, 1)

	resp = s.makeRequest("GET", "/notifications/unread-count", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	var unread map[string]interface{}
	s.decodeResponse(resp, &unread)
	s.GreaterOrEqual(unread["unread"].(float64), float64(1))

	// 9. Count finds 3 where the system expects 5.
	resp = s.makeRequest("POST", "/inventories", map[string]interface{}{
		"rows": []map[string]interface{}{
			{"product_id": s.productID, "counted_quantity": 3},
		},
	})
	s.Equal(http.StatusCreated, resp.StatusCode)
	var inventory map[string]interface{}
	s.decodeResponse(resp, &inventory)
	inventoryID := inventory["id"].(string)
	s.Equal("pending", inventory["status"])

	resp = s.makeRequest("GET", fmt.Sprintf("/inventories/%s", inventoryID), nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	var summary map[string]interface{}
	s.decodeResponse(resp, &summary)
	s.Equal(float64(5), summary["total_expected"])
	s.Equal(float64(3), summary["total_counted"])
	s.Equal(float64(-2), summary["total_variance"])

	// 10. Complete the session; terminal sessions refuse further edits.
	resp = s.makeRequest("PUT", fmt.Sprintf("/inventories/%s", inventoryID), map[string]interface{}{
		"status": "completed",
		"rows": []map[string]interface{}{
			{"product_id": s.productID, "counted_quantity": 3},
		},
	})
	s.Equal(http.StatusOK, resp.StatusCode)

	resp = s.makeRequest("PUT", fmt.Sprintf("/inventories/%s", inventoryID), map[string]interface{}{
		"rows": []map[string]interface{}{
			{"product_id": s.productID, "counted_quantity": 4},
		},
	})
	s.Equal(http.StatusBadRequest, resp.StatusCode)

	// 11. A product with ledger history cannot be deleted.
	resp = s.makeRequest("DELETE", fmt.Sprintf("/products/%s", s.productID), nil)
	s.Equal(http.StatusConflict, resp.StatusCode)
}

func (s *StockE2ESuite) TestOperationsJournalFilters() {
	resp := s.makeRequest("GET", "/operations?type=stock_out", nil)
	s.Equal(http.StatusOK, resp.StatusCode)

	var journal map[string]interface{}
	s.decodeResponse(resp, &journal)
	for _, raw := range journal["items"].([]interface{}) {
		item := raw.(map[string]interface{})
		s.Equal("stock_out", item["type"])
	}

	resp = s.makeRequest("GET", "/operations?type=transfer", nil)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *StockE2ESuite) TestSnapshotIsIdempotentPerDate() {
	resp := s.makeRequest("POST", "/reports/snapshots?date=2026-04-01", nil)
	s.Equal(http.StatusCreated, resp.StatusCode)
	var first map[string]interface{}
	s.decodeResponse(resp, &first)

	resp = s.makeRequest("POST", "/reports/snapshots?date=2026-04-01", nil)
	s.Equal(http.StatusCreated, resp.StatusCode)
	var second map[string]interface{}
	s.decodeResponse(resp, &second)

	s.Equal(float64(0), second["written"], "rerun for the same date must write nothing")
}

func (s *StockE2ESuite) TestDashboard() {
	resp := s.makeRequest("GET", "/dashboard", nil)
	s.Equal(http.StatusOK, resp.StatusCode)

	var dashboard map[string]interface{}
	s.decodeResponse(resp, &dashboard)
	s.Contains(dashboard, "stats")
	s.Contains(dashboard, "unread_notifications")
}

// Helper methods

func (s *StockE2ESuite) historicalQuantity(asOf string) float64 {
	resp := s.makeRequest("GET", "/reports/historical-stock?as_of="+asOf, nil)
	s.Equal(http.StatusOK, resp.StatusCode)

	var response struct {
		Quantities map[string]float64 `json:"quantities"`
	}
	s.decodeResponse(resp, &response)
	return response.Quantities[s.productID]
}

func (s *StockE2ESuite) startTestServer() *httptest.Server {
	log := helpers.TestLogger()
	cfg := helpers.LoadTestConfig()

	cache := redis_a.NewCache(s.testRedis.Client, time.Hour, log)

	productRepo := db.NewProductRepository(s.testDB.Database, log)
	categoryRepo := db.NewCategoryRepository(s.testDB.Database, log)
	supplierRepo := db.NewSupplierRepository(s.testDB.Database, log)
	employeeRepo := db.NewEmployeeRepository(s.testDB.Database, log)
	operationRepo := db.NewOperationRepository(s.testDB.Database, log)
	inventoryRepo := db.NewInventoryRepository(s.testDB.Database, log)
	snapshotRepo := db.NewSnapshotRepository(s.testDB.Database, log)
	notificationRepo := db.NewNotificationRepository(s.testDB.Database, log)

	notificationService := services.NewNotificationService(notificationRepo, log)
	productService := services.NewProductService(productRepo, categoryRepo, log)
	categoryService := services.NewCategoryService(categoryRepo, log)
	supplierService := services.NewSupplierService(supplierRepo, log)
	employeeService := services.NewEmployeeService(employeeRepo, log)
	operationService := services.NewOperationService(operationRepo, notificationService, log)
	inventoryService := services.NewInventoryService(inventoryRepo, productRepo, log)
	snapshotService := services.NewSnapshotService(snapshotRepo, log)
	reportService := services.NewReportService(productRepo, operationRepo, snapshotRepo, inventoryRepo, log)

	productHandler := handlers.NewProductHandler(productService, cache, log)
	categoryHandler := handlers.NewCategoryHandler(categoryService, log)
	supplierHandler := handlers.NewSupplierHandler(supplierService, log)
	employeeHandler := handlers.NewEmployeeHandler(employeeService, log)
	operationHandler := handlers.NewOperationHandler(operationService, cache, log)
	inventoryHandler := handlers.NewInventoryHandler(inventoryService, cache, log)
	reportHandler := handlers.NewReportHandler(reportService, snapshotService, cache, log)
	dashboardHandler := handlers.NewDashboardHandler(reportService, notificationService, cache, log)
	notificationHandler := handlers.NewNotificationHandler(notificationService, log)
	healthHandler := handlers.NewHealthHandler(s.testDB.Database, s.testRedis.Client, nil, cfg, log)

	const apiV1 = "/api/v1"
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", healthHandler.Health)

	mux.HandleFunc("GET "+apiV1+"/products", productHandler.ListProducts)
	mux.HandleFunc("POST "+apiV1+"/products", productHandler.CreateProduct)
	mux.HandleFunc("GET "+apiV1+"/products/{id}", productHandler.GetProduct)
	mux.HandleFunc("PUT "+apiV1+"/products/{id}", productHandler.UpdateProduct)
	mux.HandleFunc("DELETE "+apiV1+"/products/{id}", productHandler.DeleteProduct)

	mux.HandleFunc("GET "+apiV1+"/categories", categoryHandler.ListCategories)
	mux.HandleFunc("POST "+apiV1+"/categories", categoryHandler.CreateCategory)

	mux.HandleFunc("GET "+apiV1+"/suppliers", supplierHandler.ListSuppliers)
	mux.HandleFunc("POST "+apiV1+"/suppliers", supplierHandler.CreateSupplier)

	mux.HandleFunc("GET "+apiV1+"/employees", employeeHandler.ListEmployees)
	mux.HandleFunc("POST "+apiV1+"/employees", employeeHandler.CreateEmployee)

	mux.HandleFunc("POST "+apiV1+"/operations/stock-in", operationHandler.PostStockIn)
	mux.HandleFunc("POST "+apiV1+"/operations/stock-out", operationHandler.PostStockOut)
	mux.HandleFunc("GET "+apiV1+"/operations", reportHandler.GetOperations)

	mux.HandleFunc("GET "+apiV1+"/inventories", inventoryHandler.ListInventories)
	mux.HandleFunc("POST "+apiV1+"/inventories", inventoryHandler.CreateInventory)
	mux.HandleFunc("GET "+apiV1+"/inventories/{id}", inventoryHandler.GetInventory)
	mux.HandleFunc("GET "+apiV1+"/inventories/{id}/rows", inventoryHandler.GetInventoryRows)
	mux.HandleFunc("PUT "+apiV1+"/inventories/{id}", inventoryHandler.UpdateInventory)
	mux.HandleFunc("DELETE "+apiV1+"/inventories/{id}", inventoryHandler.DeleteInventory)

	mux.HandleFunc("GET "+apiV1+"/reports/stock-levels", reportHandler.GetStockLevels)
	mux.HandleFunc("GET "+apiV1+"/reports/historical-stock", reportHandler.GetHistoricalStock)
	mux.HandleFunc("GET "+apiV1+"/reports/stock-card/products", reportHandler.GetStockCardProducts)
	mux.HandleFunc("GET "+apiV1+"/reports/stock-card/{productId}", reportHandler.GetStockCard)
	mux.HandleFunc("POST "+apiV1+"/reports/snapshots", reportHandler.TakeSnapshot)

	mux.HandleFunc("GET "+apiV1+"/dashboard", dashboardHandler.GetDashboard)

	mux.HandleFunc("GET "+apiV1+"/notifications", notificationHandler.ListNotifications)
	mux.HandleFunc("GET "+apiV1+"/notifications/unread-count", notificationHandler.GetUnreadCount)

	return httptest.NewServer(mux)
}

func (s *StockE2ESuite) makeRequest(method, path string, body interface{}) *http.Response {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		s.NoError(err)
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, s.baseURL+path, reqBody)
	s.NoError(err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	s.NoError(err)

	return resp
}

func (s *StockE2ESuite) decodeResponse(resp *http.Response, v interface{}) {
	defer resp.Body.Close()
	err := json.NewDecoder(resp.Body).Decode(v)
	s.NoError(err)
}

func TestStockE2ESuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping E2E tests in short mode")
	}
	suite.Run(t, new(StockE2ESuite))
}
