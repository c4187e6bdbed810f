package public

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stockhold-next/internal/config"
	"github.com/stockhold-next/internal/event"
	"github.com/stockhold-next/internal/models"
	"github.com/stockhold-next/internal/provider"
	"github.com/stockhold-next/internal/repository"
	"github.com/stockhold-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type cartTestResponse struct {
	StatusCode int             `json:"status_code"`
	Msg        string          `json:"msg"`
	Data       json.RawMessage `json:"data"`
}

func setupCartHandlerTest(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:cart_handler_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	warehouseRepo := repository.NewWarehouseRepository(db)
	stockRepo := repository.NewStockRecordRepository(db)
	cartRepo := repository.NewCartRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	ledger := service.NewStockLedger(stockRepo)
	allocator := service.NewAllocator(warehouseRepo, stockRepo, ledger)
	dispatcher := event.NewDispatcher()
	h := New(&provider.Container{
		Config:             &config.Config{},
		Dispatcher:         dispatcher,
		ReservationService: service.NewReservationService(stockRepo, cartRepo, orderRepo, allocator, ledger, dispatcher, service.ReservationOptions{}),
	})

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if raw := c.GetHeader("X-Test-User"); raw != "" {
			var uid uint
			fmt.Sscanf(raw, "%d", &uid)
			c.Set("user_id", uid)
		}
		c.Next()
	})
	r.GET("/cart", h.GetCart)
	r.POST("/cart/items", h.AddCartItem)
	r.POST("/cart/items/remove", h.RemoveCartItem)
	r.DELETE("/cart", h.ClearCart)
	r.POST("/cart/checkout", h.Checkout)
	r.GET("/products/:product_id/availability", h.GetAvailability)

	w1 := models.Warehouse{Name: "W1", Code: "W1", Priority: 1, IsActive: true}
	w2 := models.Warehouse{Name: "W2", Code: "W2", Priority: 2, IsActive: true}
	for _, w := range []*models.Warehouse{&w1, &w2} {
		if err := db.Create(w).Error; err != nil {
			t.Fatalf("create warehouse failed: %v", err)
		}
	}
	records := []models.StockRecord{
		{ProductID: 100, WarehouseID: w1.ID, Unit: "kg", Stock: 2},
		{ProductID: 100, WarehouseID: w2.ID, Unit: "kg", Stock: 6},
	}
	if err := db.Create(&records).Error; err != nil {
		t.Fatalf("create stock failed: %v", err)
	}
	return r, db
}

func doCartRequest(t *testing.T, r *gin.Engine, method, path, userID, body string) cartTestResponse {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("X-Test-User", userID)
	}
	req.Header.Set("Accept-Language", "en-US")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("http status want 200 got %d", w.Code)
	}
	var resp cartTestResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v body=%s", err, w.Body.String())
	}
	return resp
}

func TestAddCartItemReservesInPriorityWarehouse(t *testing.T) {
	r, db := setupCartHandlerTest(t)

	resp := doCartRequest(t, r, http.MethodPost, "/cart/items", "1", `{"product_id":100,"unit":"kg","quantity":5}`)
	if resp.StatusCode != 0 {
		t.Fatalf("add to cart failed: %+v", resp)
	}
	var item models.CartItem
	if err := json.Unmarshal(resp.Data, &item); err != nil {
		t.Fatalf("decode item failed: %v", err)
	}
	if item.Quantity != 5 || item.WarehouseID == nil {
		t.Fatalf("unexpected cart item: %+v", item)
	}
	var record models.StockRecord
	if err := db.First(&record, "warehouse_id = ? AND product_id = ?", *item.WarehouseID, 100).Error; err != nil {
		t.Fatalf("load record failed: %v", err)
	}
	if record.Stock != 6 || record.ReservedStock != 5 {
		t.Fatalf("expected reservation in W2, got %+v", record)
	}

	list := doCartRequest(t, r, http.MethodGet, "/cart", "1", "")
	var payload struct {
		Items []CartItemResponse `json:"items"`
	}
	if err := json.Unmarshal(list.Data, &payload); err != nil {
		t.Fatalf("decode cart failed: %v", err)
	}
	if len(payload.Items) != 1 || payload.Items[0].State != "reserved" || payload.Items[0].ExpiresAt == nil {
		t.Fatalf("unexpected cart listing: %+v", payload.Items)
	}
	if payload.Items[0].Available != 3 {
		t.Fatalf("available want 3 got %d", payload.Items[0].Available)
	}
}

func TestAddCartItemInsufficientReportsAvailable(t *testing.T) {
	r, _ := setupCartHandlerTest(t)

	resp := doCartRequest(t, r, http.MethodPost, "/cart/items", "1", `{"product_id":100,"unit":"kg","quantity":7}`)
	if resp.StatusCode != 409 {
		t.Fatalf("status_code want 409 got %d", resp.StatusCode)
	}
	if resp.Msg != "Insufficient stock" {
		t.Fatalf("unexpected message: %s", resp.Msg)
	}
	var data struct {
		Requested int `json:"requested"`
		Available int `json:"available"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("decode data failed: %v", err)
	}
	if data.Requested != 7 || data.Available != 8 {
		t.Fatalf("unexpected insufficient payload: %+v", data)
	}
}

func TestCartHandlersRequireUser(t *testing.T) {
	r, _ := setupCartHandlerTest(t)
	resp := doCartRequest(t, r, http.MethodGet, "/cart", "", "")
	if resp.StatusCode != 401 {
		t.Fatalf("status_code want 401 got %d", resp.StatusCode)
	}
}

func TestRemoveAndClearCart(t *testing.T) {
	r, db := setupCartHandlerTest(t)

	doCartRequest(t, r, http.MethodPost, "/cart/items", "1", `{"product_id":100,"unit":"kg","quantity":4}`)
	resp := doCartRequest(t, r, http.MethodPost, "/cart/items/remove", "1", `{"product_id":100,"unit":"kg","quantity":1}`)
	if resp.StatusCode != 0 {
		t.Fatalf("partial remove failed: %+v", resp)
	}
	resp = doCartRequest(t, r, http.MethodPost, "/cart/items/remove", "1", `{"product_id":999,"unit":"kg"}`)
	if resp.StatusCode != 404 {
		t.Fatalf("missing line want 404 got %d", resp.StatusCode)
	}

	resp = doCartRequest(t, r, http.MethodDelete, "/cart", "1", "")
	if resp.StatusCode != 0 || !strings.Contains(string(resp.Data), `"removed":1`) {
		t.Fatalf("clear cart failed: %+v", resp)
	}
	var reserved int64
	if err := db.Model(&models.StockRecord{}).Select("COALESCE(SUM(reserved_stock),0)").Scan(&reserved).Error; err != nil {
		t.Fatalf("sum reserved failed: %v", err)
	}
	if reserved != 0 {
		t.Fatalf("reserved should be released, got %d", reserved)
	}
}

func TestCheckoutCart(t *testing.T) {
	r, _ := setupCartHandlerTest(t)

	resp := doCartRequest(t, r, http.MethodPost, "/cart/checkout", "1", "")
	if resp.StatusCode != 400 {
		t.Fatalf("empty cart checkout want 400 got %d", resp.StatusCode)
	}

	doCartRequest(t, r, http.MethodPost, "/cart/items", "1", `{"product_id":100,"unit":"kg","quantity":2}`)
	resp = doCartRequest(t, r, http.MethodPost, "/cart/checkout", "1", `{"order_no":"SO-HTTP-1"}`)
	if resp.StatusCode != 0 {
		t.Fatalf("checkout failed: %+v", resp)
	}
	var order models.Order
	if err := json.Unmarshal(resp.Data, &order); err != nil {
		t.Fatalf("decode order failed: %v", err)
	}
	if order.OrderNo != "SO-HTTP-1" || len(order.Items) != 1 || order.Items[0].WarehouseID == nil {
		t.Fatalf("unexpected order: %+v", order)
	}
}

func TestGetAvailability(t *testing.T) {
	r, _ := setupCartHandlerTest(t)

	resp := doCartRequest(t, r, http.MethodGet, "/products/100/availability?unit=KG", "", "")
	if resp.StatusCode != 0 || !strings.Contains(string(resp.Data), `"available":8`) {
		t.Fatalf("unexpected availability: %+v", resp)
	}
	resp = doCartRequest(t, r, http.MethodGet, "/products/100/availability", "", "")
	if resp.StatusCode != 400 {
		t.Fatalf("missing unit want 400 got %d", resp.StatusCode)
	}
}
