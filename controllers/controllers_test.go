package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/infisparks/pharma/config"
	"github.com/infisparks/pharma/models"
	"github.com/infisparks/pharma/routes"
	"github.com/infisparks/pharma/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setup boots the API over a fresh in-memory database and returns an admin
// token. config.DB is package state, so these tests cannot run in parallel.
func setup(t *testing.T) (*gin.Engine, *gorm.DB, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = db.AutoMigrate(
		&models.UserAccess{},
		&models.Product{},
		&models.Vendor{},
		&models.Customer{},
		&models.Purchase{},
		&models.PurchaseItem{},
		&models.Sale{},
		&models.SaleItem{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	config.DB = db

	r := gin.New()
	routes.SetupRoutes(r)

	token, err := utils.GenerateToken(1, "admin@pharma.local", true, time.Hour)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return r, db, token
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, w.Body.String())
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		t.Fatalf("decode data: %v (%s)", err, env.Data)
	}
}

func seedCatalog(t *testing.T, db *gorm.DB) (models.Vendor, models.Product) {
	t.Helper()
	vendor := models.Vendor{FullName: "Ravi Kumar", BusinessName: "MedSupply Co"}
	if err := db.Create(&vendor).Error; err != nil {
		t.Fatalf("seed vendor: %v", err)
	}
	product := models.Product{Name: "Vitamin C", Category: "Supplements", UnitValue: 10, UnitType: "tablets"}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return vendor, product
}

func purchasePayload(vendorID, productID uint, batch string, qty, free float64) gin.H {
	return gin.H{
		"vendor_id":   vendorID,
		"bill_number": "BILL-001",
		"items": []gin.H{{
			"product_id":     productID,
			"batch_code":     batch,
			"expiry_date":    "2027-05-01T00:00:00Z",
			"quantity":       qty,
			"free_quantity":  free,
			"purchase_price": 30,
			"mrp":            50,
			"unit_value":     10,
			"unit_type":      "tablets",
		}},
	}
}

func productPacks(t *testing.T, r *gin.Engine, token string, productID uint) float64 {
	t.Helper()
	w := doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/products/%d/batches", productID), token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("batches status = %d: %s", w.Code, w.Body.String())
	}
	var data struct {
		AvailablePacks float64 `json:"available_packs"`
	}
	decodeData(t, w, &data)
	return data.AvailablePacks
}

func currentStock(t *testing.T, db *gorm.DB, productID uint) float64 {
	t.Helper()
	var p models.Product
	if err := db.First(&p, productID).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	return p.CurrentStock
}

func TestPurchaseCreateUpdatesDerivedStock(t *testing.T) {
	r, db, token := setup(t)
	vendor, product := seedCatalog(t, db)

	w := doJSON(t, r, http.MethodPost, "/api/purchases", token, purchasePayload(vendor.ID, product.ID, "B1", 5, 1))
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", w.Code, w.Body.String())
	}

	// 5 paid + 1 free packs of 10 base units each.
	if got := currentStock(t, db, product.ID); got != 60 {
		t.Fatalf("current_stock = %g, want 60", got)
	}
	if got := productPacks(t, r, token, product.ID); got != 6 {
		t.Fatalf("available packs = %g, want 6", got)
	}
}

func TestPurchaseEditReversesOldContribution(t *testing.T) {
	r, db, token := setup(t)
	vendor, product := seedCatalog(t, db)

	w := doJSON(t, r, http.MethodPost, "/api/purchases", token, purchasePayload(vendor.ID, product.ID, "B1", 5, 1))
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", w.Code, w.Body.String())
	}
	var created models.Purchase
	decodeData(t, w, &created)

	w = doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/purchases/%d", created.ID), token,
		purchasePayload(vendor.ID, product.ID, "B1", 2, 0))
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", w.Code, w.Body.String())
	}

	// Old 60 reversed, new 20 applied; no residue from the original lines.
	if got := currentStock(t, db, product.ID); got != 20 {
		t.Fatalf("current_stock after edit = %g, want 20", got)
	}
	if got := productPacks(t, r, token, product.ID); got != 2 {
		t.Fatalf("available packs after edit = %g, want 2", got)
	}
}

func TestPurchaseDeleteReversesStock(t *testing.T) {
	r, db, token := setup(t)
	vendor, product := seedCatalog(t, db)

	w := doJSON(t, r, http.MethodPost, "/api/purchases", token, purchasePayload(vendor.ID, product.ID, "B1", 5, 1))
	var created models.Purchase
	decodeData(t, w, &created)

	w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/purchases/%d", created.ID), token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d: %s", w.Code, w.Body.String())
	}
	if got := currentStock(t, db, product.ID); got != 0 {
		t.Fatalf("current_stock after delete = %g, want 0", got)
	}
	if got := productPacks(t, r, token, product.ID); got != 0 {
		t.Fatalf("available packs after delete = %g, want 0", got)
	}
}

func salePayload(productID uint, qty, cash float64) gin.H {
	return gin.H{
		"customer_name":  "Asha",
		"customer_phone": "9900000000",
		"payment_method": "Cash",
		"cash_amount":    cash,
		"items": []gin.H{{
			"product_id": productID,
			"quantity":   qty,
		}},
	}
}

func TestSaleCheckoutConsumesEarliestBatch(t *testing.T) {
	r, db, token := setup(t)
	vendor, product := seedCatalog(t, db)

	// B2 expires after B1, so auto-pick must take B1.
	later := purchasePayload(vendor.ID, product.ID, "B2", 3, 0)
	later["items"].([]gin.H)[0]["expiry_date"] = "2028-03-01T00:00:00Z"
	if w := doJSON(t, r, http.MethodPost, "/api/purchases", token, later); w.Code != http.StatusCreated {
		t.Fatalf("seed B2: %d %s", w.Code, w.Body.String())
	}
	if w := doJSON(t, r, http.MethodPost, "/api/purchases", token, purchasePayload(vendor.ID, product.ID, "B1", 5, 1)); w.Code != http.StatusCreated {
		t.Fatalf("seed B1: %d %s", w.Code, w.Body.String())
	}

	w := doJSON(t, r, http.MethodPost, "/api/sales", token, salePayload(product.ID, 2, 100))
	if w.Code != http.StatusCreated {
		t.Fatalf("checkout status = %d: %s", w.Code, w.Body.String())
	}
	var sale models.Sale
	decodeData(t, w, &sale)
	if len(sale.Items) != 1 || sale.Items[0].BatchCode != "B1" {
		t.Fatalf("sale items = %+v, want one line from B1", sale.Items)
	}
	if sale.TotalAmount != 100 {
		t.Fatalf("total = %g, want 2 packs x MRP 50", sale.TotalAmount)
	}

	// 6 + 3 packs purchased, 2 sold.
	if got := productPacks(t, r, token, product.ID); got != 7 {
		t.Fatalf("available packs = %g, want 7", got)
	}
	// Sales never touch the purchase-side counter.
	if got := currentStock(t, db, product.ID); got != 90 {
		t.Fatalf("current_stock = %g, want 90", got)
	}
}

func TestSaleCheckoutRejectsOversell(t *testing.T) {
	r, db, token := setup(t)
	vendor, product := seedCatalog(t, db)
	doJSON(t, r, http.MethodPost, "/api/purchases", token, purchasePayload(vendor.ID, product.ID, "B1", 5, 1))

	w := doJSON(t, r, http.MethodPost, "/api/sales", token, salePayload(product.ID, 7, 1000))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("oversell status = %d: %s", w.Code, w.Body.String())
	}
	var count int64
	config.DB.Model(&models.Sale{}).Count(&count)
	if count != 0 {
		t.Fatalf("rejected sale was persisted (%d rows)", count)
	}
}

func TestSaleCheckoutRejectsUnderpayment(t *testing.T) {
	r, db, token := setup(t)
	vendor, product := seedCatalog(t, db)
	doJSON(t, r, http.MethodPost, "/api/purchases", token, purchasePayload(vendor.ID, product.ID, "B1", 5, 1))

	w := doJSON(t, r, http.MethodPost, "/api/sales", token, salePayload(product.ID, 2, 50))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("underpaid status = %d: %s", w.Code, w.Body.String())
	}
}

func TestSaleEditExcludesOwnConsumption(t *testing.T) {
	r, db, token := setup(t)
	vendor, product := seedCatalog(t, db)
	doJSON(t, r, http.MethodPost, "/api/purchases", token, purchasePayload(vendor.ID, product.ID, "B1", 5, 1))

	// Sell every pack in the batch.
	w := doJSON(t, r, http.MethodPost, "/api/sales", token, salePayload(product.ID, 6, 300))
	if w.Code != http.StatusCreated {
		t.Fatalf("checkout status = %d: %s", w.Code, w.Body.String())
	}
	var sale models.Sale
	decodeData(t, w, &sale)

	// Resubmitting the exact same quantities must pass: the edit sees stock
	// with this sale's own consumption excluded.
	w = doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/sales/%d", sale.ID), token, salePayload(product.ID, 6, 300))
	if w.Code != http.StatusOK {
		t.Fatalf("resubmit status = %d: %s", w.Code, w.Body.String())
	}

	// But the exclusion does not mint stock beyond the batch.
	w = doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/sales/%d", sale.ID), token, salePayload(product.ID, 7, 350))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("grow-past-batch status = %d: %s", w.Code, w.Body.String())
	}

	var itemCount int64
	db.Model(&models.SaleItem{}).Where("sale_id = ?", sale.ID).Count(&itemCount)
	if itemCount != 1 {
		t.Fatalf("sale has %d item rows after edits, want 1", itemCount)
	}
}

func TestSaleDeleteRestoresAvailability(t *testing.T) {
	r, db, token := setup(t)
	vendor, product := seedCatalog(t, db)
	doJSON(t, r, http.MethodPost, "/api/purchases", token, purchasePayload(vendor.ID, product.ID, "B1", 5, 1))

	w := doJSON(t, r, http.MethodPost, "/api/sales", token, salePayload(product.ID, 4, 200))
	if w.Code != http.StatusCreated {
		t.Fatalf("checkout status = %d: %s", w.Code, w.Body.String())
	}
	var sale models.Sale
	decodeData(t, w, &sale)

	if got := productPacks(t, r, token, product.ID); got != 2 {
		t.Fatalf("available packs after sale = %g, want 2", got)
	}

	w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/sales/%d", sale.ID), token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d: %s", w.Code, w.Body.String())
	}
	if got := productPacks(t, r, token, product.ID); got != 6 {
		t.Fatalf("available packs after delete = %g, want 6", got)
	}
}

func TestSalesLedgerDerivesFigures(t *testing.T) {
	r, db, token := setup(t)
	vendor, product := seedCatalog(t, db)
	doJSON(t, r, http.MethodPost, "/api/purchases", token, purchasePayload(vendor.ID, product.ID, "B1", 5, 1))

	w := doJSON(t, r, http.MethodPost, "/api/sales", token, salePayload(product.ID, 2, 100))
	if w.Code != http.StatusCreated {
		t.Fatalf("checkout status = %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/api/sales", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("ledger status = %d: %s", w.Code, w.Body.String())
	}
	var data struct {
		Sales []struct {
			Invoice      string  `json:"invoice"`
			CustomerName string  `json:"customer_name"`
			Status       string  `json:"status"`
			Profit       float64 `json:"profit"`
		} `json:"sales"`
		Stats struct {
			TotalSales     float64 `json:"total_sales"`
			TotalCollected float64 `json:"total_collected"`
			SaleCount      int     `json:"sale_count"`
		} `json:"stats"`
	}
	decodeData(t, w, &data)

	if len(data.Sales) != 1 {
		t.Fatalf("ledger has %d rows, want 1", len(data.Sales))
	}
	row := data.Sales[0]
	if !strings.HasPrefix(row.Invoice, "INV-") {
		t.Fatalf("invoice = %s", row.Invoice)
	}
	if row.CustomerName != "Asha" || row.Status != "Paid" {
		t.Fatalf("row = %+v", row)
	}
	// 2 packs at (MRP 50 - cost 30).
	if row.Profit != 40 {
		t.Fatalf("profit = %g, want 40", row.Profit)
	}
	if data.Stats.SaleCount != 1 || data.Stats.TotalSales != 100 || data.Stats.TotalCollected != 100 {
		t.Fatalf("stats = %+v", data.Stats)
	}
}

func TestAuthGates(t *testing.T) {
	r, _, token := setup(t)

	if w := doJSON(t, r, http.MethodGet, "/api/stock", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("no-token status = %d", w.Code)
	}

	cashier, err := utils.GenerateToken(2, "cashier@pharma.local", false, time.Hour)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if w := doJSON(t, r, http.MethodPost, "/api/products", cashier, gin.H{"name": "X"}); w.Code != http.StatusForbidden {
		t.Fatalf("non-admin status = %d: %s", w.Code, w.Body.String())
	}
	if w := doJSON(t, r, http.MethodGet, "/api/stock", token, nil); w.Code != http.StatusOK {
		t.Fatalf("admin read status = %d: %s", w.Code, w.Body.String())
	}
}

func TestLogin(t *testing.T) {
	r, db, _ := setup(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	user := models.UserAccess{Email: "owner@pharma.local", PasswordHash: string(hash), IsAdmin: true}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}

	w := doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{"email": "owner@pharma.local", "password": "s3cret"})
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Token   string `json:"token"`
		IsAdmin bool   `json:"is_admin"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Token == "" || !resp.IsAdmin {
		t.Fatalf("login response = %+v", resp)
	}

	w = doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{"email": "owner@pharma.local", "password": "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad-password status = %d", w.Code)
	}
}
