package controllers

import (
	"strings"
	"time"

	"github.com/infisparks/pharma/config"
	"github.com/infisparks/pharma/models"
	"github.com/infisparks/pharma/stock"
	"github.com/infisparks/pharma/utils"

	"github.com/gin-gonic/gin"
)

// SaleLedgerItem is one sold line enriched with its batch metadata from the
// purchase ledger.
type SaleLedgerItem struct {
	ProductID   uint      `json:"product_id"`
	ProductName string    `json:"product_name"`
	BatchCode   string    `json:"batch_code"`
	Quantity    float64   `json:"quantity"`
	UnitPrice   float64   `json:"unit_price"`
	Subtotal    float64   `json:"subtotal"`
	MRP         float64   `json:"mrp"`
	ExpiryDate  time.Time `json:"expiry_date"`
}

// SaleLedgerRow is one invoice in the sales ledger with its derived payment
// figures.
type SaleLedgerRow struct {
	ID            uint             `json:"id"`
	Invoice       string           `json:"invoice"`
	SaleDate      time.Time        `json:"sale_date"`
	CustomerName  string           `json:"customer_name"`
	CustomerPhone string           `json:"customer_phone"`
	DoctorName    string           `json:"doctor_name"`
	PaymentMethod string           `json:"payment_method"`
	Subtotal      float64          `json:"subtotal"`
	Discount      float64          `json:"discount"`
	TotalAmount   float64          `json:"total_amount"`
	AmountPaid    float64          `json:"amount_paid"`
	AmountDue     float64          `json:"amount_due"`
	Status        string           `json:"status"`
	Profit        float64          `json:"profit"`
	Items         []SaleLedgerItem `json:"items"`
}

// SalesStats aggregates the rows the current filters kept.
type SalesStats struct {
	TotalSales       float64 `json:"total_sales"`
	TotalCollected   float64 `json:"total_collected"`
	TotalOutstanding float64 `json:"total_outstanding"`
	SaleCount        int     `json:"sale_count"`
	AverageOrder     float64 `json:"average_order"`
}

// batchMeta carries a batch's cost and display metadata out of the purchase
// ledger. First purchase line wins, same rule the projection uses.
type batchMeta struct {
	purchasePrice float64
	mrp           float64
	expiryDate    time.Time
}

func loadBatchMeta(items []models.PurchaseItem) map[stock.BatchKey]batchMeta {
	meta := make(map[stock.BatchKey]batchMeta)
	for _, pi := range items {
		key := stock.BatchKey{ProductID: pi.ProductID, BatchCode: pi.BatchCode}
		if _, ok := meta[key]; ok {
			continue
		}
		meta[key] = batchMeta{
			purchasePrice: pi.PurchasePrice,
			mrp:           pi.MRP,
			expiryDate:    pi.ExpiryDate,
		}
	}
	return meta
}

// GetAllSales is the sales ledger: every invoice newest first, with payment
// status, profit and per-line batch metadata derived on read. Supports
// ?search=, ?status= (Paid/Partial/Unpaid) and ?payment_method= filters,
// applied over the loaded set.
func GetAllSales(c *gin.Context) {
	var sales []models.Sale
	if err := config.DB.
		Preload("Customer").
		Preload("Items.Product").
		Order("sale_date DESC").
		Find(&sales).Error; err != nil {
		utils.ServerError(c, "Failed to fetch sales", err)
		return
	}

	var purchaseItems []models.PurchaseItem
	if err := config.DB.Find(&purchaseItems).Error; err != nil {
		utils.ServerError(c, "Failed to fetch purchase lines", err)
		return
	}
	meta := loadBatchMeta(purchaseItems)

	priceFor := func(productID uint, batchCode string) float64 {
		return meta[stock.BatchKey{ProductID: productID, BatchCode: batchCode}].purchasePrice
	}

	search := strings.ToLower(strings.TrimSpace(c.Query("search")))
	statusFilter := c.Query("status")
	methodFilter := c.Query("payment_method")

	rows := make([]SaleLedgerRow, 0, len(sales))
	var stats SalesStats
	for _, s := range sales {
		customerName := "Walk-in Customer"
		customerPhone := ""
		if s.Customer != nil {
			customerName = s.Customer.Name
			customerPhone = s.Customer.Phone
		}

		if search != "" &&
			!strings.Contains(strings.ToLower(customerName), search) &&
			!strings.Contains(strings.ToLower(s.InvoiceNumber()), search) &&
			!strings.Contains(customerPhone, search) &&
			!strings.Contains(strings.ToLower(s.DoctorName), search) {
			continue
		}
		status := s.PaymentStatus()
		if statusFilter != "" && status != statusFilter {
			continue
		}
		if methodFilter != "" && string(s.PaymentMethod) != methodFilter {
			continue
		}

		items := make([]SaleLedgerItem, 0, len(s.Items))
		for _, it := range s.Items {
			m := meta[stock.BatchKey{ProductID: it.ProductID, BatchCode: it.BatchCode}]
			items = append(items, SaleLedgerItem{
				ProductID:   it.ProductID,
				ProductName: it.Product.Name,
				BatchCode:   it.BatchCode,
				Quantity:    it.Quantity,
				UnitPrice:   it.UnitPrice,
				Subtotal:    it.Subtotal,
				MRP:         m.mrp,
				ExpiryDate:  m.expiryDate,
			})
		}

		rows = append(rows, SaleLedgerRow{
			ID:            s.ID,
			Invoice:       s.InvoiceNumber(),
			SaleDate:      s.SaleDate,
			CustomerName:  customerName,
			CustomerPhone: customerPhone,
			DoctorName:    s.DoctorName,
			PaymentMethod: string(s.PaymentMethod),
			Subtotal:      s.SubtotalBeforeDiscount(),
			Discount:      s.DiscountAmount,
			TotalAmount:   s.TotalAmount,
			AmountPaid:    s.AmountPaid(),
			AmountDue:     s.AmountDue(),
			Status:        status,
			Profit:        s.Profit(priceFor),
			Items:         items,
		})

		stats.TotalSales += s.TotalAmount
		stats.TotalCollected += s.AmountPaid()
		stats.TotalOutstanding += s.AmountDue()
		stats.SaleCount++
	}
	if stats.SaleCount > 0 {
		stats.AverageOrder = stats.TotalSales / float64(stats.SaleCount)
	}

	utils.OK(c, "Sales fetched", gin.H{
		"sales": rows,
		"stats": stats,
	})
}
