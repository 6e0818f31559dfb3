package controllers

import (
	"strconv"
	"strings"
	"time"

	"github.com/infisparks/pharma/config"
	"github.com/infisparks/pharma/models"
	"github.com/infisparks/pharma/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type PurchaseItemInput struct {
	ProductID     uint      `json:"product_id" binding:"required"`
	BatchCode     string    `json:"batch_code" binding:"required"`
	ExpiryDate    time.Time `json:"expiry_date"`
	Quantity      float64   `json:"quantity" binding:"required,gt=0"`
	FreeQuantity  float64   `json:"free_quantity" binding:"gte=0"`
	PurchasePrice float64   `json:"purchase_price" binding:"gte=0"`
	MRP           float64   `json:"mrp" binding:"gte=0"`
	UnitValue     float64   `json:"unit_value"`
	UnitType      string    `json:"unit_type"`
}

type PurchaseInput struct {
	VendorID        uint                `json:"vendor_id" binding:"required"`
	BillNumber      string              `json:"bill_number" binding:"required"`
	PurchaseDate    time.Time           `json:"purchase_date"`
	OverallDiscount float64             `json:"overall_discount" binding:"gte=0"`
	IsCredit        bool                `json:"is_credit"`
	DueDate         *time.Time          `json:"due_date"`
	Items           []PurchaseItemInput `json:"items" binding:"required,min=1,dive"`
}

func buildPurchaseItems(in []PurchaseItemInput) []models.PurchaseItem {
	items := make([]models.PurchaseItem, 0, len(in))
	for _, it := range in {
		items = append(items, models.PurchaseItem{
			ProductID:     it.ProductID,
			BatchCode:     it.BatchCode,
			ExpiryDate:    it.ExpiryDate,
			Quantity:      it.Quantity,
			FreeQuantity:  it.FreeQuantity,
			PurchasePrice: it.PurchasePrice,
			MRP:           it.MRP,
			UnitValue:     it.UnitValue,
			UnitType:      it.UnitType,
		})
	}
	return items
}

func purchaseGrandTotal(items []PurchaseItemInput, discount float64) float64 {
	var subtotal float64
	for _, it := range items {
		subtotal += it.Quantity * it.PurchasePrice
	}
	total := subtotal - discount
	if total < 0 {
		return 0
	}
	return total
}

// applyStockDelta shifts the denormalized products.current_stock counter.
// This counter serves purchase-entry bookkeeping and reporting only; the sale
// terminal derives availability from the ledgers and never reads it.
func applyStockDelta(tx *gorm.DB, productID uint, deltaBaseUnits float64) error {
	if deltaBaseUnits == 0 {
		return nil
	}
	return tx.Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("current_stock", gorm.Expr("current_stock + ?", deltaBaseUnits)).Error
}

func CreatePurchase(c *gin.Context) {
	var in PurchaseInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.BadRequest(c, "Invalid payload", err)
		return
	}

	var cnt int64
	if err := config.DB.Model(&models.Vendor{}).Where("id = ?", in.VendorID).Count(&cnt).Error; err != nil || cnt == 0 {
		utils.BadRequest(c, "Vendor not found", nil)
		return
	}
	for _, it := range in.Items {
		if err := config.DB.Model(&models.Product{}).Where("id = ?", it.ProductID).Count(&cnt).Error; err != nil || cnt == 0 {
			utils.BadRequest(c, "Product not found", nil)
			return
		}
	}

	if in.PurchaseDate.IsZero() {
		in.PurchaseDate = time.Now().UTC()
	}

	purchase := models.Purchase{
		VendorID:        in.VendorID,
		BillNumber:      in.BillNumber,
		PurchaseDate:    in.PurchaseDate,
		OverallDiscount: in.OverallDiscount,
		TotalAmount:     purchaseGrandTotal(in.Items, in.OverallDiscount),
		IsCredit:        in.IsCredit,
		DueDate:         in.DueDate,
		Status:          models.PurchaseUnpaid,
		Items:           buildPurchaseItems(in.Items),
	}
	if !in.IsCredit {
		purchase.Status = models.PurchasePaid
		purchase.DueDate = nil
	}

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&purchase).Error; err != nil {
			return err
		}
		for _, it := range purchase.Items {
			if err := applyStockDelta(tx, it.ProductID, it.BaseUnits()); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		config.Log.Errorf("purchase create failed: %v", err)
		utils.ServerError(c, "Failed to record purchase", err)
		return
	}

	utils.Created(c, "Purchase recorded", purchase)
}

// PurchaseLedgerRow is a purchase with its derived ledger figures.
type PurchaseLedgerRow struct {
	models.Purchase
	Subtotal   float64 `json:"subtotal"`
	GrandTotal float64 `json:"grand_total"`
	IsOverdue  bool    `json:"is_overdue"`
}

func GetAllPurchases(c *gin.Context) {
	var purchases []models.Purchase
	if err := config.DB.
		Preload("Vendor").
		Preload("Items.Product").
		Order("purchase_date DESC").
		Find(&purchases).Error; err != nil {
		utils.ServerError(c, "Failed to fetch purchases", err)
		return
	}

	// Search/status filtering happens over the loaded set, like the ledger
	// screen does.
	search := strings.ToLower(strings.TrimSpace(c.Query("search")))
	status := c.Query("status")
	now := time.Now()

	rows := make([]PurchaseLedgerRow, 0, len(purchases))
	for _, p := range purchases {
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Vendor.DisplayName()), search) &&
			!strings.Contains(strings.ToLower(p.BillNumber), search) {
			continue
		}
		if status != "" && string(p.Status) != status {
			continue
		}
		rows = append(rows, PurchaseLedgerRow{
			Purchase:   p,
			Subtotal:   p.Subtotal(),
			GrandTotal: p.GrandTotal(),
			IsOverdue:  p.IsOverdue(now),
		})
	}
	utils.OK(c, "Purchases fetched", rows)
}

func GetPurchaseByID(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid id", nil)
		return
	}

	var purchase models.Purchase
	if err := config.DB.Preload("Vendor").Preload("Items.Product").First(&purchase, id).Error; err != nil {
		utils.NotFound(c, "Purchase not found")
		return
	}
	utils.OK(c, "Purchase fetched", purchase)
}

// UpdatePurchase replaces a purchase's line items wholesale. The old items'
// contribution to products.current_stock is reversed before the new items'
// contribution is applied, keyed by product id.
func UpdatePurchase(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid id", nil)
		return
	}

	var in PurchaseInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.BadRequest(c, "Invalid payload", err)
		return
	}

	var purchase models.Purchase
	if err := config.DB.Preload("Items").First(&purchase, id).Error; err != nil {
		utils.NotFound(c, "Purchase not found")
		return
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		for _, old := range purchase.Items {
			if err := applyStockDelta(tx, old.ProductID, -old.BaseUnits()); err != nil {
				return err
			}
		}
		if err := tx.Where("purchase_id = ?", purchase.ID).Delete(&models.PurchaseItem{}).Error; err != nil {
			return err
		}

		newItems := buildPurchaseItems(in.Items)
		for i := range newItems {
			newItems[i].PurchaseID = purchase.ID
		}
		if err := tx.Create(&newItems).Error; err != nil {
			return err
		}
		for _, it := range newItems {
			if err := applyStockDelta(tx, it.ProductID, it.BaseUnits()); err != nil {
				return err
			}
		}

		updates := map[string]interface{}{
			"vendor_id":        in.VendorID,
			"bill_number":      in.BillNumber,
			"purchase_date":    in.PurchaseDate,
			"overall_discount": in.OverallDiscount,
			"total_amount":     purchaseGrandTotal(in.Items, in.OverallDiscount),
			"is_credit":        in.IsCredit,
			"due_date":         in.DueDate,
		}
		if !in.IsCredit {
			updates["status"] = models.PurchasePaid
			updates["due_date"] = nil
		}
		return tx.Model(&models.Purchase{}).Where("id = ?", purchase.ID).Updates(updates).Error
	})
	if err != nil {
		config.Log.Errorf("purchase update failed: %v", err)
		utils.ServerError(c, "Failed to update purchase", err)
		return
	}

	config.DB.Preload("Vendor").Preload("Items.Product").First(&purchase, purchase.ID)
	utils.OK(c, "Purchase updated", purchase)
}

func DeletePurchase(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid id", nil)
		return
	}

	var purchase models.Purchase
	if err := config.DB.Preload("Items").First(&purchase, id).Error; err != nil {
		utils.NotFound(c, "Purchase not found")
		return
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		for _, it := range purchase.Items {
			if err := applyStockDelta(tx, it.ProductID, -it.BaseUnits()); err != nil {
				return err
			}
		}
		if err := tx.Where("purchase_id = ?", purchase.ID).Delete(&models.PurchaseItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&purchase).Error
	})
	if err != nil {
		utils.ServerError(c, "Failed to delete purchase", err)
		return
	}
	utils.OK(c, "Purchase deleted", nil)
}

func UpdatePurchaseStatus(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid id", nil)
		return
	}

	var in struct {
		Status models.PurchaseStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.BadRequest(c, "Invalid payload", err)
		return
	}
	switch in.Status {
	case models.PurchasePaid, models.PurchaseUnpaid, models.PurchasePartial:
	default:
		utils.BadRequest(c, "Invalid status", nil)
		return
	}

	var purchase models.Purchase
	if err := config.DB.First(&purchase, id).Error; err != nil {
		utils.NotFound(c, "Purchase not found")
		return
	}
	if err := config.DB.Model(&purchase).Update("status", in.Status).Error; err != nil {
		utils.ServerError(c, "Failed to update status", err)
		return
	}
	utils.OK(c, "Status updated", purchase)
}

// UpdatePurchaseDiscount edits the overall discount and recomputes the stored
// grand total from the current line items.
func UpdatePurchaseDiscount(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid id", nil)
		return
	}

	var in struct {
		OverallDiscount float64 `json:"overall_discount" binding:"gte=0"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.BadRequest(c, "Invalid payload", err)
		return
	}

	var purchase models.Purchase
	if err := config.DB.Preload("Items").First(&purchase, id).Error; err != nil {
		utils.NotFound(c, "Purchase not found")
		return
	}

	purchase.OverallDiscount = in.OverallDiscount
	total := purchase.GrandTotal()
	updates := map[string]interface{}{
		"overall_discount": in.OverallDiscount,
		"total_amount":     total,
	}
	if err := config.DB.Model(&purchase).Updates(updates).Error; err != nil {
		utils.ServerError(c, "Failed to update discount", err)
		return
	}
	utils.OK(c, "Discount updated", purchase)
}
