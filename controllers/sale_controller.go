package controllers

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/infisparks/pharma/config"
	"github.com/infisparks/pharma/models"
	"github.com/infisparks/pharma/stock"
	"github.com/infisparks/pharma/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type SaleItemInput struct {
	ProductID uint    `json:"product_id" binding:"required"`
	BatchCode string  `json:"batch_code"` // empty = FEFO auto-pick
	Quantity  float64 `json:"quantity" binding:"required,gt=0"`
}

type SaleInput struct {
	CustomerID     *uint           `json:"customer_id"`
	CustomerName   string          `json:"customer_name"`
	CustomerPhone  string          `json:"customer_phone"`
	DoctorName     string          `json:"doctor_name"`
	Notes          string          `json:"notes"`
	PaymentMethod  string          `json:"payment_method" binding:"required"`
	CashAmount     float64         `json:"cash_amount" binding:"gte=0"`
	OnlineAmount   float64         `json:"online_amount" binding:"gte=0"`
	DiscountAmount float64         `json:"discount_amount" binding:"gte=0"`
	Items          []SaleItemInput `json:"items" binding:"required,min=1,dive"`
}

// buildCart replays the terminal's composer operations against a projection:
// auto-pick or explicit batch per line, then the quantity change. Every
// composer rejection surfaces as the error the cashier would have seen.
func buildCart(proj *stock.Projection, products []models.Product, in SaleInput) (*stock.Cart, error) {
	cart := stock.NewCart(proj)
	cart.Discount = in.DiscountAmount
	cart.PaymentMethod = models.PaymentMethod(in.PaymentMethod)
	cart.CashAmount = in.CashAmount
	cart.OnlineAmount = in.OnlineAmount
	cart.CustomerName = in.CustomerName
	cart.CustomerPhone = in.CustomerPhone
	cart.DoctorName = in.DoctorName

	for _, it := range in.Items {
		product, ok := productByID(products, it.ProductID)
		if !ok {
			return nil, fmt.Errorf("product %d not found", it.ProductID)
		}
		var line *stock.Line
		var err error
		if it.BatchCode == "" {
			line, err = cart.AddProduct(product)
		} else {
			line, err = cart.AddBatch(product, it.BatchCode)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", product.Name, err)
		}
		if err := cart.SetQuantity(line, it.Quantity); err != nil {
			return nil, fmt.Errorf("%s: %w", product.Name, err)
		}
	}
	return cart, nil
}

func validPayment(method string) bool {
	switch models.PaymentMethod(method) {
	case models.PaymentCash, models.PaymentOnline, models.PaymentMixed:
		return true
	}
	return false
}

// resolveCustomer returns the chosen customer id, creating the row when the
// terminal typed a new name instead of picking an existing one.
func resolveCustomer(tx *gorm.DB, in SaleInput) (*uint, error) {
	if in.CustomerID != nil && *in.CustomerID != 0 {
		return in.CustomerID, nil
	}
	if in.CustomerName == "" {
		return nil, nil
	}
	customer := models.Customer{Name: in.CustomerName, Phone: in.CustomerPhone}
	if err := tx.Create(&customer).Error; err != nil {
		return nil, err
	}
	return &customer.ID, nil
}

// checkAvailability re-derives batch stock from the ledgers inside the
// transaction, after the product rows are locked, and rejects any cart line
// that exceeds it. This is what stops two concurrent terminals from
// overselling the same batch.
func checkAvailability(tx *gorm.DB, cart *stock.Cart, excludeSaleID uint) error {
	ids := make([]uint, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		ids = append(ids, l.ProductID)
	}
	var locked []models.Product
	if err := lockForUpdate(tx).Where("id IN ?", ids).Find(&locked).Error; err != nil {
		return err
	}

	proj, _, err := loadProjection(tx, excludeSaleID)
	if err != nil {
		return err
	}
	for _, l := range cart.Lines {
		b := proj.Batch(l.ProductID, l.BatchCode)
		if b == nil || b.AvailablePacks < l.Qty {
			return fmt.Errorf("%s batch %s: %w", l.ProductName, l.BatchCode, stock.ErrQuantityExceedsBatch)
		}
	}
	return nil
}

func saleItemsFromCart(saleID uint, cart *stock.Cart) []models.SaleItem {
	items := make([]models.SaleItem, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		items = append(items, models.SaleItem{
			SaleID:    saleID,
			ProductID: l.ProductID,
			BatchCode: l.BatchCode,
			Quantity:  l.Qty,
			UnitPrice: l.UnitPrice,
			Subtotal:  l.LineTotal(),
		})
	}
	return items
}

// CreateSale is the checkout: validate the cart against live availability,
// then write the header and items in one transaction.
func CreateSale(c *gin.Context) {
	var in SaleInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.BadRequest(c, "Invalid payload", err)
		return
	}
	if !validPayment(in.PaymentMethod) {
		utils.BadRequest(c, "Invalid payment method", nil)
		return
	}

	proj, products, err := loadProjection(config.DB, 0)
	if err != nil {
		utils.ServerError(c, "Failed to compute stock", err)
		return
	}
	cart, err := buildCart(proj, products, in)
	if err != nil {
		utils.BadRequest(c, "Cannot compose sale", err)
		return
	}
	if err := cart.Validate(); err != nil {
		utils.BadRequest(c, "Sale rejected", err)
		return
	}

	var sale models.Sale
	err = config.DB.Transaction(func(tx *gorm.DB) error {
		if err := checkAvailability(tx, cart, 0); err != nil {
			return err
		}
		customerID, err := resolveCustomer(tx, in)
		if err != nil {
			return err
		}
		sale = models.Sale{
			CustomerID:     customerID,
			PaymentMethod:  cart.PaymentMethod,
			CashAmount:     cashPortion(cart),
			OnlineAmount:   onlinePortion(cart),
			DiscountAmount: cart.Discount,
			TotalAmount:    cart.GrandTotal(),
			DoctorName:     in.DoctorName,
			Notes:          in.Notes,
			SaleDate:       time.Now().UTC(),
		}
		if err := tx.Create(&sale).Error; err != nil {
			return err
		}
		return tx.Create(saleItemsFromCart(sale.ID, cart)).Error
	})
	if err != nil {
		if errors.Is(err, stock.ErrQuantityExceedsBatch) {
			utils.BadRequest(c, "Sale rejected", err)
			return
		}
		config.Log.Errorf("sale checkout failed: %v", err)
		utils.ServerError(c, "Failed to record sale", err)
		return
	}

	config.DB.Preload("Customer").Preload("Items.Product").First(&sale, sale.ID)
	utils.Created(c, "Sale recorded", sale)
}

// UpdateSale edits a finalized sale. The cart is validated against a
// projection that excludes this sale's own consumption, so resubmitting the
// original batches and quantities always passes; the items are then replaced
// wholesale.
func UpdateSale(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid id", nil)
		return
	}

	var sale models.Sale
	if err := config.DB.First(&sale, id).Error; err != nil {
		utils.NotFound(c, "Sale not found")
		return
	}

	var in SaleInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.BadRequest(c, "Invalid payload", err)
		return
	}
	if !validPayment(in.PaymentMethod) {
		utils.BadRequest(c, "Invalid payment method", nil)
		return
	}

	proj, products, err := loadProjection(config.DB, sale.ID)
	if err != nil {
		utils.ServerError(c, "Failed to compute stock", err)
		return
	}
	cart, err := buildCart(proj, products, in)
	if err != nil {
		utils.BadRequest(c, "Cannot compose sale", err)
		return
	}
	if err := cart.Validate(); err != nil {
		utils.BadRequest(c, "Sale rejected", err)
		return
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		if err := checkAvailability(tx, cart, sale.ID); err != nil {
			return err
		}
		customerID, err := resolveCustomer(tx, in)
		if err != nil {
			return err
		}
		updates := map[string]interface{}{
			"customer_id":     customerID,
			"payment_method":  cart.PaymentMethod,
			"cash_amount":     cashPortion(cart),
			"online_amount":   onlinePortion(cart),
			"discount_amount": cart.Discount,
			"total_amount":    cart.GrandTotal(),
			"doctor_name":     in.DoctorName,
			"notes":           in.Notes,
		}
		if err := tx.Model(&models.Sale{}).Where("id = ?", sale.ID).Updates(updates).Error; err != nil {
			return err
		}
		if err := tx.Where("sale_id = ?", sale.ID).Delete(&models.SaleItem{}).Error; err != nil {
			return err
		}
		return tx.Create(saleItemsFromCart(sale.ID, cart)).Error
	})
	if err != nil {
		if errors.Is(err, stock.ErrQuantityExceedsBatch) {
			utils.BadRequest(c, "Sale rejected", err)
			return
		}
		config.Log.Errorf("sale edit failed: %v", err)
		utils.ServerError(c, "Failed to update sale", err)
		return
	}

	config.DB.Preload("Customer").Preload("Items.Product").First(&sale, sale.ID)
	utils.OK(c, "Sale updated", sale)
}

func DeleteSale(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid id", nil)
		return
	}

	var sale models.Sale
	if err := config.DB.First(&sale, id).Error; err != nil {
		utils.NotFound(c, "Sale not found")
		return
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("sale_id = ?", sale.ID).Delete(&models.SaleItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&sale).Error
	})
	if err != nil {
		utils.ServerError(c, "Failed to delete sale", err)
		return
	}
	utils.OK(c, "Sale deleted", nil)
}

func GetSaleByID(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid id", nil)
		return
	}

	var sale models.Sale
	if err := config.DB.Preload("Customer").Preload("Items.Product").First(&sale, id).Error; err != nil {
		utils.NotFound(c, "Sale not found")
		return
	}
	utils.OK(c, "Sale fetched", sale)
}

// The terminal zeroes the unused channel on single-method payments.
func cashPortion(cart *stock.Cart) float64 {
	if cart.PaymentMethod == models.PaymentOnline {
		return 0
	}
	return cart.CashAmount
}

func onlinePortion(cart *stock.Cart) float64 {
	if cart.PaymentMethod == models.PaymentCash {
		return 0
	}
	return cart.OnlineAmount
}
